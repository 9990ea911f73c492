package h4

// H4 packet indicators.
const (
	commandPacket = 0x01
	aclPacket     = 0x02
	scoPacket     = 0x03
	eventPacket   = 0x04
)

const (
	rxQueueSize = 64
	txQueueSize = 64
)
