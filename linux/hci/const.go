package hci

// HCI Packet types
const (
	PktTypeCommand uint8 = 0x01
	PktTypeACLData uint8 = 0x02
	PktTypeSCOData uint8 = 0x03
	PktTypeEvent   uint8 = 0x04
	PktTypeVendor  uint8 = 0xFF
)

const (
	RoleMaster = 0x00
	RoleSlave  = 0x01
)

// InvalidHandle marks a device record without an ACL link.
const InvalidHandle uint16 = 0xffff

// HandleMask strips the packet boundary/broadcast flags from a handle.
const HandleMask uint16 = 0x0fff

// Link types of the Connection Request event.
const (
	LinkTypeSCO  = 0x00
	LinkTypeACL  = 0x01
	LinkTypeESCO = 0x02
)

// Page scan defaults used for Create Connection and Remote Name Request.
const (
	PageScanRepModeR1   = 0x01
	DefaultPacketTypes  = 0xcc18 // DM1 DH1 DM3 DH3 DM5 DH5
	AllowRoleSwitch     = 0x01
	ClockOffsetInvalid  = 0x0000
	SimplePairingOn     = 0x01
	AuthenticationOn    = 0x01
	AuthenticationOff   = 0x00
	EncryptionOn        = 0x01
	EncryptionOff       = 0x00
	SecureConnectionsOn = 0x01
)

// DefaultEventMask enables the BR/EDR security events.
const DefaultEventMask uint64 = 0x3dbff807fffbffff
