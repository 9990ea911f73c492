package h4

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func drain(c chan []byte) [][]byte {
	var out [][]byte
	for {
		select {
		case b := <-c:
			out = append(out, b)
		default:
			return out
		}
	}
}

func TestFrameSplitEvent(t *testing.T) {
	c := make(chan []byte, 8)
	f := newFrame(c)

	// garbage, then a pin code request split over three reads
	f.Assemble([]byte{0xaa, 0xbb, eventPacket, 0x16})
	f.Assemble([]byte{0x06, 1, 2, 3})
	assert.Empty(t, drain(c))
	f.Assemble([]byte{4, 5, 6})

	got := drain(c)
	assert.Equal(t, [][]byte{{eventPacket, 0x16, 0x06, 1, 2, 3, 4, 5, 6}}, got)
}

func TestFrameBackToBack(t *testing.T) {
	c := make(chan []byte, 8)
	f := newFrame(c)

	in := []byte{eventPacket, 0x17, 0x01, 0x09, aclPacket, 0x01, 0x20, 0x02, 0x00, 0xde, 0xad, eventPacket, 0x0e}
	f.Assemble(in)

	got := drain(c)
	assert.Len(t, got, 2)
	assert.Equal(t, []byte{eventPacket, 0x17, 0x01, 0x09}, got[0])
	assert.Equal(t, []byte{aclPacket, 0x01, 0x20, 0x02, 0x00, 0xde, 0xad}, got[1])

	f.Assemble([]byte{0x00})
	assert.Equal(t, [][]byte{{eventPacket, 0x0e, 0x00}}, drain(c))
}

func TestFrameTimeout(t *testing.T) {
	c := make(chan []byte, 8)
	f := newFrame(c)
	now := time.Unix(0, 0)
	f.now = func() time.Time { return now }

	f.Assemble([]byte{eventPacket, 0x16, 0x06, 1, 2})
	now = now.Add(time.Second)

	// stale partial is dropped, the new packet is framed on its own
	f.Assemble([]byte{eventPacket, 0x05, 0x00})
	assert.Equal(t, [][]byte{{eventPacket, 0x05, 0x00}}, drain(c))
}
