package sliceops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwapBuf(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5}
	out := SwapBuf(in)
	assert.Equal(t, []byte{5, 4, 3, 2, 1}, out)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, in, "input must not be modified")
	assert.Empty(t, SwapBuf(nil))
}

func TestSwap16(t *testing.T) {
	var in [16]byte
	for i := range in {
		in[i] = byte(i)
	}
	out := Swap16(in)
	assert.Equal(t, byte(15), out[0])
	assert.Equal(t, byte(0), out[15])
}
