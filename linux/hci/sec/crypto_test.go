package sec

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// [Vol 3, Part H, D.8]
func TestH6(t *testing.T) {
	w := mustHex(t, "ec0234a357c8ad05341010a60a397d9b")
	keyID := mustHex(t, "6c656272")

	out, err := h6(w, keyID)
	require.NoError(t, err)
	assert.Equal(t, "2d9ae102e76dc91ce8d3a9e280b16399", hex.EncodeToString(out))
}

func TestDeriveLTK(t *testing.T) {
	a, err := deriveLTK(testKey)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := deriveLTK(testKey)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := testKey
	other[0] ^= 0xff
	c, err := deriveLTK(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
