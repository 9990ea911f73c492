package evt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionComplete(t *testing.T) {
	e := ConnectionComplete{0x00, 0x41, 0x20, 1, 2, 3, 4, 5, 6, 0x01, 0x00}

	assert.Equal(t, uint8(0), e.Status())
	assert.Equal(t, uint16(0x041), e.ConnectionHandle(), "flags must be masked off")
	assert.Equal(t, [6]byte{1, 2, 3, 4, 5, 6}, e.BDADDR())
	assert.Equal(t, uint8(1), e.LinkType())
}

func TestShortEvent(t *testing.T) {
	e := LinkKeyNotification{1, 2, 3}

	_, err := e.BDADDRWErr()
	require.Error(t, err)
	_, err = e.LinkKeyWErr()
	require.Error(t, err)
	assert.Equal(t, uint8(0xff), e.KeyType(), "missing key type defaults to 0xff")

	var nilEvt UserConfirmationRequest
	_, err = nilEvt.NumericValueWErr()
	assert.Error(t, err)
}

func TestNumericValue(t *testing.T) {
	e := UserConfirmationRequest{1, 2, 3, 4, 5, 6, 0x3f, 0x42, 0x0f, 0x00}
	v, err := e.NumericValueWErr()
	require.NoError(t, err)
	assert.Equal(t, uint32(999999), v)
}

func TestRemoteName(t *testing.T) {
	b := []byte{0x00, 1, 2, 3, 4, 5, 6}
	b = append(b, []byte("headset")...)
	b = append(b, make([]byte, 10)...)

	e := RemoteNameRequestComplete(b)
	assert.Equal(t, "headset", e.Name())

	assert.Equal(t, "", RemoteNameRequestComplete{0x04, 1, 2, 3, 4, 5, 6}.Name())
}

func TestCommandStatus(t *testing.T) {
	e := CommandStatus{0x00, 0x01, 0x11, 0x04}
	assert.True(t, e.Valid())
	assert.Equal(t, uint16(0x0411), e.CommandOpcode())
	assert.False(t, CommandStatus{0x00}.Valid())
}
