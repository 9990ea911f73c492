package cmd

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type command interface {
	OpCode() int
	Len() int
	Marshal([]byte) error
}

func TestLenMatchesLayout(t *testing.T) {
	cmds := []command{
		&CreateConnection{}, &Disconnect{}, &CreateConnectionCancel{},
		&AcceptConnectionRequest{}, &RejectConnectionRequest{},
		&LinkKeyRequestReply{}, &LinkKeyRequestNegativeReply{},
		&PINCodeRequestReply{}, &PINCodeRequestNegativeReply{},
		&AuthenticationRequested{}, &SetConnectionEncryption{},
		&RemoteNameRequest{}, &RemoteNameRequestCancel{},
		&IOCapabilityRequestReply{}, &IOCapabilityRequestNegativeReply{},
		&UserConfirmationRequestReply{}, &UserConfirmationRequestNegativeReply{},
		&UserPasskeyRequestReply{}, &UserPasskeyRequestNegativeReply{},
		&RemoteOOBDataRequestReply{}, &RemoteOOBDataRequestNegativeReply{},
		&SetEventMask{}, &Reset{}, &WritePINType{}, &WriteAuthenticationEnable{},
		&WriteSimplePairingMode{}, &ReadLocalOOBData{}, &SendKeypressNotification{},
		&WriteSecureConnectionsHostSupport{}, &ReadLocalOOBExtendedData{},
		&ReadBDADDR{}, &WriteSimplePairingDebugMode{},
	}

	seen := map[int]bool{}
	for _, c := range cmds {
		assert.Equal(t, binary.Size(c), c.Len(), "%v", c)
		assert.False(t, seen[c.OpCode()], "duplicate opcode 0x%04x", c.OpCode())
		seen[c.OpCode()] = true

		b := make([]byte, 64)
		assert.NoError(t, c.Marshal(b), "%v", c)
	}
}

func TestMarshalPINCodeRequestReply(t *testing.T) {
	c := &PINCodeRequestReply{
		BDADDR:        [6]byte{0x55, 0x44, 0x33, 0x22, 0x11, 0x00},
		PINCodeLength: 4,
	}
	copy(c.PINCode[:], "1234")

	b := make([]byte, 64)
	require.NoError(t, c.Marshal(b))
	assert.Equal(t, 0x040D, c.OpCode())
	assert.Equal(t, []byte{0x55, 0x44, 0x33, 0x22, 0x11, 0x00, 4, '1', '2', '3', '4'}, b[:11])
	assert.Equal(t, make([]byte, 12), b[11:23])
}

func TestMarshalShortBuffer(t *testing.T) {
	c := &RemoteOOBDataRequestReply{}
	assert.Error(t, c.Marshal(make([]byte, 10)))
}

func TestUnmarshalReadLocalOOBData(t *testing.T) {
	b := make([]byte, 33)
	b[1] = 0xc0
	b[17] = 0x70
	var rp ReadLocalOOBDataRP
	require.NoError(t, rp.Unmarshal(b))
	assert.Equal(t, uint8(0), rp.Status)
	assert.Equal(t, byte(0xc0), rp.C[0])
	assert.Equal(t, byte(0x70), rp.R[0])

	assert.Error(t, rp.Unmarshal(b[:5]))
}
