package sec

import (
	"testing"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthKeyPossible(t *testing.T) {
	tests := []struct {
		local, remote btsec.IOCap
		want          bool
	}{
		{btsec.IOCapDisplayYesNo, btsec.IOCapDisplayYesNo, true},
		{btsec.IOCapDisplayOnly, btsec.IOCapDisplayOnly, false},
		{btsec.IOCapDisplayOnly, btsec.IOCapKeyboardOnly, true},
		{btsec.IOCapKeyboardOnly, btsec.IOCapDisplayOnly, true},
		{btsec.IOCapKeyboardOnly, btsec.IOCapKeyboardOnly, true},
		{btsec.IOCapDisplayYesNo, btsec.IOCapNoInputNoOutput, false},
		{btsec.IOCapNoInputNoOutput, btsec.IOCapKeyboardOnly, false},
		{btsec.IOCapMax, btsec.IOCapDisplayYesNo, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AuthKeyPossible(tt.local, tt.remote), "%v/%v", tt.local, tt.remote)
	}
}

// The peer pairs with us while an incoming channel waits for the link to
// be secured.
func TestIncomingNumericComparison(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.m.SetSecurityLevel(false, "serial", 7, RequirementSet{Authenticate: true, Encrypt: true}, psmSerial, 0, 0))

	h.connect(peer, peerHandle)
	assert.NotNil(t, h.tx.last(&cmd.AcceptConnectionRequest{}))
	h.hostFeatures(peer, true)

	var s sinks
	st := h.m.L2CAPAccessRequest(peer, psmSerial, peerHandle, false, s.sink())
	assert.Equal(t, btsec.StatusCmdStarted, st)
	assert.Equal(t, []btsec.Status{btsec.StatusDelayCheck}, s.statuses())

	h.ioCapResponse(peer, btsec.IOCapDisplayYesNo, btsec.AuthSPGBYes)
	h.ioCapRequest(peer)
	assert.Equal(t, &cmd.IOCapabilityRequestReply{
		BDADDR:                     peer.Wire(),
		IOCapability:               uint8(btsec.IOCapDisplayYesNo),
		OOBDataPresent:             uint8(btsec.OOBNone),
		AuthenticationRequirements: uint8(btsec.AuthSPGBNo),
	}, h.tx.last(&cmd.IOCapabilityRequestReply{}))

	h.userConfirm(peer, 123456)
	state, addr := h.m.PairingState()
	assert.Equal(t, PairWaitNumericConfirm, state)
	assert.Equal(t, peer, addr)

	e := h.sp[len(h.sp)-1]
	assert.Equal(t, SPConfirmRequest, e.Kind)
	assert.Equal(t, uint32(123456), e.NumericValue)
	assert.False(t, e.JustWorks)

	h.m.ConfirmReqReply(btsec.StatusSuccess, peer)
	assert.NotNil(t, h.tx.last(&cmd.UserConfirmationRequestReply{}))

	h.spComplete(peer, hci.Success)
	h.linkKeyNotification(peer, btsec.KeyAuthComb)
	state, _ = h.m.PairingState()
	assert.Equal(t, PairIdle, state)
	assert.Empty(t, h.keys, "key is reported once the name is known")

	h.encChange(peerHandle, hci.Success, true)
	require.NotNil(t, h.tx.last(&cmd.RemoteNameRequest{}), "name is read before granting")
	h.nameComplete(peer, hci.Success, "Phone")

	assert.Equal(t, []btsec.Status{btsec.StatusDelayCheck, btsec.StatusSuccess}, s.statuses())
	assert.Equal(t, []authResult{{peer, hci.Success}}, h.auths)
	assert.Equal(t, []btsec.KeyType{btsec.KeyAuthComb}, h.keys)
	assert.Equal(t, []SPEventKind{SPIOResponse, SPIORequest, SPConfirmRequest, SPComplete}, h.spKinds())
	assert.Equal(t, []string{"Phone"}, h.names)

	flags, ok := h.m.SecurityFlags(peer, btsec.TransportBREDR)
	require.True(t, ok)
	want := FlagAuthenticated | FlagEncrypted | FlagNameKnown | FlagLinkKeyKnown | FlagLinkKeyAuthed
	assert.Equal(t, want, flags&want, "flags %v", flags)
}

func TestJustWorksAutoAccept(t *testing.T) {
	h := newHarness(t)
	h.m.cb.SP = nil

	h.ioCapResponse(peer, btsec.IOCapNoInputNoOutput, btsec.AuthSPGBNo)
	h.ioCapRequest(peer)
	h.userConfirm(peer, 0)

	assert.NotNil(t, h.tx.last(&cmd.UserConfirmationRequestReply{}))
	state, _ := h.m.PairingState()
	assert.Equal(t, PairWaitAuthComplete, state)
}

func TestConfirmationTimeout(t *testing.T) {
	h := newHarness(t)

	h.ioCapResponse(peer, btsec.IOCapDisplayYesNo, btsec.AuthSPGBYes)
	h.ioCapRequest(peer)
	h.userConfirm(peer, 42)

	h.advance(defaultPairingTimeout - 1)
	state, _ := h.m.PairingState()
	assert.Equal(t, PairWaitNumericConfirm, state)
	assert.Nil(t, h.tx.last(&cmd.UserConfirmationRequestNegativeReply{}))

	h.advance(1)
	state, addr := h.m.PairingState()
	assert.Equal(t, PairIdle, state)
	assert.Equal(t, btsec.AddrNone, addr)
	assert.NotNil(t, h.tx.last(&cmd.UserConfirmationRequestNegativeReply{}))
	assert.Equal(t, []authResult{{peer, hci.ErrConnTimeout}}, h.auths)

	// a late reply is ignored
	h.tx.reset()
	h.m.ConfirmReqReply(btsec.StatusSuccess, peer)
	assert.Empty(t, h.tx.cmds)
}

func TestIOCapRequestRejectedWhileBusy(t *testing.T) {
	h := newHarness(t)

	h.ioCapResponse(peer, btsec.IOCapDisplayYesNo, btsec.AuthSPGBYes)
	h.ioCapRequest(other)
	assert.Equal(t, &cmd.IOCapabilityRequestNegativeReply{
		BDADDR: other.Wire(),
		Reason: uint8(hci.ErrHostBusyPairing),
	}, h.tx.last(&cmd.IOCapabilityRequestNegativeReply{}))

	h.m.SetPairableMode(false, false)
	h.advance(defaultPairingTimeout)
	h.ioCapRequest(other)
	assert.Equal(t, uint8(hci.ErrPairingNotAllowed), h.tx.last(&cmd.IOCapabilityRequestNegativeReply{}).(*cmd.IOCapabilityRequestNegativeReply).Reason)
}

func TestPasskeyEntry(t *testing.T) {
	h := newHarness(t, btsec.OptLocalIOCap(btsec.IOCapKeyboardOnly))

	h.ioCapResponse(peer, btsec.IOCapDisplayOnly, btsec.AuthSPGBYes)
	h.ioCapRequest(peer)
	h.passkeyRequest(peer)

	state, _ := h.m.PairingState()
	require.Equal(t, PairKeyEntry, state)
	assert.Equal(t, btsec.StatusSuccess, h.m.SendKeypress(peer, btsec.KeypressEntryStarted))
	assert.Equal(t, btsec.StatusWrongMode, h.m.SendKeypress(other, btsec.KeypressEntryStarted))

	assert.Equal(t, btsec.StatusSuccess, h.m.PasskeyReqReply(btsec.StatusSuccess, peer, 654321))
	assert.Equal(t, &cmd.UserPasskeyRequestReply{BDADDR: peer.Wire(), NumericValue: 654321},
		h.tx.last(&cmd.UserPasskeyRequestReply{}))
	assert.Equal(t, btsec.StatusWrongMode, h.m.SendKeypress(peer, btsec.KeypressEntryCompleted))
}

func TestPasskeyOutOfRange(t *testing.T) {
	h := newHarness(t, btsec.OptLocalIOCap(btsec.IOCapKeyboardOnly))

	h.ioCapResponse(peer, btsec.IOCapDisplayOnly, btsec.AuthSPGBYes)
	h.ioCapRequest(peer)
	h.passkeyRequest(peer)

	assert.Equal(t, btsec.StatusIllegalValue, h.m.PasskeyReqReply(btsec.StatusSuccess, peer, btsec.MaxPasskey+1))
	assert.NotNil(t, h.tx.last(&cmd.UserPasskeyRequestNegativeReply{}))
	assert.Nil(t, h.tx.last(&cmd.UserPasskeyRequestReply{}))
}

func TestRemoteOOBFromCache(t *testing.T) {
	h := newHarness(t)
	c := [16]byte{0xc0}
	r := [16]byte{0x70}
	h.m.SetRemoteOOB(peer, c, r)

	h.ioCapResponse(peer, btsec.IOCapDisplayYesNo, btsec.AuthSPGBNo)
	h.ioCapRequest(peer)
	rep := h.tx.last(&cmd.IOCapabilityRequestReply{}).(*cmd.IOCapabilityRequestReply)
	assert.Equal(t, uint8(btsec.OOBPresentP192), rep.OOBDataPresent)

	h.remoteOOBRequest(peer)
	assert.Equal(t, &cmd.RemoteOOBDataRequestReply{BDADDR: peer.Wire(), C: c, R: r},
		h.tx.last(&cmd.RemoteOOBDataRequestReply{}))
	assert.NotContains(t, h.spKinds(), SPRemoteOOBRequest)

	state, _ := h.m.PairingState()
	assert.Equal(t, PairWaitAuthComplete, state)
}

func TestRemoteOOBFromApplication(t *testing.T) {
	h := newHarness(t)

	h.ioCapResponse(peer, btsec.IOCapDisplayYesNo, btsec.AuthSPGBNo)
	h.ioCapRequest(peer)
	h.remoteOOBRequest(peer)
	require.Contains(t, h.spKinds(), SPRemoteOOBRequest)
	assert.Nil(t, h.tx.last(&cmd.RemoteOOBDataRequestReply{}))

	h.m.RemoteOobDataReply(btsec.StatusSuccess, peer, [16]byte{1}, [16]byte{2})
	assert.NotNil(t, h.tx.last(&cmd.RemoteOOBDataRequestReply{}))
}

func TestLocalOOB(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, btsec.StatusCmdStarted, h.m.ReadLocalOOB())

	op := (&cmd.ReadLocalOOBData{}).OpCode()
	params := []byte{1, byte(op), byte(op >> 8), byte(hci.Success)}
	params = append(params, make([]byte, 32)...)
	params[4] = 0xcc  // C[0]
	params[20] = 0xaa // R[0]
	h.event(0x0e, params)

	require.Equal(t, []SPEventKind{SPLocalOOB}, h.spKinds())
	e := h.sp[0]
	assert.Equal(t, hci.Success, e.Status)
	assert.Equal(t, byte(0xcc), e.C[0])
	assert.Equal(t, byte(0xaa), e.R[0])
}
