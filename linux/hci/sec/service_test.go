package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMergesDirections(t *testing.T) {
	r := newServiceRegistry(4)
	require.True(t, r.register(true, "serial", 7, RequirementSet{Authenticate: true}, psmSerial, 0, 0, true))
	require.True(t, r.register(false, "serial", 7, RequirementSet{Encrypt: true, AuthHigh: true}, psmSerial, 0, 0, true))

	s := r.findFirst(false, psmSerial)
	require.NotNil(t, s)
	assert.Nil(t, r.findNext(s))
	assert.Equal(t, RequirementSet{Authenticate: true, MITM: true}, s.req.Orig)
	// mitm follows an explicit authenticate, not one implied by encrypt
	assert.Equal(t, RequirementSet{Authenticate: true, Encrypt: true, AuthHigh: true}, s.req.Acc)
	assert.Equal(t, s, r.out)
}

func TestRegisterDropsAuthHighForOriginator(t *testing.T) {
	r := newServiceRegistry(2)
	require.True(t, r.register(true, "x", 1, RequirementSet{AuthHigh: true}, psmAudio, 0, 0, false))
	assert.False(t, r.findFirst(true, psmAudio).req.Orig.AuthHigh)
}

func TestRegistryFull(t *testing.T) {
	r := newServiceRegistry(1)
	require.True(t, r.register(false, "a", 1, RequirementSet{}, psmSerial, 0, 0, false))
	assert.False(t, r.register(false, "b", 2, RequirementSet{}, psmAudio, 0, 0, false))

	// the same service updates in place
	assert.True(t, r.register(false, "a", 1, RequirementSet{Encrypt: true}, psmSerial, 0, 0, false))
}

func TestFindMx(t *testing.T) {
	r := newServiceRegistry(4)
	r.register(false, "mux", ServiceRFCMux, RequirementSet{}, PSMRFCOMM, ProtoRFCOMM, 0, true)
	r.register(false, "spp", 10, RequirementSet{Encrypt: true}, PSMRFCOMM, ProtoRFCOMM, 3, true)
	r.register(true, "dun", 11, RequirementSet{Authenticate: true}, PSMRFCOMM, ProtoRFCOMM, 5, true)

	s := r.findMx(false, PSMRFCOMM, ProtoRFCOMM, 3)
	require.NotNil(t, s)
	assert.Equal(t, uint8(10), s.serviceID)
	assert.Nil(t, r.findMx(false, PSMRFCOMM, ProtoRFCOMM, 5))

	s = r.findMx(true, PSMRFCOMM, ProtoRFCOMM, 5)
	require.NotNil(t, s)
	assert.Equal(t, uint8(11), s.serviceID)
	assert.Equal(t, s, r.findOut(11, 5))
}

func TestClearServices(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.m.SetSecurityLevel(false, "SDP", 0, RequirementSet{}, PSMSDP, 0, 0))
	require.True(t, h.m.SetSecurityLevel(false, "serial", 7, RequirementSet{}, psmSerial, 0, 0))
	require.True(t, h.m.SetSecurityLevel(true, "audio", 8, RequirementSet{}, psmAudio, 0, 0))

	assert.Equal(t, 1, h.m.ClearServiceByPSM(psmAudio))
	assert.Nil(t, h.m.servs.out)
	assert.Equal(t, 1, h.m.ClearService(7))
	assert.Equal(t, 0, h.m.ClearService(7))

	// everything but SDP, including the multiplexer registered at reset
	assert.Equal(t, 1, h.m.ClearService(0))
	assert.NotNil(t, h.m.servs.findFirst(false, PSMSDP))
}
