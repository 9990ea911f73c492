package sec

import (
	"testing"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteNothingRequired(t *testing.T) {
	for _, tt := range []struct {
		name  string
		setup func(h *harness)
	}{
		{"connected, name unknown", func(h *harness) { h.legacyPeer() }},
		{"connected ssp", func(h *harness) { h.sspPeer() }},
		{"not connected", func(h *harness) {
			h.hostFeatures(peer, false)
			h.tx.reset()
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)
			r := h.m.find(peer)
			require.NotNil(t, r)
			flags := r.flags

			for i := 0; i < 2; i++ {
				assert.Equal(t, btsec.StatusSuccess, h.m.execute(r))
				assert.Empty(t, h.tx.cmds)
				assert.Equal(t, stateIdle, r.state)
				assert.Equal(t, flags, r.flags)
			}
		})
	}
}

func TestAccessWithoutRequirementsSkipsName(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.m.SetSecurityLevel(false, "open", idSerial, RequirementSet{}, psmSerial, 0, 0))
	h.legacyPeer()

	var s sinks
	assert.Equal(t, btsec.StatusSuccess, h.m.L2CAPAccessRequest(peer, psmSerial, peerHandle, false, s.sink()))
	assert.Equal(t, []btsec.Status{btsec.StatusSuccess}, s.statuses())
	assert.Nil(t, h.tx.last(&cmd.RemoteNameRequest{}))
}

func TestAuthenticationSendFailureLeavesLinkIdle(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.m.SetSecurityLevel(false, "serial", idSerial, RequirementSet{Authenticate: true}, psmSerial, 0, 0))
	h.legacyPeer()
	h.tx.fail[(&cmd.AuthenticationRequested{}).OpCode()] = true

	var s sinks
	require.Equal(t, btsec.StatusCmdStarted, h.m.L2CAPAccessRequest(peer, psmSerial, peerHandle, false, s.sink()))
	h.nameComplete(peer, hci.Success, "Laptop")
	assert.Equal(t, []btsec.Status{btsec.StatusNoResources}, s.statuses())
	assert.Equal(t, stateIdle, h.m.find(peer).state)

	// the next request starts over
	delete(h.tx.fail, (&cmd.AuthenticationRequested{}).OpCode())
	s.got = nil
	assert.Equal(t, btsec.StatusCmdStarted, h.m.L2CAPAccessRequest(peer, psmSerial, peerHandle, false, s.sink()))
	assert.Equal(t, 2, h.tx.count(&cmd.AuthenticationRequested{}))
	assert.Equal(t, stateAuthenticating, h.m.find(peer).state)

	h.authComplete(peerHandle, hci.Success)
	assert.Equal(t, []btsec.Status{btsec.StatusSuccess}, s.statuses())
}
