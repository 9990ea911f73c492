package sim

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/bond"
	"github.com/rigado/btsec/linux/hci/cmd"
	"github.com/rigado/btsec/linux/hci/sec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	phoneAddr = btsec.MustParseAddr("00:1b:dc:07:32:ef")
	phone     = btsec.DevClass{0x5a, 0x02, 0x0c}
)

type rig struct {
	t  *testing.T
	c  *Controller
	m  *sec.Manager
	bm hci.BondManager

	sp    []sec.SPEvent
	auths []hci.ErrCommand
	keys  []btsec.KeyType
	pins  []btsec.Addr
}

func newRig(t *testing.T) *rig {
	r := &rig{t: t, c: New()}
	r.bm = bond.NewBondManager(filepath.Join(t.TempDir(), "bonds.json"))

	cb := sec.Callbacks{
		PIN: func(a btsec.Addr, _ btsec.DevClass, _ string, _ bool) {
			r.pins = append(r.pins, a)
		},
		LinkKey: func(_ btsec.Addr, _ btsec.DevClass, _ string, _ btsec.LinkKey, kt btsec.KeyType) {
			r.keys = append(r.keys, kt)
		},
		AuthComplete: func(_ btsec.Addr, _ btsec.DevClass, _ string, st hci.ErrCommand) {
			r.auths = append(r.auths, st)
		},
		SP: func(e *sec.SPEvent) btsec.Status {
			r.sp = append(r.sp, *e)
			return btsec.StatusSuccess
		},
	}
	clk := sec.NewManualClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	m, err := sec.New(r.c, cb, btsec.OptClock(clk), btsec.OptEnableBonding(r.bm))
	require.NoError(t, err)
	r.m = m
	r.c.Attach(m)

	m.Reset()
	m.Flush()
	return r
}

func (r *rig) addPhone(p Peer) *Peer {
	p.Addr, p.Class, p.Name = phoneAddr, phone, "Phone"
	return r.c.AddPeer(&p)
}

func (r *rig) event(kind sec.SPEventKind) *sec.SPEvent {
	for i := len(r.sp) - 1; i >= 0; i-- {
		if r.sp[i].Kind == kind {
			return &r.sp[i]
		}
	}
	return nil
}

func (r *rig) state() sec.PairingState {
	st, _ := r.m.PairingState()
	return st
}

func (r *rig) flags(a btsec.Addr) sec.Flags {
	f, ok := r.m.SecurityFlags(a, btsec.TransportBREDR)
	require.True(r.t, ok)
	return f
}

func TestIncomingNumericComparison(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapDisplayYesNo, AuthReq: btsec.AuthSPGBYes})

	require.NoError(t, r.c.Connect(p.Addr))
	r.m.Flush()
	require.True(t, p.Connected())

	require.NoError(t, r.c.Pair(p.Addr))
	r.m.Flush()
	assert.Equal(t, sec.PairWaitNumericConfirm, r.state())

	e := r.event(sec.SPConfirmRequest)
	require.NotNil(t, e)
	assert.False(t, e.JustWorks)
	assert.Equal(t, p.Shown(), e.NumericValue)
	assert.Equal(t, btsec.IOCapDisplayYesNo, e.RemoteIOCap)

	r.m.ConfirmReqReply(btsec.StatusSuccess, p.Addr)
	r.m.Flush()
	assert.Equal(t, sec.PairIdle, r.state())

	key, kt, ok := p.LinkKey()
	require.True(t, ok)
	assert.Equal(t, btsec.KeyAuthComb, kt)
	mk, mkt, ok := r.m.LinkKey(p.Addr)
	require.True(t, ok)
	assert.Equal(t, key, mk)
	assert.Equal(t, kt, mkt)
	assert.True(t, r.bm.Exists(p.Addr.Key()))

	f := r.flags(p.Addr)
	assert.NotZero(t, f&sec.FlagEncrypted)
	assert.NotZero(t, f&sec.FlagAuthenticated)
	assert.NotZero(t, f&sec.FlagLinkKeyAuthed)
	assert.True(t, p.Encrypted())
}

func TestReconnectUsesStoredKey(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapNoInputNoOutput, AuthReq: btsec.AuthSPGBNo})

	require.NoError(t, r.c.Connect(p.Addr))
	r.m.Flush()
	require.NoError(t, r.c.Pair(p.Addr))
	r.m.Flush()

	e := r.event(sec.SPConfirmRequest)
	require.NotNil(t, e)
	assert.True(t, e.JustWorks)
	r.m.ConfirmReqReply(btsec.StatusSuccessNoSecurity, p.Addr)
	r.m.Flush()
	_, kt, ok := p.LinkKey()
	require.True(t, ok)
	assert.Equal(t, btsec.KeyUnauthComb, kt)

	require.NoError(t, r.c.Disconnect(p.Addr))
	r.m.Flush()
	assert.False(t, p.Connected())

	n := len(r.sp)
	require.NoError(t, r.c.Connect(p.Addr))
	r.m.Flush()
	require.NoError(t, r.c.Pair(p.Addr))
	r.m.Flush()

	// no second pairing
	assert.Len(t, r.sp, n)
	assert.True(t, p.Encrypted())
	assert.NotZero(t, r.flags(p.Addr)&sec.FlagEncrypted)
}

func TestDedicatedBonding(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapDisplayYesNo, AuthReq: btsec.AuthSPGBYes})

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(p.Addr, nil, nil))
	r.m.Flush()
	require.True(t, p.Connected())
	require.Equal(t, sec.PairWaitNumericConfirm, r.state())

	io := r.event(sec.SPIORequest)
	require.NotNil(t, io)
	assert.True(t, io.IsOriginator)

	r.m.ConfirmReqReply(btsec.StatusSuccess, p.Addr)
	r.m.Flush()

	assert.Equal(t, []hci.ErrCommand{hci.Success}, r.auths)
	assert.Equal(t, []btsec.KeyType{btsec.KeyAuthComb}, r.keys)
	assert.True(t, r.bm.Exists(p.Addr.Key()))
	// the link existed for the bonding only
	assert.False(t, p.Connected())
	assert.Equal(t, sec.PairIdle, r.state())
}

func TestDedicatedBondingRejectedByPeer(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapDisplayYesNo, AuthReq: btsec.AuthSPGBYes, Reject: true})

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(p.Addr, nil, nil))
	r.m.Flush()
	r.m.ConfirmReqReply(btsec.StatusSuccess, p.Addr)
	r.m.Flush()

	assert.Equal(t, []hci.ErrCommand{hci.ErrAuth}, r.auths)
	assert.Empty(t, r.keys)
	assert.False(t, r.bm.Exists(p.Addr.Key()))
	assert.False(t, p.Connected())

	sp := r.event(sec.SPComplete)
	require.NotNil(t, sp)
	assert.Equal(t, hci.ErrAuth, sp.Status)
}

func TestBondUnreachable(t *testing.T) {
	r := newRig(t)
	r.addPhone(Peer{SSP: true, Unreachable: true})

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(phoneAddr, nil, nil))
	r.m.Flush()

	require.NotEmpty(t, r.auths)
	assert.Equal(t, hci.ErrPageTimeout, r.auths[len(r.auths)-1])
	assert.Equal(t, sec.PairIdle, r.state())
}

func TestPasskeyNotification(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapKeyboardOnly, AuthReq: btsec.AuthSPGBYes})

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(p.Addr, nil, nil))
	r.m.Flush()

	e := r.event(sec.SPKeyNotification)
	require.NotNil(t, e)
	assert.True(t, e.Passkey <= btsec.MaxPasskey)
	assert.Equal(t, []hci.ErrCommand{hci.Success}, r.auths)
	_, kt, _ := p.LinkKey()
	assert.Equal(t, btsec.KeyAuthComb, kt)
}

func TestPasskeyEntry(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.m.SetLocalIOCap(btsec.IOCapKeyboardOnly))
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapDisplayOnly, AuthReq: btsec.AuthSPGBYes, Passkey: 123456})

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(p.Addr, nil, nil))
	r.m.Flush()
	require.Equal(t, sec.PairKeyEntry, r.state())
	require.NotNil(t, r.event(sec.SPKeyRequest))

	assert.Equal(t, btsec.StatusSuccess, r.m.SendKeypress(p.Addr, btsec.KeypressDigitEntered))
	assert.Equal(t, btsec.StatusSuccess, r.m.PasskeyReqReply(btsec.StatusSuccess, p.Addr, 123456))
	r.m.Flush()

	assert.Equal(t, []hci.ErrCommand{hci.Success}, r.auths)
	_, kt, _ := p.LinkKey()
	assert.Equal(t, btsec.KeyAuthComb, kt)
}

func TestIncomingLegacyPairing(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{PIN: "0000"})

	require.NoError(t, r.c.Connect(p.Addr))
	r.m.Flush()
	require.NoError(t, r.c.Pair(p.Addr))
	r.m.Flush()

	// the name is read before the user is asked
	require.Equal(t, []btsec.Addr{p.Addr}, r.pins)
	assert.Equal(t, sec.PairWaitLocalPin, r.state())

	r.m.PINCodeReply(p.Addr, btsec.StatusSuccess, []byte("0000"), nil)
	r.m.Flush()

	assert.Equal(t, []hci.ErrCommand{hci.Success}, r.auths)
	assert.Equal(t, []btsec.KeyType{btsec.KeyCombination}, r.keys)
	assert.True(t, r.bm.Exists(p.Addr.Key()))
	assert.True(t, p.Encrypted())
}

func TestIncomingLegacyWrongPIN(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{PIN: "1234"})

	require.NoError(t, r.c.Connect(p.Addr))
	r.m.Flush()
	require.NoError(t, r.c.Pair(p.Addr))
	r.m.Flush()
	r.m.PINCodeReply(p.Addr, btsec.StatusSuccess, []byte("0000"), nil)
	r.m.Flush()

	assert.Empty(t, r.keys)
	assert.False(t, r.bm.Exists(p.Addr.Key()))
	_, _, ok := p.LinkKey()
	assert.False(t, ok)

	// the peer dropped the link
	assert.False(t, p.Connected())
	assert.Equal(t, []hci.ErrCommand{hci.ErrAuth}, r.auths)
	assert.Equal(t, sec.PairIdle, r.state())
}

func TestReadLocalOOB(t *testing.T) {
	r := newRig(t)

	assert.Equal(t, btsec.StatusCmdStarted, r.m.ReadLocalOOB())
	r.m.Flush()

	e := r.event(sec.SPLocalOOB)
	require.NotNil(t, e)
	assert.Equal(t, hci.Success, e.Status)
	l := r.c.LocalOOB()
	require.NotNil(t, l)
	assert.Equal(t, l.C, e.C)
	assert.Equal(t, l.R, e.R)
}

func TestBondWithRemoteOOB(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapNoInputNoOutput, AuthReq: btsec.AuthSPGBNo})

	l, err := r.c.PeerOOB(p.Addr)
	require.NoError(t, err)
	r.m.SetRemoteOOB(p.Addr, l.C, l.R)

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(p.Addr, nil, nil))
	r.m.Flush()

	io := r.event(sec.SPIORequest)
	require.NotNil(t, io)
	assert.Equal(t, btsec.OOBPresentP192, io.OOB)
	// answered from the cache, the application is not asked
	assert.Nil(t, r.event(sec.SPRemoteOOBRequest))
	assert.Equal(t, []hci.ErrCommand{hci.Success}, r.auths)
	assert.True(t, r.bm.Exists(p.Addr.Key()))
}

func TestBondWithStaleOOB(t *testing.T) {
	r := newRig(t)
	p := r.addPhone(Peer{SSP: true, IOCap: btsec.IOCapNoInputNoOutput, AuthReq: btsec.AuthSPGBNo})

	l, err := r.c.PeerOOB(p.Addr)
	require.NoError(t, err)
	c := l.C
	c[0] ^= 0xff
	r.m.SetRemoteOOB(p.Addr, c, l.R)

	assert.Equal(t, btsec.StatusCmdStarted, r.m.Bond(p.Addr, nil, nil))
	r.m.Flush()

	assert.Equal(t, []hci.ErrCommand{hci.ErrAuth}, r.auths)
	assert.False(t, r.bm.Exists(p.Addr.Key()))
}

func TestSecureConnectionsKeys(t *testing.T) {
	r := &rig{t: t, c: New()}
	r.bm = bond.NewBondManager(filepath.Join(t.TempDir(), "bonds.json"))
	m, err := sec.New(r.c, sec.Callbacks{
		LinkKey: func(_ btsec.Addr, _ btsec.DevClass, _ string, _ btsec.LinkKey, kt btsec.KeyType) {
			r.keys = append(r.keys, kt)
		},
	}, btsec.OptSecurityMode(btsec.SecModeSC), btsec.OptEnableBonding(r.bm))
	require.NoError(t, err)
	r.m = m
	r.c.Attach(m)
	m.Reset()
	m.Flush()

	p := r.addPhone(Peer{SSP: true, SC: true, IOCap: btsec.IOCapNoInputNoOutput, AuthReq: btsec.AuthSPGBNo})
	require.NoError(t, r.c.Connect(p.Addr))
	m.Flush()
	require.NoError(t, r.c.Pair(p.Addr))
	m.Flush()

	// just works is accepted without an SP handler
	_, kt, ok := p.LinkKey()
	require.True(t, ok)
	assert.Equal(t, btsec.KeyUnauthCombP256, kt)

	// the LE key is derived from a P-256 link key
	f, ok := m.SecurityFlags(p.Addr, btsec.TransportLE)
	require.True(t, ok)
	assert.NotZero(t, f&sec.FlagLinkKeyKnown)
	assert.Zero(t, f&sec.FlagLinkKeyAuthed)
}

func TestAssociation(t *testing.T) {
	tests := []struct {
		local, remote btsec.IOCap
		mitm, oob     bool
		want          method
	}{
		{btsec.IOCapDisplayYesNo, btsec.IOCapDisplayYesNo, true, false, methodNumeric},
		{btsec.IOCapDisplayYesNo, btsec.IOCapDisplayYesNo, false, false, methodJustWorks},
		{btsec.IOCapDisplayYesNo, btsec.IOCapNoInputNoOutput, true, false, methodJustWorks},
		{btsec.IOCapKeyboardOnly, btsec.IOCapDisplayOnly, true, false, methodPasskeyEntry},
		{btsec.IOCapDisplayOnly, btsec.IOCapKeyboardOnly, true, false, methodPasskeyNotify},
		{btsec.IOCapDisplayYesNo, btsec.IOCapKeyboardOnly, true, false, methodPasskeyNotify},
		{btsec.IOCapNoInputNoOutput, btsec.IOCapNoInputNoOutput, false, true, methodOOB},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, association(tt.local, tt.remote, tt.mitm, tt.oob), "%v/%v", tt.local, tt.remote)
	}
}

func TestSendUnsupported(t *testing.T) {
	c := New()
	assert.Error(t, c.Send(&cmd.ReadBDADDR{}))
	assert.NoError(t, c.Send(&cmd.Reset{}))
}

func TestPeerActionsNeedALink(t *testing.T) {
	c := New()
	assert.Error(t, c.Connect(phoneAddr))
	c.AddPeer(&Peer{Addr: phoneAddr})
	assert.Error(t, c.Pair(phoneAddr))
	assert.Error(t, c.Disconnect(phoneAddr))

	// events are dropped without a handler
	require.NoError(t, c.Connect(phoneAddr))
	assert.False(t, c.peers[phoneAddr].Connected())
}
