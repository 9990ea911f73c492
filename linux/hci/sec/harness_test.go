package sec

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/bond"
	"github.com/rigado/btsec/linux/hci/evt"
	"github.com/stretchr/testify/require"
)

var (
	peer      = btsec.MustParseAddr("00:1b:dc:07:32:ef")
	other     = btsec.MustParseAddr("00:1b:dc:07:32:f0")
	phone     = btsec.DevClass{0x5a, 0x02, 0x0c}
	keyboard  = btsec.DevClass{0x00, 0x05, 0x40}
	testKey   = btsec.LinkKey{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	startTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
)

const (
	peerHandle  uint16 = 0x0040
	otherHandle uint16 = 0x0041

	psmSerial uint16 = 0x1101
	psmAudio  uint16 = 0x0019
)

// fakeSender records commands. Opcodes in fail are refused.
type fakeSender struct {
	cmds []hci.Command
	fail map[int]bool
}

func (s *fakeSender) Send(c hci.Command) error {
	s.cmds = append(s.cmds, c)
	if s.fail[c.OpCode()] {
		return hci.ErrCommandDisallowed
	}
	return nil
}

func (s *fakeSender) reset() { s.cmds = nil }

// last returns the last command with the opcode of c, nil if none.
func (s *fakeSender) last(c hci.Command) hci.Command {
	for i := len(s.cmds) - 1; i >= 0; i-- {
		if s.cmds[i].OpCode() == c.OpCode() {
			return s.cmds[i]
		}
	}
	return nil
}

func (s *fakeSender) count(c hci.Command) int {
	n := 0
	for _, x := range s.cmds {
		if x.OpCode() == c.OpCode() {
			n++
		}
	}
	return n
}

// ops returns the opcodes sent, in order.
func (s *fakeSender) ops() []int {
	var ops []int
	for _, c := range s.cmds {
		ops = append(ops, c.OpCode())
	}
	return ops
}

func opcodes(cs ...hci.Command) []int {
	var ops []int
	for _, c := range cs {
		ops = append(ops, c.OpCode())
	}
	return ops
}

type authResult struct {
	addr   btsec.Addr
	status hci.ErrCommand
}

type sinkResult struct {
	addr   btsec.Addr
	status btsec.Status
}

type harness struct {
	t   *testing.T
	m   *Manager
	tx  *fakeSender
	clk *ManualClock

	pins    []btsec.Addr
	auths   []authResult
	keys    []btsec.KeyType
	sp      []SPEvent
	cancels []btsec.Status
	names   []string

	authorize func(serviceID uint8) btsec.Status
	spReply   func(e *SPEvent) btsec.Status
}

func newHarness(t *testing.T, opts ...btsec.Option) *harness {
	h := &harness{
		t:   t,
		tx:  &fakeSender{fail: map[int]bool{}},
		clk: NewManualClock(startTime),
	}
	cb := Callbacks{
		PIN: func(a btsec.Addr, _ btsec.DevClass, _ string, _ bool) {
			h.pins = append(h.pins, a)
		},
		LinkKey: func(_ btsec.Addr, _ btsec.DevClass, _ string, _ btsec.LinkKey, kt btsec.KeyType) {
			h.keys = append(h.keys, kt)
		},
		AuthComplete: func(a btsec.Addr, _ btsec.DevClass, _ string, st hci.ErrCommand) {
			h.auths = append(h.auths, authResult{a, st})
		},
		BondCancelComplete: func(st btsec.Status) {
			h.cancels = append(h.cancels, st)
		},
		Authorize: func(_ btsec.Addr, _ btsec.DevClass, _, _ string, id uint8, _ bool) btsec.Status {
			if h.authorize != nil {
				return h.authorize(id)
			}
			return btsec.StatusSuccess
		},
		SP: func(e *SPEvent) btsec.Status {
			h.sp = append(h.sp, *e)
			if h.spReply != nil {
				return h.spReply(e)
			}
			return btsec.StatusSuccess
		},
	}

	opts = append([]btsec.Option{btsec.OptClock(h.clk)}, opts...)
	m, err := New(h.tx, cb, opts...)
	require.NoError(t, err)
	h.m = m
	m.AddRemoteNameNotify(func(_ btsec.Addr, _ btsec.DevClass, name string) {
		h.names = append(h.names, name)
	})
	m.Reset()
	h.tx.reset()
	return h
}

func withBonds(t *testing.T) (btsec.Option, hci.BondManager) {
	bm := bond.NewBondManager(filepath.Join(t.TempDir(), "bonds.json"))
	return btsec.OptEnableBonding(bm), bm
}

// event hands params to the manager and runs whatever it posted.
func (h *harness) event(code int, params ...[]byte) {
	var b []byte
	for _, p := range params {
		b = append(b, p...)
	}
	require.NoError(h.t, h.m.HandleEvent(code, b))
	h.m.Flush()
}

func (h *harness) advance(d time.Duration) {
	h.clk.Advance(d)
	h.m.Flush()
}

func (h *harness) spKinds() []SPEventKind {
	var ks []SPEventKind
	for _, e := range h.sp {
		ks = append(ks, e.Kind)
	}
	return ks
}

func wire(a btsec.Addr) []byte {
	w := a.Wire()
	return w[:]
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func le32(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }

func (h *harness) connRequest(a btsec.Addr, class btsec.DevClass) {
	cod := class.Wire()
	h.event(evt.ConnectionRequestCode, wire(a), cod[:], []byte{hci.LinkTypeACL})
}

func (h *harness) connComplete(a btsec.Addr, handle uint16, status hci.ErrCommand) {
	h.event(evt.ConnectionCompleteCode, []byte{byte(status)}, le16(handle), wire(a), []byte{hci.LinkTypeACL, hci.EncryptionOff})
}

// connect brings up an incoming ACL to a.
func (h *harness) connect(a btsec.Addr, handle uint16) {
	h.connRequest(a, phone)
	h.connComplete(a, handle, hci.Success)
}

func (h *harness) disconnComplete(handle uint16, reason hci.ErrCommand) {
	h.event(evt.DisconnectionCompleteCode, []byte{byte(hci.Success)}, le16(handle), []byte{byte(reason)})
}

func (h *harness) authComplete(handle uint16, status hci.ErrCommand) {
	h.event(evt.AuthenticationCompleteCode, []byte{byte(status)}, le16(handle))
}

func (h *harness) nameComplete(a btsec.Addr, status hci.ErrCommand, name string) {
	n := append([]byte(name), 0)
	h.event(evt.RemoteNameRequestCompleteCode, []byte{byte(status)}, wire(a), n)
}

func (h *harness) encChange(handle uint16, status hci.ErrCommand, on bool) {
	enc := byte(hci.EncryptionOff)
	if on {
		enc = hci.EncryptionOn
	}
	h.event(evt.EncryptionChangeCode, []byte{byte(status)}, le16(handle), []byte{enc})
}

func (h *harness) hostFeatures(a btsec.Addr, ssp bool) {
	feat := make([]byte, 8)
	if ssp {
		feat[0] = hostFeatSSP
	}
	h.event(evt.RemoteHostSupportedFeaturesNotificationCode, wire(a), feat)
}

func (h *harness) pinRequest(a btsec.Addr) {
	h.event(evt.PINCodeRequestCode, wire(a))
}

func (h *harness) linkKeyRequest(a btsec.Addr) {
	h.event(evt.LinkKeyRequestCode, wire(a))
}

func (h *harness) linkKeyNotification(a btsec.Addr, kt btsec.KeyType) {
	h.event(evt.LinkKeyNotificationCode, wire(a), testKey[:], []byte{byte(kt)})
}

func (h *harness) ioCapRequest(a btsec.Addr) {
	h.event(evt.IOCapabilityRequestCode, wire(a))
}

func (h *harness) ioCapResponse(a btsec.Addr, io btsec.IOCap, auth btsec.AuthReq) {
	h.event(evt.IOCapabilityResponseCode, wire(a), []byte{byte(io), byte(btsec.OOBNone), byte(auth)})
}

func (h *harness) userConfirm(a btsec.Addr, v uint32) {
	h.event(evt.UserConfirmationRequestCode, wire(a), le32(v))
}

func (h *harness) passkeyRequest(a btsec.Addr) {
	h.event(evt.UserPasskeyRequestCode, wire(a))
}

func (h *harness) remoteOOBRequest(a btsec.Addr) {
	h.event(evt.RemoteOOBDataRequestCode, wire(a))
}

// cmdComplete reports the completion of c with return parameters rp.
func (h *harness) cmdComplete(c hci.Command, rp ...byte) {
	op := c.OpCode()
	h.event(evt.CommandCompleteCode, []byte{1, byte(op), byte(op >> 8)}, rp)
}

func (h *harness) spComplete(a btsec.Addr, status hci.ErrCommand) {
	h.event(evt.SimplePairingCompleteCode, []byte{byte(status)}, wire(a))
}

// sinks collects completion results in call order.
type sinks struct {
	got []sinkResult
}

func (s *sinks) sink() SecurityCompletionSink {
	return SinkFunc(func(a btsec.Addr, _ btsec.Transport, st btsec.Status) {
		s.got = append(s.got, sinkResult{a, st})
	})
}

func (s *sinks) statuses() []btsec.Status {
	var sts []btsec.Status
	for _, r := range s.got {
		sts = append(sts, r.status)
	}
	return sts
}
