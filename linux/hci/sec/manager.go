package sec

import (
	"context"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
)

const (
	defaultMaxDevices      = 100
	defaultMaxServices     = 32
	defaultPairingTimeout  = 35 * time.Second
	defaultCollisionWindow = 5 * time.Second

	collisionRetryDelay = 1 * time.Second
	disconnectGrace     = 1 * time.Second

	queueSize      = 256
	remoteOOBSlots = 8
	nameNotifySize = 2
)

type handlerFn func(b []byte) error

// Manager is the BR/EDR security manager of one controller. It owns the
// device records, the service registry and the pairing state.
//
// Manager is not safe for concurrent use. Its methods run on the goroutine
// calling Run; other goroutines go through Post or Do.
type Manager struct {
	sender hci.Sender
	cb     Callbacks
	logger btsec.Logger
	clock  Clock
	bonds  hci.BondManager

	queue chan func()
	evth  map[int]handlerFn

	devs  *deviceStore
	servs *serviceRegistry

	maxDevices      int
	maxServices     int
	pairingTimeout  time.Duration
	collisionWindow time.Duration

	locIOCap     btsec.IOCap
	secMode      btsec.SecurityMode
	spDebug      bool
	scHost       bool
	scOnly       bool
	sspSupported bool
	up           bool

	pairingDisabled   bool
	connectOnlyPaired bool
	pinType           btsec.PinType
	fixedPin          []byte
	modeChanged       bool
	pinTypeChanged    bool

	localName  string
	localAddr  btsec.Addr
	localClass btsec.DevClass

	connectFilter func(btsec.Addr, btsec.DevClass) bool
	nameNotify    [nameNotifySize]RemoteNameFunc

	pairing pairingCB

	collisionStart time.Time
	collided       *deviceRecord
	collisionTimer *timer

	connectingAddr  btsec.Addr
	connectingClass btsec.DevClass
	nameReqAddr     btsec.Addr

	secReqPending bool
	l2capPending  []*AccessRequest
	mxPending     []*AccessRequest

	remoteOOB *lru.Cache
}

// New creates a manager that drives the controller through sender.
func New(sender hci.Sender, cb Callbacks, opts ...btsec.Option) (*Manager, error) {
	if sender == nil {
		return nil, errors.New("nil sender")
	}

	m := &Manager{
		sender:          sender,
		cb:              cb,
		logger:          btsec.GetLogger(),
		clock:           wallClock{},
		queue:           make(chan func(), queueSize),
		maxDevices:      defaultMaxDevices,
		maxServices:     defaultMaxServices,
		pairingTimeout:  defaultPairingTimeout,
		collisionWindow: defaultCollisionWindow,
		locIOCap:        btsec.IOCapDisplayYesNo,
		secMode:         btsec.SecModeSP,
		sspSupported:    true,
		pinType:         btsec.PinVariable,
		connectingAddr:  btsec.AddrNone,
		nameReqAddr:     btsec.AddrNone,
		remoteOOB:       lru.New(remoteOOBSlots),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, errors.Wrap(err, "can't apply option")
		}
	}

	m.logger = m.logger.ChildLogger(map[string]interface{}{"component": "sec"})
	m.devs = newDeviceStore(m.maxDevices)
	m.devs.pinned = func(r *deviceRecord) bool { return r.addr == m.pairing.addr }
	m.servs = newServiceRegistry(m.maxServices)
	m.pairing = pairingCB{
		addr:  btsec.AddrNone,
		timer: &timer{m: m},
		log:   m.logger,
	}
	m.collisionTimer = &timer{m: m}
	m.initEventHandlers()
	return m, nil
}

// Run executes posted messages until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-m.queue:
			fn()
		}
	}
}

// Post queues fn for the manager goroutine.
func (m *Manager) Post(fn func()) {
	m.queue <- fn
}

// Do runs fn on the manager goroutine and waits for it.
func (m *Manager) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	m.Post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush runs the queued messages on the calling goroutine, for callers
// that drive the manager without Run.
func (m *Manager) Flush() {
	for {
		select {
		case fn := <-m.queue:
			fn()
		default:
			return
		}
	}
}

// PostEvent queues a controller event. It implements
// controller.EventHandler.
func (m *Manager) PostEvent(code int, params []byte) error {
	b := append([]byte(nil), params...)
	m.Post(func() {
		if err := m.HandleEvent(code, b); err != nil {
			m.logger.Warnf("event 0x%02x: %v", code, err)
		}
	})
	return nil
}

// HandleEvent decodes and handles a controller event.
func (m *Manager) HandleEvent(code int, params []byte) error {
	h, ok := m.evth[code]
	if !ok {
		return errors.Errorf("unsupported event 0x%02x", code)
	}
	return h(params)
}

// Reset runs after the controller was reset.
func (m *Manager) Reset() {
	m.up = true
	if m.secMode == btsec.SecModeLink {
		m.send(writeAuthEnable(true))
		return
	}
	if !m.sspSupported {
		m.secMode = btsec.SecModeService
		return
	}

	m.send(writeSimplePairingMode())
	if m.spDebug {
		m.send(writeSimplePairingDebugMode(true))
	}
	if m.scHost {
		m.send(writeSecureConnectionsHostSupport())
	}
	m.SetSecurityLevel(false, "RFC_MUX", ServiceRFCMux, RequirementSet{}, PSMRFCOMM, ProtoRFCOMM, 0)
}

// DeviceDown abandons any pairing in progress.
func (m *Manager) DeviceDown() {
	m.up = false
	m.changePairingState(PairIdle)
}

// spMode reports whether pairing uses SSP with capable peers.
func (m *Manager) spMode() bool {
	switch m.secMode {
	case btsec.SecModeSP, btsec.SecModeSPDebug, btsec.SecModeSC:
		return true
	}
	return false
}

func (m *Manager) find(a btsec.Addr) *deviceRecord {
	return m.devs.find(a)
}

// findOrAlloc returns the record of a, creating one when needed. A new
// record starts from the bond stored for a, if any. It returns nil when the
// table is full of records that can't be reclaimed.
func (m *Manager) findOrAlloc(a btsec.Addr) *deviceRecord {
	if r := m.devs.find(a); r != nil {
		return r
	}

	r := m.devs.alloc(a, m.clock.Now())
	if r == nil {
		m.logger.Warnf("%v: no free device record", a)
		return nil
	}
	m.loadBond(r)
	return r
}

// loadBond fills r from the bond stored for its address.
func (m *Manager) loadBond(r *deviceRecord) bool {
	if m.bonds == nil || !m.bonds.Exists(r.addr.Key()) {
		return false
	}

	bi, err := m.bonds.Find(r.addr.Key())
	if err != nil {
		m.logger.Warnf("%v: can't load bond: %v", r.addr, err)
		return false
	}
	r.linkKey = btsec.LinkKey(bi.LinkKey())
	r.keyType = btsec.KeyType(bi.KeyType())
	r.pinKeyLen = bi.PinLength()
	r.ltk = bi.LongTermKey()
	r.flags |= FlagLinkKeyKnown
	if keyAuthenticated(r.keyType) {
		r.flags |= FlagLinkKeyAuthed
	}
	if r.ltk != nil {
		r.flags |= FlagLELinkKeyKnown
	}
	return true
}

// saveBond persists the link key of r.
func (m *Manager) saveBond(r *deviceRecord) {
	if m.bonds == nil {
		return
	}
	bi := hci.NewBondInfo(r.linkKey, uint8(r.keyType), r.pinKeyLen, r.ltk)
	if err := m.bonds.Save(r.addr.Key(), bi); err != nil {
		m.logger.Errorf("%v: can't save bond: %v", r.addr, err)
	}
}

func keyAuthenticated(kt btsec.KeyType) bool {
	return kt.Legacy() || kt == btsec.KeyAuthComb || kt == btsec.KeyAuthCombP256
}

// completeSink delivers status to the record's sink, then lets queued
// requests run.
func (m *Manager) completeSink(r *deviceRecord, status btsec.Status) {
	if s := r.takeSink(); s != nil {
		s.Complete(r.addr, btsec.TransportBREDR, status)
	}
	m.checkPendingReqs()
}

func (m *Manager) authCompleteCb(r *deviceRecord, status hci.ErrCommand) {
	if m.cb.AuthComplete != nil {
		m.cb.AuthComplete(r.addr, r.class, r.name, status)
	}
}

func (m *Manager) sendLinkKeyNotif(r *deviceRecord) {
	if m.cb.LinkKey != nil {
		m.cb.LinkKey(r.addr, r.class, r.name, r.linkKey, r.keyType)
	}
}

// SetMaxDevices sets the size of the device table.
func (m *Manager) SetMaxDevices(n int) error {
	if n <= 0 {
		return errors.Errorf("invalid device table size %d", n)
	}
	m.maxDevices = n
	return nil
}

// SetMaxServices sets the size of the service table.
func (m *Manager) SetMaxServices(n int) error {
	if n <= 0 {
		return errors.Errorf("invalid service table size %d", n)
	}
	m.maxServices = n
	return nil
}

// SetPairingTimeout sets how long a pairing state may last.
func (m *Manager) SetPairingTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.Errorf("invalid pairing timeout %v", d)
	}
	m.pairingTimeout = d
	return nil
}

// SetCollisionWindow sets how long collisions are retried.
func (m *Manager) SetCollisionWindow(d time.Duration) error {
	if d < 0 {
		return errors.Errorf("invalid collision window %v", d)
	}
	m.collisionWindow = d
	return nil
}

// SetLocalIOCap sets the IO capability offered during SSP.
func (m *Manager) SetLocalIOCap(c btsec.IOCap) error {
	if c >= btsec.IOCapMax {
		return errors.Errorf("invalid io capability %v", c)
	}
	m.locIOCap = c
	return nil
}

// SetSecureConnectionsOnly fails links without an authenticated P-256 key.
func (m *Manager) SetSecureConnectionsOnly(only bool) error {
	m.scOnly = only
	if only {
		m.scHost = true
	}
	return nil
}

// SetSSPSupported records whether the controller supports SSP.
func (m *Manager) SetSSPSupported(ok bool) error {
	m.sspSupported = ok
	return nil
}

// SetPairable sets pairable and connect-only-paired modes.
func (m *Manager) SetPairable(allow, connectOnlyPaired bool) error {
	m.SetPairableMode(allow, connectOnlyPaired)
	return nil
}

func (m *Manager) SetLocalName(name string) error {
	m.localName = name
	return nil
}

func (m *Manager) SetLocalAddr(a btsec.Addr) error {
	m.localAddr = a
	return nil
}

func (m *Manager) SetLocalClass(c btsec.DevClass) error {
	m.localClass = c
	return nil
}

// SetLogger replaces the package logger for this manager.
func (m *Manager) SetLogger(l btsec.Logger) error {
	if l == nil {
		return errors.New("nil logger")
	}
	m.logger = l
	return nil
}

// SetClock replaces the wall clock; c must be a Clock.
func (m *Manager) SetClock(c interface{}) error {
	clk, ok := c.(Clock)
	if !ok {
		return errors.Errorf("%T is not a sec.Clock", c)
	}
	m.clock = clk
	return nil
}

// EnableBonding persists link keys in bm, which must be an hci.BondManager.
func (m *Manager) EnableBonding(bm interface{}) error {
	b, ok := bm.(hci.BondManager)
	if !ok {
		return errors.Errorf("%T is not an hci.BondManager", bm)
	}
	m.bonds = b
	return nil
}
