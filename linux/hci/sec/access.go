package sec

import (
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
)

// AccessRequest is an access request waiting for the device or the
// pairing state to become free.
type AccessRequest struct {
	Addr       btsec.Addr
	PSM        uint16
	Handle     uint16
	Originator bool

	// Mux requests come from a protocol multiplexer above L2CAP.
	Mux     bool
	MxProto uint32
	MxChan  uint32

	Sink SecurityCompletionSink
}

func (q *AccessRequest) complete(st btsec.Status) {
	if q.Sink != nil {
		q.Sink.Complete(q.Addr, btsec.TransportBREDR, st)
	}
}

// heldSink occupies the sink slot of a device while its request waits in
// the queue for the peer's encryption.
type heldSink struct{}

func (heldSink) Complete(btsec.Addr, btsec.Transport, btsec.Status) {}

// L2CAPAccessRequest decides whether a channel on psm may be opened to or
// from a. The result is final unless it is StatusCmdStarted; sink sees
// every result, including the synchronous ones.
func (m *Manager) L2CAPAccessRequest(a btsec.Addr, psm, handle uint16, originator bool, sink SecurityCompletionSink) btsec.Status {
	return m.l2capAccess(&AccessRequest{Addr: a, PSM: psm, Handle: handle, Originator: originator, Sink: sink})
}

func (m *Manager) l2capAccess(q *AccessRequest) btsec.Status {
	r := m.findOrAlloc(q.Addr)
	if r == nil {
		q.complete(btsec.StatusNoResources)
		return btsec.StatusNoResources
	}
	r.handle = q.Handle
	r.timestamp = m.clock.Now()

	s := m.servs.findFirst(q.Originator, q.PSM)
	if s == nil {
		m.logger.Warnf("%v: no service registered for psm 0x%04x", q.Addr, q.PSM)
		q.complete(btsec.StatusModeUnsupported)
		return btsec.StatusModeUnsupported
	}
	if q.PSM == PSMSDP {
		q.complete(btsec.StatusSuccessNoSecurity)
		return btsec.StatusSuccess
	}

	// some devices open several services at once, one at a time
	if r.sink != nil || m.pairing.state != PairIdle {
		m.logger.Debugf("%v: psm 0x%04x delayed in %v", q.Addr, q.PSM, m.pairing.state)
		switch m.evaluate(r, s, q.Originator, false).Verdict {
		case Granted:
			q.complete(btsec.StatusSuccess)
			return btsec.StatusSuccess
		case Denied:
			q.complete(btsec.StatusFailedOnSecurity)
			return btsec.StatusFailedOnSecurity
		}
		m.secReqPending = true
		m.l2capPending = append(m.l2capPending, q)
		return btsec.StatusCmdStarted
	}

	r.curService = s

	req := s.req.Side(q.Originator)
	chkAcpAuthDone := false
	if m.spMode() {
		switch {
		case r.isSM4():
			// SSP on both sides always authenticates and encrypts
			req.Authenticate, req.Encrypt = true, true
			chkAcpAuthDone = !q.Originator
		case r.ssp == sspUnknown:
			m.logger.Debugf("%v: remote features unknown, psm 0x%04x waits", q.Addr, q.PSM)
			r.sm4 |= sm4ReqPend
			m.l2capPending = append(m.l2capPending, q)
			return btsec.StatusCmdStarted
		}
	}

	oldReq, oldOrig := r.required, r.originator
	r.required = s.req
	*r.required.side(q.Originator) = req
	r.originator = q.Originator

	// several services share the psm, the multiplexer decides
	if m.servs.findNext(s) != nil && !r.isSM4() {
		m.logger.Debugf("%v: psm 0x%04x postponed for multiplexer", q.Addr, q.PSM)
		r.required, r.originator = oldReq, oldOrig
		q.complete(btsec.StatusSuccess)
		return btsec.StatusSuccess
	}

	// legacy dynamic psms are secured by the layer above once connected
	if q.Originator && (!m.spMode() || !r.isSM4()) && q.PSM >= PSMDynamicStart {
		m.logger.Debugf("%v: dynamic psm 0x%04x postponed for upper layer", q.Addr, q.PSM)
		r.required, r.originator = oldReq, oldOrig
		q.complete(btsec.StatusSuccess)
		return btsec.StatusSuccess
	}

	if chkAcpAuthDone && !r.is(FlagAuthenticated|FlagEncrypted) {
		// the peer should have secured the link already, its encryption
		// change may still be on the way
		m.logger.Warnf("%v: peer has not secured the link yet", q.Addr)
		r.sink = heldSink{}
		r.state = stateDelayForEnc
		m.l2capPending = append(m.l2capPending, q)
		q.complete(btsec.StatusDelayCheck)
		return btsec.StatusCmdStarted
	}

	r.sink = q.Sink

	// authorization is per access request, not per link
	if r.lastAuthor != int(s.serviceID) {
		r.flags &^= FlagAuthorized
	}

	if r.isSM4() {
		m.checkUpgrade(r, q.Originator)
	}

	rc := m.execute(r)
	if rc != btsec.StatusCmdStarted {
		r.sink = nil
		q.complete(rc)
	}
	return rc
}

// MxAccessRequest is L2CAPAccessRequest for a channel of a protocol
// multiplexer. Busy requests are queued and replayed in arrival order.
func (m *Manager) MxAccessRequest(a btsec.Addr, psm uint16, originator bool, mxProto, mxChan uint32, sink SecurityCompletionSink) btsec.Status {
	return m.mxAccess(&AccessRequest{
		Addr:       a,
		PSM:        psm,
		Handle:     hci.InvalidHandle,
		Originator: originator,
		Mux:        true,
		MxProto:    mxProto,
		MxChan:     mxChan,
		Sink:       sink,
	})
}

func (m *Manager) mxAccess(q *AccessRequest) btsec.Status {
	r := m.findOrAlloc(q.Addr)
	if r == nil {
		q.complete(btsec.StatusNoResources)
		return btsec.StatusNoResources
	}

	s := m.servs.findMx(q.Originator, q.PSM, q.MxProto, q.MxChan)
	if s == nil {
		m.logger.Errorf("%v: mx service not found psm 0x%04x proto %d chan %d", q.Addr, q.PSM, q.MxProto, q.MxChan)
		q.complete(btsec.StatusModeUnsupported)
		return btsec.StatusNoResources
	}

	if r.sink != nil || m.pairing.state != PairIdle {
		m.logger.Debugf("%v: mx proto %d chan %d delayed in %v", q.Addr, q.MxProto, q.MxChan, m.pairing.state)
		switch m.evaluate(r, s, q.Originator, true).Verdict {
		case Granted:
			q.complete(btsec.StatusSuccess)
			return btsec.StatusSuccess
		case Denied:
			q.complete(btsec.StatusFailedOnSecurity)
			return btsec.StatusFailedOnSecurity
		}
		m.mxPending = append(m.mxPending, q)
		return btsec.StatusCmdStarted
	}

	r.curService = s
	r.required = s.req
	if m.spMode() && r.isSM4() {
		m.checkUpgrade(r, q.Originator)
	}
	r.originator = q.Originator
	r.sink = q.Sink

	// each multiplexer channel is authorized again
	r.flags &^= FlagAuthorized

	rc := m.execute(r)
	if rc != btsec.StatusCmdStarted {
		r.sink = nil
		q.complete(rc)
	}
	return rc
}

// evaluate judges a request for s against the state of r while the device
// or the pairing is busy.
func (m *Manager) evaluate(r *deviceRecord, s *serviceRecord, originator, mux bool) Decision {
	in := PolicyInput{
		Req:        s.req.Side(originator),
		Originator: originator,
		Mux:        mux,
		Flags:      r.flags & classicMask,
		Trusted:    r.serviceTrusted(s),
		KeyType:    r.keyType,
		SPMode:     m.spMode(),
		PeerLegacy: r.knownLegacy(),
	}
	d := Evaluate(in, r.isSM4(), m.upgradePossible(r, originator))
	m.logger.Debugf("%v: service %d %v", r.addr, s.serviceID, d.Verdict)
	return d
}

// upgradePossible reports whether r has no key yet, or has an
// unauthenticated key a new SSP could replace with an authenticated one
// the current requirements ask for.
func (m *Manager) upgradePossible(r *deviceRecord, originator bool) bool {
	if !r.is(FlagLinkKeyKnown) {
		return true
	}
	unauth := r.keyType == btsec.KeyUnauthComb || r.keyType == btsec.KeyUnauthCombP256
	return r.required.Side(originator).MITM && unauth && AuthKeyPossible(m.locIOCap, r.rmtIOCap)
}

// checkUpgrade drops an existing key the application agrees to upgrade,
// so the next authentication pairs again.
func (m *Manager) checkUpgrade(r *deviceRecord, originator bool) {
	if !r.is(FlagLinkKeyKnown) || !m.upgradePossible(r, originator) {
		return
	}

	e := &SPEvent{Kind: SPUpgrade, Addr: r.addr, Class: r.class, Name: r.name, Upgrade: true}
	if m.cb.SP != nil {
		m.cb.SP(e)
	}
	if !e.Upgrade {
		return
	}
	m.logger.Debugf("%v: upgrading %v key", r.addr, r.keyType)
	r.sm4 |= sm4Upgrade
	r.flags &^= FlagLinkKeyKnown | FlagLinkKeyAuthed | FlagAuthenticated
}

// checkPendingReqs replays queued requests once no pairing is running.
// L2CAP requests go first, then multiplexer requests, each in arrival
// order.
func (m *Manager) checkPendingReqs() {
	if m.pairing.state != PairIdle {
		return
	}
	m.secReqPending = false
	m.resubmit(func(*AccessRequest) bool { return true })
}

// resubmit replays the queued requests match selects.
func (m *Manager) resubmit(match func(*AccessRequest) bool) {
	var l2cap, mx []*AccessRequest
	m.l2capPending, l2cap = splitPending(m.l2capPending, match)
	m.mxPending, mx = splitPending(m.mxPending, match)

	for _, q := range l2cap {
		m.replay(q, m.l2capAccess)
	}
	for _, q := range mx {
		m.replay(q, m.mxAccess)
	}
}

func (m *Manager) replay(q *AccessRequest, fn func(*AccessRequest) btsec.Status) {
	r := m.find(q.Addr)
	if r == nil || !r.connected() {
		m.logger.Debugf("%v: link gone, dropping queued psm 0x%04x", q.Addr, q.PSM)
		q.complete(btsec.StatusPeerDisconn)
		return
	}
	if q.Mux {
		m.logger.Debugf("%v: resubmitting psm 0x%04x proto %d chan %d", q.Addr, q.PSM, q.MxProto, q.MxChan)
	} else {
		q.Handle = r.handle
		m.logger.Debugf("%v: resubmitting psm 0x%04x", q.Addr, q.PSM)
	}
	fn(q)
}

// splitPending returns the requests match rejects, then the ones it selects.
func splitPending(qs []*AccessRequest, match func(*AccessRequest) bool) (keep, taken []*AccessRequest) {
	for _, q := range qs {
		if match(q) {
			taken = append(taken, q)
		} else {
			keep = append(keep, q)
		}
	}
	return keep, taken
}

// failPending completes the queued requests for a with st.
func (m *Manager) failPending(a btsec.Addr, st btsec.Status) {
	var l2cap, mx []*AccessRequest
	byAddr := func(q *AccessRequest) bool { return q.Addr == a }
	m.l2capPending, l2cap = splitPending(m.l2capPending, byAddr)
	m.mxPending, mx = splitPending(m.mxPending, byAddr)
	for _, q := range append(l2cap, mx...) {
		q.complete(st)
	}
}

// AbortAccessRequest drops the pending authentication or authorization of
// a without disconnecting. Its sink is not called.
func (m *Manager) AbortAccessRequest(a btsec.Addr) {
	r := m.find(a)
	if r == nil {
		return
	}
	if m.cb.Abort != nil {
		m.cb.Abort(a, r.class, r.name)
	}
	if r.state != stateAuthorizing && r.state != stateAuthenticating {
		return
	}
	r.state = stateIdle
	r.sink = nil
}

// SetOutService selects the service an outgoing connection to a is for.
func (m *Manager) SetOutService(a btsec.Addr, serviceID uint8, mxChan uint32) {
	s := m.servs.findOut(serviceID, mxChan)
	m.servs.out = s
	if s == nil {
		return
	}
	if r := m.find(a); r != nil {
		r.curService = s
	}
}
