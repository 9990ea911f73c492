package sec

import (
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// ioMap[remote][local] reports whether SSP between the two IO capabilities
// can produce an authenticated link key.
var ioMap = [btsec.IOCapMax][btsec.IOCapMax]bool{
	// DisplayOnly   DisplayYesNo  KeyboardOnly  NoInputNoOutput
	{false, false, true, false},  // remote DisplayOnly
	{false, true, true, false},   // remote DisplayYesNo
	{true, true, true, false},    // remote KeyboardOnly
	{false, false, false, false}, // remote NoInputNoOutput
}

// AuthKeyPossible reports whether pairing a local and a remote IO
// capability can produce an authenticated (MITM protected) link key.
func AuthKeyPossible(local, remote btsec.IOCap) bool {
	if local >= btsec.IOCapMax || remote >= btsec.IOCapMax {
		return false
	}
	return ioMap[remote][local]
}

type remoteOOB struct {
	c, r [16]byte
}

// SetRemoteOOB stores OOB data received from a out of band. The next SSP
// with a offers it and answers the controller's OOB request from it.
func (m *Manager) SetRemoteOOB(a btsec.Addr, c, r [16]byte) {
	m.remoteOOB.Add(a, remoteOOB{c: c, r: r})
}

func (m *Manager) cachedOOB(a btsec.Addr) (remoteOOB, bool) {
	v, ok := m.remoteOOB.Get(a)
	if !ok {
		return remoteOOB{}, false
	}
	return v.(remoteOOB), true
}

func (m *Manager) ioCapRequest(a btsec.Addr) {
	e := &SPEvent{
		Kind:         SPIORequest,
		Addr:         a,
		IOCap:        m.locIOCap,
		OOB:          btsec.OOBNone,
		AuthReq:      btsec.AuthDefault,
		IsOriginator: true,
	}
	if _, ok := m.cachedOOB(a); ok {
		e.OOB = btsec.OOBPresentP192
	}

	r := m.findOrAlloc(a)
	if r == nil {
		m.send(&cmd.IOCapabilityRequestNegativeReply{BDADDR: a.Wire(), Reason: uint8(hci.ErrMemoryFull)})
		return
	}
	r.ssp = sspSupported

	p := &m.pairing
	var reason hci.ErrCommand
	switch p.state {
	case PairIdle:
	case PairIncomingSSP:
		if p.addr != a {
			reason = hci.ErrHostBusyPairing
			break
		}
		// the peer's response came first, the peer started
		e.IsOriginator = false
		if r.rmtAuthReq == btsec.AuthSPYes {
			e.AuthReq = btsec.AuthSPYes
		} else if p.flags.has(pairPeerStartedDD) {
			e.AuthReq = btsec.AuthDefaultDD
		}
	case PairWaitPinReq:
		if p.addr != a {
			reason = hci.ErrHostBusyPairing
		} else {
			e.AuthReq = btsec.AuthDefaultDD
		}
	default:
		reason = hci.ErrHostBusyPairing
	}
	if m.pairingDisabled {
		reason = hci.ErrPairingNotAllowed
	}
	if reason != hci.Success {
		p.log.Debugf("io capability request from %v rejected: %v", a, reason)
		m.send(&cmd.IOCapabilityRequestNegativeReply{BDADDR: a.Wire(), Reason: uint8(reason)})
		return
	}

	if e.IsOriginator && !p.flags.has(pairWeStartedDD) && r.curService != nil && r.curService.req.Orig.Authenticate {
		if r.curService.req.Orig.MITM {
			e.AuthReq = btsec.AuthSPGBYes
		} else {
			e.AuthReq = btsec.AuthSPGBNo
		}
	}

	p.addr = a
	if a == m.connectingAddr {
		r.class = m.connectingClass
	}
	e.Class, e.Name = r.class, r.name
	m.changePairingState(PairWaitLocalIOCaps)

	rc := btsec.StatusSuccess
	if r.sm4&sm4Upgrade != 0 {
		r.sm4 &^= sm4Upgrade
		// keep the upgraded key
		e.AuthReq = btsec.AuthSPGBYes
	} else if m.cb.SP != nil {
		rc = m.cb.SP(e)
	}

	// OOBUnknown with a non-success status defers the reply to IoCapRsp
	if rc == btsec.StatusSuccess || e.OOB != btsec.OOBUnknown {
		m.sendIOCapReply(a, e.IOCap, e.OOB, e.AuthReq)
	}
}

func (m *Manager) sendIOCapReply(a btsec.Addr, io btsec.IOCap, oob btsec.OOBPresent, auth btsec.AuthReq) {
	if m.pairing.flags.has(pairWeStartedDD) {
		auth = btsec.AuthDDBond | auth&btsec.AuthYNBit
	}
	m.pairing.locAuthReq = auth
	m.pairing.locIOCap = io
	m.send(&cmd.IOCapabilityRequestReply{
		BDADDR:                     a.Wire(),
		IOCapability:               uint8(io),
		OOBDataPresent:             uint8(oob),
		AuthenticationRequirements: uint8(auth),
	})
}

// IoCapRsp answers an SPIORequest the application deferred.
func (m *Manager) IoCapRsp(a btsec.Addr, io btsec.IOCap, oob btsec.OOBPresent, auth btsec.AuthReq) {
	p := &m.pairing
	if p.state != PairWaitLocalIOCaps || p.addr != a {
		p.log.Debugf("io capability reply for %v ignored in %v", a, p.state)
		return
	}
	if oob >= btsec.OOBUnknown || io >= btsec.IOCapMax {
		return
	}
	m.sendIOCapReply(a, io, oob, auth)
}

func (m *Manager) ioCapResponse(a btsec.Addr, io btsec.IOCap, oob btsec.OOBPresent, auth btsec.AuthReq) {
	r := m.findOrAlloc(a)
	if r == nil {
		return
	}
	p := &m.pairing

	if p.state == PairIdle {
		p.addr = a
		m.changePairingState(PairIncomingSSP)
		// a new pairing must earn the trust again
		r.trusted = TrustedMask{}
	}
	if a == m.connectingAddr {
		r.class = m.connectingClass
	}
	if p.state == PairIncomingSSP && auth&btsec.AuthDDBond != 0 {
		p.flags |= pairPeerStartedDD
	}

	r.rmtIOCap = io
	r.rmtAuthReq = auth

	if m.cb.SP != nil {
		m.cb.SP(&SPEvent{
			Kind:    SPIOResponse,
			Addr:    a,
			Class:   r.class,
			Name:    r.name,
			IOCap:   io,
			OOB:     oob,
			AuthReq: auth,
		})
	}
}

// spRequest handles the user confirmation, passkey request and passkey
// notification events.
func (m *Manager) spRequest(kind SPEventKind, a btsec.Addr, value uint32) {
	r := m.find(a)
	if r == nil || !m.pairingWith(a) {
		m.pairing.log.Debugf("%v from %v outside of pairing", kind, a)
		switch kind {
		case SPConfirmRequest:
			m.send(&cmd.UserConfirmationRequestNegativeReply{BDADDR: a.Wire()})
		case SPKeyNotification:
			if r != nil {
				m.Disconnect(r.handle, hci.ErrAuth)
			}
		default:
			m.send(&cmd.UserPasskeyRequestNegativeReply{BDADDR: a.Wire()})
		}
		return
	}

	e := &SPEvent{Kind: kind, Addr: a, Class: r.class, Name: r.name}
	switch kind {
	case SPConfirmRequest:
		m.changePairingState(PairWaitNumericConfirm)
		e.NumericValue = value
		e.LocalIOCap, e.RemoteIOCap = m.pairing.locIOCap, r.rmtIOCap
		e.LocalAuthReq, e.RemoteAuthReq = m.pairing.locAuthReq, r.rmtAuthReq
		mitm := r.rmtAuthReq.MITM() || m.pairing.locAuthReq.MITM()
		e.JustWorks = !(mitm && AuthKeyPossible(e.LocalIOCap, e.RemoteIOCap))
	case SPKeyNotification:
		m.changePairingState(PairWaitAuthComplete)
		e.Passkey = value
	case SPKeyRequest:
		m.changePairingState(PairKeyEntry)
	}

	st := btsec.StatusErrProcessing
	if m.cb.SP != nil {
		st = m.cb.SP(e)
		if st != btsec.StatusNotAuthorized {
			return
		}
	} else if kind == SPConfirmRequest && e.JustWorks {
		st = btsec.StatusSuccess
	}

	switch kind {
	case SPConfirmRequest:
		m.ConfirmReqReply(st, a)
	case SPKeyRequest:
		m.PasskeyReqReply(st, a, 0)
	}
}

// ConfirmReqReply answers an SPConfirmRequest.
func (m *Manager) ConfirmReqReply(res btsec.Status, a btsec.Addr) {
	p := &m.pairing
	if p.state != PairWaitNumericConfirm || p.addr != a {
		p.log.Debugf("confirm reply for %v ignored in %v", a, p.state)
		return
	}

	m.changePairingState(PairWaitAuthComplete)
	if res == btsec.StatusSuccess || res == btsec.StatusSuccessNoSecurity {
		if res == btsec.StatusSuccess {
			if r := m.find(a); r != nil {
				r.flags |= FlagLinkKeyAuthed
			}
		}
		m.send(&cmd.UserConfirmationRequestReply{BDADDR: a.Wire()})
		return
	}
	m.send(&cmd.UserConfirmationRequestNegativeReply{BDADDR: a.Wire()})
}

// PasskeyReqReply answers an SPKeyRequest. A failure after the passkey was
// sent abandons the bonding.
func (m *Manager) PasskeyReqReply(res btsec.Status, a btsec.Addr, passkey uint32) btsec.Status {
	p := &m.pairing
	if p.state == PairIdle || p.addr != a {
		return btsec.StatusWrongMode
	}

	if p.state == PairWaitAuthComplete && res != btsec.StatusSuccess {
		if r := m.find(a); r != nil {
			if r.connected() {
				m.sendHCIDisconnect(r, hci.ErrAuth)
			} else {
				m.BondCancel(a)
			}
			r.flags &^= FlagLinkKeyAuthed | FlagLinkKeyKnown
			m.changePairingState(PairIdle)
		}
		return btsec.StatusSuccess
	}

	if p.state != PairKeyEntry {
		return btsec.StatusWrongMode
	}
	if passkey > btsec.MaxPasskey {
		res = btsec.StatusIllegalValue
	}

	m.changePairingState(PairWaitAuthComplete)
	if res != btsec.StatusSuccess {
		m.send(&cmd.UserPasskeyRequestNegativeReply{BDADDR: a.Wire()})
		return res
	}
	if r := m.find(a); r != nil {
		r.flags |= FlagLinkKeyAuthed
	}
	m.send(&cmd.UserPasskeyRequestReply{BDADDR: a.Wire(), NumericValue: passkey})
	return btsec.StatusSuccess
}

// SendKeypress tells the peer about passkey entry progress.
func (m *Manager) SendKeypress(a btsec.Addr, k btsec.Keypress) btsec.Status {
	if m.pairing.state != PairKeyEntry || m.pairing.addr != a {
		return btsec.StatusWrongMode
	}
	if !m.send(&cmd.SendKeypressNotification{BDADDR: a.Wire(), NotificationType: uint8(k)}) {
		return btsec.StatusNoResources
	}
	return btsec.StatusSuccess
}

func (m *Manager) keypress(a btsec.Addr, k btsec.Keypress) {
	if m.cb.SP != nil {
		m.cb.SP(&SPEvent{Kind: SPKeypress, Addr: a, Keypress: k})
	}
}

func (m *Manager) simplePairingComplete(status hci.ErrCommand, a btsec.Addr) {
	r := m.find(a)
	if r == nil {
		m.logger.Warnf("simple pairing complete for unknown %v", a)
		return
	}

	disc := false
	switch {
	case status == hci.Success:
		r.flags |= FlagAuthenticated
	case status == hci.ErrPairingNotAllowed:
		// give the peer time to see the failure before the link goes
		m.changePairingState(PairWaitDisconnect)
		m.pairing.timer.start(disconnectGrace, m.pairingExpired)
	case m.pairing.addr == a:
		// auth complete reports the failure
		m.pairing.timer.stop()
		if r.state != stateAuthenticating {
			disc = true
		}
	default:
		disc = true
	}

	if m.cb.SP != nil {
		m.cb.SP(&SPEvent{Kind: SPComplete, Addr: a, Class: r.class, Name: r.name, Status: status})
	}

	if disc && status != hci.ErrPeerUser && status != hci.ErrLocalHost {
		m.sendHCIDisconnect(r, hci.ErrAuth)
	}
}

func (m *Manager) remoteOOBRequest(a btsec.Addr) {
	if v, ok := m.cachedOOB(a); ok && m.find(a) != nil {
		m.changePairingState(PairWaitLocalOOBRsp)
		m.RemoteOobDataReply(btsec.StatusSuccess, a, v.c, v.r)
		return
	}

	r := m.find(a)
	if r == nil || m.cb.SP == nil {
		m.send(&cmd.RemoteOOBDataRequestNegativeReply{BDADDR: a.Wire()})
		return
	}

	if !m.pairingWith(a) {
		m.pairing.addr = a
	}
	m.changePairingState(PairWaitLocalOOBRsp)
	e := &SPEvent{Kind: SPRemoteOOBRequest, Addr: a, Class: r.class, Name: r.name}
	if m.cb.SP(e) == btsec.StatusNotAuthorized {
		m.RemoteOobDataReply(btsec.StatusNotAuthorized, a, [16]byte{}, [16]byte{})
	}
}

// RemoteOobDataReply answers an SPRemoteOOBRequest with the peer's hash C
// and randomizer R.
func (m *Manager) RemoteOobDataReply(res btsec.Status, a btsec.Addr, c, r [16]byte) {
	p := &m.pairing
	if p.state != PairWaitLocalOOBRsp || p.addr != a {
		p.log.Debugf("oob reply for %v ignored in %v", a, p.state)
		return
	}

	m.changePairingState(PairWaitAuthComplete)
	if res != btsec.StatusSuccess {
		m.send(&cmd.RemoteOOBDataRequestNegativeReply{BDADDR: a.Wire()})
		return
	}
	m.send(&cmd.RemoteOOBDataRequestReply{BDADDR: a.Wire(), C: c, R: r})
}

// ReadLocalOOB asks the controller for local OOB data, reported through
// an SPLocalOOB event.
func (m *Manager) ReadLocalOOB() btsec.Status {
	if !m.send(&cmd.ReadLocalOOBData{}) {
		return btsec.StatusNoResources
	}
	return btsec.StatusCmdStarted
}

func (m *Manager) readLocalOOBComplete(rp *cmd.ReadLocalOOBDataRP) {
	if m.cb.SP == nil {
		return
	}
	e := &SPEvent{Kind: SPLocalOOB, Addr: m.localAddr, Status: hci.ErrCommand(rp.Status)}
	if e.Status == hci.Success {
		e.C, e.R = rp.C, rp.R
	}
	m.cb.SP(e)
}
