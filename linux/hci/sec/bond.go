package sec

import (
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// Bond starts dedicated bonding with a over BR/EDR. pin, when valid, is
// used for legacy pairing instead of asking the application.
func (m *Manager) Bond(a btsec.Addr, pin []byte, trusted *TrustedMask) btsec.Status {
	return m.BondByTransport(a, btsec.TransportBREDR, pin, trusted)
}

// BondByTransport starts dedicated bonding with a. It returns
// StatusCmdStarted when the result follows through Callbacks.AuthComplete.
func (m *Manager) BondByTransport(a btsec.Addr, t btsec.Transport, pin []byte, trusted *TrustedMask) btsec.Status {
	if m.pairing.state != PairIdle {
		return btsec.StatusWrongMode
	}
	if t == btsec.TransportLE {
		// LE pairing belongs to the SMP, not to this manager
		return btsec.StatusIllegalAction
	}

	r := m.findOrAlloc(a)
	if r == nil {
		return btsec.StatusNoResources
	}
	if r.connected() && r.is(FlagAuthenticated) {
		return btsec.StatusSuccess
	}
	if st := m.DeleteStoredLinkKey(a); st != btsec.StatusSuccess {
		return btsec.StatusNoResources
	}

	if n := len(pin); n > 0 && n <= btsec.PinCodeLen {
		m.pairing.pin = append([]byte(nil), pin...)
	}
	m.pairing.addr = a
	m.pairing.flags = pairWeStartedDD

	r.required = Requirements{Orig: RequirementSet{Authenticate: true}}
	r.originator = true
	if trusted != nil {
		r.trusted = *trusted
	}
	r.flags &^= FlagLinkKeyKnown | FlagAuthenticated | FlagEncrypted | FlagRoleSwitched | FlagLinkKeyAuthed

	// keyboards need a fixed PIN on controllers without SSP
	if !m.sspSupported && r.class.Keyboard() && m.pinType != btsec.PinFixed {
		m.pinTypeChanged = true
		m.send(&cmd.WritePINType{PINType: uint8(btsec.PinFixed)})
	}

	if r.connected() {
		if !m.startAuthentication(r) {
			m.changePairingState(PairIdle)
			return btsec.StatusNoResources
		}
		m.changePairingState(PairWaitPinReq)
		return btsec.StatusCmdStarted
	}

	if !m.sspSupported || r.knownLegacy() {
		if m.checkPrefetchPin(r) {
			return btsec.StatusCmdStarted
		}
	}

	if m.spMode() && r.ssp == sspUnknown {
		if r.sm4&sm4ConnPend == 0 {
			// the name request makes the controller report host features
			m.changePairingState(PairGetRemName)
			if !m.readRemoteName(r) {
				m.changePairingState(PairIdle)
				return btsec.StatusNoResources
			}
		} else {
			m.changePairingState(PairWaitPinReq)
		}
		return btsec.StatusCmdStarted
	}

	st := m.ddCreateConn(r)
	if st != btsec.StatusCmdStarted {
		m.changePairingState(PairIdle)
	}
	return st
}

// BondCancel stops a bonding started by Bond. The outcome of a
// StatusCmdStarted result is reported through Callbacks.BondCancelComplete.
func (m *Manager) BondCancel(a btsec.Addr) btsec.Status {
	r := m.find(a)
	if r == nil || m.pairing.addr != a {
		return btsec.StatusUnknownAddr
	}

	p := &m.pairing
	if p.state == PairWaitLocalPin && p.flags.has(pairWeStartedDD) {
		m.bondCancelComplete()
		return btsec.StatusSuccess
	}
	if p.state == PairIdle || !p.flags.has(pairWeStartedDD) {
		return btsec.StatusWrongMode
	}

	if r.connected() {
		if r.state == stateDisconnecting {
			return btsec.StatusCmdStarted
		}
		if p.flags.has(pairDiscWhenDone) {
			p.flags |= pairWeCancelDD
			return m.sendHCIDisconnect(r, hci.ErrPeerUser)
		}
		return btsec.StatusNotAuthorized
	}

	if p.flags.has(pairDiscWhenDone) {
		if !m.send(&cmd.CreateConnectionCancel{BDADDR: a.Wire()}) {
			return btsec.StatusNoResources
		}
		return btsec.StatusCmdStarted
	}
	if p.state == PairGetRemName {
		m.cancelRemoteName()
		p.flags |= pairWeCancelDD
		return btsec.StatusCmdStarted
	}
	return btsec.StatusNotAuthorized
}

func (m *Manager) bondCancelComplete() {
	p := &m.pairing
	if !p.flags.has(pairDiscWhenDone) &&
		!(p.state == PairWaitLocalPin && p.flags.has(pairWeStartedDD)) &&
		!(p.state == PairGetRemName && p.flags.has(pairWeCancelDD)) {
		return
	}

	if r := m.find(p.addr); r != nil {
		r.required = Requirements{}
	}
	m.changePairingState(PairIdle)
	if m.cb.BondCancelComplete != nil {
		m.cb.BondCancelComplete(btsec.StatusSuccess)
	}
}

func (m *Manager) createConnCancelComplete(status hci.ErrCommand) {
	if status == hci.Success {
		m.bondCancelComplete()
		return
	}
	if m.cb.BondCancelComplete != nil {
		m.cb.BondCancelComplete(btsec.StatusErrProcessing)
	}
}

// ddCreateConn opens the ACL for dedicated bonding.
func (m *Manager) ddCreateConn(r *deviceRecord) btsec.Status {
	if r.connected() || r.connecting {
		m.logger.Warnf("%v: connection already exists", r.addr)
		return btsec.StatusCmdStarted
	}

	m.pairing.flags |= pairDiscWhenDone
	if !m.createConnection(r) {
		return btsec.StatusNoResources
	}
	m.changePairingState(PairWaitPinReq)
	return btsec.StatusCmdStarted
}

// checkPrefetchPin asks for the PIN before the controller does, except for
// car kits which expect the connection to come first. It reports whether
// the PIN flow was started.
func (m *Manager) checkPrefetchPin(r *deviceRecord) bool {
	if r.class.HeadUnit() {
		if !m.modeChanged {
			m.modeChanged = true
			m.send(writeAuthEnable(true))
		}
		return false
	}

	m.changePairingState(PairWaitLocalPin)
	if len(m.pairing.pin) > 0 {
		m.PINCodeReply(r.addr, btsec.StatusSuccess, m.pairing.pin, &r.trusted)
		return true
	}
	if m.cb.PIN != nil && !m.pairing.flags.has(pairPinReqd) {
		if !r.connected() {
			m.pairing.flags |= pairPinReqd
		}
		m.cb.PIN(r.addr, r.class, r.name, false)
	}
	return true
}

// PINCodeReply answers Callbacks.PIN. Replies for another device or
// outside of a PIN request are ignored.
func (m *Manager) PINCodeReply(a btsec.Addr, res btsec.Status, pin []byte, trusted *TrustedMask) {
	p := &m.pairing
	if p.state != PairWaitLocalPin {
		p.log.Debugf("pin reply ignored in %v", p.state)
		return
	}
	if p.addr != a {
		p.log.Debugf("pin reply for %v ignored", a)
		return
	}
	r := m.find(a)
	if r == nil {
		return
	}

	if len(pin) == 0 || len(pin) > btsec.PinCodeLen {
		res = btsec.StatusIllegalValue
	}
	r.pinKeyLen = uint8(len(pin))

	if res != btsec.StatusSuccess {
		if p.flags.has(pairPeerStartedDD) || (p.flags.has(pairWeStartedDD) && p.flags.has(pairDiscWhenDone)) {
			// auth complete reports the failure
			m.changePairingState(PairWaitAuthComplete)
			m.send(&cmd.PINCodeRequestNegativeReply{BDADDR: a.Wire()})
		} else {
			r.required = Requirements{}
			m.changePairingState(PairIdle)
		}
		return
	}

	if trusted != nil {
		r.trusted = *trusted
	}
	r.flags |= FlagLinkKeyAuthed

	if p.flags.has(pairWeStartedDD) && !r.connected() && !m.modeChanged {
		// legacy dedicated bonding authenticates at link level
		p.pin = append([]byte(nil), pin...)
		m.modeChanged = true
		m.send(writeAuthEnable(true))

		switch {
		case p.flags.has(pairRejectedConnect):
			// connected() creates the link once the rejected one is gone
			m.changePairingState(PairWaitPinReq)
		case r.sm4&sm4ConnPend != 0:
			m.changePairingState(PairWaitPinReq)
		case m.ddCreateConn(r) != btsec.StatusCmdStarted:
			m.changePairingState(PairIdle)
			r.flags &^= FlagLinkKeyAuthed
			m.authCompleteCb(r, hci.ErrAuth)
		}
		return
	}

	m.changePairingState(PairWaitAuthComplete)
	p.pinSaved = append([]byte(nil), pin...)
	m.sendPINReply(a, pin)
}

func (m *Manager) sendPINReply(a btsec.Addr, pin []byte) bool {
	c := &cmd.PINCodeRequestReply{BDADDR: a.Wire(), PINCodeLength: uint8(len(pin))}
	copy(c.PINCode[:], pin)
	return m.send(c)
}
