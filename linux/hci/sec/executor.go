package sec

import (
	"time"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// execute runs the next security procedure r still owes. It returns
// StatusCmdStarted while a procedure is in flight, StatusSuccess once
// nothing is owed, and a failure otherwise.
//
// The order is fixed: name, legacy high security authentication,
// authentication, the Secure Connections checks, encryption, authorization.
func (m *Manager) execute(r *deviceRecord) btsec.Status {
	m.logger.Debugf("%v: execute required %+v flags %v state %v", r.addr, r.owed(), r.flags, r.state)

	// a name request or another procedure is still running
	if r.state != stateIdle {
		return btsec.StatusCmdStarted
	}

	owed := r.owed()
	authHigh := r.legacy() && !r.originator && r.required.Acc.AuthHigh
	if owed.None() && !authHigh {
		r.required.clearProcedures()
		return btsec.StatusSuccess
	}

	if !r.is(FlagNameKnown) && r.connected() {
		if !m.startGetName(r) {
			return btsec.StatusNoResources
		}
		return btsec.StatusCmdStarted
	}

	if authHigh && r.connected() &&
		(!r.is(FlagAuthenticated) || r.pinKeyLen < btsec.PinCodeLen) {
		if !m.startAuthentication(r) {
			return btsec.StatusNoResources
		}
		return btsec.StatusCmdStarted
	}

	if !r.is(FlagAuthenticated) && owed.Authenticate && r.connected() {
		if !m.startAuthentication(r) {
			return btsec.StatusNoResources
		}
		return btsec.StatusCmdStarted
	}

	if m.scOnly && r.is(FlagAuthenticated) {
		if !r.scSupported || !m.scHost {
			m.logger.Warnf("%v: secure connections only, peer lacks support", r.addr)
			return btsec.StatusFailedOnSecurity
		}
		if (r.required.Orig.Authenticate || r.required.Acc.Authenticate) && r.keyType != btsec.KeyAuthCombP256 {
			m.logger.Warnf("%v: secure connections only, key %v too weak", r.addr, r.keyType)
			return btsec.StatusFailedOnSecurity
		}
	}
	if owed.SecureConn && r.is(FlagAuthenticated) && r.keyType != btsec.KeyAuthCombP256 {
		m.logger.Warnf("%v: service needs an authenticated P-256 key, have %v", r.addr, r.keyType)
		return btsec.StatusFailedOnSecurity
	}

	if !r.is(FlagEncrypted) && owed.Encrypt && r.connected() {
		if !m.startEncryption(r) {
			return btsec.StatusNoResources
		}
		return btsec.StatusCmdStarted
	}

	if !r.is(FlagAuthorized) && owed.Authorize && r.curService != nil &&
		!r.trusted.all() && !r.serviceTrusted(r.curService) {
		return m.startAuthorization(r)
	}

	r.required.clearProcedures()
	m.logger.Debugf("%v: access granted, trusted %08x", r.addr, r.trusted)
	return btsec.StatusSuccess
}

func (m *Manager) startGetName(r *deviceRecord) bool {
	old := r.state
	r.state = stateGettingName
	if !m.readRemoteName(r) {
		r.state = old
		return false
	}
	return true
}

func (m *Manager) startAuthentication(r *deviceRecord) bool {
	if !m.send(&cmd.AuthenticationRequested{ConnectionHandle: r.handle}) {
		return false
	}
	r.state = stateAuthenticating
	return true
}

func (m *Manager) startEncryption(r *deviceRecord) bool {
	if !m.send(&cmd.SetConnectionEncryption{ConnectionHandle: r.handle, EncryptionEnable: hci.EncryptionOn}) {
		return false
	}
	r.state = stateEncrypting
	return true
}

// startAuthorization asks the application once per service. A deferred
// answer arrives through DeviceAuthorized.
func (m *Manager) startAuthorization(r *deviceRecord) btsec.Status {
	if !r.is(FlagNameKnown) && r.connected() {
		if !m.startGetName(r) {
			return btsec.StatusNoResources
		}
		return btsec.StatusCmdStarted
	}
	if m.cb.Authorize == nil {
		return btsec.StatusModeUnsupported
	}

	var name string
	var id uint8
	if s := r.curService; s != nil {
		id = s.serviceID
		if r.originator {
			name = s.origName
		} else {
			name = s.termName
		}
	}

	if r.lastAuthor == int(id) {
		m.logger.Debugf("%v: service %d already authorized", r.addr, id)
		return btsec.StatusSuccess
	}

	r.state = stateAuthorizing
	res := m.cb.Authorize(r.addr, r.class, r.name, name, id, r.originator)
	switch res {
	case btsec.StatusCmdStarted:
		return res
	case btsec.StatusSuccess:
		r.flags |= FlagAuthorized
		if !r.originator {
			r.lastAuthor = int(id)
		}
	}
	r.state = stateIdle
	return res
}

// DeviceAuthorized answers a deferred Callbacks.Authorize.
func (m *Manager) DeviceAuthorized(a btsec.Addr, res btsec.Status, trusted *TrustedMask) {
	r := m.find(a)
	if r == nil {
		return
	}
	if trusted != nil {
		r.trusted = *trusted
	}
	if r.state != stateAuthorizing {
		return
	}
	r.state = stateIdle

	if res == btsec.StatusSuccess {
		r.flags |= FlagAuthorized
		if !r.originator && r.curService != nil {
			r.lastAuthor = int(r.curService.serviceID)
		}
		res = m.execute(r)
		if res == btsec.StatusCmdStarted {
			return
		}
	} else {
		res = btsec.StatusNotAuthorized
	}
	m.completeSink(r, res)
}

// SetEncryption makes sure the link to a is encrypted. When the result is
// StatusCmdStarted it follows through sink.
func (m *Manager) SetEncryption(a btsec.Addr, t btsec.Transport, sink SecurityCompletionSink) btsec.Status {
	r := m.find(a)
	if r == nil || !r.connected() || t != btsec.TransportBREDR {
		if sink != nil {
			sink.Complete(a, t, btsec.StatusWrongMode)
		}
		return btsec.StatusWrongMode
	}

	if r.is(FlagEncrypted) {
		if sink != nil {
			sink.Complete(a, t, btsec.StatusSuccess)
		}
		return btsec.StatusSuccess
	}

	if r.sink != nil {
		m.logger.Warnf("%v: security procedure already in progress", a)
		return btsec.StatusBusy
	}

	r.sink = sink
	r.required = Requirements{
		Orig: RequirementSet{Authenticate: true, Encrypt: true},
		Acc:  RequirementSet{Authenticate: true, Encrypt: true},
	}
	if m.spMode() && r.isSM4() {
		r.required.Orig.MITM, r.required.Acc.MITM = true, true
		m.checkUpgrade(r, r.originator)
	}

	rc := m.execute(r)
	if rc != btsec.StatusCmdStarted {
		if s := r.takeSink(); s != nil {
			s.Complete(a, t, rc)
		}
	}
	return rc
}

// authComplete handles Authentication Complete.
func (m *Manager) authComplete(handle uint16, status hci.ErrCommand) {
	oldState := m.pairing.state
	r := m.devs.findByHandle(handle)

	if status.Collision() {
		if oldState != PairIdle {
			m.changePairingState(PairWaitPinReq)
		}
		m.authCollision(handle)
		return
	}
	m.collisionStart = time.Time{}

	m.restoreMode()

	if r == nil {
		if handle == hci.InvalidHandle {
			if r = m.devs.findByState(stateAuthenticating); r != nil {
				m.authCompleteCb(r, status)
			}
		}
		return
	}

	p := &m.pairing
	if p.flags.has(pairWeStartedDD) && !p.flags.has(pairDiscWhenDone) {
		r.required.Orig.Authenticate = false
	}

	oldSM4 := r.sm4
	r.sm4 &^= sm4Retry

	bonding := m.pairingWith(r.addr) && p.flags.has(pairWeStartedDD)
	disc := p.flags.has(pairDiscWhenDone)
	if m.pairingWith(r.addr) {
		m.changePairingState(PairIdle)
	}

	if r.state != stateAuthenticating {
		if status != hci.Success && oldState != PairIdle {
			m.authCompleteCb(r, status)
		}
		return
	}

	// the peer encrypted first, authentication is not allowed on an
	// encrypted link
	if status == hci.ErrCommandDisallowed && r.is(FlagAuthenticated|FlagEncrypted) {
		status = hci.Success
	}

	if oldState != PairIdle {
		m.authCompleteCb(r, status)
	}
	r.state = stateIdle

	if bonding {
		r.required.Orig.Authenticate = false
		switch {
		case status == hci.Success:
			// the link only existed for the bonding
			if disc {
				m.sendHCIDisconnect(r, hci.ErrPeerUser)
			}
		case status != hci.ErrPeerUser && status != hci.ErrLocalHost:
			m.sendHCIDisconnect(r, hci.ErrPeerUser)
		}
		return
	}

	if status != hci.Success {
		if oldSM4&sm4Retry == 0 {
			switch {
			case status == hci.ErrLMPTransactionCollision:
				r.sm4 |= sm4Retry
			case status == hci.ErrKeyMissing && r.isSM4():
				// the peer lost its key, pair again once
				r.sm4 |= sm4Retry
				r.flags &^= FlagLinkKeyKnown
			}
			if r.sm4&sm4Retry != 0 {
				m.logger.Debugf("%v: retrying authentication after %v", r.addr, status)
				m.execute(r)
				return
			}
		}

		m.completeSink(r, btsec.StatusErrProcessing)

		if disc {
			m.sendHCIDisconnect(r, hci.ErrAuth)
		}
		if r.legacy() && r.required.Acc.AuthHigh {
			if r.connected() {
				m.sendHCIDisconnect(r, hci.ErrAuth)
			}
			r.pinKeyLen = 0
		}
		return
	}

	r.flags |= FlagAuthenticated
	if rc := m.execute(r); rc != btsec.StatusCmdStarted {
		m.completeSink(r, rc)
	}
}

// encryptChange handles Encryption Change.
func (m *Manager) encryptChange(handle uint16, status hci.ErrCommand, enabled bool) {
	if status.Collision() {
		m.authCollision(handle)
		return
	}
	m.collisionStart = time.Time{}

	r := m.devs.findByHandle(handle)
	if r == nil {
		return
	}

	if status == hci.Success {
		if enabled {
			r.flags |= FlagAuthenticated | FlagEncrypted
		} else {
			// decrypted for a role switch, encrypt again next time
			r.flags &^= FlagEncrypted
		}
	}
	r.encKeySize = 16

	if r.state != stateEncrypting {
		if r.state == stateDelayForEnc {
			r.state = stateIdle
			r.sink = nil
			m.resubmit(func(q *AccessRequest) bool { return q.Addr == r.addr && !q.Mux })
		}
		return
	}

	r.state = stateIdle
	if status != hci.Success {
		m.completeSink(r, btsec.StatusErrProcessing)
		return
	}
	if rc := m.execute(r); rc != btsec.StatusCmdStarted {
		m.completeSink(r, rc)
	}
}

// roleChange handles Role Change.
func (m *Manager) roleChange(a btsec.Addr, status hci.ErrCommand, role uint8) {
	r := m.find(a)
	if r == nil {
		return
	}
	if status == hci.Success {
		r.role = role
	}
	if r.state != stateSwitchingRole {
		return
	}

	owed := r.owed()
	master := r.role == hci.RoleMaster
	if (owed.ForceMaster && !master) || (owed.ForceSlave && master) {
		m.completeSink(r, btsec.StatusErrProcessing)
		return
	}

	r.flags |= FlagRoleSwitched
	side := r.required.side(r.originator)
	side.ForceMaster, side.AttemptMaster, side.ForceSlave, side.AttemptSlave = false, false, false, false
	r.state = stateIdle

	if rc := m.execute(r); rc != btsec.StatusCmdStarted {
		m.completeSink(r, rc)
	}
}
