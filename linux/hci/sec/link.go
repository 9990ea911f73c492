package sec

import (
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// Host supported features, octet 0 [Vol 2, Part C, 3.3].
const (
	hostFeatSSP = 0x01
	hostFeatSC  = 0x08
)

// connReq handles Connection Request for ACL links.
func (m *Manager) connReq(a btsec.Addr, class btsec.DevClass, linkType uint8) {
	if linkType != hci.LinkTypeACL {
		return
	}
	reject := func(why string) {
		m.logger.Infof("%v: connection rejected, %s", a, why)
		m.send(&cmd.RejectConnectionRequest{BDADDR: a.Wire(), Reason: uint8(hci.ErrHostRejectDevice)})
	}

	if !m.up {
		reject("device down")
		return
	}
	if m.connectOnlyPaired {
		if r := m.findOrAlloc(a); r == nil || !r.is(FlagLinkKeyAuthed) {
			reject("not paired")
			return
		}
	}
	if m.connectFilter != nil && !m.connectFilter(a, class) {
		reject("filtered")
		return
	}
	if m.pairingWith(a) && m.pairing.flags.has(pairWeStartedDD) {
		// our own bonding link is created once this attempt is over
		m.pairing.flags |= pairRejectedConnect
		reject("bonding in progress")
		return
	}

	m.connectingAddr, m.connectingClass = a, class
	if !m.send(&cmd.AcceptConnectionRequest{BDADDR: a.Wire(), Role: hci.RoleSlave}) {
		return
	}
	if r := m.findOrAlloc(a); r != nil {
		r.class = class
		r.sm4 |= sm4ConnPend
	}
}

// createConnection opens an ACL link to r.
func (m *Manager) createConnection(r *deviceRecord) bool {
	m.connectingAddr, m.connectingClass = r.addr, r.class
	r.connecting = true
	r.role = hci.RoleMaster
	r.state = stateIdle
	ok := m.send(&cmd.CreateConnection{
		BDADDR:                 r.addr.Wire(),
		PacketType:             hci.DefaultPacketTypes,
		PageScanRepetitionMode: hci.PageScanRepModeR1,
		ClockOffset:            hci.ClockOffsetInvalid,
		AllowRoleSwitch:        hci.AllowRoleSwitch,
	})
	if !ok {
		r.connecting = false
	}
	return ok
}

// connected handles Connection Complete.
func (m *Manager) connected(a btsec.Addr, handle uint16, status hci.ErrCommand, encEnabled bool) {
	p := &m.pairing
	r := m.find(a)
	if r == nil {
		if status != hci.Success {
			if m.pairingWith(a) {
				m.changePairingState(PairIdle)
			}
			return
		}
		if r = m.findOrAlloc(a); r == nil {
			m.send(&cmd.Disconnect{ConnectionHandle: handle, Reason: uint8(hci.ErrMemoryFull)})
			return
		}
	}
	r.timestamp = m.clock.Now()
	r.connecting = false

	if r.sm4&sm4ConnPend != 0 {
		r.sm4 &^= sm4ConnPend
		// our bonding waited for the peer's link, which did not make it
		if status != hci.Success && m.pairingWith(a) && p.flags.has(pairWeStartedDD) && p.state == PairWaitPinReq {
			if r.is(FlagNameKnown) {
				m.collided = r
				m.collisionTimer.start(0, m.connectAfterReject)
			} else {
				m.getNameForBond(r)
			}
			return
		}
	}

	isPairing := false
	if m.pairingWith(a) {
		switch {
		case status == hci.ErrHostRejectDevice && p.flags.has(pairRejectedConnect):
			p.flags &^= pairRejectedConnect
			if r.ssp == sspUnknown {
				m.getNameForBond(r)
			} else if p.state != PairWaitLocalPin {
				m.collided = r
				m.collisionTimer.start(0, m.connectAfterReject)
			}
			return
		case status == hci.ErrConnExists:
			return
		}
		isPairing = true
	}

	m.restoreMode()

	if status != hci.Success {
		m.logger.Infof("%v: connection failed: %v", a, status)
		if isPairing {
			r.required.Orig.Authenticate = false
			r.flags &^= FlagLinkKeyKnown | FlagLinkKeyAuthed
			m.changePairingState(PairIdle)
			m.authCompleteCb(r, status)
		} else if r.keyType.Legacy() && authFailure(status) {
			m.authCompleteCb(r, status)
		}

		switch status {
		case hci.ErrConnTimeout, hci.ErrLMPResponseTimeout, hci.ErrUnspecified, hci.ErrPageTimeout:
			m.completeSink(r, btsec.StatusDeviceTimeout)
		default:
			m.completeSink(r, btsec.StatusErrProcessing)
		}
		return
	}

	r.handle = handle
	r.state = stateIdle

	// the key came with link level authentication, the bonding is over
	if isPairing && r.is(FlagLinkKeyKnown) {
		disc := p.flags.has(pairDiscWhenDone)
		if r.linkKeyNotSent {
			r.linkKeyNotSent = false
			m.sendLinkKeyNotif(r)
		}
		m.authCompleteCb(r, hci.Success)
		m.changePairingState(PairIdle)
		if disc {
			m.sendHCIDisconnect(r, hci.ErrPeerUser)
		}
		return
	}

	r.flags &^= FlagAuthorized | FlagAuthenticated | FlagEncrypted | FlagRoleSwitched
	if encEnabled {
		r.flags |= FlagAuthenticated | FlagEncrypted
	}
	if m.secMode == btsec.SecModeLink {
		r.flags |= FlagAuthenticated
	}

	if isPairing && p.flags.has(pairWeStartedDD) && p.state == PairWaitPinReq {
		if !m.startAuthentication(r) {
			m.changePairingState(PairIdle)
			m.authCompleteCb(r, hci.ErrMemoryFull)
		}
	}
}

func authFailure(status hci.ErrCommand) bool {
	switch status {
	case hci.ErrAuth, hci.ErrKeyMissing, hci.ErrHostRejectSecurity, hci.ErrPairingNotAllowed,
		hci.ErrUnitKeyUsed, hci.ErrPairingUnitKeyNotSupported, hci.ErrEncryptionModeNotAcceptable,
		hci.ErrRepeatedAttempts:
		return true
	}
	return false
}

// Disconnect drops the link with handle. A bonding we started keeps the
// link until it is over and returns StatusBusy.
func (m *Manager) Disconnect(handle uint16, reason hci.ErrCommand) btsec.Status {
	r := m.devs.findByHandle(handle)
	if r == nil {
		if !m.send(&cmd.Disconnect{ConnectionHandle: handle, Reason: uint8(reason)}) {
			return btsec.StatusNoResources
		}
		return btsec.StatusSuccess
	}

	if m.pairingWith(r.addr) && m.pairing.flags.has(pairWeStartedDD) {
		m.pairing.flags |= pairDiscWhenDone
		return btsec.StatusBusy
	}
	return m.sendHCIDisconnect(r, reason)
}

func (m *Manager) sendHCIDisconnect(r *deviceRecord, reason hci.ErrCommand) btsec.Status {
	r.state = stateDisconnecting
	if !m.send(&cmd.Disconnect{ConnectionHandle: r.handle, Reason: uint8(reason)}) {
		return btsec.StatusNoResources
	}
	return btsec.StatusCmdStarted
}

// disconnected handles Disconnection Complete.
func (m *Manager) disconnected(handle uint16, reason hci.ErrCommand) {
	r := m.devs.findByHandle(handle)
	if r == nil {
		return
	}
	m.logger.Infof("%v: disconnected: %v", r.addr, reason)

	// transient SSP flags do not outlive the link
	r.sm4 = 0

	p := &m.pairing
	if m.pairingWith(r.addr) {
		flags := p.flags
		r.flags &^= FlagLinkKeyKnown
		if flags.has(pairWeCancelDD) {
			m.bondCancelComplete()
		} else {
			m.changePairingState(PairIdle)
			switch {
			case reason == hci.ErrRepeatedAttempts:
				m.authCompleteCb(r, hci.ErrRepeatedAttempts)
			case flags.has(pairWeStartedDD):
				m.authCompleteCb(r, hci.ErrHostRejectSecurity)
			default:
				m.authCompleteCb(r, hci.ErrAuth)
			}
		}
	}

	if m.collided == r {
		m.collisionTimer.stop()
		m.collided = nil
	}

	r.handle = hci.InvalidHandle
	r.connecting = false
	r.flags &^= FlagAuthenticated | FlagEncrypted | FlagRoleSwitched | FlagAuthorized
	r.flags &^= FlagLEAuthenticated | FlagLEEncrypted
	r.state = stateIdle
	r.required = Requirements{}
	r.lastAuthor = noLastService

	st := disconnectStatus(reason)
	m.failPending(r.addr, st)
	m.completeSink(r, st)
}

func disconnectStatus(reason hci.ErrCommand) btsec.Status {
	switch reason {
	case hci.ErrConnFailedEstablishment:
		return btsec.StatusFailedEstablish
	case hci.ErrLocalHost:
		return btsec.StatusHostDisconn
	case hci.ErrPeerUser:
		return btsec.StatusPeerDisconn
	case hci.ErrLMPResponseTimeout:
		return btsec.StatusLMPTimeout
	case hci.ErrKeyMissing:
		return btsec.StatusErrKeyMissing
	case hci.ErrConnTimeout:
		return btsec.StatusDeviceTimeout
	}
	return btsec.StatusErrProcessing
}

// readRemoteName starts a name request for r. Only one runs at a time.
func (m *Manager) readRemoteName(r *deviceRecord) bool {
	if m.nameReqAddr != btsec.AddrNone && m.nameReqAddr != r.addr {
		m.logger.Debugf("%v: name request for %v in flight", r.addr, m.nameReqAddr)
		return false
	}
	ok := m.send(&cmd.RemoteNameRequest{
		BDADDR:                 r.addr.Wire(),
		PageScanRepetitionMode: hci.PageScanRepModeR1,
		ClockOffset:            hci.ClockOffsetInvalid,
	})
	if ok {
		m.nameReqAddr = r.addr
	}
	return ok
}

// getNameForBond reads the name of the device we are bonding with. The
// bonding ends if the request can't be issued.
func (m *Manager) getNameForBond(r *deviceRecord) {
	m.changePairingState(PairGetRemName)
	if !m.readRemoteName(r) {
		m.changePairingState(PairIdle)
		m.authCompleteCb(r, hci.ErrMemoryFull)
	}
}

func (m *Manager) cancelRemoteName() {
	if m.nameReqAddr == btsec.AddrNone {
		return
	}
	m.send(&cmd.RemoteNameRequestCancel{BDADDR: m.nameReqAddr.Wire()})
}

// remoteNameComplete handles Remote Name Request Complete. A failed
// request still counts as a resolved name so procedures waiting on it go
// on.
func (m *Manager) remoteNameComplete(a btsec.Addr, name string, status hci.ErrCommand) {
	if a == btsec.AddrNone {
		a = m.nameReqAddr
	}
	if a == m.nameReqAddr {
		m.nameReqAddr = btsec.AddrNone
	}

	r := m.find(a)
	var class btsec.DevClass
	if r != nil {
		if status == hci.Success {
			r.name = name
		}
		r.flags |= FlagNameKnown
		class, name = r.class, r.name
	}

	for _, fn := range m.nameNotify {
		if fn != nil {
			fn(a, class, name)
		}
	}
	if r == nil {
		return
	}

	if m.pairingWith(a) {
		if m.nameDuringPairing(r, status) {
			return
		}
	}

	if r.linkKeyNotSent {
		r.linkKeyNotSent = false
		if !r.required.Orig.Authenticate {
			m.authCompleteCb(r, hci.Success)
		}
		m.sendLinkKeyNotif(r)
	}

	if r.state != stateGettingName {
		return
	}
	r.state = stateIdle
	if rc := m.execute(r); rc != btsec.StatusCmdStarted {
		m.completeSink(r, rc)
	}
}

// nameDuringPairing continues the pairing waiting on r's name. It reports
// whether the event was consumed.
func (m *Manager) nameDuringPairing(r *deviceRecord, status hci.ErrCommand) bool {
	p := &m.pairing
	switch p.state {
	case PairWaitLocalPin:
		if !p.flags.has(pairPinReqd) && m.cb.PIN != nil {
			p.flags |= pairPinReqd
			m.cb.PIN(r.addr, r.class, r.name, r.required.Acc.AuthHigh)
		}
		return true

	case PairGetRemName:
		if p.flags.has(pairWeCancelDD) {
			m.bondCancelComplete()
			return true
		}
		if status != hci.Success {
			m.changePairingState(PairIdle)
			m.authCompleteCb(r, status)
			return true
		}
		if !r.isSM4() && m.checkPrefetchPin(r) {
			return true
		}
		if m.ddCreateConn(r) != btsec.StatusCmdStarted {
			m.changePairingState(PairIdle)
			m.authCompleteCb(r, hci.ErrMemoryFull)
		}
		return true
	}
	return false
}

// hostFeatures handles Remote Host Supported Features Notification. Access
// requests that waited for it run again.
func (m *Manager) hostFeatures(a btsec.Addr, feat [8]byte) {
	r := m.findOrAlloc(a)
	if r == nil {
		return
	}
	if r.ssp == sspUnknown {
		r.ssp = sspLegacy
		if feat[0]&hostFeatSSP != 0 {
			r.ssp = sspSupported
		}
	}
	r.scSupported = feat[0]&hostFeatSC != 0
	m.logger.Debugf("%v: host features ssp %v sc %v", a, r.isSM4(), r.scSupported)

	if r.sm4&sm4ReqPend != 0 {
		r.sm4 &^= sm4ReqPend
		m.resubmit(func(q *AccessRequest) bool { return q.Addr == a && !q.Mux })
	}
}
