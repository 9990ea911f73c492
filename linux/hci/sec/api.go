package sec

import (
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// SetSecurityMode changes the host wide security mode. The controller is
// only written to once it is up; Reset applies the mode otherwise.
func (m *Manager) SetSecurityMode(mode btsec.SecurityMode) error {
	if mode > btsec.SecModeSC {
		return errors.Errorf("invalid security mode %v", mode)
	}
	sp := mode == btsec.SecModeSP || mode == btsec.SecModeSPDebug || mode == btsec.SecModeSC
	if sp && !m.sspSupported {
		return errors.Errorf("security mode %v needs simple pairing", mode)
	}

	old := m.secMode
	m.secMode = mode
	m.spDebug = mode == btsec.SecModeSPDebug
	if mode == btsec.SecModeSC {
		m.scHost = true
	}
	if !m.up {
		return nil
	}

	if mode == btsec.SecModeLink {
		m.send(writeAuthEnable(true))
		return nil
	}
	if old == btsec.SecModeLink {
		m.send(writeAuthEnable(false))
	}
	if sp {
		m.send(writeSimplePairingMode())
		if m.spDebug {
			m.send(writeSimplePairingDebugMode(true))
		}
		if m.scHost {
			m.send(writeSecureConnectionsHostSupport())
		}
	}
	return nil
}

// SecurityMode returns the current security mode.
func (m *Manager) SecurityMode() btsec.SecurityMode {
	return m.secMode
}

// SetPinType sets the PIN type and, for fixed PINs, the PIN replied with.
func (m *Manager) SetPinType(t btsec.PinType, pin []byte) error {
	if t == btsec.PinFixed && (len(pin) == 0 || len(pin) > btsec.PinCodeLen) {
		return errors.Errorf("invalid fixed pin length %d", len(pin))
	}
	m.fixedPin = append([]byte(nil), pin...)
	if t == m.pinType {
		return nil
	}
	m.pinType = t
	if m.up && !m.pinTypeChanged {
		m.send(&cmd.WritePINType{PINType: uint8(t)})
	}
	return nil
}

// SetPairableMode allows or refuses pairing. With connectOnlyPaired, only
// peers holding an authenticated key may connect.
func (m *Manager) SetPairableMode(allow, connectOnlyPaired bool) {
	m.pairingDisabled = !allow
	m.connectOnlyPaired = connectOnlyPaired
	m.logger.Debugf("pairable %v, connect only paired %v", allow, connectOnlyPaired)
}

// SetConnectFilter installs a check run on every incoming ACL request. A
// nil filter accepts everything.
func (m *Manager) SetConnectFilter(fn func(btsec.Addr, btsec.DevClass) bool) {
	m.connectFilter = fn
}

// AddRemoteNameNotify registers fn for name resolutions and returns its
// slot. It fails when every slot is taken.
func (m *Manager) AddRemoteNameNotify(fn RemoteNameFunc) (int, bool) {
	for i := range m.nameNotify {
		if m.nameNotify[i] == nil {
			m.nameNotify[i] = fn
			return i, true
		}
	}
	return -1, false
}

func (m *Manager) DeleteRemoteNameNotify(slot int) bool {
	if slot < 0 || slot >= len(m.nameNotify) || m.nameNotify[slot] == nil {
		return false
	}
	m.nameNotify[slot] = nil
	return true
}

// SetSecurityLevel registers the policy of one direction of a service. It
// returns false when the service table is full.
func (m *Manager) SetSecurityLevel(originator bool, name string, serviceID uint8, req RequirementSet,
	psm uint16, mxProto, mxChan uint32) bool {
	if !m.servs.register(originator, name, serviceID, req, psm, mxProto, mxChan, m.spMode()) {
		m.logger.Errorf("service table full, can't register %q", name)
		return false
	}
	m.logger.Debugf("service %q id %d psm 0x%04x proto %d chan %d orig %v: %+v",
		name, serviceID, psm, mxProto, mxChan, originator, req)
	return true
}

// ClearService removes the policies of serviceID, or of every service but
// SDP when it is 0. It returns how many records were freed.
func (m *Manager) ClearService(serviceID uint8) int {
	return m.servs.clear(serviceID)
}

func (m *Manager) ClearServiceByPSM(psm uint16) int {
	return m.servs.clearByPSM(psm)
}

// ClearTempAuthService forgets the last service authorized on a, so the
// next untrusted access asks the user again.
func (m *Manager) ClearTempAuthService(a btsec.Addr) {
	if r := m.find(a); r != nil {
		r.lastAuthor = noLastService
	}
}

// SecurityFlags returns the security state of a, for LE the LE flags
// shifted down into the classic positions.
func (m *Manager) SecurityFlags(a btsec.Addr, t btsec.Transport) (Flags, bool) {
	r := m.find(a)
	if r == nil {
		return 0, false
	}
	if t == btsec.TransportLE {
		return r.flags >> leShift, true
	}
	return r.flags & classicMask, true
}

func (m *Manager) TrustedMask(a btsec.Addr) (TrustedMask, bool) {
	r := m.find(a)
	if r == nil {
		return TrustedMask{}, false
	}
	return r.trusted, true
}

// LinkKey returns the key known for a.
func (m *Manager) LinkKey(a btsec.Addr) (btsec.LinkKey, btsec.KeyType, bool) {
	r := m.find(a)
	if r == nil || !r.is(FlagLinkKeyKnown) {
		return btsec.LinkKey{}, 0, false
	}
	return r.linkKey, r.keyType, true
}

// DeleteStoredLinkKey forgets the key of a, in memory and in the bond
// store.
func (m *Manager) DeleteStoredLinkKey(a btsec.Addr) btsec.Status {
	if r := m.find(a); r != nil {
		r.linkKey = btsec.LinkKey{}
		r.keyType = 0
		r.pinKeyLen = 0
		r.ltk = nil
		r.flags &^= FlagLinkKeyKnown | FlagLinkKeyAuthed | FlagLELinkKeyKnown | FlagLELinkKeyAuthed
	}
	if m.bonds == nil || !m.bonds.Exists(a.Key()) {
		return btsec.StatusSuccess
	}
	if err := m.bonds.Delete(a.Key()); err != nil {
		m.logger.Errorf("%v: can't delete bond: %v", a, err)
		return btsec.StatusErrProcessing
	}
	return btsec.StatusSuccess
}
