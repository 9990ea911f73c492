package sec

import (
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// fallbackName is used when the name of a peer asking for a PIN cannot be
// resolved.
const fallbackName = "f0"

func (m *Manager) pinCodeRequest(a btsec.Addr) {
	p := &m.pairing
	if p.state != PairIdle {
		if p.addr == a && p.state == PairWaitAuthComplete {
			// some car kits ask twice, answer with the PIN already sent
			if len(p.pinSaved) == 0 {
				m.send(&cmd.PINCodeRequestNegativeReply{BDADDR: a.Wire()})
				return
			}
			m.sendPINReply(a, p.pinSaved)
			return
		}
		if p.state != PairWaitPinReq || p.addr != a {
			p.log.Debugf("pin request from %v rejected in %v", a, p.state)
			m.send(&cmd.PINCodeRequestNegativeReply{BDADDR: a.Wire()})
			return
		}
	}

	r := m.findOrAlloc(a)
	if r == nil {
		m.send(&cmd.PINCodeRequestNegativeReply{BDADDR: a.Wire()})
		return
	}
	r.ssp, r.sm4 = sspLegacy, 0

	if p.state == PairIdle {
		p.addr = a
		p.flags = pairPeerStartedDD
		r.trusted = TrustedMask{}
	}

	if !m.pairingDisabled && m.pinType == btsec.PinFixed {
		m.changePairingState(PairWaitAuthComplete)
		m.sendPINReply(a, m.fixedPin)
		return
	}

	if a == m.connectingAddr && m.connectingClass != (btsec.DevClass{}) {
		r.class = m.connectingClass
	}

	// the user gave the PIN before the connection existed
	if len(p.pin) > 0 {
		m.sendPINReply(a, p.pin)
		p.pinSaved, p.pin = p.pin, nil
		m.changePairingState(PairWaitAuthComplete)
		return
	}

	// keyboards are bonded from our side only
	if m.pairingDisabled || m.cb.PIN == nil || (!r.originator && r.class.Keyboard()) {
		p.log.Debugf("pin request from %v rejected", a)
		m.send(&cmd.PINCodeRequestNegativeReply{BDADDR: a.Wire()})
		return
	}

	p.pinSaved = nil
	m.changePairingState(PairWaitLocalPin)
	m.connectingAddr, m.connectingClass = a, r.class

	if !r.is(FlagNameKnown) {
		if m.readRemoteName(r) {
			// the PIN is asked for once the name is known
			return
		}
		r.flags |= FlagNameKnown
		r.name = fallbackName
	}
	p.flags |= pairPinReqd
	m.cb.PIN(a, r.class, r.name, r.required.Acc.AuthHigh)
}

func (m *Manager) linkKeyRequest(a btsec.Addr) {
	r := m.findOrAlloc(a)
	if r == nil {
		m.send(&cmd.LinkKeyRequestNegativeReply{BDADDR: a.Wire()})
		return
	}

	if m.pairing.state == PairWaitPinReq && !m.collisionStart.IsZero() &&
		m.collided != nil && m.collided.addr == a {
		m.send(&cmd.LinkKeyRequestNegativeReply{BDADDR: a.Wire()})
		return
	}

	// a short PIN does not satisfy high security, pair again
	if r.legacy() && r.required.Acc.AuthHigh && r.is(FlagAuthenticated) && r.pinKeyLen < btsec.PinCodeLen {
		m.send(&cmd.LinkKeyRequestNegativeReply{BDADDR: a.Wire()})
		return
	}

	if r.is(FlagLinkKeyKnown) {
		m.send(&cmd.LinkKeyRequestReply{BDADDR: a.Wire(), LinkKey: r.linkKey})
		return
	}

	if !m.pairingWith(a) {
		if m.cb.LinkKeyRequest != nil {
			if k, ok := m.cb.LinkKeyRequest(a); ok {
				r.linkKey = k
				m.send(&cmd.LinkKeyRequestReply{BDADDR: a.Wire(), LinkKey: k})
				return
			}
		}
		if m.loadBond(r) {
			m.send(&cmd.LinkKeyRequestReply{BDADDR: a.Wire(), LinkKey: r.linkKey})
			return
		}
	}

	m.send(&cmd.LinkKeyRequestNegativeReply{BDADDR: a.Wire()})
}

func (m *Manager) linkKeyNotification(a btsec.Addr, key btsec.LinkKey, kt btsec.KeyType) {
	r := m.findOrAlloc(a)
	if r == nil {
		return
	}
	m.restoreMode()

	if kt != btsec.KeyChangedComb {
		r.keyType = kt
	}
	r.flags |= FlagLinkKeyKnown
	r.encKeySize = 16
	r.linkKey = key

	r.ltk = nil
	r.flags &^= FlagLELinkKeyKnown | FlagLELinkKeyAuthed
	if r.keyType.P256() {
		ltk, err := deriveLTK(key)
		if err != nil {
			m.logger.Errorf("%v: can't derive LE key: %v", a, err)
		} else {
			r.ltk = ltk
			r.flags |= FlagLELinkKeyKnown
			if r.keyType == btsec.KeyAuthCombP256 {
				r.flags |= FlagLELinkKeyAuthed
			}
		}
	}
	m.saveBond(r)

	bonding := false
	if m.pairingWith(a) {
		if m.pairing.flags.has(pairWeStartedDD) {
			bonding = true
		} else {
			m.changePairingState(PairIdle)
		}
	}

	// HID devices get their key reported without a name
	if !r.is(FlagNameKnown) && !r.class.Peripheral() {
		r.linkKeyNotSent = true
		if bonding && !m.readRemoteName(r) {
			m.remoteNameComplete(a, "", hci.ErrUnspecified)
		}
		return
	}

	if !r.required.Orig.Authenticate {
		m.authCompleteCb(r, hci.Success)
	}
	m.sendLinkKeyNotif(r)
}
