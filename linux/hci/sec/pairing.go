package sec

import (
	"github.com/google/uuid"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// PairingState is the state of the single pairing transaction.
type PairingState uint8

const (
	PairIdle PairingState = iota
	PairGetRemName
	PairWaitPinReq
	PairWaitLocalPin
	PairWaitNumericConfirm
	PairKeyEntry
	PairWaitLocalOOBRsp
	PairWaitLocalIOCaps
	PairIncomingSSP
	PairWaitAuthComplete
	PairWaitDisconnect
)

var pairingStateNames = [...]string{"idle", "get-rem-name", "wait-pin-req", "wait-local-pin",
	"wait-numeric-confirm", "key-entry", "wait-local-oob-rsp", "wait-local-iocaps",
	"incoming-ssp", "wait-auth-complete", "wait-disconnect"}

func (s PairingState) String() string {
	if int(s) < len(pairingStateNames) {
		return pairingStateNames[s]
	}
	return "unknown"
}

type pairingFlags uint8

const (
	pairWeStartedDD     pairingFlags = 1 << iota // we started dedicated bonding
	pairPeerStartedDD                            // peer started dedicated bonding
	pairDiscWhenDone                             // we created the ACL, drop it when done
	pairPinReqd                                  // PIN request deferred until the name is known
	pairPrefetchPin                              // PIN asked for before the controller did
	pairRejectedConnect                          // peer connection rejected while we bond
	pairWeCancelDD                               // BondCancel is waiting for the link or name request
)

func (f pairingFlags) has(x pairingFlags) bool { return f&x != 0 }

type pairingCB struct {
	state PairingState
	flags pairingFlags
	addr  btsec.Addr

	// pin is cached by Bond, pinSaved is the PIN sent last.
	pin      []byte
	pinSaved []byte

	locIOCap   btsec.IOCap
	locAuthReq btsec.AuthReq

	timer *timer
	log   btsec.Logger
}

// PairingState returns the state of the pairing transaction and its peer.
func (m *Manager) PairingState() (PairingState, btsec.Addr) {
	return m.pairing.state, m.pairing.addr
}

func (m *Manager) pairingWith(a btsec.Addr) bool {
	return m.pairing.state != PairIdle && m.pairing.addr == a
}

func (m *Manager) changePairingState(s PairingState) {
	old := m.pairing.state
	m.pairing.log.Debugf("pairing state %v -> %v", old, s)
	m.pairing.state = s

	if s == PairIdle {
		m.pairing.timer.stop()
		m.pairing.flags = 0
		m.pairing.pin = nil
		m.pairing.pinSaved = nil
		m.pairing.addr = btsec.AddrNone
		m.pairing.log = m.logger

		m.restoreMode()
		m.checkPendingReqs()
		return
	}

	if old == PairIdle {
		m.pairing.log = m.logger.ChildLogger(map[string]interface{}{
			"peer":    m.pairing.addr.String(),
			"pairing": uuid.New().String(),
		})
	}
	m.pairing.timer.start(m.pairingTimeout, m.pairingExpired)
}

// restoreMode undoes the controller settings changed for one bonding.
func (m *Manager) restoreMode() {
	if m.modeChanged {
		m.modeChanged = false
		m.send(writeAuthEnable(m.secMode == btsec.SecModeLink))
	}
	if m.pinTypeChanged {
		m.pinTypeChanged = false
		m.send(&cmd.WritePINType{PINType: uint8(m.pinType)})
	}
}

func (m *Manager) pairingExpired() {
	p := &m.pairing
	a := p.addr
	r := m.find(a)
	p.log.Infof("pairing timed out in %v", p.state)

	switch p.state {
	case PairWaitPinReq:
		m.bondCancelComplete()
		if p.state != PairIdle {
			m.changePairingState(PairIdle)
			m.timeoutAuthComplete(a, r)
		}

	case PairWaitLocalPin:
		if !p.flags.has(pairPrefetchPin) {
			m.send(&cmd.PINCodeRequestNegativeReply{BDADDR: a.Wire()})
		}
		m.changePairingState(PairIdle)
		m.timeoutAuthComplete(a, r)

	case PairWaitNumericConfirm:
		m.send(&cmd.UserConfirmationRequestNegativeReply{BDADDR: a.Wire()})
		m.changePairingState(PairIdle)
		m.timeoutAuthComplete(a, r)

	case PairKeyEntry:
		if m.locIOCap != btsec.IOCapNoInputNoOutput {
			m.send(&cmd.UserPasskeyRequestNegativeReply{BDADDR: a.Wire()})
		}
		m.changePairingState(PairIdle)
		m.timeoutAuthComplete(a, r)

	case PairWaitLocalIOCaps:
		auth := btsec.AuthAPYes
		if p.flags.has(pairWeStartedDD) {
			auth |= btsec.AuthDDBond
		}
		m.send(&cmd.IOCapabilityRequestReply{
			BDADDR:                     a.Wire(),
			IOCapability:               uint8(m.locIOCap),
			OOBDataPresent:             uint8(btsec.OOBNone),
			AuthenticationRequirements: uint8(auth),
		})
		m.changePairingState(PairIdle)

	case PairWaitLocalOOBRsp:
		m.send(&cmd.RemoteOOBDataRequestNegativeReply{BDADDR: a.Wire()})
		m.changePairingState(PairIdle)

	case PairWaitDisconnect:
		if r == nil {
			m.logger.Errorf("%v: wait-disconnect for an unknown device", a)
			m.changePairingState(PairIdle)
			return
		}
		m.sendHCIDisconnect(r, hci.ErrAuth)
		m.changePairingState(PairIdle)

	case PairWaitAuthComplete, PairGetRemName:
		m.changePairingState(PairIdle)
		m.timeoutAuthComplete(a, r)

	default:
		m.changePairingState(PairIdle)
	}
}

func (m *Manager) timeoutAuthComplete(a btsec.Addr, r *deviceRecord) {
	if m.cb.AuthComplete == nil {
		return
	}
	if r == nil {
		m.cb.AuthComplete(a, btsec.DevClass{}, "", hci.ErrConnTimeout)
		return
	}
	m.cb.AuthComplete(r.addr, r.class, r.name, hci.ErrConnTimeout)
}
