package sec

import (
	"time"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
)

// authCollision retries the procedure that lost an LMP transaction
// collision, for as long as the collision window lasts.
func (m *Manager) authCollision(handle uint16) {
	now := m.clock.Now()
	if m.collisionStart.IsZero() {
		m.collisionStart = now
	}

	var r *deviceRecord
	if handle == hci.InvalidHandle {
		if r = m.devs.findByState(stateAuthenticating); r == nil {
			r = m.devs.findByState(stateEncrypting)
		}
	} else {
		r = m.devs.findByHandle(handle)
	}
	if r == nil {
		return
	}
	if r.state == stateAuthenticating || r.state == stateEncrypting {
		r.state = stateIdle
	}

	if now.Sub(m.collisionStart) >= m.collisionWindow {
		m.logger.Warnf("%v: collisions for %v, giving up", r.addr, now.Sub(m.collisionStart))
		m.collisionStart = time.Time{}
		if m.pairingWith(r.addr) {
			m.changePairingState(PairIdle)
			m.authCompleteCb(r, hci.ErrLMPTransactionCollision)
		}
		m.completeSink(r, btsec.StatusErrProcessing)
		return
	}

	m.logger.Debugf("%v: transaction collision, retrying in %v", r.addr, collisionRetryDelay)
	m.collided = r
	m.collisionTimer.start(collisionRetryDelay, m.collisionTimeout)
}

func (m *Manager) collisionTimeout() {
	r := m.collided
	if r == nil {
		return
	}
	if rc := m.execute(r); rc != btsec.StatusCmdStarted {
		m.completeSink(r, rc)
	}
}

// connectAfterReject creates the bonding link once the peer's rejected
// connection attempt is over.
func (m *Manager) connectAfterReject() {
	r := m.collided
	if r == nil {
		return
	}
	m.collided = nil
	if m.ddCreateConn(r) != btsec.StatusCmdStarted {
		m.changePairingState(PairIdle)
		m.authCompleteCb(r, hci.ErrMemoryFull)
	}
}
