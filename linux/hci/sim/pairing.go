package sim

import (
	"encoding/binary"
	"io"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/evt"
	"github.com/rigado/btsec/linux/hci/sec"
	"github.com/rigado/btsec/oob"
)

type method int

const (
	methodJustWorks method = iota
	methodNumeric
	methodPasskeyEntry  // we type, the peer displays
	methodPasskeyNotify // we display, the peer types
	methodOOB
)

var methodNames = []string{"just-works", "numeric-comparison", "passkey-entry", "passkey-notification", "oob"}

func (m method) String() string { return methodNames[m] }

// txn is an authentication in progress on one link.
type txn struct {
	hostAuth    bool
	peerStarted bool
	ioSent      bool

	locIOCap btsec.IOCap
	locAuth  btsec.AuthReq
	locOOB   bool
	method   method
	mitm     bool
}

// association picks the pairing method the way two controllers would from
// the exchanged IO capabilities [Vol 3, Part C, 5.2.2.6].
func association(local, remote btsec.IOCap, mitm, hasOOB bool) method {
	switch {
	case hasOOB:
		return methodOOB
	case !mitm || !sec.AuthKeyPossible(local, remote):
		return methodJustWorks
	case local == btsec.IOCapKeyboardOnly:
		return methodPasskeyEntry
	case remote == btsec.IOCapKeyboardOnly:
		return methodPasskeyNotify
	}
	return methodNumeric
}

// Shown returns the last value the peer displayed to its user.
func (p *Peer) Shown() uint32 {
	return p.shown
}

func (c *Controller) sixDigits() uint32 {
	var v uint32
	if err := binary.Read(c.rnd, binary.LittleEndian, &v); err != nil {
		c.logger.Errorf("can't read random value: %v", err)
	}
	return v % 1000000
}

func (c *Controller) newKey(p *Peer, kt btsec.KeyType) {
	if _, err := io.ReadFull(c.rnd, p.key[:]); err != nil {
		c.logger.Errorf("can't generate link key: %v", err)
	}
	p.keyType = kt
	p.hasKey = true
	c.emit(linkKeyNotification{BDADDR: p.Addr.Wire(), LinkKey: p.key, KeyType: uint8(kt)})
}

func (c *Controller) authenticationRequested(h uint16) {
	p := c.byHandle(h)
	if p == nil {
		c.emit(authenticationComplete{Status: uint8(hci.ErrConnID), Handle: h})
		return
	}
	if p.tx != nil {
		// the peer is already authenticating the link
		p.tx.hostAuth = true
		return
	}
	p.tx = &txn{hostAuth: true}
	c.linkKeyRequest(p)
}

func (c *Controller) linkKeyRequest(p *Peer) {
	c.emitAddr(evt.LinkKeyRequestCode, p.Addr)
}

func (c *Controller) pairing(a btsec.Addr) *Peer {
	p, ok := c.peers[a]
	if !ok || p.tx == nil {
		c.logger.Warnf("%v: reply without authentication in progress", a)
		return nil
	}
	return p
}

func (c *Controller) linkKeyReply(a btsec.Addr, key btsec.LinkKey) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	if !p.hasKey || p.key != key {
		c.finish(p, hci.ErrKeyMissing)
		return
	}
	c.finish(p, hci.Success)
}

func (c *Controller) linkKeyNegativeReply(a btsec.Addr) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	if !c.sspHost || !p.SSP {
		c.emitAddr(evt.PINCodeRequestCode, a)
		return
	}
	if p.tx.peerStarted {
		c.ioCapResponse(p)
	}
	c.emitAddr(evt.IOCapabilityRequestCode, a)
}

func (c *Controller) pinReply(a btsec.Addr, pin string) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	if p.Reject || pin != p.PIN {
		c.finish(p, hci.ErrAuth)
		return
	}
	c.newKey(p, btsec.KeyCombination)
	c.finish(p, hci.Success)
}

func (c *Controller) ioCapResponse(p *Peer) {
	p.tx.ioSent = true
	c.emit(ioCapResponse{BDADDR: p.Addr.Wire(), IOCap: uint8(p.IOCap), AuthReq: uint8(p.AuthReq)})
}

func (c *Controller) ioCapReply(a btsec.Addr, ioc btsec.IOCap, oobPresent bool, auth btsec.AuthReq) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	tx := p.tx
	tx.locIOCap, tx.locOOB, tx.locAuth = ioc, oobPresent, auth
	if !tx.ioSent {
		c.ioCapResponse(p)
	}
	tx.mitm = auth.MITM() || p.AuthReq.MITM()
	tx.method = association(ioc, p.IOCap, tx.mitm, oobPresent)
	c.logger.Debugf("%v: %v", a, tx.method)

	switch tx.method {
	case methodOOB:
		c.emitAddr(evt.RemoteOOBDataRequestCode, a)
	case methodNumeric:
		p.shown = c.sixDigits()
		c.emitCode(evt.UserConfirmationRequestCode, numericValue{BDADDR: a.Wire(), Value: p.shown})
	case methodJustWorks:
		c.emitCode(evt.UserConfirmationRequestCode, numericValue{BDADDR: a.Wire(), Value: c.sixDigits()})
	case methodPasskeyEntry:
		c.emitAddr(evt.UserPasskeyRequestCode, a)
	case methodPasskeyNotify:
		v := c.sixDigits()
		c.emitCode(evt.UserPasskeyNotificationCode, numericValue{BDADDR: a.Wire(), Value: v})
		if p.Reject {
			// the peer's user gives up instead of typing it
			c.spFailed(p, hci.ErrAuth)
			return
		}
		c.spDone(p)
	}
}

func (c *Controller) confirmReply(a btsec.Addr, ok bool) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	// just works needs no answer from the peer's user
	if !ok || (p.Reject && p.tx.method == methodNumeric) {
		c.spFailed(p, hci.ErrAuth)
		return
	}
	c.spDone(p)
}

func (c *Controller) passkeyReply(a btsec.Addr, v uint32, ok bool) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	if !ok || p.Reject || v != p.Passkey {
		c.spFailed(p, hci.ErrAuth)
		return
	}
	c.spDone(p)
}

func (c *Controller) oobReply(a btsec.Addr, hc, hr [16]byte, ok bool) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	if !ok || p.oobData == nil {
		c.spFailed(p, hci.ErrAuth)
		return
	}
	valid, err := oob.Check(p.oobData.PublicKeyX(), hc, hr)
	if err != nil || !valid {
		c.logger.Infof("%v: oob commitment mismatch", a)
		c.spFailed(p, hci.ErrAuth)
		return
	}
	c.spDone(p)
}

func (c *Controller) pairingFailed(a btsec.Addr, status hci.ErrCommand) {
	p := c.pairing(a)
	if p == nil {
		return
	}
	if p.tx.ioSent {
		c.spFailed(p, status)
		return
	}
	c.finish(p, status)
}

func (c *Controller) spFailed(p *Peer, status hci.ErrCommand) {
	c.emit(simplePairingComplete{Status: uint8(status), BDADDR: p.Addr.Wire()})
	c.finish(p, status)
}

func (c *Controller) spDone(p *Peer) {
	c.emit(simplePairingComplete{BDADDR: p.Addr.Wire()})

	authed := p.tx.mitm && p.tx.method != methodJustWorks
	sc := c.scHost && p.SC
	kt := btsec.KeyUnauthComb
	switch {
	case authed && sc:
		kt = btsec.KeyAuthCombP256
	case authed:
		kt = btsec.KeyAuthComb
	case sc:
		kt = btsec.KeyUnauthCombP256
	}
	c.newKey(p, kt)
	c.finish(p, hci.Success)
}

// finish ends the authentication on p. The host hears Authentication
// Complete only if it asked. A peer that started it encrypts the link, or
// drops it on failure.
func (c *Controller) finish(p *Peer, status hci.ErrCommand) {
	tx := p.tx
	p.tx = nil
	if tx == nil {
		return
	}
	if tx.hostAuth {
		c.emit(authenticationComplete{Status: uint8(status), Handle: p.handle})
	}
	if !tx.peerStarted || tx.hostAuth {
		return
	}
	if status != hci.Success {
		// the peer gives up on the link
		c.disconnected(p, hci.ErrAuth)
		return
	}
	p.encrypted = true
	c.emitEncryption(p)
}
