// Package sim is a simulated BR/EDR controller. It answers the commands a
// security manager sends with the events a controller talking to the
// configured peers would produce, so pairing can be exercised without
// hardware.
package sim

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
	"github.com/rigado/btsec/oob"
)

const firstHandle uint16 = 0x0040

// EventHandler receives the events of the simulated controller. It must
// not call back into the controller synchronously.
type EventHandler interface {
	PostEvent(code int, params []byte) error
}

// Peer is a remote device and the behaviour of its user.
type Peer struct {
	Addr  btsec.Addr
	Class btsec.DevClass
	Name  string

	// SSP and SC are the peer's host support for simple pairing and
	// secure connections.
	SSP bool
	SC  bool

	IOCap   btsec.IOCap
	AuthReq btsec.AuthReq

	// PIN is what the peer's user enters for legacy pairing.
	PIN string
	// Passkey is what the peer's user types or displays.
	Passkey uint32
	// Reject makes the peer's user refuse every pairing.
	Reject bool
	// Unreachable peers don't answer pages.
	Unreachable bool

	handle    uint16
	key       btsec.LinkKey
	keyType   btsec.KeyType
	hasKey    bool
	encrypted bool
	oobData   *oob.Local
	shown     uint32
	tx        *txn
}

// Connected reports whether the peer has an ACL link with us.
func (p *Peer) Connected() bool {
	return p.handle != 0
}

// Handle returns the connection handle, 0 when not connected.
func (p *Peer) Handle() uint16 {
	return p.handle
}

// LinkKey returns the key the peer stored for us.
func (p *Peer) LinkKey() (btsec.LinkKey, btsec.KeyType, bool) {
	return p.key, p.keyType, p.hasKey
}

// Encrypted reports whether the link is encrypted.
func (p *Peer) Encrypted() bool {
	return p.encrypted
}

// Controller is the simulated controller. It implements hci.Sender.
type Controller struct {
	mu sync.Mutex

	h      EventHandler
	peers  map[btsec.Addr]*Peer
	next   uint16
	rnd    io.Reader
	local  *oob.Local
	logger btsec.Logger

	sspHost bool
	scHost  bool
	authEn  bool
}

// New returns a controller without peers. Events are dropped until a
// handler is attached.
func New() *Controller {
	return &Controller{
		peers:  map[btsec.Addr]*Peer{},
		next:   firstHandle,
		rnd:    rand.Reader,
		logger: btsec.GetLogger().ChildLogger(map[string]interface{}{"component": "sim"}),
	}
}

// Attach sets where events go.
func (c *Controller) Attach(h EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.h = h
}

// AddPeer makes p reachable. A peer with the same address is replaced.
func (c *Controller) AddPeer(p *Peer) *Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.IOCap >= btsec.IOCapMax {
		p.IOCap = btsec.IOCapNoInputNoOutput
	}
	c.peers[p.Addr] = p
	return p
}

// Peer returns the peer with address a.
func (c *Controller) Peer(a btsec.Addr) (*Peer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[a]
	return p, ok
}

// Peers returns every peer.
func (c *Controller) Peers() []*Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps := make([]*Peer, 0, len(c.peers))
	for _, p := range c.peers {
		ps = append(ps, p)
	}
	return ps
}

// PeerOOB returns the OOB data the peer hands out, generating it once.
func (c *Controller) PeerOOB(a btsec.Addr) (*oob.Local, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[a]
	if !ok {
		return nil, errors.Errorf("unknown peer %v", a)
	}
	if p.oobData == nil {
		l, err := oob.Generate(c.rnd)
		if err != nil {
			return nil, err
		}
		p.oobData = l
	}
	return p.oobData, nil
}

// Connect has the peer page us.
func (c *Controller) Connect(a btsec.Addr) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[a]
	if !ok {
		return errors.Errorf("unknown peer %v", a)
	}
	if p.Connected() {
		return errors.Errorf("%v already connected", a)
	}
	c.connectionRequest(p)
	return nil
}

// Pair has the peer authenticate the link, pairing when it holds no key.
func (c *Controller) Pair(a btsec.Addr) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[a]
	if !ok || !p.Connected() {
		return errors.Errorf("%v not connected", a)
	}
	if p.tx != nil {
		return errors.Errorf("%v already pairing", a)
	}
	p.tx = &txn{peerStarted: true}
	c.linkKeyRequest(p)
	return nil
}

// Disconnect has the peer drop the link.
func (c *Controller) Disconnect(a btsec.Addr) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.peers[a]
	if !ok || !p.Connected() {
		return errors.Errorf("%v not connected", a)
	}
	c.disconnected(p, hci.ErrPeerUser)
	return nil
}

// Forget drops the key the peer holds for us.
func (c *Controller) Forget(a btsec.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.peers[a]; ok {
		p.hasKey = false
		p.key = btsec.LinkKey{}
	}
}

func (c *Controller) byHandle(h uint16) *Peer {
	for _, p := range c.peers {
		if p.handle == h && h != 0 {
			return p
		}
	}
	return nil
}

// Send implements hci.Sender.
func (c *Controller) Send(hc hci.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debugf("%v", hc)
	switch v := hc.(type) {
	case *cmd.Reset, *cmd.SetEventMask, *cmd.WritePINType, *cmd.WriteSimplePairingDebugMode:
	case *cmd.WriteSimplePairingMode:
		c.sspHost = v.SimplePairingMode == hci.SimplePairingOn
	case *cmd.WriteSecureConnectionsHostSupport:
		c.scHost = v.SecureConnectionsHostSupport == hci.SecureConnectionsOn
	case *cmd.WriteAuthenticationEnable:
		c.authEn = v.AuthenticationEnable == hci.AuthenticationOn

	case *cmd.CreateConnection:
		c.createConnection(btsec.AddrFromWire(v.BDADDR))
	case *cmd.CreateConnectionCancel:
		c.createConnectionCancel(btsec.AddrFromWire(v.BDADDR))
	case *cmd.AcceptConnectionRequest:
		c.acceptConnection(btsec.AddrFromWire(v.BDADDR))
	case *cmd.RejectConnectionRequest:
		a := btsec.AddrFromWire(v.BDADDR)
		c.emit(connectionComplete{Status: v.Reason, BDADDR: v.BDADDR, LinkType: hci.LinkTypeACL})
		c.logger.Debugf("%v rejected: %v", a, hci.ErrCommand(v.Reason))
	case *cmd.Disconnect:
		if p := c.byHandle(v.ConnectionHandle); p != nil {
			c.disconnected(p, hci.ErrLocalHost)
		}
	case *cmd.RemoteNameRequest:
		c.remoteName(btsec.AddrFromWire(v.BDADDR))
	case *cmd.RemoteNameRequestCancel:
		// the request already completed
		c.emitComplete(v, append([]byte{byte(hci.ErrConnID)}, v.BDADDR[:]...))
	case *cmd.SetConnectionEncryption:
		c.setEncryption(v.ConnectionHandle, v.EncryptionEnable != 0)
	case *cmd.ReadLocalOOBData:
		c.readLocalOOB(v)

	case *cmd.AuthenticationRequested:
		c.authenticationRequested(v.ConnectionHandle)
	case *cmd.LinkKeyRequestReply:
		c.linkKeyReply(btsec.AddrFromWire(v.BDADDR), btsec.LinkKey(v.LinkKey))
	case *cmd.LinkKeyRequestNegativeReply:
		c.linkKeyNegativeReply(btsec.AddrFromWire(v.BDADDR))
	case *cmd.PINCodeRequestReply:
		n := int(v.PINCodeLength)
		if n > len(v.PINCode) {
			n = len(v.PINCode)
		}
		c.pinReply(btsec.AddrFromWire(v.BDADDR), string(v.PINCode[:n]))
	case *cmd.PINCodeRequestNegativeReply:
		c.pairingFailed(btsec.AddrFromWire(v.BDADDR), hci.ErrKeyMissing)
	case *cmd.IOCapabilityRequestReply:
		c.ioCapReply(btsec.AddrFromWire(v.BDADDR), btsec.IOCap(v.IOCapability),
			v.OOBDataPresent != 0, btsec.AuthReq(v.AuthenticationRequirements))
	case *cmd.IOCapabilityRequestNegativeReply:
		c.pairingFailed(btsec.AddrFromWire(v.BDADDR), hci.ErrCommand(v.Reason))
	case *cmd.UserConfirmationRequestReply:
		c.confirmReply(btsec.AddrFromWire(v.BDADDR), true)
	case *cmd.UserConfirmationRequestNegativeReply:
		c.confirmReply(btsec.AddrFromWire(v.BDADDR), false)
	case *cmd.UserPasskeyRequestReply:
		c.passkeyReply(btsec.AddrFromWire(v.BDADDR), v.NumericValue, true)
	case *cmd.UserPasskeyRequestNegativeReply:
		c.passkeyReply(btsec.AddrFromWire(v.BDADDR), 0, false)
	case *cmd.RemoteOOBDataRequestReply:
		c.oobReply(btsec.AddrFromWire(v.BDADDR), v.C, v.R, true)
	case *cmd.RemoteOOBDataRequestNegativeReply:
		c.oobReply(btsec.AddrFromWire(v.BDADDR), [16]byte{}, [16]byte{}, false)
	case *cmd.SendKeypressNotification:

	default:
		return errors.Errorf("unsupported command %v", hc)
	}
	return nil
}

func (c *Controller) createConnection(a btsec.Addr) {
	p, ok := c.peers[a]
	if !ok || p.Unreachable {
		c.emit(connectionComplete{Status: uint8(hci.ErrPageTimeout), BDADDR: a.Wire(), LinkType: hci.LinkTypeACL})
		return
	}
	if p.Connected() {
		c.emit(connectionComplete{Status: uint8(hci.ErrConnExists), BDADDR: a.Wire(), LinkType: hci.LinkTypeACL})
		return
	}
	c.connected(p)
}

func (c *Controller) createConnectionCancel(a btsec.Addr) {
	// pages complete at once, there is never one to cancel
	status := hci.ErrConnExists
	if p, ok := c.peers[a]; !ok || !p.Connected() {
		status = hci.ErrConnID
	}
	w := a.Wire()
	c.emitComplete(&cmd.CreateConnectionCancel{}, append([]byte{byte(status)}, w[:]...))
}

func (c *Controller) connectionRequest(p *Peer) {
	c.emit(connectionRequest{BDADDR: p.Addr.Wire(), Class: p.Class.Wire(), LinkType: hci.LinkTypeACL})
}

func (c *Controller) acceptConnection(a btsec.Addr) {
	p, ok := c.peers[a]
	if !ok || p.Connected() {
		c.emit(connectionComplete{Status: uint8(hci.ErrConnID), BDADDR: a.Wire(), LinkType: hci.LinkTypeACL})
		return
	}
	c.connected(p)
}

func (c *Controller) connected(p *Peer) {
	p.handle = c.next
	c.next++
	p.encrypted = false
	c.emit(connectionComplete{Handle: p.handle, BDADDR: p.Addr.Wire(), LinkType: hci.LinkTypeACL})
	c.hostFeatures(p)

	// link level security authenticates every new link
	if c.authEn && p.tx == nil {
		p.tx = &txn{hostAuth: true}
		c.linkKeyRequest(p)
	}
}

func (c *Controller) disconnected(p *Peer, reason hci.ErrCommand) {
	h := p.handle
	p.handle = 0
	p.encrypted = false
	p.tx = nil
	c.emit(disconnectionComplete{Handle: h, Reason: uint8(reason)})
}

func (c *Controller) hostFeatures(p *Peer) {
	var feat [8]byte
	if p.SSP {
		feat[0] |= hostFeatSSP
	}
	if p.SC {
		feat[0] |= hostFeatSC
	}
	c.emit(hostFeatures{BDADDR: p.Addr.Wire(), Features: feat})
}

func (c *Controller) remoteName(a btsec.Addr) {
	p, ok := c.peers[a]
	if !ok || (p.Unreachable && !p.Connected()) {
		c.emitName(hci.ErrPageTimeout, a, "")
		return
	}
	c.hostFeatures(p)
	c.emitName(hci.Success, a, p.Name)
}

func (c *Controller) setEncryption(h uint16, on bool) {
	p := c.byHandle(h)
	if p == nil {
		c.emit(encryptionChange{Status: uint8(hci.ErrConnID), Handle: h})
		return
	}
	if on && !p.hasKey {
		c.emit(encryptionChange{Status: uint8(hci.ErrKeyMissing), Handle: h})
		return
	}
	p.encrypted = on
	c.emitEncryption(p)
}

func (c *Controller) readLocalOOB(rc *cmd.ReadLocalOOBData) {
	if c.local == nil {
		l, err := oob.Generate(c.rnd)
		if err != nil {
			c.logger.Errorf("can't generate local oob data: %v", err)
			c.emitComplete(rc, []byte{byte(hci.ErrUnspecified)})
			return
		}
		c.local = l
	}
	rp := []byte{byte(hci.Success)}
	rp = append(rp, c.local.C[:]...)
	rp = append(rp, c.local.R[:]...)
	c.emitComplete(rc, rp)
}

// LocalOOB returns the data Read Local OOB Data last reported.
func (c *Controller) LocalOOB() *oob.Local {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local
}
