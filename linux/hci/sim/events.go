package sim

import (
	"bytes"
	"encoding/binary"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/evt"
)

// Host supported features, octet 0.
const (
	hostFeatSSP = 0x01
	hostFeatSC  = 0x08
)

// Event parameters, marshalled little endian field by field.

type connectionComplete struct {
	Status     uint8
	Handle     uint16
	BDADDR     [6]byte
	LinkType   uint8
	Encryption uint8
}

type connectionRequest struct {
	BDADDR   [6]byte
	Class    [3]byte
	LinkType uint8
}

type disconnectionComplete struct {
	Status uint8
	Handle uint16
	Reason uint8
}

type authenticationComplete struct {
	Status uint8
	Handle uint16
}

type encryptionChange struct {
	Status  uint8
	Handle  uint16
	Enabled uint8
}

type addrOnly struct {
	BDADDR [6]byte
}

type linkKeyNotification struct {
	BDADDR  [6]byte
	LinkKey [16]byte
	KeyType uint8
}

type ioCapResponse struct {
	BDADDR  [6]byte
	IOCap   uint8
	OOB     uint8
	AuthReq uint8
}

type numericValue struct {
	BDADDR [6]byte
	Value  uint32
}

type simplePairingComplete struct {
	Status uint8
	BDADDR [6]byte
}

type hostFeatures struct {
	BDADDR   [6]byte
	Features [8]byte
}

type commandComplete struct {
	NumPackets uint8
	Opcode     uint16
}

func code(v interface{}) int {
	switch v.(type) {
	case connectionComplete:
		return evt.ConnectionCompleteCode
	case connectionRequest:
		return evt.ConnectionRequestCode
	case disconnectionComplete:
		return evt.DisconnectionCompleteCode
	case authenticationComplete:
		return evt.AuthenticationCompleteCode
	case encryptionChange:
		return evt.EncryptionChangeCode
	case linkKeyNotification:
		return evt.LinkKeyNotificationCode
	case ioCapResponse:
		return evt.IOCapabilityResponseCode
	case simplePairingComplete:
		return evt.SimplePairingCompleteCode
	case hostFeatures:
		return evt.RemoteHostSupportedFeaturesNotificationCode
	}
	return 0
}

// emit delivers an event whose code follows from the parameter type.
func (c *Controller) emit(v interface{}) {
	c.emitCode(code(v), v)
}

func (c *Controller) emitCode(code int, v interface{}) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		c.logger.Errorf("can't marshal event 0x%02x: %v", code, err)
		return
	}
	c.post(code, buf.Bytes())
}

func (c *Controller) post(code int, b []byte) {
	if c.h == nil {
		c.logger.Debugf("event 0x%02x dropped, no handler", code)
		return
	}
	if err := c.h.PostEvent(code, b); err != nil {
		c.logger.Errorf("event 0x%02x: %v", code, err)
	}
}

func (c *Controller) emitAddr(code int, a btsec.Addr) {
	c.emitCode(code, addrOnly{BDADDR: a.Wire()})
}

func (c *Controller) emitName(status hci.ErrCommand, a btsec.Addr, name string) {
	w := a.Wire()
	b := append([]byte{byte(status)}, w[:]...)
	if status == hci.Success {
		b = append(b, name...)
		b = append(b, 0)
	}
	c.post(evt.RemoteNameRequestCompleteCode, b)
}

func (c *Controller) emitEncryption(p *Peer) {
	e := encryptionChange{Handle: p.handle}
	if p.encrypted {
		e.Enabled = hci.EncryptionOn
	}
	c.emit(e)
}

func (c *Controller) emitComplete(hc hci.Command, rp []byte) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, commandComplete{NumPackets: 1, Opcode: uint16(hc.OpCode())})
	buf.Write(rp)
	c.post(evt.CommandCompleteCode, buf.Bytes())
}
