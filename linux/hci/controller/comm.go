package controller

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/btsec/linux/hci"
)

// Send issues c and waits for its Command Status or Command Complete.
// A non-zero status is returned as hci.ErrCommand.
func (h *HCI) Send(c hci.Command) error {
	return h.SendRP(c, nil)
}

// SendRP is Send that also unmarshals the return parameters into r.
func (h *HCI) SendRP(c hci.Command, r hci.CommandRP) error {
	b, err := h.send(c)
	if err != nil {
		return err
	}
	if len(b) > 0 && b[0] != 0x00 {
		return hci.ErrCommand(b[0])
	}
	if r != nil {
		return r.Unmarshal(b)
	}
	return nil
}

func (h *HCI) send(c hci.Command) ([]byte, error) {
	if h.err != nil {
		return nil, h.err
	}

	p := &pkt{c, make(chan []byte)}

	// get buffer w/timeout
	var b []byte
	select {
	case <-h.done:
		return nil, errors.New("hci closed")
	case b = <-h.chCmdBufs:
		//ok
	case <-time.After(chCmdBufTimeout):
		err := errors.New("chCmdBufs get timeout")
		h.dispatchError(err)
		return nil, err
	}

	b[0] = hci.PktTypeCommand // HCI header
	b[1] = byte(c.OpCode())
	b[2] = byte(c.OpCode() >> 8)
	b[3] = byte(c.Len())
	if err := c.Marshal(b[4:]); err != nil {
		return nil, errors.Wrapf(err, "hci: failed to marshal cmd %04x", c.OpCode())
	}

	h.muSent.Lock()
	if _, ok := h.sent[c.OpCode()]; ok {
		h.muSent.Unlock()
		return nil, errors.Errorf("command with opcode %04x pending", c.OpCode())
	}
	h.sent[c.OpCode()] = p
	h.muSent.Unlock()

	// clear sent table when done, we sometimes get command complete or
	// command status messages with no matching send.
	defer func() {
		h.muSent.Lock()
		delete(h.sent, c.OpCode())
		h.muSent.Unlock()
	}()

	if !h.isOpen() {
		return nil, errors.New("hci closed")
	} else if n, err := h.skt.Write(b[:4+c.Len()]); err != nil {
		h.close(errors.Wrap(err, "hci: failed to send cmd"))
		return nil, h.err
	} else if n != 4+c.Len() {
		h.close(errors.New("hci: failed to send whole cmd pkt to hci socket"))
		return nil, h.err
	}

	// emergency timeout to prevent calls from locking up if the HCI
	// interface doesn't respond.
	select {
	case <-time.After(cmdResponseTimeout):
		return nil, errors.Errorf("hci: no response to command %04x, hci connection failed", c.OpCode())
	case <-h.done:
		if h.err != nil {
			return nil, h.err
		}
		return nil, errors.New("hci closed")
	case b := <-p.done:
		return b, nil
	}
}

func (h *HCI) sktProcessLoop() {
	defer h.cleanup()

	for {
		var p []byte
		var ok bool

		select {
		case <-h.done:
			h.logger.Debug("close requested")
			return

		case p, ok = <-h.sktRxChan:
			if !ok {
				h.logger.Debug("socket rx closed")
				if h.err != nil {
					h.dispatchError(h.err)
				}
				return
			}
		}

		if err := h.handlePkt(p); err != nil {
			// Some bluetooth devices may append vendor specific packets at the last,
			// in this case, simply ignore them.
			if strings.HasPrefix(err.Error(), "unsupported") {
				h.logger.Debugf("skt: %v", err)
			} else {
				h.dispatchError(errors.Wrap(err, "skt handle error"))
			}
		}
	}
}

func (h *HCI) sktReadLoop() {
	defer close(h.sktRxChan)

	b := make([]byte, 4096)

	for {
		n, err := h.skt.Read(b)

		switch {
		case n == 0 && err == nil:
			// read timeout
			select {
			case <-h.done:
				return
			default:
				continue
			}

		//callers depend on detecting io.EOF, don't wrap it.
		case err == io.EOF:
			h.err = err
			return

		case err != nil:
			if h.isOpen() {
				h.err = errors.Wrap(err, "skt read error")
			}
			return

		default:
			p := make([]byte, n)
			copy(p, b)
			select {
			case h.sktRxChan <- p:
			case <-h.done:
				return
			}
		}
	}
}

// forwardLoop hands events to the handler off the socket loop so that a
// handler blocked in Send never stalls command completion.
func (h *HCI) forwardLoop() {
	for {
		select {
		case <-h.done:
			return
		case b := <-h.evtQueue:
			if h.handler == nil {
				continue
			}
			if err := h.handler.PostEvent(int(b[0]), b[2:]); err != nil {
				h.logger.Warnf("event %02x not delivered: %v", b[0], err)
			}
		}
	}
}

func (h *HCI) close(err error) error {
	h.err = err
	return h.skt.Close()
}
