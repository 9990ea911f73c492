package controller

import (
	"fmt"

	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/evt"
)

func (h *HCI) handlePkt(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty packet")
	}

	// Strip the 1-byte HCI header and pass down the rest of the packet.
	t, b := b[0], b[1:]
	switch t {
	case hci.PktTypeEvent:
		return h.handleEvt(b)

		//unhandled stuff
	case hci.PktTypeACLData:
		return fmt.Errorf("unsupported acl packet: % X", b)
	case hci.PktTypeCommand:
		return fmt.Errorf("unmanaged cmd: % X", b)
	case hci.PktTypeSCOData:
		return fmt.Errorf("unsupported sco packet: % X", b)
	case hci.PktTypeVendor:
		return fmt.Errorf("unsupported vendor packet: % X", b)
	default:
		return fmt.Errorf("invalid packet: 0x%02X % X", t, b)
	}
}

func (h *HCI) handleEvt(b []byte) error {
	if len(b) < 2 {
		return fmt.Errorf("invalid event packet: % X", b)
	}
	code, plen := int(b[0]), int(b[1])
	if plen != len(b[2:]) {
		return fmt.Errorf("invalid event packet: % X", b)
	}

	if f := h.evth[code]; f != nil {
		return f(b)
	}
	if code == 0xff { // Ignore vendor events
		return nil
	}
	return fmt.Errorf("unsupported event packet: % X", b)
}

// forward queues the whole event (code, length, params).
func (h *HCI) forward(b []byte) error {
	select {
	case h.evtQueue <- b:
		return nil
	case <-h.done:
		return fmt.Errorf("hci closed")
	}
}

func (h *HCI) handleCommandComplete(b []byte) error {
	e := evt.CommandComplete(b[2:])
	n, err := e.NumHCICommandPacketsWErr()
	if err != nil {
		return err
	}
	h.setAllowedCommands(int(n))

	op, err := e.CommandOpcodeWErr()
	if err != nil {
		return err
	}

	// NOP command, used for flow control purpose [Vol 2, Part E, 4.4]
	if op == 0x0000 {
		return nil
	}

	if h.fwdCC[int(op)] {
		if err := h.forward(b); err != nil {
			return err
		}
	}

	h.muSent.Lock()
	p, found := h.sent[int(op)]
	h.muSent.Unlock()

	if !found {
		return fmt.Errorf("can't find the cmd for CommandCompleteEP: % X", e)
	}

	select {
	case <-h.done:
		return fmt.Errorf("hci closed")
	case p.done <- e.ReturnParameters():
		return nil
	}
}

func (h *HCI) handleCommandStatus(b []byte) error {
	e := evt.CommandStatus(b[2:])

	if !e.Valid() {
		err := fmt.Errorf("invalid command status: % X", b)
		h.dispatchError(err)
		return err
	}

	h.setAllowedCommands(int(e.NumHCICommandPackets()))

	h.muSent.Lock()
	p, found := h.sent[int(e.CommandOpcode())]
	h.muSent.Unlock()
	if !found {
		return fmt.Errorf("can't find the cmd for CommandStatusEP: % X", e)
	}

	select {
	case <-h.done:
		return fmt.Errorf("hci closed")
	case p.done <- []byte{e.Status()}:
		return nil
	}
}
