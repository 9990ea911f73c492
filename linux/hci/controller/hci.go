package controller

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
	"github.com/rigado/btsec/linux/hci/evt"
)

const (
	chCmdBufChanSize    = 8
	chCmdBufElementSize = 64
	chCmdBufTimeout     = 5 * time.Second
	cmdResponseTimeout  = 10 * time.Second
	evtQueueSize        = 64
)

type handlerFn func(b []byte) error

type pkt struct {
	cmd  hci.Command
	done chan []byte
}

// EventHandler receives the controller events the security manager
// consumes. Params excludes the event header.
type EventHandler interface {
	PostEvent(code int, params []byte) error
}

// NewHCI returns a host controller interface speaking over skt, which
// must return one complete H4 packet per Read.
func NewHCI(skt io.ReadWriteCloser, opts ...Option) (*HCI, error) {
	h := &HCI{
		skt:       skt,
		chCmdBufs: make(chan []byte, chCmdBufChanSize),
		sent:      make(map[int]*pkt),
		evth:      map[int]handlerFn{},
		fwdCC:     map[int]bool{},
		evtQueue:  make(chan []byte, evtQueueSize),
		done:      make(chan bool),
		sktRxChan: make(chan []byte, 16),
		logger:    btsec.GetLogger().ChildLogger(map[string]interface{}{"component": "hci"}),
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, errors.Wrap(err, "can't set options")
		}
	}

	return h, nil
}

// HCI ...
type HCI struct {
	sync.Mutex

	skt io.ReadWriteCloser

	// Host to Controller command flow control [Vol 2, Part E, 4.4]
	chCmdBufs chan []byte
	muSent    sync.Mutex
	sent      map[int]*pkt

	// evtHub
	evth map[int]handlerFn

	// events, and command completes by opcode, forwarded to handler
	handler  EventHandler
	fwdCC    map[int]bool
	evtQueue chan []byte

	addr btsec.Addr

	//error handler
	errorHandler func(error)
	err          error

	muClose sync.Mutex
	done    chan bool

	sktRxChan chan []byte

	logger btsec.Logger
}

// Init starts the reader loops and brings up the controller.
func (h *HCI) Init() error {
	h.evth[evt.CommandCompleteCode] = h.handleCommandComplete
	h.evth[evt.CommandStatusCode] = h.handleCommandStatus

	for _, code := range []int{
		evt.ConnectionCompleteCode,
		evt.ConnectionRequestCode,
		evt.DisconnectionCompleteCode,
		evt.AuthenticationCompleteCode,
		evt.RemoteNameRequestCompleteCode,
		evt.EncryptionChangeCode,
		evt.RoleChangeCode,
		evt.PINCodeRequestCode,
		evt.LinkKeyRequestCode,
		evt.LinkKeyNotificationCode,
		evt.IOCapabilityRequestCode,
		evt.IOCapabilityResponseCode,
		evt.UserConfirmationRequestCode,
		evt.UserPasskeyRequestCode,
		evt.RemoteOOBDataRequestCode,
		evt.SimplePairingCompleteCode,
		evt.UserPasskeyNotificationCode,
		evt.KeypressNotificationCode,
		evt.RemoteHostSupportedFeaturesNotificationCode,
	} {
		h.evth[code] = h.forward
	}

	// these complete asynchronously from the manager's point of view
	h.fwdCC[(&cmd.ReadLocalOOBData{}).OpCode()] = true
	h.fwdCC[(&cmd.CreateConnectionCancel{}).OpCode()] = true
	h.fwdCC[(&cmd.RemoteNameRequestCancel{}).OpCode()] = true

	h.setAllowedCommands(1)

	go h.sktReadLoop()
	go h.sktProcessLoop()
	go h.forwardLoop()

	return h.init()
}

func (h *HCI) init() error {
	h.logger.Info("hci reset")
	if err := h.Send(&cmd.Reset{}); err != nil {
		return errors.Wrap(err, "reset")
	}

	rp := cmd.ReadBDADDRRP{}
	if err := h.SendRP(&cmd.ReadBDADDR{}, &rp); err != nil {
		return errors.Wrap(err, "read bdaddr")
	}
	h.addr = btsec.AddrFromWire(rp.BDADDR)
	h.logger.Infof("controller address %v", h.addr)

	if err := h.Send(&cmd.SetEventMask{EventMask: hci.DefaultEventMask}); err != nil {
		return errors.Wrap(err, "set event mask")
	}

	return h.err
}

// Addr is the controller's BD_ADDR, valid after Init.
func (h *HCI) Addr() btsec.Addr {
	return h.addr
}

func (h *HCI) cleanup() {
	//close the socket
	h.close(nil)

	// clean out all sent commands
	h.muSent.Lock()
	for k := range h.sent {
		delete(h.sent, k)
	}
	h.muSent.Unlock()
}

// Close stops the loops and closes the transport.
func (h *HCI) Close() error {
	h.muClose.Lock()
	defer h.muClose.Unlock()

	select {
	case <-h.done:
		//already closed, nothing to do
	default:
		close(h.done)
		h.skt.Close()
	}

	return nil
}

// Error ...
func (h *HCI) Error() error {
	return h.err
}

func (h *HCI) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *HCI) setAllowedCommands(n int) {
	if n > chCmdBufChanSize {
		h.logger.Debugf("setAllowedCommands: defaulting %d -> %d", n, chCmdBufChanSize)
		n = chCmdBufChanSize
	}

	//put with timeout
	for len(h.chCmdBufs) < n {
		select {
		case <-h.done:
			//closed
			return
		case h.chCmdBufs <- make([]byte, chCmdBufElementSize):
			//ok
		case <-time.After(chCmdBufTimeout):
			h.dispatchError(errors.New("chCmdBufs put timeout"))
			return
		}
	}
}

func (h *HCI) dispatchError(e error) {
	switch {
	case h.errorHandler == nil:
		h.logger.Error(e)
	case !h.isOpen():
		//don't dispatch
		h.logger.Debug("hci closing:", e)
	default:
		h.errorHandler(e)
	}
}
