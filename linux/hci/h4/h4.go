package h4

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
)

type h4 struct {
	rwc io.ReadWriteCloser
	rmu sync.Mutex
	wmu sync.Mutex

	rxQueue chan []byte
	frame   *frame

	done chan int
	cmu  sync.Mutex

	log btsec.Logger
}

// DefaultSerialOptions are the usual settings of an H4 controller UART.
func DefaultSerialOptions() serial.OpenOptions {
	return serial.OpenOptions{
		BaudRate:              1000000,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
}

// NewSerial opens an H4 UART.
func NewSerial(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
	// force these
	opts.MinimumReadSize = 0
	opts.InterCharacterTimeout = 100

	l := btsec.GetLogger().ChildLogger(map[string]interface{}{"transport": "h4", "port": opts.PortName})
	l.Info("opening...")
	sp, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %v", opts.PortName)
	}

	// dump whatever the controller had queued, reset makes it quiet
	l.Debug("flushing...")
	b := make([]byte, 2048)
	sp.Write([]byte{commandPacket, 0x03, 0x0c, 0x00})
	<-time.After(time.Millisecond * 250)
	if _, err = sp.Read(b); err != nil && err != io.EOF {
		sp.Close()
		return nil, errors.Wrap(err, "can't flush h4")
	}

	return newH4(sp, l), nil
}

func newH4(rwc io.ReadWriteCloser, l btsec.Logger) *h4 {
	h := &h4{
		rwc:     rwc,
		done:    make(chan int),
		rxQueue: make(chan []byte, rxQueueSize),
		log:     l,
	}
	h.frame = newFrame(h.rxQueue)

	go h.rxLoop()
	return h
}

func (h *h4) Read(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.rmu.Lock()
	defer h.rmu.Unlock()

	var n int
	select {
	case t := <-h.rxQueue:
		if len(p) < len(t) {
			return 0, fmt.Errorf("buffer too small")
		}
		n = copy(p, t)

	case <-h.done:
		return 0, io.EOF

	case <-time.After(time.Second):
		// read timeout, same contract as the hci socket
		return 0, nil
	}

	h.log.Debugf("read [% 0x]", p[:n])
	return n, nil
}

func (h *h4) Write(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()
	n, err := h.rwc.Write(p)
	h.log.Debugf("write [% 0x], %v, %v", p, n, err)

	return n, errors.Wrap(err, "can't write h4")
}

func (h *h4) Close() error {
	h.cmu.Lock()
	defer h.cmu.Unlock()

	select {
	case <-h.done:
		return nil

	default:
		close(h.done)
		h.log.Info("closing h4")
		err := h.rwc.Close()
		return errors.Wrap(err, "can't close h4")
	}
}

func (h *h4) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return h.rwc != nil
	}
}

func (h *h4) rxLoop() {
	tmp := make([]byte, 512)
	for {
		select {
		case <-h.done:
			h.log.Debug("rxLoop killed")
			return
		default:
		}

		n, err := h.rwc.Read(tmp)
		switch {
		case err == io.EOF:
			h.log.Debug("rxLoop eof")
			h.Close()
			return
		case err != nil || n == 0:
			continue
		}

		h.frame.Assemble(tmp[:n])
	}
}
