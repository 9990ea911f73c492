package hci

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/btsec/linux/hci/h4"
	"github.com/rigado/btsec/linux/hci/socket"
)

type TransportHCI struct {
	ID int
}

type TransportH4Socket struct {
	Addr    string
	Timeout time.Duration
}

type TransportH4Uart struct {
	Path     string
	BaudRate uint
}

// Transport selects one of the controller transports; the first non-nil wins.
type Transport struct {
	HCI      *TransportHCI
	H4Uart   *TransportH4Uart
	H4Socket *TransportH4Socket
}

// OpenTransport opens the selected transport.
func OpenTransport(t Transport) (io.ReadWriteCloser, error) {
	switch {
	case t.HCI != nil:
		return socket.NewSocket(t.HCI.ID)

	case t.H4Socket != nil:
		return h4.NewSocket(t.H4Socket.Addr, t.H4Socket.Timeout)

	case t.H4Uart != nil:
		so := h4.DefaultSerialOptions()
		so.PortName = t.H4Uart.Path
		if t.H4Uart.BaudRate != 0 {
			so.BaudRate = t.H4Uart.BaudRate
		}
		return h4.NewSerial(so)

	default:
		return nil, errors.New("no valid transport found")
	}
}
