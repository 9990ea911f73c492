package h4

import (
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
)

// NewSocket connects to an H4 stream exposed over TCP (e.g. a controller
// bridged by a serial-to-network daemon).
func NewSocket(addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "can't dial %v", addr)
	}

	l := btsec.GetLogger().ChildLogger(map[string]interface{}{"transport": "h4socket", "addr": addr})
	return newH4(&connWithTimeout{c, timeout}, l), nil
}
