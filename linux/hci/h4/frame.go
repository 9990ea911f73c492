package h4

import (
	"time"

	"github.com/pkg/errors"
)

const (
	eventHeaderLength = 3 // indicator, code, plen
	aclHeaderLength   = 5 // indicator, handle(2), dlen(2)
	frameTimeout      = 500 * time.Millisecond
)

var errShort = errors.New("not enough bytes")

// frame reassembles H4 packets out of an arbitrarily chunked byte stream.
// Bytes before the first known packet indicator are dropped, as is a
// partial packet that does not complete within frameTimeout.
type frame struct {
	b       []byte
	started time.Time
	out     chan []byte
	now     func() time.Time
}

func newFrame(c chan []byte) *frame {
	return &frame{
		b:   make([]byte, 0, 256),
		out: c,
		now: time.Now,
	}
}

func (f *frame) Assemble(b []byte) {
	if len(f.b) != 0 && f.now().Sub(f.started) > frameTimeout {
		f.reset()
	}

	for len(b) > 0 {
		if len(f.b) == 0 {
			i := indexStart(b)
			if i < 0 {
				return
			}
			b = b[i:]
			f.started = f.now()
		}

		f.b = append(f.b, b...)
		b = nil

		for len(f.b) > 0 {
			n, err := f.length()
			if err != nil || len(f.b) < n {
				break
			}

			out := make([]byte, n)
			copy(out, f.b[:n])
			f.out <- out

			rem := f.b[n:]
			f.reset()
			if len(rem) > 0 {
				// restart the search on the leftover bytes
				b = rem
				break
			}
		}
	}
}

func (f *frame) reset() {
	f.b = make([]byte, 0, 256)
	f.started = time.Time{}
}

func indexStart(b []byte) int {
	for i, v := range b {
		if v == eventPacket || v == aclPacket {
			return i
		}
	}
	return -1
}

func (f *frame) length() (int, error) {
	switch f.b[0] {
	case eventPacket:
		if len(f.b) < eventHeaderLength {
			return 0, errShort
		}
		return int(f.b[2]) + eventHeaderLength, nil

	case aclPacket:
		if len(f.b) < aclHeaderLength {
			return 0, errShort
		}
		return (int(f.b[3]) | int(f.b[4])<<8) + aclHeaderLength, nil

	default:
		return 0, errors.Errorf("invalid packet indicator 0x%02x", f.b[0])
	}
}
