package btsec

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/rigado/btsec/sliceops"
)

// Addr is a BR/EDR device address (BD_ADDR) in display order, most
// significant octet first. HCI carries it little endian, see Wire.
type Addr [6]byte

// AddrNone marks "no device". The pairing target holds it while idle.
var AddrNone = Addr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseAddr parses "00:11:22:33:44:55", "00-11-22-33-44-55" or "001122334455".
func ParseAddr(s string) (Addr, error) {
	var a Addr
	hexStr := strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(hexStr) != 12 {
		return a, errors.Errorf("invalid address %q", s)
	}

	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return a, errors.Wrapf(err, "invalid address %q", s)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddr is ParseAddr that panics, for tests and constants.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddrFromWire converts a little endian BD_ADDR from an HCI event.
func AddrFromWire(b [6]byte) Addr {
	var a Addr
	copy(a[:], sliceops.SwapBuf(b[:]))
	return a
}

// Wire returns the little endian form used in HCI commands.
func (a Addr) Wire() [6]byte {
	var w [6]byte
	copy(w[:], sliceops.SwapBuf(a[:]))
	return w
}

func (a Addr) String() string {
	var sb strings.Builder
	for i, b := range a {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(hex.EncodeToString([]byte{b}))
	}
	return sb.String()
}

// Bytes returns a copy in display order.
func (a Addr) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// Key is the compact form used by the bond store ("001122334455").
func (a Addr) Key() string {
	return hex.EncodeToString(a[:])
}

// IsNone reports whether a is AddrNone.
func (a Addr) IsNone() bool {
	return a == AddrNone
}
