// Package oob builds and parses the Secure Simple Pairing out of band data
// block exchanged over a non Bluetooth channel (NFC, QR code, a file).
//
// The block is a little endian total length, the device address, then
// optional EIR structures [Vol 3, Part C, 5.2.2.7].
package oob

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
)

// EIR data types found in an OOB block.
const (
	TypeShortName    = 0x08
	TypeCompleteName = 0x09
	TypeAddr         = 0x0c
	TypeClass        = 0x0d
	TypeHashC        = 0x0e
	TypeRandR        = 0x0f
)

const (
	// MandatorySize is the length field plus the address.
	MandatorySize = 8
	// MaxLength is the block size the tools build with.
	MaxLength = 0xff

	hashSize  = 16
	classSize = 3
)

var (
	ErrNotFit    = errors.New("field doesn't fit into the block")
	ErrTooShort  = errors.New("oob block shorter than the mandatory part")
	ErrTruncated = errors.New("oob block truncated")
)

// Blob is an OOB data block under construction.
type Blob struct {
	b   []byte
	max int
}

// Field is an optional EIR structure appended to a Blob.
type Field func(b *Blob) error

// Build returns the block for addr with the fields that fit in max bytes.
// A field that doesn't fit is left out and the following ones are still
// tried.
func Build(max int, addr btsec.Addr, fields ...Field) ([]byte, error) {
	if max < MandatorySize {
		return nil, errors.Wrapf(ErrNotFit, "max length %d", max)
	}
	b := &Blob{b: make([]byte, MandatorySize, max), max: max}
	w := addr.Wire()
	copy(b.b[2:], w[:])

	for _, f := range fields {
		if err := f(b); err != nil && err != ErrNotFit {
			return nil, err
		}
	}
	binary.LittleEndian.PutUint16(b.b, uint16(len(b.b)))
	return b.b, nil
}

// Len returns the current length of the block.
func (b *Blob) Len() int {
	return len(b.b)
}

// append appends one EIR structure. It returns ErrNotFit and leaves the
// block intact if the structure doesn't fit.
func (b *Blob) append(typ byte, data []byte) error {
	if b.Len()+2+len(data) > b.max {
		return ErrNotFit
	}
	b.b = append(b.b, byte(len(data)+1), typ)
	b.b = append(b.b, data...)
	return nil
}

// HashC adds the simple pairing hash C, in HCI byte order.
func HashC(c [16]byte) Field {
	return func(b *Blob) error {
		return b.append(TypeHashC, c[:])
	}
}

// RandR adds the simple pairing randomizer R, in HCI byte order.
func RandR(r [16]byte) Field {
	return func(b *Blob) error {
		return b.append(TypeRandR, r[:])
	}
}

// Class adds the class of device.
func Class(c btsec.DevClass) Field {
	return func(b *Blob) error {
		w := c.Wire()
		return b.append(TypeClass, w[:])
	}
}

// Name adds the local name. Names longer than maxLen are shortened; a
// maxLen of 0 leaves the name out.
func Name(name string, maxLen int) Field {
	return func(b *Blob) error {
		if maxLen <= 0 {
			return nil
		}
		if len(name) < maxLen {
			return b.append(TypeCompleteName, []byte(name))
		}
		return b.append(TypeShortName, []byte(name[:maxLen]))
	}
}

// Data is a parsed OOB block.
type Data struct {
	Addr         btsec.Addr
	C, R         [16]byte
	HasC, HasR   bool
	Class        btsec.DevClass
	HasClass     bool
	Name         string
	NameComplete bool
}

type record struct {
	minSz int
	maxSz int
	dec   func(d *Data, b []byte)
}

var decodeMap = map[byte]record{
	TypeHashC: {hashSize, hashSize, func(d *Data, b []byte) {
		copy(d.C[:], b)
		d.HasC = true
	}},
	TypeRandR: {hashSize, hashSize, func(d *Data, b []byte) {
		copy(d.R[:], b)
		d.HasR = true
	}},
	TypeClass: {classSize, classSize, func(d *Data, b []byte) {
		var w [3]byte
		copy(w[:], b)
		d.Class = btsec.DevClassFromWire(w)
		d.HasClass = true
	}},
	TypeShortName: {0, 0, func(d *Data, b []byte) {
		d.Name = string(b)
		d.NameComplete = false
	}},
	TypeCompleteName: {0, 0, func(d *Data, b []byte) {
		d.Name = string(b)
		d.NameComplete = true
	}},
}

// Parse decodes a block. Unknown EIR types are skipped.
func Parse(b []byte) (*Data, error) {
	if len(b) < MandatorySize {
		return nil, ErrTooShort
	}
	total := int(binary.LittleEndian.Uint16(b))
	if total < MandatorySize {
		return nil, errors.Wrapf(ErrTooShort, "length field %d", total)
	}
	if total > len(b) {
		return nil, errors.Wrapf(ErrTruncated, "want %d, have %d", total, len(b))
	}

	d := &Data{}
	var w [6]byte
	copy(w[:], b[2:MandatorySize])
	d.Addr = btsec.AddrFromWire(w)

	eir := b[MandatorySize:total]
	for i := 0; i < len(eir); {
		length := int(eir[i])
		if length == 0 {
			// zero padding ends the significant part
			break
		}
		if i+1+length > len(eir) {
			return d, errors.Wrapf(ErrTruncated, "eir structure at %d: length %d", i, length)
		}
		typ, data := eir[i+1], eir[i+2:i+1+length]

		if rec, ok := decodeMap[typ]; ok {
			if len(data) < rec.minSz || (rec.maxSz > 0 && len(data) > rec.maxSz) {
				return d, errors.Errorf("eir type 0x%02x at %d: bad length %d", typ, i, len(data))
			}
			rec.dec(d, data)
		}
		i += length + 1
	}
	return d, nil
}

// Lookup returns the data of the first EIR structure of type typ, or the
// address for TypeAddr.
func Lookup(b []byte, typ byte) ([]byte, bool) {
	if len(b) < MandatorySize {
		return nil, false
	}
	total := int(binary.LittleEndian.Uint16(b))
	if total < MandatorySize || total > len(b) {
		return nil, false
	}
	if typ == TypeAddr {
		return b[2:MandatorySize], true
	}

	eir := b[MandatorySize:total]
	for i := 0; i+1 < len(eir); {
		length := int(eir[i])
		if length == 0 || i+1+length > len(eir) {
			return nil, false
		}
		if eir[i+1] == typ {
			return eir[i+2 : i+1+length], true
		}
		i += length + 1
	}
	return nil, false
}
