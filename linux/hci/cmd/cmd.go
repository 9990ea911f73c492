package cmd

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

func marshal(c interface{}, b []byte) error {
	buf := bytes.NewBuffer(b[:0])
	if err := binary.Write(buf, binary.LittleEndian, c); err != nil {
		return errors.Wrap(err, "can't marshal command")
	}
	if buf.Len() > len(b) {
		return errors.Errorf("buffer too small for command: %d < %d", len(b), buf.Len())
	}
	return nil
}

func unmarshal(c interface{}, b []byte) error {
	return errors.Wrap(binary.Read(bytes.NewReader(b), binary.LittleEndian, c), "can't unmarshal return parameters")
}

// ReadBDADDRRP returns the return parameter of Read BD_ADDR
type ReadBDADDRRP struct {
	Status uint8
	BDADDR [6]byte
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *ReadBDADDRRP) Unmarshal(b []byte) error {
	return unmarshal(c, b)
}

// ReadLocalOOBDataRP returns the return parameter of Read Local OOB Data
type ReadLocalOOBDataRP struct {
	Status uint8
	C      [16]byte
	R      [16]byte
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *ReadLocalOOBDataRP) Unmarshal(b []byte) error {
	return unmarshal(c, b)
}

// ReadLocalOOBExtendedDataRP returns the return parameter of Read Local OOB Extended Data
type ReadLocalOOBExtendedDataRP struct {
	Status uint8
	C192   [16]byte
	R192   [16]byte
	C256   [16]byte
	R256   [16]byte
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *ReadLocalOOBExtendedDataRP) Unmarshal(b []byte) error {
	return unmarshal(c, b)
}
