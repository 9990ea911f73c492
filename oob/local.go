package oob

import (
	"crypto"
	"crypto/aes"
	"crypto/elliptic"
	"crypto/rand"
	"io"

	"github.com/aead/cmac"
	"github.com/pkg/errors"
	"github.com/rigado/btsec/sliceops"
	"github.com/wsddn/go-ecdh"
)

// Local is the OOB data of this device: a P-256 key pair, the randomizer
// R and the commitment C = f4(PKx, PKx, R, 0). C and R are in HCI byte
// order, as Read Local OOB Data returns them.
type Local struct {
	C, R [16]byte

	public  crypto.PublicKey
	private crypto.PrivateKey
}

// Generate creates fresh local OOB data. A nil rnd uses crypto/rand.
func Generate(rnd io.Reader) (*Local, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	e := ecdh.NewEllipticECDH(elliptic.P256())

	var err error
	l := &Local{}
	l.private, l.public, err = e.GenerateKey(rnd)
	if err != nil {
		return nil, errors.Wrap(err, "can't generate key pair")
	}
	if _, err := io.ReadFull(rnd, l.R[:]); err != nil {
		return nil, errors.Wrap(err, "can't generate randomizer")
	}

	pkx := l.PublicKeyX()
	c, err := f4(pkx, pkx, l.R[:], 0)
	if err != nil {
		return nil, err
	}
	copy(l.C[:], c)
	return l, nil
}

// PublicKeyX returns the x coordinate of the public key, little endian.
func (l *Local) PublicKeyX() []byte {
	e := ecdh.NewEllipticECDH(elliptic.P256())
	ba := e.Marshal(l.public)
	ba = ba[1:] // uncompressed point header
	return sliceops.SwapBuf(ba[:32])
}

// Check reports whether c is the commitment of the peer public key x
// coordinate pkx (little endian) and the randomizer r.
func Check(pkx []byte, c, r [16]byte) (bool, error) {
	want, err := f4(pkx, pkx, r[:], 0)
	if err != nil {
		return false, err
	}
	return string(want) == string(c[:]), nil
}

// f4 is the SC confirm value function [Vol 3, Part H, 2.2.6]. Inputs and
// output are little endian.
func f4(u, v, x []byte, z uint8) ([]byte, error) {
	if len(u) != 32 || len(v) != 32 || len(x) != 16 {
		return nil, errors.New("f4: length error")
	}

	m := []byte{z}
	m = append(m, v...)
	m = append(m, u...)

	return aesCMAC(x, m)
}

func aesCMAC(key, msg []byte) ([]byte, error) {
	c, err := aes.NewCipher(sliceops.SwapBuf(key))
	if err != nil {
		return nil, err
	}
	mac, err := cmac.New(c)
	if err != nil {
		return nil, err
	}
	mac.Write(sliceops.SwapBuf(msg))
	return sliceops.SwapBuf(mac.Sum(nil)), nil
}
