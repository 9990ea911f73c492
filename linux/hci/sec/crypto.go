package sec

import (
	"crypto/aes"

	"github.com/aead/cmac"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/sliceops"
)

var (
	keyIDTmp2 = []byte("tmp2")
	keyIDBrle = []byte("brle")
)

// aesCMAC takes and returns most significant octet first values.
func aesCMAC(key, msg []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	mac, err := cmac.New(c)
	if err != nil {
		return nil, err
	}
	mac.Write(msg)
	return mac.Sum(nil), nil
}

// h6 is the link key conversion function [Vol 3, Part H, 2.2.10].
func h6(w, keyID []byte) ([]byte, error) {
	return aesCMAC(w, keyID)
}

// deriveLTK converts a P-256 BR/EDR link key into an LE long term key.
// Both keys are in HCI (little endian) order.
func deriveLTK(lk btsec.LinkKey) ([]byte, error) {
	iltk, err := h6(sliceops.SwapBuf(lk[:]), keyIDTmp2)
	if err != nil {
		return nil, err
	}
	ltk, err := h6(iltk, keyIDBrle)
	if err != nil {
		return nil, err
	}
	return sliceops.SwapBuf(ltk), nil
}
