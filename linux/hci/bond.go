package hci

type bondInfo struct {
	linkKey     [16]byte
	keyType     uint8
	pinLen      uint8
	longTermKey []byte
}

// BondManager persists BR/EDR link keys, keyed by the compact address
// form ("001122334455").
type BondManager interface {
	Find(addr string) (BondInfo, error)
	Save(string, BondInfo) error
	Exists(addr string) bool
	Delete(addr string) error
	List() ([]string, error)
}

type BondInfo interface {
	LinkKey() [16]byte
	KeyType() uint8
	PinLength() uint8
	// LongTermKey is the LE key derived from the link key, nil if none.
	LongTermKey() []byte
}

func NewBondInfo(linkKey [16]byte, keyType uint8, pinLen uint8, longTermKey []byte) BondInfo {
	return &bondInfo{
		linkKey:     linkKey,
		keyType:     keyType,
		pinLen:      pinLen,
		longTermKey: longTermKey,
	}
}

func (b *bondInfo) LinkKey() [16]byte {
	return b.linkKey
}

func (b *bondInfo) KeyType() uint8 {
	return b.keyType
}

func (b *bondInfo) PinLength() uint8 {
	return b.pinLen
}

func (b *bondInfo) LongTermKey() []byte {
	return b.longTermKey
}
