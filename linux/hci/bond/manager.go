package bond

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rigado/btsec/linux/hci"
)

type manager struct {
	filename string
	lock     sync.RWMutex
}

type bondFile struct {
	Bonds []remoteKeyInfo `json:"bonds"`
}

type remoteKeyInfo struct {
	Address     string `json:"address"`
	LinkKey     string `json:"linkKey"`
	KeyType     uint8  `json:"keyType"`
	PinLength   uint8  `json:"pinLength,omitempty"`
	LongTermKey string `json:"longTermKey,omitempty"`
}

const (
	bondFilename = "bonds.json"
)

// NewBondManager stores bonds in filename. An empty filename uses
// bonds.json under $SNAP_DATA (or the working directory).
func NewBondManager(filename string) hci.BondManager {
	if filename == "" {
		filename = filepath.Join(os.Getenv("SNAP_DATA"), bondFilename)
	}
	return &manager{filename: filename}
}

func validAddr(addr string) error {
	if len(addr) != 12 {
		return errors.Errorf("invalid address: %q", addr)
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return errors.Wrapf(err, "invalid address: %q", addr)
	}
	return nil
}

func (m *manager) Exists(addr string) bool {
	if validAddr(addr) != nil {
		return false
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	bonds, err := m.load()
	if err != nil {
		return false
	}

	_, ok := find(bonds, addr)
	return ok
}

func (m *manager) Find(addr string) (hci.BondInfo, error) {
	if err := validAddr(addr); err != nil {
		return nil, err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	bonds, err := m.load()
	if err != nil {
		return nil, err
	}

	i, ok := find(bonds, addr)
	if !ok {
		return nil, errors.Errorf("bond information not found for %s", addr)
	}
	return decode(bonds.Bonds[i])
}

// Save replaces any bond already stored for addr.
func (m *manager) Save(addr string, bond hci.BondInfo) error {
	if err := validAddr(addr); err != nil {
		return err
	}

	if bond == nil {
		return errors.New("empty bond information")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	bonds, err := m.load()
	if err != nil {
		return err
	}

	rki := encode(bond)
	rki.Address = addr

	if i, ok := find(bonds, addr); ok {
		bonds.Bonds[i] = rki
	} else {
		bonds.Bonds = append(bonds.Bonds, rki)
	}

	return m.store(bonds)
}

func (m *manager) Delete(addr string) error {
	if err := validAddr(addr); err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	bonds, err := m.load()
	if err != nil {
		return err
	}

	i, ok := find(bonds, addr)
	if !ok {
		return nil
	}
	bonds.Bonds = append(bonds.Bonds[:i], bonds.Bonds[i+1:]...)
	return m.store(bonds)
}

// List returns the stored addresses in sorted order.
func (m *manager) List() ([]string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	bonds, err := m.load()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(bonds.Bonds))
	for _, b := range bonds.Bonds {
		out = append(out, b.Address)
	}
	sort.Strings(out)
	return out, nil
}

func find(bonds *bondFile, addr string) (int, bool) {
	for i, b := range bonds.Bonds {
		if b.Address == addr {
			return i, true
		}
	}
	return -1, false
}

func encode(bond hci.BondInfo) remoteKeyInfo {
	lk := bond.LinkKey()
	rki := remoteKeyInfo{
		LinkKey:   hex.EncodeToString(lk[:]),
		KeyType:   bond.KeyType(),
		PinLength: bond.PinLength(),
	}
	if ltk := bond.LongTermKey(); len(ltk) != 0 {
		rki.LongTermKey = hex.EncodeToString(ltk)
	}
	return rki
}

func decode(rki remoteKeyInfo) (hci.BondInfo, error) {
	//todo: a corrupt entry should be dropped from the file
	lk, err := hex.DecodeString(rki.LinkKey)
	if err != nil || len(lk) != 16 {
		return nil, errors.Errorf("invalid link key in bond file for %s", rki.Address)
	}

	var ltk []byte
	if rki.LongTermKey != "" {
		if ltk, err = hex.DecodeString(rki.LongTermKey); err != nil {
			return nil, errors.Wrapf(err, "invalid long term key in bond file for %s", rki.Address)
		}
	}

	var key [16]byte
	copy(key[:], lk)
	return hci.NewBondInfo(key, rki.KeyType, rki.PinLength, ltk), nil
}

func (m *manager) load() (*bondFile, error) {
	var bonds bondFile

	in, err := ioutil.ReadFile(m.filename)
	switch {
	case os.IsNotExist(err):
		return &bonds, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed to read bond file")
	}

	if len(in) > 0 {
		if err = jsoniter.Unmarshal(in, &bonds); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal bond file")
		}
	}

	return &bonds, nil
}

func (m *manager) store(bonds *bondFile) error {
	out, err := jsoniter.MarshalIndent(bonds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal bonds to json")
	}

	return errors.Wrap(ioutil.WriteFile(m.filename, out, 0600), "failed to update bond file")
}
