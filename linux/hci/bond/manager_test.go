package bond

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/rigado/btsec/linux/hci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempManager(t *testing.T) (hci.BondManager, string) {
	dir, err := ioutil.TempDir("", "bonds")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	fn := filepath.Join(dir, "bonds.json")
	return NewBondManager(fn), fn
}

func TestSaveFindDelete(t *testing.T) {
	m, fn := tempManager(t)

	var key [16]byte
	for i := range key {
		key[i] = byte(i)
	}

	assert.False(t, m.Exists("001122334455"))
	_, err := m.Find("001122334455")
	assert.Error(t, err)

	require.NoError(t, m.Save("001122334455", hci.NewBondInfo(key, 0x05, 0, nil)))
	assert.True(t, m.Exists("001122334455"))
	_, err = os.Stat(fn)
	require.NoError(t, err)

	bi, err := m.Find("001122334455")
	require.NoError(t, err)
	assert.Equal(t, key, bi.LinkKey())
	assert.Equal(t, uint8(0x05), bi.KeyType())
	assert.Nil(t, bi.LongTermKey())

	// save replaces rather than appending a duplicate
	ltk := []byte{0xaa, 0xbb}
	require.NoError(t, m.Save("001122334455", hci.NewBondInfo(key, 0x08, 0, ltk)))
	list, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"001122334455"}, list)

	bi, err = m.Find("001122334455")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x08), bi.KeyType())
	assert.Equal(t, ltk, bi.LongTermKey())

	require.NoError(t, m.Delete("001122334455"))
	assert.False(t, m.Exists("001122334455"))
	require.NoError(t, m.Delete("001122334455"), "deleting a missing bond is not an error")
}

func TestInvalidAddress(t *testing.T) {
	m, _ := tempManager(t)

	assert.Error(t, m.Save("0011", hci.NewBondInfo([16]byte{}, 0, 0, nil)))
	assert.Error(t, m.Save("zz1122334455", hci.NewBondInfo([16]byte{}, 0, 0, nil)))
	assert.Error(t, m.Save("001122334455", nil))
	assert.False(t, m.Exists("bad"))
}

func TestCorruptFile(t *testing.T) {
	m, fn := tempManager(t)
	require.NoError(t, ioutil.WriteFile(fn, []byte("{not json"), 0600))

	_, err := m.List()
	assert.Error(t, err)

	require.NoError(t, ioutil.WriteFile(fn, []byte(`{"bonds":[{"address":"001122334455","linkKey":"00"}]}`), 0600))
	_, err = m.Find("001122334455")
	assert.Error(t, err)
}
