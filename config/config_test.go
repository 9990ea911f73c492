package config

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/rigado/btsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log_level: debug
bond_file: /var/lib/btsec/bonds.json
transport:
  uart: /dev/ttyACM0
  baud: 1000000
pairing_timeout: 20s
security_mode: sc
io_cap: NoInputNoOutput
connect_only_paired: true
pin_type: fixed
pin: "0000"
local_name: Kiosk
local_addr: 00:11:22:33:44:55
local_class: 5a020c
`

func writeFile(t *testing.T, s string) string {
	path := filepath.Join(t.TempDir(), "btsec.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(s), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	c, err := Load(writeFile(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/dev/ttyACM0", c.Transport.UART)
	assert.Equal(t, uint(1000000), c.Transport.Baud)
	assert.Equal(t, 20*time.Second, c.PairingTimeout)
	// untouched fields keep their defaults
	assert.Equal(t, 5*time.Second, c.CollisionWindow)
	assert.Equal(t, 100, c.MaxDevices)
	assert.True(t, c.Pairable)
	assert.True(t, c.ConnectOnlyPaired)
	assert.Equal(t, "0000", c.PIN)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("BTSEC_PAIRABLE", "false")
	t.Setenv("BTSEC_IO_CAP", "KeyboardOnly")
	t.Setenv("BTSEC_MAX_DEVICES", "8")
	t.Setenv("BTSEC_SOCKET_TIMEOUT", "1s")

	c, err := Load(writeFile(t, sample))
	require.NoError(t, err)
	assert.False(t, c.Pairable)
	assert.Equal(t, "KeyboardOnly", c.IOCap)
	assert.Equal(t, 8, c.MaxDevices)
	assert.Equal(t, time.Second, c.Transport.SocketTimeout)
	assert.Equal(t, "sc", c.SecurityMode)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "security_mode: [sp"},
		{"security mode", "security_mode: secure"},
		{"io cap", "io_cap: display-yes-no"},
		{"fixed pin missing", "pin_type: fixed"},
		{"pin type", "pin_type: random"},
		{"pin length", `pin: "01234567890123456"`},
		{"class", "local_class: 5a02"},
		{"addr", "local_addr: 00:11:22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// recorder implements btsec.ManagerOption.
type recorder struct {
	maxDevices, maxServices int
	pairingTimeout          time.Duration
	collisionWindow         time.Duration
	ioCap                   btsec.IOCap
	mode                    btsec.SecurityMode
	modeSet                 bool
	scOnly, ssp             bool
	pairable, onlyPaired    bool
	name                    string
	addr                    btsec.Addr
	class                   btsec.DevClass
}

func (r *recorder) SetMaxDevices(n int) error { r.maxDevices = n; return nil }
func (r *recorder) SetMaxServices(n int) error { r.maxServices = n; return nil }
func (r *recorder) SetPairingTimeout(d time.Duration) error { r.pairingTimeout = d; return nil }
func (r *recorder) SetCollisionWindow(d time.Duration) error { r.collisionWindow = d; return nil }
func (r *recorder) SetLocalIOCap(c btsec.IOCap) error { r.ioCap = c; return nil }
func (r *recorder) SetSecureConnectionsOnly(only bool) error { r.scOnly = only; return nil }
func (r *recorder) SetSSPSupported(ok bool) error { r.ssp = ok; return nil }
func (r *recorder) SetLocalName(n string) error { r.name = n; return nil }
func (r *recorder) SetLocalAddr(a btsec.Addr) error { r.addr = a; return nil }
func (r *recorder) SetLocalClass(c btsec.DevClass) error { r.class = c; return nil }
func (r *recorder) SetLogger(btsec.Logger) error { return nil }
func (r *recorder) SetClock(interface{}) error { return nil }
func (r *recorder) EnableBonding(interface{}) error { return nil }
func (r *recorder) SetPairable(allow, onlyPaired bool) error {
	r.pairable, r.onlyPaired = allow, onlyPaired
	return nil
}
func (r *recorder) SetSecurityMode(m btsec.SecurityMode) error {
	r.mode, r.modeSet = m, true
	return nil
}

func TestOptions(t *testing.T) {
	c, err := Load(writeFile(t, sample))
	require.NoError(t, err)
	opts, err := c.Options()
	require.NoError(t, err)

	r := &recorder{}
	for _, opt := range opts {
		require.NoError(t, opt(r))
	}
	assert.Equal(t, 100, r.maxDevices)
	assert.Equal(t, 32, r.maxServices)
	assert.Equal(t, 20*time.Second, r.pairingTimeout)
	assert.Equal(t, btsec.IOCapNoInputNoOutput, r.ioCap)
	assert.Equal(t, btsec.SecModeSC, r.mode)
	assert.True(t, r.ssp)
	assert.True(t, r.pairable)
	assert.True(t, r.onlyPaired)
	assert.Equal(t, "Kiosk", r.name)
	assert.Equal(t, btsec.MustParseAddr("00:11:22:33:44:55"), r.addr)
	assert.Equal(t, btsec.DevClass{0x5a, 0x02, 0x0c}, r.class)
}

func TestOptionsWithoutSSP(t *testing.T) {
	c := Default()
	c.SSPSupported = false

	opts, err := c.Options()
	require.NoError(t, err)
	r := &recorder{}
	for _, opt := range opts {
		require.NoError(t, opt(r))
	}
	// the manager falls back to service level security on reset
	assert.False(t, r.modeSet)

	c.SecurityMode = "link"
	opts, err = c.Options()
	require.NoError(t, err)
	for _, opt := range opts {
		require.NoError(t, opt(r))
	}
	assert.Equal(t, btsec.SecModeLink, r.mode)
}

func TestHCITransport(t *testing.T) {
	c := Default()
	tr := c.HCITransport()
	require.NotNil(t, tr.HCI)
	assert.Equal(t, 0, tr.HCI.ID)

	c.Transport.Socket = "127.0.0.1:9000"
	tr = c.HCITransport()
	require.NotNil(t, tr.H4Socket)
	assert.Equal(t, 5*time.Second, tr.H4Socket.Timeout)

	c.Transport.UART = "/dev/ttyACM0"
	tr = c.HCITransport()
	require.NotNil(t, tr.H4Uart)
	assert.Nil(t, tr.H4Socket)

	c = Default()
	c.Transport.HCI = -1
	tr = c.HCITransport()
	assert.Nil(t, tr.HCI)
	assert.Nil(t, tr.H4Uart)
	assert.Nil(t, tr.H4Socket)
}

type target struct {
	pairable, onlyPaired bool
	pinType              btsec.PinType
	pin                  []byte
	mode                 btsec.SecurityMode
	calls                int
}

func (t *target) Do(_ context.Context, fn func()) error {
	t.calls++
	fn()
	return nil
}

func (t *target) SetPairableMode(allow, onlyPaired bool) {
	t.pairable, t.onlyPaired = allow, onlyPaired
}

func (t *target) SetPinType(pt btsec.PinType, pin []byte) error {
	t.pinType, t.pin = pt, pin
	return nil
}

func (t *target) SetSecurityMode(m btsec.SecurityMode) error {
	t.mode = m
	return nil
}

func TestApply(t *testing.T) {
	c, err := Load(writeFile(t, sample))
	require.NoError(t, err)

	tg := &target{}
	require.NoError(t, c.Apply(context.Background(), tg))
	assert.Equal(t, 1, tg.calls)
	assert.True(t, tg.pairable)
	assert.True(t, tg.onlyPaired)
	assert.Equal(t, btsec.PinFixed, tg.pinType)
	assert.Equal(t, []byte("0000"), tg.pin)
	assert.Equal(t, btsec.SecModeSC, tg.mode)

	c.SecurityMode = "bogus"
	assert.Error(t, c.Apply(context.Background(), tg))
	assert.Equal(t, 1, tg.calls)
}

func TestWatch(t *testing.T) {
	path := writeFile(t, "pairable: true\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { got <- c })
	}()

	// give the watcher time to start
	time.Sleep(100 * time.Millisecond)

	// a broken file is skipped
	require.NoError(t, ioutil.WriteFile(path, []byte("security_mode: [\n"), 0644))
	require.NoError(t, ioutil.WriteFile(path, []byte("pairable: false\n"), 0644))

	// writes may be seen half done, wait for the final content
	timeout := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-got:
			reloaded = !c.Pairable
		case <-timeout:
			t.Fatal("no reload")
		}
	}

	cancel()
	assert.Equal(t, context.Canceled, <-done)
}
