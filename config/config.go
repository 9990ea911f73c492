// Package config loads the settings of a security manager from a YAML file
// and the environment, and keeps a running manager in sync with the file.
package config

import (
	"context"
	"encoding/hex"
	"io/ioutil"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"gopkg.in/yaml.v3"
)

// Transport selects how the controller is reached: a UART, an H4 socket,
// or else a Linux HCI device.
type Transport struct {
	// HCI is the index of a Linux HCI device, -1 for none.
	HCI           int           `yaml:"hci" env:"BTSEC_HCI"`
	UART          string        `yaml:"uart" env:"BTSEC_UART"`
	Baud          uint          `yaml:"baud" env:"BTSEC_BAUD"`
	Socket        string        `yaml:"socket" env:"BTSEC_SOCKET"`
	SocketTimeout time.Duration `yaml:"socket_timeout" env:"BTSEC_SOCKET_TIMEOUT"`
}

// Config is the settings file.
type Config struct {
	LogLevel  string    `yaml:"log_level" env:"BTSEC_LOG_LEVEL"`
	BondFile  string    `yaml:"bond_file" env:"BTSEC_BOND_FILE"`
	Transport Transport `yaml:"transport"`

	MaxDevices      int           `yaml:"max_devices" env:"BTSEC_MAX_DEVICES"`
	MaxServices     int           `yaml:"max_services" env:"BTSEC_MAX_SERVICES"`
	PairingTimeout  time.Duration `yaml:"pairing_timeout" env:"BTSEC_PAIRING_TIMEOUT"`
	CollisionWindow time.Duration `yaml:"collision_window" env:"BTSEC_COLLISION_WINDOW"`

	SecurityMode      string `yaml:"security_mode" env:"BTSEC_SECURITY_MODE"`
	IOCap             string `yaml:"io_cap" env:"BTSEC_IO_CAP"`
	SSPSupported      bool   `yaml:"ssp_supported" env:"BTSEC_SSP_SUPPORTED"`
	SCOnly            bool   `yaml:"sc_only" env:"BTSEC_SC_ONLY"`
	Pairable          bool   `yaml:"pairable" env:"BTSEC_PAIRABLE"`
	ConnectOnlyPaired bool   `yaml:"connect_only_paired" env:"BTSEC_CONNECT_ONLY_PAIRED"`
	PinType           string `yaml:"pin_type" env:"BTSEC_PIN_TYPE"`
	PIN               string `yaml:"pin" env:"BTSEC_PIN"`

	LocalName  string `yaml:"local_name" env:"BTSEC_LOCAL_NAME"`
	LocalAddr  string `yaml:"local_addr" env:"BTSEC_LOCAL_ADDR"`
	LocalClass string `yaml:"local_class" env:"BTSEC_LOCAL_CLASS"`
}

// Default returns the settings used for anything the file and the
// environment leave out.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		BondFile:        "bonds.json",
		Transport:       Transport{HCI: 0, SocketTimeout: 5 * time.Second},
		MaxDevices:      100,
		MaxServices:     32,
		PairingTimeout:  35 * time.Second,
		CollisionWindow: 5 * time.Second,
		SecurityMode:    "sp",
		IOCap:           "DisplayYesNo",
		SSPSupported:    true,
		Pairable:        true,
		PinType:         "variable",
	}
}

// Load reads path over the defaults, then applies the environment. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "can't read config")
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, errors.Wrapf(err, "can't parse %s", path)
		}
	}
	if err := envdecode.Decode(c); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, errors.Wrap(err, "can't read environment")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the fields that are parsed later on.
func (c *Config) Validate() error {
	if _, err := btsec.ParseSecurityMode(c.SecurityMode); err != nil {
		return errors.Wrap(err, "security_mode")
	}
	if _, err := btsec.ParseIOCap(c.IOCap); err != nil {
		return errors.Wrap(err, "io_cap")
	}
	if _, err := c.pinType(); err != nil {
		return err
	}
	if _, err := c.localClass(); err != nil {
		return err
	}
	if c.LocalAddr != "" {
		if _, err := btsec.ParseAddr(c.LocalAddr); err != nil {
			return errors.Wrap(err, "local_addr")
		}
	}
	if len(c.PIN) > btsec.PinCodeLen {
		return errors.Errorf("pin longer than %d", btsec.PinCodeLen)
	}
	return nil
}

func (c *Config) pinType() (btsec.PinType, error) {
	switch c.PinType {
	case "", "variable":
		return btsec.PinVariable, nil
	case "fixed":
		if c.PIN == "" {
			return 0, errors.New("fixed pin_type needs a pin")
		}
		return btsec.PinFixed, nil
	}
	return 0, errors.Errorf("invalid pin_type %q", c.PinType)
}

// localClass parses the class of device, written as six hex digits in
// display order.
func (c *Config) localClass() (btsec.DevClass, error) {
	var d btsec.DevClass
	if c.LocalClass == "" {
		return d, nil
	}
	b, err := hex.DecodeString(c.LocalClass)
	if err != nil || len(b) != len(d) {
		return d, errors.Errorf("invalid local_class %q", c.LocalClass)
	}
	copy(d[:], b)
	return d, nil
}

// Options returns the manager options for c. c must be valid.
func (c *Config) Options() ([]btsec.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, _ := btsec.ParseSecurityMode(c.SecurityMode)
	io, _ := btsec.ParseIOCap(c.IOCap)

	opts := []btsec.Option{
		btsec.OptMaxDevices(c.MaxDevices),
		btsec.OptMaxServices(c.MaxServices),
		btsec.OptPairingTimeout(c.PairingTimeout),
		btsec.OptCollisionWindow(c.CollisionWindow),
		btsec.OptSSPSupported(c.SSPSupported),
		btsec.OptLocalIOCap(io),
		btsec.OptSecureConnectionsOnly(c.SCOnly),
		btsec.OptPairable(c.Pairable, c.ConnectOnlyPaired),
	}
	// the mode is checked against SSP support, which has to come first
	if c.SSPSupported || (mode != btsec.SecModeSP && mode != btsec.SecModeSPDebug && mode != btsec.SecModeSC) {
		opts = append(opts, btsec.OptSecurityMode(mode))
	}
	if c.LocalName != "" {
		opts = append(opts, btsec.OptLocalName(c.LocalName))
	}
	if c.LocalAddr != "" {
		a, _ := btsec.ParseAddr(c.LocalAddr)
		opts = append(opts, btsec.OptLocalAddr(a))
	}
	if c.LocalClass != "" {
		d, _ := c.localClass()
		opts = append(opts, btsec.OptLocalClass(d))
	}
	return opts, nil
}

// HCITransport returns the transport selection for hci.OpenTransport.
func (c *Config) HCITransport() hci.Transport {
	t := c.Transport
	switch {
	case t.UART != "":
		return hci.Transport{H4Uart: &hci.TransportH4Uart{Path: t.UART, BaudRate: t.Baud}}
	case t.Socket != "":
		return hci.Transport{H4Socket: &hci.TransportH4Socket{Addr: t.Socket, Timeout: t.SocketTimeout}}
	case t.HCI >= 0:
		return hci.Transport{HCI: &hci.TransportHCI{ID: t.HCI}}
	}
	return hci.Transport{}
}

// Target is a running manager the pairing policy can be pushed to.
type Target interface {
	Do(ctx context.Context, fn func()) error
	SetPairableMode(allow, connectOnlyPaired bool)
	SetPinType(t btsec.PinType, pin []byte) error
	SetSecurityMode(mode btsec.SecurityMode) error
}

// Apply pushes the pairing policy of c to t on t's goroutine.
func (c *Config) Apply(ctx context.Context, t Target) error {
	if err := c.Validate(); err != nil {
		return err
	}
	mode, _ := btsec.ParseSecurityMode(c.SecurityMode)
	pt, _ := c.pinType()

	var err error
	if derr := t.Do(ctx, func() {
		t.SetPairableMode(c.Pairable, c.ConnectOnlyPaired)
		if err = t.SetPinType(pt, []byte(c.PIN)); err != nil {
			return
		}
		err = t.SetSecurityMode(mode)
	}); derr != nil {
		return derr
	}
	return err
}
