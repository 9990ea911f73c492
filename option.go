package btsec

import (
	"time"
)

// ManagerOption is implemented by the security manager to allow using
// configuration options.
type ManagerOption interface {
	SetMaxDevices(int) error
	SetMaxServices(int) error
	SetPairingTimeout(time.Duration) error
	SetCollisionWindow(time.Duration) error
	SetLocalIOCap(IOCap) error
	SetSecurityMode(SecurityMode) error
	SetSecureConnectionsOnly(bool) error
	SetSSPSupported(bool) error
	SetPairable(allow, connectOnlyPaired bool) error
	SetLocalName(string) error
	SetLocalAddr(Addr) error
	SetLocalClass(DevClass) error
	SetLogger(Logger) error
	SetClock(interface{}) error
	EnableBonding(interface{}) error
}

// An Option is a configuration function, which configures the manager.
type Option func(ManagerOption) error

// OptMaxDevices sets the size of the device record table.
func OptMaxDevices(n int) Option {
	return func(opt ManagerOption) error {
		return opt.SetMaxDevices(n)
	}
}

// OptMaxServices sets the size of the service record table.
func OptMaxServices(n int) Option {
	return func(opt ManagerOption) error {
		return opt.SetMaxServices(n)
	}
}

// OptPairingTimeout overrides the pairing state expiry.
func OptPairingTimeout(d time.Duration) Option {
	return func(opt ManagerOption) error {
		return opt.SetPairingTimeout(d)
	}
}

// OptCollisionWindow sets how long after the first collision retries are attempted.
func OptCollisionWindow(d time.Duration) Option {
	return func(opt ManagerOption) error {
		return opt.SetCollisionWindow(d)
	}
}

// OptLocalIOCap sets the IO capability offered during SSP.
func OptLocalIOCap(c IOCap) Option {
	return func(opt ManagerOption) error {
		return opt.SetLocalIOCap(c)
	}
}

// OptSecurityMode sets the initial security mode.
func OptSecurityMode(m SecurityMode) Option {
	return func(opt ManagerOption) error {
		return opt.SetSecurityMode(m)
	}
}

// OptSecureConnectionsOnly rejects links that did not pair with P-256.
func OptSecureConnectionsOnly(only bool) Option {
	return func(opt ManagerOption) error {
		return opt.SetSecureConnectionsOnly(only)
	}
}

// OptSSPSupported tells the manager whether the controller supports SSP.
func OptSSPSupported(ok bool) Option {
	return func(opt ManagerOption) error {
		return opt.SetSSPSupported(ok)
	}
}

// OptPairable sets pairable and connect-only-paired modes.
func OptPairable(allow, connectOnlyPaired bool) Option {
	return func(opt ManagerOption) error {
		return opt.SetPairable(allow, connectOnlyPaired)
	}
}

// OptLocalName sets the local device name used in OOB data.
func OptLocalName(name string) Option {
	return func(opt ManagerOption) error {
		return opt.SetLocalName(name)
	}
}

// OptLocalAddr sets the local device address used in OOB data.
func OptLocalAddr(a Addr) Option {
	return func(opt ManagerOption) error {
		return opt.SetLocalAddr(a)
	}
}

// OptLocalClass sets the local class of device used in OOB data.
func OptLocalClass(c DevClass) Option {
	return func(opt ManagerOption) error {
		return opt.SetLocalClass(c)
	}
}

// OptLogger replaces the package logger for one manager.
func OptLogger(l Logger) Option {
	return func(opt ManagerOption) error {
		return opt.SetLogger(l)
	}
}

// OptClock replaces the wall clock, tests use a manual one.
func OptClock(c interface{}) Option {
	return func(opt ManagerOption) error {
		return opt.SetClock(c)
	}
}

// OptEnableBonding persists link keys with the given bond manager.
func OptEnableBonding(bondManager interface{}) Option {
	return func(opt ManagerOption) error {
		return opt.EnableBonding(bondManager)
	}
}
