package sec

import (
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
)

// SecurityCompletionSink receives the result of one access or encryption
// request. It is called exactly once per request, except that a
// StatusDelayCheck notice may precede the final result.
type SecurityCompletionSink interface {
	Complete(addr btsec.Addr, transport btsec.Transport, status btsec.Status)
}

// SinkFunc adapts a function to SecurityCompletionSink.
type SinkFunc func(addr btsec.Addr, transport btsec.Transport, status btsec.Status)

func (f SinkFunc) Complete(addr btsec.Addr, transport btsec.Transport, status btsec.Status) {
	f(addr, transport, status)
}

// SPEventKind tags an SPEvent.
type SPEventKind uint8

const (
	SPIORequest SPEventKind = iota
	SPIOResponse
	SPConfirmRequest
	SPKeyNotification
	SPKeyRequest
	SPKeypress
	SPComplete
	SPLocalOOB
	SPRemoteOOBRequest
	SPUpgrade
)

var spEventNames = [...]string{"io-request", "io-response", "confirm-request",
	"key-notification", "key-request", "keypress", "complete", "local-oob",
	"remote-oob-request", "upgrade"}

func (k SPEventKind) String() string {
	if int(k) < len(spEventNames) {
		return spEventNames[k]
	}
	return "unknown"
}

// SPEvent is a Secure Simple Pairing notification. Only the fields of its
// Kind are set. For SPIORequest and SPUpgrade the handler may change the
// proposed values in place.
type SPEvent struct {
	Kind  SPEventKind
	Addr  btsec.Addr
	Class btsec.DevClass
	Name  string

	// SPIORequest: local proposal. SPIOResponse: the peer's values.
	IOCap        btsec.IOCap
	OOB          btsec.OOBPresent
	AuthReq      btsec.AuthReq
	IsOriginator bool

	// SPConfirmRequest
	NumericValue  uint32
	JustWorks     bool
	LocalIOCap    btsec.IOCap
	RemoteIOCap   btsec.IOCap
	LocalAuthReq  btsec.AuthReq
	RemoteAuthReq btsec.AuthReq

	// SPKeyNotification
	Passkey uint32

	// SPKeypress
	Keypress btsec.Keypress

	// SPComplete and SPLocalOOB
	Status hci.ErrCommand

	// SPLocalOOB
	C, R [16]byte

	// SPUpgrade: set to false to keep the current key.
	Upgrade bool
}

// Callbacks is the application side of pairing. Every field is optional.
type Callbacks struct {
	// PIN asks for a legacy PIN; answer with Manager.PINCodeReply.
	PIN func(addr btsec.Addr, class btsec.DevClass, name string, min16 bool)

	// LinkKeyRequest may supply a key the application stored itself.
	LinkKeyRequest func(addr btsec.Addr) (btsec.LinkKey, bool)

	// LinkKey is told about every new link key.
	LinkKey func(addr btsec.Addr, class btsec.DevClass, name string, key btsec.LinkKey, keyType btsec.KeyType)

	// AuthComplete reports the end of an authentication with the
	// controller's status, hci.Success on success.
	AuthComplete func(addr btsec.Addr, class btsec.DevClass, name string, status hci.ErrCommand)

	BondCancelComplete func(status btsec.Status)

	// Authorize asks the user whether a peer may use a service. Returning
	// StatusCmdStarted defers the answer to Manager.DeviceAuthorized.
	Authorize func(addr btsec.Addr, class btsec.DevClass, name, service string, serviceID uint8, originator bool) btsec.Status

	// SP receives Secure Simple Pairing events. For confirm and key
	// requests, StatusNotAuthorized rejects at once and any other value
	// means the reply follows through ConfirmReqReply or PasskeyReqReply.
	SP func(e *SPEvent) btsec.Status

	// Abort tells the application that an access request was dropped.
	Abort func(addr btsec.Addr, class btsec.DevClass, name string)
}

// RemoteNameFunc is told about every remote name resolution.
type RemoteNameFunc func(addr btsec.Addr, class btsec.DevClass, name string)
