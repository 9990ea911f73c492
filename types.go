package btsec

import "fmt"

// Transport selects the physical bearer a security operation applies to.
type Transport uint8

const (
	TransportBREDR Transport = iota
	TransportLE
)

func (t Transport) String() string {
	if t == TransportLE {
		return "le"
	}
	return "br/edr"
}

// IOCap is the SSP IO capability of one side of a pairing.
type IOCap uint8

const (
	IOCapDisplayOnly IOCap = iota
	IOCapDisplayYesNo
	IOCapKeyboardOnly
	IOCapNoInputNoOutput
	IOCapMax
)

var ioCapNames = [...]string{"DisplayOnly", "DisplayYesNo", "KeyboardOnly", "NoInputNoOutput"}

func (c IOCap) String() string {
	if c < IOCapMax {
		return ioCapNames[c]
	}
	return fmt.Sprintf("iocap(%d)", uint8(c))
}

// ParseIOCap accepts the names printed by IOCap.String, case sensitive.
func ParseIOCap(s string) (IOCap, error) {
	for i, n := range ioCapNames {
		if n == s {
			return IOCap(i), nil
		}
	}
	return IOCapMax, fmt.Errorf("unknown io capability %q", s)
}

// AuthReq is the SSP authentication requirements octet.
type AuthReq uint8

const (
	AuthSPNo    AuthReq = 0x00 // no bonding, no MITM
	AuthSPYes   AuthReq = 0x01 // no bonding, MITM
	AuthAPNo    AuthReq = 0x02 // dedicated bonding, no MITM
	AuthAPYes   AuthReq = 0x03 // dedicated bonding, MITM
	AuthSPGBNo  AuthReq = 0x04 // general bonding, no MITM
	AuthSPGBYes AuthReq = 0x05 // general bonding, MITM

	AuthYNBit  AuthReq = 0x01
	AuthDDBond AuthReq = 0x02
	AuthGBBit  AuthReq = 0x04

	AuthDefault   = AuthSPGBNo
	AuthDefaultDD = AuthAPNo
)

// MITM reports whether the MITM bit is set.
func (a AuthReq) MITM() bool {
	return a&AuthYNBit != 0
}

// OOBPresent is the "OOB data present" field of IO capability exchange.
type OOBPresent uint8

const (
	OOBNone        OOBPresent = 0x00
	OOBPresentP192 OOBPresent = 0x01
	OOBUnknown     OOBPresent = 0xff
)

// KeyType is the type tag of a BR/EDR link key.
type KeyType uint8

const (
	KeyCombination    KeyType = 0x00
	KeyLocalUnit      KeyType = 0x01
	KeyRemoteUnit     KeyType = 0x02
	KeyDebugComb      KeyType = 0x03
	KeyUnauthComb     KeyType = 0x04
	KeyAuthComb       KeyType = 0x05
	KeyChangedComb    KeyType = 0x06
	KeyUnauthCombP256 KeyType = 0x07
	KeyAuthCombP256   KeyType = 0x08
)

var keyTypeNames = map[KeyType]string{
	KeyCombination:    "combination",
	KeyLocalUnit:      "local-unit",
	KeyRemoteUnit:     "remote-unit",
	KeyDebugComb:      "debug-combination",
	KeyUnauthComb:     "unauthenticated-combination",
	KeyAuthComb:       "authenticated-combination",
	KeyChangedComb:    "changed-combination",
	KeyUnauthCombP256: "unauthenticated-combination-p256",
	KeyAuthCombP256:   "authenticated-combination-p256",
}

func (k KeyType) String() string {
	if n, ok := keyTypeNames[k]; ok {
		return n
	}
	return fmt.Sprintf("keytype(%d)", uint8(k))
}

// Legacy reports whether the key came from legacy (PIN) pairing.
func (k KeyType) Legacy() bool {
	return k <= KeyRemoteUnit
}

// P256 reports whether the key came from Secure Connections pairing.
func (k KeyType) P256() bool {
	return k == KeyUnauthCombP256 || k == KeyAuthCombP256
}

// LinkKey is a 128 bit BR/EDR link key.
type LinkKey [16]byte

// DevClass is a class of device in display order: [0] service class high
// bits, [1] major class (low 5 bits), [2] minor class.
type DevClass [3]byte

const (
	CodMajorMask       = 0x1f
	CodMajorAudio      = 0x04
	CodMajorPeripheral = 0x05

	CodMinorKeyboard  = 0x40
	CodMinorHandsfree = 0x08
	CodMinorCarAudio  = 0x20
)

// DevClassFromWire converts the little endian HCI class of device field.
func DevClassFromWire(b [3]byte) DevClass {
	return DevClass{b[2], b[1], b[0]}
}

// Wire returns the little endian HCI form.
func (d DevClass) Wire() [3]byte {
	return [3]byte{d[2], d[1], d[0]}
}

func (d DevClass) Major() byte { return d[1] & CodMajorMask }
func (d DevClass) Minor() byte { return d[2] }

// Peripheral reports whether the major class is peripheral (HID).
func (d DevClass) Peripheral() bool { return d.Major() == CodMajorPeripheral }

// Keyboard reports a peripheral carrying the keyboard minor bit.
func (d DevClass) Keyboard() bool {
	return d.Peripheral() && d[2]&CodMinorKeyboard != 0
}

// HeadUnit reports hands-free and car audio devices, which cannot take
// a PIN before the link exists.
func (d DevClass) HeadUnit() bool {
	return d.Major() == CodMajorAudio && (d[2] == CodMinorHandsfree || d[2] == CodMinorCarAudio)
}

func (d DevClass) String() string {
	return fmt.Sprintf("%02x%02x%02x", d[0], d[1], d[2])
}

// SecurityMode is the host wide security mode.
type SecurityMode uint8

const (
	SecModeNone SecurityMode = iota
	SecModeService
	SecModeLink
	SecModeSP
	SecModeSPDebug
	SecModeSC
)

var secModeNames = [...]string{"none", "service", "link", "sp", "sp-debug", "sc"}

func (m SecurityMode) String() string {
	if int(m) < len(secModeNames) {
		return secModeNames[m]
	}
	return fmt.Sprintf("secmode(%d)", uint8(m))
}

// ParseSecurityMode accepts the names printed by SecurityMode.String.
func ParseSecurityMode(s string) (SecurityMode, error) {
	for i, n := range secModeNames {
		if n == s {
			return SecurityMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown security mode %q", s)
}

// PinType is the HCI PIN type.
type PinType uint8

const (
	PinVariable PinType = 0x00
	PinFixed    PinType = 0x01
)

// PinCodeLen is the longest legacy PIN.
const PinCodeLen = 16

// MaxPasskey is the largest six digit passkey.
const MaxPasskey = 999999

// Keypress is the SSP keypress notification type.
type Keypress uint8

const (
	KeypressEntryStarted Keypress = iota
	KeypressDigitEntered
	KeypressDigitErased
	KeypressCleared
	KeypressEntryCompleted
)
