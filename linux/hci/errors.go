package hci

import "fmt"

// ErrCommand is an HCI error code [Vol 2, Part D, 2].
type ErrCommand byte

const (
	Success                        ErrCommand = 0x00
	ErrUnknownCommand              ErrCommand = 0x01
	ErrConnID                      ErrCommand = 0x02
	ErrHardware                    ErrCommand = 0x03
	ErrPageTimeout                 ErrCommand = 0x04
	ErrAuth                        ErrCommand = 0x05
	ErrKeyMissing                  ErrCommand = 0x06
	ErrMemoryFull                  ErrCommand = 0x07
	ErrConnTimeout                 ErrCommand = 0x08
	ErrMaxNumConns                 ErrCommand = 0x09
	ErrMaxNumSCOConns              ErrCommand = 0x0A
	ErrConnExists                  ErrCommand = 0x0B
	ErrCommandDisallowed           ErrCommand = 0x0C
	ErrLimitedResource             ErrCommand = 0x0D
	ErrSecurity                    ErrCommand = 0x0E
	ErrBDADDR                      ErrCommand = 0x0F
	ErrConnAcceptTimeout           ErrCommand = 0x10
	ErrUnsupportedParameter        ErrCommand = 0x11
	ErrInvalidParameters           ErrCommand = 0x12
	ErrRemoteUser                  ErrCommand = 0x13
	ErrRemoteLowResources          ErrCommand = 0x14
	ErrRemotePowerOff              ErrCommand = 0x15
	ErrLocalHost                   ErrCommand = 0x16
	ErrRepeatedAttempts            ErrCommand = 0x17
	ErrPairingNotAllowed           ErrCommand = 0x18
	ErrUnknownLMP                  ErrCommand = 0x19
	ErrUnsupportedRemoteFeature    ErrCommand = 0x1A
	ErrUnspecified                 ErrCommand = 0x1F
	ErrLMPResponseTimeout          ErrCommand = 0x22
	ErrLMPTransactionCollision     ErrCommand = 0x23
	ErrEncryptionModeNotAcceptable ErrCommand = 0x25
	ErrUnitKeyUsed                 ErrCommand = 0x26
	ErrPairingUnitKeyNotSupported  ErrCommand = 0x29
	ErrDiffTransactionCollision    ErrCommand = 0x2A
	ErrInsufficientSecurity        ErrCommand = 0x2F
	ErrHostBusyPairing             ErrCommand = 0x38
	ErrConnFailedEstablishment     ErrCommand = 0x3E
)

// Names the security manager uses for the codes above.
const (
	ErrHostRejectSecurity = ErrSecurity
	ErrHostRejectDevice   = ErrBDADDR
	ErrPeerUser           = ErrRemoteUser
)

var errCommandMsg = map[ErrCommand]string{
	Success:                        "success",
	ErrUnknownCommand:              "unknown HCI command",
	ErrConnID:                      "unknown connection identifier",
	ErrHardware:                    "hardware failure",
	ErrPageTimeout:                 "page timeout",
	ErrAuth:                        "authentication failure",
	ErrKeyMissing:                  "PIN or key missing",
	ErrMemoryFull:                  "memory capacity exceeded",
	ErrConnTimeout:                 "connection timeout",
	ErrMaxNumConns:                 "connection limit exceeded",
	ErrMaxNumSCOConns:              "synchronous connection limit exceeded",
	ErrConnExists:                  "connection already exists",
	ErrCommandDisallowed:           "command disallowed",
	ErrLimitedResource:             "connection rejected due to limited resources",
	ErrSecurity:                    "connection rejected due to security reasons",
	ErrBDADDR:                      "connection rejected due to unacceptable BD_ADDR",
	ErrConnAcceptTimeout:           "connection accept timeout exceeded",
	ErrUnsupportedParameter:        "unsupported feature or parameter value",
	ErrInvalidParameters:           "invalid HCI command parameters",
	ErrRemoteUser:                  "remote user terminated connection",
	ErrRemoteLowResources:          "remote device terminated connection due to low resources",
	ErrRemotePowerOff:              "remote device terminated connection due to power off",
	ErrLocalHost:                   "connection terminated by local host",
	ErrRepeatedAttempts:            "repeated attempts",
	ErrPairingNotAllowed:           "pairing not allowed",
	ErrUnknownLMP:                  "unknown LMP PDU",
	ErrUnsupportedRemoteFeature:    "unsupported remote feature",
	ErrUnspecified:                 "unspecified error",
	ErrLMPResponseTimeout:          "LMP response timeout",
	ErrLMPTransactionCollision:     "LMP error transaction collision",
	ErrEncryptionModeNotAcceptable: "encryption mode not acceptable",
	ErrUnitKeyUsed:                 "link key cannot be changed",
	ErrPairingUnitKeyNotSupported:  "pairing with unit key not supported",
	ErrDiffTransactionCollision:    "different transaction collision",
	ErrInsufficientSecurity:        "insufficient security",
	ErrHostBusyPairing:             "host busy - pairing",
	ErrConnFailedEstablishment:     "connection failed to be established",
}

func (e ErrCommand) Error() string {
	if m, ok := errCommandMsg[e]; ok {
		return m
	}
	return fmt.Sprintf("hci error 0x%02X", byte(e))
}

// Collision reports the two transaction collision codes.
func (e ErrCommand) Collision() bool {
	return e == ErrLMPTransactionCollision || e == ErrDiffTransactionCollision
}
