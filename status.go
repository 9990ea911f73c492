package btsec

import "fmt"

// Status is the result reported by security operations, both as the
// synchronous return value and through completion sinks.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusCmdStarted
	StatusBusy
	StatusNoResources
	StatusModeUnsupported
	StatusIllegalValue
	StatusWrongMode
	StatusUnknownAddr
	StatusDeviceTimeout
	StatusFailedOnSecurity
	StatusRepeatedAttempts
	StatusSuccessNoSecurity
	StatusIllegalAction
	StatusDelayCheck
	StatusNotAuthorized
	StatusErrProcessing
	StatusErrKeyMissing
	StatusFailedEstablish
	StatusHostDisconn
	StatusPeerDisconn
	StatusLMPTimeout
)

var statusNames = map[Status]string{
	StatusSuccess:           "success",
	StatusCmdStarted:        "command started",
	StatusBusy:              "busy",
	StatusNoResources:       "no resources",
	StatusModeUnsupported:   "mode unsupported",
	StatusIllegalValue:      "illegal value",
	StatusWrongMode:         "wrong mode",
	StatusUnknownAddr:       "unknown address",
	StatusDeviceTimeout:     "device timeout",
	StatusFailedOnSecurity:  "failed on security",
	StatusRepeatedAttempts:  "repeated attempts",
	StatusSuccessNoSecurity: "success, no security",
	StatusIllegalAction:     "illegal action",
	StatusDelayCheck:        "delay check",
	StatusNotAuthorized:     "not authorized",
	StatusErrProcessing:     "processing error",
	StatusErrKeyMissing:     "link key missing",
	StatusFailedEstablish:   "connection failed to establish",
	StatusHostDisconn:       "disconnected by local host",
	StatusPeerDisconn:       "disconnected by peer",
	StatusLMPTimeout:        "lmp response timeout",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) Error() string {
	return "btsec: " + s.String()
}

// Failed reports whether s is a terminal failure. Success, success
// without security and command started are not failures, nor is delay
// check, which a sink sees before the final result of the same request.
func (s Status) Failed() bool {
	switch s {
	case StatusSuccess, StatusSuccessNoSecurity, StatusCmdStarted, StatusDelayCheck:
		return false
	}
	return true
}

// Err returns nil for non-failures and s otherwise.
func (s Status) Err() error {
	if !s.Failed() {
		return nil
	}
	return s
}
