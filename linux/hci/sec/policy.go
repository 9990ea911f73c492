package sec

import "github.com/rigado/btsec"

// Verdict is the outcome of an access policy evaluation.
type Verdict uint8

const (
	Granted Verdict = iota
	NeedsProcedure
	Denied
)

func (v Verdict) String() string {
	switch v {
	case Granted:
		return "granted"
	case NeedsProcedure:
		return "needs-procedure"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// Procedure is the first security procedure a request is waiting for.
type Procedure uint8

const (
	ProcNone Procedure = iota
	ProcAuthenticate
	ProcEncrypt
	ProcAuthorize
)

func (p Procedure) String() string {
	switch p {
	case ProcNone:
		return "none"
	case ProcAuthenticate:
		return "authenticate"
	case ProcEncrypt:
		return "encrypt"
	case ProcAuthorize:
		return "authorize"
	}
	return "unknown"
}

// Decision is Granted, Denied, or NeedsProcedure with the procedure.
type Decision struct {
	Verdict   Verdict
	Procedure Procedure
}

// PolicyInput is the link state an access request is judged against.
type PolicyInput struct {
	Req        RequirementSet // requirements of the request's direction
	Originator bool
	Mux        bool // request arrived through a protocol multiplexer
	Flags      Flags
	Trusted    bool // the service is in the device's trusted mask
	KeyType    btsec.KeyType
	SPMode     bool // local security mode is SSP
	PeerLegacy bool // peer known not to support SSP
}

const (
	reqA = 1 << iota
	reqE
	reqZ
)

func (r RequirementSet) bits() int {
	b := 0
	if r.Authenticate {
		b |= reqA
	}
	if r.Encrypt {
		b |= reqE
	}
	if r.Authorize {
		b |= reqZ
	}
	return b
}

// Evaluate decides whether an access request can be answered from the
// current link state while another procedure owns the device. Outside of
// SSP, with legacy peers, and with SSP peers whose key cannot be upgraded,
// the legacy table grants requests that need nothing new. Everything else
// has to wait for a procedure.
func Evaluate(in PolicyInput, sm4, upgradePossible bool) Decision {
	auth := in.Flags&FlagAuthenticated != 0
	if in.Req.SecureConn && auth && in.KeyType != btsec.KeyAuthCombP256 {
		return Decision{Verdict: Denied}
	}

	legacyTable := !in.SPMode || in.PeerLegacy || (sm4 && !upgradePossible)
	if legacyTable && legacyGranted(in) {
		return Decision{Verdict: Granted}
	}
	return Decision{Verdict: NeedsProcedure, Procedure: firstMissing(in, sm4)}
}

func legacyGranted(in PolicyInput) bool {
	auth := in.Flags&FlagAuthenticated != 0
	enc := in.Flags&FlagEncrypted != 0
	az := in.Flags&FlagAuthorized != 0
	azOrTrusted := az || in.Trusted

	b := in.Req.bits()
	if in.Originator {
		switch b {
		case 0:
			return true
		case reqA:
			return auth
		case reqA | reqE:
			return enc
		case reqA | reqE | reqZ:
			// multiplexers re-authorize each channel
			return !in.Mux && az && enc
		}
		return false
	}

	switch b {
	case 0:
		return true
	case reqA:
		return auth
	case reqA | reqE:
		return enc
	case reqZ:
		return azOrTrusted
	case reqA | reqZ:
		return azOrTrusted && auth
	case reqE | reqZ:
		return azOrTrusted && enc
	case reqA | reqE | reqZ:
		return !in.Mux && azOrTrusted && enc
	}
	return false
}

// firstMissing follows the executor's order: authenticate, encrypt,
// authorize. SSP peers always owe authentication and encryption.
func firstMissing(in PolicyInput, sm4 bool) Procedure {
	req := in.Req
	if in.SPMode && sm4 {
		req.Authenticate, req.Encrypt = true, true
	}
	switch {
	case req.Authenticate && in.Flags&FlagAuthenticated == 0:
		return ProcAuthenticate
	case req.Encrypt && in.Flags&FlagEncrypted == 0:
		return ProcEncrypt
	case req.Authorize && in.Flags&FlagAuthorized == 0 && !(in.Trusted && !in.Originator):
		return ProcAuthorize
	}
	// nothing is missing: the key is being upgraded or the peer's SSP
	// support is unknown, both resolve through authentication
	return ProcAuthenticate
}
