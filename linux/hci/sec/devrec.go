package sec

import (
	"strings"
	"time"

	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
)

// Flags is the security state of a remote device.
type Flags uint16

const (
	FlagAuthenticated Flags = 1 << iota
	FlagEncrypted
	FlagAuthorized
	FlagNameKnown
	FlagLinkKeyKnown
	FlagLinkKeyAuthed
	FlagRoleSwitched
)

// LE flags share the record and sit above the classic ones.
const (
	leShift = 8

	FlagLEAuthenticated = FlagAuthenticated << leShift
	FlagLEEncrypted     = FlagEncrypted << leShift
	FlagLELinkKeyKnown  = FlagLinkKeyKnown << leShift
	FlagLELinkKeyAuthed = FlagLinkKeyAuthed << leShift

	classicMask Flags = 1<<leShift - 1
)

var flagNames = []string{"authenticated", "encrypted", "authorized", "name-known",
	"link-key-known", "link-key-authed", "role-switched"}

func (f Flags) String() string {
	var parts []string
	for i, n := range flagNames {
		if f&(1<<uint(i)) != 0 {
			parts = append(parts, n)
		}
		if f&(1<<uint(i+leShift)) != 0 {
			parts = append(parts, "le-"+n)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// secState is what the executor is doing on a link.
type secState uint8

const (
	stateIdle secState = iota
	stateGettingName
	stateAuthenticating
	stateEncrypting
	stateAuthorizing
	stateDisconnecting
	stateSwitchingRole
	stateDelayForEnc
)

var secStateNames = [...]string{"idle", "getting-name", "authenticating", "encrypting",
	"authorizing", "disconnecting", "switching-role", "delay-for-enc"}

func (s secState) String() string {
	if int(s) < len(secStateNames) {
		return secStateNames[s]
	}
	return "unknown"
}

// sspSupport is what we know about the peer host's SSP support.
type sspSupport uint8

const (
	sspUnknown sspSupport = iota
	sspLegacy
	sspSupported
)

type sm4Flags uint8

const (
	sm4ReqPend sm4Flags = 1 << iota // access request waits for host features
	sm4Upgrade                      // next IO capability exchange upgrades the key
	sm4Retry                        // one authentication retry used
	sm4ConnPend                     // incoming ACL accepted, features not read yet
)

const (
	trustedWords = 3

	// MaxServiceID is the largest service id a trusted mask can hold.
	MaxServiceID = trustedWords*32 - 1

	noLastService = -1
)

// TrustedMask is a bit per service id the user trusts on a device.
type TrustedMask [trustedWords]uint32

// TrustAll trusts every service.
var TrustAll = TrustedMask{0xffffffff, 0xffffffff, 0xffffffff}

func (t TrustedMask) Trusted(id uint8) bool {
	if int(id) > MaxServiceID {
		return false
	}
	return t[id/32]&(1<<(id%32)) != 0
}

func (t *TrustedMask) Set(id uint8) {
	if int(id) <= MaxServiceID {
		t[id/32] |= 1 << (id % 32)
	}
}

func (t TrustedMask) all() bool {
	return t == TrustAll
}

type deviceRecord struct {
	addr      btsec.Addr
	class     btsec.DevClass
	name      string
	timestamp time.Time

	flags      Flags
	linkKey    btsec.LinkKey
	keyType    btsec.KeyType
	encKeySize uint8
	pinKeyLen  uint8
	ltk        []byte

	handle     uint16
	connecting bool
	role       uint8

	state      secState
	originator bool
	curService *serviceRecord
	required   Requirements
	sink       SecurityCompletionSink

	ssp         sspSupport
	sm4         sm4Flags
	scSupported bool
	rmtIOCap    btsec.IOCap
	rmtAuthReq  btsec.AuthReq

	linkKeyNotSent bool

	trusted    TrustedMask
	lastAuthor int
}

func newDeviceRecord(a btsec.Addr, now time.Time) *deviceRecord {
	return &deviceRecord{
		addr:       a,
		timestamp:  now,
		handle:     hci.InvalidHandle,
		rmtIOCap:   btsec.IOCapMax,
		lastAuthor: noLastService,
	}
}

func (d *deviceRecord) is(f Flags) bool { return d.flags&f == f }

func (d *deviceRecord) connected() bool { return d.handle != hci.InvalidHandle }

func (d *deviceRecord) isSM4() bool { return d.ssp == sspSupported }

func (d *deviceRecord) legacy() bool { return d.ssp == sspLegacy }

// knownLegacy is a legacy peer with no transient SSP flags pending.
func (d *deviceRecord) knownLegacy() bool { return d.ssp == sspLegacy && d.sm4 == 0 }

// owed is the requirement set for the current direction.
func (d *deviceRecord) owed() RequirementSet {
	return d.required.Side(d.originator)
}

// takeSink clears the sink slot and returns what was there.
func (d *deviceRecord) takeSink() SecurityCompletionSink {
	s := d.sink
	d.sink = nil
	return s
}

func (d *deviceRecord) serviceTrusted(s *serviceRecord) bool {
	return s != nil && d.trusted.Trusted(s.serviceID)
}

// deviceStore is a bounded arena of device records with an address index.
type deviceStore struct {
	recs   []*deviceRecord
	max    int
	byAddr map[btsec.Addr]int

	// pinned records are never reclaimed
	pinned func(*deviceRecord) bool
}

func newDeviceStore(max int) *deviceStore {
	return &deviceStore{max: max, byAddr: make(map[btsec.Addr]int)}
}

func (s *deviceStore) find(a btsec.Addr) *deviceRecord {
	if i, ok := s.byAddr[a]; ok {
		return s.recs[i]
	}
	return nil
}

func (s *deviceStore) findByHandle(h uint16) *deviceRecord {
	if h == hci.InvalidHandle {
		return nil
	}
	for _, r := range s.recs {
		if r.handle == h {
			return r
		}
	}
	return nil
}

func (s *deviceStore) findByState(st secState) *deviceRecord {
	for _, r := range s.recs {
		if r.state == st {
			return r
		}
	}
	return nil
}

// alloc adds a record for a, reclaiming the least recently used slot when
// the table is full. It returns nil when no slot can be reclaimed. The
// caller has checked a is not present.
func (s *deviceStore) alloc(a btsec.Addr, now time.Time) *deviceRecord {
	rec := newDeviceRecord(a, now)
	if len(s.recs) < s.max {
		s.byAddr[a] = len(s.recs)
		s.recs = append(s.recs, rec)
		return rec
	}

	i := s.evictionCandidate()
	if i < 0 {
		return nil
	}
	delete(s.byAddr, s.recs[i].addr)
	s.recs[i] = rec
	s.byAddr[a] = i
	return rec
}

// evictionCandidate is the oldest record without a link or a procedure in
// flight, else the oldest record that holds no sink and isn't pinned, else
// -1.
func (s *deviceStore) evictionCandidate() int {
	oldest, oldestIdle := -1, -1
	for i, r := range s.recs {
		if r.sink != nil || (s.pinned != nil && s.pinned(r)) {
			continue
		}
		if oldest < 0 || r.timestamp.Before(s.recs[oldest].timestamp) {
			oldest = i
		}
		idle := !r.connected() && !r.connecting && r.state == stateIdle
		if idle && (oldestIdle < 0 || r.timestamp.Before(s.recs[oldestIdle].timestamp)) {
			oldestIdle = i
		}
	}
	if oldestIdle >= 0 {
		return oldestIdle
	}
	return oldest
}

func (s *deviceStore) all() []*deviceRecord {
	return s.recs
}
