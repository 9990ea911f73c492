package sec

// Well known services.
const (
	PSMSDP    uint16 = 0x0001
	PSMRFCOMM uint16 = 0x0003

	// PSMDynamicStart is the first dynamically assigned PSM.
	PSMDynamicStart uint16 = 0x1001

	ServiceRFCMux uint8  = 42
	ProtoRFCOMM   uint32 = 3
)

// RequirementSet is the security one side of a connection asks for.
type RequirementSet struct {
	Authenticate bool
	Encrypt      bool
	Authorize    bool
	MITM         bool

	// AuthHigh asks legacy peers for a 16 digit PIN. Acceptor side only.
	AuthHigh bool

	// SecureConn requires an authenticated P-256 link key.
	SecureConn bool

	ForceMaster   bool
	AttemptMaster bool
	ForceSlave    bool
	AttemptSlave  bool
}

// None reports whether nothing is asked of the link.
func (r RequirementSet) None() bool {
	return !r.Authenticate && !r.Encrypt && !r.Authorize
}

func (r RequirementSet) normalize(spMode bool) RequirementSet {
	if spMode && r.Authenticate {
		r.MITM = true
	}
	if r.Encrypt {
		r.Authenticate = true
	}
	return r
}

// clearProcedures drops the procedure and role bits once they are met.
func (r *RequirementSet) clearProcedures() {
	r.Authenticate, r.Encrypt, r.Authorize = false, false, false
	r.ForceMaster, r.AttemptMaster, r.ForceSlave, r.AttemptSlave = false, false, false, false
}

// Requirements is the policy for both directions of a service.
type Requirements struct {
	Orig RequirementSet
	Acc  RequirementSet
}

// Side returns the originator or the acceptor set.
func (r Requirements) Side(originator bool) RequirementSet {
	if originator {
		return r.Orig
	}
	return r.Acc
}

func (r *Requirements) side(originator bool) *RequirementSet {
	if originator {
		return &r.Orig
	}
	return &r.Acc
}

func (r *Requirements) clearProcedures() {
	r.Orig.clearProcedures()
	r.Acc.clearProcedures()
}

type serviceRecord struct {
	inUse      bool
	psm        uint16
	mxProto    uint32
	origMxChan uint32
	termMxChan uint32
	serviceID  uint8
	origName   string
	termName   string
	req        Requirements
}

type serviceRegistry struct {
	recs []serviceRecord
	out  *serviceRecord
}

func newServiceRegistry(max int) *serviceRegistry {
	return &serviceRegistry{recs: make([]serviceRecord, max)}
}

// register stores the policy of one direction of a service. An existing
// record with the same identifiers and name is reused; otherwise the first
// free slot is taken. It returns false when the table is full.
func (r *serviceRegistry) register(originator bool, name string, serviceID uint8, req RequirementSet,
	psm uint16, mxProto, mxChan uint32, spMode bool) bool {
	var rec *serviceRecord
	free := -1
	for i := range r.recs {
		s := &r.recs[i]
		if !s.inUse {
			if free < 0 {
				free = i
			}
			continue
		}
		if s.psm == psm && s.mxProto == mxProto && s.serviceID == serviceID &&
			(name == s.origName || name == s.termName) {
			rec = s
			break
		}
	}
	if rec == nil {
		if free < 0 {
			return false
		}
		rec = &r.recs[free]
		*rec = serviceRecord{}
	}

	rec.inUse = true
	rec.psm = psm
	rec.serviceID = serviceID
	rec.mxProto = mxProto

	req = req.normalize(spMode)
	if originator {
		req.AuthHigh = false
		rec.origMxChan = mxChan
		rec.origName = name
		rec.req.Orig = req
		// outgoing connections set their level right before connecting
		r.out = rec
	} else {
		rec.termMxChan = mxChan
		rec.termName = name
		rec.req.Acc = req
	}
	return true
}

func (r *serviceRegistry) findFirst(originator bool, psm uint16) *serviceRecord {
	if originator && r.out != nil && r.out.inUse && r.out.psm == psm {
		return r.out
	}
	for i := range r.recs {
		if r.recs[i].inUse && r.recs[i].psm == psm {
			return &r.recs[i]
		}
	}
	return nil
}

// findNext returns another record sharing cur's PSM.
func (r *serviceRegistry) findNext(cur *serviceRecord) *serviceRecord {
	for i := range r.recs {
		s := &r.recs[i]
		if s.inUse && s.psm == cur.psm && s != cur {
			return s
		}
	}
	return nil
}

func (r *serviceRegistry) findMx(originator bool, psm uint16, mxProto, mxChan uint32) *serviceRecord {
	if o := r.out; originator && o != nil && o.inUse && o.psm == psm && o.mxProto == mxProto && o.origMxChan == mxChan {
		return o
	}
	for i := range r.recs {
		s := &r.recs[i]
		if !s.inUse || s.psm != psm || s.mxProto != mxProto {
			continue
		}
		if (originator && s.origMxChan == mxChan) || (!originator && s.termMxChan == mxChan) {
			return s
		}
	}
	return nil
}

// findOut is the record SetOutService selects.
func (r *serviceRegistry) findOut(serviceID uint8, mxChan uint32) *serviceRecord {
	for i := range r.recs {
		s := &r.recs[i]
		if s.inUse && s.serviceID == serviceID && s.origMxChan == mxChan {
			return s
		}
	}
	return nil
}

// clear frees the records of serviceID, or of every service when it is 0.
// SDP is never cleared.
func (r *serviceRegistry) clear(serviceID uint8) int {
	n := 0
	for i := range r.recs {
		s := &r.recs[i]
		if s.inUse && s.psm != PSMSDP && (serviceID == 0 || s.serviceID == serviceID) {
			r.free(s)
			n++
		}
	}
	return n
}

func (r *serviceRegistry) clearByPSM(psm uint16) int {
	n := 0
	for i := range r.recs {
		s := &r.recs[i]
		if s.inUse && s.psm == psm {
			r.free(s)
			n++
		}
	}
	return n
}

func (r *serviceRegistry) free(s *serviceRecord) {
	*s = serviceRecord{}
	if r.out == s {
		r.out = nil
	}
}
