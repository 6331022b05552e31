package kernel

import (
	"sort"

	"github.com/halcyard/akr/internal/canon"
)

// State is the complete kernel state. It is a value evolved only through
// Step; outside callers never mutate it directly, and it is fully
// reconstructible by sequential replay from genesis given the input
// history.
type State struct {
	// Epoch is the discrete monotonic time unit, advanced only by an
	// explicit EpochAdvance input.
	Epoch int64

	// Authorities is the identity-keyed, append-mostly authority table.
	// EXPIRED and VOID records are retained forever for audit.
	Authorities map[string]*AuthorityRecord

	// Conflicts holds every registered conflict in ConflictID order.
	// Never pruned.
	Conflicts []*ConflictRecord

	// Deadlocked and Cause describe the derived global deadlock
	// condition as of the last step's recompute.
	Deadlocked bool
	Cause      DeadlockCause

	// EventIndex counts consumed inputs across the run.
	EventIndex int64

	// Budget is the remaining instruction allowance for the current epoch.
	Budget int64

	// Chain is the hash-linked head over all outputs emitted so far.
	Chain canon.Chain

	// DestructionHonored records that a destruction authorization has
	// already been honored; a second one invalidates the run.
	DestructionHonored bool
}

// Clone returns a deep copy. Step mutates only the copy, so a
// run-invalidating error leaves the caller's state untouched.
func (st *State) Clone() *State {
	cp := *st
	cp.Authorities = make(map[string]*AuthorityRecord, len(st.Authorities))
	for id, rec := range st.Authorities {
		cp.Authorities[id] = rec.clone()
	}
	cp.Conflicts = make([]*ConflictRecord, len(st.Conflicts))
	for i, c := range st.Conflicts {
		cp.Conflicts[i] = c.clone()
	}
	return &cp
}

// inject adds a never-before-seen authority record. An id collision
// invalidates the whole step. The record activates immediately when its
// start epoch has arrived, otherwise it waits in PENDING.
func (st *State) inject(rec *AuthorityRecord) error {
	if _, exists := st.Authorities[rec.AuthorityID]; exists {
		return duplicateAuthorityError(rec.AuthorityID)
	}
	if !rec.Vector.InRange() {
		return malformedInputError("vector bit set beyond the defined transformation-type range")
	}
	if rec.ExpiryEpoch <= rec.StartEpoch {
		return malformedInputError("expiry epoch must be strictly greater than start epoch")
	}
	if rec.StartEpoch <= st.Epoch {
		rec.Status = StatusActive
	} else {
		rec.Status = StatusPending
	}
	st.Authorities[rec.AuthorityID] = rec
	return nil
}

// lookup returns the record for an id, or nil.
func (st *State) lookup(id string) *AuthorityRecord {
	return st.Authorities[id]
}

// activatePending transitions PENDING records whose start epoch has
// arrived to ACTIVE. Runs at step entry (PENDING records necessarily come
// from earlier steps, so governance-created authority can never admit
// actions in the batch that created it) and again after an epoch advance.
func (st *State) activatePending() {
	for _, id := range st.sortedAuthorityIDs() {
		rec := st.Authorities[id]
		if rec.Status == StatusPending && rec.StartEpoch <= st.Epoch {
			rec.Status = StatusActive
		}
	}
}

// sortedAuthorityIDs returns every stored id in sorted order. All table
// scans iterate in this order for determinism.
func (st *State) sortedAuthorityIDs() []string {
	ids := make([]string, 0, len(st.Authorities))
	for id := range st.Authorities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// covering collects every ACTIVE authority whose scope equals the target
// scope exactly, in sorted id order. Byte equality only: no subset,
// prefix, or semantic matching.
func (st *State) covering(scope string) []*AuthorityRecord {
	var recs []*AuthorityRecord
	for _, id := range st.sortedAuthorityIDs() {
		rec := st.Authorities[id]
		if rec.Status == StatusActive && rec.Scope == scope {
			recs = append(recs, rec)
		}
	}
	return recs
}

// activeCount counts ACTIVE records.
func (st *State) activeCount() int64 {
	var n int64
	for _, rec := range st.Authorities {
		if rec.Status == StatusActive {
			n++
		}
	}
	return n
}

// SnapshotHash computes the deterministic state digest over epoch, every
// authority record and status, all termination metadata, every conflict
// record and status, the deadlock flag and cause, and the event index.
func (st *State) SnapshotHash() (canon.Digest, error) {
	authorities := make(canon.Array, 0, len(st.Authorities))
	for _, id := range st.sortedAuthorityIDs() {
		authorities = append(authorities, st.Authorities[id].canonObject())
	}
	conflicts := make(canon.Array, len(st.Conflicts))
	for i, c := range st.Conflicts {
		conflicts[i] = c.canonObject()
	}
	obj := canon.Object{
		"epoch":          canon.Int(st.Epoch),
		"authorities":    authorities,
		"conflicts":      conflicts,
		"deadlocked":     canon.Bool(st.Deadlocked),
		"deadlock_cause": canon.String(st.Cause),
		"event_index":    canon.Int(st.EventIndex),
	}
	data, err := canon.Marshal(obj)
	if err != nil {
		return canon.Digest{}, err
	}
	return canon.HashWithDomain(canon.DomainState, data), nil
}

// Authority returns a copy of the record for an id, for inspection.
func (st *State) Authority(id string) (AuthorityRecord, bool) {
	rec := st.Authorities[id]
	if rec == nil {
		return AuthorityRecord{}, false
	}
	return *rec.clone(), true
}

// Conflict returns a copy of the conflict record with the given id.
func (st *State) Conflict(id int64) (ConflictRecord, bool) {
	for _, c := range st.Conflicts {
		if c.ConflictID == id {
			return *c.clone(), true
		}
	}
	return ConflictRecord{}, false
}
