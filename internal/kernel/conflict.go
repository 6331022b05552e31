package kernel

import "slices"

// findOpenConflict returns the open conflict with exactly the given
// participant set, or nil. Participant sets compare as sorted id slices.
func (st *State) findOpenConflict(participants []string) *ConflictRecord {
	for _, c := range st.Conflicts {
		if slices.Equal(c.Participants, participants) {
			return c
		}
	}
	return nil
}

// registerConflict records a detected disagreement. An identical
// participant set with an existing record is reused, never duplicated.
// Returns the record and whether it already existed.
func (st *State) registerConflict(participants []string) (*ConflictRecord, bool) {
	if c := st.findOpenConflict(participants); c != nil {
		return c, true
	}
	c := &ConflictRecord{
		ConflictID:   int64(len(st.Conflicts)) + 1,
		Participants: append([]string(nil), participants...),
		Status:       ConflictOpenBinding,
	}
	st.Conflicts = append(st.Conflicts, c)
	return c, false
}

// demoteConflicts recomputes conflict statuses after an authority became a
// non-participant. The only move is OPEN_BINDING -> OPEN_NONBINDING;
// termination is irreversible, so the reverse can never apply.
func (st *State) demoteConflicts() {
	for _, c := range st.Conflicts {
		if c.Status != ConflictOpenBinding {
			continue
		}
		for _, id := range c.Participants {
			rec := st.Authorities[id]
			if rec == nil || rec.Status != StatusActive {
				c.Status = ConflictOpenNonbinding
				break
			}
		}
	}
}

// openBindingCount counts conflicts still binding.
func (st *State) openBindingCount() int64 {
	var n int64
	for _, c := range st.Conflicts {
		if c.Status == ConflictOpenBinding {
			n++
		}
	}
	return n
}

// computeDeadlock derives the global deadlock condition from the current
// tables. Deadlock is recomputed, never cached: it changes only because
// destruction or renewal altered the participant set, never through
// elapsed time.
func (st *State) computeDeadlock() DeadlockCause {
	hasBinding := st.openBindingCount() > 0
	empty := st.activeCount() == 0
	switch {
	case hasBinding && empty:
		return DeadlockMixed
	case hasBinding:
		return DeadlockConflict
	case empty:
		return DeadlockEmptyAuthority
	default:
		return DeadlockNone
	}
}
