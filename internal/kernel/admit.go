package kernel

// admitOutcome classifies one structural admissibility evaluation.
type admitOutcome int

const (
	// admitted: at least one covering authority, all agree, all permit.
	admitted admitOutcome = iota
	// noAuthority: no covering authority, or unanimous denial.
	noAuthority
	// conflicted: covering authorities disagree. Never arbitrated.
	conflicted
)

// admitDecision is the result of evaluating a candidate transformation
// against the ACTIVE covering set.
type admitDecision struct {
	outcome      admitOutcome
	admitting    []string // sorted ids with the bit set
	participants []string // full covering set, sorted; conflict members
	// union of admitting vectors, consumed by the non-amplification check.
	admittedUnion ActionVector
}

// evaluate performs the structural (non-semantic) admissibility check:
// collect every ACTIVE authority whose scope equals the target scope
// exactly, then read each one's vector bit for the transformation type.
// No majority, priority, age, or freshness signal may influence the
// outcome; disagreement is a conflict, not an arbitration point.
func (st *State) evaluate(scope string, t Transformation) admitDecision {
	covering := st.covering(scope)
	if len(covering) == 0 {
		return admitDecision{outcome: noAuthority}
	}

	var dec admitDecision
	var denying int
	for _, rec := range covering {
		dec.participants = append(dec.participants, rec.AuthorityID)
		if rec.Vector.Has(t) {
			dec.admitting = append(dec.admitting, rec.AuthorityID)
			dec.admittedUnion = dec.admittedUnion.Union(rec.Vector)
		} else {
			denying++
		}
	}

	switch {
	case denying == 0:
		dec.outcome = admitted
	case len(dec.admitting) == 0:
		// Unanimous denial: structurally no authority admits this
		// transformation type.
		dec.outcome = noAuthority
	default:
		dec.outcome = conflicted
	}
	return dec
}
