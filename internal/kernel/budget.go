package kernel

// The instruction budget bounds self-referential governance chains. Each
// epoch starts with a fixed allowance; every admissibility, creation,
// destruction, and renewal evaluation is charged its statically known
// worst-case cost before it starts. An action that does not fit is
// refused with BOUND_EXHAUSTED, and so is every subsequent action in the
// same batch, deterministically, with no partial state committed for any
// refused action.
//
// This is the only mechanism bounding governance regress. There is no
// cycle detection: a chain that feeds itself simply runs out of budget
// within the epoch.

// DefaultEpochBudget is the default per-epoch instruction allowance.
const DefaultEpochBudget int64 = 4096

// Worst-case unit costs. Lookups and conflict updates scale with table
// sizes; the remaining terms are flat per evaluation.
const (
	costEvalBase     int64 = 4 // rule applications and verdict assembly
	costPerAuthority int64 = 1 // covering-set scan, per stored record
	costPerConflict  int64 = 1 // conflict reuse scan, per stored record
	costVectorWords  int64 = 1 // vector containment, fixed width
	costStateWrite   int64 = 2 // record insert or status transition
)

// admissibilityCost is the worst-case cost of one admissibility
// evaluation against the current tables, including a possible conflict
// registration and refusal write.
func (st *State) admissibilityCost() int64 {
	return costEvalBase +
		costPerAuthority*int64(len(st.Authorities)) +
		costPerConflict*int64(len(st.Conflicts)) +
		costVectorWords +
		costStateWrite
}

// creationCost adds the union/containment checks and the new record write.
func (st *State) creationCost() int64 {
	return st.admissibilityCost() + costVectorWords + costStateWrite
}

// destructionCost covers target resolution and the VOID transitions plus
// conflict demotion.
func (st *State) destructionCost(targetCount int) int64 {
	if targetCount < 1 {
		targetCount = 1
	}
	return costEvalBase +
		costPerAuthority*int64(len(st.Authorities)) +
		costPerConflict*int64(len(st.Conflicts)) +
		costStateWrite*int64(targetCount)
}

// renewalCost covers the prior-lineage lookup and the record insert.
func (st *State) renewalCost() int64 {
	return costEvalBase + costPerAuthority*int64(len(st.Authorities)) + costStateWrite
}

// charge deducts cost from the epoch budget. Once the budget cannot cover
// an evaluation, the step is exhausted: every later charge fails without
// further deduction, so the exhaustion point replays identically.
func (sc *stepContext) charge(cost int64) bool {
	if sc.exhausted || sc.st.Budget < cost {
		sc.exhausted = true
		return false
	}
	sc.st.Budget -= cost
	return true
}
