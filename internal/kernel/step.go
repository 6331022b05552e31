package kernel

import (
	"fmt"
	"log/slog"
)

// Kernel holds the fixed configuration of a run: the per-epoch
// instruction budget and the injected verification primitive. It carries
// no mutable state; all state threads through Step explicitly.
type Kernel struct {
	epochBudget int64
	verifier    Verifier
	logger      *slog.Logger
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithEpochBudget sets the per-epoch instruction allowance.
//
// Default: DefaultEpochBudget. Use a small value (e.g. 30) to exercise
// budget exhaustion in tests.
func WithEpochBudget(budget int64) Option {
	return func(k *Kernel) {
		k.epochBudget = budget
	}
}

// WithVerifier injects the external authorization primitive.
func WithVerifier(v Verifier) Option {
	return func(k *Kernel) {
		k.verifier = v
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) {
		k.logger = l
	}
}

// New creates a Kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		epochBudget: DefaultEpochBudget,
		verifier:    AcceptAllVerifier(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Genesis returns the initial state: epoch zero, empty tables, a full
// budget, and the chain at the all-zero digest.
func (k *Kernel) Genesis() *State {
	return &State{
		Authorities: make(map[string]*AuthorityRecord),
		Cause:       DeadlockNone,
		Budget:      k.epochBudget,
	}
}

// stepContext is the single-writer working set of one step: the state
// copy under mutation, the outputs accumulated so far, and the budget
// exhaustion latch.
type stepContext struct {
	k         *Kernel
	st        *State
	outputs   []Output
	exhausted bool
}

// emit appends an output event to the step's output list and links its
// canonical bytes into the hash chain.
func (sc *stepContext) emit(o Output) error {
	data, err := EncodeOutput(o)
	if err != nil {
		return malformedInputError("output encoding failed: " + err.Error())
	}
	sc.st.Chain = sc.st.Chain.Append(data)
	sc.outputs = append(sc.outputs, o)
	return nil
}

// refuse emits an ACTION_REFUSED for the given request identifier.
func (sc *stepContext) refuse(requestID string, reason RefuseReason) error {
	sc.k.logger.Debug("action refused", "request_id", requestID, "reason", string(reason))
	return sc.emit(ActionRefused{RequestID: requestID, Reason: reason})
}

// Step is the pure transition function: it canonicalizes and orders the
// batch, applies temporal effects, then processes renewals, destructions,
// creations, and ordinary actions in that fixed sub-phase order, emitting
// a flat output list and the advanced hash chain.
//
// On a run-invalidating error the returned state is nil and prev is
// untouched; nothing from the failed step is committed.
func (k *Kernel) Step(prev *State, batch []Input) (*State, []Output, error) {
	ordered, err := canonicalOrder(batch)
	if err != nil {
		return nil, nil, err
	}

	sc := &stepContext{k: k, st: prev.Clone()}

	// Records PENDING at step entry were created in an earlier step;
	// activate them before anything in this batch can be evaluated.
	sc.st.activatePending()

	var advance *EpochAdvance
	var destructionAuths int
	for _, si := range ordered {
		switch in := si.input.(type) {
		case EpochAdvance:
			if advance != nil {
				return nil, nil, &RunError{
					Code:    ErrCodeMultipleEpochAdvance,
					Message: "more than one epoch advance in step batch",
					EventID: in.EventID,
				}
			}
			a := in
			advance = &a
		case DestructionAuthorizationRequest:
			destructionAuths++
			if destructionAuths > 1 {
				return nil, nil, &RunError{
					Code:    ErrCodeMultipleDestruction,
					Message: "more than one destruction authorization in step batch",
					EventID: in.Nonce,
				}
			}
		case GovernanceActionRequest:
			if in.Type != GovernanceCreate && in.Type != GovernanceDestroy {
				return nil, nil, malformedInputError(fmt.Sprintf("unknown governance action type %q", in.Type))
			}
		}
	}
	if advance != nil {
		if err := sc.applyEpochAdvance(*advance); err != nil {
			return nil, nil, err
		}
	}

	// Fixed sub-phase order. Each phase walks the already-sorted batch
	// and picks out its own inputs, so phase order never depends on
	// arrival order.
	phases := []func(*stepContext, sortedInput) (bool, error){
		phaseInjection,
		phaseRenewal,
		phaseDestruction,
		phaseCreation,
		phaseAction,
	}
	for _, phase := range phases {
		for _, si := range ordered {
			consumed, err := phase(sc, si)
			if err != nil {
				return nil, nil, err
			}
			if consumed {
				sc.st.EventIndex++
			}
		}
	}

	if err := sc.finishDeadlock(); err != nil {
		return nil, nil, err
	}

	k.logger.Debug("step complete",
		"epoch", sc.st.Epoch,
		"event_index", sc.st.EventIndex,
		"outputs", len(sc.outputs),
		"budget_remaining", sc.st.Budget,
		"chain_len", sc.st.Chain.Len,
	)
	return sc.st, sc.outputs, nil
}

func phaseInjection(sc *stepContext, si sortedInput) (bool, error) {
	inj, ok := si.input.(AuthorityInjection)
	if !ok {
		return false, nil
	}
	return true, sc.applyInjection(inj)
}

func phaseRenewal(sc *stepContext, si sortedInput) (bool, error) {
	ren, ok := si.input.(AuthorityRenewalRequest)
	if !ok {
		return false, nil
	}
	return true, sc.applyRenewal(ren)
}

// phaseDestruction handles both externally authorized destruction and
// governance DESTROY_AUTHORITY: the same sub-phase, per the fixed order.
func phaseDestruction(sc *stepContext, si sortedInput) (bool, error) {
	switch in := si.input.(type) {
	case DestructionAuthorizationRequest:
		return true, sc.applyDestructionAuth(in)
	case GovernanceActionRequest:
		if in.Type == GovernanceDestroy {
			return true, sc.applyGovernanceDestroy(in)
		}
	}
	return false, nil
}

func phaseCreation(sc *stepContext, si sortedInput) (bool, error) {
	gov, ok := si.input.(GovernanceActionRequest)
	if !ok || gov.Type != GovernanceCreate {
		return false, nil
	}
	return true, sc.applyGovernanceCreate(gov)
}

func phaseAction(sc *stepContext, si sortedInput) (bool, error) {
	act, ok := si.input.(ActionRequest)
	if !ok {
		return false, nil
	}
	return true, sc.applyAction(act)
}

// finishDeadlock recomputes the deadlock condition after all state
// changes and reports it: DEADLOCK_DECLARED on entry, DEADLOCK_PERSISTED
// while it holds. Deadlock is lawful and non-self-healing; it clears only
// because destruction or renewal altered the participant set.
func (sc *stepContext) finishDeadlock() error {
	sc.st.demoteConflicts()
	cause := sc.st.computeDeadlock()
	if cause == DeadlockNone {
		sc.st.Deadlocked = false
		sc.st.Cause = DeadlockNone
		return nil
	}

	wasDeadlocked := sc.st.Deadlocked
	sc.st.Deadlocked = true
	sc.st.Cause = cause

	openConflicts := sc.st.openBindingCount()
	active := sc.st.activeCount()
	if wasDeadlocked {
		return sc.emit(DeadlockPersisted{
			Cause:                cause,
			OpenConflicts:        openConflicts,
			ActiveAuthorityCount: active,
			Epoch:                sc.st.Epoch,
		})
	}
	sc.k.logger.Info("deadlock declared",
		"cause", string(cause),
		"open_conflicts", openConflicts,
		"active_authorities", active,
		"epoch", sc.st.Epoch,
	)
	return sc.emit(DeadlockDeclared{
		Cause:                cause,
		OpenConflicts:        openConflicts,
		ActiveAuthorityCount: active,
		Epoch:                sc.st.Epoch,
	})
}

// applyInjection installs an externally constructed record. Trace-only:
// no output event.
func (sc *stepContext) applyInjection(inj AuthorityInjection) error {
	rec := &AuthorityRecord{
		AuthorityID: inj.AuthorityID,
		HolderID:    inj.HolderID,
		Scope:       inj.Scope,
		Vector:      inj.Vector,
		StartEpoch:  inj.StartEpoch,
		ExpiryEpoch: inj.ExpiryEpoch,
		Lineage:     inj.Lineage,
	}
	if inj.Lineage != "" && sc.st.lookup(inj.Lineage) == nil {
		return unknownPriorError(inj.Lineage)
	}
	return sc.st.inject(rec)
}
