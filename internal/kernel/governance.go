package kernel

// Governance actions are ordinary transformations: they pass through the
// same structural admissibility evaluation as resource actions, with no
// privileged path. Creation additionally enforces non-amplification and
// scope containment, and the created record enters PENDING so that no
// authority can admit actions in the same batch that created it.

// refuseForDecision maps a non-admitted decision to its refusal, opening
// or reusing a conflict record on disagreement.
func (sc *stepContext) refuseForDecision(requestID string, dec admitDecision) error {
	switch dec.outcome {
	case noAuthority:
		return sc.refuse(requestID, RefuseNoAuthority)
	case conflicted:
		existing := sc.st.findOpenConflict(dec.participants)
		alreadyBinding := existing != nil && existing.Status == ConflictOpenBinding
		sc.st.registerConflict(dec.participants)
		// Disagreement already declared as deadlock refuses as a deadlock
		// condition; first contact with the conflict reports the conflict
		// itself.
		if alreadyBinding && sc.st.Deadlocked {
			return sc.refuse(requestID, RefuseDeadlockState)
		}
		return sc.refuse(requestID, RefuseConflictBlocks)
	default:
		return nil
	}
}

// applyGovernanceCreate processes CREATE_AUTHORITY.
func (sc *stepContext) applyGovernanceCreate(req GovernanceActionRequest) error {
	if !sc.charge(sc.st.creationCost()) {
		return sc.refuse(req.RequestID, RefuseBoundExhausted)
	}

	dec := sc.st.evaluate(req.Scope, TransformCreateAuthority)
	if dec.outcome != admitted {
		return sc.refuseForDecision(req.RequestID, dec)
	}

	// Non-amplification: the new vector must be a structural subset of
	// the union of the admitting authorities' vectors. Any bit outside
	// that union is refused; created power never exceeds admitting power.
	if !req.Params.Vector.SubsetOf(dec.admittedUnion) {
		return sc.refuse(req.RequestID, RefuseAmplificationBlocked)
	}

	// Scope containment: the new scope must exactly equal an admitting
	// authority's scope. No derivation, narrowing, or synthesis.
	if req.Params.Scope != req.Scope {
		return sc.refuse(req.RequestID, RefuseScopeNotCovered)
	}

	if _, exists := sc.st.Authorities[req.Params.NewAuthorityID]; exists {
		return duplicateAuthorityError(req.Params.NewAuthorityID)
	}
	if !req.Params.Vector.InRange() {
		return malformedInputError("vector bit set beyond the defined transformation-type range")
	}
	if req.Params.ExpiryEpoch <= req.Params.StartEpoch {
		return malformedInputError("expiry epoch must be strictly greater than start epoch")
	}
	if req.Params.Lineage != "" && sc.st.lookup(req.Params.Lineage) == nil {
		return unknownPriorError(req.Params.Lineage)
	}

	// Delayed activation: PENDING regardless of start epoch. The record
	// gains effect at the next step boundary, never within this batch.
	sc.st.Authorities[req.Params.NewAuthorityID] = &AuthorityRecord{
		AuthorityID: req.Params.NewAuthorityID,
		HolderID:    req.Params.HolderID,
		Scope:       req.Params.Scope,
		Vector:      req.Params.Vector,
		Status:      StatusPending,
		StartEpoch:  req.Params.StartEpoch,
		ExpiryEpoch: req.Params.ExpiryEpoch,
		Lineage:     req.Params.Lineage,
	}

	sc.k.logger.Debug("authority created",
		"new_authority_id", req.Params.NewAuthorityID,
		"scope", req.Params.Scope,
		"admitting", dec.admitting,
		"epoch", sc.st.Epoch,
	)
	return sc.emit(AuthorityCreated{
		NewAuthorityID:       req.Params.NewAuthorityID,
		Scope:                req.Params.Scope,
		Vector:               req.Params.Vector,
		ExpiryEpoch:          req.Params.ExpiryEpoch,
		AdmittingAuthorities: dec.admitting,
		CreationEpoch:        sc.st.Epoch,
	})
}

// applyGovernanceDestroy processes DESTROY_AUTHORITY. The destroying
// action must itself be admitted by some ACTIVE authority whose vector
// includes the destroy transformation type and whose scope covers the
// target, including when the target is the admitting authority itself;
// self-reference is not special-cased.
func (sc *stepContext) applyGovernanceDestroy(req GovernanceActionRequest) error {
	if !sc.charge(sc.st.destructionCost(len(req.TargetIDs))) {
		return sc.refuse(req.RequestID, RefuseBoundExhausted)
	}
	if len(req.TargetIDs) != 1 {
		return malformedInputError("governance destroy names exactly one target authority")
	}
	targetID := req.TargetIDs[0]

	target := sc.st.lookup(targetID)
	switch {
	case target == nil:
		return sc.refuse(req.RequestID, RefuseNoAuthority)
	case target.Status == StatusVoid:
		return sc.refuse(req.RequestID, RefuseAlreadyVoid)
	case target.Status == StatusPending:
		return sc.refuse(req.RequestID, RefuseNoAuthority)
	}

	dec := sc.st.evaluate(target.Scope, TransformDestroyAuthority)
	if dec.outcome != admitted {
		return sc.refuseForDecision(req.RequestID, dec)
	}

	authorizer := ""
	if len(req.InitiatorIDs) > 0 {
		authorizer = sortedCopy(req.InitiatorIDs)[0]
	}
	target.Status = StatusVoid
	target.Termination = &TerminationMetadata{
		Cause:        CauseDestruction,
		AuthorizerID: authorizer,
		EventID:      req.RequestID,
		Nonce:        req.Params.Nonce,
		Epoch:        sc.st.Epoch,
	}
	sc.st.demoteConflicts()

	sc.k.logger.Info("authority destroyed by governance",
		"authority_id", targetID,
		"request_id", req.RequestID,
		"epoch", sc.st.Epoch,
	)
	return sc.emit(AuthorityDestroyed{
		AuthorityID:  targetID,
		ConflictID:   0,
		AuthorizerID: authorizer,
		Nonce:        req.Params.Nonce,
	})
}
