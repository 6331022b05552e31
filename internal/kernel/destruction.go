package kernel

import "slices"

// applyDestructionAuth executes an externally authorized termination. The
// kernel never chooses what to destroy: the instruction must reference an
// open conflict and name its targets unambiguously. A batch carries at
// most one authorization (rejected in the Step pre-scan otherwise), and
// at most one is honored per run; a second invalidates it.
func (sc *stepContext) applyDestructionAuth(req DestructionAuthorizationRequest) error {
	if !sc.k.verifier.Verify(req.AuthorizerID, req.Nonce) {
		return verificationError(req.AuthorizerID)
	}
	if sc.st.DestructionHonored {
		return &RunError{
			Code:    ErrCodeMultipleDestruction,
			Message: "a destruction authorization was already honored in this run",
		}
	}
	if !sc.charge(sc.st.destructionCost(len(req.TargetIDs))) {
		return sc.refuse(req.Nonce, RefuseBoundExhausted)
	}

	conflict, ok := sc.st.Conflict(req.ConflictID)
	if !ok {
		return sc.refuse(req.Nonce, RefuseConflictNotFound)
	}

	var targets []string
	if req.All {
		targets = append([]string(nil), conflict.Participants...)
	} else {
		targets = sortedCopy(req.TargetIDs)
	}
	if len(targets) == 0 {
		return sc.refuse(req.Nonce, RefuseAmbiguousDestruction)
	}

	honored := false
	for _, id := range targets {
		// A target outside the referenced conflict's participant set is
		// not an unambiguous instruction.
		if !slices.Contains(conflict.Participants, id) {
			if err := sc.refuse(req.Nonce, RefuseAmbiguousDestruction); err != nil {
				return err
			}
			continue
		}
		rec := sc.st.lookup(id)
		switch {
		case rec == nil:
			if err := sc.refuse(req.Nonce, RefuseAmbiguousDestruction); err != nil {
				return err
			}
			continue
		case rec.Status == StatusVoid:
			if err := sc.refuse(req.Nonce, RefuseAlreadyVoid); err != nil {
				return err
			}
			continue
		case rec.Status == StatusPending:
			// PENDING never held force; it cannot move to VOID.
			if err := sc.refuse(req.Nonce, RefuseAmbiguousDestruction); err != nil {
				return err
			}
			continue
		}

		rec.Status = StatusVoid
		rec.Termination = &TerminationMetadata{
			Cause:        CauseDestruction,
			AuthorizerID: req.AuthorizerID,
			Nonce:        req.Nonce,
			Epoch:        sc.st.Epoch,
		}
		honored = true
		sc.k.logger.Info("authority destroyed",
			"authority_id", id,
			"conflict_id", req.ConflictID,
			"authorizer_id", req.AuthorizerID,
		)
		if err := sc.emit(AuthorityDestroyed{
			AuthorityID:  id,
			ConflictID:   req.ConflictID,
			AuthorizerID: req.AuthorizerID,
			Nonce:        req.Nonce,
		}); err != nil {
			return err
		}
	}

	if honored {
		sc.st.DestructionHonored = true
		sc.st.demoteConflicts()
	}
	return nil
}
