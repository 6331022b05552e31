package kernel

// applyEpochAdvance moves the kernel to a strictly greater epoch, resets
// the instruction budget, and eagerly expires every ACTIVE record whose
// expiry epoch has passed, in sorted authority-id order.
func (sc *stepContext) applyEpochAdvance(adv EpochAdvance) error {
	if adv.NewEpoch <= sc.st.Epoch {
		return epochError(sc.st.Epoch, adv.NewEpoch)
	}
	sc.st.Epoch = adv.NewEpoch
	sc.st.Budget = sc.k.epochBudget
	sc.st.EventIndex++

	// Records whose start epoch arrived with this advance activate before
	// the expiry scan. Both passes only touch records from earlier steps.
	sc.st.activatePending()

	for _, id := range sc.st.sortedAuthorityIDs() {
		rec := sc.st.Authorities[id]
		if rec.Status != StatusActive || rec.ExpiryEpoch >= adv.NewEpoch {
			continue
		}
		rec.Status = StatusExpired
		rec.Termination = &TerminationMetadata{
			Cause:   CauseExpiry,
			EventID: adv.EventID,
			Epoch:   adv.NewEpoch,
		}
		sc.k.logger.Debug("authority expired",
			"authority_id", rec.AuthorityID,
			"expiry_epoch", rec.ExpiryEpoch,
			"transition_epoch", adv.NewEpoch,
		)
		if err := sc.emit(AuthorityExpired{
			AuthorityID:       rec.AuthorityID,
			ExpiryEpoch:       rec.ExpiryEpoch,
			TransitionEpoch:   adv.NewEpoch,
			TriggeringEventID: adv.EventID,
		}); err != nil {
			return err
		}
	}

	// Expiry never emits a VOID transition; it only makes the authority a
	// non-participant going forward.
	sc.st.demoteConflicts()
	return nil
}
