package kernel

// applyRenewal creates a brand-new authority record with an optional
// lineage pointer. The prior id must exist in any status (ACTIVE,
// EXPIRED, or VOID) or the run is invalid. Renewal is explicitly
// non-resurrective: the ancestor's status is untouched, and the new
// record carries no inherited force, scope compatibility, or priority.
func (sc *stepContext) applyRenewal(ren AuthorityRenewalRequest) error {
	if !sc.k.verifier.Verify(ren.AuthorizerID, ren.Nonce) {
		return verificationError(ren.AuthorizerID)
	}
	if !sc.charge(sc.st.renewalCost()) {
		return sc.refuse(ren.EventID, RefuseBoundExhausted)
	}
	if ren.PriorAuthorityID != "" && sc.st.lookup(ren.PriorAuthorityID) == nil {
		return unknownPriorError(ren.PriorAuthorityID)
	}

	rec := &AuthorityRecord{
		AuthorityID: ren.NewAuthorityID,
		HolderID:    ren.HolderID,
		Scope:       ren.Scope,
		Vector:      ren.Vector,
		StartEpoch:  ren.StartEpoch,
		ExpiryEpoch: ren.ExpiryEpoch,
		Lineage:     ren.PriorAuthorityID,
	}
	if err := sc.st.inject(rec); err != nil {
		return err
	}

	sc.k.logger.Debug("authority renewed",
		"new_authority_id", ren.NewAuthorityID,
		"prior_authority_id", ren.PriorAuthorityID,
		"epoch", sc.st.Epoch,
	)
	return sc.emit(AuthorityRenewed{
		NewAuthorityID:   ren.NewAuthorityID,
		PriorAuthorityID: ren.PriorAuthorityID,
		EventID:          ren.EventID,
		Epoch:            sc.st.Epoch,
	})
}
