package kernel

// applyAction evaluates an ordinary resource transformation through the
// structural admissibility check and reports the verdict.
func (sc *stepContext) applyAction(req ActionRequest) error {
	if !req.Transformation.Valid() {
		return malformedInputError("transformation type outside the defined range")
	}
	if !sc.charge(sc.st.admissibilityCost()) {
		return sc.refuse(req.RequestID, RefuseBoundExhausted)
	}

	dec := sc.st.evaluate(req.Scope, req.Transformation)
	if dec.outcome != admitted {
		return sc.refuseForDecision(req.RequestID, dec)
	}

	sc.k.logger.Debug("action executed",
		"request_id", req.RequestID,
		"transformation", req.Transformation.String(),
		"scope", req.Scope,
	)
	return sc.emit(ActionExecuted{
		RequestID:      req.RequestID,
		Transformation: req.Transformation,
	})
}
