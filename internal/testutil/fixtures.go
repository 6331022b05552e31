package testutil

import (
	"strconv"

	"github.com/halcyard/akr/internal/kernel"
)

// Grant builds an injection for an already-started authority over scope.
//
// The record starts at epoch 0 and expires at epoch 100, wide enough that
// tests exercising expiry set their own ExpiryEpoch instead.
func Grant(id, holder, scope string, vector kernel.ActionVector) kernel.AuthorityInjection {
	return kernel.AuthorityInjection{
		AuthorityID: id,
		HolderID:    holder,
		Scope:       scope,
		Vector:      vector,
		StartEpoch:  0,
		ExpiryEpoch: 100,
	}
}

// Action builds an ordinary action request at epoch 1.
func Action(requestID, holder, scope string, t kernel.Transformation) kernel.ActionRequest {
	return kernel.ActionRequest{
		RequestID:      requestID,
		HolderID:       holder,
		Scope:          scope,
		Transformation: t,
		Epoch:          1,
		Nonce:          "nonce-" + requestID,
	}
}

// Advance builds an epoch advance with a stable event id derived from the
// target epoch.
func Advance(epoch int64) kernel.EpochAdvance {
	return kernel.EpochAdvance{
		NewEpoch: epoch,
		EventID:  "adv-" + strconv.FormatInt(epoch, 10),
		Nonce:    "adv-nonce-" + strconv.FormatInt(epoch, 10),
	}
}
