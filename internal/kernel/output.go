package kernel

import (
	"fmt"

	"github.com/halcyard/akr/internal/canon"
)

// OutputKind discriminates the closed set of output event types. The set
// is exhaustive: encoding any other kind invalidates the run.
type OutputKind string

const (
	OutAuthorityExpired   OutputKind = "AUTHORITY_EXPIRED"
	OutAuthorityRenewed   OutputKind = "AUTHORITY_RENEWED"
	OutAuthorityDestroyed OutputKind = "AUTHORITY_DESTROYED"
	OutAuthorityCreated   OutputKind = "AUTHORITY_CREATED"
	OutActionExecuted     OutputKind = "ACTION_EXECUTED"
	OutActionRefused      OutputKind = "ACTION_REFUSED"
	OutDeadlockDeclared   OutputKind = "DEADLOCK_DECLARED"
	OutDeadlockPersisted  OutputKind = "DEADLOCK_PERSISTED"
)

var permittedOutputs = map[OutputKind]bool{
	OutAuthorityExpired:   true,
	OutAuthorityRenewed:   true,
	OutAuthorityDestroyed: true,
	OutAuthorityCreated:   true,
	OutActionExecuted:     true,
	OutActionRefused:      true,
	OutDeadlockDeclared:   true,
	OutDeadlockPersisted:  true,
}

// RefuseReason is the reason code carried on ACTION_REFUSED.
type RefuseReason string

const (
	RefuseNoAuthority          RefuseReason = "NO_AUTHORITY"
	RefuseConflictBlocks       RefuseReason = "CONFLICT_BLOCKS"
	RefuseDeadlockState        RefuseReason = "DEADLOCK_STATE"
	RefuseAlreadyVoid          RefuseReason = "ALREADY_VOID"
	RefuseConflictNotFound     RefuseReason = "CONFLICT_NOT_FOUND"
	RefuseAmbiguousDestruction RefuseReason = "AMBIGUOUS_DESTRUCTION"
	RefuseAmplificationBlocked RefuseReason = "AMPLIFICATION_BLOCKED"
	RefuseScopeNotCovered      RefuseReason = "SCOPE_NOT_COVERED"
	RefuseBoundExhausted       RefuseReason = "BOUND_EXHAUSTED"
)

// Output is one emitted event. Outputs append to the hash chain in
// emission order; their canonical bytes are the replay contract.
type Output interface {
	Kind() OutputKind
	canonObject() canon.Object
}

// AuthorityExpired reports an eager expiry at an epoch boundary.
type AuthorityExpired struct {
	AuthorityID       string `json:"authority_id"`
	ExpiryEpoch       int64  `json:"expiry_epoch"`
	TransitionEpoch   int64  `json:"transition_epoch"`
	TriggeringEventID string `json:"triggering_event_id"`
}

func (o AuthorityExpired) Kind() OutputKind { return OutAuthorityExpired }

func (o AuthorityExpired) canonObject() canon.Object {
	return canon.Object{
		"authority_id":        canon.String(o.AuthorityID),
		"expiry_epoch":        canon.Int(o.ExpiryEpoch),
		"transition_epoch":    canon.Int(o.TransitionEpoch),
		"triggering_event_id": canon.String(o.TriggeringEventID),
	}
}

// AuthorityRenewed reports a successful renewal.
type AuthorityRenewed struct {
	NewAuthorityID   string `json:"new_authority_id"`
	PriorAuthorityID string `json:"prior_authority_id,omitempty"`
	EventID          string `json:"event_id"`
	Epoch            int64  `json:"epoch"`
}

func (o AuthorityRenewed) Kind() OutputKind { return OutAuthorityRenewed }

func (o AuthorityRenewed) canonObject() canon.Object {
	return canon.Object{
		"new_authority_id":   canon.String(o.NewAuthorityID),
		"prior_authority_id": nullableString(o.PriorAuthorityID),
		"event_id":           canon.String(o.EventID),
		"epoch":              canon.Int(o.Epoch),
	}
}

// AuthorityDestroyed reports an explicit termination. ConflictID is zero
// for governance-admitted destruction, which is not tied to a conflict.
type AuthorityDestroyed struct {
	AuthorityID  string `json:"authority_id"`
	ConflictID   int64  `json:"conflict_id"`
	AuthorizerID string `json:"authorizer_id"`
	Nonce        string `json:"nonce"`
}

func (o AuthorityDestroyed) Kind() OutputKind { return OutAuthorityDestroyed }

func (o AuthorityDestroyed) canonObject() canon.Object {
	return canon.Object{
		"authority_id":  canon.String(o.AuthorityID),
		"conflict_id":   canon.Int(o.ConflictID),
		"authorizer_id": canon.String(o.AuthorizerID),
		"nonce":         canon.String(o.Nonce),
	}
}

// AuthorityCreated reports a governance-admitted creation. The record
// enters PENDING and activates at the next step.
type AuthorityCreated struct {
	NewAuthorityID       string       `json:"new_authority_id"`
	Scope                string       `json:"scope"`
	Vector               ActionVector `json:"vector"`
	ExpiryEpoch          int64        `json:"expiry_epoch"`
	AdmittingAuthorities []string     `json:"admitting_authorities"`
	CreationEpoch        int64        `json:"creation_epoch"`
}

func (o AuthorityCreated) Kind() OutputKind { return OutAuthorityCreated }

func (o AuthorityCreated) canonObject() canon.Object {
	admitting := make(canon.Array, len(o.AdmittingAuthorities))
	for i, id := range o.AdmittingAuthorities {
		admitting[i] = canon.String(id)
	}
	return canon.Object{
		"new_authority_id":      canon.String(o.NewAuthorityID),
		"scope":                 canon.String(o.Scope),
		"vector":                canon.Int(o.Vector),
		"expiry_epoch":          canon.Int(o.ExpiryEpoch),
		"admitting_authorities": admitting,
		"creation_epoch":        canon.Int(o.CreationEpoch),
	}
}

// ActionExecuted reports an admitted ordinary action.
type ActionExecuted struct {
	RequestID      string         `json:"request_id"`
	Transformation Transformation `json:"transformation_type"`
}

func (o ActionExecuted) Kind() OutputKind { return OutActionExecuted }

func (o ActionExecuted) canonObject() canon.Object {
	return canon.Object{
		"request_id":          canon.String(o.RequestID),
		"transformation_type": canon.Int(o.Transformation),
	}
}

// ActionRefused reports a lawful refusal. Refusals never invalidate the
// run; callers wanting a different outcome submit a new request later.
type ActionRefused struct {
	RequestID string       `json:"request_id"`
	Reason    RefuseReason `json:"reason"`
}

func (o ActionRefused) Kind() OutputKind { return OutActionRefused }

func (o ActionRefused) canonObject() canon.Object {
	return canon.Object{
		"request_id": canon.String(o.RequestID),
		"reason":     canon.String(o.Reason),
	}
}

// DeadlockDeclared reports entry into the deadlock condition.
type DeadlockDeclared struct {
	Cause                DeadlockCause `json:"cause"`
	OpenConflicts        int64         `json:"open_conflicts"`
	ActiveAuthorityCount int64         `json:"active_authority_count"`
	Epoch                int64         `json:"epoch"`
}

func (o DeadlockDeclared) Kind() OutputKind { return OutDeadlockDeclared }

func (o DeadlockDeclared) canonObject() canon.Object {
	return deadlockObject(o.Cause, o.OpenConflicts, o.ActiveAuthorityCount, o.Epoch)
}

// DeadlockPersisted reports that an already-declared deadlock still holds
// at the end of a step. The cause may have shifted; persistence refers to
// the condition, not the cause.
type DeadlockPersisted struct {
	Cause                DeadlockCause `json:"cause"`
	OpenConflicts        int64         `json:"open_conflicts"`
	ActiveAuthorityCount int64         `json:"active_authority_count"`
	Epoch                int64         `json:"epoch"`
}

func (o DeadlockPersisted) Kind() OutputKind { return OutDeadlockPersisted }

func (o DeadlockPersisted) canonObject() canon.Object {
	return deadlockObject(o.Cause, o.OpenConflicts, o.ActiveAuthorityCount, o.Epoch)
}

func deadlockObject(cause DeadlockCause, openConflicts, activeCount, epoch int64) canon.Object {
	return canon.Object{
		"cause":                  canon.String(cause),
		"open_conflicts":         canon.Int(openConflicts),
		"active_authority_count": canon.Int(activeCount),
		"epoch":                  canon.Int(epoch),
	}
}

// EncodeOutput serializes an output event to its canonical bytes,
// wrapping the event fields with its kind:
//
//	{"event":{...},"kind":"ACTION_EXECUTED"}
//
// Rejects any kind outside the exhaustive set.
func EncodeOutput(o Output) ([]byte, error) {
	if !permittedOutputs[o.Kind()] {
		return nil, fmt.Errorf("output kind %q is not in the permitted set", o.Kind())
	}
	return canon.Marshal(canon.Object{
		"kind":  canon.String(o.Kind()),
		"event": o.canonObject(),
	})
}
