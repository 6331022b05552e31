package kernel

import (
	"github.com/halcyard/akr/internal/canon"
)

// Status is the lifecycle state of an authority record. Transitions are
// monotone along PENDING -> ACTIVE -> {EXPIRED | VOID}; never reversed,
// never re-entered.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
	StatusVoid    Status = "VOID"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusVoid
}

// Termination causes.
const (
	CauseExpiry      = "EXPIRY"
	CauseDestruction = "DESTRUCTION"
)

// TerminationMetadata is written exactly once, at the EXPIRED or VOID
// transition, and never mutated afterwards.
type TerminationMetadata struct {
	Cause        string `json:"cause"`
	AuthorizerID string `json:"authorizer_id,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
	Epoch        int64  `json:"epoch"`
}

// AuthorityRecord is a structural grant of certain transformation types
// over an exact scope token.
//
// AuthorityID is issued at most once across the lifetime of the store and
// never reused, even after termination. After creation the only mutable
// fields are Status and Termination, each written once at its transition.
type AuthorityRecord struct {
	AuthorityID string               `json:"authority_id"`
	HolderID    string               `json:"holder_id"`
	Scope       string               `json:"resource_scope"`
	Vector      ActionVector         `json:"admissible_action_vector"`
	Status      Status               `json:"status"`
	StartEpoch  int64                `json:"start_epoch"`
	ExpiryEpoch int64                `json:"expiry_epoch"`
	Lineage     string               `json:"lineage,omitempty"`
	Termination *TerminationMetadata `json:"termination_metadata,omitempty"`
}

// canonObject encodes the record for the state snapshot hash. Lineage and
// termination serialize as explicit nulls when absent.
func (r *AuthorityRecord) canonObject() canon.Object {
	obj := canon.Object{
		"authority_id":             canon.String(r.AuthorityID),
		"holder_id":                canon.String(r.HolderID),
		"resource_scope":           canon.String(r.Scope),
		"admissible_action_vector": canon.Int(r.Vector),
		"status":                   canon.String(r.Status),
		"start_epoch":              canon.Int(r.StartEpoch),
		"expiry_epoch":             canon.Int(r.ExpiryEpoch),
		"lineage":                  nullableString(r.Lineage),
		"termination_metadata":     canon.Value(canon.Null{}),
	}
	if r.Termination != nil {
		obj["termination_metadata"] = canon.Object{
			"cause":         canon.String(r.Termination.Cause),
			"authorizer_id": canon.String(r.Termination.AuthorizerID),
			"event_id":      canon.String(r.Termination.EventID),
			"nonce":         canon.String(r.Termination.Nonce),
			"epoch":         canon.Int(r.Termination.Epoch),
		}
	}
	return obj
}

// clone deep-copies the record.
func (r *AuthorityRecord) clone() *AuthorityRecord {
	cp := *r
	if r.Termination != nil {
		term := *r.Termination
		cp.Termination = &term
	}
	return &cp
}

func nullableString(s string) canon.Value {
	if s == "" {
		return canon.Null{}
	}
	return canon.String(s)
}

// ConflictStatus is the state of a conflict record. The only transition
// is OPEN_BINDING -> OPEN_NONBINDING; termination is irreversible, so the
// reverse never occurs.
type ConflictStatus string

const (
	ConflictOpenBinding    ConflictStatus = "OPEN_BINDING"
	ConflictOpenNonbinding ConflictStatus = "OPEN_NONBINDING"
)

// ConflictRecord is a persistent registration of structural disagreement
// among covering authorities. Created once per first-detected disagreement
// and never deleted; only Status is recomputed afterwards.
type ConflictRecord struct {
	ConflictID   int64          `json:"conflict_id"`
	Participants []string       `json:"participants"` // sorted authority ids
	Status       ConflictStatus `json:"status"`
}

func (c *ConflictRecord) canonObject() canon.Object {
	parts := make(canon.Array, len(c.Participants))
	for i, p := range c.Participants {
		parts[i] = canon.String(p)
	}
	return canon.Object{
		"conflict_id":  canon.Int(c.ConflictID),
		"participants": parts,
		"status":       canon.String(c.Status),
	}
}

func (c *ConflictRecord) clone() *ConflictRecord {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}

// DeadlockCause classifies the derived global deadlock condition.
type DeadlockCause string

const (
	DeadlockNone           DeadlockCause = "NONE"
	DeadlockConflict       DeadlockCause = "CONFLICT"
	DeadlockEmptyAuthority DeadlockCause = "EMPTY_AUTHORITY"
	DeadlockMixed          DeadlockCause = "MIXED"
)
