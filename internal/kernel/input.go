package kernel

import (
	"sort"

	"github.com/halcyard/akr/internal/canon"
)

// InputKind discriminates step-batch input types.
type InputKind string

const (
	InputEpochAdvance    InputKind = "EPOCH_ADVANCE"
	InputInjection       InputKind = "AUTHORITY_INJECTION"
	InputRenewal         InputKind = "AUTHORITY_RENEWAL_REQUEST"
	InputDestructionAuth InputKind = "DESTRUCTION_AUTHORIZATION_REQUEST"
	InputGovernance      InputKind = "GOVERNANCE_ACTION_REQUEST"
	InputAction          InputKind = "ACTION_REQUEST"
)

// Input is one element of a step batch. The kernel never trusts arrival
// order: inputs sort by the fixed tuple (epoch, sorted initiator ids,
// sorted target ids, action-type identifier, hash of parameters).
type Input interface {
	Kind() InputKind

	// sortEpoch, initiators, targets, and typeID supply the first four
	// components of the canonical ordering tuple.
	sortEpoch() int64
	initiators() []string
	targets() []string
	typeID() int

	// paramsObject enumerates the input's parameters for the tuple's hash
	// component.
	paramsObject() canon.Object
}

// EpochAdvance moves the kernel to a strictly greater epoch and triggers
// eager expiry. At most one is accepted per step batch.
type EpochAdvance struct {
	NewEpoch int64  `json:"new_epoch" yaml:"new_epoch"`
	EventID  string `json:"event_id" yaml:"event_id"`
	Nonce    string `json:"nonce" yaml:"nonce"`
}

func (a EpochAdvance) Kind() InputKind      { return InputEpochAdvance }
func (a EpochAdvance) sortEpoch() int64     { return a.NewEpoch }
func (a EpochAdvance) initiators() []string { return nil }
func (a EpochAdvance) targets() []string    { return nil }
func (a EpochAdvance) typeID() int          { return 0 }

func (a EpochAdvance) paramsObject() canon.Object {
	return canon.Object{
		"new_epoch": canon.Int(a.NewEpoch),
		"event_id":  canon.String(a.EventID),
		"nonce":     canon.String(a.Nonce),
	}
}

// AuthorityInjection introduces an externally constructed authority record.
// Trace-only: it emits no output event but consumes one event index.
type AuthorityInjection struct {
	AuthorityID string       `json:"authority_id" yaml:"authority_id"`
	HolderID    string       `json:"holder_id" yaml:"holder_id"`
	Scope       string       `json:"scope" yaml:"scope"`
	Vector      ActionVector `json:"vector" yaml:"vector"`
	StartEpoch  int64        `json:"start_epoch" yaml:"start_epoch"`
	ExpiryEpoch int64        `json:"expiry_epoch" yaml:"expiry_epoch"`
	Lineage     string       `json:"lineage,omitempty" yaml:"lineage,omitempty"`
}

func (a AuthorityInjection) Kind() InputKind      { return InputInjection }
func (a AuthorityInjection) sortEpoch() int64     { return a.StartEpoch }
func (a AuthorityInjection) initiators() []string { return []string{a.HolderID} }
func (a AuthorityInjection) targets() []string    { return []string{a.AuthorityID} }
func (a AuthorityInjection) typeID() int          { return 1 }

func (a AuthorityInjection) paramsObject() canon.Object {
	return canon.Object{
		"authority_id": canon.String(a.AuthorityID),
		"holder_id":    canon.String(a.HolderID),
		"scope":        canon.String(a.Scope),
		"vector":       canon.Int(a.Vector),
		"start_epoch":  canon.Int(a.StartEpoch),
		"expiry_epoch": canon.Int(a.ExpiryEpoch),
		"lineage":      nullableString(a.Lineage),
	}
}

// AuthorityRenewalRequest creates a brand-new authority with an optional
// non-privileging lineage pointer to a prior record. The prior id must
// exist in some status, or the run is invalid. Renewal confers no
// inherited force: the new record is evaluated exactly as a fresh
// injection would be.
type AuthorityRenewalRequest struct {
	NewAuthorityID   string       `json:"new_authority_id" yaml:"new_authority_id"`
	HolderID         string       `json:"holder_id" yaml:"holder_id"`
	Scope            string       `json:"scope" yaml:"scope"`
	Vector           ActionVector `json:"vector" yaml:"vector"`
	StartEpoch       int64        `json:"start_epoch" yaml:"start_epoch"`
	ExpiryEpoch      int64        `json:"expiry_epoch" yaml:"expiry_epoch"`
	PriorAuthorityID string       `json:"prior_authority_id,omitempty" yaml:"prior_authority_id,omitempty"`
	EventID          string       `json:"event_id" yaml:"event_id"`
	AuthorizerID     string       `json:"authorizer_id" yaml:"authorizer_id"`
	Nonce            string       `json:"nonce" yaml:"nonce"`
}

func (a AuthorityRenewalRequest) Kind() InputKind      { return InputRenewal }
func (a AuthorityRenewalRequest) sortEpoch() int64     { return a.StartEpoch }
func (a AuthorityRenewalRequest) initiators() []string { return []string{a.AuthorizerID} }
func (a AuthorityRenewalRequest) targets() []string    { return []string{a.NewAuthorityID} }
func (a AuthorityRenewalRequest) typeID() int          { return 2 }

func (a AuthorityRenewalRequest) paramsObject() canon.Object {
	return canon.Object{
		"new_authority_id":   canon.String(a.NewAuthorityID),
		"holder_id":          canon.String(a.HolderID),
		"scope":              canon.String(a.Scope),
		"vector":             canon.Int(a.Vector),
		"start_epoch":        canon.Int(a.StartEpoch),
		"expiry_epoch":       canon.Int(a.ExpiryEpoch),
		"prior_authority_id": nullableString(a.PriorAuthorityID),
		"event_id":           canon.String(a.EventID),
		"nonce":              canon.String(a.Nonce),
	}
}

// DestructionAuthorizationRequest is an externally supplied, unambiguous
// instruction to terminate authority. The kernel never chooses what to
// destroy. At most one authorization is honored per run.
type DestructionAuthorizationRequest struct {
	// TargetIDs names specific authorities; All targets every participant
	// of the referenced conflict instead.
	TargetIDs    []string `json:"target_ids,omitempty" yaml:"target_ids,omitempty"`
	All          bool     `json:"all,omitempty" yaml:"all,omitempty"`
	ConflictID   int64    `json:"conflict_id" yaml:"conflict_id"`
	AuthorizerID string   `json:"authorizer_id" yaml:"authorizer_id"`
	Nonce        string   `json:"nonce" yaml:"nonce"`
}

func (a DestructionAuthorizationRequest) Kind() InputKind      { return InputDestructionAuth }
func (a DestructionAuthorizationRequest) sortEpoch() int64     { return 0 }
func (a DestructionAuthorizationRequest) initiators() []string { return []string{a.AuthorizerID} }

func (a DestructionAuthorizationRequest) targets() []string {
	if a.All {
		return []string{"ALL"}
	}
	return append([]string(nil), a.TargetIDs...)
}

func (a DestructionAuthorizationRequest) typeID() int { return 3 }

func (a DestructionAuthorizationRequest) paramsObject() canon.Object {
	targets := make(canon.Array, 0, len(a.TargetIDs))
	for _, t := range sortedCopy(a.TargetIDs) {
		targets = append(targets, canon.String(t))
	}
	return canon.Object{
		"target_ids":    targets,
		"all":           canon.Bool(a.All),
		"conflict_id":   canon.Int(a.ConflictID),
		"authorizer_id": canon.String(a.AuthorizerID),
		"nonce":         canon.String(a.Nonce),
	}
}

// GovernanceType selects a governance transformation.
type GovernanceType string

const (
	GovernanceCreate  GovernanceType = "CREATE_AUTHORITY"
	GovernanceDestroy GovernanceType = "DESTROY_AUTHORITY"
)

// GovernanceParams carries the parameters of a governance action. For
// CREATE_AUTHORITY they describe the record to create; for
// DESTROY_AUTHORITY only Nonce is consulted.
type GovernanceParams struct {
	NewAuthorityID string       `json:"new_authority_id,omitempty" yaml:"new_authority_id,omitempty"`
	HolderID       string       `json:"holder_id,omitempty" yaml:"holder_id,omitempty"`
	Scope          string       `json:"scope,omitempty" yaml:"scope,omitempty"`
	Vector         ActionVector `json:"vector,omitempty" yaml:"vector,omitempty"`
	StartEpoch     int64        `json:"start_epoch,omitempty" yaml:"start_epoch,omitempty"`
	ExpiryEpoch    int64        `json:"expiry_epoch,omitempty" yaml:"expiry_epoch,omitempty"`
	Lineage        string       `json:"lineage,omitempty" yaml:"lineage,omitempty"`
	Nonce          string       `json:"nonce,omitempty" yaml:"nonce,omitempty"`
}

// GovernanceActionRequest is an authority-bound transformation whose
// target is authority state itself. It is evaluated through the ordinary
// admissibility path; there is no privileged route.
type GovernanceActionRequest struct {
	Type         GovernanceType   `json:"type" yaml:"type"`
	RequestID    string           `json:"request_id" yaml:"request_id"`
	InitiatorIDs []string         `json:"initiator_ids" yaml:"initiator_ids"`
	TargetIDs    []string         `json:"target_ids,omitempty" yaml:"target_ids,omitempty"`
	// Scope is the resource scope the action is admitted under.
	Scope  string           `json:"scope" yaml:"scope"`
	Params GovernanceParams `json:"params" yaml:"params"`
}

func (a GovernanceActionRequest) Kind() InputKind      { return InputGovernance }
func (a GovernanceActionRequest) sortEpoch() int64     { return 0 }
func (a GovernanceActionRequest) initiators() []string { return sortedCopy(a.InitiatorIDs) }
func (a GovernanceActionRequest) targets() []string    { return sortedCopy(a.TargetIDs) }

func (a GovernanceActionRequest) typeID() int {
	if a.Type == GovernanceDestroy {
		return 4
	}
	return 5
}

func (a GovernanceActionRequest) paramsObject() canon.Object {
	return canon.Object{
		"type":       canon.String(a.Type),
		"request_id": canon.String(a.RequestID),
		"scope":      canon.String(a.Scope),
		"params": canon.Object{
			"new_authority_id": canon.String(a.Params.NewAuthorityID),
			"holder_id":        canon.String(a.Params.HolderID),
			"scope":            canon.String(a.Params.Scope),
			"vector":           canon.Int(a.Params.Vector),
			"start_epoch":      canon.Int(a.Params.StartEpoch),
			"expiry_epoch":     canon.Int(a.Params.ExpiryEpoch),
			"lineage":          nullableString(a.Params.Lineage),
			"nonce":            canon.String(a.Params.Nonce),
		},
	}
}

// ActionRequest proposes an ordinary resource transformation.
type ActionRequest struct {
	RequestID      string         `json:"request_id" yaml:"request_id"`
	HolderID       string         `json:"holder_id" yaml:"holder_id"`
	Scope          string         `json:"scope" yaml:"scope"`
	Transformation Transformation `json:"transformation_type" yaml:"transformation_type"`
	Epoch          int64          `json:"epoch" yaml:"epoch"`
	Nonce          string         `json:"nonce" yaml:"nonce"`
}

func (a ActionRequest) Kind() InputKind      { return InputAction }
func (a ActionRequest) sortEpoch() int64     { return a.Epoch }
func (a ActionRequest) initiators() []string { return []string{a.HolderID} }
func (a ActionRequest) targets() []string    { return nil }
func (a ActionRequest) typeID() int          { return 6 + int(a.Transformation) }

func (a ActionRequest) paramsObject() canon.Object {
	return canon.Object{
		"request_id":          canon.String(a.RequestID),
		"holder_id":           canon.String(a.HolderID),
		"scope":               canon.String(a.Scope),
		"transformation_type": canon.Int(a.Transformation),
		"epoch":               canon.Int(a.Epoch),
		"nonce":               canon.String(a.Nonce),
	}
}

func sortedCopy(ids []string) []string {
	cp := append([]string(nil), ids...)
	sort.Strings(cp)
	return cp
}

// sortedInput pairs an input with its precomputed ordering tuple.
type sortedInput struct {
	input      Input
	epoch      int64
	initiators string
	targets    string
	typeID     int
	paramsHash string
}

// canonicalOrder sorts a batch by the fixed tuple. Arrival order never
// influences the result.
func canonicalOrder(batch []Input) ([]sortedInput, error) {
	out := make([]sortedInput, 0, len(batch))
	for _, in := range batch {
		hash, err := canon.ParamsHash(in.paramsObject())
		if err != nil {
			return nil, malformedInputError("input parameters are not canonically encodable: " + err.Error())
		}
		out = append(out, sortedInput{
			input:      in,
			epoch:      in.sortEpoch(),
			initiators: joinIDs(in.initiators()),
			targets:    joinIDs(in.targets()),
			typeID:     in.typeID(),
			paramsHash: hash,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.epoch != b.epoch {
			return a.epoch < b.epoch
		}
		if a.initiators != b.initiators {
			return a.initiators < b.initiators
		}
		if a.targets != b.targets {
			return a.targets < b.targets
		}
		if a.typeID != b.typeID {
			return a.typeID < b.typeID
		}
		return a.paramsHash < b.paramsHash
	})
	return out, nil
}

func joinIDs(ids []string) string {
	sorted := sortedCopy(ids)
	joined := ""
	for i, id := range sorted {
		if i > 0 {
			joined += "\x00"
		}
		joined += id
	}
	return joined
}
