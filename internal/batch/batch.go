package batch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/halcyard/akr/internal/kernel"
)

// Document is a parsed batch file: one run as a sequence of step batches.
type Document struct {
	// Run optionally names the run the file belongs to.
	Run string `yaml:"run,omitempty"`

	// Steps are submitted to the kernel one batch per step, in order.
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec is one step batch. Field order in the file is irrelevant; the
// kernel canonically orders inputs itself.
type StepSpec struct {
	EpochAdvance *EpochAdvanceSpec `yaml:"epoch_advance,omitempty"`
	Injections   []InjectionSpec   `yaml:"injections,omitempty"`
	Renewals     []RenewalSpec     `yaml:"renewals,omitempty"`
	Destructions []DestructionSpec `yaml:"destructions,omitempty"`
	Governance   []GovernanceSpec  `yaml:"governance,omitempty"`
	Actions      []ActionSpec      `yaml:"actions,omitempty"`
}

// EpochAdvanceSpec mirrors kernel.EpochAdvance.
type EpochAdvanceSpec struct {
	NewEpoch int64  `yaml:"new_epoch"`
	EventID  string `yaml:"event_id"`
	Nonce    string `yaml:"nonce"`
}

// InjectionSpec mirrors kernel.AuthorityInjection with a named vector.
type InjectionSpec struct {
	AuthorityID string   `yaml:"authority_id"`
	HolderID    string   `yaml:"holder_id"`
	Scope       string   `yaml:"scope"`
	Vector      []string `yaml:"vector"`
	StartEpoch  int64    `yaml:"start_epoch"`
	ExpiryEpoch int64    `yaml:"expiry_epoch"`
	Lineage     string   `yaml:"lineage,omitempty"`
}

// RenewalSpec mirrors kernel.AuthorityRenewalRequest.
type RenewalSpec struct {
	NewAuthorityID   string   `yaml:"new_authority_id"`
	HolderID         string   `yaml:"holder_id"`
	Scope            string   `yaml:"scope"`
	Vector           []string `yaml:"vector"`
	StartEpoch       int64    `yaml:"start_epoch"`
	ExpiryEpoch      int64    `yaml:"expiry_epoch"`
	PriorAuthorityID string   `yaml:"prior_authority_id,omitempty"`
	EventID          string   `yaml:"event_id"`
	AuthorizerID     string   `yaml:"authorizer_id"`
	Nonce            string   `yaml:"nonce"`
}

// DestructionSpec mirrors kernel.DestructionAuthorizationRequest.
type DestructionSpec struct {
	TargetIDs    []string `yaml:"target_ids,omitempty"`
	All          bool     `yaml:"all,omitempty"`
	ConflictID   int64    `yaml:"conflict_id"`
	AuthorizerID string   `yaml:"authorizer_id"`
	Nonce        string   `yaml:"nonce"`
}

// GovernanceSpec mirrors kernel.GovernanceActionRequest.
type GovernanceSpec struct {
	Type         string               `yaml:"type"`
	RequestID    string               `yaml:"request_id"`
	InitiatorIDs []string             `yaml:"initiator_ids"`
	TargetIDs    []string             `yaml:"target_ids,omitempty"`
	Scope        string               `yaml:"scope"`
	Params       GovernanceParamsSpec `yaml:"params,omitempty"`
}

// GovernanceParamsSpec mirrors kernel.GovernanceParams.
type GovernanceParamsSpec struct {
	NewAuthorityID string   `yaml:"new_authority_id,omitempty"`
	HolderID       string   `yaml:"holder_id,omitempty"`
	Scope          string   `yaml:"scope,omitempty"`
	Vector         []string `yaml:"vector,omitempty"`
	StartEpoch     int64    `yaml:"start_epoch,omitempty"`
	ExpiryEpoch    int64    `yaml:"expiry_epoch,omitempty"`
	Lineage        string   `yaml:"lineage,omitempty"`
	Nonce          string   `yaml:"nonce,omitempty"`
}

// ActionSpec mirrors kernel.ActionRequest with a named transformation.
type ActionSpec struct {
	RequestID      string `yaml:"request_id"`
	HolderID       string `yaml:"holder_id"`
	Scope          string `yaml:"scope"`
	Transformation string `yaml:"transformation_type"`
	Epoch          int64  `yaml:"epoch"`
	Nonce          string `yaml:"nonce"`
}

// Load reads, schema-validates, and parses a batch file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return Parse(data)
}

// Parse schema-validates and parses batch file bytes.
func Parse(data []byte) (*Document, error) {
	if errs := Validate(data); len(errs) > 0 {
		return nil, fmt.Errorf("batch file invalid: %s", errs[0])
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	return &doc, nil
}

// Batches converts the document to kernel input batches, one per step.
func (d *Document) Batches() ([][]kernel.Input, error) {
	batches := make([][]kernel.Input, 0, len(d.Steps))
	for i, step := range d.Steps {
		batch, err := step.batch()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func (s *StepSpec) batch() ([]kernel.Input, error) {
	var batch []kernel.Input

	if s.EpochAdvance != nil {
		batch = append(batch, kernel.EpochAdvance{
			NewEpoch: s.EpochAdvance.NewEpoch,
			EventID:  s.EpochAdvance.EventID,
			Nonce:    s.EpochAdvance.Nonce,
		})
	}
	for _, inj := range s.Injections {
		vec, err := kernel.ParseVector(inj.Vector)
		if err != nil {
			return nil, fmt.Errorf("injection %s: %w", inj.AuthorityID, err)
		}
		batch = append(batch, kernel.AuthorityInjection{
			AuthorityID: inj.AuthorityID,
			HolderID:    inj.HolderID,
			Scope:       inj.Scope,
			Vector:      vec,
			StartEpoch:  inj.StartEpoch,
			ExpiryEpoch: inj.ExpiryEpoch,
			Lineage:     inj.Lineage,
		})
	}
	for _, ren := range s.Renewals {
		vec, err := kernel.ParseVector(ren.Vector)
		if err != nil {
			return nil, fmt.Errorf("renewal %s: %w", ren.NewAuthorityID, err)
		}
		batch = append(batch, kernel.AuthorityRenewalRequest{
			NewAuthorityID:   ren.NewAuthorityID,
			HolderID:         ren.HolderID,
			Scope:            ren.Scope,
			Vector:           vec,
			StartEpoch:       ren.StartEpoch,
			ExpiryEpoch:      ren.ExpiryEpoch,
			PriorAuthorityID: ren.PriorAuthorityID,
			EventID:          ren.EventID,
			AuthorizerID:     ren.AuthorizerID,
			Nonce:            ren.Nonce,
		})
	}
	for _, des := range s.Destructions {
		batch = append(batch, kernel.DestructionAuthorizationRequest{
			TargetIDs:    des.TargetIDs,
			All:          des.All,
			ConflictID:   des.ConflictID,
			AuthorizerID: des.AuthorizerID,
			Nonce:        des.Nonce,
		})
	}
	for _, gov := range s.Governance {
		vec, err := kernel.ParseVector(gov.Params.Vector)
		if err != nil {
			return nil, fmt.Errorf("governance %s: %w", gov.RequestID, err)
		}
		batch = append(batch, kernel.GovernanceActionRequest{
			Type:         kernel.GovernanceType(gov.Type),
			RequestID:    gov.RequestID,
			InitiatorIDs: gov.InitiatorIDs,
			TargetIDs:    gov.TargetIDs,
			Scope:        gov.Scope,
			Params: kernel.GovernanceParams{
				NewAuthorityID: gov.Params.NewAuthorityID,
				HolderID:       gov.Params.HolderID,
				Scope:          gov.Params.Scope,
				Vector:         vec,
				StartEpoch:     gov.Params.StartEpoch,
				ExpiryEpoch:    gov.Params.ExpiryEpoch,
				Lineage:        gov.Params.Lineage,
				Nonce:          gov.Params.Nonce,
			},
		})
	}
	for _, act := range s.Actions {
		t, err := kernel.ParseTransformation(act.Transformation)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", act.RequestID, err)
		}
		batch = append(batch, kernel.ActionRequest{
			RequestID:      act.RequestID,
			HolderID:       act.HolderID,
			Scope:          act.Scope,
			Transformation: t,
			Epoch:          act.Epoch,
			Nonce:          act.Nonce,
		})
	}
	return batch, nil
}
