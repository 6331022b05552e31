package journal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/halcyard/akr/internal/kernel"
)

// taggedInput is the persisted envelope for one batch input.
type taggedInput struct {
	Kind  kernel.InputKind `json:"kind"`
	Input json.RawMessage  `json:"input"`
}

// EncodeBatch serializes a batch to the journal's JSON form. The batch is
// stored as submitted; canonical ordering is the kernel's job on both the
// original run and every replay, so arrival order in the journal is
// harmless.
func EncodeBatch(batch []kernel.Input) (string, error) {
	tagged := make([]taggedInput, len(batch))
	for i, in := range batch {
		raw, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("encode input %d: %w", i, err)
		}
		tagged[i] = taggedInput{Kind: in.Kind(), Input: raw}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tagged); err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodeBatch parses the journal's JSON form back into kernel inputs.
func DecodeBatch(data string) ([]kernel.Input, error) {
	var tagged []taggedInput
	if err := json.Unmarshal([]byte(data), &tagged); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	batch := make([]kernel.Input, len(tagged))
	for i, t := range tagged {
		in, err := decodeInput(t)
		if err != nil {
			return nil, fmt.Errorf("decode input %d: %w", i, err)
		}
		batch[i] = in
	}
	return batch, nil
}

func decodeInput(t taggedInput) (kernel.Input, error) {
	switch t.Kind {
	case kernel.InputEpochAdvance:
		var in kernel.EpochAdvance
		return in, json.Unmarshal(t.Input, &in)
	case kernel.InputInjection:
		var in kernel.AuthorityInjection
		return in, json.Unmarshal(t.Input, &in)
	case kernel.InputRenewal:
		var in kernel.AuthorityRenewalRequest
		return in, json.Unmarshal(t.Input, &in)
	case kernel.InputDestructionAuth:
		var in kernel.DestructionAuthorizationRequest
		return in, json.Unmarshal(t.Input, &in)
	case kernel.InputGovernance:
		var in kernel.GovernanceActionRequest
		return in, json.Unmarshal(t.Input, &in)
	case kernel.InputAction:
		var in kernel.ActionRequest
		return in, json.Unmarshal(t.Input, &in)
	default:
		return nil, fmt.Errorf("unknown input kind %q", t.Kind)
	}
}

// EncodeOutputs joins canonical output events into a JSON array. Each
// event is already canonical JSON, so a plain join preserves the exact
// bytes the chain was computed over.
func EncodeOutputs(outputs []kernel.Output) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, o := range outputs {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := kernel.EncodeOutput(o)
		if err != nil {
			return "", fmt.Errorf("encode output %d: %w", i, err)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// DecodeOutputs splits a stored output array back into the canonical
// bytes of each event.
func DecodeOutputs(data string) ([]json.RawMessage, error) {
	var events []json.RawMessage
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	return events, nil
}
