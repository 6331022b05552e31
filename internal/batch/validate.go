package batch

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one schema violation with its CUE path.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Validate checks batch file bytes against the embedded CUE schema.
// Returns all violations found, not just the first.
func Validate(data []byte) []ValidationError {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("not valid YAML: %v", err)}}
	}
	if raw == nil {
		return []ValidationError{{Message: "empty batch file"}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a build defect.
		return []ValidationError{{Message: fmt.Sprintf("internal schema error: %v", err)}}
	}

	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("not encodable: %v", err)}}
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var out []ValidationError
		for _, e := range cueerrors.Errors(err) {
			out = append(out, ValidationError{
				Path:    strings.Join(cueerrors.Path(e), "."),
				Message: e.Error(),
			})
		}
		return out
	}
	return nil
}
