package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyard/akr/internal/batch"
)

// FileValidation holds the validation result for one batch file.
type FileValidation struct {
	Path   string                  `json:"path"`
	Valid  bool                    `json:"valid"`
	Errors []batch.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results across all files.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <batch-file>...",
		Short: "Validate batch files against the schema",
		Long: `Validate batch files against the embedded CUE schema without
submitting anything to a kernel.

Checks structure, field types, vector and transformation names, and
required fields. Faster than a dry run for authoring feedback.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (unreadable files, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read "+path, err)
		}
		formatter.VerboseLog("Validating %s", path)

		errs := batch.Validate(data)
		fv := FileValidation{Path: path, Valid: len(errs) == 0, Errors: errs}
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			response.Status = "error"
			response.Error = &CLIError{Code: "E_SCHEMA", Message: "batch validation failed"}
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
		if !result.Valid {
			return NewExitError(ExitFailure, "batch validation failed")
		}
		return nil
	}

	w := cmd.OutOrStdout()
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fv.Path)
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "batch validation failed")
	}
	return nil
}
