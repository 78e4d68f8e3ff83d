package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/rowgraph/internal/controller"
	"github.com/roach88/rowgraph/internal/schema"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeConfig    = "E002" // Config file or environment invalid
	ErrCodeNotFound  = "E005" // Path not found
	ErrCodeArguments = "E008" // Malformed command arguments

	// Definition errors
	ErrCodeDefinition = "E101" // CUE definition invalid
	ErrCodeLabel      = "E102" // Label or label column invalid
	ErrCodeProperty   = "E103" // Property invalid
	ErrCodeEndpoint   = "E104" // Edge endpoint columns invalid

	// Operation errors
	ErrCodeExists   = "E201" // Identity already present
	ErrCodeNoSchema = "E202" // No table holds the label
	ErrCodeUnmapped = "E203" // Property has no column
	ErrCodeStorage  = "E301" // Database failure

	// Scenario errors
	ErrCodeScenario = "E401" // One or more scenarios failed
)

// ErrArguments marks malformed command arguments.
var ErrArguments = errors.New("invalid arguments")

// LoadError represents a definition that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDefinitions reads the CUE table definitions at path and checks that
// they form a valid schema set.
func LoadDefinitions(path string) ([]schema.Definition, schema.Set, error) {
	defs, err := schema.Load(path)
	if err != nil {
		return nil, schema.Set{}, convertLoadError(err, path)
	}
	set, err := schema.NewSet(defs...)
	if err != nil {
		return nil, schema.Set{}, &LoadError{Code: ErrCodeDefinition, Message: err.Error()}
	}
	return defs, set, nil
}

// convertLoadError converts a schema error to a LoadError with position info.
func convertLoadError(err error, path string) *LoadError {
	var compileErr *schema.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema definitions not found: %s", path)}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapFieldToErrorCode maps a definition error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "label", field == "label_column":
		return ErrCodeLabel
	case field == "properties", strings.HasPrefix(field, "properties."):
		return ErrCodeProperty
	case field == "out", field == "in", field == "endpoint_type",
		strings.HasSuffix(field, "_label"), strings.HasPrefix(field, "out_"), strings.HasPrefix(field, "in_"):
		return ErrCodeEndpoint
	default:
		return ErrCodeDefinition
	}
}

// classifyError returns the error code and exit status for err.
//
// Refusals by the graph (duplicates, unknown labels, unmapped properties,
// bad definitions) exit with ExitFailure; everything else is a command
// error.
func classifyError(err error) (string, int) {
	var loadErr *LoadError
	var exitErr *ExitError
	switch {
	case errors.As(err, &loadErr):
		if loadErr.Code == ErrCodeNotFound {
			return loadErr.Code, ExitCommandError
		}
		return loadErr.Code, ExitFailure
	case errors.Is(err, controller.ErrAlreadyExists):
		return ErrCodeExists, ExitFailure
	case errors.Is(err, controller.ErrNoSchema):
		return ErrCodeNoSchema, ExitFailure
	case errors.Is(err, schema.ErrUnmappedProperty):
		return ErrCodeUnmapped, ExitFailure
	case errors.Is(err, schema.ErrMissingEndpoint), errors.Is(err, ErrArguments):
		return ErrCodeArguments, ExitCommandError
	case controller.IsStorageError(err):
		return ErrCodeStorage, ExitCommandError
	case errors.As(err, &exitErr):
		return ErrCodeGeneric, exitErr.Code
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}
