// FILE: lixenwraith/layerconf/errors.go
package layerconf

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions callers commonly branch on
var (
	// ErrConfigNotFound indicates a configuration file candidate does not exist
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrCLIParse indicates the command-line arguments could not be parsed
	ErrCLIParse = errors.New("failed to parse command-line arguments")
	// ErrCyclicExtends indicates an extends chain refers back to one of its own files
	ErrCyclicExtends = errors.New("cyclic extends detected")
	// ErrUnsupportedFormat indicates no decoder is registered for a file
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	// ErrValueSize indicates an environment value exceeds MaxValueSize
	ErrValueSize = errors.New("value exceeds maximum size")
	// ErrPathTraversal indicates a path leaves the directory it must stay in
	ErrPathTraversal = errors.New("potential path traversal detected")
	// ErrFileOwnership indicates a file is not owned by the effective user
	ErrFileOwnership = errors.New("file not owned by current user")
)

// CliParsingError wraps a failure to parse command-line arguments.
// It is propagated to the caller for usage display and never takes part in merging.
type CliParsingError struct {
	Err error
}

func (e *CliParsingError) Error() string {
	return fmt.Sprintf("failed to parse command-line arguments: %v", e.Err)
}

func (e *CliParsingError) Unwrap() error { return e.Err }

// Is reports ErrCLIParse as matching any CliParsingError.
func (e *CliParsingError) Is(target error) bool { return target == ErrCLIParse }

// FileError reports a configuration file that could not be opened, read or decoded.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("configuration file error in '%s': %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// CycleError lists the files participating in an extends cycle, in visit order.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicExtends, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCyclicExtends }

// GatheringError reports a non-file source that failed before merging could start.
type GatheringError struct {
	Source string
	Err    error
}

func (e *GatheringError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to gather configuration: %v", e.Err)
	}
	return fmt.Sprintf("failed to gather configuration from %s: %v", e.Source, e.Err)
}

func (e *GatheringError) Unwrap() error { return e.Err }

// MergeError reports a shape or type mismatch while combining layers.
// A merge that fails never yields a partial result.
type MergeError struct {
	FieldPath string
	Err       error
}

func (e *MergeError) Error() string {
	if e.FieldPath == "" {
		return fmt.Sprintf("failed to merge configuration: %v", e.Err)
	}
	return fmt.Sprintf("failed to merge configuration at '%s': %v", e.FieldPath, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// ValidationError reports a post-merge business rule violation.
type ValidationError struct {
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed for '%s': %s", e.Key, e.Message)
}

// AggregateError bundles independent failures so they can be fixed in one pass.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("multiple configuration errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n%d: %v", i+1, err)
	}
	return b.String()
}

// Unwrap exposes the bundled errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// SubcommandError attaches a subcommand's identity to a failure in its scoped load.
type SubcommandError struct {
	Name string
	Err  error
}

func (e *SubcommandError) Error() string {
	return fmt.Sprintf("subcommand '%s': %v", e.Name, e.Err)
}

func (e *SubcommandError) Unwrap() error { return e.Err }

// Aggregate combines errors for reporting.
// It returns nil for no errors, the error itself for exactly one,
// and an *AggregateError for two or more. Nil entries are ignored.
func Aggregate(errs ...error) error {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}

	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return &AggregateError{Errors: filtered}
	}
}
