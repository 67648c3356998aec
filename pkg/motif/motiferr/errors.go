// Package motiferr defines the error taxonomy shared by every stage of the
// motif-discovery engine: configuration, input, memory, accelerator and
// internal-invariant failures. Modeled on the teacher's HashError/ErrorType
// pair (pkg/hashing/core/sha256_canonical.go) plus its code-constant
// constructor style (internal/hasher/errors.go).
package motiferr

import "fmt"

// Kind classifies an Error for programmatic handling by callers.
type Kind int

const (
	// Config covers invalid δ/ε, k, min_count, batch_size, mixed feature
	// variants, or a missing filter_len for the Convolution case.
	Config Kind = iota
	// Input covers an empty input map after dropping empty sequences.
	Input
	// Memory covers fixed memory exceeding the target budget, or per-point
	// memory leaving less than min_batch room.
	Memory
	// Accelerator covers a GPU being requested but unavailable.
	Accelerator
	// InternalInvariant covers a check that should never fail, such as
	// k > L at combination time after the builder already validated it.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Input:
		return "InputError"
	case Memory:
		return "MemoryError"
	case Accelerator:
		return "AcceleratorError"
	case InternalInvariant:
		return "InternalInvariantError"
	default:
		return "UnknownError"
	}
}

// Error is the single structured error type returned across the engine's
// entry points. There is no partial-success mode: callers receive either a
// complete result or exactly one Error.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("motifsketch: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("motifsketch: %s: %s (%v)", e.Kind, e.Message, e.Context)
}

// New builds an Error of the given kind. ctx may be nil.
func New(kind Kind, message string, ctx map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: ctx}
}

// Is supports errors.Is by comparing Kind, matching the semantics of
// sentinel-error comparisons used for the taxonomy's five classes.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Configf builds a Config error with a formatted message.
func Configf(ctx map[string]any, format string, args ...any) *Error {
	return New(Config, fmt.Sprintf(format, args...), ctx)
}

// Inputf builds an Input error with a formatted message.
func Inputf(ctx map[string]any, format string, args ...any) *Error {
	return New(Input, fmt.Sprintf(format, args...), ctx)
}

// Memoryf builds a Memory error with a formatted message.
func Memoryf(ctx map[string]any, format string, args ...any) *Error {
	return New(Memory, fmt.Sprintf(format, args...), ctx)
}

// Acceleratorf builds an Accelerator error with a formatted message.
func Acceleratorf(ctx map[string]any, format string, args ...any) *Error {
	return New(Accelerator, fmt.Sprintf(format, args...), ctx)
}

// Internalf builds an InternalInvariant error with a formatted message.
func Internalf(ctx map[string]any, format string, args ...any) *Error {
	return New(InternalInvariant, fmt.Sprintf(format, args...), ctx)
}
