// Package errors provides structured error types for the Skein engine.
// These errors provide context about what operation failed and where.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindPermission
	KindIO
	KindConfig
	KindBackend
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindPermission:
		return "permission denied"
	case KindIO:
		return "I/O error"
	case KindConfig:
		return "configuration error"
	case KindBackend:
		return "backend error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for Skein.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Session errors
func SessionNotFound(id string) error {
	return E(Op("state.Session"), KindNotFound, fmt.Sprintf("session %s not found", id))
}

func WorktreeNotFound(id string) error {
	return E(Op("state.Worktree"), KindNotFound, fmt.Sprintf("worktree %s not found", id))
}

// Record errors
func IndexLoadFailed(worktreeID string, err error) error {
	return E(Op("storage.LoadIndex"), KindIO, fmt.Sprintf("failed to load index for worktree %s", worktreeID), err)
}

func IndexSaveFailed(worktreeID string, err error) error {
	return E(Op("storage.SaveIndex"), KindIO, fmt.Sprintf("failed to save index for worktree %s", worktreeID), err)
}

func MetadataLoadFailed(sessionID string, err error) error {
	return E(Op("storage.LoadMetadata"), KindIO, fmt.Sprintf("failed to load metadata for session %s", sessionID), err)
}

func MetadataSaveFailed(sessionID string, err error) error {
	return E(Op("storage.SaveMetadata"), KindIO, fmt.Sprintf("failed to save metadata for session %s", sessionID), err)
}

func UIStateLoadFailed(err error) error {
	return E(Op("storage.LoadUIState"), KindIO, "failed to load UI state", err)
}

func UIStateSaveFailed(err error) error {
	return E(Op("storage.SaveUIState"), KindIO, "failed to save UI state", err)
}

// Config errors
func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigSaveFailed(path string, err error) error {
	return E(Op("config.Save"), KindConfig, fmt.Sprintf("failed to save config to %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindInvalid, reason)
}

// Backend errors
func BackendStreamFailed(sessionID string, err error) error {
	return E(Op("backend.Stream"), KindBackend, fmt.Sprintf("stream failed for session %s", sessionID), err)
}

func ProviderUnknown(name string) error {
	return E(Op("backend.ParseProvider"), KindInvalid, fmt.Sprintf("unknown provider %q", name))
}
