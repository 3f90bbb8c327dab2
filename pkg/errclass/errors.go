// Package errclass defines stable, machine-readable error classes for the
// recorder. Lifecycle violations and not-found conditions are recoverable and
// reported through these classes rather than treated as fatal.
package errclass

import "fmt"

// RecorderError is a stable, machine-readable error class.
type RecorderError struct {
	Code    string
	Message string
}

func (e *RecorderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RecorderError) Is(target error) bool {
	t, ok := target.(*RecorderError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new RecorderError with the same Code but a specific message.
func (e *RecorderError) WithMessage(msg string) *RecorderError {
	return &RecorderError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new RecorderError with a formatted message.
func (e *RecorderError) WithMessagef(format string, args ...any) *RecorderError {
	return &RecorderError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrAlreadyActive     = &RecorderError{Code: "E_ALREADY_ACTIVE"}
	ErrNotRecording      = &RecorderError{Code: "E_NOT_RECORDING"}
	ErrAlreadyPaused     = &RecorderError{Code: "E_ALREADY_PAUSED"}
	ErrNotPaused         = &RecorderError{Code: "E_NOT_PAUSED"}
	ErrNotActive         = &RecorderError{Code: "E_NOT_ACTIVE"}
	ErrRecordingNotFound = &RecorderError{Code: "E_RECORDING_NOT_FOUND"}
	ErrNameInvalid       = &RecorderError{Code: "E_FOLDER_NAME_INVALID"}
	ErrPathEscape        = &RecorderError{Code: "E_PATH_ESCAPE"}
	ErrInstanceLocked    = &RecorderError{Code: "E_INSTANCE_LOCKED"}
	ErrMetadataCorrupt   = &RecorderError{Code: "E_METADATA_CORRUPT"}
	ErrAuditChainBroken  = &RecorderError{Code: "E_AUDIT_CHAIN_BROKEN"}
)
