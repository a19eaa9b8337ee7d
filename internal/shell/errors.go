package shell

import (
	"errors"
	"fmt"
)

// CommandErrorCode categorizes command failures.
type CommandErrorCode string

const (
	// ErrCodeUnknownCommand indicates an unrecognized command or missing
	// argument.
	ErrCodeUnknownCommand CommandErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeInvalidFD indicates a malformed FD in push.
	ErrCodeInvalidFD CommandErrorCode = "INVALID_FD"

	// ErrCodeInvalidAttrs indicates a malformed attribute list in closure.
	ErrCodeInvalidAttrs CommandErrorCode = "INVALID_ATTRS"

	// ErrCodeFileNotFound indicates load could not find its script.
	ErrCodeFileNotFound CommandErrorCode = "FILE_NOT_FOUND"

	// ErrCodeIO indicates a script could not be read or written.
	ErrCodeIO CommandErrorCode = "IO_ERROR"

	// ErrCodeImport indicates import could not load relations.
	ErrCodeImport CommandErrorCode = "IMPORT_FAILED"

	// ErrCodeLoadDepth indicates scripts loading each other too deeply.
	ErrCodeLoadDepth CommandErrorCode = "LOAD_DEPTH"

	// ErrCodeRoundLimit indicates apply-closure-rules hit the round limit.
	ErrCodeRoundLimit CommandErrorCode = "ROUND_LIMIT"
)

// CommandError reports a command that failed. The failure has already been
// printed to the session output and the working set is unchanged, except
// for ROUND_LIMIT where derived FDs are kept.
type CommandError struct {
	Code    CommandErrorCode
	Command string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Command, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Command, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsCommandError reports whether err is a *CommandError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCommandError(err error, code CommandErrorCode) bool {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
