package engine

import (
	"errors"
	"fmt"
)

// RuleErrorCode categorizes engine errors.
type RuleErrorCode string

const (
	// ErrCodeRoundLimit indicates the driver hit its round limit before
	// reaching a fixed point.
	ErrCodeRoundLimit RuleErrorCode = "ROUND_LIMIT"
)

// RuleError is returned when a bounded engine operation stops early.
// The working set keeps every FD derived before the stop.
type RuleError struct {
	Code    RuleErrorCode
	Message string
	Rounds  int
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s (rounds=%d)", e.Code, e.Message, e.Rounds)
}

// IsRoundLimitError reports whether err is a round limit error.
// Uses errors.As to handle wrapped errors.
func IsRoundLimitError(err error) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRoundLimit
	}
	return false
}

func newRoundLimitError(rounds, limit int) *RuleError {
	return &RuleError{
		Code:    ErrCodeRoundLimit,
		Message: fmt.Sprintf("no fixed point after %d rounds", limit),
		Rounds:  rounds,
	}
}
