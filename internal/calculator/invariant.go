package calculator

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is the sentinel for internal-consistency failures.
// It is never expected in correct code and must not be silently corrected.
var ErrInvariantViolation = errors.New("ledger invariant violated")

// InvariantError describes a failed internal-consistency check.
type InvariantError struct {
	// Invariant names the property that failed (e.g., "zero-sum").
	Invariant string
	// Detail describes the observed values.
	Detail string
}

// Error returns the formatted violation message.
func (e *InvariantError) Error() string {
	if e == nil {
		return ErrInvariantViolation.Error()
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvariantViolation, e.Invariant, e.Detail)
}

// Unwrap returns the sentinel so callers can use errors.Is.
func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

func invariantf(invariant, format string, args ...any) error {
	return &InvariantError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// CheckZeroSum returns an InvariantError unless the balances sum to exactly zero.
func CheckZeroSum(balances map[string]int64) error {
	var sum int64
	for member, b := range balances {
		next, ok := addChecked(sum, b)
		if !ok {
			return invariantf("zero-sum", "overflow adding balance of %s", member)
		}
		sum = next
	}
	if sum != 0 {
		return invariantf("zero-sum", "balances sum to %d", sum)
	}
	return nil
}

// addChecked adds a and b, reporting false on int64 overflow.
func addChecked(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}
