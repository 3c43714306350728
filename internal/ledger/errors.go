package ledger

import "errors"

// ErrInvariantViolation is returned when a split's balance deltas fail to
// sum to zero. It is fatal for the group's replay: the transaction is rolled
// back and the caller must halt further mutations for the group.
var ErrInvariantViolation = errors.New("balance conservation violated")

// ValidationError reports malformed mutation arguments. Mutations failing
// validation are dropped permanently, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid mutation: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
