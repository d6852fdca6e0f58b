package cirno

import (
	"errors"
	"fmt"
)

// ErrFuelExhausted is returned by Machine.Run when the step budget runs out
// before the term reaches normal form.
var ErrFuelExhausted = errors.New("fuel exhausted")

// StuckError reports a term whose shape no evaluation rule accepts, such as
// branching on a string or taking the predecessor of zero. Eval panics with
// it; TryEval and Machine return it.
type StuckError struct {
	Op   string // operation that rejected the term, e.g. "if" or "pred"
	Want string // shape the operation required
	Term *Term  // offending term (already evaluated where applicable)
}

func (e *StuckError) Error() string {
	if e.Term == nil {
		return fmt.Sprintf("%s: expected %s", e.Op, e.Want)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Want, e.Term)
}

func stuck(op, want string, t *Term) *StuckError {
	return &StuckError{Op: op, Want: want, Term: t}
}
