// Package protocol holds the round-tag vocabulary and the typed,
// culprit-carrying error shared by the DKG and signing engines, mirroring
// the teacher's tss/errors.go *Error.
package protocol

import (
	"fmt"
	"strings"
)

// Round tags, one per spec round; kept distinct per §9 design note (c):
// phase-5 sub-rounds never reuse a tag across variants.
const (
	RoundKeygen1 = "keygen1"
	RoundKeygen2 = "keygen2"
	RoundKeygen3 = "keygen3"
	RoundKeygen4 = "keygen4"
	RoundKeygen5 = "keygen5"

	RoundSignIdent = "sign0"
	RoundSign1     = "sign1"
	RoundSign2     = "sign2"
	RoundSign3     = "sign3"
	RoundSign4     = "sign4"
	RoundSign5     = "sign5"
	RoundSign6     = "sign6"
	RoundSign7     = "sign7"
	RoundSign8     = "sign8"
	RoundSign9     = "sign9"
)

// Error is a protocol-fatal failure, optionally attributing blame to one
// or more culprit party numbers (the teacher's tss.Error shape).
type Error struct {
	cause    error
	task     string
	round    string
	culprits []int
}

func NewError(cause error, task, round string, culprits ...int) *Error {
	return &Error{cause: cause, task: task, round: round, culprits: culprits}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: round %s failed: %v", e.task, e.round, e.cause)
	if len(e.culprits) > 0 {
		fmt.Fprintf(&b, " (culprits: %v)", e.culprits)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Culprits() []int { return e.culprits }

func (e *Error) Round() string { return e.round }
