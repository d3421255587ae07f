package sss

import (
	"errors"

	"nickandperla.net/sss/hensel"
)

var (
	ErrMalformedRecord      error = errors.New("malformed ship record")
	ErrInvalidRule          error = hensel.ErrInvalidRule
	ErrSimulationDivergence error = errors.New("pattern did not return to its start shape within the generation limit")
	ErrPersistenceFailure   error = errors.New("persistence failure")
	ErrEmptyPattern         error = errors.New("empty pattern")
	ErrNotPeriodic          error = errors.New("pattern is not periodic")
)
