package model

import (
	"errors"
	"fmt"
)

// Error kinds raised by instance construction and the branching schemes.
// These are sentinel values; callers compare with errors.Is after a wrap.
var (
	// ErrConfiguration marks a problem with instance/parameter construction:
	// a missing mandatory column, a non-positive dimension, copies_min > copies,
	// or an OpenDimension* objective given more than one bin type.
	ErrConfiguration = errors.New("configuration error")

	// ErrInfeasible marks a branching-scheme invariant violation: a successor
	// node computed negative waste, or a solution's extent disagreed with the
	// node it was built from. This signals a bug in the scheme, not bad input.
	ErrInfeasible = errors.New("infeasibility assertion")

	// ErrUnsupportedObjective marks a branching scheme asked to compare or
	// bound nodes for an objective it does not implement.
	ErrUnsupportedObjective = errors.New("unsupported objective")

	// ErrSolverUnavailable marks an external solver missing at runtime. The
	// caller should fall back to an empty solution pool rather than abort.
	ErrSolverUnavailable = errors.New("external solver unavailable")
)

// ConfigError wraps ErrConfiguration with context about which field failed.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConfiguration)
}

// InfeasibleError wraps ErrInfeasible with context about which node failed.
func InfeasibleError(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInfeasible)
}
