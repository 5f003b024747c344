// Package qerr defines the error kinds shared by the R-Sketch and M-Sketch
// families. Callers classify failures with errors.Is against the sentinels
// below rather than matching error strings.
package qerr

import "errors"

var (
	// ErrOutOfRange is returned when a queried quantile falls outside
	// [0, 1] or when a value falls outside a mapping's indexable domain.
	ErrOutOfRange = errors.New("quantile-sketches: value out of range")

	// ErrEmptySketch is returned by quantile() on a sketch that has
	// received no weight yet.
	ErrEmptySketch = errors.New("quantile-sketches: sketch is empty")

	// ErrIncompatible is returned by merge() when the two sketches were
	// built with incompatible configurations (differing mapping
	// parameters for R-Sketch, differing k for M-Sketch).
	ErrIncompatible = errors.New("quantile-sketches: incompatible sketch configuration")

	// ErrNumericNonConvergence is returned by the M-Sketch solver when
	// Newton iteration fails to converge even after the k-downgrade
	// fallback.
	ErrNumericNonConvergence = errors.New("quantile-sketches: numeric solver did not converge")

	// ErrInvalidConfig is returned by constructors given a configuration
	// that can never be satisfied (alpha outside (0,1), k < 4, negative
	// size cap, ...).
	ErrInvalidConfig = errors.New("quantile-sketches: invalid configuration")
)
