// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2020 Datadog, Inc. for original work
// Copyright 2024 GraphMetrics for modifications

// Package mapping implements the value<->bucket-index IndexMapping
// contract of the relative-error sketch (spec §4.1): a pure function
// gamma: R+ -> Z such that consecutive buckets cover a geometric range of
// ratio (1+alpha)/(1-alpha).
package mapping

import (
	"math"
	"strconv"
)

const (
	// expOverflow is the value past which math.Exp overflows to +Inf.
	expOverflow = 7.094361393031e+02
	// minNormalFloat64 is the smallest positive normal float64, 2^-1022.
	minNormalFloat64 = 2.2250738585072014e-308
)

// Kind identifies one of the three concrete IndexMapping implementations
// named in spec §4.1.
type Kind int

const (
	Logarithmic Kind = iota
	LinearInterpolation
	CubicInterpolation
)

func (k Kind) String() string {
	switch k {
	case Logarithmic:
		return "logarithmic"
	case LinearInterpolation:
		return "linear_interp"
	case CubicInterpolation:
		return "cubic_interp"
	default:
		return "unknown"
	}
}

// IndexMapping maps positive reals to bucket indices and back such that
// value(index(x)) is within the mapping's relative accuracy of x.
type IndexMapping interface {
	// Equals reports whether other was built with the same effective
	// (gamma, index-offset) parameters, i.e. the two mappings are
	// interchangeable for merge purposes.
	Equals(other IndexMapping) bool
	// Index returns the bucket index for a strictly positive value.
	Index(value float64) int
	// Value returns a representative value for a bucket index; it
	// satisfies value(index(x)) in [x/(1+alpha), x*(1+alpha)].
	Value(index int) float64
	// RelativeAccuracy returns the configured alpha.
	RelativeAccuracy() float64
	// MinIndexableValue and MaxIndexableValue bound the positive domain
	// this mapping can index without overflowing the int index range or
	// the underlying floating-point representation.
	MinIndexableValue() float64
	MaxIndexableValue() float64
	// Kind identifies the concrete implementation, used by the R-Sketch
	// controller to decide merge compatibility and by constructors that
	// need to recreate a mapping of the same kind.
	Kind() Kind
}

// New builds an IndexMapping of the requested kind with the given
// relative accuracy. alpha must be in (0, 1).
func New(kind Kind, relativeAccuracy float64) (IndexMapping, error) {
	switch kind {
	case Logarithmic:
		return NewLogarithmicMapping(relativeAccuracy)
	case LinearInterpolation:
		return NewLinearlyInterpolatedMapping(relativeAccuracy)
	case CubicInterpolation:
		return NewCubicallyInterpolatedMapping(relativeAccuracy)
	default:
		return nil, errInvalidKind(kind)
	}
}

func errInvalidKind(kind Kind) error {
	return &invalidKindError{kind: kind}
}

type invalidKindError struct{ kind Kind }

func (e *invalidKindError) Error() string {
	return "mapping: unknown kind " + strconv.Itoa(int(e.kind))
}

// withinTolerance reports whether x and y are equal up to a relative (or,
// near zero, absolute) tolerance. Used by Equals implementations since
// mapping parameters are derived through transcendental functions and
// should not be compared bit-exactly.
func withinTolerance(x, y, tolerance float64) bool {
	if x == 0 || y == 0 {
		return math.Abs(x) <= tolerance && math.Abs(y) <= tolerance
	}
	return math.Abs(x-y) <= tolerance*math.Max(math.Abs(x), math.Abs(y))
}
