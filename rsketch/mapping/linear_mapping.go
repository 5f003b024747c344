// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2020 Datadog, Inc. for original work
// Copyright 2024 GraphMetrics for modifications

package mapping

import (
	"fmt"
	"math"
)

// LinearlyInterpolatedMapping approximates LogarithmicMapping by extracting
// the floor of log2 from a float64's binary representation and linearly
// interpolating within the mantissa, trading a small multiplicative
// distortion (absorbed into alpha) for removing the transcendental call
// from the hot path.
type LinearlyInterpolatedMapping struct {
	relativeAccuracy      float64
	multiplier            float64
	normalizedIndexOffset float64
}

func NewLinearlyInterpolatedMapping(relativeAccuracy float64) (*LinearlyInterpolatedMapping, error) {
	if relativeAccuracy <= 0 || relativeAccuracy >= 1 {
		return nil, fmt.Errorf("mapping: relative accuracy must be in (0, 1), got %v", relativeAccuracy)
	}
	return &LinearlyInterpolatedMapping{
		relativeAccuracy: relativeAccuracy,
		multiplier:       1.0 / math.Log1p(2*relativeAccuracy/(1-relativeAccuracy)),
	}, nil
}

func NewLinearlyInterpolatedMappingWithGamma(gamma, indexOffset float64) (*LinearlyInterpolatedMapping, error) {
	if gamma <= 1 {
		return nil, fmt.Errorf("mapping: gamma must be > 1, got %v", gamma)
	}
	m := &LinearlyInterpolatedMapping{
		relativeAccuracy: 1 - 2/(1+math.Exp(math.Log2(gamma))),
		multiplier:       1 / math.Log2(gamma),
	}
	m.normalizedIndexOffset = indexOffset - m.approximateLog(1)*m.multiplier
	return m, nil
}

func (m *LinearlyInterpolatedMapping) Kind() Kind { return LinearInterpolation }

func (m *LinearlyInterpolatedMapping) Equals(other IndexMapping) bool {
	o, ok := other.(*LinearlyInterpolatedMapping)
	if !ok {
		return false
	}
	const tol = 1e-12
	return withinTolerance(m.multiplier, o.multiplier, tol) &&
		withinTolerance(m.normalizedIndexOffset, o.normalizedIndexOffset, tol)
}

func (m *LinearlyInterpolatedMapping) Index(value float64) int {
	index := m.approximateLog(value)*m.multiplier + m.normalizedIndexOffset
	if index >= 0 {
		return int(index)
	}
	return int(index) - 1
}

func (m *LinearlyInterpolatedMapping) Value(index int) float64 {
	return m.approximateInverseLog((float64(index)-m.normalizedIndexOffset)/m.multiplier) * (1 + m.relativeAccuracy)
}

// approximateLog returns an approximation of log2(x), computed by
// decomposing x into exponent + (mantissa - 1).
func (m *LinearlyInterpolatedMapping) approximateLog(x float64) float64 {
	bits := math.Float64bits(x)
	return getExponent(bits) + getSignificandPlusOne(bits)
}

// approximateInverseLog is the exact inverse of approximateLog.
func (m *LinearlyInterpolatedMapping) approximateInverseLog(x float64) float64 {
	exponent := math.Floor(x)
	frac := x - exponent
	return buildFloat64(int(exponent), 1+frac)
}

func (m *LinearlyInterpolatedMapping) MinIndexableValue() float64 {
	return math.Max(
		math.Exp2((math.MinInt16-m.normalizedIndexOffset)/m.multiplier-m.approximateLog(1)+1),
		minNormalFloat64*(1+m.relativeAccuracy)/(1-m.relativeAccuracy),
	)
}

func (m *LinearlyInterpolatedMapping) MaxIndexableValue() float64 {
	return math.Min(
		math.Exp2((math.MaxInt16-m.normalizedIndexOffset)/m.multiplier-m.approximateLog(1)-1),
		math.Exp(expOverflow)/(1+m.relativeAccuracy),
	)
}

func (m *LinearlyInterpolatedMapping) RelativeAccuracy() float64 { return m.relativeAccuracy }

func (m *LinearlyInterpolatedMapping) String() string {
	return fmt.Sprintf("LinearlyInterpolatedMapping{relativeAccuracy: %v, multiplier: %v, normalizedIndexOffset: %v}",
		m.relativeAccuracy, m.multiplier, m.normalizedIndexOffset)
}
