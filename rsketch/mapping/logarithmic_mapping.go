// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2020 Datadog, Inc. for original work
// Copyright 2024 GraphMetrics for modifications

package mapping

import (
	"fmt"
	"math"
)

// LogarithmicMapping is the memory-optimal IndexMapping: for a given
// relative accuracy it requires the fewest indices to cover a value range,
// at the cost of a transcendental call (math.Log) per insert.
type LogarithmicMapping struct {
	relativeAccuracy      float64
	multiplier            float64
	normalizedIndexOffset float64
	minIndexableValue     float64
	maxIndexableValue     float64
}

func NewLogarithmicMapping(relativeAccuracy float64) (*LogarithmicMapping, error) {
	if relativeAccuracy <= 0 || relativeAccuracy >= 1 {
		return nil, fmt.Errorf("mapping: relative accuracy must be in (0, 1), got %v", relativeAccuracy)
	}
	m := &LogarithmicMapping{
		relativeAccuracy: relativeAccuracy,
		multiplier:       1 / math.Log1p(2*relativeAccuracy/(1-relativeAccuracy)),
	}
	m.minIndexableValue = m.computeMinIndexableValue()
	m.maxIndexableValue = m.computeMaxIndexableValue()
	return m, nil
}

// NewLogarithmicMappingWithGamma builds a mapping directly from a bucket
// ratio gamma = (1+alpha)/(1-alpha) and an index offset, bypassing the
// alpha->gamma derivation. Mostly useful to construct mappings that share
// an exact offset for merge compatibility tests.
func NewLogarithmicMappingWithGamma(gamma, indexOffset float64) (*LogarithmicMapping, error) {
	if gamma <= 1 {
		return nil, fmt.Errorf("mapping: gamma must be > 1, got %v", gamma)
	}
	m := &LogarithmicMapping{
		relativeAccuracy:      1 - 2/(1+gamma),
		multiplier:            1 / math.Log(gamma),
		normalizedIndexOffset: indexOffset,
	}
	m.minIndexableValue = m.computeMinIndexableValue()
	m.maxIndexableValue = m.computeMaxIndexableValue()
	return m, nil
}

func (m *LogarithmicMapping) Kind() Kind { return Logarithmic }

func (m *LogarithmicMapping) Equals(other IndexMapping) bool {
	o, ok := other.(*LogarithmicMapping)
	if !ok {
		return false
	}
	const tol = 1e-12
	return withinTolerance(m.multiplier, o.multiplier, tol) &&
		withinTolerance(m.normalizedIndexOffset, o.normalizedIndexOffset, tol)
}

func (m *LogarithmicMapping) Index(value float64) int {
	index := math.Log(value)*m.multiplier + m.normalizedIndexOffset
	if index >= 0 {
		return int(index)
	}
	return int(index) - 1 // faster than math.Floor
}

func (m *LogarithmicMapping) Value(index int) float64 {
	return math.Exp((float64(index)-m.normalizedIndexOffset)/m.multiplier) * (1 + m.relativeAccuracy)
}

func (m *LogarithmicMapping) RelativeAccuracy() float64 { return m.relativeAccuracy }

func (m *LogarithmicMapping) MinIndexableValue() float64 { return m.minIndexableValue }

func (m *LogarithmicMapping) computeMinIndexableValue() float64 {
	return math.Max(
		math.Exp((math.MinInt16-m.normalizedIndexOffset)/m.multiplier+1), // so that index >= MinInt16
		minNormalFloat64*(1+m.relativeAccuracy)/(1-m.relativeAccuracy),
	)
}

func (m *LogarithmicMapping) MaxIndexableValue() float64 { return m.maxIndexableValue }

func (m *LogarithmicMapping) computeMaxIndexableValue() float64 {
	return math.Min(
		math.Exp((math.MaxInt16-m.normalizedIndexOffset)/m.multiplier-1), // so that index <= MaxInt16
		math.Exp(expOverflow)/(1+m.relativeAccuracy),                     // so that math.Exp does not overflow
	)
}

func (m *LogarithmicMapping) String() string {
	return fmt.Sprintf("LogarithmicMapping{relativeAccuracy: %v, multiplier: %v, normalizedIndexOffset: %v}",
		m.relativeAccuracy, m.multiplier, m.normalizedIndexOffset)
}
