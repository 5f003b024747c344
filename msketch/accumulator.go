// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

// Package msketch implements the moment-based quantile sketch (spec §4.4-
// §4.6): a MomentAccumulator that tracks raw power sums over a log-
// transformed domain, a MaxEntropySolver that reconstructs a density from
// those moments by damped Newton iteration on the convex dual in a
// Chebyshev basis, and a CDFInverter that integrates and inverts the
// reconstructed density at query time.
package msketch

import (
	"fmt"
	"math"

	"github.com/graphmetrics/quantile-sketches/qerr"
)

// MomentAccumulator maintains the first k power sums Σ w*x^j (and,
// optionally, Σ w*(log x)^j) of an unbounded stream, deferring all basis
// changes to MaxEntropySolver at query time (spec §4.4).
type MomentAccumulator struct {
	k            int
	powerSums    []float64
	logPowerSums []float64
	enabledLogs  bool // permanently cleared on the first non-positive sample

	min, max       float64
	logMin, logMax float64
	totalWeight    float64
	sum            float64
}

// NewMomentAccumulator builds an empty accumulator for k in [4, 20]. If
// logMode is requested, log-moments are maintained until (if ever) a
// non-positive sample disables them permanently.
func NewMomentAccumulator(k int, logMode bool) (*MomentAccumulator, error) {
	if k < 4 || k > 20 {
		return nil, fmt.Errorf("msketch: k=%d outside [4,20]: %w", k, qerr.ErrInvalidConfig)
	}
	return &MomentAccumulator{
		k:            k,
		powerSums:    make([]float64, k),
		logPowerSums: make([]float64, k),
		enabledLogs:  logMode,
		min:          math.Inf(1),
		max:          math.Inf(-1),
		logMin:       math.Inf(1),
		logMax:       math.Inf(-1),
	}, nil
}

// K returns the configured moment order.
func (a *MomentAccumulator) K() int { return a.k }

// LogEnabled reports whether log-moments are still being maintained.
func (a *MomentAccumulator) LogEnabled() bool { return a.enabledLogs }

func (a *MomentAccumulator) Insert(x, w float64) error {
	if w < 0 {
		return fmt.Errorf("msketch: negative weight %v: %w", w, qerr.ErrInvalidConfig)
	}
	if w == 0 {
		return nil
	}

	xp := 1.0
	for j := 0; j < a.k; j++ {
		a.powerSums[j] += w * xp
		xp *= x
	}

	if a.enabledLogs {
		if x > 0 {
			lx := math.Log(x)
			lp := 1.0
			for j := 0; j < a.k; j++ {
				a.logPowerSums[j] += w * lp
				lp *= lx
			}
			if lx < a.logMin {
				a.logMin = lx
			}
			if lx > a.logMax {
				a.logMax = lx
			}
		} else {
			a.enabledLogs = false
		}
	}

	a.totalWeight += w
	a.sum += w * x
	if x < a.min {
		a.min = x
	}
	if x > a.max {
		a.max = x
	}
	return nil
}

// Merge folds other into a. Log-moments stay enabled only if both sides
// had them enabled (spec §4.4).
func (a *MomentAccumulator) Merge(other *MomentAccumulator) error {
	if a.k != other.k {
		return fmt.Errorf("msketch: merge of incompatible k (%d vs %d): %w", a.k, other.k, qerr.ErrIncompatible)
	}
	for j := 0; j < a.k; j++ {
		a.powerSums[j] += other.powerSums[j]
	}
	if a.enabledLogs && other.enabledLogs {
		for j := 0; j < a.k; j++ {
			a.logPowerSums[j] += other.logPowerSums[j]
		}
		if other.logMin < a.logMin {
			a.logMin = other.logMin
		}
		if other.logMax > a.logMax {
			a.logMax = other.logMax
		}
	} else {
		a.enabledLogs = false
	}
	a.totalWeight += other.totalWeight
	a.sum += other.sum
	if other.min < a.min {
		a.min = other.min
	}
	if other.max > a.max {
		a.max = other.max
	}
	return nil
}

func (a *MomentAccumulator) Copy() *MomentAccumulator {
	powerSums := make([]float64, len(a.powerSums))
	copy(powerSums, a.powerSums)
	logPowerSums := make([]float64, len(a.logPowerSums))
	copy(logPowerSums, a.logPowerSums)
	cp := *a
	cp.powerSums = powerSums
	cp.logPowerSums = logPowerSums
	return &cp
}

// rawMoments returns E[X^j] = powerSums[j]/totalWeight for j=0..k-1.
func rawMoments(powerSums []float64, totalWeight float64) []float64 {
	out := make([]float64, len(powerSums))
	for i, p := range powerSums {
		out[i] = p / totalWeight
	}
	return out
}
