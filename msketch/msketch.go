// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"fmt"
	"math"

	"github.com/graphmetrics/quantile-sketches/qerr"
)

// logSpanThreshold is the ratio max/min above which the controller solves
// in log-domain rather than linear-domain when LogMode is enabled: wide
// dynamic range (e.g. request latencies spanning microseconds to
// seconds) makes the linear-domain moment problem ill-conditioned well
// before the Chebyshev-basis change can rescue it.
const logSpanThreshold = 10

// Config configures a Sketch.
type Config struct {
	// K is the number of moments retained, in [4, 20]. Higher k
	// resolves finer distributional detail at the cost of a harder
	// (and occasionally non-convergent) max-entropy solve.
	K int
	// LogMode, when true, additionally tracks moments of log(x) and
	// solves in log-domain when the sample span warrants it (positive
	// samples only; disabled automatically on the first non-positive
	// insert).
	LogMode bool
}

// Sketch is the moment-based approximate quantile sketch (spec §4.4-
// §4.6): inserts are O(k) moment updates, and Quantile reconstructs a
// maximum-entropy density from the retained moments on demand.
type Sketch struct {
	cfg Config
	acc *MomentAccumulator
}

// New constructs an empty Sketch per cfg.
func New(cfg Config) (*Sketch, error) {
	acc, err := NewMomentAccumulator(cfg.K, cfg.LogMode)
	if err != nil {
		return nil, err
	}
	return &Sketch{cfg: cfg, acc: acc}, nil
}

// Insert adds x with weight 1.
func (s *Sketch) Insert(x float64) error {
	return s.acc.Insert(x, 1)
}

// InsertWeighted adds x with weight w.
func (s *Sketch) InsertWeighted(x, w float64) error {
	return s.acc.Insert(x, w)
}

// Count returns the total weight inserted.
func (s *Sketch) Count() float64 {
	return s.acc.totalWeight
}

// Sum returns the weighted sum of all inserted values.
func (s *Sketch) Sum() float64 {
	return s.acc.sum
}

// Min returns the smallest value inserted, or an error if the sketch is
// empty.
func (s *Sketch) Min() (float64, error) {
	if s.acc.totalWeight <= 0 {
		return 0, qerr.ErrEmptySketch
	}
	return s.acc.min, nil
}

// Max returns the largest value inserted, or an error if the sketch is
// empty.
func (s *Sketch) Max() (float64, error) {
	if s.acc.totalWeight <= 0 {
		return 0, qerr.ErrEmptySketch
	}
	return s.acc.max, nil
}

// IsEmpty reports whether the sketch has seen any weight.
func (s *Sketch) IsEmpty() bool {
	return s.acc.totalWeight <= 0
}

// Merge folds other into s. Fails without mutating s if the two sketches
// were configured with a different K.
func (s *Sketch) Merge(other *Sketch) error {
	return s.acc.Merge(other.acc)
}

// Copy returns an independent deep copy of s.
func (s *Sketch) Copy() *Sketch {
	return &Sketch{cfg: s.cfg, acc: s.acc.Copy()}
}

// usesLogDomain decides, per insert-time statistics, whether the
// reconstruction should run against log(x) rather than x directly.
func (s *Sketch) usesLogDomain() bool {
	if !s.cfg.LogMode || !s.acc.enabledLogs {
		return false
	}
	if s.acc.min <= 0 {
		return false
	}
	if s.acc.min == 0 {
		return false
	}
	span := s.acc.max / s.acc.min
	return span > logSpanThreshold
}

// Quantile returns the q-th quantile estimate (q in [0,1]) by solving the
// max-entropy density implied by the retained moments and inverting its
// CDF. q=0 and q=1 return the exact observed min/max.
func (s *Sketch) Quantile(q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("msketch: quantile %v outside [0,1]: %w", q, qerr.ErrOutOfRange)
	}
	if s.acc.totalWeight <= 0 {
		return 0, qerr.ErrEmptySketch
	}
	if q == 0 {
		return s.acc.min, nil
	}
	if q == 1 {
		return s.acc.max, nil
	}
	if s.acc.min == s.acc.max {
		return s.acc.min, nil
	}

	logDomain := s.usesLogDomain()

	var a, b float64
	var muX []float64
	if logDomain {
		a, b = s.acc.logMin, s.acc.logMax
		muX = rawMoments(s.acc.logPowerSums, s.acc.totalWeight)
	} else {
		a, b = s.acc.min, s.acc.max
		muX = rawMoments(s.acc.powerSums, s.acc.totalWeight)
	}

	muCheb := momentsToChebyshev(muX, a, b)
	lambda, err := solveWithFallback(muCheb, a, b)
	if err != nil {
		return 0, err
	}

	inv := newCDFInverter(lambda, a, b)
	v := inv.Quantile(q)

	if logDomain {
		v = math.Exp(v)
	}
	return clampMQ(v, s.acc.min, s.acc.max), nil
}

func clampMQ(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
