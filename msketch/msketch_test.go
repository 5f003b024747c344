// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphmetrics/quantile-sketches/qerr"
)

// TestScenarioS5 mirrors the log-normal reconstruction scenario: k=10,
// log_mode=on, 1e5 samples from log-normal(0,1), quantile(0.5) within 1%
// of 1 and quantile(0.95) within 3% of the analytic truth.
func TestScenarioS5(t *testing.T) {
	s, err := New(Config{K: 10, LogMode: true})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	const n = 100000
	for i := 0; i < n; i++ {
		z := rng.NormFloat64()
		require.NoError(t, s.Insert(math.Exp(z)))
	}

	median, err := s.Quantile(0.5)
	require.NoError(t, err)
	assert.InEpsilon(t, 1.0, median, 0.01, "median of log-normal(0,1) should be close to 1")

	p95, err := s.Quantile(0.95)
	require.NoError(t, err)
	truth := math.Exp(1.6448536) // Phi^-1(0.95)
	assert.InEpsilon(t, truth, p95, 0.03, "p95 should be within tolerance of analytic log-normal quantile")
}

func TestQuantileOnEmptySketch(t *testing.T) {
	s, err := New(Config{K: 6})
	require.NoError(t, err)
	_, err = s.Quantile(0.5)
	assert.True(t, errors.Is(err, qerr.ErrEmptySketch))
}

func TestQuantileOutOfRange(t *testing.T) {
	s, err := New(Config{K: 6})
	require.NoError(t, err)
	require.NoError(t, s.Insert(1))
	_, err = s.Quantile(1.5)
	assert.True(t, errors.Is(err, qerr.ErrOutOfRange))
	_, err = s.Quantile(-0.1)
	assert.True(t, errors.Is(err, qerr.ErrOutOfRange))
}

func TestInvalidK(t *testing.T) {
	_, err := New(Config{K: 2})
	assert.True(t, errors.Is(err, qerr.ErrInvalidConfig))
	_, err = New(Config{K: 100})
	assert.True(t, errors.Is(err, qerr.ErrInvalidConfig))
}

func TestDegenerateSketchSingleValue(t *testing.T) {
	s, err := New(Config{K: 6})
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Insert(42))
	}
	q, err := s.Quantile(0.3)
	require.NoError(t, err)
	assert.Equal(t, 42.0, q)
}

func TestExactMinMaxAtExtremeQuantiles(t *testing.T) {
	s, err := New(Config{K: 8})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Insert(rng.Float64()*100))
	}
	lo, err := s.Quantile(0)
	require.NoError(t, err)
	min, err := s.Min()
	require.NoError(t, err)
	assert.Equal(t, min, lo)

	hi, err := s.Quantile(1)
	require.NoError(t, err)
	max, err := s.Max()
	require.NoError(t, err)
	assert.Equal(t, max, hi)
}

// TestMomentRecoveryImproveWithK checks a weak form of the spec's
// moment-recovery convergence property: the total quantile error on a
// uniform distribution (whose true quantiles are known in closed form) at
// k=12 must stay below 1.5 times the error at k=4.
func TestMomentRecoveryImproveWithK(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	samples := make([]float64, 20000)
	for i := range samples {
		samples[i] = rng.Float64() * 100
	}

	errAtK := func(k int) float64 {
		s, err := New(Config{K: k})
		require.NoError(t, err)
		for _, x := range samples {
			require.NoError(t, s.Insert(x))
		}
		var total float64
		for _, q := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
			got, err := s.Quantile(q)
			require.NoError(t, err)
			want := q * 100
			total += math.Abs(got - want)
		}
		return total
	}

	errLowK := errAtK(4)
	errHighK := errAtK(12)
	assert.Less(t, errHighK, errLowK*1.5, "higher k should not substantially worsen reconstruction on a uniform distribution")
}

func TestMergeIncompatibleK(t *testing.T) {
	a, err := New(Config{K: 6})
	require.NoError(t, err)
	b, err := New(Config{K: 8})
	require.NoError(t, err)
	require.NoError(t, a.Insert(1))
	require.NoError(t, b.Insert(2))
	err = a.Merge(b)
	assert.True(t, errors.Is(err, qerr.ErrIncompatible))
}

func TestMergeEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	full, err := New(Config{K: 8})
	require.NoError(t, err)
	left, err := New(Config{K: 8})
	require.NoError(t, err)
	right, err := New(Config{K: 8})
	require.NoError(t, err)

	for i := 0; i < 5000; i++ {
		x := rng.Float64() * 1000
		require.NoError(t, full.Insert(x))
		if i%2 == 0 {
			require.NoError(t, left.Insert(x))
		} else {
			require.NoError(t, right.Insert(x))
		}
	}
	require.NoError(t, left.Merge(right))

	for _, q := range []float64{0.1, 0.5, 0.9} {
		wantQ, err := full.Quantile(q)
		require.NoError(t, err)
		gotQ, err := left.Quantile(q)
		require.NoError(t, err)
		assert.InDelta(t, wantQ, gotQ, 5, "merged sketch should approximate the directly-built sketch")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	s, err := New(Config{K: 6})
	require.NoError(t, err)
	require.NoError(t, s.Insert(10))
	cp := s.Copy()
	require.NoError(t, s.Insert(20))
	assert.Equal(t, 1.0, cp.Count())
	assert.Equal(t, 2.0, s.Count())
}
