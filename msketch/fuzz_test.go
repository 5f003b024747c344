// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFuzzWeightConservation checks that Count() always equals the sum
// of weights inserted, across random weighted inserts (spec §8 property 5).
func TestFuzzWeightConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(101))
	for trial := 0; trial < 20; trial++ {
		s, err := New(Config{K: 6})
		require.NoError(t, err)
		var want float64
		n := rng.Intn(500) + 1
		for i := 0; i < n; i++ {
			x := rng.Float64()*200 - 100
			w := rng.Float64()*5 + 0.01
			require.NoError(t, s.InsertWeighted(x, w))
			want += w
		}
		assert.InDelta(t, want, s.Count(), 1e-6)
	}
}

// TestFuzzMergeCommutative checks that A.Merge(B) and B.Merge(A) produce
// the same Count/Sum/Min/Max regardless of order (spec §8 property 4).
func TestFuzzMergeCommutative(t *testing.T) {
	rng := rand.New(rand.NewSource(202))
	for trial := 0; trial < 20; trial++ {
		a1, _ := New(Config{K: 6})
		b1, _ := New(Config{K: 6})
		a2, _ := New(Config{K: 6})
		b2, _ := New(Config{K: 6})

		n := rng.Intn(200) + 1
		for i := 0; i < n; i++ {
			x := rng.Float64() * 1000
			require.NoError(t, a1.Insert(x))
			require.NoError(t, a2.Insert(x))
		}
		m := rng.Intn(200) + 1
		for i := 0; i < m; i++ {
			x := rng.Float64() * 1000
			require.NoError(t, b1.Insert(x))
			require.NoError(t, b2.Insert(x))
		}

		require.NoError(t, a1.Merge(b1))
		require.NoError(t, b2.Merge(a2))

		assert.InDelta(t, a1.Count(), b2.Count(), 1e-6)
		assert.InDelta(t, a1.Sum(), b2.Sum(), 1e-6)

		min1, _ := a1.Min()
		min2, _ := b2.Min()
		assert.Equal(t, min1, min2)

		max1, _ := a1.Max()
		max2, _ := b2.Max()
		assert.Equal(t, max1, max2)
	}
}

// TestFuzzMinMaxExactness checks that Min()/Max() always equal the true
// observed extremes regardless of insertion order (spec §8 property 6).
func TestFuzzMinMaxExactness(t *testing.T) {
	rng := rand.New(rand.NewSource(303))
	for trial := 0; trial < 20; trial++ {
		s, err := New(Config{K: 6})
		require.NoError(t, err)
		n := rng.Intn(500) + 1
		trueMin, trueMax := rng.Float64()*100, rng.Float64()*100
		if trueMin > trueMax {
			trueMin, trueMax = trueMax, trueMin
		}
		for i := 0; i < n; i++ {
			x := trueMin + rng.Float64()*(trueMax-trueMin)
			require.NoError(t, s.Insert(x))
		}
		require.NoError(t, s.Insert(trueMin))
		require.NoError(t, s.Insert(trueMax))

		gotMin, err := s.Min()
		require.NoError(t, err)
		gotMax, err := s.Max()
		require.NoError(t, err)
		assert.InDelta(t, trueMin, gotMin, 1e-9)
		assert.InDelta(t, trueMax, gotMax, 1e-9)
	}
}
