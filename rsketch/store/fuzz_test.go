// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package store

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

// TestFuzzWeightConservation is the weight-conservation property from spec
// §8.5: total weight after a random sequence of inserts equals the sum of
// inserted weights, for both store kinds and across collapse.
func TestFuzzWeightConservation(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for _, kind := range []Kind{Contiguous, Sparse} {
		s := New(kind)
		var want float64
		for i := 0; i < 500; i++ {
			var idx int32
			var w uint16
			f.Fuzz(&idx)
			f.Fuzz(&w)
			index := int(idx % 5000)
			weight := float64(w%1000) + 1
			s.Add(index, weight)
			want += weight
		}
		require.InDelta(t, want, s.TotalWeight(), 1e-6, "kind=%v", kind)

		if s.Size() > 10 {
			s.CollapseLowestN(5)
			require.InDelta(t, want, s.TotalWeight(), 1e-6, "kind=%v after collapse", kind)
		}
	}
}

// TestFuzzMergeCommutative checks merge(A,B) and merge(B,A) produce the
// same total weight (spec §8.4).
func TestFuzzMergeCommutative(t *testing.T) {
	f := fuzz.New().NilChance(0)

	build := func(kind Kind, seedShift int32) Store {
		s := New(kind)
		for i := 0; i < 100; i++ {
			var idx int32
			f.Fuzz(&idx)
			s.Add(int(idx%1000)+int(seedShift), float64(i+1))
		}
		return s
	}

	for _, kind := range []Kind{Contiguous, Sparse} {
		a1 := build(kind, 0)
		b1 := build(kind, 7)
		a2 := a1.Copy()
		b2 := b1.Copy()

		a1.Merge(b1)
		b2.Merge(a2)

		require.True(t, math.Abs(a1.TotalWeight()-b2.TotalWeight()) < 1e-6, "kind=%v", kind)
	}
}
