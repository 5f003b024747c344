// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package rsketch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphmetrics/quantile-sketches/rsketch/mapping"
	"github.com/graphmetrics/quantile-sketches/rsketch/store"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	s, err := New(Config{
		RelativeAccuracy: 0.02,
		MappingKind:      mapping.CubicInterpolation,
		StorageKind:      store.Sparse,
		SizeCap:          256,
		Collapse:         CollapseLow,
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 2000; i++ {
		x := rng.NormFloat64() * 100
		require.NoError(t, s.Insert(x))
	}

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	restored := &Sketch{}
	require.NoError(t, restored.UnmarshalBinary(data))

	for _, q := range []float64{0.1, 0.5, 0.9, 0.99} {
		want, err := s.Quantile(q)
		require.NoError(t, err)
		got, err := restored.Quantile(q)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, s.Count(), restored.Count())
	wantMin, _ := s.Min()
	gotMin, _ := restored.Min()
	assert.Equal(t, wantMin, gotMin)
}
