// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package rsketch

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/graphmetrics/quantile-sketches/rsketch/mapping"
	"github.com/graphmetrics/quantile-sketches/rsketch/store"
)

// wireSketch is the exported snapshot gob-encodes: every field of spec §3
// needed to exactly reconstruct a Sketch's configuration, stores and
// summaries, independent of which concrete mapping/store implementation
// produced it (reconstruction always goes through mapping.New/store.New,
// so the wire form only needs the kind and parameters, not the
// implementation's internals). The CollapseBothEnds alternation state is
// not encoded; a decoded sketch starts it afresh.
type wireSketch struct {
	SizeCap          int
	Collapse         CollapseStrategy
	MappingKind      mapping.Kind
	RelativeAccuracy float64
	StorageKind      store.Kind

	PositiveIdx []int
	PositiveW   []float64
	NegativeIdx []int
	NegativeW   []float64

	ZeroWeight  float64
	TotalWeight float64
	Min         float64
	Max         float64
	Sum         float64
}

func snapshotBins(st store.Store) (idx []int, w []float64) {
	st.ForEachAsc(func(i int, weight float64) bool {
		idx = append(idx, i)
		w = append(w, weight)
		return true
	})
	return idx, w
}

// MarshalBinary encodes the sketch's full state (configuration, both
// stores, and the scalar summaries) using gob. This is a Go-internal
// format with no cross-implementation stability guarantee (spec §6 / the
// module's non-goals).
func (s *Sketch) MarshalBinary() ([]byte, error) {
	w := wireSketch{
		SizeCap:          s.cfg.SizeCap,
		Collapse:         s.cfg.Collapse,
		MappingKind:      s.cfg.MappingKind,
		RelativeAccuracy: s.mapping.RelativeAccuracy(),
		StorageKind:      s.cfg.StorageKind,
		ZeroWeight:       s.zeroWeight,
		TotalWeight:      s.totalWeight,
		Min:              s.min,
		Max:              s.max,
		Sum:              s.sum,
	}
	w.PositiveIdx, w.PositiveW = snapshotBins(s.positive)
	w.NegativeIdx, w.NegativeW = snapshotBins(s.negative)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("rsketch: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a sketch previously produced by MarshalBinary
// into s, replacing its entire state.
func (s *Sketch) UnmarshalBinary(data []byte) error {
	var w wireSketch
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("rsketch: decode: %w", err)
	}

	m, err := mapping.New(w.MappingKind, w.RelativeAccuracy)
	if err != nil {
		return fmt.Errorf("rsketch: decode: %w", err)
	}

	positive := store.New(w.StorageKind)
	for i, idx := range w.PositiveIdx {
		positive.Add(idx, w.PositiveW[i])
	}
	negative := store.New(w.StorageKind)
	for i, idx := range w.NegativeIdx {
		negative.Add(idx, w.NegativeW[i])
	}

	s.cfg = Config{
		RelativeAccuracy: w.RelativeAccuracy,
		MappingKind:      w.MappingKind,
		StorageKind:      w.StorageKind,
		SizeCap:          w.SizeCap,
		Collapse:         w.Collapse,
	}
	s.mapping = m
	s.positive = positive
	s.negative = negative
	s.zeroWeight = w.ZeroWeight
	s.totalWeight = w.TotalWeight
	s.min = w.Min
	s.max = w.Max
	s.sum = w.Sum
	s.bothEndsToggle = false
	return nil
}
