// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2020 Datadog, Inc. for original work
// Copyright 2024 GraphMetrics for modifications

// Package rsketch implements the R-Sketch controller of spec §4.3: a
// relative-error quantile sketch built from one IndexMapping and a pair of
// BucketStores (positive and negative values tracked separately, keyed by
// the index of |x|), plus the zero-count/min/max/sum scalar summaries.
package rsketch

import (
	"fmt"
	"math"

	"github.com/graphmetrics/quantile-sketches/qerr"
	"github.com/graphmetrics/quantile-sketches/rsketch/mapping"
	"github.com/graphmetrics/quantile-sketches/rsketch/store"
)

// CollapseStrategy selects which end(s) of a store's index range absorb
// size-cap enforcement (spec §4.3).
type CollapseStrategy int

const (
	// CollapseLow collapses the lowest-indexed (smallest-magnitude)
	// buckets first, protecting high quantiles. Default for
	// latency-style data, where the tail that matters is the top one.
	CollapseLow CollapseStrategy = iota
	// CollapseHigh is the symmetric choice, protecting low quantiles.
	CollapseHigh
	// CollapseBothEnds alternates collapsing the low and high ends,
	// splitting each cap violation's excess between them. Used when the
	// tail of interest is unknown ahead of time.
	CollapseBothEnds
	// CollapseNone disables size-cap enforcement; SizeCap is ignored.
	CollapseNone
)

// Config is the immutable construction-time configuration of a Sketch
// (spec §6). Two sketches may only be merged if their Configs produce
// Equal-compatible mappings (same relative accuracy, same mapping kind).
type Config struct {
	RelativeAccuracy float64
	MappingKind      mapping.Kind
	StorageKind      store.Kind
	// SizeCap caps each of the positive and negative stores
	// independently (see DESIGN.md for why the cap is applied per-store
	// rather than against their combined size). SizeCap == 0 means
	// unbounded; New rejects a negative SizeCap.
	SizeCap  int
	Collapse CollapseStrategy
}

// Sketch is the R-Sketch controller: one IndexMapping, two BucketStores,
// and the scalar summaries in spec §3.
type Sketch struct {
	cfg      Config
	mapping  mapping.IndexMapping
	positive store.Store
	negative store.Store

	zeroWeight  float64
	totalWeight float64
	min, max    float64
	sum         float64

	// bothEndsToggle alternates which end absorbs the larger half of an
	// odd-sized excess under CollapseBothEnds, so neither tail is
	// systematically favored across repeated collapses.
	bothEndsToggle bool
}

// New constructs an empty R-Sketch per spec §6's enumerated configuration.
func New(cfg Config) (*Sketch, error) {
	if cfg.SizeCap < 0 {
		return nil, fmt.Errorf("rsketch: negative size cap %d: %w", cfg.SizeCap, qerr.ErrInvalidConfig)
	}
	m, err := mapping.New(cfg.MappingKind, cfg.RelativeAccuracy)
	if err != nil {
		return nil, fmt.Errorf("rsketch: %v: %w", err, qerr.ErrInvalidConfig)
	}
	return &Sketch{
		cfg:      cfg,
		mapping:  m,
		positive: store.New(cfg.StorageKind),
		negative: store.New(cfg.StorageKind),
		min:      math.Inf(1),
		max:      math.Inf(-1),
	}, nil
}

// Insert adds x with weight 1.
func (s *Sketch) Insert(x float64) error {
	return s.InsertWeighted(x, 1)
}

// InsertWeighted adds x with weight w (spec §4.3). No mutation is visible
// if it returns an error.
func (s *Sketch) InsertWeighted(x, w float64) error {
	if w < 0 {
		return fmt.Errorf("rsketch: negative weight %v: %w", w, qerr.ErrInvalidConfig)
	}
	if w == 0 {
		return nil
	}
	if math.Abs(x) > s.mapping.MaxIndexableValue() {
		return fmt.Errorf("rsketch: value %v outside indexable range: %w", x, qerr.ErrOutOfRange)
	}

	minVal := s.mapping.MinIndexableValue()
	switch {
	case x == 0 || math.Abs(x) < minVal:
		s.zeroWeight += w
	case x > 0:
		s.positive.Add(s.mapping.Index(x), w)
	default:
		s.negative.Add(s.mapping.Index(-x), w)
	}

	s.totalWeight += w
	s.sum += x * w
	if x < s.min {
		s.min = x
	}
	if x > s.max {
		s.max = x
	}

	s.enforceSizeCap()
	return nil
}

// enforceSizeCap applies the configured collapse strategy independently
// to each of the positive and negative stores (spec §9's resolution of
// the per-store-vs-combined open question).
func (s *Sketch) enforceSizeCap() {
	if s.cfg.SizeCap <= 0 || s.cfg.Collapse == CollapseNone {
		return
	}
	s.enforceSizeCapOn(s.positive)
	s.enforceSizeCapOn(s.negative)
}

func (s *Sketch) enforceSizeCapOn(st store.Store) {
	excess := st.Size() - s.cfg.SizeCap
	if excess <= 0 {
		return
	}
	switch s.cfg.Collapse {
	case CollapseLow:
		st.CollapseLowestN(excess)
	case CollapseHigh:
		st.CollapseHighestN(excess)
	case CollapseBothEnds:
		lowN := excess / 2
		highN := excess - lowN
		if s.bothEndsToggle {
			lowN, highN = highN, lowN
		}
		s.bothEndsToggle = !s.bothEndsToggle
		st.CollapseLowestN(lowN)
		st.CollapseHighestN(highN)
	}
}

// Quantile returns the value at rank q (spec §4.3). q=0 returns the exact
// min, q=1 the exact max; an empty sketch fails with ErrEmptySketch.
func (s *Sketch) Quantile(q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("rsketch: quantile %v outside [0,1]: %w", q, qerr.ErrOutOfRange)
	}
	if s.totalWeight <= 0 {
		return 0, fmt.Errorf("rsketch: %w", qerr.ErrEmptySketch)
	}
	if q == 0 {
		return s.min, nil
	}
	if q == 1 {
		return s.max, nil
	}

	target := q * s.totalWeight
	var cum float64
	var result float64
	found := false

	s.negative.ForEachDesc(func(index int, weight float64) bool {
		cum += weight
		if cum >= target {
			result = -s.mapping.Value(index)
			found = true
			return false
		}
		return true
	})

	if !found {
		if cum+s.zeroWeight >= target {
			result = 0
			found = true
		} else {
			cum += s.zeroWeight
		}
	}

	if !found {
		s.positive.ForEachAsc(func(index int, weight float64) bool {
			cum += weight
			if cum >= target {
				result = s.mapping.Value(index)
				found = true
				return false
			}
			return true
		})
	}

	if !found {
		result = s.max
	}
	return clamp(result, s.min, s.max), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Count returns the total weight inserted so far.
func (s *Sketch) Count() float64 { return s.totalWeight }

// Sum returns the sum of (value * weight) over all inserts.
func (s *Sketch) Sum() float64 { return s.sum }

// Min returns the exact minimum inserted value. Returns ErrEmptySketch if
// nothing has been inserted.
func (s *Sketch) Min() (float64, error) {
	if s.totalWeight <= 0 {
		return 0, fmt.Errorf("rsketch: %w", qerr.ErrEmptySketch)
	}
	return s.min, nil
}

// Max returns the exact maximum inserted value.
func (s *Sketch) Max() (float64, error) {
	if s.totalWeight <= 0 {
		return 0, fmt.Errorf("rsketch: %w", qerr.ErrEmptySketch)
	}
	return s.max, nil
}

// IsEmpty reports whether no weight has been inserted.
func (s *Sketch) IsEmpty() bool { return s.totalWeight <= 0 }

// compatibleWith reports whether other can be merged into s: same mapping
// kind and parameters (spec §3's "identical mapping parameters").
func (s *Sketch) compatibleWith(other *Sketch) bool {
	return s.mapping.Equals(other.mapping)
}

// Merge folds other into s (spec §4.3). Fails with ErrIncompatible,
// leaving both sketches unmutated, if the configurations don't match.
func (s *Sketch) Merge(other *Sketch) error {
	if !s.compatibleWith(other) {
		return fmt.Errorf("rsketch: %w", qerr.ErrIncompatible)
	}

	s.positive.Merge(other.positive)
	s.negative.Merge(other.negative)
	s.zeroWeight += other.zeroWeight
	s.totalWeight += other.totalWeight
	s.sum += other.sum
	if other.min < s.min {
		s.min = other.min
	}
	if other.max > s.max {
		s.max = other.max
	}

	s.enforceSizeCap()
	return nil
}

// Copy returns a deep, independently-mutable copy of the sketch.
func (s *Sketch) Copy() *Sketch {
	return &Sketch{
		cfg:            s.cfg,
		mapping:        s.mapping,
		positive:       s.positive.Copy(),
		negative:       s.negative.Copy(),
		zeroWeight:     s.zeroWeight,
		totalWeight:    s.totalWeight,
		min:            s.min,
		max:            s.max,
		sum:            s.sum,
		bothEndsToggle: s.bothEndsToggle,
	}
}
