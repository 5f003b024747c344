// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package store

import "fmt"

// DenseStore is a contiguous-array BucketStore keyed by offset = index -
// base (spec §4.2): suited to streams whose active bucket range is
// narrow. The backing array grows (doubling, amortized) to cover newly
// seen indices in either direction; it is never shrunk by collapse, which
// only zeroes and redistributes weight within the existing array.
type DenseStore struct {
	bins      []float64
	offset    int
	count     float64
	populated int
}

func NewDenseStore() *DenseStore {
	return &DenseStore{}
}

func (s *DenseStore) Add(index int, weight float64) {
	if weight == 0 {
		return
	}
	s.ensureRange(index)
	pos := index - s.offset
	before := s.bins[pos]
	s.bins[pos] += weight
	after := s.bins[pos]
	switch {
	case before == 0 && after != 0:
		s.populated++
	case before != 0 && after == 0:
		s.populated--
	}
	s.count += weight
}

func (s *DenseStore) AddBin(b Bin) {
	if b.Weight() == 0 {
		return
	}
	s.Add(b.Index(), b.Weight())
}

// ensureRange grows the backing array, if needed, so that index is
// addressable at position index-offset.
func (s *DenseStore) ensureRange(index int) {
	if len(s.bins) == 0 {
		s.bins = make([]float64, 1)
		s.offset = index
		return
	}
	if index < s.offset {
		s.growLeft(index)
	} else if index >= s.offset+len(s.bins) {
		s.growRight(index)
	}
}

func (s *DenseStore) growLeft(newOffset int) {
	shift := s.offset - newOffset
	needed := len(s.bins) + shift
	capNew := len(s.bins) * 2
	if capNew < needed {
		capNew = needed
	}
	newBins := make([]float64, capNew)
	copy(newBins[shift:shift+len(s.bins)], s.bins)
	s.bins = newBins
	s.offset = newOffset
}

func (s *DenseStore) growRight(newMaxIndex int) {
	needed := newMaxIndex - s.offset + 1
	capNew := len(s.bins) * 2
	if capNew < needed {
		capNew = needed
	}
	newBins := make([]float64, capNew)
	copy(newBins, s.bins)
	s.bins = newBins
}

func (s *DenseStore) IsEmpty() bool { return s.populated == 0 }

func (s *DenseStore) Size() int { return s.populated }

func (s *DenseStore) TotalWeight() float64 { return s.count }

func (s *DenseStore) MinIndex() (int, error) {
	for i, v := range s.bins {
		if v != 0 {
			return s.offset + i, nil
		}
	}
	return 0, fmt.Errorf("store: MinIndex of empty store is undefined")
}

func (s *DenseStore) MaxIndex() (int, error) {
	for i := len(s.bins) - 1; i >= 0; i-- {
		if s.bins[i] != 0 {
			return s.offset + i, nil
		}
	}
	return 0, fmt.Errorf("store: MaxIndex of empty store is undefined")
}

func (s *DenseStore) Bins() <-chan Bin {
	ch := make(chan Bin)
	go func() {
		defer close(ch)
		for i, v := range s.bins {
			if v != 0 {
				ch <- Bin{index: s.offset + i, weight: v}
			}
		}
	}()
	return ch
}

func (s *DenseStore) ForEachAsc(visit func(index int, weight float64) bool) {
	for i, v := range s.bins {
		if v == 0 {
			continue
		}
		if !visit(s.offset+i, v) {
			return
		}
	}
}

func (s *DenseStore) ForEachDesc(visit func(index int, weight float64) bool) {
	for i := len(s.bins) - 1; i >= 0; i-- {
		if s.bins[i] == 0 {
			continue
		}
		if !visit(s.offset+i, s.bins[i]) {
			return
		}
	}
}

func (s *DenseStore) Merge(other Store) {
	if other.IsEmpty() {
		return
	}
	if o, ok := other.(*DenseStore); ok {
		for i, v := range o.bins {
			if v != 0 {
				s.Add(o.offset+i, v)
			}
		}
		return
	}
	for b := range other.Bins() {
		s.AddBin(b)
	}
}

// populatedIdxs returns the actual bucket indices (not array positions)
// holding non-zero weight, in ascending order.
func (s *DenseStore) populatedIdxs() []int {
	idxs := make([]int, 0, s.populated)
	for i, v := range s.bins {
		if v != 0 {
			idxs = append(idxs, s.offset+i)
		}
	}
	return idxs
}

func (s *DenseStore) CollapseLowestN(n int) {
	if n <= 0 || s.populated == 0 {
		return
	}
	idxs := s.populatedIdxs()
	if n >= len(idxs) {
		n = len(idxs) - 1
	}
	target := idxs[n]
	var collapsed float64
	for i := 0; i < n; i++ {
		pos := idxs[i] - s.offset
		collapsed += s.bins[pos]
		s.bins[pos] = 0
		s.populated--
	}
	s.bins[target-s.offset] += collapsed
}

func (s *DenseStore) CollapseHighestN(n int) {
	if n <= 0 || s.populated == 0 {
		return
	}
	idxs := s.populatedIdxs()
	if n >= len(idxs) {
		n = len(idxs) - 1
	}
	target := idxs[len(idxs)-1-n]
	var collapsed float64
	for i := len(idxs) - n; i < len(idxs); i++ {
		pos := idxs[i] - s.offset
		collapsed += s.bins[pos]
		s.bins[pos] = 0
		s.populated--
	}
	s.bins[target-s.offset] += collapsed
}

func (s *DenseStore) Copy() Store {
	bins := make([]float64, len(s.bins))
	copy(bins, s.bins)
	return &DenseStore{
		bins:      bins,
		offset:    s.offset,
		count:     s.count,
		populated: s.populated,
	}
}
