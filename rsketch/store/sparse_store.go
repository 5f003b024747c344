// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2020 Datadog, Inc. for original work
// Copyright 2024 GraphMetrics for modifications

package store

import (
	"fmt"
	"math"
	"sort"
)

// SparseStore is an ordered-map BucketStore, suited to streams whose
// active indices are few but widely separated (spec §4.2). Unlike the
// teacher's retrieved sparse_store.go, which iterated a Go map directly
// (and so produced bins in unspecified order), this variant keeps a
// lazily-rebuilt sorted key cache so ascending/descending iteration and
// collapse are well-defined and cheap to repeat across many quantile
// queries between mutations.
type SparseStore struct {
	bins       map[int]float64
	total      float64
	minIndex   int
	maxIndex   int
	sortedKeys []int
	keysDirty  bool
}

func NewSparseStore() *SparseStore {
	return &SparseStore{
		bins:     make(map[int]float64),
		minIndex: math.MaxInt64,
		maxIndex: math.MinInt64,
	}
}

func (s *SparseStore) Add(index int, weight float64) {
	if weight == 0 {
		return
	}
	if _, existed := s.bins[index]; !existed {
		s.keysDirty = true
	}
	s.bins[index] += weight
	if s.bins[index] == 0 {
		delete(s.bins, index)
		s.keysDirty = true
	}
	s.total += weight
	if index < s.minIndex {
		s.minIndex = index
	}
	if index > s.maxIndex {
		s.maxIndex = index
	}
}

func (s *SparseStore) AddBin(b Bin) {
	if b.Weight() == 0 {
		return
	}
	s.Add(b.Index(), b.Weight())
}

func (s *SparseStore) IsEmpty() bool { return len(s.bins) == 0 }

func (s *SparseStore) Size() int { return len(s.bins) }

func (s *SparseStore) TotalWeight() float64 { return s.total }

func (s *SparseStore) MinIndex() (int, error) {
	if s.IsEmpty() {
		return 0, fmt.Errorf("store: MinIndex of empty store is undefined")
	}
	return s.minIndex, nil
}

func (s *SparseStore) MaxIndex() (int, error) {
	if s.IsEmpty() {
		return 0, fmt.Errorf("store: MaxIndex of empty store is undefined")
	}
	return s.maxIndex, nil
}

func (s *SparseStore) keys() []int {
	if s.keysDirty || s.sortedKeys == nil {
		keys := make([]int, 0, len(s.bins))
		for k := range s.bins {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		s.sortedKeys = keys
		s.keysDirty = false
	}
	return s.sortedKeys
}

func (s *SparseStore) Bins() <-chan Bin {
	ch := make(chan Bin)
	keys := s.keys()
	go func() {
		defer close(ch)
		for _, k := range keys {
			ch <- Bin{index: k, weight: s.bins[k]}
		}
	}()
	return ch
}

func (s *SparseStore) ForEachAsc(visit func(index int, weight float64) bool) {
	keys := s.keys()
	for _, k := range keys {
		if !visit(k, s.bins[k]) {
			return
		}
	}
}

func (s *SparseStore) ForEachDesc(visit func(index int, weight float64) bool) {
	keys := s.keys()
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		if !visit(k, s.bins[k]) {
			return
		}
	}
}

func (s *SparseStore) Merge(other Store) {
	if other.IsEmpty() {
		return
	}
	if o, ok := other.(*SparseStore); ok {
		for k, v := range o.bins {
			s.Add(k, v)
		}
		return
	}
	for b := range other.Bins() {
		s.AddBin(b)
	}
}

func (s *SparseStore) CollapseLowestN(n int) {
	if n <= 0 || s.IsEmpty() {
		return
	}
	keys := s.keys()
	if n >= len(keys) {
		n = len(keys) - 1
	}
	target := keys[n]
	var collapsed float64
	for i := 0; i < n; i++ {
		collapsed += s.bins[keys[i]]
		delete(s.bins, keys[i])
	}
	s.bins[target] += collapsed
	s.keysDirty = true
	s.recomputeMinMax()
}

func (s *SparseStore) CollapseHighestN(n int) {
	if n <= 0 || s.IsEmpty() {
		return
	}
	keys := s.keys()
	if n >= len(keys) {
		n = len(keys) - 1
	}
	target := keys[len(keys)-1-n]
	var collapsed float64
	for i := len(keys) - n; i < len(keys); i++ {
		collapsed += s.bins[keys[i]]
		delete(s.bins, keys[i])
	}
	s.bins[target] += collapsed
	s.keysDirty = true
	s.recomputeMinMax()
}

func (s *SparseStore) recomputeMinMax() {
	if s.IsEmpty() {
		s.minIndex = math.MaxInt64
		s.maxIndex = math.MinInt64
		return
	}
	keys := s.keys()
	s.minIndex = keys[0]
	s.maxIndex = keys[len(keys)-1]
}

func (s *SparseStore) Copy() Store {
	bins := make(map[int]float64, len(s.bins))
	for k, v := range s.bins {
		bins[k] = v
	}
	return &SparseStore{
		bins:     bins,
		total:    s.total,
		minIndex: s.minIndex,
		maxIndex: s.maxIndex,
	}
}
