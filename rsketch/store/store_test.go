// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStores() map[string]func() Store {
	return map[string]func() Store{
		"sparse":     func() Store { return NewSparseStore() },
		"contiguous": func() Store { return NewDenseStore() },
	}
}

func collectAsc(s Store) []Bin {
	var bins []Bin
	for b := range s.Bins() {
		bins = append(bins, b)
	}
	return bins
}

func collectDesc(s Store) []Bin {
	var bins []Bin
	s.ForEachDesc(func(index int, weight float64) bool {
		bins = append(bins, Bin{index: index, weight: weight})
		return true
	})
	return bins
}

func TestAddAndIterationOrder(t *testing.T) {
	for name, ctor := range allStores() {
		t.Run(name, func(t *testing.T) {
			s := ctor()
			s.Add(5, 2)
			s.Add(-3, 1)
			s.Add(10, 4)
			s.Add(5, 1) // accumulate onto existing index

			asc := collectAsc(s)
			require.Len(t, asc, 3)
			assert.Equal(t, -3, asc[0].Index())
			assert.Equal(t, 5, asc[1].Index())
			assert.Equal(t, 3.0, asc[1].Weight())
			assert.Equal(t, 10, asc[2].Index())

			desc := collectDesc(s)
			require.Len(t, desc, 3)
			assert.Equal(t, 10, desc[0].Index())
			assert.Equal(t, -3, desc[2].Index())

			assert.Equal(t, 3, s.Size())
			assert.Equal(t, 8.0, s.TotalWeight())

			minIdx, err := s.MinIndex()
			require.NoError(t, err)
			assert.Equal(t, -3, minIdx)
			maxIdx, err := s.MaxIndex()
			require.NoError(t, err)
			assert.Equal(t, 10, maxIdx)
		})
	}
}

func TestEmptyStoreErrors(t *testing.T) {
	for name, ctor := range allStores() {
		t.Run(name, func(t *testing.T) {
			s := ctor()
			assert.True(t, s.IsEmpty())
			_, err := s.MinIndex()
			assert.Error(t, err)
			_, err = s.MaxIndex()
			assert.Error(t, err)
		})
	}
}

func TestMergePreservesTotalWeight(t *testing.T) {
	for name, ctorA := range allStores() {
		for otherName, ctorB := range allStores() {
			t.Run(name+"_"+otherName, func(t *testing.T) {
				a := ctorA()
				b := ctorB()
				for i := 0; i < 20; i++ {
					a.Add(i, float64(i+1))
					b.Add(i-10, float64(i+1))
				}
				a.Merge(b)
				assert.InDelta(t, 2*210.0, a.TotalWeight(), 1e-9)
			})
		}
	}
}

func TestCollapseLowestNConservesWeight(t *testing.T) {
	for name, ctor := range allStores() {
		t.Run(name, func(t *testing.T) {
			s := ctor()
			for i := 0; i < 10; i++ {
				s.Add(i, float64(i+1))
			}
			totalBefore := s.TotalWeight()
			sizeBefore := s.Size()

			s.CollapseLowestN(3)

			assert.InDelta(t, totalBefore, s.TotalWeight(), 1e-9)
			assert.Equal(t, sizeBefore-3, s.Size())

			minIdx, err := s.MinIndex()
			require.NoError(t, err)
			assert.Equal(t, 3, minIdx) // indices 0,1,2 collapsed into 3
		})
	}
}

func TestCollapseHighestNConservesWeight(t *testing.T) {
	for name, ctor := range allStores() {
		t.Run(name, func(t *testing.T) {
			s := ctor()
			for i := 0; i < 10; i++ {
				s.Add(i, float64(i+1))
			}
			totalBefore := s.TotalWeight()
			sizeBefore := s.Size()

			s.CollapseHighestN(3)

			assert.InDelta(t, totalBefore, s.TotalWeight(), 1e-9)
			assert.Equal(t, sizeBefore-3, s.Size())

			maxIdx, err := s.MaxIndex()
			require.NoError(t, err)
			assert.Equal(t, 6, maxIdx) // indices 7,8,9 collapsed into 6
		})
	}
}

func TestCollapseAllWhenNExceedsSize(t *testing.T) {
	for name, ctor := range allStores() {
		t.Run(name, func(t *testing.T) {
			s := ctor()
			for i := 0; i < 4; i++ {
				s.Add(i, 1)
			}
			s.CollapseLowestN(100)
			assert.Equal(t, 1, s.Size())
			assert.InDelta(t, 4.0, s.TotalWeight(), 1e-9)
		})
	}
}

func TestCopyIsIndependent(t *testing.T) {
	for name, ctor := range allStores() {
		t.Run(name, func(t *testing.T) {
			s := ctor()
			s.Add(1, 1)
			cp := s.Copy()
			cp.Add(2, 1)
			assert.Equal(t, 1, s.Size())
			assert.Equal(t, 2, cp.Size())
		})
	}
}
