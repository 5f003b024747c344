// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// wireSketch is the gob-encoded snapshot of a Sketch's full moment state.
type wireSketch struct {
	K            int
	LogMode      bool
	EnabledLogs  bool
	PowerSums    []float64
	LogPowerSums []float64
	Min, Max     float64
	LogMin       float64
	LogMax       float64
	TotalWeight  float64
	Sum          float64
}

// MarshalBinary encodes the sketch's moment state using gob, so that
// Insert-only workers can periodically checkpoint or ship partial
// accumulators for a later Merge.
func (s *Sketch) MarshalBinary() ([]byte, error) {
	w := wireSketch{
		K:            s.acc.k,
		LogMode:      s.cfg.LogMode,
		EnabledLogs:  s.acc.enabledLogs,
		PowerSums:    append([]float64(nil), s.acc.powerSums...),
		LogPowerSums: append([]float64(nil), s.acc.logPowerSums...),
		Min:          s.acc.min,
		Max:          s.acc.max,
		LogMin:       s.acc.logMin,
		LogMax:       s.acc.logMax,
		TotalWeight:  s.acc.totalWeight,
		Sum:          s.acc.sum,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("msketch: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a sketch previously produced by MarshalBinary
// into s, replacing its entire state.
func (s *Sketch) UnmarshalBinary(data []byte) error {
	var w wireSketch
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("msketch: decode: %w", err)
	}
	s.cfg = Config{K: w.K, LogMode: w.LogMode}
	s.acc = &MomentAccumulator{
		k:            w.K,
		powerSums:    w.PowerSums,
		logPowerSums: w.LogPowerSums,
		enabledLogs:  w.EnabledLogs,
		min:          w.Min,
		max:          w.Max,
		logMin:       w.LogMin,
		logMax:       w.LogMax,
		totalWeight:  w.TotalWeight,
		sum:          w.Sum,
	}
	return nil
}
