package assignment

import (
	"fmt"
	"math"
)

// WeightConfig defines the relative importance of the four weighted-scoring
// components. After construction the weights always sum to 1.0.
type WeightConfig struct {
	Location    float64 `json:"location" yaml:"location"`
	Proximity   float64 `json:"proximity" yaml:"proximity"`
	Performance float64 `json:"performance" yaml:"performance"`
	Workload    float64 `json:"workload" yaml:"workload"`
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		Location:    0.40,
		Proximity:   0.30,
		Performance: 0.15,
		Workload:    0.15,
	}
}

// NewWeightConfig builds a normalized WeightConfig. Negative weights and the
// all-zero degenerate case are rejected rather than producing NaN scores.
func NewWeightConfig(location, proximity, performance, workload float64) (WeightConfig, error) {
	w := WeightConfig{
		Location:    location,
		Proximity:   proximity,
		Performance: performance,
		Workload:    workload,
	}
	return w.Normalized()
}

// Sum returns the total of all four weights.
func (w WeightConfig) Sum() float64 {
	return w.Location + w.Proximity + w.Performance + w.Workload
}

// Normalized returns a copy whose weights sum to exactly 1.0, preserving
// their ratios. An all-zero or negative input is an error.
func (w WeightConfig) Normalized() (WeightConfig, error) {
	for name, v := range map[string]float64{
		"location":    w.Location,
		"proximity":   w.Proximity,
		"performance": w.Performance,
		"workload":    w.Workload,
	} {
		if v < 0 {
			return WeightConfig{}, fmt.Errorf("negative %s weight: %f", name, v)
		}
	}

	sum := w.Sum()
	if sum == 0 {
		return WeightConfig{}, fmt.Errorf("all weights are zero")
	}
	if math.Abs(sum-1.0) < 1e-9 {
		return w, nil
	}
	return WeightConfig{
		Location:    w.Location / sum,
		Proximity:   w.Proximity / sum,
		Performance: w.Performance / sum,
		Workload:    w.Workload / sum,
	}, nil
}
