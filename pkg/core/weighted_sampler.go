package core

import (
	"fmt"
	"sort"
)

// WeightedSampler picks indices with probability proportional to fixed weights.
// Weights are stored as a cumulative distribution so a pick is a binary search.
type WeightedSampler struct {
	cumulative []float64
	total      float64
}

// NewWeightedSampler creates a sampler over the given non-negative weights.
// It panics on negative weights, matching the other construction-time invariants.
func NewWeightedSampler(weights []float64) *WeightedSampler {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, weight := range weights {
		if weight < 0 {
			panic(fmt.Sprintf("core: weight %d is negative (%g)", i, weight))
		}
		total += weight
		cumulative[i] = total
	}
	return &WeightedSampler{cumulative: cumulative, total: total}
}

// Len returns the number of weights
func (ws *WeightedSampler) Len() int {
	return len(ws.cumulative)
}

// Total returns the sum of all weights
func (ws *WeightedSampler) Total() float64 {
	return ws.total
}

// Pick maps u in [0, 1) to an index and returns it with its selection probability.
// It returns -1 when there is nothing to pick from.
func (ws *WeightedSampler) Pick(u float64) (int, float64) {
	if len(ws.cumulative) == 0 || ws.total <= 0 {
		return -1, 0
	}
	target := u * ws.total
	i := sort.Search(len(ws.cumulative), func(i int) bool { return ws.cumulative[i] > target })
	if i == len(ws.cumulative) {
		i = len(ws.cumulative) - 1
	}
	return i, ws.Probability(i)
}

// Probability returns the selection probability of index i
func (ws *WeightedSampler) Probability(i int) float64 {
	if i < 0 || i >= len(ws.cumulative) || ws.total <= 0 {
		return 0
	}
	prev := 0.0
	if i > 0 {
		prev = ws.cumulative[i-1]
	}
	return (ws.cumulative[i] - prev) / ws.total
}
