/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import "github.com/lla-dane/FHE-AES128/common/metrics"

var (
	blocksEvaluatedOpts = metrics.CounterOpts{
		Namespace:  "session",
		Name:       "blocks_evaluated",
		Help:       "Number of blocks evaluated.",
		LabelNames: []string{"direction"},
	}
	blockDurationOpts = metrics.HistogramOpts{
		Namespace:  "session",
		Name:       "block_duration",
		Help:       "Time to evaluate one block in seconds.",
		LabelNames: []string{"direction"},
		Buckets:    []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
	}
)

// Metrics are the metrics recorded by a session.
type Metrics struct {
	BlocksEvaluated metrics.Counter
	BlockDuration   metrics.Histogram
}

// NewMetrics creates the session metrics from p.
func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		BlocksEvaluated: p.NewCounter(blocksEvaluatedOpts),
		BlockDuration:   p.NewHistogram(blockDurationOpts),
	}
}
