/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import "github.com/lla-dane/FHE-AES128/common/metrics"

var (
	workersOpts = metrics.GaugeOpts{
		Namespace: "scheduler",
		Name:      "workers",
		Help:      "Number of workers holding an installed evaluation key.",
	}
	tasksExecutedOpts = metrics.CounterOpts{
		Namespace: "scheduler",
		Name:      "tasks_executed",
		Help:      "Number of tasks executed by the pool.",
	}
	batchDurationOpts = metrics.HistogramOpts{
		Namespace: "scheduler",
		Name:      "batch_duration",
		Help:      "Time to evaluate one batch of tasks in seconds.",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
	}
)

// Metrics are the metrics recorded by a Pool.
type Metrics struct {
	Workers       metrics.Gauge
	TasksExecuted metrics.Counter
	BatchDuration metrics.Histogram
}

// NewMetrics creates the pool metrics from p.
func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Workers:       p.NewGauge(workersOpts),
		TasksExecuted: p.NewCounter(tasksExecutedOpts),
		BatchDuration: p.NewHistogram(batchDurationOpts),
	}
}
