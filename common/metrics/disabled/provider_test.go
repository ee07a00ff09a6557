/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package disabled_test

import (
	"github.com/lla-dane/FHE-AES128/common/metrics"
	"github.com/lla-dane/FHE-AES128/common/metrics/disabled"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Provider", func() {
	var p metrics.Provider

	BeforeEach(func() {
		p = &disabled.Provider{}
	})

	It("hands out counters that accept labels and additions", func() {
		c := p.NewCounter(metrics.CounterOpts{
			Namespace:  "session",
			Name:       "blocks_evaluated",
			LabelNames: []string{"direction"},
		})
		Expect(c).NotTo(BeNil())
		Expect(c.With("direction", "encrypt")).NotTo(BeNil())

		c.Add(1)
		c.With("direction", "decrypt").Add(16)
	})

	It("hands out gauges that can be set and moved", func() {
		g := p.NewGauge(metrics.GaugeOpts{Namespace: "scheduler", Name: "workers"})
		Expect(g).NotTo(BeNil())

		g.Set(4)
		g.Add(-1)
		g.With("version", "latest").Set(1)
	})

	It("hands out histograms that take observations", func() {
		h := p.NewHistogram(metrics.HistogramOpts{
			Namespace: "scheduler",
			Name:      "batch_duration",
			Buckets:   []float64{0.001, 0.01, 0.1},
		})
		Expect(h).NotTo(BeNil())

		h.Observe(0.005)
		h.With("direction", "encrypt").Observe(2)
	})
})
