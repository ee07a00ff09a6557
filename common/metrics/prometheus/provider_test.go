/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus_test

import (
	"github.com/lla-dane/FHE-AES128/common/metrics"
	"github.com/lla-dane/FHE-AES128/common/metrics/prometheus"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var _ = Describe("Provider", func() {
	var (
		registry *prom.Registry
		p        *prometheus.Provider
	)

	BeforeEach(func() {
		registry = prom.NewRegistry()
		p = &prometheus.Provider{Registerer: registry}
	})

	gather := func(name string) *dto.MetricFamily {
		families, err := registry.Gather()
		Expect(err).NotTo(HaveOccurred())
		for _, mf := range families {
			if mf.GetName() == name {
				return mf
			}
		}
		return nil
	}

	It("records counter increments with labels", func() {
		c := p.NewCounter(metrics.CounterOpts{
			Namespace:  "fheaes",
			Subsystem:  "session",
			Name:       "blocks",
			Help:       "blocks",
			LabelNames: []string{"direction"},
		})
		c.With("direction", "encrypt").Add(2)
		c.With("direction", "encrypt").Add(1)

		mf := gather("fheaes_session_blocks")
		Expect(mf).NotTo(BeNil())
		Expect(mf.GetMetric()).To(HaveLen(1))
		Expect(mf.GetMetric()[0].GetCounter().GetValue()).To(Equal(3.0))
	})

	It("records gauge values", func() {
		g := p.NewGauge(metrics.GaugeOpts{Name: "workers", Help: "workers"})
		g.Set(4)
		g.Add(1)

		mf := gather("workers")
		Expect(mf).NotTo(BeNil())
		Expect(mf.GetMetric()[0].GetGauge().GetValue()).To(Equal(5.0))
	})

	It("records histogram observations", func() {
		h := p.NewHistogram(metrics.HistogramOpts{Name: "duration", Help: "duration", Buckets: []float64{1, 10}})
		h.Observe(0.5)
		h.Observe(5)

		mf := gather("duration")
		Expect(mf).NotTo(BeNil())
		Expect(mf.GetMetric()[0].GetHistogram().GetSampleCount()).To(Equal(uint64(2)))
	})

	It("reuses collectors that are already registered", func() {
		opts := metrics.CounterOpts{Name: "tasks", Help: "tasks"}
		first := p.NewCounter(opts)
		second := p.NewCounter(opts)

		first.Add(1)
		second.Add(1)

		mf := gather("tasks")
		Expect(mf.GetMetric()[0].GetCounter().GetValue()).To(Equal(2.0))
	})
})
