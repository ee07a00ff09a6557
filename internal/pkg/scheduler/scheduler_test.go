/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package scheduler_test

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/lla-dane/FHE-AES128/common/metrics/prometheus"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/plain"
	"github.com/lla-dane/FHE-AES128/fhe/sw"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
)

var _ = Describe("Pool", func() {
	var (
		scheme fhe.Scheme
		ck     fhe.ClientKey
		pool   *scheduler.Pool
	)

	BeforeEach(func() {
		scheme = plain.New(nil)
		var err error
		ck, err = scheme.KeyGen(rand.Reader)
		Expect(err).NotTo(HaveOccurred())

		pool, err = scheduler.New(scheme, scheduler.Config{Workers: 4}, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		pool.Stop()
	})

	Describe("New", func() {
		It("rejects a nil scheme", func() {
			_, err := scheduler.New(nil, scheduler.Config{Workers: 1}, nil)
			Expect(err).To(MatchError("scheme must not be nil"))
		})

		It("rejects an empty pool", func() {
			_, err := scheduler.New(scheme, scheduler.Config{}, nil)
			Expect(err).To(MatchError("invalid number of workers 0, it must be greater than 0"))
		})
	})

	It("refuses work before it is started", func() {
		err := pool.Execute(context.Background(), func(fhe.Evaluator) error { return nil })
		Expect(err).To(Equal(scheduler.ErrNotStarted))
	})

	It("installs the evaluation key on every worker", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
		Expect(pool.Workers()).To(Equal(4))

		var mutex sync.Mutex
		var wg sync.WaitGroup
		seen := map[fhe.Evaluator]struct{}{}
		wg.Add(4)

		// every task blocks until four distinct workers hold one
		tasks := make([]scheduler.Task, 4)
		for i := range tasks {
			tasks[i] = func(ev fhe.Evaluator) error {
				mutex.Lock()
				seen[ev] = struct{}{}
				mutex.Unlock()
				wg.Done()
				wg.Wait()

				_, err := ev.Trivial(1)
				return err
			}
		}

		Expect(pool.Execute(context.Background(), tasks...)).To(Succeed())
		Expect(seen).To(HaveLen(4))
	})

	It("returns the first error in task order", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())

		errA := errors.New("a")
		errB := errors.New("b")
		ran := make([]bool, 3)
		err := pool.Execute(context.Background(),
			func(fhe.Evaluator) error { ran[0] = true; return nil },
			func(fhe.Evaluator) error { ran[1] = true; return errA },
			func(fhe.Evaluator) error { ran[2] = true; return errB },
		)
		Expect(err).To(Equal(errA))
		Expect(ran).To(Equal([]bool{true, true, true}))
	})

	It("propagates evaluator errors unchanged", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())

		other, err := scheme.KeyGen(rand.Reader)
		Expect(err).NotTo(HaveOccurred())
		foreign, err := other.Encrypt(1)
		Expect(err).NotTo(HaveOccurred())

		err = pool.Execute(context.Background(), func(ev fhe.Evaluator) error {
			_, err := ev.XorConst(foreign, 1)
			return err
		})
		Expect(errors.Is(err, fhe.ErrForeignCiphertext)).To(BeTrue())
	})

	It("fails to start when a worker cannot install the key", func() {
		swKey, err := sw.New().KeyGen(rand.Reader)
		Expect(err).NotTo(HaveOccurred())

		err = pool.Start(swKey.EvaluationKey())
		Expect(err).To(MatchError(ContainSubstring("unsupported evaluation key type")))

		err = pool.Execute(context.Background(), func(fhe.Evaluator) error { return nil })
		Expect(err).To(Equal(scheduler.ErrNotStarted))
	})

	It("starts only once", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
		Expect(pool.Start(ck.EvaluationKey())).To(Equal(scheduler.ErrAlreadyStarted))
	})

	It("stops dispatching when the context is done", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := pool.Execute(ctx, func(fhe.Evaluator) error { called = true; return nil })
		Expect(err).To(Equal(context.Canceled))
		Expect(called).To(BeFalse())
	})

	It("accepts an empty batch", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
		Expect(pool.Execute(context.Background())).To(Succeed())
	})

	It("refuses work once stopped", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
		pool.Stop()
		pool.Stop()

		err := pool.Execute(context.Background(), func(fhe.Evaluator) error { return nil })
		Expect(err).To(Equal(scheduler.ErrStopped))
		Expect(pool.Start(ck.EvaluationKey())).To(Equal(scheduler.ErrStopped))
	})

	It("reports its health through its lifecycle", func() {
		Expect(pool.HealthCheck(context.Background())).To(Equal(scheduler.ErrNotStarted))
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
		Expect(pool.HealthCheck(context.Background())).To(Succeed())
		pool.Stop()
		Expect(pool.HealthCheck(context.Background())).To(Equal(scheduler.ErrStopped))
	})

	It("evaluates concurrent batches", func() {
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())

		var wg sync.WaitGroup
		results := make([]error, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				tasks := make([]scheduler.Task, 16)
				for j := range tasks {
					tasks[j] = func(ev fhe.Evaluator) error {
						_, err := ev.Trivial(byte(i))
						return err
					}
				}
				results[i] = pool.Execute(context.Background(), tasks...)
			}(i)
		}
		wg.Wait()

		for _, err := range results {
			Expect(err).NotTo(HaveOccurred())
		}
	})

	Describe("metrics", func() {
		var registry *prom.Registry

		BeforeEach(func() {
			registry = prom.NewRegistry()
			var err error
			pool, err = scheduler.New(scheme, scheduler.Config{Workers: 2}, &prometheus.Provider{Registerer: registry})
			Expect(err).NotTo(HaveOccurred())
		})

		value := func(name string) float64 {
			families, err := registry.Gather()
			Expect(err).NotTo(HaveOccurred())
			for _, mf := range families {
				if mf.GetName() != name {
					continue
				}
				m := mf.GetMetric()[0]
				switch {
				case m.GetGauge() != nil:
					return m.GetGauge().GetValue()
				case m.GetCounter() != nil:
					return m.GetCounter().GetValue()
				case m.GetHistogram() != nil:
					return float64(m.GetHistogram().GetSampleCount())
				}
			}
			return -1
		}

		It("records workers, tasks and batches", func() {
			Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
			Expect(value("scheduler_workers")).To(Equal(2.0))

			noop := func(fhe.Evaluator) error { return nil }
			Expect(pool.Execute(context.Background(), noop, noop, noop)).To(Succeed())
			Expect(value("scheduler_tasks_executed")).To(Equal(3.0))
			Expect(value("scheduler_batch_duration")).To(Equal(1.0))

			pool.Stop()
			Expect(value("scheduler_workers")).To(Equal(0.0))
		})
	})
})
