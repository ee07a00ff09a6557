/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations_test

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"runtime"
	"syscall"

	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/common/metrics"
	"github.com/lla-dane/FHE-AES128/fhe/plain"
	"github.com/lla-dane/FHE-AES128/internal/operations"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/tedsuo/ifrit"
)

var _ = Describe("System", func() {
	var (
		registry *prom.Registry
		options  operations.Options
		system   *operations.System
		client   *http.Client
	)

	BeforeEach(func() {
		registry = prom.NewRegistry()
		options = operations.Options{
			ListenAddress: "127.0.0.1:0",
			Version:       "1.2.3",
			Backend:       "PLAIN",
			Metrics: operations.MetricsOptions{
				Provider:   "prometheus",
				Registerer: registry,
				Gatherer:   registry,
			},
		}
		client = &http.Client{}
	})

	JustBeforeEach(func() {
		system = operations.NewSystem(options)
		Expect(system.Start()).To(Succeed())
	})

	AfterEach(func() {
		Expect(system.Stop()).To(Succeed())
		flogging.Reset()
	})

	url := func(path string) string {
		return fmt.Sprintf("http://%s%s", system.Addr(), path)
	}

	It("serves prometheus metrics", func() {
		c := system.NewCounter(metrics.CounterOpts{Namespace: "session", Name: "test_total", Help: "test"})
		c.Add(2)

		resp, err := client.Get(url("/metrics"))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := ioutil.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("session_test_total 2"))
		Expect(string(body)).To(ContainSubstring(`fheaes_version{version="1.2.3"} 1`))
	})

	It("reports health", func() {
		resp, err := client.Get(url("/healthz"))
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		pool, err := scheduler.New(plain.New(nil), scheduler.Config{Workers: 1}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(system.RegisterChecker("scheduler", pool)).To(Succeed())

		resp, err = client.Get(url("/healthz"))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))

		var status healthz.HealthStatus
		Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
		Expect(status.Status).To(Equal(healthz.StatusUnavailable))
		Expect(status.FailedChecks).To(ConsistOf(healthz.FailedCheck{Component: "scheduler", Reason: "scheduler not started"}))

		err = system.RegisterChecker("scheduler", pool)
		Expect(err).To(MatchError(healthz.AlreadyRegisteredError("scheduler")))
	})

	It("reports a started pool healthy", func() {
		scheme := plain.New(nil)
		ck, err := scheme.KeyGen(rand.Reader)
		Expect(err).NotTo(HaveOccurred())
		pool, err := scheduler.New(scheme, scheduler.Config{Workers: 2}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Start(ck.EvaluationKey())).To(Succeed())
		defer pool.Stop()
		Expect(system.RegisterChecker("scheduler", pool)).To(Succeed())

		resp, err := client.Get(url("/healthz"))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var status healthz.HealthStatus
		Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
		Expect(status.Status).To(Equal(healthz.StatusOK))
		Expect(status.FailedChecks).To(BeEmpty())
	})

	It("reads and updates the logging spec", func() {
		resp, err := client.Get(url("/logspec"))
		Expect(err).NotTo(HaveOccurred())
		var spec operations.LogSpec
		Expect(json.NewDecoder(resp.Body).Decode(&spec)).To(Succeed())
		resp.Body.Close()
		Expect(spec.Spec).To(Equal("info"))

		req, err := http.NewRequest(http.MethodPut, url("/logspec"), bytes.NewBufferString(`{"spec":"scheduler=debug:warn"}`))
		Expect(err).NotTo(HaveOccurred())
		resp, err = client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		Expect(flogging.Global.Spec()).To(Equal("scheduler=debug:warn"))

		req, err = http.NewRequest(http.MethodPut, url("/logspec"), bytes.NewBufferString(`{"spec":"=debug"}`))
		Expect(err).NotTo(HaveOccurred())
		resp, err = client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("serves the version", func() {
		resp, err := client.Get(url("/version"))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

		var info operations.VersionInfo
		Expect(json.NewDecoder(resp.Body).Decode(&info)).To(Succeed())
		Expect(info.Program).To(Equal("fheaes"))
		Expect(info.Version).To(Equal("1.2.3"))
		Expect(info.Backend).To(Equal("PLAIN"))
		Expect(info.GoVersion).To(Equal(runtime.Version()))
	})

	It("rejects version requests other than GET", func() {
		resp, err := client.Post(url("/version"), "application/json", nil)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

		body, err := ioutil.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(MatchJSON(`{"Error": "invalid request method: POST"}`))
	})

	Context("when metrics are disabled", func() {
		BeforeEach(func() {
			options.Metrics = operations.MetricsOptions{Provider: "disabled"}
		})

		It("does not serve metrics", func() {
			resp, err := client.Get(url("/metrics"))
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})

var _ = Describe("Runner", func() {
	It("supports ifrit", func() {
		system := operations.NewSystem(operations.Options{ListenAddress: "127.0.0.1:0"})
		process := ifrit.Invoke(system)
		Eventually(process.Ready()).Should(BeClosed())
		Expect(system.Addr()).NotTo(BeEmpty())

		process.Signal(syscall.SIGTERM)
		Eventually(process.Wait()).Should(Receive(BeNil()))
	})

	It("reports listen failures", func() {
		system := operations.NewSystem(operations.Options{ListenAddress: "bad-address"})
		process := ifrit.Invoke(system)
		Eventually(process.Wait()).Should(Receive(MatchError(ContainSubstring("failed listening on bad-address"))))
	})
})
