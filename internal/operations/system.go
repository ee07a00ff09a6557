/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package operations serves the operational endpoints of a running
// evaluator: metrics, health and the logging specification.
package operations

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/common/metadata"
	"github.com/lla-dane/FHE-AES128/common/metrics"
	"github.com/lla-dane/FHE-AES128/common/metrics/disabled"
	"github.com/lla-dane/FHE-AES128/common/metrics/prometheus"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Logger interface {
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type MetricsOptions struct {
	// Provider is disabled or prometheus.
	Provider string

	// Registerer and Gatherer default to the prometheus default registry.
	Registerer prom.Registerer
	Gatherer   prom.Gatherer
}

type Options struct {
	Logger        Logger
	ListenAddress string
	Metrics       MetricsOptions
	Version       string

	// Backend is the name of the scheme blocks are evaluated on.
	Backend string
}

// System is the operations endpoint. It is also the metrics provider of
// the process.
type System struct {
	metrics.Provider

	logger        Logger
	options       Options
	router        *mux.Router
	healthHandler *healthz.HealthHandler
	versionGauge  metrics.Gauge

	mutex    sync.Mutex
	listener net.Listener
	server   *http.Server
}

func NewSystem(o Options) *System {
	logger := o.Logger
	if logger == nil {
		logger = flogging.MustGetLogger("operations")
	}
	if o.Version == "" {
		o.Version = metadata.Version
	}

	system := &System{
		logger:  logger,
		options: o,
		router:  mux.NewRouter(),
	}

	system.initializeHealthCheckHandler()
	system.initializeLoggingHandler()
	system.initializeMetricsProvider()
	system.initializeVersionInfoHandler()

	return system
}

// Router returns the router serving the endpoints.
func (s *System) Router() http.Handler {
	return s.router
}

// RegisterChecker registers a health checker under component.
func (s *System) RegisterChecker(component string, checker healthz.HealthChecker) error {
	return s.healthHandler.RegisterChecker(component, checker)
}

func (s *System) initializeMetricsProvider() {
	m := s.options.Metrics
	switch strings.ToLower(m.Provider) {
	case "prometheus":
		s.Provider = &prometheus.Provider{Registerer: m.Registerer}
		var handler http.Handler
		if m.Gatherer != nil {
			handler = promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})
		} else {
			handler = promhttp.Handler()
		}
		s.router.Handle("/metrics", handler).Methods(http.MethodGet)

	default:
		if m.Provider != "" && strings.ToLower(m.Provider) != "disabled" {
			s.logger.Warnf("Unknown provider type: %s; metrics disabled", m.Provider)
		}
		s.Provider = &disabled.Provider{}
	}

	s.versionGauge = s.Provider.NewGauge(versionGaugeOpts)
}

func (s *System) initializeLoggingHandler() {
	s.router.Handle("/logspec", NewSpecHandler(s.logger)).Methods(http.MethodGet, http.MethodPut)
}

func (s *System) initializeHealthCheckHandler() {
	s.healthHandler = healthz.NewHealthHandler()
	s.router.Handle("/healthz", s.healthHandler).Methods(http.MethodGet)
}

func (s *System) initializeVersionInfoHandler() {
	versionInfo := &VersionInfoHandler{
		Logger:      s.logger,
		VersionInfo: newVersionInfo(s.options),
	}
	s.router.Handle("/version", versionInfo)
}

// Start listens on the configured address and serves in the background.
func (s *System) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.server != nil {
		return errors.New("operations system already started")
	}

	listener, err := net.Listen("tcp", s.options.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed listening on %s", s.options.ListenAddress)
	}

	s.versionGauge.With("version", s.options.Version).Set(1)
	s.listener = listener
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	go s.server.Serve(listener)
	return nil
}

// Stop shuts the server down.
func (s *System) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	return err
}

// Addr returns the address the system listens on, once started.
func (s *System) Addr() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run implements ifrit.Runner.
func (s *System) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	if err := s.Start(); err != nil {
		return err
	}
	close(ready)
	<-signals
	return s.Stop()
}
