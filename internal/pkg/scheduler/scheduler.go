/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package scheduler evaluates batches of independent tasks on a fixed
// pool of workers. Each worker owns one fhe.Evaluator; the evaluation key
// is installed on every evaluator once, when the pool starts, before any
// task is accepted.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/common/metrics"
	"github.com/lla-dane/FHE-AES128/common/metrics/disabled"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("scheduler")

var (
	// ErrNotStarted is returned by Execute when Start has not completed.
	ErrNotStarted = errors.New("scheduler not started")

	// ErrStopped is returned by Start and Execute once the pool is stopped.
	ErrStopped = errors.New("scheduler stopped")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Task is a unit of work evaluated on one worker with that worker's
// evaluator. A task must not call Execute on the pool running it.
type Task func(ev fhe.Evaluator) error

// Config contains the pool configuration.
type Config struct {
	// Workers is the number of workers, and of evaluators, in the pool.
	Workers int `mapstructure:"workers" yaml:"Workers"`
}

type job struct {
	task Task
	err  *error
	done *sync.WaitGroup
}

// Pool is a fixed-size worker pool. It is safe for concurrent use: several
// goroutines may Execute batches at the same time and their tasks are
// interleaved on the workers.
type Pool struct {
	scheme  fhe.Scheme
	workers int
	metrics *Metrics

	mutex   sync.RWMutex
	started bool
	stopped bool
	jobs    chan job
	wg      sync.WaitGroup
}

// New creates a pool of evaluators of scheme. The pool does not run
// anything until Start is called. A nil provider disables metrics.
func New(scheme fhe.Scheme, conf Config, provider metrics.Provider) (*Pool, error) {
	if scheme == nil {
		return nil, errors.New("scheme must not be nil")
	}
	if conf.Workers <= 0 {
		return nil, errors.Errorf("invalid number of workers %d, it must be greater than 0", conf.Workers)
	}
	if provider == nil {
		provider = &disabled.Provider{}
	}

	return &Pool{
		scheme:  scheme,
		workers: conf.Workers,
		metrics: NewMetrics(provider),
	}, nil
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// HealthCheck reports whether the pool accepts tasks.
func (p *Pool) HealthCheck(context.Context) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	switch {
	case p.stopped:
		return ErrStopped
	case !p.started:
		return ErrNotStarted
	}
	return nil
}

// Start creates one evaluator per worker and installs ek on each of them
// before any task is accepted. When any installation fails, the workers
// are stopped and the error of the lowest numbered worker is returned
// unchanged.
func (p *Pool) Start(ek fhe.EvaluationKey) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyStarted
	}

	jobs := make(chan job)
	installed := make([]chan error, p.workers)
	for i := 0; i < p.workers; i++ {
		installed[i] = make(chan error, 1)
		p.wg.Add(1)
		go p.work(i, ek, jobs, installed[i])
	}

	var firstErr error
	for _, c := range installed {
		if err := <-c; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		close(jobs)
		p.wg.Wait()
		return firstErr
	}

	p.jobs = jobs
	p.started = true
	p.metrics.Workers.Set(float64(p.workers))
	logger.Debugf("started %d workers", p.workers)
	return nil
}

func (p *Pool) work(id int, ek fhe.EvaluationKey, jobs <-chan job, installed chan<- error) {
	defer p.wg.Done()

	ev := p.scheme.NewEvaluator()
	if err := ev.InstallKey(ek); err != nil {
		logger.Warnf("worker %d failed installing evaluation key: %s", id, err)
		installed <- err
		return
	}
	installed <- nil

	for j := range jobs {
		*j.err = j.task(ev)
		j.done.Done()
	}
}

// Execute evaluates tasks on the pool and waits for all dispatched tasks
// to complete. It returns the error of the first failing task in task
// order. Cancelling ctx stops the dispatch of tasks not yet handed to a
// worker; tasks already running complete.
func (p *Pool) Execute(ctx context.Context, tasks ...Task) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.stopped {
		return ErrStopped
	}
	if !p.started {
		return ErrNotStarted
	}
	if len(tasks) == 0 {
		return nil
	}

	start := time.Now()
	errs := make([]error, len(tasks))
	var done sync.WaitGroup
	var dispatchErr error
	dispatched := 0

dispatch:
	for i, t := range tasks {
		if dispatchErr = ctx.Err(); dispatchErr != nil {
			break
		}
		done.Add(1)
		select {
		case p.jobs <- job{task: t, err: &errs[i], done: &done}:
			dispatched++
		case <-ctx.Done():
			done.Done()
			dispatchErr = ctx.Err()
			break dispatch
		}
	}
	done.Wait()

	p.metrics.TasksExecuted.Add(float64(dispatched))
	p.metrics.BatchDuration.Observe(time.Since(start).Seconds())

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return dispatchErr
}

// Stop stops accepting tasks and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	if !p.started {
		return
	}

	close(p.jobs)
	p.wg.Wait()
	p.metrics.Workers.Set(0)
	logger.Debugf("stopped %d workers", p.workers)
}
