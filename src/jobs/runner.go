package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/google/uuid"
)

// storeTimeout bounds the status write that follows a fetch, independent of
// the fetch timeout.
const storeTimeout = 10 * time.Second

// Result statuses beyond models.FetchStatusOK / FetchStatusFailed.
const StatusDiscarded = "discarded"

var (
	ErrQueueFull     = errors.New("fetch queue full")
	ErrRunnerStopped = errors.New("job runner stopped")
)

// ResultListener receives every finished fetch result.
type ResultListener interface {
	Broadcast(result models.MFetchResult)
}

type job struct {
	id     string
	record models.MStockRecord
}

// -----------------------------------------------------------------------------

// Runner executes fetch jobs on a fixed number of workers fed by a bounded
// queue. Each job fetches one quote and writes either the full metric group or
// the failure status to the store.
type Runner struct {
	Store    interfaces.IStockStore
	Provider interfaces.IQuoteProvider
	Logger   *logger.Logger
	Errors   *helpers.ErrorHandler

	workers int
	timeout time.Duration
	queue   chan job

	mu        sync.RWMutex
	started   bool
	stopped   bool
	listeners []ResultListener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics struct {
		running   atomic.Int64
		submitted atomic.Int64
		succeeded atomic.Int64
		failed    atomic.Int64
		rejected  atomic.Int64
	}
}

// -----------------------------------------------------------------------------

func NewRunner(cfg models.MJobsConfig, store interfaces.IStockStore, provider interfaces.IQuoteProvider, log *logger.Logger) *Runner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Runner{
		Store:    store,
		Provider: provider,
		Logger:   log,
		Errors:   helpers.NewErrorHandler(log),
		workers:  workers,
		timeout:  time.Duration(cfg.JobTimeoutSeconds) * time.Second,
		queue:    make(chan job, queueSize),
	}
}

// -----------------------------------------------------------------------------

// AddListener registers l for fetch results. Call before Start.
func (r *Runner) AddListener(l ResultListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// -----------------------------------------------------------------------------

// Start launches the workers. Jobs submitted before Start wait in the queue.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	if r.started {
		return fmt.Errorf("job runner is already running")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.started = true

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	r.Logger.Info("Started job runner: %d workers, queue size %d, timeout %v", r.workers, cap(r.queue), r.timeout)
	return nil
}

// -----------------------------------------------------------------------------

// Stop refuses new jobs and waits for queued ones to finish. If ctx ends
// first, in-flight jobs are cancelled and ctx.Err() is returned.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.Logger.Info("Job runner drained")
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// Submit enqueues one fetch job for record without blocking.
func (r *Runner) Submit(record models.MStockRecord) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return "", ErrRunnerStopped
	}

	j := job{id: uuid.NewString(), record: record}
	select {
	case r.queue <- j:
		r.metrics.submitted.Add(1)
		return j.id, nil
	default:
		r.metrics.rejected.Add(1)
		r.Logger.Warning("Fetch queue full, rejected job for %s", record.Symbol)
		return "", ErrQueueFull
	}
}

// -----------------------------------------------------------------------------

func (r *Runner) Stats() models.MJobStats {
	return models.MJobStats{
		Workers:   r.workers,
		QueueSize: cap(r.queue),
		Queued:    len(r.queue),
		Running:   r.metrics.running.Load(),
		Submitted: r.metrics.submitted.Load(),
		Succeeded: r.metrics.succeeded.Load(),
		Failed:    r.metrics.failed.Load(),
		Rejected:  r.metrics.rejected.Load(),
	}
}

// -----------------------------------------------------------------------------

func (r *Runner) worker() {
	defer r.wg.Done()
	for j := range r.queue {
		r.run(j)
	}
}

// -----------------------------------------------------------------------------

func (r *Runner) run(j job) {
	r.metrics.running.Add(1)
	defer r.metrics.running.Add(-1)

	start := time.Now()
	result := models.MFetchResult{
		JobID:    j.id,
		RecordID: j.record.ID,
		Symbol:   j.record.Symbol,
	}

	err := r.safeExecute(j)

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), storeTimeout)
	defer cancel()

	switch {
	case err == nil:
		result.Status = models.FetchStatusOK
		r.metrics.succeeded.Add(1)
	case errors.Is(err, helpers.ErrNotFound):
		result.Status = StatusDiscarded
		result.Error = err.Error()
		r.Logger.Info("Record %s (id %d) deleted before fetch completed", j.record.Symbol, j.record.ID)
	default:
		result.Status = models.FetchStatusFailed
		result.Error = err.Error()
		r.metrics.failed.Add(1)
		r.Errors.Handle(err, "fetch job "+j.record.Symbol)

		if markErr := r.Store.MarkFetchFailed(storeCtx, j.record.ID, err.Error(), time.Now().UTC()); markErr != nil {
			if errors.Is(markErr, helpers.ErrNotFound) {
				result.Status = StatusDiscarded
			} else {
				r.Errors.Handle(markErr, "record fetch failure "+j.record.Symbol)
			}
		}
	}

	result.Duration = time.Since(start)
	if result.Status != StatusDiscarded {
		if rec, getErr := r.Store.Get(storeCtx, j.record.ID); getErr == nil {
			result.Record = rec
		}
	}

	r.Logger.Info("Fetch job %s for %s finished: %s in %v", j.id, j.record.Symbol, result.Status, result.Duration)
	r.notify(result)
}

// -----------------------------------------------------------------------------

// safeExecute turns a panic inside a job into an error so the worker survives.
func (r *Runner) safeExecute(j job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fetch job panicked: %v", p)
		}
	}()
	return r.execute(j)
}

// -----------------------------------------------------------------------------

func (r *Runner) execute(j job) error {
	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(r.ctx, r.timeout)
		defer cancel()
	}

	quote, err := r.Provider.FetchQuote(ctx, j.record.Symbol)
	if err != nil {
		return err
	}

	metrics, err := quote.Metrics()
	if err != nil {
		return helpers.NewProviderDataMissing(j.record.Symbol, err)
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), storeTimeout)
	defer cancel()
	return r.Store.ApplyQuote(storeCtx, j.record.ID, metrics, time.Now().UTC())
}

// -----------------------------------------------------------------------------

func (r *Runner) notify(result models.MFetchResult) {
	r.mu.RLock()
	listeners := r.listeners
	r.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.Logger.Error("Result listener panicked: %v", p)
				}
			}()
			l.Broadcast(result)
		}()
	}
}
