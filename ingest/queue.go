// Package ingest serializes ingestion jobs through a single-writer FIFO
// queue, tracks their lifecycle in a bounded-retention registry and exposes
// progress to both pushing and polling observers. One job's parse and batch
// state exists in memory at a time; queued jobs hold only their input
// reference and metadata.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/destination"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils/logger"
)

// Options configure a Service.
type Options struct {
	SoftBatchSize   int           `json:"soft_batch_size"`
	FlushInterval   time.Duration `json:"flush_interval"`
	Retention       time.Duration `json:"retention"`
	ResultSampleCap int           `json:"result_sample_cap"`
	QueueCapacity   int           `json:"queue_capacity"`
	// WriteRetries and RetryBackoff bound the per-flush write retry loop.
	WriteRetries int           `json:"write_retries"`
	RetryBackoff time.Duration `json:"retry_backoff"`
	// TempDir, when set, is swept once at startup for orphaned inputs left
	// by previously crashed jobs.
	TempDir string `json:"temp_dir"`
}

func (o *Options) defaults() {
	if o.SoftBatchSize <= 0 {
		o.SoftBatchSize = constants.DefaultSoftBatchSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = constants.DefaultFlushInterval
	}
	if o.Retention <= 0 {
		o.Retention = constants.DefaultRetentionWindow
	}
	if o.ResultSampleCap <= 0 || o.ResultSampleCap > constants.DefaultResultSampleCap {
		o.ResultSampleCap = constants.DefaultResultSampleCap
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = 64
	}
	if o.WriteRetries <= 0 {
		o.WriteRetries = constants.DefaultWriteRetries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = constants.DefaultRetryBackoff
	}
}

// Request describes one ingestion job at enqueue time: an input reference
// and metadata only, no parsed state.
type Request struct {
	// Path of the finite input source on disk.
	Path string
	// Filename is the original name hint used for format detection.
	Filename string
	// Delimiter, when set, overrides auto-detection unconditionally.
	Delimiter string
	// Schema to apply; nil selects dynamic-schema mode (synthesized from
	// detected headers and a bounded sample).
	Schema *types.Schema
	// MaxRecords caps ingested records; zero means unbounded.
	MaxRecords int64
	// SkipRows discards leading rows before the header.
	SkipRows int
}

type queuedJob struct {
	id      string
	request Request
}

// Service is the process-scoped queue/registry pair: explicit construction,
// explicit teardown, injected where needed.
type Service struct {
	options  Options
	adapter  destination.Adapter
	registry *Registry
	stream   *StreamSink
	queue    chan queuedJob

	mu      sync.Mutex
	pending []string
	active  string
	closed  bool

	activeCurrent atomic.Int64
	activeTotal   atomic.Int64

	wg sync.WaitGroup
}

// NewService starts the single ingestion worker and the startup temp-input
// sweep. The adapter is shared across jobs but only ever used by the one
// active job.
func NewService(ctx context.Context, adapter destination.Adapter, options Options) *Service {
	options.defaults()
	s := &Service{
		options:  options,
		adapter:  adapter,
		registry: NewRegistry(options.Retention),
		stream:   NewStreamSink(options.QueueCapacity * 4),
		queue:    make(chan queuedJob, options.QueueCapacity),
	}

	if options.TempDir != "" {
		go CleanupTempInputs(options.TempDir, constants.TempInputMaxAge)
	}

	logger.StatsLogger(ctx, func() (int64, int64, int64) {
		s.mu.Lock()
		queued := int64(len(s.pending))
		s.mu.Unlock()
		return queued, s.activeCurrent.Load(), s.activeTotal.Load()
	})

	s.wg.Add(1)
	go s.work(ctx)
	return s
}

// Enqueue registers a job and returns its status document. The returned
// queue position counts the jobs ahead of it, including the active one.
// The lock is held across the channel send so it serializes with Close:
// once closed is set no send can follow, and the capacity check keeps the
// buffered send from ever blocking under the lock.
func (s *Service) Enqueue(request Request) (types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.Job{}, fmt.Errorf("ingestion service is shut down")
	}
	if len(s.pending) >= s.options.QueueCapacity {
		return types.Job{}, fmt.Errorf("ingestion queue is full")
	}

	job := types.Job{
		ID:        uuid.NewString(),
		Status:    types.JobQueued,
		CreatedAt: time.Now(),
	}
	s.pending = append(s.pending, job.ID)
	job.QueuePosition = s.position(job.ID)
	s.registry.Put(job)
	s.queue <- queuedJob{id: job.ID, request: request}
	logger.Infof("job [%s]: queued at position %d", job.ID, job.QueuePosition)
	return job, nil
}

// Status returns the job document with a live queue position.
func (s *Service) Status(id string) (types.Job, bool) {
	job, found := s.registry.Get(id)
	if !found {
		return types.Job{}, false
	}
	if job.Status == types.JobQueued {
		s.mu.Lock()
		job.QueuePosition = s.position(id)
		s.mu.Unlock()
	}
	return job, true
}

// Events exposes the push progress stream.
func (s *Service) Events() <-chan Event {
	return s.stream.Events()
}

// Registry exposes the poll surface.
func (s *Service) Registry() *Registry {
	return s.registry
}

// position counts jobs ahead of id; caller holds s.mu.
func (s *Service) position(id string) int {
	ahead := 0
	if s.active != "" {
		ahead = 1
	}
	for _, pending := range s.pending {
		if pending == id {
			return ahead
		}
		ahead++
	}
	return ahead
}

func (s *Service) work(ctx context.Context) {
	defer s.wg.Done()
	for job := range s.queue {
		s.mu.Lock()
		s.active = job.id
		if len(s.pending) > 0 && s.pending[0] == job.id {
			s.pending = s.pending[1:]
		}
		s.mu.Unlock()

		s.execute(ctx, job)

		s.mu.Lock()
		s.active = ""
		s.mu.Unlock()
		s.activeCurrent.Store(0)
		s.activeTotal.Store(0)
	}
}

// execute wraps one job run; a panic or error inside the worker fails the
// job, never the queue.
func (s *Service) execute(ctx context.Context, job queuedJob) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("job [%s]: worker panic recovered: %v", job.id, rec)
			s.registry.Update(job.id, func(j *types.Job) {
				j.Status = types.JobFailed
				j.Error = fmt.Sprintf("internal failure: %v", rec)
			})
		}
	}()

	if err := s.runJob(ctx, job.id, job.request); err != nil {
		logger.Errorf("job [%s]: failed: %s", job.id, err)
		s.registry.Update(job.id, func(j *types.Job) {
			j.Status = types.JobFailed
			j.Error = err.Error()
		})
	}
}

// Close stops intake, drains queued jobs, and releases store handles.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	// closing under the lock: Enqueue sends while holding it, so no send
	// can race this close
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	s.registry.Close()
	return s.adapter.Close()
}
