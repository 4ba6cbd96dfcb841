package ingest

import (
	"sync"
	"time"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils/logger"
)

// Registry holds per-job status documents with a bounded retention window.
// The single worker mutates entries while arbitrarily many pollers read
// concurrently; readers always receive copies and never block the worker
// beyond the map lock.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*types.Job
	timers    map[string]*time.Timer
	retention time.Duration
	closed    bool
}

func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = constants.DefaultRetentionWindow
	}
	return &Registry{
		jobs:      map[string]*types.Job{},
		timers:    map[string]*time.Timer{},
		retention: retention,
	}
}

func (r *Registry) Put(job types.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	stored := job
	r.jobs[job.ID] = &stored
}

// Get returns a copy of the job document. Evicted jobs are gone for good;
// late pollers receive not-found.
func (r *Registry) Get(id string) (types.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, found := r.jobs[id]
	if !found {
		return types.Job{}, false
	}
	return *job, true
}

// Update applies mutate under the write lock. Transitions out of a terminal
// state are refused and progress counters never move backwards.
func (r *Registry) Update(id string, mutate func(job *types.Job)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, found := r.jobs[id]
	if !found {
		return false
	}

	prevStatus := job.Status
	prevCurrent := job.Current
	prevProgress := job.Progress

	mutate(job)

	if prevStatus.Terminal() && job.Status != prevStatus {
		logger.Warnf("job [%s]: refusing transition out of terminal state %s", id, prevStatus)
		job.Status = prevStatus
		return false
	}
	if job.Current < prevCurrent {
		job.Current = prevCurrent
	}
	if job.Progress < prevProgress {
		job.Progress = prevProgress
	}

	now := time.Now()
	job.UpdatedAt = &now

	if job.Status.Terminal() && !prevStatus.Terminal() {
		switch job.Status {
		case types.JobCompleted:
			job.CompletedAt = &now
		case types.JobFailed:
			job.FailedAt = &now
		}
		r.scheduleEviction(id)
	}
	return true
}

// scheduleEviction arms the one-shot retention timer; caller holds the lock.
func (r *Registry) scheduleEviction(id string) {
	if r.closed {
		return
	}
	r.timers[id] = time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.jobs, id)
		delete(r.timers, id)
		logger.Debugf("job [%s]: evicted after retention window", id)
	})
}

// Len returns the number of live (not yet evicted) job documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}
