package ingest

import (
	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/types"
)

// Event is one progress observation of a running job.
type Event struct {
	JobID    string `json:"jobId"`
	Progress int    `json:"progress"`
	Current  int64  `json:"current"`
	Total    int64  `json:"total"`
}

// Sink receives progress events. The pipeline publishes through sinks
// without knowing whether delivery is push (event stream) or pull
// (registry-backed polling).
type Sink interface {
	Publish(event Event)
}

// RegistrySink backs pull-style polling by folding events into the registry.
type RegistrySink struct {
	Registry *Registry
}

func (s *RegistrySink) Publish(event Event) {
	s.Registry.Update(event.JobID, func(job *types.Job) {
		job.Progress = event.Progress
		job.Current = event.Current
		job.Total = event.Total
	})
}

// StreamSink backs push-style delivery over a buffered channel. A slow
// consumer loses events rather than stalling the pipeline.
type StreamSink struct {
	events chan Event
}

func NewStreamSink(buffer int) *StreamSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &StreamSink{events: make(chan Event, buffer)}
}

func (s *StreamSink) Publish(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

func (s *StreamSink) Events() <-chan Event {
	return s.events
}

// MultiSink fans one event out to all member sinks.
type MultiSink []Sink

func (m MultiSink) Publish(event Event) {
	for _, sink := range m {
		sink.Publish(event)
	}
}

// tracker throttles progress publishing: at most one event per percentage
// change or per fixed record stride, whichever comes sooner, so very large
// files do not flood the sinks.
type tracker struct {
	lastProgress int
	lastCurrent  int64
}

func newTracker() *tracker {
	return &tracker{lastProgress: -1}
}

func (t *tracker) observe(current, total int64) (int, bool) {
	progress := 100
	if total > 0 {
		progress = int(float64(current) / float64(total) * 100)
		if progress > 100 {
			progress = 100
		}
	}

	if progress != t.lastProgress || current-t.lastCurrent >= constants.ProgressRecordStride || current == total {
		t.lastProgress = progress
		t.lastCurrent = current
		return progress, true
	}
	return progress, false
}
