package destination

import (
	"context"
	"time"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils/backoff"
	"github.com/inlet-data/inlet/utils/logger"
)

// Batcher accumulates records and flushes them to the adapter on a size
// threshold, a time threshold, or a hard safety ceiling of twice the soft
// threshold. The buffer is cleared after every flush whether the write
// succeeded or not: a failing store never grows retained state, it costs the
// dropped batch instead (deliberate forward-progress tradeoff).
type Batcher struct {
	adapter   Adapter
	meta      BatchMeta
	soft      int
	hard      int
	interval  time.Duration
	buffer    []types.Record
	lastFlush time.Time
	written   int64
	flushErrs int

	// Retries and RetryBackoff bound the per-flush write retry loop.
	Retries      int
	RetryBackoff time.Duration

	// OnFlushError observes failed flushes for aggregate reporting; may be nil.
	OnFlushError func(err error, dropped int)
}

func NewBatcher(adapter Adapter, meta BatchMeta, soft int, interval time.Duration) *Batcher {
	if soft <= 0 {
		soft = constants.DefaultSoftBatchSize
	}
	if interval <= 0 {
		interval = constants.DefaultFlushInterval
	}
	return &Batcher{
		adapter:      adapter,
		meta:         meta,
		soft:         soft,
		hard:         soft * constants.BatchHardCeilingFactor,
		interval:     interval,
		buffer:       []types.Record{},
		lastFlush:    time.Now(),
		Retries:      constants.DefaultWriteRetries,
		RetryBackoff: constants.DefaultRetryBackoff,
	}
}

// Append adds one record and flushes when a threshold is crossed. The hard
// ceiling is enforced before the append so the buffer can never exceed it.
func (b *Batcher) Append(ctx context.Context, record types.Record) {
	if len(b.buffer) >= b.hard {
		b.flush(ctx)
	}

	b.buffer = append(b.buffer, record)

	if len(b.buffer) >= b.soft || (len(b.buffer) > 0 && time.Since(b.lastFlush) >= b.interval) {
		b.flush(ctx)
	}
}

// Flush forces out any remaining partial batch.
func (b *Batcher) Flush(ctx context.Context) {
	if len(b.buffer) > 0 {
		b.flush(ctx)
	}
}

func (b *Batcher) flush(ctx context.Context) {
	size := len(b.buffer)
	records := b.buffer
	// the buffer is handed off unconditionally; failures below drop it
	b.buffer = []types.Record{}
	defer func() {
		b.lastFlush = time.Now()
	}()

	var written int64
	err := backoff.Retry(ctx, b.Retries, b.RetryBackoff, func() error {
		n, writeErr := b.adapter.WriteBatch(ctx, records, b.meta)
		written = n
		return writeErr
	}, nil)
	if err != nil {
		b.flushErrs++
		logger.Errorf("batch [%s]: flush of %d records failed, batch dropped: %s", b.meta.BatchID, size, err)
		if b.OnFlushError != nil {
			b.OnFlushError(err, size)
		}
		return
	}

	b.written += written
	logger.Debugf("batch [%s]: flushed %d records", b.meta.BatchID, size)
}

// BatchID returns the opaque per-job batch identifier carried by flushes.
func (b *Batcher) BatchID() string {
	return b.meta.BatchID
}

// Len returns the current buffer length.
func (b *Batcher) Len() int {
	return len(b.buffer)
}

// Written returns the cumulative rows acknowledged by the adapter.
func (b *Batcher) Written() int64 {
	return b.written
}

// FlushErrors returns the number of dropped batches.
func (b *Batcher) FlushErrors() int {
	return b.flushErrs
}
