package destination

import (
	"context"
	"testing"
	"time"

	"github.com/inlet-data/inlet/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter records every WriteBatch call; failing makes all writes error.
type fakeAdapter struct {
	failing bool
	batches [][]types.Record
	calls   int
}

func (f *fakeAdapter) GetConfigRef() Config                                   { return nil }
func (f *fakeAdapter) Type() types.StoreType                                  { return "fake" }
func (f *fakeAdapter) Check(context.Context) error                            { return nil }
func (f *fakeAdapter) EnsureSchemaReady(context.Context, *types.Schema) error { return nil }
func (f *fakeAdapter) CountBatch(context.Context, string) (int64, error)      { return 0, nil }
func (f *fakeAdapter) Close() error                                           { return nil }

func (f *fakeAdapter) WriteBatch(_ context.Context, records []types.Record, _ BatchMeta) (int64, error) {
	f.calls++
	if f.failing {
		return 0, assert.AnError
	}
	batch := make([]types.Record, len(records))
	copy(batch, records)
	f.batches = append(f.batches, batch)
	return int64(len(records)), nil
}

func record(id int) types.Record {
	return types.Record{"id": id}
}

func newTestBatcher(adapter Adapter, soft int, interval time.Duration) *Batcher {
	b := NewBatcher(adapter, BatchMeta{JobID: "job", BatchID: "batch"}, soft, interval)
	b.Retries = 1
	return b
}

func TestBatcherSoftThresholdFlush(t *testing.T) {
	adapter := &fakeAdapter{}
	batcher := newTestBatcher(adapter, 2, time.Hour)

	batcher.Append(context.Background(), record(1))
	assert.Equal(t, 1, batcher.Len())
	assert.Empty(t, adapter.batches)

	batcher.Append(context.Background(), record(2))
	assert.Equal(t, 0, batcher.Len())
	require.Len(t, adapter.batches, 1)
	assert.Len(t, adapter.batches[0], 2)
	assert.Equal(t, int64(2), batcher.Written())
}

func TestBatcherIntervalFlush(t *testing.T) {
	adapter := &fakeAdapter{}
	batcher := newTestBatcher(adapter, 100, 10*time.Millisecond)

	batcher.Append(context.Background(), record(1))
	time.Sleep(20 * time.Millisecond)
	batcher.Append(context.Background(), record(2))

	// the second append crossed the time threshold
	require.Len(t, adapter.batches, 1)
	assert.Len(t, adapter.batches[0], 2)
}

func TestBatcherFinalFlush(t *testing.T) {
	adapter := &fakeAdapter{}
	batcher := newTestBatcher(adapter, 100, time.Hour)

	batcher.Append(context.Background(), record(1))
	batcher.Flush(context.Background())
	require.Len(t, adapter.batches, 1)
	assert.Equal(t, 0, batcher.Len())

	// flushing an empty buffer is a no-op
	batcher.Flush(context.Background())
	assert.Len(t, adapter.batches, 1)
}

func TestBatcherFailedFlushClearsBuffer(t *testing.T) {
	adapter := &fakeAdapter{failing: true}
	batcher := newTestBatcher(adapter, 2, time.Hour)

	var dropped int
	batcher.OnFlushError = func(_ error, n int) {
		dropped += n
	}

	for i := 0; i < 8; i++ {
		batcher.Append(context.Background(), record(i))
		// never above the hard ceiling, empty right after every flush
		assert.LessOrEqual(t, batcher.Len(), 4)
	}
	batcher.Flush(context.Background())

	assert.Equal(t, 0, batcher.Len())
	assert.Equal(t, int64(0), batcher.Written())
	assert.Equal(t, 8, dropped)
	assert.Equal(t, 4, batcher.FlushErrors())
}

func TestBatcherRetriesTransientFailure(t *testing.T) {
	adapter := &fakeAdapter{failing: true}
	batcher := newTestBatcher(adapter, 10, time.Hour)
	batcher.Retries = 3
	batcher.RetryBackoff = time.Millisecond

	batcher.Append(context.Background(), record(1))
	batcher.Flush(context.Background())
	assert.Equal(t, 3, adapter.calls)
}

func TestBatcherDefaults(t *testing.T) {
	batcher := NewBatcher(&fakeAdapter{}, BatchMeta{BatchID: "b1"}, 0, 0)
	assert.Equal(t, "b1", batcher.BatchID())
	assert.Equal(t, int64(0), batcher.Written())
}
