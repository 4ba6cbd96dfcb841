// Package memory provides an in-process adapter used in tests and dry runs.
// It honors the same upsert-by-identity contract as the relational adapters.
package memory

import (
	"context"
	"sync"

	"github.com/inlet-data/inlet/destination"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
)

type Config struct{}

func (c *Config) Validate() error {
	return nil
}

type stored struct {
	record  types.Record
	batchID string
}

type Memory struct {
	config *Config
	mu     sync.Mutex
	rows   map[string]stored
}

func (m *Memory) GetConfigRef() destination.Config {
	if m.config == nil {
		m.config = &Config{}
	}
	return m.config
}

func (m *Memory) Type() types.StoreType {
	return types.Memory
}

func (m *Memory) Check(_ context.Context) error {
	m.rows = map[string]stored{}
	return nil
}

func (m *Memory) EnsureSchemaReady(_ context.Context, _ *types.Schema) error {
	return nil
}

func (m *Memory) WriteBatch(_ context.Context, records []types.Record, meta destination.BatchMeta) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		var keys []string
		if meta.IdentityField != "" {
			if _, ok := record[meta.IdentityField]; ok {
				keys = []string{meta.IdentityField}
			}
		}
		m.rows[utils.GetKeysHash(record, keys...)] = stored{record: record, batchID: meta.BatchID}
	}
	return int64(len(records)), nil
}

func (m *Memory) CountBatch(_ context.Context, batchID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, row := range m.rows {
		if row.batchID == batchID {
			count++
		}
	}
	return count, nil
}

// Len returns the number of distinct record identities stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Memory) Close() error {
	return nil
}

func init() {
	destination.RegisteredAdapters[types.Memory] = func() destination.Adapter {
		return &Memory{}
	}
}
