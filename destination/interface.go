package destination

import (
	"context"
	"fmt"

	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
)

type Config interface {
	Validate() error
}

// BatchMeta travels with every flushed batch. BatchID is unique per job and
// keys later batch-based queries; IdentityField selects the record value used
// for upsert-by-identity (absent value falls back to a whole-record hash).
type BatchMeta struct {
	JobID         string
	BatchID       string
	IdentityField string
}

// Adapter is the store boundary. Writes are idempotent upserts keyed by
// record identity: a conflict overwrites prior content and refreshes the
// update timestamp.
type Adapter interface {
	GetConfigRef() Config
	Type() types.StoreType
	// Check verifies connectivity; called once before the adapter is used.
	Check(ctx context.Context) error
	// EnsureSchemaReady prepares backing structures for the given schema.
	EnsureSchemaReady(ctx context.Context, schema *types.Schema) error
	// WriteBatch persists records in order and returns rows written.
	WriteBatch(ctx context.Context, records []types.Record, meta BatchMeta) (int64, error)
	// CountBatch returns the number of stored records carrying batchID.
	CountBatch(ctx context.Context, batchID string) (int64, error)
	Close() error
}

type NewFunc func() Adapter

var RegisteredAdapters = map[types.StoreType]NewFunc{}

// NewAdapter resolves, configures and checks the adapter named by config.
func NewAdapter(ctx context.Context, config *types.StoreConfig) (Adapter, error) {
	newfunc, found := RegisteredAdapters[config.Type]
	if !found {
		return nil, fmt.Errorf("invalid store type has been passed [%s]", config.Type)
	}

	adapter := newfunc()
	if err := utils.Unmarshal(config.StoreConfig, adapter.GetConfigRef()); err != nil {
		return nil, err
	}
	if err := adapter.GetConfigRef().Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s store config: %s", config.Type, err)
	}
	if err := adapter.Check(ctx); err != nil {
		return nil, fmt.Errorf("failed to test store: %s", err)
	}

	return adapter, nil
}
