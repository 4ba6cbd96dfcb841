package postgres

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/inlet-data/inlet/destination"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
	"github.com/inlet-data/inlet/utils/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	DSN   string `json:"dsn" validate:"required"`
	Table string `json:"table"`
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Table == "" {
		c.Table = "inlet_records"
	}
	return nil
}

// Postgres persists record batches into a single relational table: one row
// per record identity, the typed record serialized as a jsonb payload.
type Postgres struct {
	config *Config
	db     *sqlx.DB
}

func (p *Postgres) GetConfigRef() destination.Config {
	if p.config == nil {
		p.config = &Config{}
	}
	return p.config
}

func (p *Postgres) Type() types.StoreType {
	return types.Postgres
}

func (p *Postgres) Check(ctx context.Context) error {
	db, err := sqlx.Open("postgres", p.config.DSN)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %s", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgres: %s", err)
	}
	p.db = db
	return nil
}

func (p *Postgres) EnsureSchemaReady(ctx context.Context, _ *types.Schema) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			record_key TEXT PRIMARY KEY,
			job_id     TEXT NOT NULL,
			batch_id   TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.config.Table)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %s", p.config.Table, err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (batch_id)`,
		p.config.Table+"_batch_idx", p.config.Table)
	if _, err := p.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create batch index: %s", err)
	}
	return nil
}

// WriteBatch upserts the batch inside one transaction; a conflict on record
// identity overwrites the payload and refreshes updated_at.
func (p *Postgres) WriteBatch(ctx context.Context, records []types.Record, meta destination.BatchMeta) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %s", err)
	}
	defer tx.Rollback() //nolint:errcheck

	upsert := fmt.Sprintf(`
		INSERT INTO %q (record_key, job_id, batch_id, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (record_key) DO UPDATE
		SET payload = EXCLUDED.payload, batch_id = EXCLUDED.batch_id, updated_at = now()`,
		p.config.Table)

	var written int64
	for _, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			logger.Warnf("batch [%s]: skipping unserializable record: %s", meta.BatchID, err)
			continue
		}
		key := utils.GetKeysHash(record, identityKeys(record, meta.IdentityField)...)
		if _, err := tx.ExecContext(ctx, upsert, key, meta.JobID, meta.BatchID, payload); err != nil {
			return 0, fmt.Errorf("failed to upsert record: %s", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch [%s]: %s", meta.BatchID, err)
	}
	return written, nil
}

func (p *Postgres) CountBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT count(*) FROM %q WHERE batch_id = $1`, p.config.Table)
	if err := p.db.GetContext(ctx, &count, query, batchID); err != nil {
		return 0, fmt.Errorf("failed to count batch [%s]: %s", batchID, err)
	}
	return count, nil
}

func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// identityKeys narrows the hash input to the identity field when the record
// carries it; otherwise the whole record is hashed.
func identityKeys(record types.Record, identityField string) []string {
	if identityField != "" {
		if _, ok := record[identityField]; ok {
			return []string{identityField}
		}
	}
	return nil
}

func init() {
	destination.RegisteredAdapters[types.Postgres] = func() destination.Adapter {
		return &Postgres{}
	}
}
