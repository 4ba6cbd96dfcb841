package sqlite

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
	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Path  string `json:"path" validate:"required"`
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

// SQLite is the embedded variant of the relational adapter, same contract as
// postgres with the payload stored as serialized text.
type SQLite struct {
	config *Config
	db     *sqlx.DB
}

func (s *SQLite) GetConfigRef() destination.Config {
	if s.config == nil {
		s.config = &Config{}
	}
	return s.config
}

func (s *SQLite) Type() types.StoreType {
	return types.SQLite
}

func (s *SQLite) Check(ctx context.Context) error {
	db, err := sqlx.Open("sqlite3", s.config.Path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %s", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %s", err)
	}
	// single writer by design, avoid SQLITE_BUSY from pool churn
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *SQLite) EnsureSchemaReady(ctx context.Context, _ *types.Schema) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			record_key TEXT PRIMARY KEY,
			job_id     TEXT NOT NULL,
			batch_id   TEXT NOT NULL,
			payload    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, s.config.Table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %s", s.config.Table, err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (batch_id)`,
		s.config.Table+"_batch_idx", s.config.Table)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create batch index: %s", err)
	}
	return nil
}

func (s *SQLite) WriteBatch(ctx context.Context, records []types.Record, meta destination.BatchMeta) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %s", err)
	}
	defer tx.Rollback() //nolint:errcheck

	upsert := fmt.Sprintf(`
		INSERT INTO %q (record_key, job_id, batch_id, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (record_key) DO UPDATE
		SET payload = excluded.payload, batch_id = excluded.batch_id, updated_at = CURRENT_TIMESTAMP`,
		s.config.Table)

	var written int64
	for _, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			logger.Warnf("batch [%s]: skipping unserializable record: %s", meta.BatchID, err)
			continue
		}
		key := utils.GetKeysHash(record, identityKeys(record, meta.IdentityField)...)
		if _, err := tx.ExecContext(ctx, upsert, key, meta.JobID, meta.BatchID, string(payload)); err != nil {
			return 0, fmt.Errorf("failed to upsert record: %s", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch [%s]: %s", meta.BatchID, err)
	}
	return written, nil
}

func (s *SQLite) CountBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT count(*) FROM %q WHERE batch_id = ?`, s.config.Table)
	if err := s.db.GetContext(ctx, &count, query, batchID); err != nil {
		return 0, fmt.Errorf("failed to count batch [%s]: %s", batchID, err)
	}
	return count, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func identityKeys(record types.Record, identityField string) []string {
	if identityField != "" {
		if _, ok := record[identityField]; ok {
			return []string{identityField}
		}
	}
	return nil
}

func init() {
	destination.RegisteredAdapters[types.SQLite] = func() destination.Adapter {
		return &SQLite{}
	}
}
