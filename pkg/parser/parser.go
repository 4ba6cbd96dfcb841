// Package parser drives a row-oriented tokenizer over a byte stream and
// turns raw rows into typed records under a declarative schema. It never
// materializes the whole input: rows are transformed and handed to the
// per-record callback one at a time, and the next row is not read before the
// callback's side effects for the current one have landed.
package parser

import (
	"context"

	"github.com/inlet-data/inlet/types"
)

// RecordCallback is invoked for exactly every non-empty transformed row with
// its 1-based line number. An error return is non-fatal to the stream: the
// pipeline logs it and continues with the next row.
type RecordCallback func(ctx context.Context, record types.Record, line int) error

// Checkpoint is the optional resource-pressure hook invoked every
// Options.CheckpointEvery records. Implementations without manual collection
// control simply leave it nil.
type Checkpoint func(records int64)

// Options tune one streaming parse pass.
type Options struct {
	// Delimiter separating cells; defaults to comma.
	Delimiter string
	// CustomHeaders substitute for a header row when the schema declares
	// none. With neither headers nor custom headers, schema columns bind
	// positionally in declaration order.
	CustomHeaders []string
	// SkipRows are consumed and discarded before the header row.
	SkipRows int
	// MaxRecords caps emitted records; zero means unbounded. Reaching the
	// cap stops reading without error.
	MaxRecords int64
	// StrictQuotes disables lazy quote handling; malformed quoting then
	// fails the whole stream instead of degrading per cell.
	StrictQuotes bool
	// CheckpointEvery defaults to constants.CheckpointRecordStride.
	CheckpointEvery int64
	OnCheckpoint    Checkpoint
	// OnFieldError observes recoverable per-cell errors; may be nil.
	OnFieldError func(types.FieldError)
}
