package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils/logger"
)

// ParseStream reads the source row by row, applies the schema to every data
// row and invokes onRecord for each non-empty result. It returns the number
// of records emitted.
//
// State machine: awaiting-header -> streaming -> exhausted. The header row
// (when the schema declares one) builds the header index and emits nothing;
// it also establishes the expected field count, so rows with an inconsistent
// cell count are skipped with a warning. Cell-level problems degrade to
// defaults, callback errors are logged and skipped; only an unrecoverable
// tokenizer error fails the stream. Line numbers are physical: blank lines
// advance them even though they yield no record.
func ParseStream(ctx context.Context, reader io.Reader, schema *types.Schema, onRecord RecordCallback, opts Options) (int64, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiterRune(opts.Delimiter)
	csvReader.LazyQuotes = !opts.StrictQuotes
	// skipped rows must not establish the expected field count
	csvReader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := csvReader.Read(); err != nil {
			return 0, fmt.Errorf("failed to skip row %d: %s", i, err)
		}
	}
	csvReader.FieldsPerRecord = 0

	index, err := resolveHeader(csvReader, schema, opts)
	if err != nil {
		return 0, err
	}

	checkpointEvery := opts.CheckpointEvery
	if checkpointEvery <= 0 {
		checkpointEvery = constants.CheckpointRecordStride
	}

	var emitted int64
	for {
		select {
		case <-ctx.Done():
			return emitted, ctx.Err()
		default:
		}

		if opts.MaxRecords > 0 && emitted >= opts.MaxRecords {
			logger.Debugf("record cap of %d reached, stopping stream", opts.MaxRecords)
			return emitted, nil
		}

		row, err := csvReader.Read()
		if err == io.EOF {
			return emitted, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if errors.Is(parseErr.Err, csv.ErrFieldCount) {
					logger.Warnf("line %d: inconsistent field count, row skipped", parseErr.Line)
					continue
				}
				// structural failure, e.g. unterminated quoting
				return emitted, fmt.Errorf("unrecoverable parse error at line %d: %s", parseErr.Line, parseErr.Err)
			}
			return emitted, fmt.Errorf("unrecoverable parse error: %s", err)
		}
		line, _ := csvReader.FieldPos(0)

		record, fieldErrs := Transform(row, index, schema, line)
		for _, fieldErr := range fieldErrs {
			logger.Debugf("line %d column [%s]: %s", fieldErr.Line, fieldErr.Column, fieldErr.Message)
			if opts.OnFieldError != nil {
				opts.OnFieldError(fieldErr)
			}
		}
		if len(record) == 0 {
			continue
		}

		if err := onRecord(ctx, record, line); err != nil {
			logger.Errorf("record handler failed at line %d: %s", line, err)
			continue
		}
		emitted++

		if emitted%checkpointEvery == 0 && opts.OnCheckpoint != nil {
			opts.OnCheckpoint(emitted)
		}
	}
}

// resolveHeader consumes the header row when the schema declares one,
// otherwise synthesizes the index from custom headers or column positions.
func resolveHeader(csvReader *csv.Reader, schema *types.Schema, opts Options) (HeaderIndex, error) {
	if schema.HasHeader {
		headers, err := csvReader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read header row: %s", err)
		}
		return BuildHeaderIndex(headers), nil
	}
	if len(opts.CustomHeaders) > 0 {
		return BuildHeaderIndex(opts.CustomHeaders), nil
	}
	return positionalIndex(schema), nil
}

func delimiterRune(delimiter string) rune {
	if delimiter == "" {
		return ','
	}
	return rune(delimiter[0])
}

// CountRecords is the cheap pre-pass over the same delimiter that yields the
// total before the first progress event. It mirrors the streaming pass: the
// first counted row establishes the field count and inconsistent rows are
// not counted.
func CountRecords(reader io.Reader, delimiter string, hasHeader bool, skipRows int) (int64, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiterRune(delimiter)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	csvReader.ReuseRecord = true

	for i := 0; i < skipRows; i++ {
		if _, err := csvReader.Read(); err != nil {
			return 0, fmt.Errorf("failed to skip row %d: %s", i, err)
		}
	}
	csvReader.FieldsPerRecord = 0

	var count int64
	for {
		_, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				continue
			}
			return 0, fmt.Errorf("failed to count records: %s", err)
		}
		count++
	}

	if hasHeader {
		count--
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}
