package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/destination"
	"github.com/inlet-data/inlet/pkg/format"
	"github.com/inlet-data/inlet/pkg/parser"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
	"github.com/inlet-data/inlet/utils/logger"
)

// inferenceSampleBytes bounds the prefix read for dynamic-schema sampling.
const inferenceSampleBytes = 64 * 1024

// runJob executes one dequeued job end to end: detect format, resolve the
// schema, pre-pass count, stream-parse into the batch accumulator, flush the
// remainder and mark the job terminal. Only structural failures surface as
// errors; everything else degrades and is reported in aggregate.
func (s *Service) runJob(ctx context.Context, id string, request Request) error {
	s.registry.Update(id, func(job *types.Job) {
		job.Status = types.JobProcessing
		job.QueuePosition = 0
	})
	logger.Infof("job [%s]: processing input %s", id, request.Filename)

	detected, err := s.detectFormat(request)
	if err != nil {
		return err
	}
	s.registry.Update(id, func(job *types.Job) {
		job.Format = detected.Kind
		job.Delimiter = detected.Delimiter
	})

	schema := request.Schema
	if schema == nil {
		if schema, err = s.synthesizeSchema(request, detected); err != nil {
			return err
		}
	}

	total, err := s.countTotal(request, detected.Delimiter, schema.HasHeader)
	if err != nil {
		return err
	}
	s.activeTotal.Store(total)
	s.registry.Update(id, func(job *types.Job) {
		job.Total = total
	})

	if err := s.adapter.EnsureSchemaReady(ctx, schema); err != nil {
		return fmt.Errorf("store not ready: %s", err)
	}

	identityField := utils.Ternary(schema.IdentityField == "", constants.DefaultIdentityField, schema.IdentityField).(string)
	batcher := destination.NewBatcher(s.adapter, destination.BatchMeta{
		JobID:         id,
		BatchID:       utils.ULID(),
		IdentityField: identityField,
	}, s.options.SoftBatchSize, s.options.FlushInterval)
	batcher.Retries = s.options.WriteRetries
	batcher.RetryBackoff = s.options.RetryBackoff

	var droppedRecords int64
	batcher.OnFlushError = func(_ error, dropped int) {
		droppedRecords += int64(dropped)
	}

	input, err := os.Open(request.Path)
	if err != nil {
		return fmt.Errorf("failed to open input: %s", err)
	}
	defer input.Close()

	sinks := MultiSink{&RegistrySink{Registry: s.registry}, s.stream}
	progress := newTracker()
	sample := make([]types.Record, 0, s.options.ResultSampleCap)
	var fieldErrors int64

	emitted, err := parser.ParseStream(ctx, input, schema, func(ctx context.Context, record types.Record, line int) error {
		batcher.Append(ctx, record)
		if len(sample) < s.options.ResultSampleCap {
			sample = append(sample, record)
		}

		current := s.activeCurrent.Add(1)
		if pct, publish := progress.observe(current, total); publish {
			sinks.Publish(Event{JobID: id, Progress: pct, Current: current, Total: total})
		}
		return nil
	}, parser.Options{
		Delimiter:     detected.Delimiter,
		CustomHeaders: nil,
		SkipRows:      request.SkipRows,
		MaxRecords:    request.MaxRecords,
		OnFieldError: func(fieldErr types.FieldError) {
			fieldErrors++
		},
	})
	if err != nil {
		batcher.Flush(ctx)
		return fmt.Errorf("stream failed: %s", err)
	}

	batcher.Flush(ctx)

	if fieldErrors > 0 {
		logger.Warnf("job [%s]: %d field-level errors recovered", id, fieldErrors)
	}
	if droppedRecords > 0 {
		logger.Warnf("job [%s]: %d records dropped on failed flushes", id, droppedRecords)
	}

	result := &types.JobResult{
		Count:     emitted,
		Sample:    sample,
		Format:    detected.Kind,
		Delimiter: detected.Delimiter,
		BatchID:   batcher.BatchID(),
	}
	sinks.Publish(Event{JobID: id, Progress: 100, Current: emitted, Total: total})
	s.registry.Update(id, func(job *types.Job) {
		job.Status = types.JobCompleted
		job.Progress = 100
		job.Current = emitted
		job.Result = result
	})
	logger.Infof("job [%s]: completed, %d records in batch %s (%d written to store)",
		id, emitted, result.BatchID, batcher.Written())
	return nil
}

// detectFormat reads a bounded prefix of the input; a caller-forced
// delimiter always wins over the sample.
func (s *Service) detectFormat(request Request) (types.DetectedFormat, error) {
	input, err := os.Open(request.Path)
	if err != nil {
		return types.DetectedFormat{}, fmt.Errorf("failed to open input: %s", err)
	}
	defer input.Close()

	return format.Detect(input, format.Options{
		Filename:        firstNonEmpty(request.Filename, filepath.Base(request.Path)),
		ForcedDelimiter: request.Delimiter,
	}), nil
}

// synthesizeSchema builds the dynamic schema from detected headers and a
// bounded row sample.
func (s *Service) synthesizeSchema(request Request, detected types.DetectedFormat) (*types.Schema, error) {
	input, err := os.Open(request.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input for sampling: %s", err)
	}
	defer input.Close()

	headers, rows := parser.SampleRows(io.LimitReader(input, inferenceSampleBytes), detected.Delimiter)
	if len(headers) == 0 {
		return nil, fmt.Errorf("dynamic schema requested but input has no header row")
	}

	base := filepath.Base(firstNonEmpty(request.Filename, request.Path))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return parser.SynthesizeSchema(utils.Reformat(name), headers, rows), nil
}

// countTotal is the cheap second pass that yields the total before the
// first progress event.
func (s *Service) countTotal(request Request, delimiter string, hasHeader bool) (int64, error) {
	input, err := os.Open(request.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to open input for counting: %s", err)
	}
	defer input.Close()

	total, err := parser.CountRecords(input, delimiter, hasHeader, request.SkipRows)
	if err != nil {
		return 0, fmt.Errorf("failed to pre-count records: %s", err)
	}
	return total, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
