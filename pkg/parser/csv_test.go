package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/inlet-data/inlet/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	record types.Record
	line   int
}

func collect(t *testing.T, content string, schema *types.Schema, opts Options) ([]emitted, int64, error) {
	t.Helper()
	var out []emitted
	count, err := ParseStream(context.Background(), strings.NewReader(content), schema, func(_ context.Context, record types.Record, line int) error {
		out = append(out, emitted{record: record, line: line})
		return nil
	}, opts)
	return out, count, err
}

func TestParseStreamBasic(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
			{Name: "name", FieldName: "name", Type: types.Text},
		},
	}

	records, count, err := collect(t, "id,name\n1,Alice\n2,Bob\n", schema, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, records, 2)
	assert.Equal(t, types.Record{"id": "1", "name": "Alice"}, records[0].record)
	assert.Equal(t, 2, records[0].line)
	assert.Equal(t, types.Record{"id": "2", "name": "Bob"}, records[1].record)
	assert.Equal(t, 3, records[1].line)
}

func TestParseStreamFieldErrorDoesNotFailStream(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
			{Name: "name", FieldName: "name", Type: types.Text, Required: true},
		},
	}

	var fieldErrs []types.FieldError
	records, count, err := collect(t, "id,name\n1,Alice\n3,\n", schema, Options{
		OnFieldError: func(fieldErr types.FieldError) {
			fieldErrs = append(fieldErrs, fieldErr)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, types.Record{"id": "3"}, records[1].record)

	require.Len(t, fieldErrs, 1)
	assert.Equal(t, 3, fieldErrs[0].Line)
	assert.Equal(t, "name", fieldErrs[0].Column)
}

func TestParseStreamSkipsEmptyRows(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
		},
	}

	records, count, err := collect(t, "id\n1\n\n2\n", schema, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, records, 2)
	// line numbers are physical: the blank line still advances them
	assert.Equal(t, 2, records[0].line)
	assert.Equal(t, 4, records[1].line)
}

func TestParseStreamSkipsInconsistentFieldCounts(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
			{Name: "name", FieldName: "name", Type: types.Text},
		},
	}

	// one row short a cell, one row with an extra; both skipped whole
	records, count, err := collect(t, "id,name\n1,Alice\nonlyone\n2,Bob,extra\n3,Carol\n", schema, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, records, 2)
	assert.Equal(t, types.Record{"id": "1", "name": "Alice"}, records[0].record)
	assert.Equal(t, types.Record{"id": "3", "name": "Carol"}, records[1].record)
	assert.Equal(t, 5, records[1].line)
}

func TestParseStreamMaxRecords(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
		},
	}

	records, count, err := collect(t, "id\n1\n2\n3\n4\n", schema, Options{MaxRecords: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, records, 2)
}

func TestParseStreamHeaderlessPositional(t *testing.T) {
	schema := &types.Schema{
		HasHeader: false,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
			{Name: "name", FieldName: "name", Type: types.Text},
		},
	}

	records, count, err := collect(t, "1,Alice\n2,Bob\n", schema, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, types.Record{"id": "1", "name": "Alice"}, records[0].record)
	assert.Equal(t, 1, records[0].line)
}

func TestParseStreamCustomHeaders(t *testing.T) {
	schema := &types.Schema{
		HasHeader: false,
		Columns: []types.ColumnDef{
			{Name: "ident", FieldName: "id", Type: types.Text},
			{Name: "label", FieldName: "label", Type: types.Text},
		},
	}

	records, _, err := collect(t, "1,Alice\n", schema, Options{CustomHeaders: []string{"ident", "label"}})
	require.NoError(t, err)
	assert.Equal(t, types.Record{"id": "1", "label": "Alice"}, records[0].record)
}

func TestParseStreamSkipRows(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
		},
	}

	records, count, err := collect(t, "# comment\nid\n1\n", schema, Options{SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 3, records[0].line)
}

func TestParseStreamCallbackErrorIsNonFatal(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
		},
	}

	calls := 0
	count, err := ParseStream(context.Background(), strings.NewReader("id\n1\n2\n"), schema, func(_ context.Context, _ types.Record, _ int) error {
		calls++
		if calls == 1 {
			return assert.AnError
		}
		return nil
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	// the failed record is not counted as emitted
	assert.Equal(t, int64(1), count)
}

func TestParseStreamStructuralQuoteFailure(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
			{Name: "name", FieldName: "name", Type: types.Text},
		},
	}

	// an unterminated quoted field spanning the rest of the input
	_, err := ParseStream(context.Background(), strings.NewReader("id,name\n1,\"unterminated\n2,Bob\n"), schema, func(_ context.Context, _ types.Record, _ int) error {
		return nil
	}, Options{StrictQuotes: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecoverable parse error")
}

func TestParseStreamCheckpointHook(t *testing.T) {
	schema := &types.Schema{
		HasHeader: true,
		Columns: []types.ColumnDef{
			{Name: "id", FieldName: "id", Type: types.Text},
		},
	}

	var checkpoints []int64
	_, _, err := func() ([]emitted, int64, error) {
		var out []emitted
		count, err := ParseStream(context.Background(), strings.NewReader("id\n1\n2\n3\n4\n5\n"), schema, func(_ context.Context, record types.Record, line int) error {
			out = append(out, emitted{record: record, line: line})
			return nil
		}, Options{CheckpointEvery: 2, OnCheckpoint: func(records int64) {
			checkpoints = append(checkpoints, records)
		}})
		return out, count, err
	}()
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, checkpoints)
}

func TestCountRecords(t *testing.T) {
	testCases := []struct {
		name      string
		content   string
		delimiter string
		hasHeader bool
		skipRows  int
		expected  int64
	}{
		{name: "with header", content: "id,name\n1,Alice\n2,Bob\n", delimiter: ",", hasHeader: true, expected: 2},
		{name: "headerless", content: "1,Alice\n2,Bob\n", delimiter: ",", expected: 2},
		{name: "skip rows", content: "# x\nid\n1\n", delimiter: ",", hasHeader: true, skipRows: 1, expected: 1},
		{name: "empty input", content: "", delimiter: ",", hasHeader: true, expected: 0},
		{name: "tabs", content: "a\tb\n1\t2\n", delimiter: "\t", hasHeader: true, expected: 1},
		{name: "inconsistent rows not counted", content: "id,name\n1,Alice\nonlyone\n2,Bob\n", delimiter: ",", hasHeader: true, expected: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			count, err := CountRecords(strings.NewReader(tc.content), tc.delimiter, tc.hasHeader, tc.skipRows)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, count)
		})
	}
}
