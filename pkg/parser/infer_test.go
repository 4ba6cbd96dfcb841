package parser

import (
	"strings"
	"testing"

	"github.com/inlet-data/inlet/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferColumnType(t *testing.T) {
	testCases := []struct {
		name     string
		sample   [][]string
		column   int
		expected types.DataType
	}{
		{
			name:     "booleans",
			sample:   [][]string{{"true"}, {"FALSE"}, {"true"}},
			expected: types.Boolean,
		},
		{
			name:     "integers classify as number",
			sample:   [][]string{{"1"}, {"2"}, {"300"}},
			expected: types.Number,
		},
		{
			name:     "floats with thousands separators",
			sample:   [][]string{{"1,234.5"}, {"2.71"}},
			expected: types.Number,
		},
		{
			name:     "dates",
			sample:   [][]string{{"2024-01-15"}, {"2024-02-20"}},
			expected: types.Date,
		},
		{
			name:     "mixed falls back to text",
			sample:   [][]string{{"2024-01-15"}, {"not a date"}},
			expected: types.Text,
		},
		{
			name:     "null cells ignored",
			sample:   [][]string{{"null"}, {""}, {"42"}},
			expected: types.Number,
		},
		{
			name:     "all null defaults to text",
			sample:   [][]string{{""}, {"NULL"}},
			expected: types.Text,
		},
		{
			name:     "short rows skipped",
			sample:   [][]string{{"a"}, {"a", "7"}},
			column:   1,
			expected: types.Number,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, inferColumnType(tc.sample, tc.column))
		})
	}
}

func TestSynthesizeSchema(t *testing.T) {
	headers := []string{"Order ID", "Total ($)", "Shipped?", "  "}
	sample := [][]string{
		{"1", "10.50", "true", "x"},
		{"2", "20.00", "false", "y"},
	}

	schema := SynthesizeSchema("orders", headers, sample)
	require.Len(t, schema.Columns, 4)
	assert.True(t, schema.HasHeader)

	assert.Equal(t, "order_id", schema.Columns[0].FieldName)
	assert.Equal(t, types.Number, schema.Columns[0].Type)
	assert.Equal(t, "total", schema.Columns[1].FieldName)
	assert.Equal(t, types.Number, schema.Columns[1].Type)
	assert.Equal(t, "shipped", schema.Columns[2].FieldName)
	assert.Equal(t, types.Boolean, schema.Columns[2].Type)

	// headers that normalize to nothing fall back to positional names
	assert.Equal(t, "column_3", schema.Columns[3].FieldName)

	// source names stay untouched for header lookup
	assert.Equal(t, "Order ID", schema.Columns[0].Name)
}

func TestSampleRows(t *testing.T) {
	headers, sample := SampleRows(strings.NewReader("id,name\n1,Alice\n2,Bob\n"), ",")
	assert.Equal(t, []string{"id", "name"}, headers)
	require.Len(t, sample, 2)
	assert.Equal(t, []string{"2", "Bob"}, sample[1])

	headers, sample = SampleRows(strings.NewReader(""), ",")
	assert.Nil(t, headers)
	assert.Nil(t, sample)
}
