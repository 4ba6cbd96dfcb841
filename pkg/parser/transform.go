package parser

import (
	"fmt"
	"strings"

	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils/typeutils"
)

// HeaderIndex maps lower-cased source column names to cell positions.
type HeaderIndex map[string]int

// BuildHeaderIndex builds the case-insensitive lookup used by Transform.
// Duplicate headers keep their first position.
func BuildHeaderIndex(headers []string) HeaderIndex {
	index := make(HeaderIndex, len(headers))
	for i, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

// positionalIndex binds schema columns to cells by declaration order, for
// headerless inputs without caller-supplied headers.
func positionalIndex(schema *types.Schema) HeaderIndex {
	index := make(HeaderIndex, len(schema.Columns))
	for i, col := range schema.Columns {
		index[strings.ToLower(col.Name)] = i
	}
	return index
}

// Transform maps one raw row into a typed record. Field errors are
// informational: they never halt the row or the stream. Rows yielding zero
// assigned fields come back as an empty record; the caller skips those.
//
// Columns sharing a field name overwrite in declaration order (last wins).
func Transform(row []string, index HeaderIndex, schema *types.Schema, line int) (types.Record, []types.FieldError) {
	record := types.Record{}
	errs := assignColumns(record, schema.Columns, row, index, line)

	for _, group := range schema.Nested {
		sub := types.Record{}
		errs = append(errs, assignColumns(sub, group.Columns, row, index, line)...)
		if len(sub) > 0 {
			record[group.FieldName] = sub
		}
	}

	return record, errs
}

func assignColumns(target types.Record, columns []types.ColumnDef, row []string, index HeaderIndex, line int) []types.FieldError {
	var errs []types.FieldError

	for _, col := range columns {
		pos, found := index[strings.ToLower(col.Name)]
		if !found || pos >= len(row) {
			if col.Required {
				errs = append(errs, types.FieldError{
					Line:    line,
					Column:  col.FieldName,
					Message: fmt.Sprintf("required column [%s] missing from input", col.Name),
				})
			}
			if col.Default != nil {
				target[col.FieldName] = col.Default
			}
			continue
		}

		value := typeutils.Coerce(row[pos], col.Type, col.Default)
		if col.Transform != nil {
			value = col.Transform(value)
		}
		if value == nil {
			if col.Required {
				errs = append(errs, types.FieldError{
					Line:    line,
					Column:  col.FieldName,
					Message: fmt.Sprintf("required field [%s] has no usable value", col.FieldName),
				})
			}
			continue
		}
		target[col.FieldName] = value
	}

	return errs
}
