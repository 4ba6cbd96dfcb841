package parser

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
	"github.com/inlet-data/inlet/utils/logger"
	"github.com/inlet-data/inlet/utils/typeutils"
)

// SynthesizeSchema builds a dynamic schema from detected header names: each
// header lower-cased, non-alphanumeric runs collapsed to one underscore,
// edges stripped. Column types come from a bounded sample of data rows.
func SynthesizeSchema(name string, headers []string, sample [][]string) *types.Schema {
	columns := make([]types.ColumnDef, 0, len(headers))
	for i, header := range headers {
		fieldName := utils.Reformat(header)
		if fieldName == "" {
			fieldName = "column_" + strconv.Itoa(i)
		}
		columns = append(columns, types.ColumnDef{
			Name:      header,
			FieldName: fieldName,
			Type:      inferColumnType(sample, i),
		})
	}

	schema := &types.Schema{
		Name:      name,
		Columns:   columns,
		HasHeader: true,
	}
	logger.Infof("synthesized schema [%s] with %d columns", name, len(columns))
	return schema
}

// SampleRows reads up to constants.InferenceSampleRows data rows from a
// bounded prefix of the input, past the header row. Best effort: a ragged or
// truncated sample just yields fewer rows.
func SampleRows(reader io.Reader, delimiter string) (headers []string, sample [][]string) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiterRune(delimiter)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err != nil {
		return nil, nil
	}

	for i := 0; i < constants.InferenceSampleRows; i++ {
		row, err := csvReader.Read()
		if err != nil {
			break
		}
		sample = append(sample, row)
	}
	return headers, sample
}

// inferColumnType classifies one column from sample values. Priority when
// every non-null value parses: boolean > number > date > text. Empty and
// "null" cells are ignored; a column with no usable samples stays text.
func inferColumnType(sample [][]string, columnIndex int) types.DataType {
	allBool := true
	allNumber := true
	allDate := true
	nonNullCount := 0

	for _, row := range sample {
		if columnIndex >= len(row) {
			continue
		}

		value := strings.TrimSpace(row[columnIndex])
		if value == "" || strings.EqualFold(value, "null") {
			continue
		}
		nonNullCount++

		lower := strings.ToLower(value)
		if !utils.ExistInArray([]string{"true", "false"}, lower) {
			allBool = false
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err != nil {
			allNumber = false
		}
		if !typeutils.IsTimestamp(value) {
			allDate = false
		}
	}

	if nonNullCount == 0 {
		return types.Text
	}
	if allBool {
		return types.Boolean
	}
	if allNumber {
		return types.Number
	}
	if allDate {
		return types.Date
	}
	return types.Text
}
