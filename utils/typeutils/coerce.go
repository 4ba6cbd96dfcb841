package typeutils

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
)

var (
	truthy = []string{"true", "yes", "1", "y", "t"}
	falsy  = []string{"false", "no", "0", "n", "f"}
)

// Coerce converts a single raw cell into a typed value for the declared
// type. It never fails: a cell that cannot be represented degrades to the
// configured default (commonly nil), so one malformed value never aborts a
// file.
func Coerce(raw string, dataType types.DataType, def any) any {
	trimmed := strings.TrimSpace(raw)

	switch dataType {
	case types.Number:
		// tolerate thousands separators
		cleaned := strings.ReplaceAll(trimmed, ",", "")
		if cleaned == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return def
		}
		return parsed
	case types.Boolean:
		lower := strings.ToLower(trimmed)
		if utils.ExistInArray(truthy, lower) {
			return true
		}
		if utils.ExistInArray(falsy, lower) {
			return false
		}
		return def
	case types.Date:
		parsed, err := ParseTimestamp(trimmed)
		if err != nil {
			return def
		}
		return parsed
	case types.Object:
		if trimmed == "" {
			return def
		}
		var value any
		if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
			return def
		}
		return value
	default: // text
		if trimmed == "" {
			return def
		}
		return trimmed
	}
}

// Render is the textual inverse of Coerce for representable values;
// Coerce(Render(v), t, nil) yields v again for every type t produces.
func Render(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
