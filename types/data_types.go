package types

type DataType string

const (
	Null    DataType = "null"
	Text    DataType = "text"
	Number  DataType = "number"
	Boolean DataType = "boolean"
	Date    DataType = "date"
	Object  DataType = "object"
)

// Record is a single typed record produced from one input row. Values are
// string, float64, bool, time.Time, nested Record, or []any. A Record is
// never mutated after it is handed to the batch accumulator.
type Record map[string]any

// FieldError is a recoverable, per-cell conversion problem. It is attached to
// the row's line number and never halts the stream.
type FieldError struct {
	Line    int    `json:"line"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}
