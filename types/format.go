package types

type FormatKind string

const (
	FormatCSV  FormatKind = "csv"
	FormatText FormatKind = "text"
)

// DetectedFormat describes the inferred (or caller-forced) structure of an
// input source. It is derived once per job from a bounded byte prefix and is
// never persisted.
type DetectedFormat struct {
	Kind       FormatKind `json:"format"`
	Delimiter  string     `json:"delimiter"`
	Confidence float64    `json:"confidence"`
	Headers    []string   `json:"headers,omitempty"`
}
