package format

import (
	"strings"
	"testing"

	"github.com/inlet-data/inlet/types"
	"github.com/stretchr/testify/assert"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, assert.AnError
}

func TestDetect(t *testing.T) {
	testCases := []struct {
		name              string
		content           string
		opts              Options
		expectedKind      types.FormatKind
		expectedDelimiter string
		expectedHeaders   []string
	}{
		{
			name:              "comma delimited",
			content:           "id,name,age\n1,Alice,30\n",
			expectedKind:      types.FormatCSV,
			expectedDelimiter: ",",
			expectedHeaders:   []string{"id", "name", "age"},
		},
		{
			name:              "tab delimited",
			content:           "id\tname\tage\n1\tAlice\t30\n",
			expectedKind:      types.FormatText,
			expectedDelimiter: "\t",
			expectedHeaders:   []string{"id", "name", "age"},
		},
		{
			name:              "quoted headers trimmed",
			content:           "\"id\",\"full name\"\n1,Alice\n",
			expectedKind:      types.FormatCSV,
			expectedDelimiter: ",",
			expectedHeaders:   []string{"id", "full name"},
		},
		{
			name:              "forced delimiter wins over comma-looking content",
			content:           "a,b\tc,d\n",
			opts:              Options{ForcedDelimiter: "\t"},
			expectedKind:      types.FormatText,
			expectedDelimiter: "\t",
			expectedHeaders:   []string{"a,b", "c,d"},
		},
		{
			name:              "tie broken by tsv extension",
			content:           "a,b\tc\td,e\n",
			opts:              Options{Filename: "data.tsv"},
			expectedKind:      types.FormatText,
			expectedDelimiter: "\t",
			expectedHeaders:   []string{"a,b", "c", "d,e"},
		},
		{
			name:              "no delimiters defaults to comma",
			content:           "justoneword\nanother\n",
			expectedKind:      types.FormatCSV,
			expectedDelimiter: ",",
			expectedHeaders:   []string{"justoneword"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			detected := Detect(strings.NewReader(tc.content), tc.opts)
			assert.Equal(t, tc.expectedKind, detected.Kind)
			assert.Equal(t, tc.expectedDelimiter, detected.Delimiter)
			assert.Equal(t, tc.expectedHeaders, detected.Headers)
			assert.GreaterOrEqual(t, detected.Confidence, 0.5)
			assert.LessOrEqual(t, detected.Confidence, 1.0)
		})
	}
}

func TestDetectConfidence(t *testing.T) {
	// two commas in the first line
	detected := Detect(strings.NewReader("a,b,c\n"), Options{})
	assert.InDelta(t, 0.6, detected.Confidence, 1e-9)

	// many delimiters cap out below certainty
	wide := strings.Repeat("x,", 40) + "x\n"
	detected = Detect(strings.NewReader(wide), Options{})
	assert.InDelta(t, 0.95, detected.Confidence, 1e-9)

	// a forced delimiter is certain by definition
	detected = Detect(strings.NewReader("a,b,c\n"), Options{ForcedDelimiter: ","})
	assert.Equal(t, 1.0, detected.Confidence)
}

func TestDetectNeverFails(t *testing.T) {
	detected := Detect(failingReader{}, Options{})
	assert.Equal(t, types.FormatCSV, detected.Kind)
	assert.Equal(t, ",", detected.Delimiter)
	assert.Equal(t, 0.5, detected.Confidence)
	assert.Empty(t, detected.Headers)

	detected = Detect(failingReader{}, Options{ForcedDelimiter: "\t"})
	assert.Equal(t, "\t", detected.Delimiter)
	assert.Equal(t, 1.0, detected.Confidence)
}
