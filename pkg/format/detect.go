package format

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils"
	"github.com/inlet-data/inlet/utils/logger"
)

// Options tune a single detection pass.
type Options struct {
	// Filename is an optional hint; a .tsv/.tab extension breaks ties in
	// favor of tabs.
	Filename string
	// ForcedDelimiter, when set, wins over anything the sample suggests.
	ForcedDelimiter string
}

// Detect inspects a bounded byte prefix of the source and classifies its
// delimiter and probable header row. Detection never fails: an unreadable
// source degrades to a comma-delimited guess at minimum confidence.
func Detect(reader io.Reader, opts Options) types.DetectedFormat {
	sample := make([]byte, constants.DetectionSampleBytes)
	n, err := io.ReadFull(reader, sample)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		logger.Warnf("format detection could not read sample: %s", err)
		return fallback(opts)
	}
	sample = sample[:n]
	if len(sample) == 0 {
		return fallback(opts)
	}

	lines := splitLines(string(sample), constants.DetectionSampleLines)
	first := lines[0]

	commas := strings.Count(first, constants.CommaDelimiter)
	tabs := strings.Count(first, constants.TabDelimiter)

	delimiter := constants.CommaDelimiter
	count := commas
	switch {
	case tabs > commas:
		delimiter = constants.TabDelimiter
		count = tabs
	case tabs == commas && tabs > 0 && tabExtension(opts.Filename):
		delimiter = constants.TabDelimiter
		count = tabs
	}

	confidence := constants.DetectionMinConfidence + 0.05*float64(count)
	if confidence > constants.DetectionMaxConfidence {
		confidence = constants.DetectionMaxConfidence
	}

	if opts.ForcedDelimiter != "" {
		delimiter = opts.ForcedDelimiter
		confidence = 1.0
	}

	return types.DetectedFormat{
		Kind:       kindOf(delimiter),
		Delimiter:  delimiter,
		Confidence: confidence,
		Headers:    headerSample(first, delimiter),
	}
}

func fallback(opts Options) types.DetectedFormat {
	delimiter := constants.CommaDelimiter
	confidence := constants.DetectionMinConfidence
	if opts.ForcedDelimiter != "" {
		delimiter = opts.ForcedDelimiter
		confidence = 1.0
	}
	return types.DetectedFormat{
		Kind:       kindOf(delimiter),
		Delimiter:  delimiter,
		Confidence: confidence,
	}
}

func kindOf(delimiter string) types.FormatKind {
	if delimiter == constants.CommaDelimiter {
		return types.FormatCSV
	}
	return types.FormatText
}

func tabExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".tsv" || ext == ".tab"
}

func splitLines(sample string, max int) []string {
	lines := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	if len(lines) > max {
		lines = lines[:max]
	}
	return lines
}

func headerSample(line, delimiter string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	parts := strings.Split(line, delimiter)
	headers := make([]string, 0, len(parts))
	for _, part := range parts {
		headers = append(headers, utils.TrimQuotes(part))
	}
	return headers
}
