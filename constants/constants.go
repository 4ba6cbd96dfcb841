package constants

import (
	"time"
)

const (
	// Batch accumulation defaults. The hard ceiling is always derived from
	// the soft threshold so a misconfigured flush interval can never grow
	// the buffer unbounded.
	DefaultSoftBatchSize   = 500
	BatchHardCeilingFactor = 2
	DefaultFlushInterval   = 5 * time.Second

	// Format detection reads a bounded prefix only.
	DetectionSampleBytes   = 4096
	DetectionSampleLines   = 5
	DetectionMaxConfidence = 0.95
	DetectionMinConfidence = 0.5

	// Dynamic schema inference samples at most this many data rows.
	InferenceSampleRows = 100

	DefaultRetentionWindow = time.Hour
	DefaultResultSampleCap = 20
	ProgressRecordStride   = 1000
	CheckpointRecordStride = 100000

	DefaultWriteRetries = 3
	DefaultRetryBackoff = time.Second

	// Orphaned temporary inputs older than this are removed at startup.
	TempInputMaxAge = 24 * time.Hour

	DefaultIdentityField = "id"

	// viper keys
	ConfigFolder = "CONFIG_FOLDER"
	TempFolder   = "TEMP_FOLDER"
)

const (
	CommaDelimiter = ","
	TabDelimiter   = "\t"
)
