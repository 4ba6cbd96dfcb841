package ingest

import (
	"os"
	"path/filepath"
	"time"

	"github.com/inlet-data/inlet/utils/logger"
)

// CleanupTempInputs removes temporary input files older than maxAge, left
// behind by previously crashed jobs. Best effort and single-shot: failures
// are logged and never block job intake.
func CleanupTempInputs(dir string, maxAge time.Duration) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf("temp input cleanup skipped: %s", err)
		return
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warnf("failed to remove orphaned input %s: %s", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Infof("removed %d orphaned temporary inputs from %s", removed, dir)
	}
}
