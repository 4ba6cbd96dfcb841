package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/destination"
	_ "github.com/inlet-data/inlet/destination/memory"
	_ "github.com/inlet-data/inlet/destination/postgres"
	_ "github.com/inlet-data/inlet/destination/sqlite"
	"github.com/inlet-data/inlet/ingest"
	"github.com/inlet-data/inlet/types"
	"github.com/inlet-data/inlet/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ingestCmd runs one file through the full pipeline into the configured
// store and follows its progress until the job is terminal.
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "ingest a delimited file into the configured store",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if storeConfigPath == "" {
			return fmt.Errorf("--store not passed")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		storeConfig, err := loadStoreConfig(storeConfigPath)
		if err != nil {
			return err
		}

		var schema *types.Schema
		if schemaPath != "" {
			if schema, err = loadSchema(schemaPath); err != nil {
				return err
			}
		}

		adapter, err := destination.NewAdapter(cmd.Context(), storeConfig)
		if err != nil {
			return err
		}

		service := ingest.NewService(cmd.Context(), adapter, ingest.Options{
			SoftBatchSize: batchSize,
			TempDir:       viper.GetString(constants.TempFolder),
		})
		defer func() {
			if err := service.Close(); err != nil {
				logger.Errorf("failed to close ingestion service: %s", err)
			}
		}()

		job, err := service.Enqueue(ingest.Request{
			Path:       args[0],
			Filename:   filepath.Base(args[0]),
			Delimiter:  forcedDelimiter,
			Schema:     schema,
			MaxRecords: maxRecords,
			SkipRows:   skipRows,
		})
		if err != nil {
			return err
		}

		final := follow(service, job.ID)
		if final.Status == types.JobFailed {
			return fmt.Errorf("ingestion failed: %s", final.Error)
		}
		logger.Infof("ingested %d records into batch %s", final.Result.Count, final.Result.BatchID)
		return nil
	},
}

// follow drains push events until the job reaches a terminal state.
func follow(service *ingest.Service, jobID string) types.Job {
	for {
		select {
		case event := <-service.Events():
			if event.JobID == jobID {
				logger.Infof("progress %d%% (%d/%d)", event.Progress, event.Current, event.Total)
			}
		case <-time.After(200 * time.Millisecond):
		}

		if job, found := service.Status(jobID); found && job.Status.Terminal() {
			return job
		}
	}
}

func loadStoreConfig(path string) (*types.StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store config: %s", err)
	}
	config := &types.StoreConfig{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal store config [%s]: %s", path, err)
	}
	return config, nil
}

func loadSchema(path string) (*types.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %s", err)
	}
	schema := &types.Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema [%s]: %s", path, err)
	}
	return schema, nil
}
