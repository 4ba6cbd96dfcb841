package protocol

import (
	"os"

	"github.com/inlet-data/inlet/constants"
	"github.com/inlet-data/inlet/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	storeConfigPath string
	schemaPath      string
	forcedDelimiter string
	batchSize       int
	maxRecords      int64
	skipRows        int
	logFolder       string
	tempFolder      string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "inlet",
	Short: "streaming delimited-file ingestion",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		viper.SetDefault(constants.ConfigFolder, os.TempDir())
		if logFolder != "" {
			viper.Set(constants.ConfigFolder, logFolder)
		}
		if tempFolder != "" {
			viper.Set(constants.TempFolder, tempFolder)
		}
		logger.Init()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logger.Fatal(err)
	}
}

func init() {
	RootCmd.AddCommand(detectCmd, ingestCmd)
	RootCmd.PersistentFlags().StringVarP(&storeConfigPath, "store", "", "", "Path to the store adapter config (json)")
	RootCmd.PersistentFlags().StringVarP(&schemaPath, "schema", "", "", "(Optional) Path to a static schema (json); omitted selects dynamic-schema mode")
	RootCmd.PersistentFlags().StringVarP(&forcedDelimiter, "delimiter", "", "", "(Optional) Force the cell delimiter, overriding detection")
	RootCmd.PersistentFlags().IntVarP(&batchSize, "batch-size", "", constants.DefaultSoftBatchSize, "(Optional) Soft batch flush threshold")
	RootCmd.PersistentFlags().Int64VarP(&maxRecords, "max-records", "", 0, "(Optional) Cap on ingested records, 0 for unbounded")
	RootCmd.PersistentFlags().IntVarP(&skipRows, "skip-rows", "", 0, "(Optional) Leading rows to discard before the header")
	RootCmd.PersistentFlags().StringVarP(&logFolder, "log-folder", "", "", "(Optional) Folder for rotated log files")
	RootCmd.PersistentFlags().StringVarP(&tempFolder, "temp-dir", "", "", "(Optional) Folder swept for aged temporary inputs at startup")
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
