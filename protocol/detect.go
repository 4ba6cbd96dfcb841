package protocol

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/inlet-data/inlet/pkg/format"
	"github.com/spf13/cobra"
)

// detectCmd classifies an input file's delimiter and probable headers
// without ingesting it.
var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "detect the delimiter and header row of a delimited file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %s", err)
		}
		defer input.Close()

		detected := format.Detect(input, format.Options{
			Filename:        args[0],
			ForcedDelimiter: forcedDelimiter,
		})

		out, err := json.MarshalIndent(detected, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
