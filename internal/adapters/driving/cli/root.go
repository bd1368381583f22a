// Package cli wires the cobra command tree. Commands construct the
// pipeline from configuration on demand; nothing global is initialised
// before a command actually runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mergehub/mergebot/internal/logger"
)

var (
	version = "dev"

	flagConfig  string
	flagDataDir string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mergebot",
	Short: "Harvest, merge, and republish proxy configurations",
	Long: `mergebot ingests proxy and VPN configuration content from configured
sources, normalises it into deduplicated records, and builds merged
artifacts per route, republishing them when their content changes.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "mergebot.yaml",
		"path to the pipeline config file")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "",
		"data directory (default from settings, else ./data)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
