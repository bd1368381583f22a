package cli

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the mergebot version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("mergebot %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
