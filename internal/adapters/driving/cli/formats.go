package cli

import (
	"github.com/spf13/cobra"

	"github.com/mergehub/mergebot/internal/formats"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported content formats",
	Run:   runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, _ []string) {
	registry := formats.NewDefaultRegistry()
	for _, id := range registry.Formats() {
		kind := "opaque"
		if id.IsLineBased() {
			kind = "line-based"
		}
		cmd.Printf("  %-15s %s\n", id, kind)
	}
	cmd.Printf("Proxy URI schemes: %d\n", len(formats.ProxySchemes))
}
