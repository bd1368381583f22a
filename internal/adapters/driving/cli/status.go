package cli

import (
	"github.com/spf13/cobra"

	"github.com/mergehub/mergebot/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored pipeline state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.pipeline.Status(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Sources (%d):\n", len(report.Sources))
	for _, s := range report.Sources {
		last := "never"
		if !s.LastCheck.IsZero() {
			last = s.LastCheck.Format("2006-01-02 15:04:05")
		}
		cmd.Printf("  %-20s %-12s last check: %s\n", s.ID, s.Type, last)
	}

	cmd.Println("Files:")
	for _, status := range []domain.FileStatus{
		domain.StatusPending, domain.StatusProcessed,
		domain.StatusRejected, domain.StatusError,
	} {
		cmd.Printf("  %-10s %d\n", status, report.FileCounts[status])
	}

	cmd.Printf("Active records: %d\n", report.ActiveRecords)
	return nil
}
