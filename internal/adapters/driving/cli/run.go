package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/lockfile"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full pipeline run",
	Long: `Runs the four pipeline phases in order: ingest new content from all
sources, transform pending files into records, build and publish route
artifacts, then clean up unreferenced blobs and expired archives.

Only one run may execute at a time; a second invocation fails fast
while the first holds the run lock.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lock, err := lockfile.Acquire(filepath.Join(a.dataDir, "run.lock"))
	if err != nil {
		if lockfile.IsLocked(err) {
			return domain.ErrRunLocked
		}
		return err
	}
	defer lock.Release() //nolint:errcheck

	summary, err := a.pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	cmd.Printf("Run finished in %s\n", summary.Duration().Round(time.Millisecond))
	cmd.Printf("  sources checked:   %d\n", summary.SourcesChecked)
	cmd.Printf("  items fetched:     %d (skipped %d)\n", summary.ItemsFetched, summary.ItemsSkipped)
	cmd.Printf("  files processed:   %d (rejected %d, errors %d)\n",
		summary.FilesProcessed, summary.FilesRejected, summary.FilesErrored)
	cmd.Printf("  records added:     %d\n", summary.RecordsAdded)
	cmd.Printf("  artifacts built:   %d (%d changed)\n", summary.ArtifactsBuilt, summary.ArtifactsChanged)
	cmd.Printf("  published:         %d (failures %d)\n", summary.Published, summary.PublishFailures)
	cmd.Printf("  pruned:            %d blobs, %d archives\n", summary.BlobsPruned, summary.ArchivesPruned)
	return nil
}
