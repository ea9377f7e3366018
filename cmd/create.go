package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var (
	createSource  string
	createWorkers int
	createQuiet   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new snapshot version",
	Long: `Compress every regular file under the source directory into a new
version under the backup root.

The version is named after the current UTC time:
  YYYY-MM-DDTHHMMSS

A second snapshot within the same second gets a .01, .02, ... suffix.

Files that cannot be read are reported and skipped; the version is kept and
marked partial, and the command exits non-zero.

Examples:
  snapback create
  snapback create --source ./project --root /mnt/backups
  snapback create --workers 8`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createSource, "source", "", "Directory to snapshot (default from source.dir)")
	createCmd.Flags().IntVar(&createWorkers, "workers", 0, "Files processed concurrently, -1 for one per CPU (default from snapshot.workers)")
	createCmd.Flags().BoolVarP(&createQuiet, "quiet", "q", false, "Only print the summary")
}

func runCreate(cmd *cobra.Command, args []string) error {
	source := createSource
	if source == "" {
		source = config.GetSourceDir()
	}
	root := config.GetBackupRoot()

	m := newManager()
	if createWorkers != 0 {
		m.Workers = createWorkers
	}

	fmt.Printf("Creating snapshot of %s\n", source)
	fmt.Printf("Backup root: %s\n\n", root)

	result, err := m.Create(commandContext(cmd), source, root)
	if err != nil && result == nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if !createQuiet {
		for _, r := range result.Reports {
			fmt.Printf("  %s\n", r)
		}
	}
	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "Warning: %s (%s): %v\n", f.Path, f.Kind, f.Err)
	}

	if err != nil {
		return fmt.Errorf("failed to finish snapshot %s: %w", result.Version, err)
	}

	var original, compressed int64
	for _, r := range result.Reports {
		original += r.OriginalSize
		compressed += r.CompressedSize
	}

	fmt.Printf("\n✓ Snapshot created: %s\n", result.Version)
	fmt.Printf("  Files:  %d stored, %d failed\n", len(result.Reports), len(result.Failures))
	fmt.Printf("  Size:   %s -> %s\n", formatBytes(original), formatBytes(compressed))

	if !result.Complete() {
		return fmt.Errorf("snapshot %s is %s: %d file(s) not stored", result.Version, result.Status, len(result.Failures))
	}
	return nil
}
