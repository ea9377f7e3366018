package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var (
	restoreTarget  string
	restoreWorkers int
)

var restoreCmd = &cobra.Command{
	Use:   "restore <version|latest>",
	Short: "Restore a snapshot version",
	Long: `Decompress every artifact of a version back into the target directory.

Files that already exist in the target are overwritten; other files in the
target are left untouched. Artifacts that fail to decode or whose content
does not match the manifest checksum are reported and skipped, and the
command exits non-zero.

Examples:
  snapback restore 2025-11-14T093005
  snapback restore latest --target ./restored`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreTarget, "target", "", "Directory to restore into (default from source.dir)")
	restoreCmd.Flags().IntVar(&restoreWorkers, "workers", 0, "Artifacts processed concurrently, -1 for one per CPU (default from snapshot.workers)")
}

func runRestore(cmd *cobra.Command, args []string) error {
	root := config.GetBackupRoot()
	target := restoreTarget
	if target == "" {
		target = config.GetSourceDir()
	}

	m := newManager()
	if restoreWorkers != 0 {
		m.Workers = restoreWorkers
	}

	version, err := resolveVersion(m, root, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Restoring %s into %s\n\n", version, target)

	result, err := m.Restore(commandContext(cmd), root, version, target)
	if err != nil {
		return fmt.Errorf("failed to restore %s: %w", version, err)
	}

	for _, r := range result.Reports {
		fmt.Printf("  %s\n", r.Path)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "Warning: %s (%s): %v\n", f.Path, f.Kind, f.Err)
	}

	fmt.Printf("\n✓ Restored %d file(s) from %s\n", len(result.Reports), version)

	if !result.Complete() {
		return fmt.Errorf("restore of %s is %s: %d file(s) not restored", version, result.Status, len(result.Failures))
	}
	return nil
}
