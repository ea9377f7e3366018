package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var archiveOutput string

var archiveCmd = &cobra.Command{
	Use:   "archive <version|latest>",
	Short: "Bundle a version for external storage",
	Long: `Create a tar.gz archive of one version for backup or transfer.

The archive holds the raw artifacts and the manifest under a directory named
after the version, so it can be unpacked straight into another backup root.

Examples:
  snapback archive latest
  snapback archive 2025-11-14T093005 --output nov.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVar(&archiveOutput, "output", "", "Output file path (default: snapback-<version>.tar.gz)")
}

func runArchive(cmd *cobra.Command, args []string) error {
	root := config.GetBackupRoot()
	m := newManager()

	version, err := resolveVersion(m, root, args[0])
	if err != nil {
		return err
	}

	outputFile := archiveOutput
	if outputFile == "" {
		outputFile = fmt.Sprintf("snapback-%s.tar.gz", version)
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	count, err := m.Archive(commandContext(cmd), root, version, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputFile)
		return fmt.Errorf("failed to create archive: %w", err)
	}

	if info, err := os.Stat(outputFile); err == nil {
		fmt.Printf("✓ Archive created: %s (%s, %d file(s))\n", outputFile, formatBytes(info.Size()), count)
	} else {
		fmt.Printf("✓ Archive created: %s\n", outputFile)
	}

	return nil
}
