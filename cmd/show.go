package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var (
	showJSON bool
	showYAML bool
	showToon bool
)

var showCmd = &cobra.Command{
	Use:   "show <version|latest>",
	Short: "Show the manifest of a version",
	Long: `Display the manifest (manifest.json) of a version: its run id, source,
status, every stored file and every file that could not be stored.

Example:
  snapback show 2025-11-14T093005`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&showYAML, "yaml", false, "Output as YAML")
	showCmd.Flags().BoolVar(&showToon, "toon", false, "Output in LLM-friendly toon format")
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := pickFormat(showJSON, showYAML, showToon)
	if err != nil {
		return err
	}

	root := config.GetBackupRoot()
	m := newManager()

	version, err := resolveVersion(m, root, args[0])
	if err != nil {
		return err
	}

	manifest, err := m.LoadManifest(root, version)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	if ok, err := render(manifest, format); ok {
		return err
	}

	original, compressed := manifest.Totals()

	fmt.Printf("Version: %s\n\n", manifest.Version)
	fmt.Printf("Run ID:     %s\n", manifest.ID)
	fmt.Printf("Created:    %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Source:     %s\n", manifest.SourceRoot)
	fmt.Printf("Status:     %s\n", manifest.Status)
	fmt.Printf("Files:      %d\n", len(manifest.Entries))
	fmt.Printf("Size:       %s -> %s (%s saved)\n",
		formatBytes(original), formatBytes(compressed), formatRatio(original, compressed))

	if len(manifest.Entries) > 0 {
		fmt.Println("\nFiles:")
		for _, e := range manifest.Entries {
			fmt.Printf("  %-40s %10d -> %-10d %s\n", e.Path, e.OriginalSize, e.CompressedSize, e.Checksum)
		}
	}

	if len(manifest.Failures) > 0 {
		fmt.Println("\nNot stored:")
		for _, f := range manifest.Failures {
			fmt.Printf("  %s (%s): %s\n", f.Path, f.Kind, f.Message)
		}
	}

	return nil
}
