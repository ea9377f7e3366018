package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
	"github.com/pders01/snapback/internal/models"
	"github.com/pders01/snapback/internal/snapshot"
)

var (
	listSince string
	listJSON  bool
	listYAML  bool
	listToon  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all snapshot versions",
	Long: `List the versions under the backup root, oldest first.

Examples:
  snapback list
  snapback list --since 2025-10-01
  snapback list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listSince, "since", "", "Show versions since date (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listYAML, "yaml", false, "Output as YAML")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
}

// versionSummary is one row of the catalog.
type versionSummary struct {
	Version         string        `json:"version" yaml:"version"`
	CreatedAt       time.Time     `json:"created_at" yaml:"created_at"`
	Status          models.Status `json:"status" yaml:"status"`
	Files           int           `json:"files" yaml:"files"`
	Failed          int           `json:"failed" yaml:"failed"`
	OriginalBytes   int64         `json:"original_bytes" yaml:"original_bytes"`
	CompressedBytes int64         `json:"compressed_bytes" yaml:"compressed_bytes"`
}

const statusUnknown models.Status = "unknown"

func runList(cmd *cobra.Command, args []string) error {
	format, err := pickFormat(listJSON, listYAML, listToon)
	if err != nil {
		return err
	}

	var since time.Time
	if listSince != "" {
		since, err = time.Parse("2006-01-02", listSince)
		if err != nil {
			return fmt.Errorf("invalid --since date format (use YYYY-MM-DD): %w", err)
		}
	}

	m := newManager()
	summaries, err := summarizeVersions(m, config.GetBackupRoot())
	if err != nil {
		return err
	}

	filtered := make([]versionSummary, 0, len(summaries))
	for _, s := range summaries {
		if !since.IsZero() && s.CreatedAt.Before(since) {
			continue
		}
		filtered = append(filtered, s)
	}

	if ok, err := render(filtered, format); ok {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No versions found")
		return nil
	}
	if len(filtered) == 0 {
		fmt.Println("No versions match the filter criteria")
		return nil
	}

	fmt.Printf("Found %d version(s):\n\n", len(filtered))
	for _, s := range filtered {
		fmt.Printf("  %s\n", s.Version)
		fmt.Printf("    Created: %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("    Status:  %s\n", s.Status)
		if s.Status != statusUnknown {
			fmt.Printf("    Files:   %d", s.Files)
			if s.Failed > 0 {
				fmt.Printf(" (%d failed)", s.Failed)
			}
			fmt.Println()
			fmt.Printf("    Size:    %s -> %s (%s saved)\n",
				formatBytes(s.OriginalBytes), formatBytes(s.CompressedBytes),
				formatRatio(s.OriginalBytes, s.CompressedBytes))
		}
		fmt.Println()
	}

	return nil
}

// summarizeVersions loads a summary per version. Versions without a readable
// manifest are listed with an unknown status.
func summarizeVersions(m *snapshot.Manager, root string) ([]versionSummary, error) {
	versions, err := m.ListVersions(root)
	if err != nil {
		return nil, err
	}

	summaries := make([]versionSummary, 0, len(versions))
	for _, version := range versions {
		created, _, err := models.ParseVersionName(version)
		if err != nil {
			continue
		}

		s := versionSummary{Version: version, CreatedAt: created, Status: statusUnknown}

		manifest, err := m.LoadManifest(root, version)
		switch {
		case err == nil:
			s.Status = manifest.Status
			s.Files = len(manifest.Entries)
			s.Failed = len(manifest.Failures)
			s.OriginalBytes, s.CompressedBytes = manifest.Totals()
		case errors.Is(err, snapshot.ErrNoManifest):
		default:
			fmt.Fprintf(os.Stderr, "Warning: failed to read manifest of %s: %v\n", version, err)
		}

		summaries = append(summaries, s)
	}
	return summaries, nil
}
