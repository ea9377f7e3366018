package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var (
	statsJSON bool
	statsYAML bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backup statistics",
	Long: `Display statistics about the versions under the backup root:
  - version count and date range
  - versions by status
  - stored bytes before and after compression
  - per-day activity

Examples:
  snapback stats
  snapback stats --json
  snapback stats --toon`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsYAML, "yaml", false, "Output as YAML")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

type backupStats struct {
	TotalVersions   int             `json:"total_versions" yaml:"total_versions"`
	TotalFiles      int             `json:"total_files" yaml:"total_files"`
	OriginalBytes   int64           `json:"original_bytes" yaml:"original_bytes"`
	CompressedBytes int64           `json:"compressed_bytes" yaml:"compressed_bytes"`
	ByStatus        map[string]int  `json:"by_status" yaml:"by_status"`
	OldestVersion   *time.Time      `json:"oldest_version,omitempty" yaml:"oldest_version,omitempty"`
	NewestVersion   *time.Time      `json:"newest_version,omitempty" yaml:"newest_version,omitempty"`
	DailyActivity   []dailyActivity `json:"daily_activity" yaml:"daily_activity"`
}

type dailyActivity struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := pickFormat(statsJSON, statsYAML, statsToon)
	if err != nil {
		return err
	}

	summaries, err := summarizeVersions(newManager(), config.GetBackupRoot())
	if err != nil {
		return err
	}

	stats := collectStats(summaries)

	if ok, err := render(stats, format); ok {
		return err
	}

	if stats.TotalVersions == 0 {
		fmt.Println("No versions found")
		return nil
	}

	fmt.Println("Backup Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Total Versions: %d\n", stats.TotalVersions)
	fmt.Printf("Date Range:     %s to %s\n",
		stats.OldestVersion.Format("2006-01-02"),
		stats.NewestVersion.Format("2006-01-02"))
	fmt.Printf("Stored Files:   %d\n", stats.TotalFiles)
	fmt.Printf("Stored Bytes:   %s -> %s (%s saved)\n",
		formatBytes(stats.OriginalBytes), formatBytes(stats.CompressedBytes),
		formatRatio(stats.OriginalBytes, stats.CompressedBytes))
	fmt.Println()

	fmt.Println("By Status:")
	for _, status := range []string{"complete", "partial", "canceled", string(statusUnknown)} {
		if count, ok := stats.ByStatus[status]; ok {
			percentage := float64(count) / float64(stats.TotalVersions) * 100
			fmt.Printf("  %-10s %3d  (%.1f%%)\n", status, count, percentage)
		}
	}
	fmt.Println()

	fmt.Println("Recent Activity:")
	limit := min(7, len(stats.DailyActivity))
	for _, da := range stats.DailyActivity[:limit] {
		bar := ""
		for j := 0; j < da.Count && j < 20; j++ {
			bar += "█"
		}
		fmt.Printf("  %s  %3d  %s\n", da.Date, da.Count, bar)
	}

	return nil
}

func collectStats(summaries []versionSummary) *backupStats {
	stats := &backupStats{
		TotalVersions: len(summaries),
		ByStatus:      make(map[string]int),
	}

	byDate := make(map[string]int)
	for _, s := range summaries {
		if stats.OldestVersion == nil || s.CreatedAt.Before(*stats.OldestVersion) {
			t := s.CreatedAt
			stats.OldestVersion = &t
		}
		if stats.NewestVersion == nil || s.CreatedAt.After(*stats.NewestVersion) {
			t := s.CreatedAt
			stats.NewestVersion = &t
		}

		stats.ByStatus[string(s.Status)]++
		stats.TotalFiles += s.Files
		stats.OriginalBytes += s.OriginalBytes
		stats.CompressedBytes += s.CompressedBytes
		byDate[s.CreatedAt.Format("2006-01-02")]++
	}

	for date, count := range byDate {
		stats.DailyActivity = append(stats.DailyActivity, dailyActivity{Date: date, Count: count})
	}
	sort.Slice(stats.DailyActivity, func(i, j int) bool {
		return stats.DailyActivity[i].Date > stats.DailyActivity[j].Date
	})

	return stats
}
