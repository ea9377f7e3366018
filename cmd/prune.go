package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
	"github.com/pders01/snapback/internal/models"
	"github.com/pders01/snapback/internal/snapshot"
)

var (
	pruneForce    bool
	pruneKeepLast int
	pruneDays     int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old versions based on retention policy",
	Long: `Remove versions that fall outside the retention policy.

The retention policy is configured in ~/.config/snapback/config.toml:
  [retention]
  keep_last = 10
  days = 90

A version is pruned only if it is not among the newest keep_last versions
and is older than days. A value of 0 disables that rule; with both disabled
nothing is pruned.

Without --force this only shows what would be removed.

Example:
  snapback prune                 # Show what would be pruned
  snapback prune --force         # Actually prune versions
  snapback prune --keep-last 3 --force`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneForce, "force", false, "Actually delete versions")
	pruneCmd.Flags().IntVar(&pruneKeepLast, "keep-last", -1, "Versions to always keep (default from retention.keep_last)")
	pruneCmd.Flags().IntVar(&pruneDays, "days", -1, "Retention period in days (default from retention.days)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	root := config.GetBackupRoot()

	policy := snapshot.RetentionPolicy{
		KeepLast: config.GetRetentionKeepLast(),
		MaxAge:   config.GetRetentionMaxAge(),
	}
	if pruneKeepLast >= 0 {
		policy.KeepLast = pruneKeepLast
	}
	if pruneDays >= 0 {
		policy.MaxAge = time.Duration(pruneDays) * 24 * time.Hour
	}

	fmt.Printf("Retention policy: keep last %d, max age %s\n\n", policy.KeepLast, formatDuration(policy.MaxAge))

	if !policy.Enabled() {
		fmt.Println("No retention policy configured (set retention.keep_last or retention.days)")
		return nil
	}

	m := newManager()
	candidates, err := m.PruneCandidates(root, policy)
	if err != nil {
		return fmt.Errorf("failed to select versions: %w", err)
	}

	if len(candidates) == 0 {
		fmt.Println("No versions to prune")
		return nil
	}

	fmt.Printf("Versions to prune (%d):\n\n", len(candidates))
	for _, version := range candidates {
		fmt.Printf("  %s\n", version)
		if created, _, err := models.ParseVersionName(version); err == nil {
			fmt.Printf("    Age: %s\n", formatDuration(time.Since(created)))
		}
	}
	fmt.Println()

	if !pruneForce {
		fmt.Println("This is a dry run. Use --force to actually prune versions.")
		return nil
	}

	if err := m.Prune(root, candidates); err != nil {
		return err
	}
	fmt.Printf("✓ Pruned %d version(s)\n", len(candidates))

	return nil
}
