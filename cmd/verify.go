package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <version|latest>",
	Short: "Check that a version can be restored",
	Long: `Decode every artifact of a version and compare it with the checksum
recorded in the manifest, without writing anything.

Example:
  snapback verify latest`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	root := config.GetBackupRoot()
	m := newManager()

	version, err := resolveVersion(m, root, args[0])
	if err != nil {
		return err
	}

	result, err := m.Verify(commandContext(cmd), root, version)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", version, err)
	}

	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "  ✗ %s (%s): %v\n", f.Path, f.Kind, f.Err)
	}

	if !result.Complete() {
		return fmt.Errorf("version %s failed verification: %d of %d file(s) bad",
			version, len(result.Failures), len(result.Failures)+len(result.Reports))
	}

	fmt.Printf("✓ %s: %d file(s) verified\n", version, len(result.Reports))
	return nil
}
