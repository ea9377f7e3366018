package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/snapback/internal/config"
	"github.com/pders01/snapback/internal/fsys"
	"github.com/pders01/snapback/internal/snapshot"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "snapback",
	Short: "Versioned, compressed snapshots of a directory tree",
	Long: `snapback takes timestamped snapshots of a directory by compressing
every file it contains, and restores any snapshot later.

Each snapshot is a version directory under the backup root:
  backup_data/2025-11-14T093005/
    manifest.json
    notes.txt.lzw
    src/main.go.lzw

Versions are never modified after they are written and only removed by
an explicit prune --force.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/snapback/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-file details")
	rootCmd.PersistentFlags().String("root", "", "Backup root holding all versions (default from backup.root)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")

	cobra.CheckErr(config.BindFlags(rootCmd.PersistentFlags(), map[string]string{
		"root":      "backup.root",
		"log-level": "log.level",
	}))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDirectory()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	config.SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	setupLogging()
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	level := config.GetLogLevel()
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}

func configDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "snapback"), nil
}

// newManager builds a snapshot manager on the real filesystem.
func newManager() *snapshot.Manager {
	m := snapshot.NewManager(fsys.NewOS())
	m.Workers = config.GetWorkers()
	return m
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// resolveVersion maps the "latest" alias to the newest version id.
func resolveVersion(m *snapshot.Manager, root, version string) (string, error) {
	if version != "latest" {
		return version, nil
	}
	return m.Latest(root)
}
