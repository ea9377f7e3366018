package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/pders01/snapback/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration and backup root",
	Long: `Create a default config file if it doesn't exist, and the backup root.

The config is written to ~/.config/snapback/config.toml (or --config) with
the current effective settings, so environment overrides given to init are
persisted.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// fileConfig mirrors the config keys as TOML tables.
type fileConfig struct {
	Source struct {
		Dir string `toml:"dir"`
	} `toml:"source"`
	Backup struct {
		Root string `toml:"root"`
	} `toml:"backup"`
	Snapshot struct {
		Workers int `toml:"workers"`
	} `toml:"snapshot"`
	Retention struct {
		KeepLast int `toml:"keep_last"`
		Days     int `toml:"days"`
	} `toml:"retention"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

func currentFileConfig() fileConfig {
	var c fileConfig
	c.Source.Dir = config.GetSourceDir()
	c.Backup.Root = config.GetBackupRoot()
	c.Snapshot.Workers = config.GetWorkers()
	c.Retention.KeepLast = config.GetRetentionKeepLast()
	c.Retention.Days = config.GetRetentionDays()
	c.Log.Level = config.GetLogLevel().String()
	return c
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		configDir, err := configDirectory()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.toml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if err := toml.NewEncoder(f).Encode(currentFileConfig()); err != nil {
			f.Close()
			return fmt.Errorf("failed to write config file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Printf("✓ Created default config: %s\n", configPath)
	} else {
		fmt.Printf("Config already exists: %s\n", configPath)
	}

	root := config.GetBackupRoot()
	if err := newManager().FS.EnsureDirectory(root); err != nil {
		return fmt.Errorf("failed to create backup root: %w", err)
	}
	fmt.Printf("✓ Backup root ready: %s\n", root)

	fmt.Println("\n✓ snapback initialized successfully!")
	fmt.Println("  You can now use: snapback create")

	return nil
}
