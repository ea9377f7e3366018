package config

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. SNAPBACK_BACKUP_ROOT.
const EnvPrefix = "SNAPBACK"

// Defaults are the values used when neither the config file, the environment
// nor a flag sets a key.
var Defaults = map[string]any{
	"source.dir":          "data",
	"backup.root":         "backup_data",
	"snapshot.workers":    1,
	"retention.keep_last": 0,
	"retention.days":      0,
	"log.level":           "info",
}

// SetDefaults registers Defaults and the environment mapping with viper.
func SetDefaults() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, value := range Defaults {
		viper.SetDefault(key, value)
	}
}

// BindFlags binds command flags to config keys. Keys without a matching
// flag in fs are skipped.
func BindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// GetSourceDir returns the directory that snapshots are taken of
func GetSourceDir() string {
	return viper.GetString("source.dir")
}

// GetBackupRoot returns the directory holding all versions
func GetBackupRoot() string {
	return viper.GetString("backup.root")
}

// GetWorkers returns the number of files processed concurrently. 0 means
// sequential and a negative value one worker per CPU.
func GetWorkers() int {
	return viper.GetInt("snapshot.workers")
}

// GetRetentionKeepLast returns how many recent versions prune always keeps
func GetRetentionKeepLast() int {
	return viper.GetInt("retention.keep_last")
}

// GetRetentionDays returns the retention period in days
func GetRetentionDays() int {
	return viper.GetInt("retention.days")
}

// GetRetentionMaxAge returns the retention period as a duration
func GetRetentionMaxAge() time.Duration {
	return time.Duration(GetRetentionDays()) * 24 * time.Hour
}

// GetLogLevel returns the configured log level, falling back to info.
func GetLogLevel() log.Level {
	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
