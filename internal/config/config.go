package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectDir is the per-project directory holding config.yaml and the
// default database.
const ProjectDir = ".pm"

// DatabaseFile is the default SQLite file name inside ProjectDir.
const DatabaseFile = "pm.db"

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()

	v.SetConfigType("yaml")

	// Precedence: flags > env > project config > user config > defaults.
	// Flags are bound by the caller with BindPFlag.
	if path := findConfigFile(); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "")
	v.SetDefault("backend", "sqlite")
	v.SetDefault("actor", "")
	v.SetDefault("json", false)
	v.SetDefault("editor", "")
	v.SetDefault("lock-timeout", "30s")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3306)
	v.SetDefault("server.user", "root")
	v.SetDefault("server.password", "")
	v.SetDefault("server.database", "pm")

	v.SetDefault("history.assign-field", "assigned_to")
	v.SetDefault("history.reopen-from-actual", false)
	v.SetDefault("history.tags", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.stdout", false)
	v.SetDefault("telemetry.endpoint", "")
}

// findConfigFile returns the project config found by walking up from the
// working directory, else the user config, else "".
func findConfigFile() string {
	if path := findProjectConfigYaml(); path != "" {
		return path
	}
	if path := userConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// userConfigPath is $XDG_CONFIG_HOME/pm/config.yaml, falling back to
// ~/.config/pm/config.yaml.
func userConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pm", "config.yaml")
}

// FindDatabasePath returns the nearest .pm/pm.db above the working
// directory, or ~/.pm/pm.db when there is none.
func FindDatabasePath() string {
	if dir := findProjectDir(); dir != "" {
		path := filepath.Join(dir, DatabaseFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(ProjectDir, DatabaseFile)
	}
	return filepath.Join(home, ProjectDir, DatabaseFile)
}

// findProjectDir walks up from the working directory looking for a .pm
// directory.
func findProjectDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; {
		candidate := filepath.Join(dir, ProjectDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice retrieves a string slice configuration value
func GetStringSlice(key string) []string {
	if v == nil {
		return nil
	}
	return v.GetStringSlice(key)
}

// IsSet reports whether key has a value from any source, defaults
// included.
func IsSet(key string) bool {
	if v == nil {
		return false
	}
	return v.IsSet(key)
}

// Set sets a configuration value for the running process only.
func Set(key string, value any) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns every resolved setting as a nested map.
func AllSettings() map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v.AllSettings()
}

// AllKeys returns every known key in sorted order.
func AllKeys() []string {
	if v == nil {
		return nil
	}
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Viper exposes the underlying instance so commands can bind flags.
func Viper() *viper.Viper {
	return v
}

// ResetForTesting clears all configuration state.
func ResetForTesting() {
	v = nil
}
