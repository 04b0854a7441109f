// ABOUTME: Application settings read from flags, CPT_* environment variables and an optional YAML file.
// ABOUTME: Also resolves and validates the SQLite database path.

package settings

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CPT_PORT.
const EnvPrefix = "CPT"

// Settings are the resolved application settings.
type Settings struct {
	Port           string        `mapstructure:"port"`
	DB             string        `mapstructure:"db"`
	BaseURL        string        `mapstructure:"base_url"`
	DateFormat     string        `mapstructure:"date_format"`
	TimeFormat     string        `mapstructure:"time_format"`
	Definitions    string        `mapstructure:"definitions"`
	PerPage        int           `mapstructure:"per_page"`
	FilterCacheTTL time.Duration `mapstructure:"filter_cache_ttl"`
	// DefaultRole is the role of requests without a known user.
	DefaultRole string `mapstructure:"default_role"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "9000")
	v.SetDefault("db", "")
	v.SetDefault("base_url", "http://localhost:9000")
	v.SetDefault("date_format", "January 2, 2006")
	v.SetDefault("time_format", "3:04 pm")
	v.SetDefault("definitions", "")
	v.SetDefault("per_page", 20)
	v.SetDefault("filter_cache_ttl", "5m")
	v.SetDefault("default_role", "administrator")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile, or the first cpt.yaml found in the working
// directory or $XDG_CONFIG_HOME/cpt, and unmarshals the result. A missing
// default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cpt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(configHome(), "cpt"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if s.DB == "" {
		s.DB = DefaultDBPath()
	}
	s.BaseURL = strings.TrimSuffix(s.BaseURL, "/")
	if s.PerPage <= 0 {
		s.PerPage = 20
	}
	return &s, nil
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

// CleanDBPath validates and cleans a database path.
func CleanDBPath(path string) (string, error) {
	cleanPath := filepath.Clean(strings.TrimSpace(path))

	if cleanPath == "" || cleanPath == "." || cleanPath == "/" {
		return "", fmt.Errorf("database path cannot be empty, '.', or '/'")
	}
	if runtime.GOOS == "windows" && len(cleanPath) == 2 && cleanPath[1] == ':' {
		return "", fmt.Errorf("database path cannot be a bare drive letter")
	}
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("database path cannot contain '..'")
	}

	lowerPath := strings.ToLower(cleanPath)
	for _, pattern := range []string{".git", ".svn", "node_modules", ".env", "credentials", "secret"} {
		if strings.Contains(lowerPath, pattern) {
			return "", fmt.Errorf("database path cannot contain '%s' directory", pattern)
		}
	}
	return cleanPath, nil
}

// DefaultDBPath returns ./cpt.db when it exists, else $XDG_DATA_HOME/cpt/cpt.db.
func DefaultDBPath() string {
	cwdPath := "./cpt.db"
	if _, err := os.Stat(cwdPath); err == nil {
		return cwdPath
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil || homeDir == "" || homeDir == "/" {
			log.Printf("Warning: Could not determine valid home directory (%q): %v, using %s", homeDir, err, cwdPath)
			return cwdPath
		}
		if runtime.GOOS == "windows" {
			dataHome = os.Getenv("LOCALAPPDATA")
			if dataHome == "" {
				dataHome = filepath.Join(homeDir, "AppData", "Local")
			}
		} else {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
	}

	dir := filepath.Join(dataHome, "cpt")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v, using %s", dir, err, cwdPath)
		return cwdPath
	}
	return filepath.Join(dir, "cpt.db")
}
