// Package config loads buildwatch configuration from defaults, a project
// YAML file, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the recognized configuration surface.
const (
	DefaultMemoryWarnMB    = 2950
	DefaultMemoryFatalMB   = 4500
	DefaultIntervalMS      = 350
	DefaultBundlePath      = "./public/build"
	DefaultNodeModulesPath = "./node_modules"
	DefaultManifestPath    = "./package.json"
	DefaultReportDir       = ".buildwatch"
	DefaultWatchSettleMS   = 2000
)

// Config is the complete buildwatch configuration.
// Size limits are pointers: nil means the corresponding check is
// informational only and never fails.
type Config struct {
	// MemoryWarnMB is the resident-memory warning threshold in MB.
	MemoryWarnMB float64 `yaml:"memory_warn_mb"`
	// MemoryFatalMB is the resident-memory fatal threshold in MB.
	MemoryFatalMB float64 `yaml:"memory_fatal_mb"`
	// CheckIntervalMS is the memory sampling interval in milliseconds.
	CheckIntervalMS int `yaml:"check_interval_ms"`

	// BundlePath is the bundler output directory.
	BundlePath string `yaml:"bundle_path"`
	// BundleMaxMB caps the bundle output size.
	BundleMaxMB *float64 `yaml:"bundle_max_mb"`

	// NodeModulesPath is the dependency tree directory.
	NodeModulesPath string `yaml:"node_modules_path"`
	// NodeModulesMaxMB caps the dependency tree's on-disk size.
	NodeModulesMaxMB *float64 `yaml:"node_modules_max_mb"`
	// MaxNodeModules caps the declared dependency count.
	MaxNodeModules *int `yaml:"max_node_modules"`

	// ManifestPath is the dependency manifest (package.json).
	ManifestPath string `yaml:"manifest_path"`
	// ReportDir is where run reports are written.
	ReportDir string `yaml:"report_dir"`

	// WatchSettleMS is how long output writes must quiesce in watch mode
	// before the build is considered complete.
	WatchSettleMS int `yaml:"watch_settle_ms"`

	// Log enables console reporting.
	Log bool `yaml:"log"`
	// LogLevel is the slog level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{
		MemoryWarnMB:    DefaultMemoryWarnMB,
		MemoryFatalMB:   DefaultMemoryFatalMB,
		CheckIntervalMS: DefaultIntervalMS,
		BundlePath:      DefaultBundlePath,
		NodeModulesPath: DefaultNodeModulesPath,
		ManifestPath:    DefaultManifestPath,
		ReportDir:       DefaultReportDir,
		WatchSettleMS:   DefaultWatchSettleMS,
		Log:             true,
		LogLevel:        "info",
	}
}

// Load builds the configuration for a project directory, applying in order
// of increasing precedence:
//  1. Hardcoded defaults
//  2. Project config (.buildwatch.yaml / .buildwatch.yml in dir)
//  3. Environment variables
func Load(dir string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile reads .buildwatch.yaml (or .yml) from dir, if present.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".buildwatch.yaml", ".buildwatch.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		// Unmarshal over the defaults; only keys present in the file
		// are overridden.
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}

	// No config file is fine, defaults apply
	return nil
}

// applyEnvOverrides applies the recognized environment variables, which take
// precedence over the config file.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("MEMORY_WARNING_MAX_SIZE"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse MEMORY_WARNING_MAX_SIZE: %w", err)
		}
		c.MemoryWarnMB = mb
	}
	if v := os.Getenv("MEMORY_ERROR_MAX_SIZE"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse MEMORY_ERROR_MAX_SIZE: %w", err)
		}
		c.MemoryFatalMB = mb
	}
	if v := os.Getenv("BUNDLE_ROOT_FOLDER_PATH"); v != "" {
		c.BundlePath = v
	}
	if v := os.Getenv("BUNDLE_MAX_SIZE"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse BUNDLE_MAX_SIZE: %w", err)
		}
		c.BundleMaxMB = &mb
	}
	if v := os.Getenv("NODE_MODULES_MAX_SIZE"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse NODE_MODULES_MAX_SIZE: %w", err)
		}
		c.NodeModulesMaxMB = &mb
	}
	if v := os.Getenv("NB_NODE_MODULES_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse NB_NODE_MODULES_MAX: %w", err)
		}
		c.MaxNodeModules = &n
	}
	if v := os.Getenv("INTERVAL_CHECK_MEMORY"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse INTERVAL_CHECK_MEMORY: %w", err)
		}
		c.CheckIntervalMS = ms
	}
	if v := os.Getenv("LOG"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse LOG: %w", err)
		}
		c.Log = enabled
	}
	return nil
}

// Validate rejects nonsensical values. A warning threshold above the fatal
// threshold is deliberately not an error here; the monitor reports it as a
// misconfiguration warning and proceeds.
func (c *Config) Validate() error {
	if c.MemoryWarnMB < 0 {
		return fmt.Errorf("memory_warn_mb must be non-negative, got %.2f", c.MemoryWarnMB)
	}
	if c.MemoryFatalMB < 0 {
		return fmt.Errorf("memory_fatal_mb must be non-negative, got %.2f", c.MemoryFatalMB)
	}
	if c.CheckIntervalMS <= 0 {
		return fmt.Errorf("check_interval_ms must be positive, got %d", c.CheckIntervalMS)
	}
	if c.WatchSettleMS <= 0 {
		return fmt.Errorf("watch_settle_ms must be positive, got %d", c.WatchSettleMS)
	}
	if c.BundleMaxMB != nil && *c.BundleMaxMB < 0 {
		return fmt.Errorf("bundle_max_mb must be non-negative, got %.2f", *c.BundleMaxMB)
	}
	if c.NodeModulesMaxMB != nil && *c.NodeModulesMaxMB < 0 {
		return fmt.Errorf("node_modules_max_mb must be non-negative, got %.2f", *c.NodeModulesMaxMB)
	}
	if c.MaxNodeModules != nil && *c.MaxNodeModules < 0 {
		return fmt.Errorf("max_node_modules must be non-negative, got %d", *c.MaxNodeModules)
	}
	return nil
}

// Misconfigured reports whether the warning threshold exceeds the fatal one.
func (c *Config) Misconfigured() bool {
	return c.MemoryWarnMB > c.MemoryFatalMB
}

// Interval returns the sampling interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CheckIntervalMS) * time.Millisecond
}

// WatchSettle returns the watch-mode settle window as a duration.
func (c *Config) WatchSettle() time.Duration {
	return time.Duration(c.WatchSettleMS) * time.Millisecond
}
