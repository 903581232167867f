package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2950.0, cfg.MemoryWarnMB)
	assert.Equal(t, 4500.0, cfg.MemoryFatalMB)
	assert.Equal(t, 350, cfg.CheckIntervalMS)
	assert.Equal(t, "./public/build", cfg.BundlePath)
	assert.True(t, cfg.Log)

	// Optional limits default to unset
	assert.Nil(t, cfg.BundleMaxMB)
	assert.Nil(t, cfg.NodeModulesMaxMB)
	assert.Nil(t, cfg.MaxNodeModules)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
memory_warn_mb: 1000
bundle_max_mb: 25.5
max_node_modules: 400
log: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".buildwatch.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.MemoryWarnMB)
	require.NotNil(t, cfg.BundleMaxMB)
	assert.Equal(t, 25.5, *cfg.BundleMaxMB)
	require.NotNil(t, cfg.MaxNodeModules)
	assert.Equal(t, 400, *cfg.MaxNodeModules)
	assert.False(t, cfg.Log)

	// Untouched keys keep their defaults
	assert.Equal(t, 4500.0, cfg.MemoryFatalMB)
	assert.Equal(t, 350, cfg.CheckIntervalMS)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".buildwatch.yaml"), []byte("memory_warn_mb: 1000\n"), 0o644))

	t.Setenv("MEMORY_WARNING_MAX_SIZE", "2000")
	t.Setenv("BUNDLE_MAX_SIZE", "10")
	t.Setenv("NB_NODE_MODULES_MAX", "10")
	t.Setenv("INTERVAL_CHECK_MEMORY", "500")
	t.Setenv("LOG", "false")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, cfg.MemoryWarnMB)
	require.NotNil(t, cfg.BundleMaxMB)
	assert.Equal(t, 10.0, *cfg.BundleMaxMB)
	require.NotNil(t, cfg.MaxNodeModules)
	assert.Equal(t, 10, *cfg.MaxNodeModules)
	assert.Equal(t, 500, cfg.CheckIntervalMS)
	assert.False(t, cfg.Log)
}

func TestLoad_BadEnvValueFails(t *testing.T) {
	t.Setenv("MEMORY_WARNING_MAX_SIZE", "lots")

	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "MEMORY_WARNING_MAX_SIZE")
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".buildwatch.yaml"), []byte("memory_warn_mb: [oops\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsNegativeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative warn", func(c *Config) { c.MemoryWarnMB = -1 }},
		{"negative fatal", func(c *Config) { c.MemoryFatalMB = -1 }},
		{"zero interval", func(c *Config) { c.CheckIntervalMS = 0 }},
		{"negative bundle limit", func(c *Config) { v := -5.0; c.BundleMaxMB = &v }},
		{"negative module count", func(c *Config) { v := -1; c.MaxNodeModules = &v }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_WarnAboveFatalIsNotAnError(t *testing.T) {
	// Misconfiguration is reported at monitor start, not rejected here
	cfg := Default()
	cfg.MemoryWarnMB = 5000
	cfg.MemoryFatalMB = 1000

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Misconfigured())
}

func TestInterval(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "350ms", cfg.Interval().String())
}
