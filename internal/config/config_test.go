package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Search.NumStates)
	assert.Equal(t, 2, cfg.Search.NumSymbols)
	assert.False(t, cfg.Search.UseGPU)
	assert.Equal(t, 4, cfg.Search.Workers)
	assert.Equal(t, 1_000_000, cfg.Runner.MaxSteps)
	assert.Equal(t, 512, cfg.Runner.TapeSize)
	assert.Equal(t, 4096, cfg.Runner.BatchSize)
	assert.Equal(t, ".", cfg.Data.Dir)
	assert.Zero(t, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  num_states: 4
  use_gpu: true
runner:
  max_steps: 2000
data:
  dir: /var/lib/bb
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Search.NumStates)
	assert.True(t, cfg.Search.UseGPU)
	assert.Equal(t, 2000, cfg.Runner.MaxSteps)
	assert.Equal(t, "/var/lib/bb", cfg.Data.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Keys the file omits keep their defaults.
	assert.Equal(t, 2, cfg.Search.NumSymbols)
	assert.Equal(t, 512, cfg.Runner.TapeSize)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  num_states: 4\n"), 0o644))

	t.Setenv("BB_NUM_STATES", "5")
	t.Setenv("BB_USE_GPU", "true")
	t.Setenv("BB_BATCH_SIZE", "128")
	t.Setenv("BB_DATA_DIR", "/data")
	t.Setenv("BB_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Search.NumStates)
	assert.True(t, cfg.Search.UseGPU)
	assert.Equal(t, 128, cfg.Runner.BatchSize)
	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("BB_MAX_STEPS", "not-a-number")
	t.Setenv("BB_USE_GPU", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, cfg.Runner.MaxSteps)
	assert.False(t, cfg.Search.UseGPU)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero states", map[string]string{"BB_NUM_STATES": "0"}},
		{"negative symbols", map[string]string{"BB_NUM_SYMBOLS": "-1"}},
		{"zero max steps", map[string]string{"BB_MAX_STEPS": "0"}},
		{"zero tape", map[string]string{"BB_TAPE_SIZE": "0"}},
		{"zero batch", map[string]string{"BB_BATCH_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
