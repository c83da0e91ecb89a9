// Package config supplies runtime settings with defaults. Values resolve
// lowest to highest precedence: built-in defaults, an optional YAML file,
// then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Runner  RunnerConfig  `yaml:"runner"`
	Data    DataConfig    `yaml:"data"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type SearchConfig struct {
	NumStates  int  `yaml:"num_states"`
	NumSymbols int  `yaml:"num_symbols"`
	UseGPU     bool `yaml:"use_gpu"`
	Workers    int  `yaml:"workers"`
}

type RunnerConfig struct {
	MaxSteps  int `yaml:"max_steps"`
	TapeSize  int `yaml:"tape_size"`
	BatchSize int `yaml:"batch_size"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load builds the effective configuration. path may be empty; a missing
// explicit file is a configuration error, fatal before any work starts.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Search: SearchConfig{
			NumStates:  3,
			NumSymbols: 2,
			Workers:    4,
		},
		Runner: RunnerConfig{
			MaxSteps:  1_000_000,
			TapeSize:  512,
			BatchSize: 4096,
		},
		Data: DataConfig{
			Dir: ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Search.NumStates = getEnvInt("BB_NUM_STATES", cfg.Search.NumStates)
	cfg.Search.NumSymbols = getEnvInt("BB_NUM_SYMBOLS", cfg.Search.NumSymbols)
	cfg.Search.UseGPU = getEnvBool("BB_USE_GPU", cfg.Search.UseGPU)
	cfg.Search.Workers = getEnvInt("BB_WORKERS", cfg.Search.Workers)
	cfg.Runner.MaxSteps = getEnvInt("BB_MAX_STEPS", cfg.Runner.MaxSteps)
	cfg.Runner.TapeSize = getEnvInt("BB_TAPE_SIZE", cfg.Runner.TapeSize)
	cfg.Runner.BatchSize = getEnvInt("BB_BATCH_SIZE", cfg.Runner.BatchSize)
	cfg.Data.Dir = getEnv("BB_DATA_DIR", cfg.Data.Dir)
	cfg.Metrics.Port = getEnvInt("BB_METRICS_PORT", cfg.Metrics.Port)
	cfg.Log.Level = getEnv("BB_LOG_LEVEL", cfg.Log.Level)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Search.NumStates < 1 {
		return fmt.Errorf("num_states must be at least 1")
	}
	if c.Search.NumSymbols < 1 {
		return fmt.Errorf("num_symbols must be at least 1")
	}
	if c.Runner.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be at least 1")
	}
	if c.Runner.TapeSize < 1 {
		return fmt.Errorf("tape_size must be at least 1")
	}
	if c.Runner.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data dir is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
