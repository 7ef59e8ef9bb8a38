// Package config loads process configuration from a .env file, environment
// variables and defaults. Command-line flags override these values at the CLI
// layer.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	ReferencePath     string  `mapstructure:"REFERENCE_PATH"`
	ReferenceURL      string  `mapstructure:"REFERENCE_URL"`
	OutcomesPath      string  `mapstructure:"OUTCOMES_PATH"`
	HeuristicsPath    string  `mapstructure:"HEURISTICS_CONFIG"`
	OutputPath        string  `mapstructure:"OUTPUT_PATH"`
	DBPath            string  `mapstructure:"DB_PATH"`
	MatchThreshold    float64 `mapstructure:"MATCH_THRESHOLD"`
	SyntheticVersions int     `mapstructure:"SYNTHETIC_VERSIONS"`
	ShuffleSeed       int64   `mapstructure:"SHUFFLE_SEED"`
	ProfileSeed       int64   `mapstructure:"PROFILE_SEED"`
	LogLevel          string  `mapstructure:"LOG_LEVEL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("REFERENCE_PATH", "data/raw/diseases_symptoms.json")
	v.SetDefault("OUTCOMES_PATH", "data/raw/disease_symptom_patient_profile.csv")
	v.SetDefault("HEURISTICS_CONFIG", "configs/heuristics.json")
	v.SetDefault("OUTPUT_PATH", "data/synthetic/final_training_dataset.csv")
	v.SetDefault("MATCH_THRESHOLD", 65.0)
	v.SetDefault("SYNTHETIC_VERSIONS", 5)
	v.SetDefault("SHUFFLE_SEED", 42)
	// 0 means time-seeded profile generation.
	v.SetDefault("PROFILE_SEED", 0)
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("REFERENCE_PATH")
	v.BindEnv("REFERENCE_URL")
	v.BindEnv("OUTCOMES_PATH")
	v.BindEnv("HEURISTICS_CONFIG")
	v.BindEnv("OUTPUT_PATH")
	v.BindEnv("DB_PATH")
	v.BindEnv("MATCH_THRESHOLD")
	v.BindEnv("SYNTHETIC_VERSIONS")
	v.BindEnv("SHUFFLE_SEED")
	v.BindEnv("PROFILE_SEED")
	v.BindEnv("LOG_LEVEL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would silently corrupt a build.
func (c *Config) Validate() error {
	if c.ReferencePath == "" {
		return fmt.Errorf("REFERENCE_PATH is required")
	}
	if c.OutcomesPath == "" {
		return fmt.Errorf("OUTCOMES_PATH is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 100], got %v", c.MatchThreshold)
	}
	if c.SyntheticVersions < 0 {
		return fmt.Errorf("SYNTHETIC_VERSIONS must be >= 0, got %d", c.SyntheticVersions)
	}
	return nil
}
