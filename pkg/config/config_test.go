package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env present

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/synthetic/final_training_dataset.csv", cfg.OutputPath)
	assert.Equal(t, 65.0, cfg.MatchThreshold)
	assert.Equal(t, 5, cfg.SyntheticVersions)
	assert.Equal(t, int64(42), cfg.ShuffleSeed)
	assert.Equal(t, int64(0), cfg.ProfileSeed)
	assert.Empty(t, cfg.DBPath)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MATCH_THRESHOLD", "80")
	t.Setenv("SYNTHETIC_VERSIONS", "3")
	t.Setenv("DB_PATH", "runs.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.MatchThreshold)
	assert.Equal(t, 3, cfg.SyntheticVersions)
	assert.Equal(t, "runs.db", cfg.DBPath)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ReferencePath:  "ref.json",
			OutcomesPath:   "outcomes.csv",
			OutputPath:     "out.csv",
			MatchThreshold: 65,
		}
	}

	require.NoError(t, base().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing reference path", func(c *Config) { c.ReferencePath = "" }},
		{"missing outcomes path", func(c *Config) { c.OutcomesPath = "" }},
		{"missing output path", func(c *Config) { c.OutputPath = "" }},
		{"zero threshold", func(c *Config) { c.MatchThreshold = 0 }},
		{"threshold above 100", func(c *Config) { c.MatchThreshold = 101 }},
		{"negative synthetic versions", func(c *Config) { c.SyntheticVersions = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
