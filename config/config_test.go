package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-orchestrator/core/models"
)

func TestNewAppliesDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultEpochs, cfg.Epochs)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultLearningRate, cfg.LearningRate)
	assert.Equal(t, DefaultBatchStride, cfg.BatchStride)
	assert.Equal(t, DefaultStopPatience, cfg.StopPatience)
	assert.Equal(t, DefaultLRPatience, cfg.LRPatience)
	assert.Equal(t, DefaultLRFactor, cfg.LRFactor)
	assert.Equal(t, DefaultMinLearningRate, cfg.MinLearningRate)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("TRAINER_ARTIFACTS_DIR", "/var/trainer")
	t.Setenv("TRAINER_STATUS_ADDR", ":9090")

	cfg := New()
	assert.Equal(t, "/var/trainer", cfg.ArtifactsDir)
	assert.Equal(t, ":9090", cfg.StatusAddr)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := New()
	cfg.DatasetPath = t.TempDir()
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		field  string
		mutate func(*Config)
	}{
		{"zero epochs", "epochs", func(c *Config) { c.Epochs = 0 }},
		{"negative epochs", "epochs", func(c *Config) { c.Epochs = -5 }},
		{"zero batch size", "batch_size", func(c *Config) { c.BatchSize = 0 }},
		{"zero learning rate", "learning_rate", func(c *Config) { c.LearningRate = 0 }},
		{"negative learning rate", "learning_rate", func(c *Config) { c.LearningRate = -0.1 }},
		{"empty run name", "run_name", func(c *Config) { c.RunName = "" }},
		{"zero batch stride", "batch_stride", func(c *Config) { c.BatchStride = 0 }},
		{"zero stop patience", "stop_patience", func(c *Config) { c.StopPatience = 0 }},
		{"zero lr patience", "lr_patience", func(c *Config) { c.LRPatience = 0 }},
		{"lr factor of one", "lr_factor", func(c *Config) { c.LRFactor = 1.0 }},
		{"zero lr factor", "lr_factor", func(c *Config) { c.LRFactor = 0 }},
		{"floor above initial rate", "min_learning_rate", func(c *Config) { c.MinLearningRate = 0.01 }},
		{"missing dataset path", "dataset_path", func(c *Config) { c.DatasetPath = "" }},
		{"nonexistent dataset path", "dataset_path", func(c *Config) { c.DatasetPath = "/no/such/dir" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var confErr *models.ConfigurationError
			require.True(t, errors.As(err, &confErr))
			assert.Equal(t, tc.field, confErr.Field)
		})
	}
}

func TestValidateDemoModeSkipsDatasetCheck(t *testing.T) {
	cfg := New()
	cfg.DemoMode = true
	cfg.DatasetPath = ""
	require.NoError(t, cfg.Validate())
}

func TestApplySpecOverridesOnlyPresentFields(t *testing.T) {
	cfg := New()
	cfg.DatasetPath = "/data/original"

	specYAML := []byte(`
run:
  name: retina_v2
  epochs: 40
  learning_rate: 0.0005
  stopping:
    patience: 10
`)
	require.NoError(t, ApplySpec(cfg, specYAML))

	assert.Equal(t, "retina_v2", cfg.RunName)
	assert.Equal(t, 40, cfg.Epochs)
	assert.Equal(t, 0.0005, cfg.LearningRate)
	assert.Equal(t, 10, cfg.StopPatience)

	// Fields the document omits keep their previous values.
	assert.Equal(t, "/data/original", cfg.DatasetPath)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultLRPatience, cfg.LRPatience)
	assert.Equal(t, DefaultLRFactor, cfg.LRFactor)
}

func TestApplySpecFullStoppingSection(t *testing.T) {
	cfg := New()
	specYAML := []byte(`
run:
  batch_size: 64
  batch_stride: 10
  dataset: /data/oct
  stopping:
    patience: 5
    lr_patience: 2
    lr_factor: 0.25
    min_learning_rate: 1e-6
`)
	require.NoError(t, ApplySpec(cfg, specYAML))

	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, 10, cfg.BatchStride)
	assert.Equal(t, "/data/oct", cfg.DatasetPath)
	assert.Equal(t, 5, cfg.StopPatience)
	assert.Equal(t, 2, cfg.LRPatience)
	assert.Equal(t, 0.25, cfg.LRFactor)
	assert.Equal(t, 1e-6, cfg.MinLearningRate)
}

func TestApplySpecRejectsMalformedYAML(t *testing.T) {
	cfg := New()
	err := ApplySpec(cfg, []byte("run: [not: a mapping"))
	require.Error(t, err)
}

func TestLoadSpecFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  epochs: 3\n"), 0o644))

	cfg := New()
	require.NoError(t, LoadSpecFile(cfg, path))
	assert.Equal(t, 3, cfg.Epochs)

	require.Error(t, LoadSpecFile(cfg, filepath.Join(t.TempDir(), "absent.yaml")))
}
