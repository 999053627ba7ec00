package config

import (
	"os"

	"training-orchestrator/core/models"
)

// Default policy parameters, matching the training backend's conventions
const (
	DefaultEpochs          = 20
	DefaultBatchSize       = 32
	DefaultLearningRate    = 0.001
	DefaultBatchStride     = 20
	DefaultStopPatience    = 7
	DefaultLRPatience      = 3
	DefaultLRFactor        = 0.5
	DefaultMinLearningRate = 1e-7
)

// Config holds the validated parameters for one training run. It is built
// once before the run starts and never mutated afterward.
type Config struct {
	// Run parameters
	Epochs       int
	BatchSize    int
	LearningRate float64
	DatasetPath  string
	RunName      string

	// Progress sampling
	BatchStride int

	// Checkpoint and stopping policy
	StopPatience    int
	LRPatience      int
	LRFactor        float64
	MinLearningRate float64

	// Environment
	ArtifactsDir string
	DatabaseURL  string
	StatusAddr   string
	DemoMode     bool
}

// New returns a Config populated with defaults for everything the caller
// does not set explicitly.
func New() *Config {
	return &Config{
		Epochs:          DefaultEpochs,
		BatchSize:       DefaultBatchSize,
		LearningRate:    DefaultLearningRate,
		RunName:         "classifier",
		BatchStride:     DefaultBatchStride,
		StopPatience:    DefaultStopPatience,
		LRPatience:      DefaultLRPatience,
		LRFactor:        DefaultLRFactor,
		MinLearningRate: DefaultMinLearningRate,
		ArtifactsDir:    getEnv("TRAINER_ARTIFACTS_DIR", "."),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		StatusAddr:      getEnv("TRAINER_STATUS_ADDR", ""),
	}
}

// Validate checks every run parameter and returns a ConfigurationError for
// the first invalid one.
func (c *Config) Validate() error {
	if c.Epochs <= 0 {
		return &models.ConfigurationError{Field: "epochs", Reason: "must be greater than zero"}
	}
	if c.BatchSize <= 0 {
		return &models.ConfigurationError{Field: "batch_size", Reason: "must be greater than zero"}
	}
	if c.LearningRate <= 0 {
		return &models.ConfigurationError{Field: "learning_rate", Reason: "must be greater than zero"}
	}
	if c.RunName == "" {
		return &models.ConfigurationError{Field: "run_name", Reason: "must not be empty"}
	}
	if c.BatchStride <= 0 {
		return &models.ConfigurationError{Field: "batch_stride", Reason: "must be greater than zero"}
	}
	if c.StopPatience < 1 {
		return &models.ConfigurationError{Field: "stop_patience", Reason: "must be at least one epoch"}
	}
	if c.LRPatience < 1 {
		return &models.ConfigurationError{Field: "lr_patience", Reason: "must be at least one epoch"}
	}
	if c.LRFactor <= 0 || c.LRFactor >= 1 {
		return &models.ConfigurationError{Field: "lr_factor", Reason: "must be between zero and one"}
	}
	if c.MinLearningRate <= 0 || c.MinLearningRate > c.LearningRate {
		return &models.ConfigurationError{Field: "min_learning_rate", Reason: "must be positive and not exceed the initial rate"}
	}
	if !c.DemoMode {
		if c.DatasetPath == "" {
			return &models.ConfigurationError{Field: "dataset_path", Reason: "must be provided outside demo mode"}
		}
		if _, err := os.Stat(c.DatasetPath); err != nil {
			return &models.ConfigurationError{Field: "dataset_path", Reason: "path does not exist"}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
