package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunSpec represents the YAML run specification
type RunSpec struct {
	Run RunSpecRun `yaml:"run"`
}

// RunSpecRun represents the run section of the spec
type RunSpecRun struct {
	Name         string           `yaml:"name"`
	Epochs       int              `yaml:"epochs"`
	BatchSize    int              `yaml:"batch_size"`
	LearningRate float64          `yaml:"learning_rate"`
	Dataset      string           `yaml:"dataset"`
	BatchStride  int              `yaml:"batch_stride"`
	Stopping     *RunSpecStopping `yaml:"stopping,omitempty"`
}

// RunSpecStopping represents the checkpoint and early-stopping section
type RunSpecStopping struct {
	Patience        *int     `yaml:"patience,omitempty"`
	LRPatience      *int     `yaml:"lr_patience,omitempty"`
	LRFactor        *float64 `yaml:"lr_factor,omitempty"`
	MinLearningRate *float64 `yaml:"min_learning_rate,omitempty"`
}

// LoadSpecFile reads a YAML run spec and applies it on top of cfg.
// Values absent from the spec keep their existing settings.
func LoadSpecFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read run spec: %w", err)
	}
	return ApplySpec(cfg, data)
}

// ApplySpec parses a YAML run specification and merges it into cfg
func ApplySpec(cfg *Config, specYAML []byte) error {
	var spec RunSpec
	if err := yaml.Unmarshal(specYAML, &spec); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	run := spec.Run
	if run.Name != "" {
		cfg.RunName = run.Name
	}
	if run.Epochs != 0 {
		cfg.Epochs = run.Epochs
	}
	if run.BatchSize != 0 {
		cfg.BatchSize = run.BatchSize
	}
	if run.LearningRate != 0 {
		cfg.LearningRate = run.LearningRate
	}
	if run.Dataset != "" {
		cfg.DatasetPath = run.Dataset
	}
	if run.BatchStride != 0 {
		cfg.BatchStride = run.BatchStride
	}

	if run.Stopping != nil {
		if run.Stopping.Patience != nil {
			cfg.StopPatience = *run.Stopping.Patience
		}
		if run.Stopping.LRPatience != nil {
			cfg.LRPatience = *run.Stopping.LRPatience
		}
		if run.Stopping.LRFactor != nil {
			cfg.LRFactor = *run.Stopping.LRFactor
		}
		if run.Stopping.MinLearningRate != nil {
			cfg.MinLearningRate = *run.Stopping.MinLearningRate
		}
	}

	return nil
}
