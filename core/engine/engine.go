// Package engine defines the boundary between the run orchestrator and the
// training backend. The orchestrator drives the interface and never inspects
// backend internals.
package engine

import (
	"context"

	"training-orchestrator/config"
	"training-orchestrator/core/models"
)

// DeviceInfo describes the accelerators available to the backend
type DeviceInfo struct {
	GPUCount    int
	Description string
}

// DatasetInfo describes a loaded dataset
type DatasetInfo struct {
	TrainSamples int
	ValSamples   int
	TestSamples  int
	Classes      map[string]int
	BatchSize    int
}

// ModelHandle is an opaque reference to a built model. Only the engine that
// produced it may interpret it.
type ModelHandle interface{}

// BatchFunc is invoked by the engine after each completed batch. Returning a
// non-nil error tells the engine to stop at the next batch boundary and
// return that error from RunEpoch.
type BatchFunc func(batch int, loss, accuracy float64) error

// Adapter is the capability contract every training backend implements.
// Any failure is treated identically by the orchestrator regardless of the
// call that produced it.
type Adapter interface {
	DetectDevices(ctx context.Context) (DeviceInfo, error)
	LoadDataset(ctx context.Context, path string, batchSize int) (DatasetInfo, error)
	BuildAndCompile(ctx context.Context, cfg *config.Config) (ModelHandle, error)
	RunEpoch(ctx context.Context, model ModelHandle, epoch int, onBatch BatchFunc) (models.EpochMetrics, error)
	SaveSnapshot(ctx context.Context, model ModelHandle, path string) error
	LoadSnapshot(ctx context.Context, path string) (ModelHandle, error)
	ApplyLearningRate(ctx context.Context, model ModelHandle, rate float64) error
}

// TestEvaluator is an optional capability for backends that can score a
// held-out test split after training.
type TestEvaluator interface {
	EvaluateTestSet(ctx context.Context, model ModelHandle) (models.EvalResult, error)
}
