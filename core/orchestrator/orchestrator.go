// Package orchestrator drives the training-run lifecycle: it sequences the
// run phases, interprets the engine's metric callbacks, applies the
// checkpoint and stopping policy and emits every progress transition.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"training-orchestrator/config"
	"training-orchestrator/core/engine"
	"training-orchestrator/core/models"
	"training-orchestrator/core/policy"
	"training-orchestrator/core/progress"
	"training-orchestrator/reporting"
	"training-orchestrator/storage"
)

// Orchestrator executes one training run. All of its state is scoped to a
// single Run invocation; instances are not reused across runs.
type Orchestrator struct {
	runID     string
	cfg       *config.Config
	engine    engine.Adapter
	emitter   progress.Emitter
	policy    policy.Policy
	snapshots *storage.SnapshotManager
	reporter  *reporting.Reporter // optional
}

// New creates an orchestrator for one run
func New(runID string, cfg *config.Config, eng engine.Adapter, emitter progress.Emitter, snapshots *storage.SnapshotManager, reporter *reporting.Reporter) *Orchestrator {
	return &Orchestrator{
		runID:   runID,
		cfg:     cfg,
		engine:  eng,
		emitter: emitter,
		policy: policy.Policy{
			StopPatience:    cfg.StopPatience,
			LRPatience:      cfg.LRPatience,
			LRFactor:        cfg.LRFactor,
			MinLearningRate: cfg.MinLearningRate,
		},
		snapshots: snapshots,
		reporter:  reporter,
	}
}

// Run drives the full phase sequence and returns the run's outcome. Exactly
// one terminal event (training_complete or training_error) is emitted per
// call; a non-nil error always corresponds to a training_error event.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunResult, error) {
	start := time.Now()
	result := &models.RunResult{
		RunID:  o.runID,
		Status: models.RunStatusRunning,
	}

	o.emitter.Emit(models.InitializingEvent("Initializing training environment..."))

	devices, err := o.engine.DetectDevices(ctx)
	if err != nil {
		return o.fail(result, start, "device setup", err)
	}
	if devices.GPUCount > 0 {
		log.Printf("GPU setup complete: %d device(s) detected", devices.GPUCount)
		o.emitter.Emit(models.GPUConfiguredEvent(devices.GPUCount,
			fmt.Sprintf("GPU optimization enabled (%d devices)", devices.GPUCount)))
	} else {
		log.Printf("No GPU detected - training will use CPU (slower)")
		o.emitter.Emit(models.GPUWarningEvent("No GPU detected - training on CPU"))
	}

	dataset, err := o.engine.LoadDataset(ctx, o.cfg.DatasetPath, o.cfg.BatchSize)
	if err != nil {
		return o.fail(result, start, "dataset load", err)
	}
	log.Printf("Dataset loaded: %d training, %d validation samples", dataset.TrainSamples, dataset.ValSamples)
	o.emitter.Emit(models.DatasetInfoEvent(dataset.TrainSamples, dataset.ValSamples, dataset.Classes, o.cfg.BatchSize))

	model, err := o.engine.BuildAndCompile(ctx, o.cfg)
	if err != nil {
		return o.fail(result, start, "model build", err)
	}
	o.emitter.Emit(models.ModelCompiledEvent("Model compiled successfully"))

	stepsPerEpoch := dataset.TrainSamples / o.cfg.BatchSize
	if stepsPerEpoch < 1 {
		stepsPerEpoch = 1
	}
	log.Printf("Starting training: %d epochs, %d steps per epoch", o.cfg.Epochs, stepsPerEpoch)
	o.emitter.Emit(models.TrainingStartEvent(o.cfg.Epochs, stepsPerEpoch, "Starting model training..."))

	state := policy.NewState(o.cfg.LearningRate)
	var history []models.EpochRecord

	for epoch := 1; epoch <= o.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			result.History = history
			result.EpochsRun = len(history)
			return o.fail(result, start, "epoch loop", err)
		}

		o.emitter.Emit(models.EpochStartEvent(epoch, o.cfg.Epochs))

		epochStart := time.Now()
		metrics, err := o.engine.RunEpoch(ctx, model, epoch, o.batchCallback(ctx))
		if err != nil {
			result.History = history
			result.EpochsRun = len(history)
			return o.fail(result, start, "epoch run", err)
		}
		seconds := time.Since(epochStart).Seconds()

		o.emitter.Emit(models.EpochEndEvent(epoch, o.cfg.Epochs, seconds, metrics))

		record := models.EpochRecord{
			Epoch:        epoch,
			Metrics:      metrics,
			LearningRate: state.LearningRate,
			Seconds:      seconds,
		}
		history = append(history, record)
		if o.reporter != nil {
			o.reporter.AppendEpoch(record)
		}

		decision := o.policy.Observe(epoch, metrics, state)

		if decision.SaveBest {
			if err := o.engine.SaveSnapshot(ctx, model, o.snapshots.BestPath()); err != nil {
				result.History = history
				result.EpochsRun = len(history)
				return o.fail(result, start, "snapshot save", err)
			}
			log.Printf("Epoch %d: new best validation accuracy %.4f, snapshot saved", epoch, metrics.ValAcc)
			o.snapshots.RecordBest(ctx, epoch, metrics.ValAcc)
		}

		if decision.ReduceLR {
			if err := o.engine.ApplyLearningRate(ctx, model, decision.NewLearningRate); err != nil {
				result.History = history
				result.EpochsRun = len(history)
				return o.fail(result, start, "learning rate update", err)
			}
			log.Printf("Epoch %d: validation loss plateaued, reducing learning rate to %g", epoch, decision.NewLearningRate)
		}

		if decision.Stop {
			log.Printf("Epoch %d: no improvement for %d epochs, stopping early", epoch, o.cfg.StopPatience)
			restored, err := o.engine.LoadSnapshot(ctx, o.snapshots.BestPath())
			if err != nil {
				result.History = history
				result.EpochsRun = len(history)
				return o.fail(result, start, "snapshot restore", err)
			}
			model = restored
			result.StoppedEarly = true
			break
		}
	}

	result.History = history
	result.EpochsRun = len(history)

	if err := o.engine.SaveSnapshot(ctx, model, o.snapshots.FinalPath()); err != nil {
		return o.fail(result, start, "snapshot save", err)
	}
	o.snapshots.RecordFinal(ctx, result.EpochsRun)
	result.BestSnapshotPath = o.snapshots.BestPath()
	result.FinalSnapshotPath = o.snapshots.FinalPath()

	if evaluator, ok := o.engine.(engine.TestEvaluator); ok && dataset.TestSamples > 0 {
		log.Printf("Evaluating on test set (%d samples)", dataset.TestSamples)
		evalResult, err := evaluator.EvaluateTestSet(ctx, model)
		if err != nil {
			return o.fail(result, start, "test evaluation", err)
		}
		if o.reporter != nil {
			o.reporter.WriteEvalReport(evalResult)
		}
	}

	for _, rec := range history {
		if rec.Metrics.ValAcc > result.FinalAccuracy {
			result.FinalAccuracy = rec.Metrics.ValAcc
		}
		if result.BestLoss == 0 || rec.Metrics.ValLoss < result.BestLoss {
			result.BestLoss = rec.Metrics.ValLoss
		}
	}

	if o.reporter != nil {
		o.reporter.WriteHistory(o.trainingParams(), history, result.StoppedEarly)
	}

	result.Status = models.RunStatusCompleted
	result.Duration = time.Since(start)
	log.Printf("Training completed successfully in %s (%d epochs)", result.Duration.Round(time.Second), result.EpochsRun)
	o.emitter.Emit(models.TrainingCompleteEvent(result.FinalAccuracy, result.BestLoss,
		result.FinalSnapshotPath, "Training completed successfully!"))
	return result, nil
}

// batchCallback samples the engine's per-batch metrics onto the event stream
// and doubles as the cooperative cancellation check: the stride keeps both
// the event volume and the cancellation latency bounded without touching
// every batch.
func (o *Orchestrator) batchCallback(ctx context.Context) engine.BatchFunc {
	return func(batch int, loss, accuracy float64) error {
		if batch%o.cfg.BatchStride != 0 {
			return nil
		}
		o.emitter.Emit(models.BatchUpdateEvent(batch, loss, accuracy))
		return ctx.Err()
	}
}

// fail emits the run's single training_error event and shapes the error
// result. Cancellation is reported distinctly from engine failures.
func (o *Orchestrator) fail(result *models.RunResult, start time.Time, op string, err error) (*models.RunResult, error) {
	result.Duration = time.Since(start)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, models.ErrInterrupted) {
		result.Status = models.RunStatusCancelled
		log.Printf("Training interrupted during %s", op)
		o.emitter.Emit(models.TrainingErrorEvent("Training interrupted by user"))
		return result, fmt.Errorf("%s: %w", op, models.ErrInterrupted)
	}

	result.Status = models.RunStatusFailed
	log.Printf("Training failed during %s: %v", op, err)
	o.emitter.Emit(models.TrainingErrorEvent(fmt.Sprintf("Training failed: %v", err)))

	var engineErr *models.EngineError
	if errors.As(err, &engineErr) {
		return result, err
	}
	return result, &models.EngineError{Op: op, Cause: err}
}

func (o *Orchestrator) trainingParams() map[string]interface{} {
	return map[string]interface{}{
		"epochs":        o.cfg.Epochs,
		"batch_size":    o.cfg.BatchSize,
		"learning_rate": o.cfg.LearningRate,
		"dataset_path":  o.cfg.DatasetPath,
		"run_name":      o.cfg.RunName,
	}
}
