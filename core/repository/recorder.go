package repository

import (
	"log"

	"training-orchestrator/core/models"
)

// EventRecorder mirrors the run's progress stream into the database. Every
// write is best-effort: persistence failures are logged and never reach the
// run itself.
type EventRecorder struct {
	runID   string
	events  *EventRepository
	metrics *MetricsRepository
}

// NewEventRecorder creates a recorder for one run
func NewEventRecorder(runID string, events *EventRepository, metrics *MetricsRepository) *EventRecorder {
	return &EventRecorder{
		runID:   runID,
		events:  events,
		metrics: metrics,
	}
}

// Emit persists one progress event; epoch_end events additionally append to
// the epoch metrics history.
func (r *EventRecorder) Emit(event models.ProgressEvent) {
	if err := r.events.CreateRunEvent(r.runID, event); err != nil {
		log.Printf("Failed to persist %s event for run %s: %v", event.Type, r.runID, err)
	}

	if event.Type != models.EventEpochEnd || event.Epoch == nil {
		return
	}

	rec := models.EpochRecord{
		Epoch: *event.Epoch,
		Metrics: models.EpochMetrics{
			TrainLoss: event.Metrics["train_loss"],
			ValLoss:   event.Metrics["val_loss"],
			TrainAcc:  event.Metrics["train_acc"],
			ValAcc:    event.Metrics["val_acc"],
			TrainF1:   event.Metrics["train_f1"],
			ValF1:     event.Metrics["val_f1"],
		},
	}
	if event.EpochTime != nil {
		rec.Seconds = *event.EpochTime
	}
	if err := r.metrics.InsertEpoch(r.runID, rec); err != nil {
		log.Printf("Failed to persist epoch %d metrics for run %s: %v", rec.Epoch, r.runID, err)
	}
}
