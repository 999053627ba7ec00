package monitoring

import (
	"sync"
	"time"

	"training-orchestrator/core/models"
)

// RunSnapshot is a point-in-time view of the tracked run
type RunSnapshot struct {
	RunID         string           `json:"run_id"`
	RunName       string           `json:"run_name"`
	Status        models.RunStatus `json:"status"`
	StartedAt     time.Time        `json:"started_at"`
	CurrentEpoch  int              `json:"current_epoch"`
	TotalEpochs   int              `json:"total_epochs"`
	Progress      float64          `json:"progress"`
	LastValAcc    float64          `json:"last_val_acc"`
	LastValLoss   float64          `json:"last_val_loss"`
	EventCount    int              `json:"event_count"`
	LastEventAt   time.Time        `json:"last_event_at"`
	LastEventType models.EventType `json:"last_event_type"`
}

// Tracker keeps the live state of the current run for the status API. It
// observes the progress stream; the orchestrator never reads it back.
type Tracker struct {
	mu      sync.RWMutex
	runID   string
	runName string
	status  models.RunStatus
	started time.Time

	currentEpoch int
	totalEpochs  int
	progress     float64

	events  []models.ProgressEvent
	history []models.EpochRecord

	lastEventAt   time.Time
	lastEventType models.EventType
}

// NewTracker creates a tracker for one run
func NewTracker(runID, runName string) *Tracker {
	return &Tracker{
		runID:   runID,
		runName: runName,
		status:  models.RunStatusPending,
		started: time.Now(),
	}
}

// Emit folds one progress event into the tracked state
func (t *Tracker) Emit(event models.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, event)
	t.lastEventAt = time.Now()
	t.lastEventType = event.Type

	switch event.Type {
	case models.EventInitializing:
		t.status = models.RunStatusRunning
	case models.EventTrainingStart:
		if event.Epochs != nil {
			t.totalEpochs = *event.Epochs
		}
	case models.EventEpochStart:
		if event.Epoch != nil {
			t.currentEpoch = *event.Epoch
		}
		if event.Progress != nil {
			t.progress = *event.Progress
		}
	case models.EventEpochEnd:
		if event.Progress != nil {
			t.progress = *event.Progress
		}
		if event.Epoch != nil {
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
			t.history = append(t.history, rec)
		}
	case models.EventTrainingComplete:
		t.status = models.RunStatusCompleted
		t.progress = 100
	case models.EventTrainingError:
		t.status = models.RunStatusFailed
	}
}

// Snapshot returns the current run state
func (t *Tracker) Snapshot() RunSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := RunSnapshot{
		RunID:         t.runID,
		RunName:       t.runName,
		Status:        t.status,
		StartedAt:     t.started,
		CurrentEpoch:  t.currentEpoch,
		TotalEpochs:   t.totalEpochs,
		Progress:      t.progress,
		EventCount:    len(t.events),
		LastEventAt:   t.lastEventAt,
		LastEventType: t.lastEventType,
	}
	if n := len(t.history); n > 0 {
		snap.LastValAcc = t.history[n-1].Metrics.ValAcc
		snap.LastValLoss = t.history[n-1].Metrics.ValLoss
	}
	return snap
}

// Events returns up to limit most recent events, oldest first
func (t *Tracker) Events(limit int) []models.ProgressEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.ProgressEvent, n)
	copy(out, t.events[len(t.events)-n:])
	return out
}

// History returns the epoch records observed so far
func (t *Tracker) History() []models.EpochRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.EpochRecord, len(t.history))
	copy(out, t.history)
	return out
}
