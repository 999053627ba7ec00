package models

import "time"

// Run represents one end-to-end training run from configuration to terminal outcome
type Run struct {
	ID          string
	Name        string
	Status      RunStatus
	Epochs      int
	BatchSize   int
	DatasetPath string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// RunStatus represents the current status of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunResult summarizes a finished run
type RunResult struct {
	RunID             string        `json:"run_id"`
	Status            RunStatus     `json:"status"`
	EpochsRun         int           `json:"epochs_run"`
	StoppedEarly      bool          `json:"stopped_early"`
	FinalAccuracy     float64       `json:"final_accuracy"`
	BestLoss          float64       `json:"best_loss"`
	BestSnapshotPath  string        `json:"best_snapshot_path,omitempty"`
	FinalSnapshotPath string        `json:"final_snapshot_path,omitempty"`
	History           []EpochRecord `json:"history"`
	Duration          time.Duration `json:"-"`
}

// ArtifactType represents the type of run artifact
type ArtifactType string

const (
	ArtifactTypeSnapshot ArtifactType = "snapshot"
	ArtifactTypeLog      ArtifactType = "log"
	ArtifactTypeMetrics  ArtifactType = "metrics"
	ArtifactTypeReport   ArtifactType = "report"
)

// RunArtifact represents a persisted run artifact (snapshot, log, report, etc.)
type RunArtifact struct {
	ID        int64
	RunID     string
	Type      ArtifactType
	URI       string
	CreatedAt time.Time
	MetaJSON  map[string]interface{}
}
