package repository

import (
	"database/sql"
	"time"

	"training-orchestrator/core/models"

	"github.com/google/uuid"
)

// RunRepository handles database operations for training runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun creates a new run record
func (r *RunRepository) CreateRun(run *models.Run) error {
	query := `
		INSERT INTO training_runs (id, name, status, epochs, batch_size, dataset_path, created_at, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	runID := uuid.New()
	if run.ID != "" {
		var err error
		runID, err = uuid.Parse(run.ID)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	_, err := r.db.Exec(query,
		runID,
		run.Name,
		run.Status,
		run.Epochs,
		run.BatchSize,
		run.DatasetPath,
		now,
		run.StartedAt,
	)
	if err != nil {
		return err
	}

	run.ID = runID.String()
	run.CreatedAt = now
	return nil
}

// UpdateRunStatus moves a run to a new status
func (r *RunRepository) UpdateRunStatus(id string, status models.RunStatus) error {
	query := `UPDATE training_runs SET status = $2, completed_at = $3 WHERE id = $1`

	var completedAt *time.Time
	switch status {
	case models.RunStatusCompleted, models.RunStatusFailed, models.RunStatusCancelled:
		now := time.Now()
		completedAt = &now
	}

	_, err := r.db.Exec(query, id, status, completedAt)
	return err
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(id string) (*models.Run, error) {
	query := `
		SELECT id, name, status, epochs, batch_size, dataset_path, created_at, started_at, completed_at
		FROM training_runs
		WHERE id = $1
	`

	var run models.Run
	var startedAt, completedAt sql.NullTime
	err := r.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.Name,
		&run.Status,
		&run.Epochs,
		&run.BatchSize,
		&run.DatasetPath,
		&run.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// ListRecentRuns returns the most recently created runs
func (r *RunRepository) ListRecentRuns(limit int) ([]*models.Run, error) {
	query := `
		SELECT id, name, status, epochs, batch_size, dataset_path, created_at, started_at, completed_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID,
			&run.Name,
			&run.Status,
			&run.Epochs,
			&run.BatchSize,
			&run.DatasetPath,
			&run.CreatedAt,
			&startedAt,
			&completedAt,
		); err != nil {
			continue
		}
		if startedAt.Valid {
			run.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
