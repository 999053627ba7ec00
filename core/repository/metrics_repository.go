package repository

import (
	"training-orchestrator/core/models"
)

// MetricsRepository handles database operations for the per-epoch metrics
// history.
type MetricsRepository struct {
	db *DB
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// InsertEpoch appends one epoch record to a run's history
func (r *MetricsRepository) InsertEpoch(runID string, rec models.EpochRecord) error {
	query := `
		INSERT INTO epoch_metrics (
			run_id, epoch, train_loss, val_loss, train_acc, val_acc,
			train_f1, val_f1, learning_rate, seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, epoch) DO NOTHING
	`
	_, err := r.db.Exec(query,
		runID,
		rec.Epoch,
		rec.Metrics.TrainLoss,
		rec.Metrics.ValLoss,
		rec.Metrics.TrainAcc,
		rec.Metrics.ValAcc,
		rec.Metrics.TrainF1,
		rec.Metrics.ValF1,
		rec.LearningRate,
		rec.Seconds,
	)
	return err
}

// GetRunHistory returns a run's epoch records ordered by epoch number
func (r *MetricsRepository) GetRunHistory(runID string) ([]models.EpochRecord, error) {
	query := `
		SELECT epoch, train_loss, val_loss, train_acc, val_acc,
			train_f1, val_f1, learning_rate, seconds
		FROM epoch_metrics
		WHERE run_id = $1
		ORDER BY epoch ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.EpochRecord
	for rows.Next() {
		var rec models.EpochRecord
		if err := rows.Scan(
			&rec.Epoch,
			&rec.Metrics.TrainLoss,
			&rec.Metrics.ValLoss,
			&rec.Metrics.TrainAcc,
			&rec.Metrics.ValAcc,
			&rec.Metrics.TrainF1,
			&rec.Metrics.ValF1,
			&rec.LearningRate,
			&rec.Seconds,
		); err != nil {
			continue
		}
		history = append(history, rec)
	}

	return history, rows.Err()
}
