package repository

import (
	"encoding/json"
	"time"

	"training-orchestrator/core/models"
)

// EventRepository handles database operations for run progress events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateRunEvent appends one progress event for a run
func (r *EventRepository) CreateRunEvent(runID string, event models.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO run_events (run_id, at, event_type, payload_json)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.db.Exec(query, runID, time.Now(), event.Type, string(payload))
	return err
}

// GetRunEvents retrieves the most recent events for a run
func (r *EventRepository) GetRunEvents(runID string, limit int) ([]models.ProgressEvent, error) {
	query := `
		SELECT payload_json
		FROM run_events
		WHERE run_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ProgressEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var event models.ProgressEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
