package storage

import (
	"context"
	"log"
	"path/filepath"

	"training-orchestrator/core/models"
	"training-orchestrator/core/repository"
)

// SnapshotManager resolves snapshot paths for a run and records saved
// snapshots with the artifact repository and object store when those are
// configured. Recording is best-effort; the snapshot file on disk is the
// source of truth.
type SnapshotManager struct {
	ws        *Workspace
	runID     string
	runName   string
	artifacts *repository.ArtifactRepository // optional
	uploader  *Uploader                      // optional
}

// NewSnapshotManager creates a snapshot manager for one run
func NewSnapshotManager(ws *Workspace, runID, runName string) *SnapshotManager {
	return &SnapshotManager{ws: ws, runID: runID, runName: runName}
}

// WithArtifactRepository attaches a database artifact recorder
func (m *SnapshotManager) WithArtifactRepository(repo *repository.ArtifactRepository) *SnapshotManager {
	m.artifacts = repo
	return m
}

// WithUploader attaches an object-store uploader
func (m *SnapshotManager) WithUploader(u *Uploader) *SnapshotManager {
	m.uploader = u
	return m
}

// BestPath is where the best-so-far snapshot lives
func (m *SnapshotManager) BestPath() string {
	return filepath.Join(m.ws.ModelsDir(), m.runName+"_best.snapshot")
}

// FinalPath is where the end-of-run snapshot lives
func (m *SnapshotManager) FinalPath() string {
	return filepath.Join(m.ws.ModelsDir(), m.runName+"_final.snapshot")
}

// RecordBest notes that a new best snapshot was written at BestPath
func (m *SnapshotManager) RecordBest(ctx context.Context, epoch int, valAccuracy float64) {
	m.record(ctx, m.BestPath(), map[string]interface{}{
		"kind":         "best",
		"epoch":        epoch,
		"val_accuracy": valAccuracy,
	})
}

// RecordFinal notes that the final snapshot was written at FinalPath
func (m *SnapshotManager) RecordFinal(ctx context.Context, epochsRun int) {
	m.record(ctx, m.FinalPath(), map[string]interface{}{
		"kind":   "final",
		"epochs": epochsRun,
	})
}

func (m *SnapshotManager) record(ctx context.Context, path string, meta map[string]interface{}) {
	if m.artifacts != nil {
		if err := m.artifacts.CreateArtifact(m.runID, models.ArtifactTypeSnapshot, path, meta); err != nil {
			log.Printf("Failed to record snapshot artifact %s: %v", path, err)
		}
	}
	if m.uploader != nil {
		key := m.runID + "/" + filepath.Base(path)
		if err := m.uploader.UploadFile(ctx, key, path, "application/octet-stream"); err != nil {
			log.Printf("Failed to upload snapshot %s: %v", path, err)
		}
	}
}
