// Package reporting writes the run's artifact files: the per-epoch CSV log,
// the metrics history JSON and the test evaluation report. Every write is
// best-effort; a reporting failure never fails the run.
package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"training-orchestrator/core/models"
	"training-orchestrator/storage"
)

// Reporter produces the on-disk reports for one run
type Reporter struct {
	ws      *storage.Workspace
	runName string
	csvFile *os.File
	csvW    *csv.Writer
}

var csvHeader = []string{
	"epoch", "train_loss", "val_loss", "train_acc", "val_acc",
	"train_f1", "val_f1", "learning_rate", "seconds",
}

// New creates a reporter and opens the epoch CSV log
func New(ws *storage.Workspace, runName string) *Reporter {
	r := &Reporter{ws: ws, runName: runName}

	path := filepath.Join(ws.LogsDir(), runName+"_training.csv")
	f, err := os.Create(path)
	if err != nil {
		log.Printf("Failed to open epoch CSV log: %v", err)
		return r
	}
	r.csvFile = f
	r.csvW = csv.NewWriter(f)
	if err := r.csvW.Write(csvHeader); err != nil {
		log.Printf("Failed to write CSV header: %v", err)
	}
	r.csvW.Flush()
	return r
}

// AppendEpoch writes one row of the epoch CSV log
func (r *Reporter) AppendEpoch(rec models.EpochRecord) {
	if r.csvW == nil {
		return
	}
	row := []string{
		fmt.Sprintf("%d", rec.Epoch),
		formatFloat(rec.Metrics.TrainLoss),
		formatFloat(rec.Metrics.ValLoss),
		formatFloat(rec.Metrics.TrainAcc),
		formatFloat(rec.Metrics.ValAcc),
		formatFloat(rec.Metrics.TrainF1),
		formatFloat(rec.Metrics.ValF1),
		fmt.Sprintf("%g", rec.LearningRate),
		fmt.Sprintf("%.2f", rec.Seconds),
	}
	if err := r.csvW.Write(row); err != nil {
		log.Printf("Failed to append epoch %d to CSV log: %v", rec.Epoch, err)
		return
	}
	r.csvW.Flush()
	if err := r.csvW.Error(); err != nil {
		log.Printf("Failed to flush CSV log: %v", err)
	}
}

type historyReport struct {
	RunName        string                 `json:"run_name"`
	TrainingParams map[string]interface{} `json:"training_params"`
	History        []models.EpochRecord   `json:"history"`
	FinalMetrics   finalMetrics           `json:"final_metrics"`
	StoppedEarly   bool                   `json:"stopped_early"`
	Timestamp      time.Time              `json:"timestamp"`
}

type finalMetrics struct {
	BestValAccuracy  float64 `json:"best_val_accuracy"`
	BestValLoss      float64 `json:"best_val_loss"`
	FinalValAccuracy float64 `json:"final_val_accuracy"`
	TotalEpochs      int     `json:"total_epochs"`
}

// WriteHistory saves the full metrics history with a summary of the run
func (r *Reporter) WriteHistory(params map[string]interface{}, history []models.EpochRecord, stoppedEarly bool) {
	report := historyReport{
		RunName:        r.runName,
		TrainingParams: params,
		History:        history,
		StoppedEarly:   stoppedEarly,
		Timestamp:      time.Now().UTC(),
	}
	for i, rec := range history {
		if i == 0 || rec.Metrics.ValAcc > report.FinalMetrics.BestValAccuracy {
			report.FinalMetrics.BestValAccuracy = rec.Metrics.ValAcc
		}
		if i == 0 || rec.Metrics.ValLoss < report.FinalMetrics.BestValLoss {
			report.FinalMetrics.BestValLoss = rec.Metrics.ValLoss
		}
		report.FinalMetrics.FinalValAccuracy = rec.Metrics.ValAcc
	}
	report.FinalMetrics.TotalEpochs = len(history)

	path := filepath.Join(r.ws.ModelsDir(), r.runName+"_history.json")
	r.writeJSON(path, &report)
}

type evalReport struct {
	RunName   string            `json:"run_name"`
	Result    models.EvalResult `json:"result"`
	Timestamp time.Time         `json:"timestamp"`
}

// WriteEvalReport saves the post-run test-set evaluation
func (r *Reporter) WriteEvalReport(result models.EvalResult) {
	path := filepath.Join(r.ws.ReportsDir(), r.runName+"_test_results.json")
	r.writeJSON(path, &evalReport{
		RunName:   r.runName,
		Result:    result,
		Timestamp: time.Now().UTC(),
	})
}

// Close releases the CSV log
func (r *Reporter) Close() {
	if r.csvW != nil {
		r.csvW.Flush()
	}
	if r.csvFile != nil {
		if err := r.csvFile.Close(); err != nil {
			log.Printf("Failed to close CSV log: %v", err)
		}
		r.csvFile = nil
		r.csvW = nil
	}
}

func (r *Reporter) writeJSON(path string, v interface{}) {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Failed to encode report %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		log.Printf("Failed to write report %s: %v", path, err)
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
