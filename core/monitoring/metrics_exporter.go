package monitoring

import (
	"fmt"
	"strings"
)

// PrometheusMetrics renders the tracked run in Prometheus text exposition
// format for scraping dashboards.
func (t *Tracker) PrometheusMetrics() string {
	snap := t.Snapshot()
	history := t.History()

	var b strings.Builder

	running := 0.0
	if snap.Status == "running" {
		running = 1.0
	}
	labels := fmt.Sprintf("{run_id=%q,run_name=%q}", snap.RunID, snap.RunName)

	b.WriteString("# HELP training_run_active Whether a training run is in progress\n")
	b.WriteString("# TYPE training_run_active gauge\n")
	b.WriteString(fmt.Sprintf("training_run_active%s %g\n", labels, running))

	b.WriteString("# HELP training_run_progress_percent Run progress across all epochs\n")
	b.WriteString("# TYPE training_run_progress_percent gauge\n")
	b.WriteString(fmt.Sprintf("training_run_progress_percent%s %.2f\n", labels, snap.Progress))

	b.WriteString("# HELP training_run_current_epoch Current 1-based epoch number\n")
	b.WriteString("# TYPE training_run_current_epoch gauge\n")
	b.WriteString(fmt.Sprintf("training_run_current_epoch%s %d\n", labels, snap.CurrentEpoch))

	b.WriteString("# HELP training_run_epochs_completed Epochs finished so far\n")
	b.WriteString("# TYPE training_run_epochs_completed counter\n")
	b.WriteString(fmt.Sprintf("training_run_epochs_completed%s %d\n", labels, len(history)))

	if len(history) > 0 {
		last := history[len(history)-1].Metrics
		b.WriteString("# HELP training_run_val_accuracy Validation accuracy of the last completed epoch\n")
		b.WriteString("# TYPE training_run_val_accuracy gauge\n")
		b.WriteString(fmt.Sprintf("training_run_val_accuracy%s %.6f\n", labels, last.ValAcc))

		b.WriteString("# HELP training_run_val_loss Validation loss of the last completed epoch\n")
		b.WriteString("# TYPE training_run_val_loss gauge\n")
		b.WriteString(fmt.Sprintf("training_run_val_loss%s %.6f\n", labels, last.ValLoss))
	}

	b.WriteString("# HELP training_run_events_total Progress events emitted so far\n")
	b.WriteString("# TYPE training_run_events_total counter\n")
	b.WriteString(fmt.Sprintf("training_run_events_total%s %d\n", labels, snap.EventCount))

	return b.String()
}
