package models

// EventType identifies the kind of progress event on the output stream
type EventType string

const (
	EventInitializing     EventType = "initializing"
	EventGPUConfigured    EventType = "gpu_configured"
	EventGPUWarning       EventType = "gpu_warning"
	EventDatasetInfo      EventType = "dataset_info"
	EventModelCompiled    EventType = "model_compiled"
	EventTrainingStart    EventType = "training_start"
	EventEpochStart       EventType = "epoch_start"
	EventBatchUpdate      EventType = "batch_update"
	EventEpochEnd         EventType = "epoch_end"
	EventTrainingComplete EventType = "training_complete"
	EventTrainingError    EventType = "training_error"
)

// IsTerminal reports whether the event ends the run's event stream
func (t EventType) IsTerminal() bool {
	return t == EventTrainingComplete || t == EventTrainingError
}

// ProgressEvent represents a single progress notification emitted during a run.
// Only the fields relevant to the event's Type are populated; the rest are
// omitted from the encoded form.
type ProgressEvent struct {
	Type          EventType          `json:"type"`
	Message       string             `json:"message,omitempty"`
	GPUCount      *int               `json:"gpu_count,omitempty"`
	TrainSamples  *int               `json:"train_samples,omitempty"`
	ValSamples    *int               `json:"val_samples,omitempty"`
	Classes       map[string]int     `json:"classes,omitempty"`
	BatchSize     *int               `json:"batch_size,omitempty"`
	Epochs        *int               `json:"epochs,omitempty"`
	StepsPerEpoch *int               `json:"steps_per_epoch,omitempty"`
	Epoch         *int               `json:"epoch,omitempty"`
	TotalEpochs   *int               `json:"total_epochs,omitempty"`
	Progress      *float64           `json:"progress,omitempty"`
	Batch         *int               `json:"batch,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	EpochTime     *float64           `json:"epoch_time,omitempty"`
	FinalAccuracy *float64           `json:"final_accuracy,omitempty"`
	BestLoss      *float64           `json:"best_loss,omitempty"`
	ModelPath     string             `json:"model_path,omitempty"`
}

// InitializingEvent announces the start of a run
func InitializingEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventInitializing, Message: message}
}

// GPUConfiguredEvent reports successful accelerator setup
func GPUConfiguredEvent(gpuCount int, message string) ProgressEvent {
	return ProgressEvent{Type: EventGPUConfigured, Message: message, GPUCount: intPtr(gpuCount)}
}

// GPUWarningEvent reports that no accelerator was found; training continues on CPU
func GPUWarningEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventGPUWarning, Message: message}
}

// DatasetInfoEvent reports the loaded dataset's shape
func DatasetInfoEvent(trainSamples, valSamples int, classes map[string]int, batchSize int) ProgressEvent {
	return ProgressEvent{
		Type:         EventDatasetInfo,
		TrainSamples: intPtr(trainSamples),
		ValSamples:   intPtr(valSamples),
		Classes:      classes,
		BatchSize:    intPtr(batchSize),
	}
}

// ModelCompiledEvent reports that the model was built and compiled
func ModelCompiledEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventModelCompiled, Message: message}
}

// TrainingStartEvent marks the beginning of the epoch loop
func TrainingStartEvent(epochs, stepsPerEpoch int, message string) ProgressEvent {
	return ProgressEvent{
		Type:          EventTrainingStart,
		Message:       message,
		Epochs:        intPtr(epochs),
		StepsPerEpoch: intPtr(stepsPerEpoch),
	}
}

// EpochStartEvent marks the beginning of one epoch. Epochs are 1-based.
func EpochStartEvent(epoch, totalEpochs int) ProgressEvent {
	progress := float64(epoch-1) / float64(totalEpochs) * 100
	return ProgressEvent{
		Type:        EventEpochStart,
		Epoch:       intPtr(epoch),
		TotalEpochs: intPtr(totalEpochs),
		Progress:    &progress,
	}
}

// BatchUpdateEvent carries sampled intra-epoch metrics
func BatchUpdateEvent(batch int, loss, accuracy float64) ProgressEvent {
	return ProgressEvent{
		Type:  EventBatchUpdate,
		Batch: intPtr(batch),
		Metrics: map[string]float64{
			"loss":     loss,
			"accuracy": accuracy,
		},
	}
}

// EpochEndEvent carries the full metric set for one completed epoch
func EpochEndEvent(epoch, totalEpochs int, epochSeconds float64, m EpochMetrics) ProgressEvent {
	progress := float64(epoch) / float64(totalEpochs) * 100
	return ProgressEvent{
		Type:        EventEpochEnd,
		Epoch:       intPtr(epoch),
		TotalEpochs: intPtr(totalEpochs),
		Progress:    &progress,
		EpochTime:   &epochSeconds,
		Metrics: map[string]float64{
			"train_loss": m.TrainLoss,
			"val_loss":   m.ValLoss,
			"train_acc":  m.TrainAcc,
			"val_acc":    m.ValAcc,
			"train_f1":   m.TrainF1,
			"val_f1":     m.ValF1,
		},
	}
}

// TrainingCompleteEvent is the terminal event of a successful run
func TrainingCompleteEvent(finalAccuracy, bestLoss float64, modelPath, message string) ProgressEvent {
	return ProgressEvent{
		Type:          EventTrainingComplete,
		Message:       message,
		FinalAccuracy: &finalAccuracy,
		BestLoss:      &bestLoss,
		ModelPath:     modelPath,
	}
}

// TrainingErrorEvent is the terminal event of a failed or interrupted run
func TrainingErrorEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventTrainingError, Message: message}
}

func intPtr(v int) *int { return &v }
