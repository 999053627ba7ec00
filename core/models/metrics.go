package models

// EpochMetrics holds the metric set produced at one epoch boundary.
// F1 values are zero when the engine does not report them.
type EpochMetrics struct {
	TrainLoss float64 `json:"train_loss"`
	ValLoss   float64 `json:"val_loss"`
	TrainAcc  float64 `json:"train_acc"`
	ValAcc    float64 `json:"val_acc"`
	TrainF1   float64 `json:"train_f1,omitempty"`
	ValF1     float64 `json:"val_f1,omitempty"`
}

// EpochRecord is one entry of the per-run metrics history
type EpochRecord struct {
	Epoch        int          `json:"epoch"`
	Metrics      EpochMetrics `json:"metrics"`
	LearningRate float64      `json:"learning_rate"`
	Seconds      float64      `json:"seconds"`
}

// ClassMetrics holds per-class evaluation figures
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// EvalResult is the outcome of a post-training test-set evaluation
type EvalResult struct {
	Accuracy  float64                 `json:"test_accuracy"`
	Loss      float64                 `json:"test_loss"`
	PerClass  map[string]ClassMetrics `json:"classification_report,omitempty"`
	Confusion [][]int                 `json:"confusion_matrix,omitempty"`
}
