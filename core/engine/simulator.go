package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"training-orchestrator/config"
	"training-orchestrator/core/models"
)

// SimulatorOptions configures the simulated training backend
type SimulatorOptions struct {
	Seed          int64
	GPUCount      int
	StepsPerEpoch int           // 0 derives steps from the loaded dataset
	BatchDelay    time.Duration // artificial per-batch pacing, 0 in tests
	Demo          bool          // synthetic dataset instead of scanning disk
}

// Simulator is a training backend that produces realistic metric curves
// without doing any actual model fitting. It is used for demo runs and as a
// stand-in engine in tests; real backends implement the same Adapter
// contract.
type Simulator struct {
	opts    SimulatorOptions
	rng     *rand.Rand
	dataset *DatasetInfo
}

// NewSimulator creates a simulated engine
func NewSimulator(opts SimulatorOptions) *Simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.GPUCount == 0 && opts.Demo {
		opts.GPUCount = 1
	}
	return &Simulator{
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// simModel is the simulator's model state. The exported fields form the
// snapshot format written by SaveSnapshot.
type simModel struct {
	RunName      string              `json:"run_name"`
	LearningRate float64             `json:"learning_rate"`
	Epoch        int                 `json:"epoch"`
	Metrics      models.EpochMetrics `json:"metrics"`
	SavedAt      time.Time           `json:"saved_at,omitempty"`
}

// DetectDevices reports the simulated accelerator count
func (s *Simulator) DetectDevices(_ context.Context) (DeviceInfo, error) {
	info := DeviceInfo{GPUCount: s.opts.GPUCount}
	if info.GPUCount > 0 {
		info.Description = fmt.Sprintf("simulated accelerator x%d", info.GPUCount)
	}
	return info, nil
}

// LoadDataset scans a class-per-directory dataset layout, or fabricates one
// in demo mode. A sibling "test" directory next to the dataset root is
// treated as a held-out test split.
func (s *Simulator) LoadDataset(_ context.Context, path string, batchSize int) (DatasetInfo, error) {
	if s.opts.Demo || path == "" {
		info := DatasetInfo{
			TrainSamples: 8000,
			ValSamples:   2000,
			Classes:      map[string]int{"CNV": 0, "DME": 1, "DRUSEN": 2, "NORMAL": 3},
			BatchSize:    batchSize,
		}
		s.dataset = &info
		return info, nil
	}

	classes, total, err := scanClassDirs(path)
	if err != nil {
		return DatasetInfo{}, &models.EngineError{Op: "dataset load", Cause: err}
	}
	if total == 0 {
		return DatasetInfo{}, &models.EngineError{Op: "dataset load", Cause: fmt.Errorf("no samples found under %s", path)}
	}

	// 80/20 train/validation split over the same directory
	val := total / 5
	info := DatasetInfo{
		TrainSamples: total - val,
		ValSamples:   val,
		Classes:      classes,
		BatchSize:    batchSize,
	}

	testDir := filepath.Join(filepath.Dir(path), "test")
	if _, testTotal, err := statClassDirs(testDir); err == nil {
		info.TestSamples = testTotal
	}

	s.dataset = &info
	return info, nil
}

// BuildAndCompile constructs the simulated model
func (s *Simulator) BuildAndCompile(_ context.Context, cfg *config.Config) (ModelHandle, error) {
	return &simModel{
		RunName:      cfg.RunName,
		LearningRate: cfg.LearningRate,
	}, nil
}

// RunEpoch iterates the simulated batch loop, invoking onBatch after every
// batch, and produces the epoch's metric set.
func (s *Simulator) RunEpoch(ctx context.Context, model ModelHandle, epoch int, onBatch BatchFunc) (models.EpochMetrics, error) {
	m, ok := model.(*simModel)
	if !ok {
		return models.EpochMetrics{}, &models.EngineError{Op: "epoch run", Cause: fmt.Errorf("foreign model handle %T", model)}
	}

	steps := s.stepsPerEpoch()
	for batch := 0; batch < steps; batch++ {
		if s.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return models.EpochMetrics{}, ctx.Err()
			case <-time.After(s.opts.BatchDelay):
			}
		}
		loss := math.Max(0.05, 1.0-(float64(epoch)*0.15+float64(batch)*0.001)+s.rng.NormFloat64()*0.05)
		acc := math.Min(0.99, 0.25+float64(epoch)*0.15+float64(batch)*0.002+s.rng.NormFloat64()*0.02)
		if onBatch != nil {
			if err := onBatch(batch, loss, acc); err != nil {
				return models.EpochMetrics{}, err
			}
		}
	}

	metrics := models.EpochMetrics{
		TrainLoss: math.Max(0.05, 0.9-float64(epoch)*0.15+s.rng.NormFloat64()*0.05),
		ValLoss:   math.Max(0.08, 1.0-float64(epoch)*0.12+s.rng.NormFloat64()*0.06),
		TrainAcc:  math.Min(0.98, 0.30+float64(epoch)*0.12+s.rng.NormFloat64()*0.02),
		ValAcc:    math.Min(0.95, 0.25+float64(epoch)*0.11+s.rng.NormFloat64()*0.03),
	}
	metrics.TrainF1 = math.Max(0, metrics.TrainAcc-0.02)
	metrics.ValF1 = math.Max(0, metrics.ValAcc-0.03)

	m.Epoch = epoch
	m.Metrics = metrics
	return metrics, nil
}

// SaveSnapshot persists the model state as a JSON snapshot file
func (s *Simulator) SaveSnapshot(_ context.Context, model ModelHandle, path string) error {
	m, ok := model.(*simModel)
	if !ok {
		return &models.EngineError{Op: "snapshot save", Cause: fmt.Errorf("foreign model handle %T", model)}
	}
	snap := *m
	snap.SavedAt = time.Now().UTC()
	blob, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return &models.EngineError{Op: "snapshot save", Cause: err}
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return &models.EngineError{Op: "snapshot save", Cause: err}
	}
	return nil
}

// LoadSnapshot restores a model from a snapshot file
func (s *Simulator) LoadSnapshot(_ context.Context, path string) (ModelHandle, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.EngineError{Op: "snapshot load", Cause: err}
	}
	var m simModel
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, &models.EngineError{Op: "snapshot load", Cause: err}
	}
	return &m, nil
}

// ApplyLearningRate sets the rate used from the next epoch on
func (s *Simulator) ApplyLearningRate(_ context.Context, model ModelHandle, rate float64) error {
	m, ok := model.(*simModel)
	if !ok {
		return &models.EngineError{Op: "learning rate update", Cause: fmt.Errorf("foreign model handle %T", model)}
	}
	m.LearningRate = rate
	return nil
}

// EvaluateTestSet scores the held-out split with figures derived from the
// model's last validation metrics.
func (s *Simulator) EvaluateTestSet(_ context.Context, model ModelHandle) (models.EvalResult, error) {
	m, ok := model.(*simModel)
	if !ok {
		return models.EvalResult{}, &models.EngineError{Op: "test evaluation", Cause: fmt.Errorf("foreign model handle %T", model)}
	}

	result := models.EvalResult{
		Accuracy: math.Max(0, m.Metrics.ValAcc-0.01),
		Loss:     m.Metrics.ValLoss + 0.02,
		PerClass: map[string]models.ClassMetrics{},
	}
	if s.dataset != nil {
		names := make([]string, 0, len(s.dataset.Classes))
		for name := range s.dataset.Classes {
			names = append(names, name)
		}
		sort.Strings(names)
		support := 0
		if len(names) > 0 {
			support = s.dataset.TestSamples / len(names)
		}
		for _, name := range names {
			jitter := s.rng.NormFloat64() * 0.02
			result.PerClass[name] = models.ClassMetrics{
				Precision: clamp01(result.Accuracy + jitter),
				Recall:    clamp01(result.Accuracy - jitter),
				F1:        clamp01(result.Accuracy),
				Support:   support,
			}
		}
	}
	return result, nil
}

func (s *Simulator) stepsPerEpoch() int {
	if s.opts.StepsPerEpoch > 0 {
		return s.opts.StepsPerEpoch
	}
	if s.dataset != nil && s.dataset.BatchSize > 0 {
		steps := s.dataset.TrainSamples / s.dataset.BatchSize
		if steps > 0 {
			return steps
		}
	}
	return 100
}

// scanClassDirs maps each subdirectory of root to a class index and counts
// the files it contains.
func scanClassDirs(root string) (map[string]int, int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, 0, err
	}

	var names []string
	counts := map[string]int{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, 0, err
		}
		n := 0
		for _, f := range files {
			if !f.IsDir() {
				n++
			}
		}
		names = append(names, entry.Name())
		counts[entry.Name()] = n
	}
	sort.Strings(names)

	classes := map[string]int{}
	total := 0
	for i, name := range names {
		classes[name] = i
		total += counts[name]
	}
	return classes, total, nil
}

func statClassDirs(root string) (map[string]int, int, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, 0, err
	}
	classes, total, err := scanClassDirs(root)
	return classes, total, err
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
