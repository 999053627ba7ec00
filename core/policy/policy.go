// Package policy implements the per-epoch checkpoint, learning-rate and
// early-stopping decisions.
package policy

import (
	"math"

	"training-orchestrator/core/models"
)

// State is the mutable stopping state owned by a single run. It is reset at
// run start and discarded at run end.
type State struct {
	BestAccuracy           float64
	BestLoss               float64
	BestEpoch              int
	EpochsSinceAccImprove  int
	EpochsSinceLossImprove int
	LearningRate           float64
	ShouldStop             bool
}

// NewState returns the initial stopping state for a run
func NewState(initialLearningRate float64) *State {
	return &State{
		BestAccuracy: math.Inf(-1),
		BestLoss:     math.Inf(1),
		LearningRate: initialLearningRate,
	}
}

// Policy holds the patience thresholds and learning-rate schedule parameters
type Policy struct {
	StopPatience    int     // non-improving epochs tolerated before stopping
	LRPatience      int     // non-improving epochs before a rate reduction
	LRFactor        float64 // multiplier applied on reduction
	MinLearningRate float64 // floor for the reduced rate
}

// Decision is the outcome of observing one completed epoch
type Decision struct {
	SaveBest        bool
	ReduceLR        bool
	NewLearningRate float64
	Stop            bool
}

// Observe folds one epoch's metrics into the stopping state and returns the
// actions the orchestrator must take. Validation accuracy drives checkpoint
// and stop decisions; validation loss independently drives rate reduction.
// Only strict improvement counts; ties do not reset either counter.
func (p Policy) Observe(epoch int, m models.EpochMetrics, s *State) Decision {
	var d Decision

	if m.ValAcc > s.BestAccuracy {
		s.BestAccuracy = m.ValAcc
		s.BestEpoch = epoch
		s.EpochsSinceAccImprove = 0
		d.SaveBest = true
	} else {
		s.EpochsSinceAccImprove++
		if s.EpochsSinceAccImprove >= p.StopPatience {
			s.ShouldStop = true
			d.Stop = true
		}
	}

	if m.ValLoss < s.BestLoss {
		s.BestLoss = m.ValLoss
		s.EpochsSinceLossImprove = 0
	} else {
		s.EpochsSinceLossImprove++
		if s.EpochsSinceLossImprove >= p.LRPatience {
			reduced := math.Max(s.LearningRate*p.LRFactor, p.MinLearningRate)
			if reduced < s.LearningRate {
				s.LearningRate = reduced
				d.ReduceLR = true
				d.NewLearningRate = reduced
			}
			s.EpochsSinceLossImprove = 0
		}
	}

	return d
}
