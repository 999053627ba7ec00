package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-orchestrator/config"
	"training-orchestrator/core/models"
)

func defaultPolicy() Policy {
	return Policy{
		StopPatience:    config.DefaultStopPatience,
		LRPatience:      config.DefaultLRPatience,
		LRFactor:        config.DefaultLRFactor,
		MinLearningRate: config.DefaultMinLearningRate,
	}
}

func TestFirstEpochAlwaysSavesBest(t *testing.T) {
	p := defaultPolicy()
	s := NewState(0.001)

	d := p.Observe(1, models.EpochMetrics{ValAcc: 0.10, ValLoss: 2.5}, s)

	assert.True(t, d.SaveBest, "any finite accuracy beats the initial state")
	assert.False(t, d.Stop)
	assert.Equal(t, 1, s.BestEpoch)
	assert.Equal(t, 0.10, s.BestAccuracy)
	assert.Equal(t, 2.5, s.BestLoss)
}

func TestTiedAccuracyDoesNotCountAsImprovement(t *testing.T) {
	p := defaultPolicy()
	s := NewState(0.001)

	p.Observe(1, models.EpochMetrics{ValAcc: 0.50, ValLoss: 1.0}, s)
	d := p.Observe(2, models.EpochMetrics{ValAcc: 0.50, ValLoss: 0.9}, s)

	assert.False(t, d.SaveBest)
	assert.Equal(t, 1, s.EpochsSinceAccImprove)
	assert.Equal(t, 1, s.BestEpoch)
}

func TestStopsAfterPatienceStagnantEpochs(t *testing.T) {
	p := defaultPolicy()
	s := NewState(0.001)

	// Epoch 1 improves, then seven stagnant epochs exhaust the patience of 7.
	d := p.Observe(1, models.EpochMetrics{ValAcc: 0.40, ValLoss: 1.0}, s)
	require.True(t, d.SaveBest)

	for epoch := 2; epoch <= 7; epoch++ {
		d = p.Observe(epoch, models.EpochMetrics{ValAcc: 0.40, ValLoss: 1.0}, s)
		require.False(t, d.Stop, "epoch %d must not stop yet", epoch)
	}

	d = p.Observe(8, models.EpochMetrics{ValAcc: 0.40, ValLoss: 1.0}, s)
	assert.True(t, d.Stop)
	assert.True(t, s.ShouldStop)
	assert.Equal(t, 1, s.BestEpoch, "restore target is the last improving epoch")
}

func TestImprovementResetsStopCounter(t *testing.T) {
	p := defaultPolicy()
	s := NewState(0.001)

	p.Observe(1, models.EpochMetrics{ValAcc: 0.40, ValLoss: 1.0}, s)
	for epoch := 2; epoch <= 7; epoch++ {
		p.Observe(epoch, models.EpochMetrics{ValAcc: 0.40, ValLoss: 1.0}, s)
	}
	require.Equal(t, 6, s.EpochsSinceAccImprove)

	d := p.Observe(8, models.EpochMetrics{ValAcc: 0.41, ValLoss: 1.0}, s)
	assert.True(t, d.SaveBest)
	assert.False(t, d.Stop)
	assert.Equal(t, 0, s.EpochsSinceAccImprove)
	assert.Equal(t, 8, s.BestEpoch)
}

func TestLearningRateHalvesAfterLossPlateau(t *testing.T) {
	p := defaultPolicy()
	s := NewState(0.001)

	// Loss improves once, then rises for three consecutive epochs.
	p.Observe(1, models.EpochMetrics{ValAcc: 0.40, ValLoss: 0.90}, s)
	p.Observe(2, models.EpochMetrics{ValAcc: 0.41, ValLoss: 0.91}, s)
	p.Observe(3, models.EpochMetrics{ValAcc: 0.42, ValLoss: 0.92}, s)
	d := p.Observe(4, models.EpochMetrics{ValAcc: 0.43, ValLoss: 0.93}, s)

	assert.True(t, d.ReduceLR)
	assert.InDelta(t, 0.0005, d.NewLearningRate, 1e-12)
	assert.InDelta(t, 0.0005, s.LearningRate, 1e-12)
	assert.Equal(t, 0, s.EpochsSinceLossImprove, "reduction resets the plateau counter")
}

func TestLearningRateAndStopCountersAreIndependent(t *testing.T) {
	p := defaultPolicy()
	s := NewState(0.001)

	// Accuracy keeps improving while loss stalls, so the rate drops but the
	// run keeps going.
	p.Observe(1, models.EpochMetrics{ValAcc: 0.40, ValLoss: 0.90}, s)
	p.Observe(2, models.EpochMetrics{ValAcc: 0.41, ValLoss: 0.95}, s)
	p.Observe(3, models.EpochMetrics{ValAcc: 0.42, ValLoss: 0.95}, s)
	d := p.Observe(4, models.EpochMetrics{ValAcc: 0.43, ValLoss: 0.95}, s)

	assert.True(t, d.SaveBest)
	assert.True(t, d.ReduceLR)
	assert.False(t, d.Stop)
	assert.Equal(t, 0, s.EpochsSinceAccImprove)
}

func TestLearningRateNeverFallsBelowFloor(t *testing.T) {
	p := defaultPolicy()
	s := NewState(2e-7)

	stagnant := models.EpochMetrics{ValAcc: 0.40, ValLoss: 1.0}
	p.Observe(1, models.EpochMetrics{ValAcc: 0.40, ValLoss: 0.9}, s)

	// First plateau clamps to the floor, further plateaus leave it there.
	for epoch := 2; epoch <= 4; epoch++ {
		p.Observe(epoch, stagnant, s)
	}
	assert.Equal(t, config.DefaultMinLearningRate, s.LearningRate)

	for epoch := 5; epoch <= 7; epoch++ {
		d := p.Observe(epoch, stagnant, s)
		assert.False(t, d.ReduceLR, "rate already at the floor")
	}
	assert.Equal(t, config.DefaultMinLearningRate, s.LearningRate)
}

func TestNewStateInitials(t *testing.T) {
	s := NewState(0.01)

	assert.True(t, math.IsInf(s.BestAccuracy, -1))
	assert.True(t, math.IsInf(s.BestLoss, 1))
	assert.Equal(t, 0.01, s.LearningRate)
	assert.False(t, s.ShouldStop)
}
