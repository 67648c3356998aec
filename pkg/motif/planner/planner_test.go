package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motifsketch/pkg/motif/sketch"
	"motifsketch/pkg/motif/types"
)

func TestFixedMemoryBytesFormula(t *testing.T) {
	// k*m*4 + d*w*4 + d*H*4
	got := FixedMemoryBytes(3, 10, 4, 100, 3)
	want := int64(3*10*4 + 4*100*4 + 4*3*4)
	assert.Equal(t, want, got)
}

func TestPerPointBytesOrdinaryVsConvolution(t *testing.T) {
	ordinary := PerPointBytes(6, 20, types.Ordinary)
	assert.Equal(t, int64(12*6+20), ordinary)

	conv := PerPointBytes(6, 20, types.Convolution)
	assert.Equal(t, int64(16*6+20), conv)
}

func TestPlanClampsToMinBatch(t *testing.T) {
	plan, err := Plan(Request{
		TotalPoints: 1000, L: 5, K: 2, Case: types.Ordinary,
		Delta: 0.1, Eps: 0.5,
		// fixed = 176 bytes and per-point = 70 bytes here, so a 512-byte
		// target leaves room for only 4 points, below MinBatch.
		TargetBytes: 512,
		MinBatch:    10, MaxBatch: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, plan.BatchSize)
}

func TestPlanClampsToMaxBatch(t *testing.T) {
	plan, err := Plan(Request{
		TotalPoints: 100000, L: 5, K: 2, Case: types.Ordinary,
		Delta: 0.1, Eps: 0.5,
		TargetBytes: 1 << 40, // effectively unlimited
		MinBatch:    1, MaxBatch: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, 64, plan.BatchSize)
}

func TestPlanFailsWhenFixedMemoryExceedsTarget(t *testing.T) {
	_, err := Plan(Request{
		TotalPoints: 10, L: 20, K: 10, Case: types.Convolution,
		Delta: 0.001, Eps: 0.001,
		TargetBytes: 1,
	})
	require.Error(t, err)
}

func TestPlanRejectsKGreaterThanL(t *testing.T) {
	_, err := Plan(Request{TotalPoints: 10, L: 2, K: 5, Case: types.Ordinary, Delta: 0.1, Eps: 0.1})
	assert.Error(t, err)
}

func TestPlanNumBatchesCoversAllPoints(t *testing.T) {
	plan, err := Plan(Request{
		TotalPoints: 95, L: 5, K: 2, Case: types.Ordinary,
		Delta: 0.1, Eps: 0.5, MinBatch: 10, MaxBatch: 10,
		TargetBytes: 1 << 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, plan.BatchSize)
	assert.Equal(t, 10, plan.NumBatches) // ceil(95/10)
}

func TestPlanMatchesSketchDimensions(t *testing.T) {
	d, w, h, err := sketch.Dimensions(0.05, 0.05, 3, types.Ordinary)
	require.NoError(t, err)
	plan, err := Plan(Request{TotalPoints: 10, L: 5, K: 3, Case: types.Ordinary, Delta: 0.05, Eps: 0.05, TargetBytes: 1 << 30})
	require.NoError(t, err)
	m := binomial(5, 3)
	assert.Equal(t, FixedMemoryBytes(3, m, d, w, h), plan.FixedMemBytes)
}
