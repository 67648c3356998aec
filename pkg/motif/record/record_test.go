package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motifsketch/pkg/motif/sketch"
	"motifsketch/pkg/motif/types"
)

func TestBuildRejectsEmptyInput(t *testing.T) {
	_, err := Build(types.InputMap{}, BuildOptions{K: 2, Case: types.Ordinary, Delta: 0.1, Eps: 0.1})
	assert.Error(t, err)
}

func TestBuildRejectsZeroK(t *testing.T) {
	m := types.InputMap{1: {{ID: 1}, {ID: 2}}}
	_, err := Build(m, BuildOptions{K: 0, Case: types.Ordinary})
	assert.Error(t, err)
}

func TestBuildRejectsConvolutionWithoutFilterLen(t *testing.T) {
	m := types.InputMap{1: {{ID: 1, Position: 0}, {ID: 2, Position: 1}}}
	_, err := Build(m, BuildOptions{K: 2, Case: types.Convolution, Delta: 0.1, Eps: 0.1})
	assert.Error(t, err)
}

func TestBuildRejectsKGreaterThanL(t *testing.T) {
	m := types.InputMap{1: {{ID: 1}}}
	_, err := Build(m, BuildOptions{K: 2, Case: types.Ordinary, Delta: 0.1, Eps: 0.1})
	assert.Error(t, err)
}

func TestBuildRejectsZeroFeatureID(t *testing.T) {
	// Zero is the ref tensor's absent-slot sentinel; a real feature id of 0
	// would silently collide with padding instead of being rejected.
	m := types.InputMap{1: {{ID: 0}, {ID: 2}}}
	_, err := Build(m, BuildOptions{K: 2, Case: types.Ordinary, Delta: 0.1, Eps: 0.1})
	assert.Error(t, err)
}

func TestBuildLayoutAndPadding(t *testing.T) {
	m := types.InputMap{
		1: {{ID: 11}, {ID: 12}, {ID: 13}},
		2: {{ID: 21}, {ID: 22}},
	}
	rec, err := Build(m, BuildOptions{
		K: 2, Case: types.Ordinary, Delta: 0.1, Eps: 0.3, Seed: 1, BatchSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, rec.Batches, 1)
	assert.Equal(t, 3, rec.MaxActiveLen)
	assert.Equal(t, 2, rec.RCols)

	b := rec.Batches[0]
	require.Equal(t, 2, b.Size)

	// sequence 1 (n=0) has all 3 rows filled.
	assert.Equal(t, uint32(11), b.Ref(0, ColFilterIndex, 0))
	assert.Equal(t, uint32(12), b.Ref(1, ColFilterIndex, 0))
	assert.Equal(t, uint32(13), b.Ref(2, ColFilterIndex, 0))

	// sequence 2 (n=1) has only 2 rows filled; row 2 stays zero-padded.
	assert.Equal(t, uint32(21), b.Ref(0, ColFilterIndex, 1))
	assert.Equal(t, uint32(22), b.Ref(1, ColFilterIndex, 1))
	assert.Equal(t, uint32(0), b.Ref(2, ColFilterIndex, 1))
}

func TestBuildChunksIntoMultipleBatches(t *testing.T) {
	m := types.InputMap{
		1: {{ID: 1}, {ID: 2}},
		2: {{ID: 1}, {ID: 2}},
		3: {{ID: 1}, {ID: 2}},
	}
	rec, err := Build(m, BuildOptions{K: 2, Case: types.Ordinary, Delta: 0.1, Eps: 0.3, Seed: 1, BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, rec.Batches, 2)
	assert.Equal(t, 2, rec.Batches[0].Size)
	assert.Equal(t, 1, rec.Batches[1].Size)
}

func TestBuildConvolutionKeepsPositionColumn(t *testing.T) {
	m := types.InputMap{
		1: {{ID: 1, Position: 0}, {ID: 2, Position: 4}},
	}
	rec, err := Build(m, BuildOptions{
		K: 2, Case: types.Convolution, FilterLen: 2, Delta: 0.1, Eps: 0.3, Seed: 1, BatchSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rec.RCols)
	b := rec.Batches[0]
	assert.Equal(t, uint32(0), b.Ref(0, ColPosition, 0))
	assert.Equal(t, uint32(4), b.Ref(1, ColPosition, 0))
}

func TestBuildSharesProvidedCMS(t *testing.T) {
	shared, err := sketch.New(2, types.Ordinary, 0.1, 0.3, 1)
	require.NoError(t, err)

	m := types.InputMap{1: {{ID: 1}, {ID: 2}}}
	rec, err := Build(m, BuildOptions{K: 2, Case: types.Ordinary, BatchSize: 10, CMS: shared})
	require.NoError(t, err)
	assert.Same(t, shared, rec.CMS)
}
