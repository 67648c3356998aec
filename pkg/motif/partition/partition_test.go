package partition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motifsketch/pkg/motif/passes"
	"motifsketch/pkg/motif/record"
	"motifsketch/pkg/motif/types"
	"motifsketch/pkg/output"
)

func recordForSinglePass(m types.InputMap) (*record.Record, error) {
	return record.Build(m, record.BuildOptions{
		K: 2, Case: types.Ordinary, Delta: 0.1, Eps: 0.3, Seed: 5, BatchSize: 100,
	})
}

func baseOptions() Options {
	return Options{
		K: 2, Case: types.Ordinary, Width: 1,
		MinCount: 1, Delta: 0.1, Eps: 0.3, Seed: 5,
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	dst := output.NewBuilder(types.Ordinary, 2, nil)
	_, err := Run(context.Background(), types.InputMap{}, baseOptions(), dst)
	assert.Error(t, err)
}

func TestRunRejectsNonPositiveWidth(t *testing.T) {
	dst := output.NewBuilder(types.Ordinary, 2, nil)
	opt := baseOptions()
	opt.Width = 0
	m := types.InputMap{1: {{ID: 1}, {ID: 2}}}
	_, err := Run(context.Background(), m, opt, dst)
	assert.Error(t, err)
}

func TestRunSkipsBucketsShorterThanKWithoutAborting(t *testing.T) {
	// Bucket at length 1 (width=1) has every sequence shorter than k=2, so
	// it must contribute zero rows rather than failing the whole run and
	// discarding the length-3 bucket's already-extracted output.
	dst := output.NewBuilder(types.Ordinary, 2, nil)
	opt := baseOptions()
	opt.Width = 1
	m := types.InputMap{
		1: {{ID: 1}},                       // length 1, below k=2
		2: {{ID: 10}, {ID: 20}, {ID: 30}}, // length 3, above k=2
	}
	_, err := Run(context.Background(), m, opt, dst)
	require.NoError(t, err)
	rec := dst.NewRecord()
	defer rec.Release()
	assert.Equal(t, int64(3), rec.NumRows())
}

func TestRunWarnsWhenMinCountAboveOne(t *testing.T) {
	dst := output.NewBuilder(types.Ordinary, 2, nil)
	opt := baseOptions()
	opt.MinCount = 2
	m := types.InputMap{1: {{ID: 1}, {ID: 2}}}
	warnings, err := Run(context.Background(), m, opt, dst)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "min_count")
}

func TestPartitionedMatchesSinglePassAtMinCountOne(t *testing.T) {
	// At min_count=1, CMS's never-underestimate guarantee means every truly
	// valid (combination, sequence) pair is selected regardless of which
	// CMS counted it or how many buckets share it — so the partitioned
	// pipeline and a single unpartitioned pass must emit exactly the same
	// set of rows here.
	m := types.InputMap{
		1: {{ID: 10}, {ID: 20}},           // length 2
		2: {{ID: 10}, {ID: 20}, {ID: 30}}, // length 3
		3: {{ID: 20}, {ID: 30}},           // length 2
	}

	dst := output.NewBuilder(types.Ordinary, 2, nil)
	opt := baseOptions()
	opt.Width = 1 // every distinct length gets its own bucket
	_, err := Run(context.Background(), m, opt, dst)
	require.NoError(t, err)
	partitioned := dst.NewRecord()
	defer partitioned.Release()

	single := output.NewBuilder(types.Ordinary, 2, nil)
	rec, err := recordForSinglePass(m)
	require.NoError(t, err)
	ctx := context.Background()
	method := passes.Software{}
	require.NoError(t, passes.Count(ctx, rec, method))
	require.NoError(t, passes.Select(ctx, rec, 1, method))
	require.NoError(t, passes.Extract(rec, 1, single))
	singleRec := single.NewRecord()
	defer singleRec.Release()

	assert.Equal(t, int64(5), partitioned.NumRows())
	assert.Equal(t, int64(5), singleRec.NumRows())
}
