package comb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKEqualsLYieldsSingleCombination(t *testing.T) {
	tbl := Build(3, 3)
	require.Equal(t, 1, tbl.M)
	assert.Equal(t, []int{1, 2, 3}, []int{tbl.At(0, 0), tbl.At(1, 0), tbl.At(2, 0)})
}

func TestBuildKGreaterThanLYieldsZeroRows(t *testing.T) {
	tbl := Build(4, 3)
	assert.Equal(t, 0, tbl.M)
}

func TestBuildEnumeratesLexicographicOrder(t *testing.T) {
	tbl := Build(2, 4)
	require.Equal(t, 6, tbl.M) // C(4,2)
	want := [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}
	for j, w := range want {
		assert.Equal(t, w[0], tbl.At(0, j))
		assert.Equal(t, w[1], tbl.At(1, j))
	}
}

func TestBuildZeroOrNegativeK(t *testing.T) {
	assert.Equal(t, 0, Build(0, 5).M)
	assert.Equal(t, 0, Build(-1, 5).M)
}

func TestBinomialMatchesBuildCounts(t *testing.T) {
	for _, tc := range []struct{ n, r, want int }{
		{5, 2, 10}, {5, 0, 1}, {5, 5, 1}, {5, 6, 0}, {5, -1, 0},
	} {
		assert.Equal(t, tc.want, binomial(tc.n, tc.r))
	}
}
