package output

import (
	"testing"

	"github.com/apache/arrow/go/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motifsketch/pkg/motif/types"
)

func TestSchemaOrdinaryFields(t *testing.T) {
	s := Schema(types.Ordinary, 3)
	names := fieldNames(s)
	assert.Equal(t, []string{"m_1", "m_2", "m_3", "data_index", "contribution", "count"}, names)
}

func TestSchemaConvolutionFields(t *testing.T) {
	s := Schema(types.Convolution, 3)
	names := fieldNames(s)
	assert.Equal(t, []string{
		"m_1", "m_2", "m_3", "data_index", "contribution", "count",
		"d_12", "d_23", "start", "end",
	}, names)
}

func TestSchemaDeterministic(t *testing.T) {
	a := Schema(types.Ordinary, 4)
	b := Schema(types.Ordinary, 4)
	assert.True(t, a.Equal(b))
}

func TestNewRecordWithZeroRowsIsTypedEmpty(t *testing.T) {
	b := NewBuilder(types.Ordinary, 2, nil)
	rec := b.NewRecord()
	defer rec.Release()
	assert.Equal(t, int64(0), rec.NumRows())
	assert.True(t, rec.Schema().Equal(Schema(types.Ordinary, 2)))
}

func TestAppendAndBuildOrdinaryRecord(t *testing.T) {
	b := NewBuilder(types.Ordinary, 2, nil)
	b.Append(Row{Members: []uint32{1, 2}, DataIndex: 10, Contribution: 1.5, Count: 3})
	b.Append(Row{Members: []uint32{3, 4}, DataIndex: 11, Contribution: 2.5, Count: 7})
	require.Equal(t, int64(2), b.RowCount())

	rec := b.NewRecord()
	defer rec.Release()
	assert.Equal(t, int64(2), rec.NumRows())
}

func TestAppendConvolutionRecordIncludesGapsAndSpan(t *testing.T) {
	b := NewBuilder(types.Convolution, 2, nil)
	b.Append(Row{
		Members: []uint32{1, 2}, DataIndex: 5, Contribution: 1, Count: 2,
		Gaps: []int32{3}, Start: 0, End: 6,
	})
	rec := b.NewRecord()
	defer rec.Release()
	assert.Equal(t, int64(1), rec.NumRows())
}

func fieldNames(s *arrow.Schema) []string {
	names := make([]string, len(s.Fields()))
	for i, f := range s.Fields() {
		names[i] = f.Name
	}
	return names
}
