// Package output provides the opaque row sink that ExtractPass rows are
// shipped through: an Arrow schema constructor plus a streaming builder,
// grounded on the teacher's DocumentRecord/AlpacaDocumentRecord Arrow
// marshalling (pipeline/1_DATA_MINER/internal/app/arrow.go). The schema is
// fully determined independent of whether any rows are ever appended,
// satisfying the design's "typed-empty schema" requirement — callers can
// construct the schema before knowing whether ExtractPass will emit
// anything.
package output

import (
	"github.com/apache/arrow/go/arrow"
	"github.com/apache/arrow/go/arrow/array"
	"github.com/apache/arrow/go/arrow/memory"

	"motifsketch/pkg/motif/types"
)

// Row is one emitted motif occurrence. Which fields are populated depends
// on Case: Ordinary rows leave Gaps/Start/End zero, Convolution rows
// populate them.
type Row struct {
	Members      []uint32 // m_1 .. m_k
	DataIndex    uint32
	Contribution float32
	Count        uint32

	Gaps       []int32 // d_12 .. d_{k-1,k}; Convolution only.
	Start, End uint32  // Convolution only.
}

// Schema returns the Arrow schema for the given case and motif size k. It
// is deterministic given (case, k) and safe to call before any rows exist.
func Schema(c types.Case, k int) *arrow.Schema {
	fields := make([]arrow.Field, 0, k+4)
	for e := 1; e <= k; e++ {
		fields = append(fields, arrow.Field{Name: memberName(e), Type: arrow.PrimitiveTypes.Uint32, Nullable: false})
	}
	fields = append(fields,
		arrow.Field{Name: "data_index", Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
		arrow.Field{Name: "contribution", Type: arrow.PrimitiveTypes.Float32, Nullable: false},
		arrow.Field{Name: "count", Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
	)
	if c == types.Convolution {
		for e := 1; e < k; e++ {
			fields = append(fields, arrow.Field{Name: gapName(e), Type: arrow.PrimitiveTypes.Int32, Nullable: false})
		}
		fields = append(fields,
			arrow.Field{Name: "start", Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
			arrow.Field{Name: "end", Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
		)
	}
	return arrow.NewSchema(fields, nil)
}

func memberName(e int) string {
	return "m_" + itoa(e)
}

func gapName(e int) string {
	return "d_" + itoa(e) + itoa(e+1)
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	// Motif sizes large enough to need two digits are exotic but not
	// forbidden by the spec; fall back to a simple decimal expansion.
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Builder accumulates Rows and produces a single Arrow record, releasing
// the intermediate column arrays as it goes (mirroring the teacher's
// defer-Release pattern).
type Builder struct {
	c    types.Case
	k    int
	mem  memory.Allocator
	cols []*uint32ListlikeBuilder // one per member column
	data *array.Uint32Builder
	cont *array.Float32Builder
	cnt  *array.Uint32Builder
	gaps []*array.Int32Builder
	strt *array.Uint32Builder
	end  *array.Uint32Builder
	n    int64
}

// uint32ListlikeBuilder is a thin alias kept for readability; member
// columns are plain (non-list) Uint32 columns.
type uint32ListlikeBuilder = array.Uint32Builder

// NewBuilder allocates column builders for the given case and motif size.
func NewBuilder(c types.Case, k int, alloc memory.Allocator) *Builder {
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}
	b := &Builder{c: c, k: k, mem: alloc}
	for e := 0; e < k; e++ {
		b.cols = append(b.cols, array.NewUint32Builder(alloc))
	}
	b.data = array.NewUint32Builder(alloc)
	b.cont = array.NewFloat32Builder(alloc)
	b.cnt = array.NewUint32Builder(alloc)
	if c == types.Convolution {
		for e := 0; e < k-1; e++ {
			b.gaps = append(b.gaps, array.NewInt32Builder(alloc))
		}
		b.strt = array.NewUint32Builder(alloc)
		b.end = array.NewUint32Builder(alloc)
	}
	return b
}

// RowCount returns the number of rows appended so far.
func (b *Builder) RowCount() int64 { return b.n }

// Append adds one Row to the builder.
func (b *Builder) Append(r Row) {
	for e, col := range b.cols {
		col.Append(r.Members[e])
	}
	b.data.Append(r.DataIndex)
	b.cont.Append(r.Contribution)
	b.cnt.Append(r.Count)
	if b.c == types.Convolution {
		for e, col := range b.gaps {
			col.Append(r.Gaps[e])
		}
		b.strt.Append(r.Start)
		b.end.Append(r.End)
	}
	b.n++
}

// NewRecord finalizes the builder into an Arrow record, releasing its own
// references to the intermediate arrays (the record retains them); the
// column builders are not released. It may be called with zero appended rows,
// producing a correctly-typed, zero-length record.
func (b *Builder) NewRecord() array.Record {
	schema := Schema(b.c, b.k)
	cols := make([]array.Interface, 0, len(schema.Fields()))

	for _, col := range b.cols {
		arr := col.NewArray()
		defer arr.Release()
		cols = append(cols, arr)
	}
	dataArr := b.data.NewArray()
	defer dataArr.Release()
	contArr := b.cont.NewArray()
	defer contArr.Release()
	cntArr := b.cnt.NewArray()
	defer cntArr.Release()
	cols = append(cols, dataArr, contArr, cntArr)

	if b.c == types.Convolution {
		for _, col := range b.gaps {
			arr := col.NewArray()
			defer arr.Release()
			cols = append(cols, arr)
		}
		strtArr := b.strt.NewArray()
		defer strtArr.Release()
		endArr := b.end.NewArray()
		defer endArr.Release()
		cols = append(cols, strtArr, endArr)
	}

	return array.NewRecord(schema, cols, b.n)
}
