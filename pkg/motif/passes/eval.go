package passes

import (
	"motifsketch/pkg/motif/record"
	"motifsketch/pkg/motif/types"
)

// evaluation is the per-(batch, combination, sequence) result shared by all
// three passes: whether the combination is present in the sequence (every
// member slot non-zero, and for Convolution every adjacent gap valid), its
// member filter ids, and (Convolution only) the gaps between consecutive
// members.
type evaluation struct {
	valid     bool
	members   []uint32
	rows      []int    // len k, the ref-tensor row each member was read from
	gaps      []int32  // len k-1, Convolution only
	positions []uint32 // len k, Convolution only
}

// evaluate inspects combination j against sequence n of batch b, following
// the k-of-L combination table's positional indices into the ref tensor.
// Absent slots are zero ref entries (the design forbids zero feature ids),
// so any referenced position reading zero makes the whole combination
// invalid for that sequence.
func evaluate(rec *record.Record, b *record.Batch, j, n int) evaluation {
	k := rec.K
	members := make([]uint32, k)
	rows := make([]int, k)
	var positions []uint32
	if rec.Case == types.Convolution {
		positions = make([]uint32, k)
	}

	for e := 0; e < k; e++ {
		row := rec.Combs.At(e, j) - 1 // 1-based -> 0-based position index
		id := b.Ref(row, record.ColFilterIndex, n)
		if id == 0 {
			return evaluation{valid: false}
		}
		members[e] = id
		rows[e] = row
		if rec.Case == types.Convolution {
			positions[e] = b.Ref(row, record.ColPosition, n)
		}
	}

	if rec.Case != types.Convolution {
		return evaluation{valid: true, members: members, rows: rows}
	}

	gaps := make([]int32, k-1)
	for e := 0; e < k-1; e++ {
		gap := int32(positions[e+1]) - int32(positions[e]) - int32(rec.FilterLen)
		if gap < 0 {
			return evaluation{valid: false}
		}
		gaps[e] = gap
	}
	return evaluation{valid: true, members: members, rows: rows, gaps: gaps, positions: positions}
}

// hashRow computes the raw (unfolded) hash for row r of the CMS given an
// already-validated evaluation, using wrapping int32 arithmetic throughout
// (Go's int32 +/* wrap on overflow, matching the legacy two's-complement
// behaviour the fold in sketch.CMS.Fold depends on).
func hashRow(rec *record.Record, ev evaluation, r int) int32 {
	var h int32
	for e, id := range ev.members {
		coeffIdx := e
		if rec.Case == types.Convolution {
			coeffIdx = 2 * e
		}
		h += int32(id) * rec.CMS.Coeff(r, coeffIdx)
	}
	if rec.Case == types.Convolution {
		for e, gap := range ev.gaps {
			h += gap * rec.CMS.Coeff(r, 2*e+1)
		}
	}
	return h
}

// foldedCols computes the folded column index in every CMS row for ev.
func foldedCols(rec *record.Record, ev evaluation) []int {
	cols := make([]int, rec.CMS.D())
	for r := range cols {
		cols[r] = rec.CMS.Fold(hashRow(rec, ev, r))
	}
	return cols
}
