package passes

import (
	"motifsketch/pkg/motif/motiferr"
	"motifsketch/pkg/motif/record"
	"motifsketch/pkg/motif/types"
	"motifsketch/pkg/output"
)

// Extract runs ExtractPass: for every selected (combination, sequence) in
// every batch, it re-validates (cheap compared to re-running CountPass) and
// emits one Row to dst. Re-evaluating here rather than caching the first
// pass's result means no per-combination state other than the selection
// bitmap is carried between passes; that bitmap lives in each Batch, so the
// Record's batches must stay alive from SelectPass through ExtractPass.
//
// Extraction does not use a Method: it is inherently row-at-a-time output
// work, not a fan-out candidate, since rows must be appended to dst in a
// single stream.
func Extract(rec *record.Record, minCount MinCount, dst *output.Builder) error {
	if minCount < 1 {
		return motiferr.Configf(map[string]any{"min_count": minCount}, "min_count must be >= 1")
	}
	for _, b := range rec.Batches {
		if err := extractBatch(rec, b, minCount, dst); err != nil {
			return err
		}
	}
	return nil
}

func extractBatch(rec *record.Record, b *record.Batch, minCount MinCount, dst *output.Builder) error {
	m := rec.Combs.M
	for n := 0; n < b.Size; n++ {
		dataIndex := b.Ref(0, record.ColDataPoint, n)
		for j := 0; j < m; j++ {
			if !b.Selected(j, n) {
				continue
			}
			ev := evaluate(rec, b, j, n)
			if !ev.valid {
				continue
			}
			cols := foldedCols(rec, ev)
			count := rec.CMS.MinAcross(cols)
			if count < minCount {
				continue
			}

			row := output.Row{
				Members:      ev.members,
				DataIndex:    dataIndex,
				Contribution: combinationContribution(b, ev, n),
				Count:        count,
			}
			if rec.Case == types.Convolution {
				row.Gaps = ev.gaps
				row.Start = ev.positions[0]
				row.End = ev.positions[len(ev.positions)-1] + uint32(rec.FilterLen) - 1
			}
			dst.Append(row)
		}
	}
	return nil
}

// combinationContribution sums contribArray[b][C[e,j], n] over e=1..k, the
// same k positions evaluate already resolved into ev.rows for this
// combination — not every active row of the sequence, which would make
// Contribution constant across every combination drawn from one sequence.
func combinationContribution(b *record.Batch, ev evaluation, n int) float32 {
	var total float32
	for _, row := range ev.rows {
		total += b.Contrib(row, n)
	}
	return total
}
