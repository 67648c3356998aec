package passes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"motifsketch/pkg/motif/record"
)

// Count runs CountPass over every batch of rec: for each sequence, every
// valid k-combination increments its folded column in every CMS row. Work is
// fanned out across sequences within a batch using golang.org/x/sync/errgroup
// (the same concurrency primitive the rest of the corpus reaches for — see
// the vector-search example's worker pools), sized by method.Workers().
//
// The result is independent of how work is interleaved across goroutines:
// increments only ever add, so no ordering between sequences or combinations
// changes the final counter table.
func Count(ctx context.Context, rec *record.Record, method Method) error {
	workers := method.Workers()
	for _, b := range rec.Batches {
		if err := countBatch(ctx, rec, b, workers); err != nil {
			return err
		}
	}
	return nil
}

func countBatch(ctx context.Context, rec *record.Record, b *record.Batch, workers int) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	m := rec.Combs.M
	for n := 0; n < b.Size; n++ {
		n := n
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := 0; j < m; j++ {
				ev := evaluate(rec, b, j, n)
				if !ev.valid {
					continue
				}
				cols := foldedCols(rec, ev)
				for r, col := range cols {
					rec.CMS.Increment(r, col)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
