package passes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"motifsketch/pkg/motif/motiferr"
	"motifsketch/pkg/motif/record"
)

// MinCount is the inclusive lower bound SelectPass applies to a combination's
// estimated count before marking it selected. The external interface's
// min_count parameter feeds this; the Partitioner's shared-CMS path warns
// when callers pass a value above 1 (see the partition package), since a
// shared sketch's per-partition estimates are noisier than a single-pass
// sketch's.
type MinCount = uint32

// Select runs SelectPass over every batch of rec: a combination is selected
// for a sequence when it is valid there and the CMS's minimum-across-rows
// estimate (sketch.CMS.MinAcross) meets minCount. Selection is recorded in
// the batch's bitmap via Batch.SetSelected, which is idempotent, so
// concurrent writers racing on the same bit are harmless.
func Select(ctx context.Context, rec *record.Record, minCount MinCount, method Method) error {
	if minCount < 1 {
		return motiferr.Configf(map[string]any{"min_count": minCount}, "min_count must be >= 1")
	}
	workers := method.Workers()
	for _, b := range rec.Batches {
		if err := selectBatch(ctx, rec, b, minCount, workers); err != nil {
			return err
		}
	}
	return nil
}

func selectBatch(ctx context.Context, rec *record.Record, b *record.Batch, minCount MinCount, workers int) error {
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
				if rec.CMS.MinAcross(cols) >= minCount {
					b.SetSelected(j, n)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
