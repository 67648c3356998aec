// Package partition implements the length-partitioned enrichment pipeline:
// sequences are bucketed by length into windows of width omega, and each
// bucket is built and processed as its own Record, but all buckets share one
// CMS so counts accumulate across the whole input the way a single
// unpartitioned pass would. Sharing a CMS while only ever keeping one
// bucket's dense tensors resident is the same live-working-set trade the
// teacher's streaming document processor makes (pipeline/1_DATA_MINER/
// internal/app/processor.go processes one batch of documents to completion
// before reading the next, rather than materializing the whole corpus).
package partition

import (
	"context"
	"sort"

	"motifsketch/pkg/checkpoint"
	"motifsketch/pkg/motif/motiferr"
	"motifsketch/pkg/motif/passes"
	"motifsketch/pkg/motif/record"
	"motifsketch/pkg/motif/sketch"
	"motifsketch/pkg/motif/types"
	"motifsketch/pkg/output"
)

// Progress receives coarse partition lifecycle events. The CLI satisfies
// this with an mpb bar; tests and library callers may pass nil.
type Progress interface {
	PartitionStarted(index, total int, length int, size int)
	PartitionDone(index, total int)
}

// Options configures Run.
type Options struct {
	K         int
	Case      types.Case
	FilterLen int

	// Width is the length-bucket width (omega); sequences with length in
	// [w*width, (w+1)*width) share a bucket.
	Width int

	MinCount   passes.MinCount
	Delta, Eps float64
	Seed       int64
	UseAccel   bool
	BatchSize  int // 0 = auto, delegated per-partition to the planner.

	Progress Progress

	// Checkpointer, if non-nil, lets Run skip partitions already completed
	// and records newly completed ones. Each Run allocates a fresh shared
	// CMS and the CMS is never persisted, so a skipped partition adds
	// neither its counts to the shared CMS nor its rows to dst.
	Checkpointer *checkpoint.Checkpointer
}

// Warning is a non-fatal diagnostic surfaced alongside a successful Run,
// grounded on the design's requirement that enrich_partitioned must warn
// (not fail) when min_count > 1 is combined with a shared CMS, since a
// shared sketch accumulates collisions across every partition rather than
// just one.
type Warning struct {
	Message string
}

// Run partitions m by sequence length into buckets of Options.Width, builds
// and processes one Record per non-empty bucket against a single shared CMS,
// and appends every emitted row to dst. Buckets are processed in ascending
// length order for determinism.
func Run(ctx context.Context, m types.InputMap, opt Options, dst *output.Builder) ([]Warning, error) {
	if len(m) == 0 {
		return nil, motiferr.Inputf(nil, "input map is empty")
	}
	if opt.Width <= 0 {
		return nil, motiferr.Configf(map[string]any{"width": opt.Width}, "partition width must be >= 1")
	}

	var warnings []Warning
	if opt.MinCount > 1 {
		warnings = append(warnings, Warning{
			Message: "min_count > 1 with a shared partition CMS accumulates cross-partition collisions; " +
				"counts may be noisier than a single unpartitioned pass with the same min_count",
		})
	}

	seqs := types.Normalize(m, opt.Case)
	if len(seqs) == 0 {
		return nil, motiferr.Inputf(nil, "input map has no non-empty sequences")
	}

	buckets := bucketByLength(seqs, opt.Width)
	keys := make([]int, 0, len(buckets))
	for wIdx := range buckets {
		keys = append(keys, wIdx)
	}
	sort.Ints(keys)

	d, w, h, err := sketch.Dimensions(opt.Delta, opt.Eps, opt.K, opt.Case)
	if err != nil {
		return nil, err
	}
	shared := sketch.NewWithDimensions(opt.K, opt.Case, d, w, h, opt.Seed)

	method, err := passes.SelectMethod(passes.SelectConfig{UseAccel: opt.UseAccel, AllowFallback: true})
	if err != nil {
		return nil, err
	}

	total := len(keys)
	for i, wIdx := range keys {
		bucket := buckets[wIdx]
		bucketMap := toInputMap(bucket)
		length := bucketLength(wIdx, opt.Width)

		if opt.Checkpointer != nil && opt.Checkpointer.IsDone(length) {
			continue
		}

		if opt.Progress != nil {
			opt.Progress.PartitionStarted(i, total, length, len(bucket))
		}

		before := dst.RowCount()

		// A bucket composed entirely of sequences shorter than k
		// contributes nothing (any sequence of length < k contributes
		// nothing, per the boundary behaviour) — skip Count/Select/Extract
		// rather than letting record.Build reject it, which would abort the
		// whole run and discard rows already extracted from prior buckets.
		if types.MaxLength(bucket) >= opt.K {
			rec, err := record.Build(bucketMap, record.BuildOptions{
				K:         opt.K,
				Case:      opt.Case,
				FilterLen: opt.FilterLen,
				BatchSize: opt.BatchSize,
				Seed:      opt.Seed,
				Delta:     opt.Delta,
				Eps:       opt.Eps,
				UseAccel:  opt.UseAccel,
				CMS:       shared,
			})
			if err != nil {
				return warnings, err
			}

			if err := passes.Count(ctx, rec, method); err != nil {
				return warnings, err
			}
			if err := passes.Select(ctx, rec, opt.MinCount, method); err != nil {
				return warnings, err
			}
			if err := passes.Extract(rec, opt.MinCount, dst); err != nil {
				return warnings, err
			}
		}

		if opt.Checkpointer != nil {
			if err := opt.Checkpointer.MarkDone(length, checkpoint.PartitionMetadata{
				Length:      length,
				SequenceQty: len(bucket),
				RowsEmitted: int(dst.RowCount() - before),
			}); err != nil {
				return warnings, err
			}
		}

		if opt.Progress != nil {
			opt.Progress.PartitionDone(i, total)
		}
	}

	return warnings, nil
}

func bucketByLength(seqs []types.Sequence, width int) map[int][]types.Sequence {
	buckets := make(map[int][]types.Sequence)
	for _, s := range seqs {
		wIdx := len(s.Features) / width
		buckets[wIdx] = append(buckets[wIdx], s)
	}
	return buckets
}

func bucketLength(wIdx, width int) int { return wIdx * width }

func toInputMap(seqs []types.Sequence) types.InputMap {
	m := make(types.InputMap, len(seqs))
	for _, s := range seqs {
		m[s.DataIndex] = s.Features
	}
	return m
}
