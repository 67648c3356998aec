// Package motif is the public entry point for the enriched motif discovery
// engine: Enrich, EnrichPartitioned and PlanBatch, matching the external
// interface's three operations. It wires together types, record, passes,
// partition, planner and output without exposing their internals.
package motif

import (
	"context"

	"motifsketch/pkg/checkpoint"
	"motifsketch/pkg/motif/partition"
	"motifsketch/pkg/motif/passes"
	"motifsketch/pkg/motif/planner"
	"motifsketch/pkg/motif/record"
	"motifsketch/pkg/motif/types"
	"motifsketch/pkg/output"
)

// Case re-exports types.Case so callers need not import the types package
// for the common path.
type Case = types.Case

const (
	Ordinary    = types.Ordinary
	Convolution = types.Convolution
)

// Request configures a single Enrich call.
type Request struct {
	Input types.InputMap
	K     int
	Case  Case

	FilterLen int // Convolution only.
	MinCount  passes.MinCount

	Delta, Eps float64
	Seed       int64

	// BatchSize overrides the MemoryPlanner's chosen batch size; 0 means
	// "auto".
	BatchSize int

	UseAccel      bool
	AllowFallback bool // see passes.SelectConfig.AllowFallback
}

// Enrich runs CountPass, SelectPass and ExtractPass over the whole input in
// one unpartitioned pass, returning an output.Builder holding the motif
// occurrence rows (its NewRecord method yields the Arrow record).
func Enrich(ctx context.Context, req Request) (*output.Builder, error) {
	method, err := passes.SelectMethod(passes.SelectConfig{
		UseAccel:      req.UseAccel,
		AllowFallback: req.AllowFallback,
	})
	if err != nil {
		return nil, err
	}

	rec, err := record.Build(req.Input, record.BuildOptions{
		K:         req.K,
		Case:      req.Case,
		FilterLen: req.FilterLen,
		BatchSize: req.BatchSize,
		Seed:      req.Seed,
		Delta:     req.Delta,
		Eps:       req.Eps,
		UseAccel:  req.UseAccel,
	})
	if err != nil {
		return nil, err
	}

	if err := passes.Count(ctx, rec, method); err != nil {
		return nil, err
	}
	if err := passes.Select(ctx, rec, req.MinCount, method); err != nil {
		return nil, err
	}

	dst := output.NewBuilder(req.Case, req.K, nil)
	if err := passes.Extract(rec, req.MinCount, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// PartitionedRequest configures an EnrichPartitioned call.
type PartitionedRequest struct {
	Request
	Width        int
	Progress     partition.Progress
	CheckpointDB string // empty disables checkpointing.
}

// PartitionedResult carries the output builder plus any non-fatal warnings
// (for example, min_count > 1 used with a shared partition CMS).
type PartitionedResult struct {
	Builder  *output.Builder
	Warnings []partition.Warning
}

// EnrichPartitioned runs the length-partitioned pipeline: sequences are
// bucketed by length and processed partition-by-partition against one
// shared CMS, bounding peak memory to one partition's working set rather
// than the whole input's.
func EnrichPartitioned(ctx context.Context, req PartitionedRequest) (*PartitionedResult, error) {
	var cp *checkpoint.Checkpointer
	if req.CheckpointDB != "" {
		var err error
		cp, err = checkpoint.Open(req.CheckpointDB)
		if err != nil {
			return nil, err
		}
		defer cp.Close()
	}

	dst := output.NewBuilder(req.Case, req.K, nil)
	warnings, err := partition.Run(ctx, req.Input, partition.Options{
		K:            req.K,
		Case:         req.Case,
		FilterLen:    req.FilterLen,
		Width:        req.Width,
		MinCount:     req.MinCount,
		Delta:        req.Delta,
		Eps:          req.Eps,
		Seed:         req.Seed,
		UseAccel:     req.UseAccel,
		BatchSize:    req.BatchSize,
		Progress:     req.Progress,
		Checkpointer: cp,
	}, dst)
	if err != nil {
		return nil, err
	}

	return &PartitionedResult{Builder: dst, Warnings: warnings}, nil
}

// PlanRequest configures a PlanBatch call.
type PlanRequest struct {
	TotalPoints int
	L, K        int
	Case        Case
	Delta, Eps  float64
	TargetBytes int64
	Safety      float64
	MinBatch    int
	MaxBatch    int
	UseAccel    bool
}

// PlanBatch exposes the MemoryPlanner directly, for callers that want to
// inspect or override the batch size Enrich would otherwise choose
// automatically.
func PlanBatch(req PlanRequest) (planner.PlanResult, error) {
	return planner.Plan(planner.Request{
		TotalPoints: req.TotalPoints,
		L:           req.L,
		K:           req.K,
		Case:        req.Case,
		Delta:       req.Delta,
		Eps:         req.Eps,
		TargetBytes: req.TargetBytes,
		Safety:      req.Safety,
		MinBatch:    req.MinBatch,
		MaxBatch:    req.MaxBatch,
		UseAccel:    req.UseAccel,
	})
}
