// Package planner implements the closed-form memory estimator and batch
// size selector described in the design: it keeps fixed-memory plus
// per-batch memory under a target budget, querying device-available memory
// the way the teacher's hardware detector probes hashing method
// availability (internal/accel wraps that probe for this engine).
package planner

import (
	"motifsketch/internal/accel"
	"motifsketch/pkg/motif/motiferr"
	"motifsketch/pkg/motif/sketch"
	"motifsketch/pkg/motif/types"
)

const (
	defaultSafetyFactor = 0.8
	defaultMinBatch     = 10
	defaultMaxBatch     = 10000
)

// Request describes a batch-size planning query; it mirrors plan_batch's
// inputs from the external interface.
type Request struct {
	TotalPoints int
	L, K        int
	Case        types.Case
	Delta, Eps  float64

	// TargetBytes is the caller's memory budget. Zero means "no explicit
	// target" — only the device-available-memory query (scaled by Safety)
	// bounds the batch.
	TargetBytes int64
	// Safety is the safety factor s in (0,1]; 0 means "use default".
	Safety float64
	// MinBatch/MaxBatch bound the selected size; 0 means "use default".
	MinBatch, MaxBatch int
	// UseAccel gates whether device-available memory is queried from the
	// GPU probe (true, when a GPU is detected) or taken as the fixed
	// accel.ConservativeHostMemory default (false, or no GPU).
	UseAccel bool
}

// PlanResult is the result of a planning query, giving both the chosen
// batch size and the memory breakdown for the caller's diagnostics.
type PlanResult struct {
	BatchSize       int
	NumBatches      int
	FixedMemBytes   int64
	PerPointBytes   int64
	PeakMemBytes    int64
	DeviceAvailable int64
	TargetUsed      int64
}

// FixedMemoryBytes computes k*C(L,k)*4 + d*w*4 + d*H*4, the portion of
// memory that does not scale with batch size.
func FixedMemoryBytes(k, m, d, w, h int) int64 {
	return int64(k)*int64(m)*4 + int64(d)*int64(w)*4 + int64(d)*int64(h)*4
}

// PerPointBytes computes the per-data-point memory contribution: refArray +
// contribArray + selection bitmap.
func PerPointBytes(l, m int, c types.Case) int64 {
	if c == types.Convolution {
		return 3*int64(l)*4 + int64(l)*4 + int64(m)
	}
	return 2*int64(l)*4 + int64(l)*4 + int64(m)
}

// binomial mirrors comb.Build's combinatorics without importing comb, since
// the planner only needs the count m = C(L, k), not the table itself.
func binomial(n, r int) int {
	if r < 0 || r > n {
		return 0
	}
	if r > n-r {
		r = n - r
	}
	result := 1
	for i := 0; i < r; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}

// Plan selects a batch size for req, failing with a Memory error if the
// fixed-memory term alone exceeds the available budget.
func Plan(req Request) (PlanResult, error) {
	if req.K <= 0 {
		return PlanResult{}, motiferr.Configf(map[string]any{"k": req.K}, "k must be >= 1")
	}
	if req.L < req.K {
		return PlanResult{}, motiferr.Configf(map[string]any{"l": req.L, "k": req.K}, "k must be <= L")
	}

	d, w, h, err := sketch.Dimensions(req.Delta, req.Eps, req.K, req.Case)
	if err != nil {
		return PlanResult{}, err
	}

	m := binomial(req.L, req.K)
	fixed := FixedMemoryBytes(req.K, m, d, w, h)
	perPoint := PerPointBytes(req.L, m, req.Case)

	safety := req.Safety
	if safety <= 0 {
		safety = defaultSafetyFactor
	}
	minBatch := req.MinBatch
	if minBatch <= 0 {
		minBatch = defaultMinBatch
	}
	maxBatch := req.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}

	var deviceAvail int64
	if req.UseAccel && accel.Default().GPUAvailable() {
		deviceAvail = int64(accel.Default().GPUFreeBytes())
	} else {
		deviceAvail = int64(accel.ConservativeHostMemory)
	}

	target := int64(float64(deviceAvail) * safety)
	if req.TargetBytes > 0 && req.TargetBytes < target {
		target = req.TargetBytes
	}

	room := target - fixed
	if room <= 0 {
		return PlanResult{}, motiferr.Memoryf(map[string]any{
			"fixed_mem_bytes": fixed,
			"target_bytes":    target,
		}, "fixed memory (%d bytes) exceeds target budget (%d bytes)", fixed, target)
	}

	batch := int(room / perPoint)
	if batch < minBatch {
		batch = minBatch
	}
	if batch > maxBatch {
		batch = maxBatch
	}
	if req.TotalPoints > 0 && batch > req.TotalPoints {
		batch = req.TotalPoints
	}
	if batch < 1 {
		batch = 1
	}

	numBatches := 0
	if req.TotalPoints > 0 {
		numBatches = (req.TotalPoints + batch - 1) / batch
	}

	peak := fixed + int64(batch)*perPoint

	return PlanResult{
		BatchSize:       batch,
		NumBatches:      numBatches,
		FixedMemBytes:   fixed,
		PerPointBytes:   perPoint,
		PeakMemBytes:    peak,
		DeviceAvailable: deviceAvail,
		TargetUsed:      target,
	}, nil
}
