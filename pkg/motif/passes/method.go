// Package passes implements the three parallel kernels run over a Record:
// CountPass, SelectPass and ExtractPass. Method selection (software vs. a
// GPU-resident path) is grounded on the teacher's pluggable hash-method
// factory (pkg/hashing/factory/factory.go): a small interface with
// availability probing and a preferred-order-with-fallback policy, rather
// than a single hardcoded implementation.
package passes

import (
	"motifsketch/internal/accel"
	"motifsketch/pkg/motif/motiferr"
)

// Method names an execution strategy for the three passes. There is no
// actual CUDA kernel in this package — GPU is present only as a dispatch
// shape, because the numeric result of every pass must be identical
// regardless of which device ran it (§5's determinism requirement), and a
// real kernel that diverges from the Go implementation would violate that.
type Method interface {
	Name() string
	IsAvailable() bool
	// Workers returns the degree of fan-out this method asks the pass
	// runner to use across the sequences of one batch; batches themselves
	// are processed one after another.
	Workers() int
}

// Software is the default, always-available method: a bounded worker pool
// of 4 goroutines unless a worker count is configured.
type Software struct{ workers int }

func (s Software) Name() string      { return "software" }
func (s Software) IsAvailable() bool { return true }
func (s Software) Workers() int {
	if s.workers > 0 {
		return s.workers
	}
	return 4
}

// GPU is the CUDA-simulator-shaped method: available only when an NVIDIA
// GPU is detected (internal/accel), wider fan-out than Software to model a
// GPU's much larger thread count, mirroring the teacher's
// CudaMethod.GetCapabilities MaxBatchSize being far larger than the ASIC/
// software methods' batch sizes.
type GPU struct{}

func (GPU) Name() string      { return "cuda" }
func (GPU) IsAvailable() bool { return accel.Default().GPUAvailable() }
func (GPU) Workers() int      { return 256 }

// SelectConfig mirrors the teacher's HashMethodConfig.EnableFallback: when
// UseAccel is set but no GPU is available, AllowFallback decides whether
// the engine silently runs on Software or fails with an AcceleratorError.
type SelectConfig struct {
	UseAccel      bool
	AllowFallback bool
	Workers       int // software worker count override; 0 means default.
}

// SelectMethod chooses a Method per SelectConfig, grounded on
// HashMethodFactory.selectBestMethod's preferred-order-then-fallback logic.
func SelectMethod(cfg SelectConfig) (Method, error) {
	if !cfg.UseAccel {
		return Software{workers: cfg.Workers}, nil
	}
	gpu := GPU{}
	if gpu.IsAvailable() {
		return gpu, nil
	}
	if cfg.AllowFallback {
		return Software{workers: cfg.Workers}, nil
	}
	return nil, motiferr.Acceleratorf(map[string]any{"reason": accel.Default().Reason()},
		"GPU acceleration requested but unavailable")
}
