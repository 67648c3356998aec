// Package sketch implements the Count-Min Sketch (CMS) used to estimate
// motif occurrence counts without materializing an exact frequency table.
//
// Like a standard CMS, this one never underestimates a true count: every
// increment only ever raises a counter, and a lookup takes the minimum
// across d independent hash rows. Unlike a general-purpose CMS, the column
// fold here deliberately reproduces a two-step modulus (see Fold) rather
// than the more common single modulus, because downstream consumers depend
// on bit-for-bit reproducibility of the legacy row sets this folding
// produces. Do not "simplify" Fold to a single `% w`.
package sketch

import (
	"math"
	"math/rand"
	"sync/atomic"

	"motifsketch/pkg/motif/motiferr"
	"motifsketch/pkg/motif/types"
)

// Dimensions computes the CMS shape (d hash rows, w columns per row, and H
// hash coefficients per row) for the given error parameters and motif size.
// H is k for Ordinary and 2k-1 for Convolution (k filter-id terms plus k-1
// gap terms).
func Dimensions(delta, eps float64, k int, c types.Case) (d, w, h int, err error) {
	if delta <= 0 || delta >= 1 {
		return 0, 0, 0, motiferr.Configf(map[string]any{"delta": delta}, "delta must be in (0,1)")
	}
	if eps <= 0 || eps >= 1 {
		return 0, 0, 0, motiferr.Configf(map[string]any{"epsilon": eps}, "epsilon must be in (0,1)")
	}
	if k <= 0 {
		return 0, 0, 0, motiferr.Configf(map[string]any{"k": k}, "k must be >= 1")
	}

	d = int(math.Ceil(math.Log(1 / delta)))
	if d < 1 {
		d = 1
	}
	w = int(math.Ceil(math.E / eps))
	if w < 1 {
		w = 1
	}
	if c == types.Convolution {
		h = 2*k - 1
	} else {
		h = k
	}
	return d, w, h, nil
}

// CMS is a d x w counter table with d independent hash-coefficient rows.
// Coefficients are fixed at construction and read-only thereafter; counters
// are mutated only through atomic increments, so a CMS may be shared freely
// across concurrently running CountPass goroutines.
type CMS struct {
	d, w, h int
	k       int
	Case    types.Case

	counters []uint32 // row-major, d*w
	coeffs   []int32  // row-major, d*h
}

// New allocates a zeroed d x w counter table and fills the d x H
// coefficient matrix from a PRNG seeded by seed, drawing each coefficient
// uniformly from [1, d*w-1] as specified.
func New(k int, c types.Case, delta, eps float64, seed int64) (*CMS, error) {
	d, w, h, err := Dimensions(delta, eps, k, c)
	if err != nil {
		return nil, err
	}
	return NewWithDimensions(k, c, d, w, h, seed), nil
}

// NewWithDimensions builds a CMS with explicit (d, w, h), used by the
// Partitioner to hand every partition's Record the same shared shape and by
// tests that need deterministic, small sketches.
func NewWithDimensions(k int, c types.Case, d, w, h int, seed int64) *CMS {
	rng := rand.New(rand.NewSource(seed))
	coeffs := make([]int32, d*h)
	maxCoeff := int64(d) * int64(w)
	if maxCoeff < 2 {
		maxCoeff = 2
	}
	for i := range coeffs {
		coeffs[i] = int32(1 + rng.Int63n(maxCoeff-1))
	}
	return &CMS{
		d:        d,
		w:        w,
		h:        h,
		k:        k,
		Case:     c,
		counters: make([]uint32, d*w),
		coeffs:   coeffs,
	}
}

// D returns the number of hash rows.
func (s *CMS) D() int { return s.d }

// W returns the number of columns per row.
func (s *CMS) W() int { return s.w }

// H returns the number of hash coefficients per row.
func (s *CMS) H() int { return s.h }

// Coeff returns the hash coefficient for row r, term e (both 0-based).
func (s *CMS) Coeff(r, e int) int32 { return s.coeffs[r*s.h+e] }

// Fold maps a raw hash value to a 0-based column index via the two-step
// legacy folding ((h mod d*w) mod w). N = d*w is not in general a multiple
// of w, so the second modulus re-folds the result into range; replacing
// this with a single `mod w` changes the hash distribution and the emitted
// row sets.
func (s *CMS) Fold(h int32) int {
	n := int32(s.d * s.w)
	r := h % n
	if r < 0 {
		r += n
	}
	col := r % int32(s.w)
	if col < 0 {
		col += int32(s.w)
	}
	return int(col)
}

// Increment atomically adds 1 to counters[r][col].
func (s *CMS) Increment(r, col int) {
	atomic.AddUint32(&s.counters[r*s.w+col], 1)
}

// Peek reads counters[r][col].
func (s *CMS) Peek(r, col int) uint32 {
	return atomic.LoadUint32(&s.counters[r*s.w+col])
}

// MinAcross returns the Count-Min estimate for a set of (row, col) folded
// positions: the minimum counter value across all d rows. SelectPass must
// use this — not row 0 alone — per the corrected behaviour in the design
// notes.
func (s *CMS) MinAcross(cols []int) uint32 {
	min := uint32(1<<32 - 1)
	for r, col := range cols {
		v := s.Peek(r, col)
		if v < min {
			min = v
		}
	}
	return min
}

// Snapshot reports coarse diagnostics for CLI/TUI display. It is never read
// by CountPass/SelectPass/ExtractPass.
type Snapshot struct {
	Rows, Cols  int
	NonZero     int
	MaxCounter  uint32
	TotalCounts uint64
}

// Snapshot computes occupancy diagnostics by scanning the counter table.
func (s *CMS) Snapshot() Snapshot {
	snap := Snapshot{Rows: s.d, Cols: s.w}
	for _, v := range s.counters {
		if v == 0 {
			continue
		}
		snap.NonZero++
		snap.TotalCounts += uint64(v)
		if v > snap.MaxCounter {
			snap.MaxCounter = v
		}
	}
	return snap
}
