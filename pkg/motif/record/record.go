// Package record builds the dense rectangular batch tensors CountPass,
// SelectPass and ExtractPass operate over, and owns the Record's lifecycle:
// constructed once from an input map, mutated only by the three passes, and
// then released.
package record

import (
	"motifsketch/pkg/motif/comb"
	"motifsketch/pkg/motif/motiferr"
	"motifsketch/pkg/motif/planner"
	"motifsketch/pkg/motif/sketch"
	"motifsketch/pkg/motif/types"
)

// Ref-array column indices.
const (
	ColFilterIndex = 0
	ColDataPoint   = 1
	ColPosition    = 2 // Convolution only.
)

// Batch holds one L x R x B_i ref-array tensor, its matching L x B_i
// contribution tensor, and the batch's m x B_i selection bitmap.
type Batch struct {
	Size int // B_i, the number of sequences packed into this batch.

	ref      []uint32 // row-major [L][R][B]
	contrib  []float32 // row-major [L][B]
	selected []bool    // row-major [M][B]

	l, r, m int
}

func newBatch(l, r, m, size int) *Batch {
	return &Batch{
		Size:     size,
		ref:      make([]uint32, l*r*size),
		contrib:  make([]float32, l*size),
		selected: make([]bool, m*size),
		l:        l,
		r:        r,
		m:        m,
	}
}

// Ref returns ref[row][col][n], all 0-based; row in [0,L), col in [0,R).
func (b *Batch) Ref(row, col, n int) uint32 {
	return b.ref[row*b.r*b.Size+col*b.Size+n]
}

func (b *Batch) setRef(row, col, n int, v uint32) {
	b.ref[row*b.r*b.Size+col*b.Size+n] = v
}

// Contrib returns contrib[row][n].
func (b *Batch) Contrib(row, n int) float32 {
	return b.contrib[row*b.Size+n]
}

func (b *Batch) setContrib(row, n int, v float32) {
	b.contrib[row*b.Size+n] = v
}

// Selected reports whether combination j is selected for sequence n.
func (b *Batch) Selected(j, n int) bool {
	return b.selected[j*b.Size+n]
}

// SetSelected marks combination j selected for sequence n. Assignment is
// idempotent: writing true twice has the same effect as once.
func (b *Batch) SetSelected(j, n int) {
	b.selected[j*b.Size+n] = true
}

// Record is an immutable-after-construction container for one batched view
// of an (input map, k, case) triple, holding a shared handle to a CMS.
type Record struct {
	Case         types.Case
	K            int
	FilterLen    int // Convolution only; 0 means "absent".
	MaxActiveLen int // L
	RCols        int // 2 (Ordinary) or 3 (Convolution)

	Combs   *comb.Table
	Batches []*Batch

	CMS *sketch.CMS
}

// BuildOptions configures RecordBuilder.Build.
type BuildOptions struct {
	K         int
	Case      types.Case
	FilterLen int // required (>=1) for Convolution.

	// BatchSize is a positive integer, or 0 to mean "auto" (delegate to the
	// MemoryPlanner).
	BatchSize int
	Seed      int64

	Delta, Eps float64
	UseAccel   bool

	// CMS, if non-nil, is attached instead of allocating a new one (the
	// partitioned path's shared-CMS case).
	CMS *sketch.CMS
}

// Build normalises m per the builder's contract (§4.C) and allocates the
// batched tensors, combination table, selection bitmaps, and (unless
// shared) a fresh CMS.
func Build(m types.InputMap, opt BuildOptions) (*Record, error) {
	if len(m) == 0 {
		return nil, motiferr.Inputf(nil, "input map is empty")
	}
	if opt.K <= 0 {
		return nil, motiferr.Configf(map[string]any{"k": opt.K}, "k must be >= 1")
	}
	if opt.Case == types.Convolution && opt.FilterLen <= 0 {
		return nil, motiferr.Configf(nil, "convolution case requires filter_len >= 1")
	}

	seqs := types.Normalize(m, opt.Case)
	if len(seqs) == 0 {
		return nil, motiferr.Inputf(nil, "input map has no non-empty sequences")
	}
	if err := validateFeatureIDs(seqs); err != nil {
		return nil, err
	}

	l := types.MaxLength(seqs)
	if opt.K > l {
		return nil, motiferr.Configf(map[string]any{"k": opt.K, "l": l}, "k must be <= max sequence length L")
	}

	batchSize := opt.BatchSize
	if batchSize <= 0 {
		combTable := comb.Build(opt.K, l)
		plan, err := planner.Plan(planner.Request{
			TotalPoints: len(seqs),
			L:           l,
			K:           opt.K,
			Case:        opt.Case,
			Delta:       opt.Delta,
			Eps:         opt.Eps,
			UseAccel:    opt.UseAccel,
		})
		if err != nil {
			return nil, err
		}
		batchSize = plan.BatchSize
		return assemble(seqs, l, combTable, opt, batchSize)
	}

	combTable := comb.Build(opt.K, l)
	return assemble(seqs, l, combTable, opt, batchSize)
}

// validateFeatureIDs enforces that every feature id is positive: zero is
// reserved as the ref tensor's "absent slot" sentinel, so a zero id supplied
// by a caller would silently be treated as padding instead of a real
// feature.
func validateFeatureIDs(seqs []types.Sequence) error {
	for _, s := range seqs {
		for _, f := range s.Features {
			if f.ID == 0 {
				return motiferr.Inputf(map[string]any{"data_index": s.DataIndex}, "feature id must be positive; got 0")
			}
		}
	}
	return nil
}

func assemble(seqs []types.Sequence, l int, combTable *comb.Table, opt BuildOptions, batchSize int) (*Record, error) {
	rCols := 2
	if opt.Case == types.Convolution {
		rCols = 3
	}

	rec := &Record{
		Case:         opt.Case,
		K:            opt.K,
		FilterLen:    opt.FilterLen,
		MaxActiveLen: l,
		RCols:        rCols,
		Combs:        combTable,
	}

	if opt.CMS != nil {
		rec.CMS = opt.CMS
	} else {
		cms, err := sketch.New(opt.K, opt.Case, opt.Delta, opt.Eps, opt.Seed)
		if err != nil {
			return nil, err
		}
		rec.CMS = cms
	}

	for start := 0; start < len(seqs); start += batchSize {
		end := start + batchSize
		if end > len(seqs) {
			end = len(seqs)
		}
		chunk := seqs[start:end]
		batch := newBatch(l, rCols, combTable.M, len(chunk))

		for n, seq := range chunk {
			for row, f := range seq.Features {
				batch.setRef(row, ColFilterIndex, n, f.ID)
				batch.setRef(row, ColDataPoint, n, seq.DataIndex)
				if rCols == 3 {
					batch.setRef(row, ColPosition, n, f.Position)
				}
				batch.setContrib(row, n, f.Contribution)
			}
			// Remaining rows stay zero-padded (absent slot).
		}

		rec.Batches = append(rec.Batches, batch)
	}

	return rec, nil
}
