package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"motifsketch/internal/dashboard"
	"motifsketch/pkg/motif"
	"motifsketch/pkg/motif/types"
	"motifsketch/pkg/output"
)

// CLI flags, grounded on the teacher's top-level flag.Bool/flag.String
// declarations in cmd/cli/main.go.
var (
	inputPath   = flag.String("input", "", "path to the input file")
	inputFormat = flag.String("format", "json", "input format: json or parquet")
	k           = flag.Int("k", 3, "motif size")
	caseFlag    = flag.String("case", "ordinary", "motif case: ordinary or convolution")
	filterLen   = flag.Int("filter-len", 0, "filter length (convolution case only)")
	minCount    = flag.Uint("min-count", 1, "minimum Count-Min estimate to select a motif")
	delta       = flag.Float64("delta", 0.01, "CMS failure probability delta")
	eps         = flag.Float64("eps", 0.01, "CMS error tolerance epsilon")
	seed        = flag.Int64("seed", 1, "CMS coefficient seed")
	useAccel    = flag.Bool("use-accel", true, "prefer GPU-style dispatch when available")
	partitioned = flag.Bool("partitioned", false, "run the length-partitioned pipeline")
	width       = flag.Int("width", 8, "length-partition width (partitioned mode only)")
	checkpoint  = flag.String("checkpoint", "", "bbolt checkpoint path (partitioned mode only; empty disables)")
	planOnly    = flag.Bool("plan-only", false, "print the batch plan and exit without running any pass")
	watch       = flag.Bool("watch", false, "show a live TUI dashboard instead of a plain progress bar (partitioned mode only)")
)

func main() {
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -input flag")
		os.Exit(1)
	}

	var m types.InputMap
	var err error
	switch *inputFormat {
	case "parquet":
		m, err = loadParquetInput(*inputPath)
	default:
		m, err = loadInput(*inputPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load input: %v\n", err)
		os.Exit(1)
	}

	motifCase := types.Ordinary
	if *caseFlag == "convolution" {
		motifCase = types.Convolution
	}

	if *planOnly {
		runPlanOnly(m, motifCase)
		return
	}

	ctx := context.Background()
	var builder *output.Builder
	var warnings []string

	if *partitioned {
		var progress interface {
			PartitionStarted(index, total, length, size int)
			PartitionDone(index, total int)
		}
		var bar *partitionBar
		var program *tea.Program
		if *watch {
			program = tea.NewProgram(dashboard.New())
			go func() {
				if _, err := program.Run(); err != nil {
					fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
				}
			}()
			progress = &dashboardProgress{program: program}
		} else {
			bar = newPartitionBar()
			progress = bar
		}

		res, err := motif.EnrichPartitioned(ctx, motif.PartitionedRequest{
			Request: motif.Request{
				Input: m, K: *k, Case: motifCase, FilterLen: *filterLen,
				MinCount: uint32(*minCount), Delta: *delta, Eps: *eps, Seed: *seed,
				UseAccel: *useAccel, AllowFallback: true,
			},
			Width:        *width,
			Progress:     progress,
			CheckpointDB: *checkpoint,
		})
		if bar != nil {
			bar.wait()
		}
		if program != nil {
			program.Quit()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "enrich_partitioned failed: %v\n", err)
			os.Exit(1)
		}
		builder = res.Builder
		for _, w := range res.Warnings {
			warnings = append(warnings, w.Message)
		}
	} else {
		builder, err = motif.Enrich(ctx, motif.Request{
			Input: m, K: *k, Case: motifCase, FilterLen: *filterLen,
			MinCount: uint32(*minCount), Delta: *delta, Eps: *eps, Seed: *seed,
			UseAccel: *useAccel, AllowFallback: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "enrich failed: %v\n", err)
			os.Exit(1)
		}
	}

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	rec := builder.NewRecord()
	defer rec.Release()
	fmt.Printf("emitted %d motif rows\n", rec.NumRows())
}

func runPlanOnly(m types.InputMap, c types.Case) {
	maxLen := 0
	for _, feats := range m {
		if len(feats) > maxLen {
			maxLen = len(feats)
		}
	}
	plan, err := motif.PlanBatch(motif.PlanRequest{
		TotalPoints: len(m), L: maxLen, K: *k, Case: c,
		Delta: *delta, Eps: *eps, UseAccel: *useAccel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan_batch failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("batch_size=%d num_batches=%d fixed_bytes=%d per_point_bytes=%d peak_bytes=%d\n",
		plan.BatchSize, plan.NumBatches, plan.FixedMemBytes, plan.PerPointBytes, plan.PeakMemBytes)
}

func loadInput(path string) (types.InputMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string][]types.Feature
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := make(types.InputMap, len(raw))
	for key, feats := range raw {
		var id uint32
		if _, err := fmt.Sscanf(key, "%d", &id); err != nil {
			return nil, fmt.Errorf("invalid sequence id %q: %w", key, err)
		}
		m[id] = feats
	}
	return m, nil
}

// partitionBar adapts mpb to the partition.Progress interface, grounded on
// the teacher's mpb.New/AddBar usage in
// pipeline/1_DATA_MINER/internal/app/processor.go.
type partitionBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newPartitionBar() *partitionBar {
	p := mpb.New(mpb.WithWidth(80))
	return &partitionBar{p: p}
}

func (b *partitionBar) PartitionStarted(index, total, length, size int) {
	if b.bar == nil {
		b.bar = b.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("partitions: "),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done!"),
			),
		)
	}
}

func (b *partitionBar) PartitionDone(index, total int) {
	if b.bar != nil {
		b.bar.Increment()
	}
}

func (b *partitionBar) wait() {
	if b.p != nil {
		b.p.Wait()
	}
}

// dashboardProgress adapts the bubbletea dashboard program to
// partition.Progress by forwarding lifecycle events as tea.Msg values.
type dashboardProgress struct {
	program *tea.Program
}

func (d *dashboardProgress) PartitionStarted(index, total, length, size int) {
	d.program.Send(dashboard.ProgressMsg{Index: index, Total: total, Length: length, Size: size})
}

func (d *dashboardProgress) PartitionDone(index, total int) {
	d.program.Send(dashboard.ProgressMsg{Index: index + 1, Total: total, Done: true})
}

// parquetFeatureRow is one flattened (sequence, feature) pair read from a
// parquet input file, grounded on xitongsys/parquet-go's struct-tag reader
// idiom.
type parquetFeatureRow struct {
	SeqID        int32   `parquet:"name=seq_id, type=INT32"`
	FeatureID    int32   `parquet:"name=feature_id, type=INT32"`
	Contribution float32 `parquet:"name=contribution, type=FLOAT"`
	Position     int32   `parquet:"name=position, type=INT32"`
}

func loadParquetInput(path string) (types.InputMap, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(parquetFeatureRow), 4)
	if err != nil {
		return nil, fmt.Errorf("creating parquet reader: %w", err)
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	rows := make([]parquetFeatureRow, total)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("reading parquet rows: %w", err)
	}

	m := make(types.InputMap)
	for _, r := range rows {
		m[uint32(r.SeqID)] = append(m[uint32(r.SeqID)], types.Feature{
			ID:           uint32(r.FeatureID),
			Contribution: r.Contribution,
			Position:     uint32(r.Position),
		})
	}
	return m, nil
}
