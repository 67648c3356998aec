// Package dashboard implements a small bubbletea TUI that shows live
// partitioned-enrichment progress and lets the operator copy the run
// summary to the clipboard. It is grounded on the teacher's
// internal/cli/ui Model — a bubbletea program styled with lipgloss,
// reading gopsutil host stats and offering a clipboard-copy key binding —
// simplified down from a full chat UI to a single status screen since
// there is no conversational surface here.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"motifsketch/pkg/motif/sketch"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// ProgressMsg is sent to the program on every partition lifecycle event.
type ProgressMsg struct {
	Index, Total int
	Length       int
	Size         int
	Done         bool
}

// SnapshotMsg carries the latest CMS occupancy snapshot.
type SnapshotMsg struct {
	Snapshot sketch.Snapshot
}

// Model is the bubbletea model backing the dashboard.
type Model struct {
	index, total int
	length, size int
	done         bool
	snap         sketch.Snapshot
	copied       bool
	quitting     bool
	bar          progress.Model
}

// New returns a fresh dashboard Model.
func New() Model {
	return Model{bar: progress.New(progress.WithDefaultGradient())}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.index, m.total, m.length, m.size, m.done = msg.Index, msg.Total, msg.Length, msg.Size, msg.Done
		return m, nil
	case SnapshotMsg:
		m.snap = msg.Snapshot
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "c":
			_ = clipboard.WriteAll(m.summary())
			m.copied = true
			return m, nil
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("motif enrichment") + "\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.index) / float64(m.total)
	}
	b.WriteString(labelStyle.Render("partitions: ") + fmt.Sprintf("%d/%d ", m.index, m.total))
	b.WriteString(m.bar.ViewAs(pct) + "\n")
	b.WriteString(labelStyle.Render("current partition length: ") + fmt.Sprintf("%d (size %d)\n", m.length, m.size))
	b.WriteString(labelStyle.Render("CMS occupancy: ") +
		fmt.Sprintf("%d/%d non-zero cells, max counter %d, total counts %d\n",
			m.snap.NonZero, m.snap.Rows*m.snap.Cols, m.snap.MaxCounter, m.snap.TotalCounts))

	if m.copied {
		b.WriteString("\n" + hintStyle.Render("summary copied to clipboard"))
	}
	b.WriteString("\n\n" + hintStyle.Render("press c to copy summary, q to quit"))
	return b.String()
}

func (m Model) summary() string {
	return fmt.Sprintf("partitions %d/%d, current length %d size %d, cms non-zero %d/%d max %d total %d",
		m.index, m.total, m.length, m.size,
		m.snap.NonZero, m.snap.Rows*m.snap.Cols, m.snap.MaxCounter, m.snap.TotalCounts)
}
