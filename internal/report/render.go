package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/vk/breastfem/internal/scheduler"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Render writes a human readable summary of r.
func (r *Report) Render(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · run %s", r.Command, r.RunID)))
	b.WriteString("\n")
	for _, j := range r.Jobs {
		label := okStyle.Render("ok  ")
		if j.State != scheduler.Succeeded.String() {
			label = failStyle.Render("FAIL")
		}
		fmt.Fprintf(&b, "%s %s %s", label, j.Name, detailStyle.Render(fmt.Sprintf("(%.1fs)", j.Seconds)))
		if j.Reason != "" {
			fmt.Fprintf(&b, "\n     %s", detailStyle.Render(j.Reason))
		}
		if j.Assets != nil {
			fmt.Fprintf(&b, "\n     %s", detailStyle.Render(fmt.Sprintf("%d frames, %d surface nodes", j.Assets.Frames, j.Assets.SurfaceNodes)))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d succeeded, %d failed", r.Succeeded, r.Failed)

	_, err := fmt.Fprintln(w, boxStyle.Render(b.String()))
	return err
}

// Progress prints one bar line each time a job reaches a final state.
type Progress struct {
	w     io.Writer
	bar   progress.Model
	total int

	mu   sync.Mutex
	done int
}

// NewProgress tracks a batch of total jobs.
func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		total: total,
	}
}

// Observe implements scheduler.Observer.
func (p *Progress) Observe(e scheduler.Event) {
	if !e.State.Done() || p.total == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	fmt.Fprintf(p.w, "%s %d/%d %s %s\n", p.bar.ViewAs(float64(p.done)/float64(p.total)), p.done, p.total, e.Job.Name, e.State)
}

// Done is the number of jobs seen finishing.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
