// Package ui renders build progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"shaderpipe/internal/buildpipeline"
	"shaderpipe/internal/shader"
)

// maxRows caps the file list; finished files are folded first.
const maxRows = 24

type rowState uint8

const (
	rowQueued rowState = iota
	rowActive
	rowDone
	rowFailed
)

type row struct {
	path    string
	kind    string // vertex, fragment, compute
	state   rowState
	stage   buildpipeline.Stage
	elapsed time.Duration
	errMsg  string
}

func (r *row) finished() bool { return r.state == rowDone || r.state == rowFailed }

func (r *row) label() string {
	switch r.state {
	case rowActive:
		return activeLabels[r.stage]
	case rowDone:
		return "done"
	case rowFailed:
		return "failed"
	}
	return "queued"
}

var activeLabels = map[buildpipeline.Stage]string{
	buildpipeline.StageResolve: "resolving",
	buildpipeline.StageCompile: "compiling",
	buildpipeline.StageWrite:   "writing",
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stateStyle = map[rowState]lipgloss.Style{
		rowQueued: lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		rowActive: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		rowDone:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		rowFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byPath  map[string]int
	width   int
	done    bool
	failed  int
}

type eventMsg buildpipeline.Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model that follows the events of
// one build until the channel closes.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = stateStyle[rowActive]

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 60

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]row, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.rows[i] = row{path: f, kind: "?"}
		if st, ok := shader.StageFromPath(f); ok {
			m.rows[i].kind = st.String()
		}
		m.byPath[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// сборку не прерываем, только перестаём рисовать
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-20, 10)
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// apply folds one event into the rows and returns the bar animation.
func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	r := &m.rows[i]
	if r.finished() {
		return nil
	}
	r.stage = ev.Stage
	r.elapsed += ev.Elapsed
	switch ev.Status {
	case buildpipeline.StatusWorking:
		r.state = rowActive
	case buildpipeline.StatusDone:
		if ev.Stage == buildpipeline.Stages[len(buildpipeline.Stages)-1] {
			r.state = rowDone
		}
	case buildpipeline.StatusError:
		r.state = rowFailed
		m.failed++
		if ev.Err != nil {
			r.errMsg, _, _ = strings.Cut(ev.Err.Error(), "\n")
		}
	}
	return m.bar.SetPercent(m.fraction())
}

// fraction weighs an active file by how far through the stages it is.
func (m *progressModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	n := float64(len(buildpipeline.Stages))
	var sum float64
	for i := range m.rows {
		r := &m.rows[i]
		switch {
		case r.finished():
			sum++
		case r.state == rowActive:
			for j, st := range buildpipeline.Stages {
				if st == r.stage {
					sum += float64(j) / n
				}
			}
		}
	}
	return sum / float64(len(m.rows))
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	finished := 0
	for i := range m.rows {
		if m.rows[i].finished() {
			finished++
		}
	}
	header := fmt.Sprintf("%s  %d/%d", m.title, finished, len(m.rows))
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}
	if m.done {
		b.WriteString(titleStyle.Render("done: " + header))
	} else {
		b.WriteString(m.spinner.View() + " " + titleStyle.Render(header))
	}
	b.WriteString("\n\n")

	pathWidth := max(m.width-32, 16)
	shown, hidden := m.visible()
	for _, i := range shown {
		r := &m.rows[i]
		fmt.Fprintf(&b, "  %s %-8s %7s  %s\n",
			stateStyle[r.state].Render(fmt.Sprintf("%-9s", r.label())),
			r.kind,
			elapsedText(r),
			truncate(r.path, pathWidth))
		if r.errMsg != "" {
			b.WriteString("    " + dimStyle.Render(truncate(r.errMsg, m.width-6)) + "\n")
		}
	}
	if hidden > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more done", hidden)) + "\n")
	}

	b.WriteString("\n  ")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visible keeps files order but drops successful rows once the list
// outgrows maxRows.
func (m *progressModel) visible() (idx []int, hidden int) {
	drop := len(m.rows) - maxRows
	for i := range m.rows {
		if drop > 0 && m.rows[i].state == rowDone {
			drop--
			hidden++
			continue
		}
		idx = append(idx, i)
	}
	return idx, hidden
}

func elapsedText(r *row) string {
	if r.elapsed <= 0 || !r.finished() {
		return ""
	}
	if r.elapsed < time.Second {
		return fmt.Sprintf("%dms", r.elapsed.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", r.elapsed.Seconds())
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
