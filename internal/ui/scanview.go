// Package ui renders live scan progress in the terminal. It consumes the
// pull-based progress channel; the pipeline itself never blocks on the UI.
package ui

import (
	"fmt"

	tprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dupesweep/dupesweep/internal/progress"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type updateMsg struct {
	update interface{}
}

type doneMsg struct{}

// ScanView is a bubbletea model that displays scan progress updates until
// the subscription channel closes.
type ScanView struct {
	spinner spinner.Model
	bar     tprogress.Model
	updates <-chan interface{}
	latest  *progress.ScanProgress
	done    bool
}

// NewScanView creates a scan progress view fed by a Reporter subscription.
func NewScanView(updates <-chan interface{}) *ScanView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return &ScanView{
		spinner: sp,
		bar:     tprogress.New(tprogress.WithDefaultGradient()),
		updates: updates,
	}
}

// Init implements tea.Model.
func (v *ScanView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.waitForUpdate())
}

// Update implements tea.Model.
func (v *ScanView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		if sp, ok := msg.update.(*progress.ScanProgress); ok {
			v.latest = sp
		}
		return v, v.waitForUpdate()

	case doneMsg:
		v.done = true
		return v, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return v, tea.Quit
		}
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	default:
		return v, nil
	}
}

// View implements tea.Model.
func (v *ScanView) View() string {
	if v.done {
		return ""
	}

	line := titleStyle.Render("dupesweep") + "  " + v.spinner.View() + " "
	if v.latest == nil {
		return line + statusStyle.Render("Initializing...") + "\n"
	}

	line += statusStyle.Render(progress.FormatScan(v.latest)) + "\n"
	if v.latest.TotalFiles > 0 {
		line += v.bar.ViewAs(v.latest.Percentage/100.0) + "\n"
	}
	if v.latest.CurrentFile != "" {
		line += pathStyle.Render(fmt.Sprintf("  %s", v.latest.CurrentFile)) + "\n"
	}
	return line
}

// waitForUpdate blocks on the subscription channel and converts the next
// update into a tea message. A closed channel ends the view.
func (v *ScanView) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-v.updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg{update: update}
	}
}
