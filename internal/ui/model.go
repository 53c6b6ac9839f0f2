// Package ui provides the Bubbletea progress view for a silan scan
package ui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/processor"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// PassProgress tracks one traversal of the stream
type PassProgress struct {
	Pass      processor.Pass
	Progress  float64
	StartTime time.Time
	Elapsed   time.Duration
}

// Model is the Bubbletea model for a single scan
type Model struct {
	FileName string
	Info     audio.StreamInfo
	Mode     processor.Mode

	// Passes seen so far, the last one is running
	Passes    []PassProgress
	StartTime time.Time

	// Boundaries confirmed so far
	Events    int
	LastEvent *processor.Event

	spinnerIndex int

	// Results (populated when complete)
	Summary *processor.Summary
	Err     error
	Done    bool

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model for the named input
func NewModel(fileName string) Model {
	return Model{
		FileName:  fileName,
		StartTime: time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case ScanStartMsg:
		if msg.FileName != "-" {
			m.FileName = filepath.Base(msg.FileName)
		} else {
			m.FileName = "stdin"
		}
		m.Info = msg.Info
		m.Mode = msg.Mode
		m.StartTime = time.Now()
		return m, nil

	case ProgressMsg:
		m.Passes = updatePasses(m.Passes, msg, time.Now())
		return m, nil

	case EventMsg:
		ev := msg.Event
		m.Events++
		m.LastEvent = &ev
		return m, nil

	case ScanCompleteMsg:
		m.Summary = msg.Summary
		m.Err = msg.Err
		m.Done = true
		if n := len(m.Passes); n > 0 && msg.Err == nil {
			m.Passes[n-1].Progress = 1
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletion(m)
	}
	return renderScanView(m)
}

// updatePasses applies a progress update, starting a new pass entry when the
// pass changes.
func updatePasses(passes []PassProgress, msg ProgressMsg, now time.Time) []PassProgress {
	n := len(passes)
	if n == 0 || passes[n-1].Pass != msg.Pass {
		if n > 0 {
			passes[n-1].Elapsed = now.Sub(passes[n-1].StartTime)
		}
		passes = append(passes, PassProgress{Pass: msg.Pass, StartTime: now})
		n++
	}
	cur := &passes[n-1]
	cur.Progress = msg.Progress
	cur.Elapsed = now.Sub(cur.StartTime)
	return passes
}
