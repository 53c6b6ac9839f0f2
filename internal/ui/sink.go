package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/processor"
)

// Sender delivers messages to a running program, usually (*tea.Program).Send.
type Sender func(tea.Msg)

// TeeSink forwards every event to an output sink and mirrors it to the UI.
type TeeSink struct {
	Out  processor.Sink
	Send Sender
}

func (t TeeSink) Start(info audio.StreamInfo) error { return t.Out.Start(info) }

func (t TeeSink) Event(ev processor.Event) error {
	if err := t.Out.Event(ev); err != nil {
		return err
	}
	t.Send(EventMsg{Event: ev})
	return nil
}

func (t TeeSink) Finish(sum *processor.Summary) error { return t.Out.Finish(sum) }

// progressStep is the smallest progress change worth a redraw.
const progressStep = 0.005

// ProgressFunc returns a processor progress callback that posts ProgressMsg.
// Updates within the same pass are dropped until progress moves by at least
// half a percent.
func ProgressFunc(send Sender) processor.ProgressFunc {
	last := ProgressMsg{Pass: -1}
	return func(pass processor.Pass, progress float64) {
		if pass == last.Pass && progress-last.Progress < progressStep && progress < 1 {
			return
		}
		last = ProgressMsg{Pass: pass, Progress: progress}
		send(last)
	}
}
