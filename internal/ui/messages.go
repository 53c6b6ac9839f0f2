package ui

import (
	"time"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/processor"
)

// ScanStartMsg indicates the stream is open and analysis is about to begin
type ScanStartMsg struct {
	FileName string
	Info     audio.StreamInfo
	Mode     processor.Mode
}

// ProgressMsg represents a progress update from the analyzer
type ProgressMsg struct {
	Pass     processor.Pass
	Progress float64 // 0.0 to 1.0
}

// EventMsg reports a confirmed boundary
type EventMsg struct {
	Event processor.Event
}

// ScanCompleteMsg indicates the analysis has finished
type ScanCompleteMsg struct {
	Summary *processor.Summary
	Err     error
}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time
