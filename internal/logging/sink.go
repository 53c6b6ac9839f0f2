package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/processor"
)

// Format names an event output format.
type Format string

const (
	FormatSamples  Format = "samples"  // frame number and state
	FormatSeconds  Format = "seconds"  // time in seconds and state
	FormatAudacity Format = "audacity" // label file, one line per sound span
	FormatJSON     Format = "json"     // a single document written at the end
)

// Formats lists the accepted output formats in help order.
var Formats = []Format{FormatSamples, FormatSeconds, FormatAudacity, FormatJSON}

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q (must be samples, seconds, audacity or json)", s)
}

// NewSink returns a processor.Sink writing events to w in format f.
func NewSink(f Format, w io.Writer) (processor.Sink, error) {
	switch f {
	case FormatSamples, FormatSeconds, FormatAudacity:
		return &TextSink{w: w, format: f, prevOn: -1}, nil
	case FormatJSON:
		return &JSONSink{w: w}, nil
	}
	return nil, fmt.Errorf("invalid output format %q", f)
}

// TextSink writes one line per event as each boundary is confirmed.
//
// The audacity format only prints complete spans: an On is held until its
// matching Off arrives, and an Off without a preceding On is dropped.
type TextSink struct {
	w      io.Writer
	format Format
	rate   int
	prevOn int64
}

func (s *TextSink) Start(info audio.StreamInfo) error {
	s.rate = info.SampleRate
	s.prevOn = -1
	return nil
}

func (s *TextSink) Event(ev processor.Event) error {
	var err error
	switch s.format {
	case FormatSamples:
		_, err = fmt.Fprintf(s.w, "%9d %s\n", ev.Frame, ev.Kind)
	case FormatSeconds:
		_, err = fmt.Fprintf(s.w, "%7f %s\n", s.seconds(ev.Frame), ev.Kind)
	case FormatAudacity:
		if ev.Kind == processor.On {
			s.prevOn = ev.Frame
			return nil
		}
		if s.prevOn < 0 {
			return nil
		}
		_, err = fmt.Fprintf(s.w, "%7f\t%f\tOn\n", s.seconds(s.prevOn), s.seconds(ev.Frame))
		s.prevOn = -1
	}
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (s *TextSink) Finish(*processor.Summary) error { return nil }

func (s *TextSink) seconds(frame int64) float64 {
	return float64(frame) / float64(s.rate)
}

// JSONSink buffers events and writes a single document when the run finishes.
type JSONSink struct {
	w      io.Writer
	info   audio.StreamInfo
	events []jsonEvent
}

type jsonEvent struct {
	Frame   int64   `json:"frame"`
	Seconds float64 `json:"seconds"`
	State   string  `json:"state"`
}

type jsonDocument struct {
	SampleRate int         `json:"sample_rate"`
	Frames     int64       `json:"frames"`
	Events     []jsonEvent `json:"events"`
}

func (s *JSONSink) Start(info audio.StreamInfo) error {
	s.info = info
	s.events = make([]jsonEvent, 0)
	return nil
}

func (s *JSONSink) Event(ev processor.Event) error {
	s.events = append(s.events, jsonEvent{
		Frame:   ev.Frame,
		Seconds: s.info.Seconds(ev.Frame),
		State:   ev.Kind.String(),
	})
	return nil
}

// Finish writes the document. frames is the header length when known,
// otherwise the position where scanning stopped.
func (s *JSONSink) Finish(sum *processor.Summary) error {
	doc := jsonDocument{
		SampleRate: s.info.SampleRate,
		Frames:     s.info.Frames,
		Events:     s.events,
	}
	if !s.info.KnownLength() && sum != nil {
		doc.Frames = sum.EndFrame
	}
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write json output: %w", err)
	}
	return nil
}
