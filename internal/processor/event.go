package processor

import "github.com/x42/silan/internal/audio"

// Kind is the logical state an event reports.
type Kind int

const (
	Off Kind = iota
	On
)

func (k Kind) String() string {
	if k == On {
		return "On"
	}
	return "Off"
}

// Event is a sound boundary in forward stream time.
type Event struct {
	Frame int64
	Kind  Kind
}

// Direction is the order in which a pass visits frames.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// eventFor maps a transition confirmed while scanning in dir to the event it
// represents in forward time. Scanning backwards, sound confirmed at the last
// loud sample L means sound stops at L+1, and silence confirmed at the first
// quiet sample S means sound starts at S+1.
func eventFor(dir Direction, tr Transition) Event {
	if dir == Backward {
		if tr.To == Sounding {
			return Event{Frame: tr.Since + 1, Kind: Off}
		}
		return Event{Frame: tr.Since + 1, Kind: On}
	}
	if tr.To == Sounding {
		return Event{Frame: tr.Since, Kind: On}
	}
	return Event{Frame: tr.Since, Kind: Off}
}

// Sink receives the events of one run. Formatting is entirely up to the sink.
type Sink interface {
	// Start is called once before any event with the stream layout.
	Start(info audio.StreamInfo) error
	// Event is called for each boundary in confirmation order.
	Event(ev Event) error
	// Finish is called after the last event of a successful run.
	Finish(sum *Summary) error
}

// Collector is a Sink that keeps events in memory.
type Collector struct {
	Info   audio.StreamInfo
	Events []Event
	Sum    *Summary
}

func (c *Collector) Start(info audio.StreamInfo) error { c.Info = info; return nil }
func (c *Collector) Event(ev Event) error              { c.Events = append(c.Events, ev); return nil }
func (c *Collector) Finish(sum *Summary) error         { c.Sum = sum; return nil }
