// Package processor detects sound and silence in decoded audio streams.
//
// An Analyzer drives a Decoder block by block through an Estimator (high-pass
// filter and sliding RMS window) and a Detector (holdoff debounce) and hands
// the confirmed boundaries to a Sink. In the bounds modes it stops as soon as
// the first onset and last offset are known; bounds-fast finds the last offset
// by decoding backwards from the end and falls back to forward scanning when
// the decoder cannot do that.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/observe"
)

// Pass identifies one traversal of the stream.
type Pass int

const (
	PassFull Pass = iota
	PassBoundsForward
	PassBoundsBackward
	PassBoundsFallback
)

func (p Pass) String() string {
	switch p {
	case PassFull:
		return "full"
	case PassBoundsForward:
		return "bounds-forward"
	case PassBoundsBackward:
		return "bounds-backward"
	case PassBoundsFallback:
		return "bounds-fallback"
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

// ProgressFunc receives progress in [0, 1] for the running pass. Progress is
// only reported for streams of known length.
type ProgressFunc func(pass Pass, progress float64)

// Options carries the side channels of an Analyzer. Zero values are valid.
type Options struct {
	Logger   *slog.Logger
	Metrics  *observe.Metrics
	Progress ProgressFunc
}

// Summary describes a finished run.
type Summary struct {
	SampleRate     int
	FramesExpected int64 // from the stream header, audio.UnknownFrames if absent
	FramesDecoded  int64 // all frames returned by the decoder, every pass
	EndFrame       int64 // forward position where scanning stopped
	Events         int

	// Onset and Offset are the first On and last Off, -1 when absent.
	Onset  int64
	Offset int64

	Passes            []Pass
	BackwardConfirmed bool
	FellBack          bool
	FrameMismatch     bool
}

// Analyzer runs silence detection over one stream at a time. It holds no
// per-run state, so a single Analyzer may serve concurrent runs.
type Analyzer struct {
	cfg      Config
	log      *slog.Logger
	metrics  *observe.Metrics
	progress ProgressFunc
}

// NewAnalyzer validates cfg and returns an Analyzer.
func NewAnalyzer(cfg Config, opts Options) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		cfg:      cfg,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		progress: opts.Progress,
	}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}
	if a.metrics == nil {
		a.metrics = observe.Discard()
	}
	return a, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Run analyses dec and reports boundaries to sink. The decoder is not closed.
// ctx is checked between decoder calls; a cancelled run returns ctx.Err().
func (a *Analyzer) Run(ctx context.Context, dec audio.Decoder, sink Sink) (*Summary, error) {
	info := dec.Info()
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("cannot analyze stream: %w", err)
	}

	s := newScan(ctx, a, dec, sink, info)
	a.log.Debug("analysis starting",
		"mode", a.cfg.Mode,
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
		"frames", info.Frames,
		"window", len(s.est.window),
		"holdoff_frames", s.holdoff,
		"highpass", s.est.a,
	)

	if err := sink.Start(info); err != nil {
		return nil, fmt.Errorf("sink start: %w", err)
	}

	var err error
	switch a.cfg.Mode {
	case ModeFull:
		err = s.runFull()
	case ModeBounds:
		err = s.runBounds(false)
	case ModeBoundsFast:
		err = s.runBounds(true)
	}
	if err != nil {
		return nil, err
	}

	if err := sink.Finish(s.sum); err != nil {
		return nil, fmt.Errorf("sink finish: %w", err)
	}
	return s.sum, nil
}

// scan is the state of one run.
type scan struct {
	ctx  context.Context
	a    *Analyzer
	dec  audio.Decoder
	sink Sink
	info audio.StreamInfo

	est     *Estimator
	det     *Detector
	holdoff int64

	// forward block: buf holds bufFrames frames starting at bufStart, of
	// which the first bufPos have been processed.
	buf       []float32
	bufStart  int64
	bufFrames int
	bufPos    int
	readPos   int64 // forward decoder position

	sum *Summary
}

func newScan(ctx context.Context, a *Analyzer, dec audio.Decoder, sink Sink, info audio.StreamInfo) *scan {
	holdoff := a.cfg.holdoffFrames(info.SampleRate)
	return &scan{
		ctx:     ctx,
		a:       a,
		dec:     dec,
		sink:    sink,
		info:    info,
		est:     NewEstimator(info.Channels, info.SampleRate, a.cfg.Coefficient(info.SampleRate), a.cfg.Threshold),
		det:     NewDetector(holdoff),
		holdoff: holdoff,
		buf:     make([]float32, a.cfg.BlockFrames*info.Channels),
		sum: &Summary{
			SampleRate:     info.SampleRate,
			FramesExpected: info.Frames,
			Onset:          -1,
			Offset:         -1,
		},
	}
}

// runFull reports every transition and closes an open span at the end.
func (s *scan) runFull() error {
	if s.a.cfg.IncludeInitialState {
		s.det.ArmInitial(0)
	}
	_, err := s.forward(PassFull, func(ev Event) (bool, error) {
		if ev.Kind == On && s.sum.Onset < 0 {
			s.sum.Onset = ev.Frame
		}
		if ev.Kind == Off && ev.Frame > 0 {
			s.sum.Offset = ev.Frame
		}
		return false, s.emit(ev)
	})
	if err != nil {
		return err
	}
	if s.det.State() == Sounding {
		s.sum.Offset = s.readPos
		return s.emit(Event{Frame: s.readPos, Kind: Off})
	}
	return nil
}

// runBounds finds the first onset scanning forward, then the last offset,
// either forward to the end or backwards from it when fast is set.
func (s *scan) runBounds(fast bool) error {
	if s.a.cfg.IncludeInitialState {
		s.det.ArmInitial(0)
	}
	found, err := s.forward(PassBoundsForward, func(ev Event) (bool, error) {
		if ev.Kind == Off {
			// only the initial-state marker can precede the onset
			return false, s.emit(ev)
		}
		s.sum.Onset = ev.Frame
		return true, s.emit(ev)
	})
	if err != nil {
		return err
	}
	if !found {
		s.a.log.Info("no sound found", "frames", s.readPos)
		return nil
	}
	s.sum.EndFrame = s.bufStart + int64(s.bufPos)

	pass := PassBoundsForward
	if fast {
		ev, ok, err := s.backwardWithCheckpoint()
		if err != nil {
			return err
		}
		if ok {
			s.sum.BackwardConfirmed = true
			s.sum.Offset = ev.Frame
			return s.emit(ev)
		}
		pass = PassBoundsFallback
	}

	lastOff := int64(-1)
	if _, err := s.forward(pass, func(ev Event) (bool, error) {
		if ev.Kind == Off {
			lastOff = ev.Frame
		}
		return false, nil
	}); err != nil {
		return err
	}
	if s.det.State() == Sounding {
		lastOff = s.readPos
	}
	s.sum.Offset = lastOff
	return s.emit(Event{Frame: lastOff, Kind: Off})
}

// backwardWithCheckpoint runs the backward pass and, when it cannot confirm
// an offset, restores the forward state so scanning can resume exactly where
// the onset was found.
func (s *scan) backwardWithCheckpoint() (Event, bool, error) {
	var est Estimator
	s.est.snapshot(&est)
	det := *s.det
	resume := s.bufStart + int64(s.bufPos)

	ev, ok, moved, err := s.backward(resume)
	if err != nil {
		return Event{}, false, err
	}
	if ok {
		return ev, true, nil
	}

	s.sum.FellBack = true
	s.a.metrics.Fallbacks.Add(s.ctx, 1)
	s.a.log.Info("backward scan failed, resuming forward", "frame", resume)

	est.snapshot(s.est)
	*s.det = det
	if moved {
		_, err := s.dec.SeekFrame(s.readPos)
		s.a.metrics.Seek(s.ctx, err)
		if err != nil {
			// The decoder position is unknown now; continuing would report
			// an offset from the wrong frames.
			s.a.log.Warn("cannot return to forward position after backward scan",
				"frame", s.readPos, "err", err)
			return Event{}, false, fmt.Errorf("resume forward scan at frame %d: %w", s.readPos, err)
		}
	}
	return Event{}, false, nil
}

// backward decodes from the end of the stream down to lower, processing
// frames in reverse order. It reports ok only when an offset was confirmed;
// moved reports whether the decoder position changed.
func (s *scan) backward(lower int64) (ev Event, ok, moved bool, err error) {
	pass := PassBoundsBackward
	s.sum.Passes = append(s.sum.Passes, pass)
	start := time.Now()
	defer func() { s.a.metrics.Pass(s.ctx, pass.String(), time.Since(start)) }()

	if !s.info.KnownLength() {
		s.a.log.Debug("stream length unknown, skipping backward scan")
		return Event{}, false, false, nil
	}

	// Leave the forward position only if the decoder can come back to it.
	if pos, err := s.dec.SeekFrame(s.readPos); err != nil || pos != s.readPos {
		s.a.metrics.Seek(s.ctx, err)
		s.a.log.Debug("decoder cannot seek, skipping backward scan", "frame", s.readPos, "err", err)
		return Event{}, false, err == nil, nil
	}
	s.a.metrics.Seek(s.ctx, nil)

	s.est.Reset()
	s.det.Reset()

	ch := s.info.Channels
	block := int64(s.a.cfg.BlockFrames)
	buf := make([]float32, len(s.buf))
	end := s.info.Frames
	span := end - lower

	for hi := end; hi > lower; {
		if err := s.ctx.Err(); err != nil {
			return Event{}, false, moved, err
		}
		lo := max(hi-block, lower)
		n := int(hi - lo)

		pos, err := s.dec.SeekFrame(lo)
		s.a.metrics.Seek(s.ctx, err)
		if err != nil || pos != lo {
			s.a.log.Debug("backward seek failed", "frame", lo, "err", err)
			return Event{}, false, moved || err == nil, nil
		}
		moved = true

		if err := s.readExact(buf[:n*ch], n); err != nil {
			s.a.log.Debug("backward read failed", "frame", lo, "err", err)
			return Event{}, false, true, nil
		}

		for i := n - 1; i >= 0; i-- {
			loud := s.est.Frame(buf[i*ch : (i+1)*ch])
			tr, confirmed := s.det.Update(lo+int64(i), loud)
			if confirmed && tr.To == Sounding {
				return eventFor(Backward, tr), true, true, nil
			}
		}

		hi = lo
		s.report(pass, float64(end-hi)/float64(span))
	}
	s.a.log.Debug("backward scan reached forward position without an offset", "frame", lower)
	return Event{}, false, moved, nil
}

// readExact fills buf with exactly n frames.
func (s *scan) readExact(buf []float32, n int) error {
	ch := s.info.Channels
	for got := 0; got < n; {
		m, err := s.dec.Read(buf[got*ch : n*ch])
		if m > 0 {
			s.sum.FramesDecoded += int64(m)
			s.a.metrics.Block(s.ctx, "backward", m)
			got += m
			continue
		}
		if err == nil || errors.Is(err, io.EOF) {
			return fmt.Errorf("short read: %d of %d frames", got, n)
		}
		return err
	}
	return nil
}

// forward processes frames in order, continuing from the unprocessed tail of
// the current block. handle returns true to stop; forward then reports
// stopped. Reaching the end of the stream returns false.
func (s *scan) forward(pass Pass, handle func(Event) (bool, error)) (stopped bool, err error) {
	s.sum.Passes = append(s.sum.Passes, pass)
	start := time.Now()
	defer func() { s.a.metrics.Pass(s.ctx, pass.String(), time.Since(start)) }()

	ch := s.info.Channels
	for {
		for s.bufPos < s.bufFrames {
			i := s.bufPos
			loud := s.est.Frame(s.buf[i*ch : (i+1)*ch])
			s.bufPos++
			tr, ok := s.det.Update(s.bufStart+int64(i), loud)
			if !ok {
				continue
			}
			stop, err := handle(eventFor(Forward, tr))
			if err != nil {
				return false, err
			}
			if stop {
				return true, nil
			}
		}

		more, err := s.fill(pass)
		if err != nil {
			return false, err
		}
		if !more {
			s.finishForward()
			return false, nil
		}
	}
}

// fill reads the next forward block. It returns false at end of stream.
func (s *scan) fill(pass Pass) (bool, error) {
	if err := s.ctx.Err(); err != nil {
		return false, err
	}
	n, err := s.dec.Read(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("decode at frame %d: %w", s.readPos, err)
	}
	if n <= 0 {
		return false, nil
	}
	s.bufStart = s.readPos
	s.bufFrames = n
	s.bufPos = 0
	s.readPos += int64(n)
	s.sum.FramesDecoded += int64(n)
	s.a.metrics.Block(s.ctx, "forward", n)
	if s.info.KnownLength() && s.info.Frames > 0 {
		s.report(pass, min(float64(s.readPos)/float64(s.info.Frames), 1))
	}
	return true, nil
}

// finishForward records the end position and checks it against the header.
func (s *scan) finishForward() {
	s.sum.EndFrame = s.readPos
	if s.info.KnownLength() && s.readPos != s.info.Frames {
		s.sum.FrameMismatch = true
		s.a.metrics.Mismatches.Add(s.ctx, 1)
		s.a.log.Warn("frame count mismatch", "decoded", s.readPos, "expected", s.info.Frames)
	}
}

func (s *scan) emit(ev Event) error {
	s.sum.Events++
	s.a.metrics.Event(s.ctx, ev.Kind.String())
	s.a.log.Debug("event", "frame", ev.Frame, "state", ev.Kind)
	if err := s.sink.Event(ev); err != nil {
		return fmt.Errorf("sink event: %w", err)
	}
	return nil
}

func (s *scan) report(pass Pass, progress float64) {
	if s.a.progress != nil {
		s.a.progress(pass, progress)
	}
}
