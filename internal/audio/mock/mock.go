// Package mock provides an in-memory test double for the audio.Decoder port.
//
// Decoder serves interleaved samples from a slice, records every Read and SeekFrame,
// and can be told to fail seeks so callers can exercise their fallback paths:
//
//	dec := mock.New(samples, 1000, 1)
//	dec.SeekErr = audio.ErrSeekUnsupported
package mock

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/x42/silan/internal/audio"
)

// ReadCall records a single invocation of Decoder.Read.
type ReadCall struct {
	// Position is the frame position before the read.
	Position int64
	// Frames is the number of frames returned.
	Frames int
}

// Decoder is an in-memory implementation of audio.Decoder.
type Decoder struct {
	mu sync.Mutex

	// Samples holds interleaved PCM data.
	Samples []float32

	// StreamInfo is returned by Info. Frames may be set to audio.UnknownFrames
	// to simulate a live stream.
	StreamInfo audio.StreamInfo

	// SeekErr, if non-nil, is returned by every SeekFrame call after the
	// first SeekErrAfter calls.
	SeekErr      error
	SeekErrAfter int

	// MaxReadFrames caps the frames returned per Read when positive, to
	// simulate decoders that return short blocks.
	MaxReadFrames int

	// ReadErr, if non-nil, is returned by Read once ReadErrAt frames have
	// been served.
	ReadErr   error
	ReadErrAt int64

	// --- Call records ---

	ReadCalls      []ReadCall
	SeekCalls      []int64
	CloseCallCount int

	pos int64
}

// New returns a Decoder over samples with a known length.
func New(samples []float32, sampleRate, channels int) *Decoder {
	return &Decoder{
		Samples: samples,
		StreamInfo: audio.StreamInfo{
			SampleRate: sampleRate,
			Channels:   channels,
			Frames:     int64(len(samples) / channels),
		},
	}
}

func (d *Decoder) frames() int64 {
	return int64(len(d.Samples) / d.StreamInfo.Channels)
}

// Info returns StreamInfo.
func (d *Decoder) Info() audio.StreamInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.StreamInfo
}

// Read copies the next frames into buf and records the call.
func (d *Decoder) Read(buf []float32) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ReadErr != nil && d.pos >= d.ReadErrAt {
		return 0, d.ReadErr
	}

	ch := d.StreamInfo.Channels
	n := int64(len(buf) / ch)
	if d.MaxReadFrames > 0 && n > int64(d.MaxReadFrames) {
		n = int64(d.MaxReadFrames)
	}
	if remaining := d.frames() - d.pos; n > remaining {
		n = remaining
	}
	d.ReadCalls = append(d.ReadCalls, ReadCall{Position: d.pos, Frames: int(max(n, 0))})
	if n <= 0 {
		return 0, io.EOF
	}
	copy(buf, d.Samples[d.pos*int64(ch):(d.pos+n)*int64(ch)])
	d.pos += n
	return int(n), nil
}

// SeekFrame records the call and moves to frame unless SeekErr is set.
func (d *Decoder) SeekFrame(frame int64) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SeekCalls = append(d.SeekCalls, frame)
	if d.SeekErr != nil && len(d.SeekCalls) > d.SeekErrAfter {
		return d.pos, d.SeekErr
	}
	if frame < 0 || frame > d.frames() {
		return d.pos, fmt.Errorf("mock: seek to %d outside [0, %d]", frame, d.frames())
	}
	d.pos = frame
	return frame, nil
}

// Close records the call.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CloseCallCount++
	return nil
}

// FramesRead sums the frames served by all Read calls.
func (d *Decoder) FramesRead() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	var total int64
	for _, c := range d.ReadCalls {
		total += int64(c.Frames)
	}
	return total
}

// ErrInjected is a convenience error for tests that need an arbitrary failure.
var ErrInjected = errors.New("mock: injected failure")

// Ensure Decoder implements audio.Decoder at compile time.
var _ audio.Decoder = (*Decoder)(nil)
