// Package audio provides the decoder port consumed by the silence analyzer
// and the concrete decoders behind it.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSeekUnsupported is returned by SeekFrame when the decoder cannot satisfy
// random access (live streams, pipes).
var ErrSeekUnsupported = errors.New("audio: seek unsupported")

// UnknownFrames marks a stream whose length is not known in advance.
const UnknownFrames int64 = -1

// StreamInfo describes a decoded stream. It is fixed for the lifetime of a decoder.
type StreamInfo struct {
	SampleRate int   // Hz
	Channels   int   // interleaved channel count
	Frames     int64 // total frames, or UnknownFrames
}

// Validate reports configuration errors that would make analysis impossible.
func (si StreamInfo) Validate() error {
	var errs []error
	if si.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio: invalid sample rate %d", si.SampleRate))
	}
	if si.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio: invalid channel count %d", si.Channels))
	}
	return errors.Join(errs...)
}

// KnownLength reports whether Frames carries a usable total.
func (si StreamInfo) KnownLength() bool {
	return si.Frames >= 0
}

// Seconds converts a frame position into seconds.
func (si StreamInfo) Seconds(frame int64) float64 {
	return float64(frame) / float64(si.SampleRate)
}

// Decoder is the block-oriented decoder contract.
//
// Read fills buf with whole interleaved frames and returns the number of frames
// decoded. At end of stream it returns 0 and io.EOF. A short read is legal.
//
// SeekFrame positions the decoder at an absolute frame and returns the resulting
// position. Decoders without random access return ErrSeekUnsupported.
type Decoder interface {
	Info() StreamInfo
	Read(buf []float32) (int, error)
	SeekFrame(frame int64) (int64, error)
	Close() error
}

// Open opens an audio file by extension.
func Open(path string) (Decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		return OpenWAV(path)
	default:
		return nil, fmt.Errorf("audio: unsupported file type %q: %s", ext, path)
	}
}

// OpenStdin wraps standard input as a raw float32 PCM stream.
func OpenStdin(sampleRate, channels int) (Decoder, error) {
	return OpenRaw(os.Stdin, sampleRate, channels)
}
