package processor

import (
	"math"
	"testing"
)

// Segment is one stretch of synthetic audio.
type Segment struct {
	Frames int     // length in frames
	Freq   float64 // tone frequency in Hz, 0 for silence
	Level  float64 // linear peak amplitude
}

// TestSignalOptions configures the synthetic signal to generate.
type TestSignalOptions struct {
	SampleRate int     // default 1000
	Channels   int     // default 1
	NoiseLevel float64 // linear amplitude of white noise added everywhere (0 = none)
	Segments   []Segment

	// LoudChannel restricts tones to one channel when >= 0; other channels
	// stay silent. Set to -1 (or leave Channels at 1) for all channels.
	LoudChannel int
}

// generateSignal builds interleaved samples from opts. Each tone segment
// starts at the cosine peak so its first sample is already at full level.
func generateSignal(t *testing.T, opts TestSignalOptions) []float32 {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 1000
	}
	if opts.Channels == 0 {
		opts.Channels = 1
		opts.LoudChannel = -1
	}

	total := 0
	for _, seg := range opts.Segments {
		total += seg.Frames
	}
	samples := make([]float32, total*opts.Channels)

	// Simple LCG for deterministic noise
	rngState := uint32(12345)
	nextRandom := func() float64 {
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	frame := 0
	for _, seg := range opts.Segments {
		for i := 0; i < seg.Frames; i++ {
			var v float64
			if seg.Freq > 0 {
				v = seg.Level * math.Cos(2*math.Pi*seg.Freq*float64(i)/float64(opts.SampleRate))
			}
			for c := 0; c < opts.Channels; c++ {
				s := 0.0
				if opts.LoudChannel < 0 || c == opts.LoudChannel {
					s = v
				}
				if opts.NoiseLevel > 0 {
					s += opts.NoiseLevel * nextRandom()
				}
				samples[(frame+i)*opts.Channels+c] = float32(s)
			}
		}
		frame += seg.Frames
	}
	return samples
}

// referenceSignal is the 10 s, 1 kHz, mono test stream: silence, a
// full-scale 100 Hz tone over frames [3000, 7000), silence.
func referenceSignal(t *testing.T) []float32 {
	t.Helper()
	return generateSignal(t, TestSignalOptions{
		Segments: []Segment{
			{Frames: 3000},
			{Frames: 4000, Freq: 100, Level: 1.0},
			{Frames: 3000},
		},
	})
}

// newTestConfig returns a config tuned for the 1 kHz reference signals.
func newTestConfig() Config {
	return Config{
		Threshold:   0.01,
		HoldoffSec:  0.1,
		Highpass:    1.0,
		Mode:        ModeFull,
		BlockFrames: DefaultBlockFrames,
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
