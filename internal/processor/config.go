package processor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid analyzer configuration")

// Mode selects how much of the stream the analyzer touches.
type Mode string

const (
	// ModeFull scans the whole stream and reports every transition.
	ModeFull Mode = "full"

	// ModeBounds reports only the first onset and the last offset,
	// scanning forward to the end of the stream.
	ModeBounds Mode = "bounds"

	// ModeBoundsFast reports the same two boundaries but locates the last
	// offset by decoding backwards from the end of the stream.
	ModeBoundsFast Mode = "bounds-fast"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeFull, ModeBounds, ModeBoundsFast:
		return true
	}
	return false
}

// DefaultBlockFrames is the number of frames requested per decoder read.
const DefaultBlockFrames = 1024

// Config holds the analysis parameters for one run.
type Config struct {
	// Threshold is the normalised RMS amplitude (0-1) above which a sample
	// counts as sound. 0.0005 is roughly -66 dBFS.
	Threshold float64

	// HoldoffSec is how long a raw condition must persist before it is
	// confirmed as a transition.
	HoldoffSec float64

	// Highpass is the one-pole high-pass coefficient a, 0 < a <= 1.
	// 1.0 disables filtering.
	Highpass float64

	// HighpassCutoffHz, when positive, overrides Highpass with a coefficient
	// derived from the stream sample rate.
	HighpassCutoffHz float64

	Mode Mode

	// IncludeInitialState reports an explicit Off at the start of the stream
	// once its leading silence has lasted a full holdoff period.
	IncludeInitialState bool

	// BlockFrames is the decoder read size in frames.
	BlockFrames int
}

// DefaultConfig returns the stock analysis settings.
func DefaultConfig() Config {
	return Config{
		Threshold:   0.0005,
		HoldoffSec:  0.3,
		Highpass:    0.98,
		Mode:        ModeFull,
		BlockFrames: DefaultBlockFrames,
	}
}

// Validate checks every field and returns all violations joined.
func (c Config) Validate() error {
	var errs []error
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %v out of range [0, 1]", c.Threshold))
	}
	if math.IsNaN(c.HoldoffSec) || c.HoldoffSec < 0 {
		errs = append(errs, fmt.Errorf("holdoff %v must be >= 0", c.HoldoffSec))
	}
	if c.HighpassCutoffHz <= 0 && (math.IsNaN(c.Highpass) || c.Highpass <= 0 || c.Highpass > 1) {
		errs = append(errs, fmt.Errorf("high-pass coefficient %v out of range (0, 1]", c.Highpass))
	}
	if math.IsNaN(c.HighpassCutoffHz) || math.IsInf(c.HighpassCutoffHz, 0) || c.HighpassCutoffHz < 0 {
		errs = append(errs, fmt.Errorf("high-pass cutoff %v Hz is invalid", c.HighpassCutoffHz))
	}
	if !c.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("mode %q is invalid; valid values: full, bounds, bounds-fast", c.Mode))
	}
	if c.BlockFrames < 1 {
		errs = append(errs, fmt.Errorf("block size %d must be >= 1", c.BlockFrames))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Coefficient resolves the filter coefficient for a given sample rate.
func (c Config) Coefficient(sampleRate int) float64 {
	if c.HighpassCutoffHz > 0 {
		return HighpassCoefficient(c.HighpassCutoffHz, sampleRate)
	}
	return c.Highpass
}

// holdoffFrames converts the holdoff duration into a sample count.
func (c Config) holdoffFrames(sampleRate int) int64 {
	return int64(math.Ceil(c.HoldoffSec * float64(sampleRate)))
}

// HighpassCoefficient converts a cutoff frequency into the one-pole
// coefficient a = RC / (RC + dt). Cutoffs at or above Nyquist are clamped.
func HighpassCoefficient(cutoffHz float64, sampleRate int) float64 {
	if cutoffHz <= 0 {
		return 1.0
	}
	cutoffHz = math.Min(cutoffHz, float64(sampleRate)/2)
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	dt := 1.0 / float64(sampleRate)
	return rc / (rc + dt)
}
