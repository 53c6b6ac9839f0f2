package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/x42/silan/internal/logging"
	"github.com/x42/silan/internal/mains"
	"github.com/x42/silan/internal/processor"
)

// ParseThreshold parses a linear level in [0, 1] or a decibel value with a
// trailing d. The sign of a decibel value is ignored: "-66d" and "66d" both
// mean 10^(-66/20).
func ParseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty threshold")
	}

	var v float64
	lower := strings.ToLower(s)
	db, ok := strings.CutSuffix(lower, "db")
	if !ok {
		db, ok = strings.CutSuffix(lower, "d")
	}
	if ok {
		x, err := strconv.ParseFloat(db, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decibel threshold %q", s)
		}
		v = math.Pow(10, -math.Abs(x)/20)
	} else {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid threshold %q", s)
		}
		v = x
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, fmt.Errorf("threshold %q out of range [0, 1]", s)
	}
	return v, nil
}

// FilterKind says how a high-pass filter setting was given.
type FilterKind int

const (
	FilterCoefficient FilterKind = iota // explicit coefficient a
	FilterCutoff                        // cutoff frequency in Hz
	FilterAuto                          // cutoff above the local mains frequency
)

// Filter is a parsed high-pass filter setting.
type Filter struct {
	Kind        FilterKind
	Coefficient float64 // FilterCoefficient only
	CutoffHz    float64 // FilterCutoff only
}

// ParseFilter parses a coefficient in (0, 1], a cutoff such as "120hz",
// "auto", or "off" (coefficient 1).
func ParseFilter(s string) (Filter, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return Filter{}, errors.New("empty filter setting")
	case "auto":
		return Filter{Kind: FilterAuto}, nil
	case "off", "none":
		return Filter{Kind: FilterCoefficient, Coefficient: 1}, nil
	}

	if hz, ok := strings.CutSuffix(v, "hz"); ok {
		fc, err := strconv.ParseFloat(strings.TrimSpace(hz), 64)
		if err != nil || math.IsNaN(fc) || math.IsInf(fc, 0) || fc <= 0 {
			return Filter{}, fmt.Errorf("invalid cutoff %q, need a positive frequency", s)
		}
		return Filter{Kind: FilterCutoff, CutoffHz: fc}, nil
	}

	a, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(a) || a <= 0 || a > 1 {
		return Filter{}, fmt.Errorf("invalid high-pass filter coefficient %q, need 0 < value <= 1.0", s)
	}
	return Filter{Kind: FilterCoefficient, Coefficient: a}, nil
}

// Settings is a fully resolved run configuration.
type Settings struct {
	Analyzer processor.Config
	Format   logging.Format
	LogLevel slog.Level

	// Mains is set when the filter cutoff came from mains detection.
	Mains *mains.Detection
}

// Resolve converts cfg into analyzer settings. detect is consulted only for
// the auto filter; nil means [mains.Detect].
func Resolve(cfg Config, detect func() mains.Detection) (Settings, error) {
	if err := Validate(&cfg); err != nil {
		return Settings{}, err
	}
	threshold, _ := ParseThreshold(cfg.Threshold)
	filter, _ := ParseFilter(cfg.Filter)
	format, _ := logging.ParseFormat(cfg.Format)

	s := Settings{
		Analyzer: processor.Config{
			Threshold:           threshold,
			HoldoffSec:          cfg.Holdoff,
			Highpass:            1,
			Mode:                cfg.Mode,
			IncludeInitialState: cfg.InitialState,
			BlockFrames:         cfg.BlockFrames,
		},
		Format:   format,
		LogLevel: cfg.LogLevel.Level(),
	}

	switch filter.Kind {
	case FilterCoefficient:
		s.Analyzer.Highpass = filter.Coefficient
	case FilterCutoff:
		s.Analyzer.HighpassCutoffHz = filter.CutoffHz
	case FilterAuto:
		if detect == nil {
			detect = mains.Detect
		}
		d := detect()
		s.Mains = &d
		s.Analyzer.HighpassCutoffHz = d.Cutoff()
	}

	if err := s.Analyzer.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
