// Package config defines the silan settings file and turns settings from the
// file and the command line into an analyzer configuration.
//
// A settings file only supplies defaults; command-line flags win:
//
//	threshold: -60d
//	holdoff: 0.5
//	filter: auto
//	mode: bounds-fast
//	format: audacity
//	log_level: info
package config

import (
	"log/slog"

	"github.com/x42/silan/internal/processor"
)

// LogLevel controls diagnostic verbosity before any -v flags are applied.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to its slog level. Unknown values map to warn.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogInfo:
		return slog.LevelInfo
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Config is the settings file layout. Threshold and Filter keep their textual
// form so that decibel and cutoff notations survive until [Resolve].
type Config struct {
	// Threshold is a linear RMS level ("0.0005") or decibels with a d
	// suffix ("-66d").
	Threshold string `yaml:"threshold"`

	// Holdoff is in seconds.
	Holdoff float64 `yaml:"holdoff"`

	// Filter is a high-pass coefficient ("0.98"), a cutoff ("120hz"),
	// "auto" for a cutoff above the local mains hum, or "off".
	Filter string `yaml:"filter"`

	Mode         processor.Mode `yaml:"mode"`
	Format       string         `yaml:"format"`
	InitialState bool           `yaml:"initial_state"`
	BlockFrames  int            `yaml:"block_frames"`
	LogLevel     LogLevel       `yaml:"log_level"`
}

// Defaults returns the stock settings.
func Defaults() Config {
	d := processor.DefaultConfig()
	return Config{
		Threshold:   "0.0005",
		Holdoff:     d.HoldoffSec,
		Filter:      "0.98",
		Mode:        d.Mode,
		Format:      "samples",
		BlockFrames: d.BlockFrames,
		LogLevel:    LogWarn,
	}
}
