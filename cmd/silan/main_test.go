package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/x42/silan/internal/config"
	"github.com/x42/silan/internal/processor"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silan.yaml")
	if err := os.WriteFile(path, []byte("threshold: -60d\nformat: json\nmode: bounds\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cli  CLI
		want func(*config.Config) bool
	}{
		{
			name: "defaults",
			cli:  CLI{},
			want: func(c *config.Config) bool { return *c == config.Defaults() },
		},
		{
			name: "file only",
			cli:  CLI{Config: path},
			want: func(c *config.Config) bool {
				return c.Threshold == "-60d" && c.Format == "json" && c.Mode == processor.ModeBounds
			},
		},
		{
			name: "flags win",
			cli:  CLI{Config: path, Format: "audacity", Holdoff: "0.5", Fast: true, InitialState: true},
			want: func(c *config.Config) bool {
				return c.Threshold == "-60d" && c.Format == "audacity" && c.Holdoff == 0.5 &&
					c.Mode == processor.ModeBoundsFast && c.InitialState
			},
		},
		{
			name: "bounds flag",
			cli:  CLI{Bounds: true, Filter: "auto", Threshold: "0.01"},
			want: func(c *config.Config) bool {
				return c.Mode == processor.ModeBounds && c.Filter == "auto" && c.Threshold == "0.01"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(&tt.cli)
			if err != nil {
				t.Fatal(err)
			}
			if !tt.want(cfg) {
				t.Errorf("config = %+v", *cfg)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(&CLI{Holdoff: "long"}); err == nil {
		t.Error("non-numeric holdoff accepted")
	}
	if _, err := loadConfig(&CLI{Config: filepath.Join(t.TempDir(), "none.yaml")}); err == nil {
		t.Error("missing settings file accepted")
	}
}

func TestCommitOutput(t *testing.T) {
	var events bytes.Buffer
	events.WriteString("     3000 On\n")

	var stdout bytes.Buffer
	runErr := errors.New("decode failed at frame 4096")
	if err := commitOutput(&stdout, &events, runErr); !errors.Is(err, runErr) {
		t.Errorf("commitOutput error = %v, want the run error", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("failed run wrote %q", stdout.String())
	}

	events.WriteString("     3000 On\n     7019 Off\n")
	if err := commitOutput(&stdout, &events, nil); err != nil {
		t.Fatal(err)
	}
	if got := stdout.String(); got != "     3000 On\n     7019 Off\n" {
		t.Errorf("stdout = %q", got)
	}
}
