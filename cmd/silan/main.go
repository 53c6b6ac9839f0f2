package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/cli"
	"github.com/x42/silan/internal/config"
	"github.com/x42/silan/internal/logging"
	"github.com/x42/silan/internal/observe"
	"github.com/x42/silan/internal/processor"
	"github.com/x42/silan/internal/ui"
)

var (
	version = "0.5.0"
)

// CLI defines the command-line interface. Empty string flags fall back to the
// settings file, then to the built-in defaults.
type CLI struct {
	Format       string `group:"output" short:"f" help:"Output format: samples, seconds, audacity or json (default samples)."`
	Threshold    string `group:"detect" short:"s" placeholder:"LEVEL" help:"Silence threshold, linear or dB with a d suffix (default 0.0005)."`
	Holdoff      string `group:"detect" short:"t" placeholder:"SECONDS" help:"Time a level change must persist before it counts (default 0.3)."`
	Filter       string `group:"detect" short:"F" help:"High-pass filter: coefficient, cutoff like 120hz, auto or off (default 0.98)."`
	Bounds       bool   `group:"detect" short:"b" help:"Only report the first onset and the last offset."`
	Fast         bool   `group:"detect" help:"Find the last offset by reading backwards from the end (implies --bounds)."`
	InitialState bool   `group:"output" help:"Report an Off at the start when the file begins in silence."`
	Progress     bool   `group:"output" short:"p" help:"Show a progress view on the terminal."`
	Config       string `short:"c" type:"path" help:"Path to a YAML settings file (optional)."`
	Stats        bool   `group:"output" help:"Collect metrics and print them with the run report."`
	Report       bool   `group:"output" help:"Print a run report to stderr."`
	Rate         int    `group:"input" default:"48000" help:"Sample rate of raw input on stdin."`
	Channels     int    `group:"input" default:"1" help:"Channel count of raw input on stdin."`
	Verbose      int    `short:"v" type:"counter" help:"Increase diagnostic output."`
	Version      bool   `short:"V" help:"Show version information."`
	File         string `arg:"" name:"file" optional:"" help:"WAV file to analyze, or - for raw float32 PCM on stdin."`
}

func main() {
	os.Exit(run())
}

func run() int {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("silan"),
		kong.Description("Audiofile silence analyzer"),
		kong.UsageOnError(),
		kong.ExplicitGroups([]kong.Group{
			{Key: "detect", Title: "Detection"},
			{Key: "output", Title: "Output"},
			{Key: "input", Title: "Raw input"},
		}),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(os.Stdout, version)
		return 0
	}

	if cliArgs.File == "" {
		cli.PrintError(os.Stderr, "No input file specified")
		_ = kctx.PrintUsage(false)
		return 1
	}

	cfg, err := loadConfig(cliArgs)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}
	settings, err := config.Resolve(*cfg, nil)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}
	if d := settings.Mains; d != nil && d.Guessed {
		zone := d.Timezone
		if zone == "" {
			zone = "unknown time zone"
		}
		cli.PrintWarning(os.Stderr, fmt.Sprintf("mains frequency for %s guessed as %d Hz; set --filter explicitly if hum leaks through", zone, d.Hz))
	}

	showProgress := cliArgs.Progress
	if showProgress && !isatty.IsTerminal(os.Stderr.Fd()) {
		cli.PrintWarning(os.Stderr, "progress view needs a terminal on stderr, disabled")
		showProgress = false
	}

	// Diagnostics would tear the progress view, so they wait until it exits.
	var held bytes.Buffer
	var logOut io.Writer = os.Stderr
	if showProgress {
		logOut = &held
	}
	log := logging.NewLogger(logOut, settings.LogLevel, cliArgs.Verbose)

	dec, err := openInput(cliArgs)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}
	defer dec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder *observe.Recorder
	opts := processor.Options{Logger: log}
	if cliArgs.Stats {
		recorder, err = observe.NewRecorder()
		if err != nil {
			cli.PrintError(os.Stderr, err.Error())
			return 1
		}
		defer recorder.Shutdown(context.Background())
		opts.Metrics = recorder.Metrics
	}

	// Events stay in memory until the run succeeds; a failed run prints none.
	var out bytes.Buffer
	sink, err := logging.NewSink(settings.Format, &out)
	if err != nil {
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}

	start := time.Now()
	var sum *processor.Summary
	if showProgress {
		sum, err = runWithProgress(ctx, cliArgs.File, settings.Analyzer, opts, dec, sink)
	} else {
		var analyzer *processor.Analyzer
		analyzer, err = processor.NewAnalyzer(settings.Analyzer, opts)
		if err == nil {
			sum, err = analyzer.Run(ctx, dec, sink)
		}
	}
	end := time.Now()
	_, _ = held.WriteTo(os.Stderr)

	err = commitOutput(os.Stdout, &out, err)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			cli.PrintError(os.Stderr, "interrupted")
			return 130
		}
		cli.PrintError(os.Stderr, err.Error())
		return 1
	}

	if cliArgs.Report || cliArgs.Stats {
		data := logging.ReportData{
			InputPath: cliArgs.File,
			Info:      dec.Info(),
			Config:    settings.Analyzer,
			Highpass:  settings.Analyzer.Coefficient(dec.Info().SampleRate),
			StartTime: start,
			EndTime:   end,
			Summary:   sum,
		}
		if recorder != nil {
			if data.Metrics, err = recorder.Collect(context.Background()); err != nil {
				log.Warn("metrics unavailable", "error", err)
			}
		}
		if err := logging.WriteReport(os.Stderr, data); err != nil {
			log.Error("write report", "error", err)
		}
	}
	return 0
}

// commitOutput writes the buffered events to w when the run completed and
// discards them otherwise.
func commitOutput(w io.Writer, events *bytes.Buffer, runErr error) error {
	if runErr != nil {
		events.Reset()
		return runErr
	}
	if _, err := events.WriteTo(w); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// loadConfig reads the optional settings file and applies command-line
// overrides on top of it.
func loadConfig(c *CLI) (*config.Config, error) {
	cfg := config.Defaults()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if c.Format != "" {
		cfg.Format = c.Format
	}
	if c.Threshold != "" {
		cfg.Threshold = c.Threshold
	}
	if c.Holdoff != "" {
		h, err := strconv.ParseFloat(c.Holdoff, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid holdoff %q: %w", c.Holdoff, err)
		}
		cfg.Holdoff = h
	}
	if c.Filter != "" {
		cfg.Filter = c.Filter
	}
	switch {
	case c.Fast:
		cfg.Mode = processor.ModeBoundsFast
	case c.Bounds:
		cfg.Mode = processor.ModeBounds
	}
	if c.InitialState {
		cfg.InitialState = true
	}
	return &cfg, nil
}

func openInput(c *CLI) (audio.Decoder, error) {
	if c.File == "-" {
		return audio.OpenStdin(c.Rate, c.Channels)
	}
	return audio.Open(c.File)
}

// runWithProgress runs the analysis in the background while the progress view
// owns the terminal. Output stays in the sink's buffer until the view exits.
func runWithProgress(ctx context.Context, path string, cfg processor.Config, opts processor.Options, dec audio.Decoder, sink processor.Sink) (*processor.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	teaOpts := []tea.ProgramOption{tea.WithOutput(os.Stderr), tea.WithContext(ctx)}
	if path == "-" {
		// stdin carries the audio
		teaOpts = append(teaOpts, tea.WithInput(nil))
	}
	p := tea.NewProgram(ui.NewModel(path), teaOpts...)

	opts.Progress = ui.ProgressFunc(p.Send)
	analyzer, err := processor.NewAnalyzer(cfg, opts)
	if err != nil {
		return nil, err
	}

	type result struct {
		sum *processor.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		p.Send(ui.ScanStartMsg{FileName: path, Info: dec.Info(), Mode: cfg.Mode})
		sum, err := analyzer.Run(ctx, dec, ui.TeeSink{Out: sink, Send: p.Send})
		p.Send(ui.ScanCompleteMsg{Summary: sum, Err: err})
		done <- result{sum, err}
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	if m, ok := final.(ui.Model); !ok || !m.Done {
		// Quit from the keyboard before the scan finished.
		cancel()
	}
	r := <-done
	return r.sum, r.err
}
