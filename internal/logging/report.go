// Package logging handles generation of run reports for analysed audio files

package logging

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/x42/silan/internal/audio"
	"github.com/x42/silan/internal/observe"
	"github.com/x42/silan/internal/processor"
)

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains everything needed to describe one analysis run.
type ReportData struct {
	InputPath string
	Info      audio.StreamInfo
	Config    processor.Config
	Highpass  float64 // resolved coefficient
	StartTime time.Time
	EndTime   time.Time
	Summary   *processor.Summary
	Metrics   []observe.Sample // optional, from observe.Recorder.Collect
}

// WriteReport writes the run report to w.
//
// Report structure:
// 1. Header - file info
// 2. Settings - detection parameters in effect
// 3. Scan Summary - passes, decoded frames, timing
// 4. Boundaries - first onset and last offset
// 5. Metrics - recorded instruments, when collected
func WriteReport(w io.Writer, data ReportData) error {
	var buf bytes.Buffer

	writeReportHeader(&buf, data)
	writeSettings(&buf, data)
	if data.Summary != nil {
		writeScanSummary(&buf, data)
		writeBoundaries(&buf, data.Summary)
	}
	if len(data.Metrics) > 0 {
		writeMetrics(&buf, data.Metrics)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// =============================================================================
// Report Section Writers
// =============================================================================

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Silan Analysis Report")
	fmt.Fprintln(w, "=====================")
	name := data.InputPath
	if name != "-" {
		name = filepath.Base(name)
	}
	fmt.Fprintf(w, "File: %s\n", name)
	fmt.Fprintf(w, "Format: %d Hz, %s\n", data.Info.SampleRate, channelName(data.Info.Channels))
	if data.Info.KnownLength() && data.Info.SampleRate > 0 {
		secs := data.Info.Seconds(data.Info.Frames)
		fmt.Fprintf(w, "Duration: %s (%d frames)\n", formatDuration(time.Duration(secs*float64(time.Second))), data.Info.Frames)
	} else {
		fmt.Fprintln(w, "Duration: unknown (stream)")
	}
	fmt.Fprintln(w, "")
}

func writeSettings(w io.Writer, data ReportData) {
	writeSection(w, "Settings")
	cfg := data.Config
	table := NewMetricTable("Value")
	table.AddRow("Threshold", []string{formatLinearDB(cfg.Threshold, 1)}, "dBFS", formatMetric(cfg.Threshold, 6)+" linear")
	table.AddMetricRow("Holdoff", []float64{cfg.HoldoffSec}, 3, "s", "")
	interp := ""
	if cfg.HighpassCutoffHz > 0 {
		interp = fmt.Sprintf("from %.0f Hz cutoff", cfg.HighpassCutoffHz)
	} else if data.Highpass >= 1 {
		interp = "filter disabled"
	}
	table.AddMetricRow("High-pass coefficient", []float64{data.Highpass}, 4, "", interp)
	table.AddRow("Mode", []string{string(cfg.Mode)}, "", "")
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeScanSummary(w io.Writer, data ReportData) {
	sum := data.Summary
	writeSection(w, "Scan Summary")

	passes := make([]string, len(sum.Passes))
	for i, p := range sum.Passes {
		passes[i] = p.String()
	}
	fmt.Fprintf(w, "Passes:         %s\n", strings.Join(passes, " → "))
	fmt.Fprintf(w, "Frames decoded: %d", sum.FramesDecoded)
	if sum.FramesExpected > 0 {
		fmt.Fprintf(w, " (%.0f%% of stream)", 100*float64(sum.FramesDecoded)/float64(sum.FramesExpected))
	}
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Events:         %d\n", sum.Events)

	switch {
	case sum.BackwardConfirmed:
		fmt.Fprintln(w, "Backward scan:  confirmed last offset")
	case sum.FellBack:
		fmt.Fprintln(w, "Backward scan:  fell back to forward scan")
	}
	if sum.FrameMismatch {
		fmt.Fprintf(w, "Frame count:    MISMATCH decoded %d, header %d\n", sum.EndFrame, sum.FramesExpected)
	}

	total := data.EndTime.Sub(data.StartTime)
	if total > 0 {
		fmt.Fprintf(w, "Total:          %s", formatDuration(total))
		if data.Info.KnownLength() && data.Info.SampleRate > 0 {
			audioDuration := time.Duration(data.Info.Seconds(data.Info.Frames) * float64(time.Second))
			fmt.Fprintf(w, " (%.0fx real-time)", float64(audioDuration)/float64(total))
		}
		fmt.Fprintln(w, "")
	}
	fmt.Fprintln(w, "")
}

func writeBoundaries(w io.Writer, sum *processor.Summary) {
	writeSection(w, "Boundaries")
	if sum.Onset < 0 {
		fmt.Fprintln(w, "No sound above threshold.")
		fmt.Fprintln(w, "")
		return
	}
	table := NewMetricTable("Frame", "Time")
	table.AddRow("First onset", []string{formatFrame(sum.Onset), formatSeconds(sum.Onset, sum.SampleRate)}, "s", "")
	table.AddRow("Last offset", []string{formatFrame(sum.Offset), formatSeconds(sum.Offset, sum.SampleRate)}, "s", "")
	if sum.Offset >= sum.Onset {
		span := sum.Offset - sum.Onset
		table.AddRow("Sound span", []string{formatFrame(span), formatSeconds(span, sum.SampleRate)}, "s", "")
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeMetrics(w io.Writer, samples []observe.Sample) {
	writeSection(w, "Metrics")
	table := NewMetricTable("Value")
	for _, s := range samples {
		label := s.Name
		if s.Attrs != "" {
			label += " {" + s.Attrs + "}"
		}
		unit := strings.Trim(s.Unit, "{}")
		table.AddMetricRow(label, []float64{s.Value}, metricDecimals(s.Value), unit, "")
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// metricDecimals prints whole counts without a fraction.
func metricDecimals(v float64) int {
	if v == float64(int64(v)) {
		return 0
	}
	return 3
}
