package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/x42/silan/internal/audio"
)

const barWidth = 40

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2E8B57"))
	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2E8B57")).
			Padding(0, 1).
			Width(60)
)

// renderScanView renders the view while analysis runs
func renderScanView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	var content strings.Builder
	if n := len(m.Passes); n > 0 {
		cur := m.Passes[n-1]
		content.WriteString(fmt.Sprintf("Pass %d: %s\n", n, cur.Pass))
		content.WriteString(renderProgressBar(cur.Progress, barWidth))
		content.WriteString("\n\n")
	} else {
		spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).
			Render(spinnerFrames[m.spinnerIndex])
		content.WriteString(fmt.Sprintf("%s Scanning %s\n\n", spinner, streamLength(m.Info)))
	}

	content.WriteString(fmt.Sprintf("⏱  Elapsed: %s | Boundaries: %d", formatElapsed(time.Since(m.StartTime)), m.Events))
	if m.LastEvent != nil && m.Info.SampleRate > 0 {
		content.WriteString(fmt.Sprintf("\n   Last: %s at %.3fs",
			m.LastEvent.Kind, float64(m.LastEvent.Frame)/float64(m.Info.SampleRate)))
	}

	b.WriteString(boxStyle.Render(content.String()))
	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := titleStyle.Render("Silan - Silence Analyzer")
	sub := m.FileName
	if m.Info.SampleRate > 0 {
		sub = fmt.Sprintf("%s | %d Hz, %d ch | mode %s", m.FileName, m.Info.SampleRate, m.Info.Channels, m.Mode)
	}
	return title + "\n" + subtleStyle.Render(sub)
}

// renderCompletion renders the final state
func renderCompletion(m Model) string {
	var b strings.Builder
	if m.Err != nil {
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		b.WriteString(fmt.Sprintf(" %s %s\n   Error: %v\n", icon, m.FileName, m.Err))
		return b.String()
	}

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
	b.WriteString(fmt.Sprintf(" %s %s analyzed in %s\n", icon, m.FileName, formatElapsed(time.Since(m.StartTime))))
	if s := m.Summary; s != nil {
		if s.Onset < 0 && s.Offset < 0 {
			b.WriteString("   No sound above threshold\n")
		} else {
			b.WriteString(fmt.Sprintf("   %d boundaries | %d frames decoded\n", s.Events, s.FramesDecoded))
		}
	}
	return b.String()
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	bar := lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s %3d%%", bar, int(progress*100))
}

// formatElapsed formats duration as MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d", m, s)
}

func streamLength(info audio.StreamInfo) string {
	if info.Frames == audio.UnknownFrames || info.SampleRate == 0 {
		return "stream of unknown length"
	}
	return fmt.Sprintf("%.1fs of audio", float64(info.Frames)/float64(info.SampleRate))
}
