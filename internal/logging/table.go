// Package logging formats what an analysis run produced: the event stream in
// the supported output formats, the optional run report, and the diagnostic
// logger. This file contains the aligned table used by the report.

package logging

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow represents a single row in a report table.
// Values are pre-formatted strings to allow for mixed formatting (frames, seconds, dB).
type MetricRow struct {
	Label          string   // Row label, e.g., "First onset"
	Values         []string // One value per column
	Unit           string   // Unit suffix, e.g., "s", "dBFS", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for report sections.
// Handles variable column widths, missing values, and optional interpretation column.
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Frame", "Time"]
	Rows    []MetricRow // Data rows
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Units are appended after the last value column
// - Interpretation column only shown if any row has one
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasInterpretation := false
	for _, row := range t.Rows {
		if row.Interpretation != "" {
			hasInterpretation = true
			break
		}
	}

	labelWidth := 0
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	unitWidth := 0
	for _, row := range t.Rows {
		unitWidth = max(unitWidth, len(row.Unit))
	}

	var sb strings.Builder

	// Header row
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", valueWidths[i], header)
	}
	if unitWidth > 0 {
		sb.WriteString(strings.Repeat(" ", unitWidth+1))
	}
	if hasInterpretation {
		sb.WriteString("Interpretation")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "%-*s  ", labelWidth, row.Label)

		for i := 0; i < len(t.Headers); i++ {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			fmt.Fprintf(&sb, "%*s  ", valueWidths[i], val)
		}

		if unitWidth > 0 {
			fmt.Fprintf(&sb, "%-*s ", unitWidth, row.Unit)
		}
		if hasInterpretation {
			sb.WriteString(row.Interpretation)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// =============================================================================
// Metric Formatting Helpers
// =============================================================================

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS level below which a threshold is shown
// as digital silence.
const DigitalSilenceThreshold = -120.0

// formatMetric formats a numeric value with appropriate precision.
// Handles:
// - Regular floats: formatted to specified decimal places
// - Very small values (< 0.0001): scientific notation
// - NaN/Inf: returns MissingValue
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatLinearDB formats a linear amplitude (0.0-1.0 scale) in dBFS.
// Zero shows "< -120" instead of -Inf.
func formatLinearDB(value float64, decimals int) string {
	if math.IsNaN(value) {
		return MissingValue
	}
	if value <= 0 {
		return "< -120"
	}
	dB := 20.0 * math.Log10(value)
	if dB < DigitalSilenceThreshold {
		return "< -120"
	}
	return fmt.Sprintf("%.*f", decimals, dB)
}

// formatFrame formats a frame position, with -1 meaning absent.
func formatFrame(frame int64) string {
	if frame < 0 {
		return MissingValue
	}
	return fmt.Sprintf("%d", frame)
}

// formatSeconds converts a frame position to seconds at rate.
func formatSeconds(frame int64, rate int) string {
	if frame < 0 || rate <= 0 {
		return MissingValue
	}
	return formatMetric(float64(frame)/float64(rate), 3)
}

// =============================================================================
// Table Builder Helpers
// =============================================================================

// NewMetricTable creates a MetricTable with the given column headers.
func NewMetricTable(headers ...string) *MetricTable {
	return &MetricTable{
		Headers: headers,
		Rows:    make([]MetricRow, 0),
	}
}

// AddRow adds a row to the table with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMetricRow adds a row with numeric values, formatting them automatically.
// Pass math.NaN() for missing values - they will display as "-".
func (t *MetricTable) AddMetricRow(label string, values []float64, decimals int, unit string, interpretation string) {
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = formatMetric(v, decimals)
	}
	t.AddRow(label, formatted, unit, interpretation)
}
