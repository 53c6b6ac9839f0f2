package logging

import (
	"math"
	"strings"
	"testing"
)

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     string
	}{
		{"zero", 0.0, 2, "0.00"},
		{"positive", 3.14159, 2, "3.14"},
		{"negative", -16.5, 1, "-16.5"},
		{"large", 12345.6789, 2, "12345.68"},
		{"small_normal", 0.001, 3, "0.001"},
		{"very_small_scientific", 0.00001, 2, "1.00e-05"},
		{"very_small_negative", -0.00001, 2, "-1.00e-05"},
		{"nan", math.NaN(), 2, MissingValue},
		{"positive_inf", math.Inf(1), 2, MissingValue},
		{"negative_inf", math.Inf(-1), 2, MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetric(tt.value, tt.decimals)
			if got != tt.want {
				t.Errorf("formatMetric(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatLinearDB(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     string
	}{
		{"full_scale", 1.0, 1, "0.0"},
		{"half", 0.5, 1, "-6.0"},
		{"default_threshold", 0.0005, 1, "-66.0"},
		{"zero", 0, 1, "< -120"},
		{"below_floor", 1e-7, 1, "< -120"},
		{"nan", math.NaN(), 1, MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatLinearDB(tt.value, tt.decimals)
			if got != tt.want {
				t.Errorf("formatLinearDB(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatFrameAndSeconds(t *testing.T) {
	if got := formatFrame(-1); got != MissingValue {
		t.Errorf("formatFrame(-1) = %q", got)
	}
	if got := formatFrame(44100); got != "44100" {
		t.Errorf("formatFrame(44100) = %q", got)
	}
	if got := formatSeconds(66150, 44100); got != "1.500" {
		t.Errorf("formatSeconds(66150, 44100) = %q, want 1.500", got)
	}
	if got := formatSeconds(100, 0); got != MissingValue {
		t.Errorf("formatSeconds with zero rate = %q", got)
	}
}

func TestMetricTableString(t *testing.T) {
	t.Run("basic_two_column", func(t *testing.T) {
		table := NewMetricTable("Frame", "Time")
		table.AddRow("First onset", []string{"132300", "3.000"}, "s", "")
		table.AddRow("Last offset", []string{"308700", "7.000"}, "s", "")

		output := table.String()

		for _, want := range []string{"Frame", "Time", "First onset", "308700", "7.000", "s"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("with_interpretation", func(t *testing.T) {
		table := NewMetricTable("Value")
		table.AddRow("High-pass coefficient", []string{"0.9800"}, "", "from 143 Hz cutoff")

		output := table.String()

		if !strings.Contains(output, "Interpretation") {
			t.Error("Output should contain 'Interpretation' header when rows have interpretations")
		}
		if !strings.Contains(output, "from 143 Hz cutoff") {
			t.Error("Output should contain interpretation text")
		}
	})

	t.Run("missing_values", func(t *testing.T) {
		table := NewMetricTable("Frame", "Time", "Delta")
		table.AddRow("Last offset", []string{"100", ""}, "s", "")

		output := table.String()

		if !strings.Contains(output, " -  ") {
			t.Error("Missing values should display as dash")
		}
	})

	t.Run("empty_table", func(t *testing.T) {
		table := NewMetricTable("Value")
		if output := table.String(); output != "" {
			t.Errorf("Empty table should return empty string, got %q", output)
		}
	})

	t.Run("add_metric_row_with_nan", func(t *testing.T) {
		table := NewMetricTable("A", "B", "C")
		table.AddMetricRow("Test", []float64{-23.5, math.NaN(), -16.0}, 1, "dB", "")

		lines := strings.Split(table.String(), "\n")
		if len(lines) < 2 {
			t.Fatal("Expected at least 2 lines (header + data)")
		}
		dataLine := lines[1]
		if !strings.Contains(dataLine, "-23.5") || !strings.Contains(dataLine, "-16.0") {
			t.Errorf("values not formatted in %q", dataLine)
		}
		if !strings.Contains(dataLine, " -  ") {
			t.Errorf("NaN value should display as dash in: %q", dataLine)
		}
	})
}

func TestMetricTableAlignment(t *testing.T) {
	table := NewMetricTable("Value")
	table.AddRow("Short", []string{"1"}, "", "")
	table.AddRow("Much Longer Label", []string{"100000"}, "", "")

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines (header + 2 data), got %d", len(lines))
	}

	// right-aligned values end in the same column
	end := strings.LastIndex(lines[1], "1")
	if got := strings.LastIndex(lines[2], "0"); got != end {
		t.Errorf("value columns misaligned: %q vs %q", lines[1], lines[2])
	}
}
