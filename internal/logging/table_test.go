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
		{"very_small_scientific", 0.00001, 2, "1.00e-05"},
		{"nan", math.NaN(), 2, MissingValue},
		{"negative_inf", math.Inf(-1), 2, MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMetric(tt.value, tt.decimals); got != tt.want {
				t.Errorf("formatMetric(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatMetricDB(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"level", -23.456, "-23.5"},
		{"floor", -120, "< -120"},
		{"negative_inf", math.Inf(-1), "< -120"},
		{"positive_inf", math.Inf(1), MissingValue},
		{"nan", math.NaN(), MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMetricDB(tt.value, 1); got != tt.want {
				t.Errorf("formatMetricDB(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatMetricSigned(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{2.5, "+2.5"},
		{-1.2, "-1.2"},
		{0, "+0.0"},
		{math.NaN(), MissingValue},
	}
	for _, tt := range tests {
		if got := formatMetricSigned(tt.value, 1); got != tt.want {
			t.Errorf("formatMetricSigned(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(0.1234); got != "12.3%" {
		t.Errorf("formatPercent(0.1234) = %q, want 12.3%%", got)
	}
	if got := formatPercent(math.NaN()); got != MissingValue {
		t.Errorf("formatPercent(NaN) = %q, want %q", got, MissingValue)
	}
}

func TestMetricTableString(t *testing.T) {
	t.Run("default_headers", func(t *testing.T) {
		table := NewMetricTable()
		table.AddDBRow("Peak Level", []float64{-0.1, -6.2, -6.4}, 1, "")
		table.AddDBRow("RMS Trough", []float64{-62.0, -61.8, math.Inf(-1)}, 1, "")

		output := table.String()
		for _, want := range []string{"Input", "Declicked", "Final", "Peak Level", "-6.2", "dBFS", "< -120"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Interpretation") {
			t.Error("Interpretation header shown without any interpretations")
		}
	})

	t.Run("custom_headers_with_interpretation", func(t *testing.T) {
		table := NewMetricTable("Pass 1", "Pass 2")
		table.AddRow("150-212 Hz", []string{"3", "0"}, "", "mains hum region")

		output := table.String()
		if !strings.Contains(output, "Pass 2") || !strings.Contains(output, "Interpretation") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})

	t.Run("missing_values", func(t *testing.T) {
		table := NewMetricTable()
		table.AddMetricRow("Crest Factor", []float64{12.1, math.NaN()}, 1, "dB", "")

		lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want header and one row", len(lines))
		}
		// NaN and the absent third value both render as dashes
		if n := strings.Count(lines[1], " - "); n < 1 {
			t.Errorf("missing values not shown as dashes: %q", lines[1])
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := NewMetricTable().String(); got != "" {
			t.Errorf("empty table rendered %q", got)
		}
	})
}

func TestMetricTableAlignment(t *testing.T) {
	table := NewMetricTable()
	table.AddRow("Short", []string{"1", "2", "3"}, "", "")
	table.AddRow("Much Longer Label", []string{"100", "200", "300"}, "", "")

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	// Values are right-aligned, so every row ends its last column at the same offset
	width := len(strings.TrimRight(lines[1], " "))
	if got := len(strings.TrimRight(lines[2], " ")); got != width {
		t.Errorf("rows end at %d and %d, want aligned", width, got)
	}
}

func TestIsDigitalSilence(t *testing.T) {
	tests := []struct {
		value float64
		want  bool
	}{
		{math.Inf(-1), true},
		{-150.0, true},
		{-120.0, true},
		{-119.9, false},
		{math.Inf(1), false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		if got := isDigitalSilence(tt.value); got != tt.want {
			t.Errorf("isDigitalSilence(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
