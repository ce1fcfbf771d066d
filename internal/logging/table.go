// Package logging writes restoration reports, scan summaries and the debug log.
// This file holds the aligned multi-column tables used by both the report and
// the console scan (Input → Declicked → Final).

package logging

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow is one table row. Values are pre-formatted so rows can mix precisions.
type MetricRow struct {
	Label          string   // e.g. "Peak Level"
	Values         []string // One per column
	Unit           string   // e.g. "dBFS"; empty for unitless rows
	Interpretation string   // Optional trailing note
}

// MetricTable renders rows as aligned columns
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// String renders the table. Labels are left-aligned and values right-aligned;
// the unit column and interpretation column appear only when some row uses them.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth, unitWidth := 0, 0
	hasInterpretation := false
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
		unitWidth = max(unitWidth, len(row.Unit))
		hasInterpretation = hasInterpretation || row.Interpretation != ""
		for i, v := range row.Values {
			if i < len(widths) {
				widths[i] = max(widths[i], len(v))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, h := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", widths[i], h)
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
		for i := range t.Headers {
			v := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				v = row.Values[i]
			}
			fmt.Fprintf(&sb, "%*s  ", widths[i], v)
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

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS floor of every level measurement
const DigitalSilenceThreshold = -120.0

func isDigitalSilence(value float64) bool {
	return math.IsInf(value, -1) || value <= DigitalSilenceThreshold
}

// formatMetric formats a value to the given decimals, using scientific notation
// for tiny non-zero values and MissingValue for NaN/Inf.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricDB formats a level, showing "< -120" at the measurement floor
func formatMetricDB(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if isDigitalSilence(value) {
		return "< -120"
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a change with an explicit sign, e.g. "+2.5"
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// formatPercent formats a 0..1 fraction as a percentage
func formatPercent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// NewMetricTable creates a table with the given column headers, defaulting to
// the three pipeline stages.
func NewMetricTable(headers ...string) *MetricTable {
	if len(headers) == 0 {
		headers = []string{"Input", "Declicked", "Final"}
	}
	return &MetricTable{Headers: headers}
}

// AddRow adds a row of pre-formatted values
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddDBRow adds a row of levels, one per column. NaN shows as MissingValue.
func (t *MetricTable) AddDBRow(label string, values []float64, decimals int, interpretation string) {
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = formatMetricDB(v, decimals)
	}
	t.AddRow(label, formatted, "dBFS", interpretation)
}

// AddMetricRow adds a row of plain numbers, one per column. NaN shows as MissingValue.
func (t *MetricTable) AddMetricRow(label string, values []float64, decimals int, unit string, interpretation string) {
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = formatMetric(v, decimals)
	}
	t.AddRow(label, formatted, unit, interpretation)
}
