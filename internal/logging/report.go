// Package logging handles generation of restoration reports for processed audio files

package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/restorer/internal/mains"
	"github.com/linuxmatters/restorer/internal/processor"
)

// ReportData contains all the information needed to generate a restoration report
type ReportData struct {
	RunID      string // Shared by every file in one invocation
	InputPath  string
	OutputPath string
	StartTime  time.Time
	EndTime    time.Time
	Result     *processor.ProcessingResult
	Mains      mains.Detection
}

// ReportPath returns the report filename for an output file:
// show-restored.wav → show-restored.log
func ReportPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".log"
}

// GenerateReport writes the restoration report next to the output file.
//
// Report structure:
// 1. Header - file info, run ID and timestamp
// 2. Processing Summary - stage timings
// 3. Configuration - declick and gate parameters as applied
// 4. Level Measurements - Input/Declicked/Final table
// 5. Click Removal - clicks per band and pass
// 6. Noise Gate - per channel gain statistics
// 7. Restoration Tips
func GenerateReport(data ReportData) error {
	f, err := os.Create(ReportPath(data.OutputPath))
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return f.Close()
}

// WriteReport renders the report to w
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)

	result := data.Result
	if result == nil {
		return
	}
	if result.Config != nil {
		writeConfiguration(w, result.Config, data.Mains)
	}
	writeLevelTable(w, result)
	if result.DeclickStats != nil {
		writeClickTable(w, result.DeclickStats)
	}
	if result.GateStats != nil {
		writeGateTable(w, result.GateStats)
	}
	writeTips(w, TipsForResult(result, data.Mains.Hz))
}

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Restorer Report")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Output: %s\n", filepath.Base(data.OutputPath))
	if data.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", data.RunID)
	}
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if data.Result != nil && data.Result.Metadata != nil {
		meta := data.Result.Metadata
		fmt.Fprintf(w, "Source: %s, %d Hz, %d-bit, %s\n", meta.Format, meta.SampleRate, meta.BitDepth, channelName(meta.Channels))
		if meta.UsedChannels < meta.Channels {
			fmt.Fprintf(w, "Channels used: first %d of %d\n", meta.UsedChannels, meta.Channels)
		}
		fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(meta.Duration*float64(time.Second))))
	}
	fmt.Fprintln(w, "")
}

// writeProcessingSummary outputs the time spent in each stage.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	if data.Result != nil {
		t := data.Result.Timings
		fmt.Fprintf(w, "Load & analyse: %s\n", formatDuration(t.Analyze))
		fmt.Fprintf(w, "Declick:        %s\n", stageTime(t.Declick, data.Result.DeclickStats != nil))
		fmt.Fprintf(w, "Gate:           %s\n", stageTime(t.Gate, data.Result.GateStats != nil))
		fmt.Fprintf(w, "Write:          %s\n", formatDuration(t.Write))
	}

	total := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:          %s", formatDuration(total))
	if data.Result != nil && data.Result.Metadata != nil && total > 0 {
		audioDuration := time.Duration(data.Result.Metadata.Duration * float64(time.Second))
		fmt.Fprintf(w, " (%.0fx real-time)", float64(audioDuration)/float64(total))
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

func stageTime(d time.Duration, ran bool) string {
	if !ran {
		return "skipped"
	}
	return formatDuration(d)
}

// writeConfiguration lists the parameters the stages ran with
func writeConfiguration(w io.Writer, cfg *processor.Config, m mains.Detection) {
	writeSection(w, "Configuration")

	d := cfg.Declick
	if cfg.DeclickEnabled {
		fmt.Fprintf(w, "Declick: %d bands %.0f-%.0f Hz, %d passes\n", d.Bands, d.FreqLowHz, d.FreqHighHz, d.Passes)
		fmt.Fprintf(w, "  threshold %.3g, repair ±%d samples, separation %d samples, crossfade %.1f ms\n",
			d.Threshold, d.MaxSteps, d.Separation, d.CrossfadeMs)
	} else {
		fmt.Fprintln(w, "Declick: disabled")
	}

	g := cfg.Gate
	if cfg.GateEnabled {
		fmt.Fprintf(w, "Gate:    %s mode, threshold %.1f dB, reduction %.1f dB, %s\n", g.Mode, g.ThresholdDB, g.ReductionDB, g.StereoLink)
		fmt.Fprintf(w, "  attack %.0f ms, hold %.0f ms, decay %.0f ms", g.AttackMs, g.HoldMs, g.DecayMs)
		if g.GateFreqHz > 0 {
			fmt.Fprintf(w, ", detector low-pass %.0f Hz", g.GateFreqHz)
		}
		fmt.Fprintln(w, "")
	} else {
		fmt.Fprintln(w, "Gate:    disabled")
	}

	if m.Hz > 0 {
		source := m.Country
		if m.Guessed {
			source = "default"
		}
		fmt.Fprintf(w, "Mains:   %d Hz (%s)", m.Hz, source)
		if cfg.DeclickEnabled && mains.HumOverlap(d.FreqLowHz, m.Hz) {
			fmt.Fprintf(w, " - low band edge overlaps hum harmonics %v Hz", mains.Harmonics(m.Hz, d.FreqLowHz+float64(m.Hz)))
		}
		fmt.Fprintln(w, "")
	}
	fmt.Fprintln(w, "")
}

// writeLevelTable compares levels across the pipeline stages
func writeLevelTable(w io.Writer, result *processor.ProcessingResult) {
	writeSection(w, "Level Measurements")

	stages := []*processor.AudioMeasurements{result.Input, result.Declicked, result.Final}
	pick := func(f func(*processor.AudioMeasurements) float64) []float64 {
		out := make([]float64, len(stages))
		for i, m := range stages {
			out[i] = math.NaN()
			if m != nil {
				out[i] = f(m)
			}
		}
		return out
	}

	table := NewMetricTable()
	table.AddDBRow("Peak Level", pick(func(m *processor.AudioMeasurements) float64 { return m.PeakLevel }), 1, "")
	table.AddDBRow("RMS Level", pick(func(m *processor.AudioMeasurements) float64 { return m.RMSLevel }), 1, "")
	table.AddDBRow("RMS Peak", pick(func(m *processor.AudioMeasurements) float64 { return m.RMSPeak }), 1, "95th percentile of 50 ms windows")
	table.AddDBRow("RMS Trough", pick(func(m *processor.AudioMeasurements) float64 { return m.RMSTrough }), 1, "10th percentile, noise floor")
	table.AddMetricRow("Crest Factor", pick(func(m *processor.AudioMeasurements) float64 { return m.CrestFactor }), 1, "dB", "")
	table.AddMetricRow("Dynamic Range", pick(func(m *processor.AudioMeasurements) float64 { return m.DynamicRange }), 1, "dB", "")
	table.AddMetricRow("Clipped Runs", pick(func(m *processor.AudioMeasurements) float64 { return float64(m.ClippedRuns) }), 0, "", "")

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// writeClickTable lists repairs per band, one column per pass
func writeClickTable(w io.Writer, stats *processor.DeclickStats) {
	writeSection(w, "Click Removal")

	headers := make([]string, 0, len(stats.Clicks)+1)
	for p := range stats.Clicks {
		headers = append(headers, fmt.Sprintf("Pass %d", p+1))
	}
	headers = append(headers, "Total")

	table := NewMetricTable(headers...)
	perBand := stats.ClicksPerBand()
	for b, band := range stats.Bands {
		values := make([]string, 0, len(headers))
		for _, pass := range stats.Clicks {
			n := 0
			for _, ch := range pass {
				if b < len(ch) {
					n += ch[b]
				}
			}
			values = append(values, fmt.Sprintf("%d", n))
		}
		values = append(values, fmt.Sprintf("%d", perBand[b]))
		table.AddRow(fmt.Sprintf("%.0f-%.0f Hz", band.LowHz, band.HighHz), values, "", "")
	}
	fmt.Fprint(w, table.String())

	fmt.Fprintf(w, "Total repairs: %d\n", stats.Total)
	for p, pass := range stats.SkippedPasses {
		for c, skipped := range pass {
			if skipped {
				fmt.Fprintf(w, "Pass %d, channel %d: no clicks, carried forward\n", p+1, c+1)
			}
		}
	}
	fmt.Fprintln(w, "")
}

// writeGateTable summarises the applied gain per channel
func writeGateTable(w io.Writer, stats *processor.GateStats) {
	writeSection(w, "Noise Gate")

	headers := make([]string, len(stats.MeanGain))
	for c := range headers {
		headers[c] = fmt.Sprintf("Ch %d", c+1)
	}
	table := NewMetricTable(headers...)

	row := func(values []float64, format func(float64) string) []string {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = format(v)
		}
		return out
	}
	gainDB := func(v float64) string { return formatMetricDB(processor.LinearToDb(v), 1) }

	table.AddRow("Mean Gain", row(stats.MeanGain, gainDB), "dB", "")
	table.AddRow("Min Gain", row(stats.MinGain, gainDB), "dB", "")
	table.AddRow("Open", row(stats.OpenFraction, formatPercent), "", "at unity gain")
	table.AddRow("Closed", row(stats.ClosedFraction, formatPercent), "", "at the reduction floor")
	fmt.Fprint(w, table.String())

	if stats.Linked {
		fmt.Fprintln(w, "Stereo linked: left channel envelope drives both channels")
	}
	fmt.Fprintln(w, "")
}

// writeTips lists the restoration tips, wrapped for a plain-text log
func writeTips(w io.Writer, tips []RestorationTip) {
	writeSection(w, "Restoration Tips")
	if len(tips) == 0 {
		fmt.Fprintln(w, "None - nothing in this run needs attention.")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 76, "   "))
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", minutes/60, minutes%60, seconds)
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
