// This file provides the console display for scan mode.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/restorer/internal/mains"
	"github.com/linuxmatters/restorer/internal/processor"
)

// DisplayScanResults prints what a scan found in one file: source details,
// levels, clicks per band and restoration tips.
func DisplayScanResults(w io.Writer, result *processor.ScanResult, config *processor.Config, mainsHz int) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "SCAN: %s\n", filepath.Base(result.InputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	meta := result.Metadata
	fmt.Fprintf(w, "Duration:    %s\n", formatDuration(time.Duration(meta.Duration*float64(time.Second))))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", meta.SampleRate)
	fmt.Fprintf(w, "Channels:    %s\n", channelName(meta.Channels))
	fmt.Fprintln(w)

	levels := result.Levels
	fmt.Fprintln(w, "LEVELS")
	fmt.Fprintf(w, "  Peak:           %s dBFS\n", formatMetricDB(levels.PeakLevel, 1))
	fmt.Fprintf(w, "  RMS:            %s dBFS\n", formatMetricDB(levels.RMSLevel, 1))
	fmt.Fprintf(w, "  Noise Floor:    %s dBFS\n", formatMetricDB(levels.RMSTrough, 1))
	fmt.Fprintf(w, "  Crest Factor:   %s dB\n", formatMetric(levels.CrestFactor, 1))
	if levels.ClippedRuns > 0 {
		fmt.Fprintf(w, "  Clipped Runs:   %d\n", levels.ClippedRuns)
	}
	fmt.Fprintln(w)

	clicks := result.Clicks
	fmt.Fprintf(w, "CLICKS (threshold %.3g)\n", config.Declick.Threshold)
	perBand := clicks.ClicksPerBand()
	for b, band := range clicks.Bands {
		fmt.Fprintf(w, "  %5.0f-%5.0f Hz  %6d\n", band.LowHz, band.HighHz, perBand[b])
	}
	fmt.Fprintf(w, "  Total:          %d", clicks.Total)
	if meta.Duration > 0 {
		fmt.Fprintf(w, " (%.1f per second)", float64(clicks.Total)/meta.Duration)
	}
	fmt.Fprintln(w)
	if mains.HumOverlap(config.Declick.FreqLowHz, mainsHz) {
		fmt.Fprintf(w, "  Low band edge %.0f Hz overlaps %d Hz mains hum harmonics\n", config.Declick.FreqLowHz, mainsHz)
	}
	fmt.Fprintln(w)

	tips := GenerateRestorationTips(TipInput{
		Levels:   levels,
		Clicks:   clicks,
		Config:   config,
		Duration: meta.Duration,
		MainsHz:  mainsHz,
	})
	if len(tips) > 0 {
		fmt.Fprintln(w, "TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  • %s\n", wrapText(tip.Message, 66, "    "))
		}
		fmt.Fprintln(w)
	}
}
