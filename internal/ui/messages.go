package ui

import (
	"github.com/linuxmatters/restorer/internal/processor"
)

// ProgressMsg represents a progress update from the processor
type ProgressMsg struct {
	Stage        int     // processor.StageAnalyze .. processor.StageWrite
	StageName    string  // "Analyzing", "Declicking", ...
	Progress     float64 // 0.0 to 1.0 within the stage
	Level        float64 // Latest RMS level in dBFS
	Measurements *processor.AudioMeasurements
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex  int
	OutputPath string
	Input      *processor.AudioMeasurements
	Final      *processor.AudioMeasurements
	Clicks     int     // Repairs across all passes, -1 when declicking was off
	GateClosed float64 // Mean closed fraction, -1 when gating was off
	Error      error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}

// CompleteMsgFor builds the completion message for a processed file
func CompleteMsgFor(index int, result *processor.ProcessingResult, err error) FileCompleteMsg {
	msg := FileCompleteMsg{FileIndex: index, Clicks: -1, GateClosed: -1, Error: err}
	if result == nil {
		return msg
	}
	msg.OutputPath = result.OutputPath
	msg.Input = result.Input
	msg.Final = result.Final
	if result.DeclickStats != nil {
		msg.Clicks = result.DeclickStats.Total
	}
	if g := result.GateStats; g != nil && len(g.ClosedFraction) > 0 {
		sum := 0.0
		for _, f := range g.ClosedFraction {
			sum += f
		}
		msg.GateClosed = sum / float64(len(g.ClosedFraction))
	}
	return msg
}
