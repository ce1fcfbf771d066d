// Package processor implements click removal and noise gating of in-memory audio,
// and the per-file pipeline that drives them.
package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/restorer/internal/audio"
	"github.com/sirupsen/logrus"
)

// Pipeline stages reported through ProgressCallback
const (
	StageAnalyze = iota + 1
	StageDeclick
	StageGate
	StageWrite
)

// StageName returns the display name of a pipeline stage
func StageName(stage int) string {
	switch stage {
	case StageAnalyze:
		return "Analyzing"
	case StageDeclick:
		return "Declicking"
	case StageGate:
		return "Gating"
	case StageWrite:
		return "Writing"
	}
	return "Unknown"
}

// ProgressCallback receives pipeline progress. level is the latest RMS level in dBFS,
// measurements are set when a stage completes.
type ProgressCallback func(stage int, stageName string, progress float64, level float64, measurements *AudioMeasurements)

// StageTimings records wall-clock time per stage
type StageTimings struct {
	Analyze time.Duration
	Declick time.Duration
	Gate    time.Duration
	Write   time.Duration
}

// ProcessingResult contains the results of processing one file
type ProcessingResult struct {
	InputPath  string
	OutputPath string
	Metadata   *audio.Metadata

	Input     *AudioMeasurements
	Declicked *AudioMeasurements // nil when declicking is disabled
	Final     *AudioMeasurements

	DeclickStats *DeclickStats // nil when declicking is disabled
	GateStats    *GateStats    // nil when gating is disabled

	Timings StageTimings
	Config  *Config
}

// ProcessAudio loads inputPath, declicks then gates it as configured, and writes
// a 16-bit WAV to GenerateOutputPath(inputPath, config).
// A nil progressCallback or log is allowed.
func ProcessAudio(ctx context.Context, inputPath string, config *Config, progressCallback ProgressCallback, log logrus.FieldLogger) (*ProcessingResult, error) {
	if log == nil {
		log = discardLogger()
	}
	log = log.WithField("file", filepath.Base(inputPath))
	report := func(stage int, progress, level float64, m *AudioMeasurements) {
		if progressCallback != nil {
			progressCallback(stage, StageName(stage), progress, level, m)
		}
	}

	result := &ProcessingResult{
		InputPath:  inputPath,
		OutputPath: GenerateOutputPath(inputPath, config),
		Config:     config,
	}
	if filepath.Clean(result.OutputPath) == filepath.Clean(inputPath) {
		return nil, fmt.Errorf("output path %s would overwrite the input", result.OutputPath)
	}

	// Stage 1: load and measure
	report(StageAnalyze, 0, 0, nil)
	start := time.Now()
	buf, meta, err := audio.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", inputPath, err)
	}
	result.Metadata = meta

	// Reject bad settings before any engine runs
	if config.DeclickEnabled {
		if err := config.Declick.Validate(buf.SampleRate); err != nil {
			return nil, fmt.Errorf("invalid declick config: %w", err)
		}
	}
	if config.GateEnabled {
		if _, err := config.Gate.Params(buf.SampleRate); err != nil {
			return nil, fmt.Errorf("invalid gate config: %w", err)
		}
	}

	result.Input = AnalyzeAudio(buf)
	result.Timings.Analyze = time.Since(start)
	log.WithFields(logrus.Fields{
		"stage":       "analyze",
		"sample_rate": meta.SampleRate,
		"channels":    meta.UsedChannels,
		"duration":    meta.Duration,
		"rms_db":      result.Input.RMSLevel,
		"trough_db":   result.Input.RMSTrough,
	}).Debug("loaded input")
	report(StageAnalyze, 1, result.Input.RMSLevel, result.Input)

	// Stage 2: declick
	if config.DeclickEnabled {
		report(StageDeclick, 0, result.Input.RMSLevel, nil)
		start = time.Now()
		out, stats, err := Declick(ctx, buf, config.Declick, func(pass, passes int) {
			report(StageDeclick, float64(pass)/float64(passes), result.Input.RMSLevel, nil)
		})
		if err != nil {
			return nil, fmt.Errorf("declick failed: %w", err)
		}
		buf = out
		result.DeclickStats = stats
		result.Declicked = AnalyzeAudio(buf)
		result.Timings.Declick = time.Since(start)
		log.WithFields(logrus.Fields{
			"stage":    "declick",
			"clicks":   stats.Total,
			"per_band": stats.ClicksPerBand(),
			"elapsed":  result.Timings.Declick,
		}).Debug("declick complete")
		report(StageDeclick, 1, result.Declicked.RMSLevel, result.Declicked)
	}

	// Stage 3: gate
	if config.GateEnabled {
		report(StageGate, 0, 0, nil)
		start = time.Now()
		out, stats, err := Gate(ctx, buf, config.Gate)
		if err != nil {
			return nil, fmt.Errorf("gate failed: %w", err)
		}
		buf = out
		result.GateStats = stats
		result.Timings.Gate = time.Since(start)
		log.WithFields(logrus.Fields{
			"stage":     "gate",
			"linked":    stats.Linked,
			"mean_gain": stats.MeanGain,
			"open":      stats.OpenFraction,
		}).Debug("gate complete")
	}
	result.Final = AnalyzeAudio(buf)
	if config.GateEnabled {
		report(StageGate, 1, result.Final.RMSLevel, result.Final)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: write
	report(StageWrite, 0, result.Final.RMSLevel, nil)
	start = time.Now()
	if dir := filepath.Dir(result.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := audio.Save(result.OutputPath, buf); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.OutputPath, err)
	}
	result.Timings.Write = time.Since(start)
	log.WithField("output", result.OutputPath).Debug("wrote output")
	report(StageWrite, 1, result.Final.RMSLevel, result.Final)

	return result, nil
}

// ScanResult is the outcome of a detection-only scan
type ScanResult struct {
	InputPath string
	Metadata  *audio.Metadata
	Levels    *AudioMeasurements
	Clicks    *DeclickStats
}

// ScanAudio loads inputPath and counts clicks per band without writing anything
func ScanAudio(ctx context.Context, inputPath string, config *Config, log logrus.FieldLogger) (*ScanResult, error) {
	if log == nil {
		log = discardLogger()
	}

	buf, meta, err := audio.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", inputPath, err)
	}
	stats, err := ScanClicks(ctx, buf, config.Declick)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	result := &ScanResult{
		InputPath: inputPath,
		Metadata:  meta,
		Levels:    AnalyzeAudio(buf),
		Clicks:    stats,
	}
	log.WithFields(logrus.Fields{
		"file":   filepath.Base(inputPath),
		"stage":  "scan",
		"clicks": stats.Total,
	}).Debug("scan complete")

	return result, nil
}

// GenerateOutputPath creates the output filename from the input filename
// Example: /path/to/audio.flac → /path/to/audio-restored.wav
func GenerateOutputPath(inputPath string, config *Config) string {
	dir := filepath.Dir(inputPath)
	if config.OutputDir != "" {
		dir = config.OutputDir
	}
	filename := filepath.Base(inputPath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	return filepath.Join(dir, nameWithoutExt+config.OutputSuffix+".wav")
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
