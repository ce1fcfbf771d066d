package processor

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// GateMode selects what the gate does to signal below threshold
type GateMode int

const (
	// ModeGate attenuates quiet passages down to the reduction level
	ModeGate GateMode = iota
	// ModeDuck holds quiet passages at 1 - reduction
	ModeDuck
)

func (m GateMode) String() string {
	switch m {
	case ModeGate:
		return "gate"
	case ModeDuck:
		return "duck"
	}
	return fmt.Sprintf("GateMode(%d)", int(m))
}

// ParseGateMode parses "gate" or "duck" (case-insensitive)
func ParseGateMode(s string) (GateMode, error) {
	switch strings.ToLower(s) {
	case "gate":
		return ModeGate, nil
	case "duck":
		return ModeDuck, nil
	}
	return 0, &ConfigError{Field: "gate mode", Value: s, Reason: "want gate or duck"}
}

// StereoLink selects how a stereo gate derives its gain
type StereoLink int

const (
	// LinkStereo computes one gain trajectory from the left channel and applies it to both
	LinkStereo StereoLink = iota
	// Independent gates each channel on its own envelope
	Independent
)

func (l StereoLink) String() string {
	switch l {
	case LinkStereo:
		return "link"
	case Independent:
		return "independent"
	}
	return fmt.Sprintf("StereoLink(%d)", int(l))
}

// ParseStereoLink parses "link" or "independent" (case-insensitive)
func ParseStereoLink(s string) (StereoLink, error) {
	switch strings.ToLower(s) {
	case "link", "linkstereo":
		return LinkStereo, nil
	case "independent":
		return Independent, nil
	}
	return 0, &ConfigError{Field: "stereo link", Value: s, Reason: "want link or independent"}
}

// DeclickConfig holds the multi-band click removal parameters
type DeclickConfig struct {
	Threshold          float64 // Band peak height (normalised amplitude) that marks a click
	MaxSteps           int     // Repair window half-width in samples
	Separation         int     // Minimum distance between clicks in one band, in samples
	CrackleThresholdDB float64 // Dense-click threshold in dB; accepted, not consulted by repair
	CrossfadeMs        float64 // Fade length at the repaired window edges
	Bands              int     // Number of log-spaced bands
	Passes             int     // Sequential split/repair/merge iterations
	FreqLowHz          float64 // Lowest band edge
	FreqHighHz         float64 // Highest band edge
}

// GateConfig holds the noise gate parameters
type GateConfig struct {
	ThresholdDB float64 // Envelope level that opens the gate
	ReductionDB float64 // Closed-gate gain in dB (negative)
	AttackMs    float64 // Time for the gain to ramp from 0 to 1
	DecayMs     float64 // Time for the gain to ramp from 1 to 0
	HoldMs      float64 // Time the gate stays open after the envelope drops
	GateFreqHz  float64 // Detector low-pass cutoff; 0 detects on the full band
	Mode        GateMode
	StereoLink  StereoLink
}

// Config is the complete per-file processing configuration
type Config struct {
	Declick        DeclickConfig
	Gate           GateConfig
	DeclickEnabled bool
	GateEnabled    bool

	OutputDir    string // Empty writes next to the input
	OutputSuffix string // Appended to the input base name
	MainsHz      int    // Local mains frequency (50/60), 0 if unknown; used for hum warnings
}

// DefaultDeclickConfig returns the default click removal parameters
func DefaultDeclickConfig() DeclickConfig {
	return DeclickConfig{
		Threshold:          0.5,
		MaxSteps:           2,
		Separation:         3,
		CrackleThresholdDB: -45,
		CrossfadeMs:        5,
		Bands:              12,
		Passes:             2,
		FreqLowHz:          150,
		FreqHighHz:         9600,
	}
}

// DefaultGateConfig returns the default noise gate parameters
func DefaultGateConfig() GateConfig {
	return GateConfig{
		ThresholdDB: -27.8,
		ReductionDB: -24,
		AttackMs:    10,
		DecayMs:     100,
		HoldMs:      50,
		GateFreqHz:  0,
		Mode:        ModeGate,
		StereoLink:  LinkStereo,
	}
}

// DefaultConfig returns the default pipeline: declick then gate
func DefaultConfig() *Config {
	return &Config{
		Declick:        DefaultDeclickConfig(),
		Gate:           DefaultGateConfig(),
		DeclickEnabled: true,
		GateEnabled:    true,
		OutputSuffix:   "-restored",
	}
}

// Validate checks the configuration against a sample rate.
func (c DeclickConfig) Validate(sampleRate int) error {
	if sampleRate <= 0 {
		return &ConfigError{Field: "sample rate", Value: sampleRate, Reason: "must be positive"}
	}
	if !isFinite(c.Threshold) || c.Threshold <= 0 {
		return &ConfigError{Field: "threshold", Value: c.Threshold, Reason: "must be a positive finite amplitude"}
	}
	if c.MaxSteps < 1 {
		return &ConfigError{Field: "max steps", Value: c.MaxSteps, Reason: "must be at least 1 sample"}
	}
	if c.Separation < 1 {
		return &ConfigError{Field: "separation", Value: c.Separation, Reason: "must be at least 1 sample"}
	}
	if !isFinite(c.CrackleThresholdDB) {
		return &ConfigError{Field: "crackle threshold", Value: c.CrackleThresholdDB, Reason: "must be finite"}
	}
	if !isFinite(c.CrossfadeMs) || c.CrossfadeMs < 0 {
		return &ConfigError{Field: "crossfade", Value: c.CrossfadeMs, Reason: "must be zero or a positive number of milliseconds"}
	}
	if c.Bands < 1 {
		return &ConfigError{Field: "band count", Value: c.Bands, Reason: "must be at least 1"}
	}
	if c.Passes < 1 {
		return &ConfigError{Field: "passes", Value: c.Passes, Reason: "must be at least 1"}
	}
	return validateBandEdges(sampleRate, c.FreqLowHz, c.FreqHighHz)
}

func validateBandEdges(sampleRate int, lowHz, highHz float64) error {
	nyquist := float64(sampleRate) / 2
	switch {
	case !isFinite(lowHz) || lowHz <= 0:
		return &ConfigError{Field: "low band edge", Value: lowHz, Reason: "must be above 0 Hz"}
	case !isFinite(highHz) || highHz >= nyquist:
		return &ConfigError{Field: "high band edge", Value: highHz, Reason: fmt.Sprintf("must be below Nyquist (%.0f Hz)", nyquist)}
	case lowHz >= highHz:
		return &ConfigError{Field: "band edges", Value: fmt.Sprintf("%g-%g Hz", lowHz, highHz), Reason: "low edge must be below high edge"}
	}
	return nil
}

// GateParams are the sample-domain gate parameters derived from a GateConfig
type GateParams struct {
	Threshold     float64 // linear
	Reduction     float64 // linear, in (0, 1]
	AttackSamples int
	DecaySamples  int
	HoldSamples   int
	Mode          GateMode
}

// Params validates the configuration and converts it to sample-domain parameters.
func (c GateConfig) Params(sampleRate int) (GateParams, error) {
	if sampleRate <= 0 {
		return GateParams{}, &ConfigError{Field: "sample rate", Value: sampleRate, Reason: "must be positive"}
	}
	if !isFinite(c.ThresholdDB) {
		return GateParams{}, &ConfigError{Field: "gate threshold", Value: c.ThresholdDB, Reason: "must be finite"}
	}
	if !isFinite(c.ReductionDB) || c.ReductionDB > 0 {
		return GateParams{}, &ConfigError{Field: "gate reduction", Value: c.ReductionDB, Reason: "must be finite and at most 0 dB"}
	}
	if c.Mode != ModeGate && c.Mode != ModeDuck {
		return GateParams{}, &ConfigError{Field: "gate mode", Value: c.Mode, Reason: "unknown mode"}
	}
	if c.StereoLink != LinkStereo && c.StereoLink != Independent {
		return GateParams{}, &ConfigError{Field: "stereo link", Value: c.StereoLink, Reason: "unknown link mode"}
	}
	if !isFinite(c.GateFreqHz) || c.GateFreqHz < 0 || c.GateFreqHz >= float64(sampleRate)/2 {
		return GateParams{}, &ConfigError{Field: "gate frequency", Value: c.GateFreqHz, Reason: "must be 0 or below Nyquist"}
	}

	p := GateParams{
		Threshold: DbToLinear(c.ThresholdDB),
		Reduction: DbToLinear(c.ReductionDB),
		Mode:      c.Mode,
	}
	if p.Reduction <= 0 {
		return GateParams{}, &ConfigError{Field: "gate reduction", Value: c.ReductionDB, Reason: "underflows to zero gain"}
	}

	var err error
	if p.AttackSamples, err = positiveSamples("attack", sampleRate, c.AttackMs); err != nil {
		return GateParams{}, err
	}
	if p.DecaySamples, err = positiveSamples("decay", sampleRate, c.DecayMs); err != nil {
		return GateParams{}, err
	}
	if !isFinite(c.HoldMs) || c.HoldMs < 0 {
		return GateParams{}, &ConfigError{Field: "hold", Value: c.HoldMs, Reason: "must be zero or a positive number of milliseconds"}
	}
	p.HoldSamples = msToSamples(sampleRate, c.HoldMs)

	return p, nil
}

func positiveSamples(field string, sampleRate int, ms float64) (int, error) {
	if !isFinite(ms) {
		return 0, &ConfigError{Field: field, Value: ms, Reason: "must be finite"}
	}
	n := msToSamples(sampleRate, ms)
	if n < 1 {
		return 0, &ConfigError{Field: field, Value: ms, Reason: fmt.Sprintf("rounds to %d samples at %d Hz", n, sampleRate)}
	}
	return n, nil
}

// msToSamples converts milliseconds to a sample count, rounding to nearest
func msToSamples(sampleRate int, ms float64) int {
	return int(math.Round(float64(sampleRate) * ms / 1000))
}

// DbToLinear converts a decibel value to linear amplitude
func DbToLinear(db float64) float64 {
	return core.DBToLinear(db)
}

// LinearToDb converts linear amplitude to decibels, floored at -120 dB for reporting
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120.0
	}
	return math.Max(core.LinearToDB(linear), -120.0)
}
