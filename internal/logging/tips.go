package logging

import (
	"fmt"
	"slices"
	"strings"

	"github.com/linuxmatters/restorer/internal/mains"
	"github.com/linuxmatters/restorer/internal/processor"
)

// RestorationTip is one piece of actionable advice derived from a run
type RestorationTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "dense_clicks")
}

// MaxRestorationTips is the maximum number of tips to return.
const MaxRestorationTips = 5

// Rule thresholds
const (
	denseClicksPerSecond  = 10.0
	gateClosedMajority    = 0.6
	noisyTroughDB         = -45.0
	minGateJudgementSecs  = 1.0
	thresholdHeadroomDB   = 6.0
	gateNeverClosesMargin = 1e-9
)

// TipInput is everything the rules look at. Any pointer may be nil; rules
// that need a missing piece stay silent.
type TipInput struct {
	Levels   *processor.AudioMeasurements // Input levels
	Clicks   *processor.DeclickStats
	Gate     *processor.GateStats
	Config   *processor.Config
	Duration float64 // Seconds
	MainsHz  int     // 0 if unknown
}

// TipsForResult builds a TipInput from a processed file
func TipsForResult(result *processor.ProcessingResult, mainsHz int) []RestorationTip {
	if result == nil {
		return nil
	}
	in := TipInput{
		Levels:  result.Input,
		Clicks:  result.DeclickStats,
		Gate:    result.GateStats,
		Config:  result.Config,
		MainsHz: mainsHz,
	}
	if result.Metadata != nil {
		in.Duration = result.Metadata.Duration
	}
	return GenerateRestorationTips(in)
}

// GenerateRestorationTips runs every rule and returns the fired tips, highest
// priority first, capped at MaxRestorationTips.
func GenerateRestorationTips(in TipInput) []RestorationTip {
	if in.Levels == nil {
		return nil
	}

	rules := []func(TipInput) *RestorationTip{
		tipInputClipping,
		tipDenseClicks,
		tipResidualClicks,
		tipGateMostlyClosed,
		tipGateNeverCloses,
		tipMainsHumOverlap,
		tipBackgroundNoise,
	}

	var tips []RestorationTip
	fired := make(map[string]bool)
	for _, rule := range rules {
		if tip := rule(in); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	slices.SortStableFunc(tips, func(a, b RestorationTip) int {
		return b.Priority - a.Priority
	})
	if len(tips) > MaxRestorationTips {
		tips = tips[:MaxRestorationTips]
	}
	return tips
}

// applyExclusions drops tips made redundant by a more specific one
func applyExclusions(tips []RestorationTip, fired map[string]bool) []RestorationTip {
	var result []RestorationTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "residual_clicks":
			// dense_clicks already asks for more passes
			if fired["dense_clicks"] {
				continue
			}
		case "gate_never_closes":
			if fired["background_noise"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= maxWidth:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"+indent)
}

// tipInputClipping fires when the source has flat-topped runs at full scale.
// Repair interpolates across clicks, not across clipped waveforms.
func tipInputClipping(in TipInput) *RestorationTip {
	if in.Levels.ClippedRuns == 0 {
		return nil
	}
	return &RestorationTip{
		Priority: 9,
		RuleID:   "input_clipping",
		Message: fmt.Sprintf("The source is clipped in %d places. Declicking cannot rebuild flattened peaks; "+
			"if you can, re-capture with more headroom.", in.Levels.ClippedRuns),
	}
}

// tipDenseClicks fires when detections average more than denseClicksPerSecond,
// which is crackle rather than isolated clicks.
func tipDenseClicks(in TipInput) *RestorationTip {
	if in.Clicks == nil || in.Duration <= 0 {
		return nil
	}
	rate := float64(in.Clicks.Total) / in.Duration
	if rate <= denseClicksPerSecond {
		return nil
	}
	return &RestorationTip{
		Priority: 8,
		RuleID:   "dense_clicks",
		Message: fmt.Sprintf("Clicks are dense (%.0f per second), which usually means surface crackle. "+
			"Clean the source, then try more passes or a higher threshold to protect transients.", rate),
	}
}

// tipResidualClicks fires when the final pass still found clicks
func tipResidualClicks(in TipInput) *RestorationTip {
	if in.Clicks == nil || len(in.Clicks.Clicks) < 2 {
		return nil
	}
	last := len(in.Clicks.Clicks) - 1
	n := in.Clicks.ClicksInPass(last)
	if n == 0 {
		return nil
	}
	return &RestorationTip{
		Priority: 6,
		RuleID:   "residual_clicks",
		Message:  fmt.Sprintf("The last pass still repaired %d clicks - another pass may catch what remains.", n),
	}
}

// tipGateMostlyClosed fires when the gate sat at its floor for most of the file
func tipGateMostlyClosed(in TipInput) *RestorationTip {
	if in.Gate == nil || len(in.Gate.ClosedFraction) == 0 {
		return nil
	}
	closed := mean(in.Gate.ClosedFraction)
	if closed <= gateClosedMajority {
		return nil
	}
	return &RestorationTip{
		Priority: 7,
		RuleID:   "gate_mostly_closed",
		Message: fmt.Sprintf("The gate was closed for %.0f%% of the recording, so quiet programme is being cut. "+
			"Lower the gate threshold towards %.0f dB.", closed*100, in.Levels.RMSTrough+thresholdHeadroomDB),
	}
}

// tipGateNeverCloses fires when the gate never reached its floor on a file long
// enough to judge, which means the threshold sits under the noise.
func tipGateNeverCloses(in TipInput) *RestorationTip {
	if in.Gate == nil || len(in.Gate.ClosedFraction) == 0 || in.Duration < minGateJudgementSecs {
		return nil
	}
	if slices.Max(in.Gate.ClosedFraction) > gateNeverClosesMargin {
		return nil
	}
	return &RestorationTip{
		Priority: 5,
		RuleID:   "gate_never_closes",
		Message: fmt.Sprintf("The gate never closed. Raise the gate threshold above the noise floor, "+
			"to about %.0f dB.", in.Levels.RMSTrough+thresholdHeadroomDB),
	}
}

// tipMainsHumOverlap fires when the lowest band reaches the second mains harmonic
func tipMainsHumOverlap(in TipInput) *RestorationTip {
	if in.Config == nil || !in.Config.DeclickEnabled {
		return nil
	}
	if !mains.HumOverlap(in.Config.Declick.FreqLowHz, in.MainsHz) {
		return nil
	}
	return &RestorationTip{
		Priority: 6,
		RuleID:   "mains_hum_overlap",
		Message: fmt.Sprintf("The lowest declick band starts at %.0f Hz, inside %d Hz mains hum harmonics. "+
			"Raise the low edge above %d Hz to avoid hum being treated as clicks.",
			in.Config.Declick.FreqLowHz, in.MainsHz, 2*in.MainsHz),
	}
}

// tipBackgroundNoise fires when the quietest windows are still loud
func tipBackgroundNoise(in TipInput) *RestorationTip {
	if in.Levels.RMSTrough <= noisyTroughDB {
		return nil
	}
	return &RestorationTip{
		Priority: 4,
		RuleID:   "background_noise",
		Message: fmt.Sprintf("The quietest passages sit at %.0f dBFS. A gate can only hide noise between phrases; "+
			"consider noise reduction before restoration.", in.Levels.RMSTrough),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
