package processor

import (
	"math"
	"slices"

	"github.com/linuxmatters/restorer/internal/audio"
)

// analysisWindowMs is the RMS window used for trough/peak level statistics
const analysisWindowMs = 50

// clipRunLength is the number of consecutive full-scale samples counted as one clip
const clipRunLength = 3

// AudioMeasurements holds the level statistics of one buffer, across all channels
type AudioMeasurements struct {
	PeakLevel    float64 `json:"peak_level"`    // Sample peak (dBFS)
	RMSLevel     float64 `json:"rms_level"`     // Overall RMS level (dBFS)
	CrestFactor  float64 `json:"crest_factor"`  // Peak to RMS ratio (dB)
	RMSTrough    float64 `json:"rms_trough"`    // 10th percentile of windowed RMS - noise floor indicator (dBFS)
	RMSPeak      float64 `json:"rms_peak"`      // 95th percentile of windowed RMS - programme level (dBFS)
	DynamicRange float64 `json:"dynamic_range"` // RMSPeak - RMSTrough (dB)
	ClippedRuns  int     `json:"clipped_runs"`  // Runs of clipRunLength or more samples at full scale
	Samples      int     `json:"samples"`       // Samples per channel
}

// AnalyzeAudio measures levels of a normalised buffer
func AnalyzeAudio(buf *audio.Buffer) *AudioMeasurements {
	m := &AudioMeasurements{
		PeakLevel: -120,
		RMSLevel:  -120,
		RMSTrough: -120,
		RMSPeak:   -120,
		Samples:   buf.Len(),
	}
	if buf.Len() == 0 || buf.NumChannels() == 0 {
		return m
	}

	peak, sumSq := 0.0, 0.0
	for _, ch := range buf.Channels {
		run := 0
		for _, v := range ch {
			a := math.Abs(v)
			peak = max(peak, a)
			sumSq += v * v
			if a >= 0.999 {
				run++
				if run == clipRunLength {
					m.ClippedRuns++
				}
			} else {
				run = 0
			}
		}
	}
	rms := math.Sqrt(sumSq / float64(buf.Len()*buf.NumChannels()))

	m.PeakLevel = LinearToDb(peak)
	m.RMSLevel = LinearToDb(rms)
	m.CrestFactor = m.PeakLevel - m.RMSLevel

	windows := windowRMS(buf, max(1, msToSamples(buf.SampleRate, analysisWindowMs)))
	if len(windows) > 0 {
		slices.Sort(windows)
		m.RMSTrough = LinearToDb(percentile(windows, 0.10))
		m.RMSPeak = LinearToDb(percentile(windows, 0.95))
		m.DynamicRange = m.RMSPeak - m.RMSTrough
	}

	return m
}

// windowRMS returns the RMS of each non-overlapping window, pooled over channels
func windowRMS(buf *audio.Buffer, size int) []float64 {
	var out []float64
	for start := 0; start < buf.Len(); start += size {
		end := min(start+size, buf.Len())
		sumSq := 0.0
		for _, ch := range buf.Channels {
			for _, v := range ch[start:end] {
				sumSq += v * v
			}
		}
		out = append(out, math.Sqrt(sumSq/float64((end-start)*buf.NumChannels())))
	}
	return out
}

// percentile reads the q-quantile (0..1) of sorted values by nearest rank
func percentile(sorted []float64, q float64) float64 {
	idx := int(math.Round(q * float64(len(sorted)-1)))
	return sorted[idx]
}
