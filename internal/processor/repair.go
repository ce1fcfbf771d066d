package processor

import "slices"

// RepairWindow is the span rewritten for one click: signal[Start:End], bridged
// from Left (the sample at Start) to Right (the sample at End-1).
type RepairWindow struct {
	Start int
	End   int
	Left  float64
	Right float64
}

// Len returns the number of samples rewritten
func (w RepairWindow) Len() int {
	return w.End - w.Start
}

// Repair rewrites the window around peak in place with a straight line from
// signal[start] to signal[end-1], where start = max(0, peak-maxSteps) and
// end = min(len, peak+maxSteps).
//
// When the window is longer than crossfadeSamples, the line is crossfaded with the
// untouched samples at both edges: the line's weight ramps 0→1 over the first
// fade samples and 1→0 over the last, so the window meets the surrounding audio
// without a step. The fade is capped at half the window so the peak itself is
// always fully replaced. Shorter windows are left as pure interpolation. A
// one-sample window keeps its value, and a window entirely outside the signal
// writes nothing.
func Repair(signal []float64, peak, maxSteps, crossfadeSamples int) RepairWindow {
	start := max(0, peak-maxSteps)
	end := min(len(signal), peak+maxSteps)
	if start >= end {
		return RepairWindow{Start: start, End: start}
	}

	w := RepairWindow{Start: start, End: end, Left: signal[start], Right: signal[end-1]}
	seg := signal[start:end]
	n := len(seg)
	if n == 1 {
		return w
	}

	var orig []float64
	fade := min(crossfadeSamples, n/2)
	if crossfadeSamples > 0 && n > crossfadeSamples && fade > 1 {
		orig = slices.Clone(seg)
	}

	step := (w.Right - w.Left) / float64(n-1)
	for k := range seg {
		seg[k] = w.Left + step*float64(k)
	}
	seg[n-1] = w.Right

	if orig != nil {
		for k := range seg {
			r := min(1, fadeRamp(k, fade), fadeRamp(n-1-k, fade))
			seg[k] = orig[k]*(1-r) + seg[k]*r
		}
	}

	return w
}

// fadeRamp is element k of an n-point linear ramp from 0 to 1, held at 1 past
// the end. A one-point ramp is 0.
func fadeRamp(k, n int) float64 {
	if n <= 1 {
		return 0
	}
	return min(1, float64(k)/float64(n-1))
}
