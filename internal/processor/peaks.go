package processor

import (
	"math"
	"slices"
)

// FindPeaks returns the ascending indices of isolated spikes in abs(signal).
//
// A peak is a sample whose magnitude is strictly greater than both neighbours and
// strictly greater than height; the first and last samples are never peaks.
// When two peaks are fewer than minSeparation samples apart only the taller one
// survives. Peaks are considered tallest first, and equal heights favour the
// earlier index.
func FindPeaks(signal []float64, height float64, minSeparation int) []int {
	var peaks []int
	for i := 1; i < len(signal)-1; i++ {
		a := math.Abs(signal[i])
		if a > height && a > math.Abs(signal[i-1]) && a > math.Abs(signal[i+1]) {
			peaks = append(peaks, i)
		}
	}
	if minSeparation <= 1 || len(peaks) < 2 {
		return peaks
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ha, hb := math.Abs(signal[peaks[a]]), math.Abs(signal[peaks[b]])
		switch {
		case ha > hb:
			return -1
		case ha < hb:
			return 1
		}
		return 0
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < minSeparation; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < minSeparation; k++ {
			keep[k] = false
		}
	}

	kept := peaks[:0]
	for i, p := range peaks {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return kept
}
