package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/linuxmatters/restorer/internal/audio"
	"golang.org/x/sync/errgroup"
)

// PassProgress is called after each completed declick pass
type PassProgress func(pass, passes int)

// DeclickStats records what the declicker found
type DeclickStats struct {
	Bands         []Band    // Band edges only; Samples is nil
	Clicks        [][][]int // Clicks[pass][channel][band]
	SkippedPasses [][]bool  // SkippedPasses[pass][channel]: no clicks found, input carried forward
	Total         int
}

func newDeclickStats(fb *FilterBank, passes, channels int) *DeclickStats {
	edges := fb.Edges()
	stats := &DeclickStats{
		Bands:         make([]Band, fb.NumBands()),
		Clicks:        make([][][]int, passes),
		SkippedPasses: make([][]bool, passes),
	}
	for i := range stats.Bands {
		stats.Bands[i] = Band{LowHz: edges[i], HighHz: edges[i+1]}
	}
	for p := range stats.Clicks {
		stats.Clicks[p] = make([][]int, channels)
		stats.SkippedPasses[p] = make([]bool, channels)
	}
	return stats
}

// ClicksPerBand sums click counts over passes and channels
func (s *DeclickStats) ClicksPerBand() []int {
	out := make([]int, len(s.Bands))
	for _, pass := range s.Clicks {
		for _, ch := range pass {
			for b, n := range ch {
				out[b] += n
			}
		}
	}
	return out
}

// ClicksInPass sums click counts over the channels and bands of one pass
func (s *DeclickStats) ClicksInPass(pass int) int {
	total := 0
	for _, ch := range s.Clicks[pass] {
		for _, n := range ch {
			total += n
		}
	}
	return total
}

// Declick removes clicks from every channel of buf and returns a new buffer.
//
// Each pass splits the current signal into bands, repairs every peak above the
// threshold in each band in ascending order, and merges the bands into the next
// pass's input. A channel whose bands hold no peaks in a pass is carried forward
// unchanged. Channels, and bands within a pass, are processed concurrently.
//
// Configuration problems return a *ConfigError before any work. A non-finite sample
// in the input returns a *NumericAnomalyError and no buffer; one produced by a pass
// returns the output of the last completed pass together with the error.
func Declick(ctx context.Context, buf *audio.Buffer, cfg DeclickConfig, progress PassProgress) (*audio.Buffer, *DeclickStats, error) {
	if err := buf.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid input buffer: %w", err)
	}
	if err := cfg.Validate(buf.SampleRate); err != nil {
		return nil, nil, err
	}
	for c, ch := range buf.Channels {
		if err := checkFinite(ch, "declick input", c, -1); err != nil {
			return nil, nil, err
		}
	}

	fb, err := NewFilterBank(buf.SampleRate, cfg.Bands, cfg.FreqLowHz, cfg.FreqHighHz)
	if err != nil {
		return nil, nil, err
	}
	crossfade := msToSamples(buf.SampleRate, cfg.CrossfadeMs)
	stats := newDeclickStats(fb, cfg.Passes, buf.NumChannels())

	current := buf.Clone()
	for pass := 0; pass < cfg.Passes; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		next := &audio.Buffer{SampleRate: current.SampleRate, Channels: make([][]float64, current.NumChannels())}
		g, gctx := errgroup.WithContext(ctx)
		for c := range current.Channels {
			g.Go(func() error {
				out, counts, err := declickChannel(gctx, fb, current.Channels[c], cfg, crossfade)
				if err != nil {
					var anomaly *NumericAnomalyError
					if errors.As(err, &anomaly) {
						anomaly.Channel = c
						anomaly.Pass = pass
					}
					return err
				}
				next.Channels[c] = out
				stats.Clicks[pass][c] = counts
				stats.SkippedPasses[pass][c] = sumInts(counts) == 0
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			var anomaly *NumericAnomalyError
			if errors.As(err, &anomaly) {
				return current, stats, err
			}
			return nil, nil, err
		}

		stats.Total += stats.ClicksInPass(pass)
		current = next
		if progress != nil {
			progress(pass+1, cfg.Passes)
		}
	}

	return current, stats, nil
}

// declickChannel runs one pass over one channel. The returned slice never aliases signal.
func declickChannel(ctx context.Context, fb *FilterBank, signal []float64, cfg DeclickConfig, crossfade int) ([]float64, []int, error) {
	bands := fb.Split(signal)
	counts := make([]int, len(bands))

	g, gctx := errgroup.WithContext(ctx)
	for b := range bands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			samples := bands[b].Samples
			if err := checkFinite(samples, "band split", 0, b); err != nil {
				return err
			}
			peaks := FindPeaks(samples, cfg.Threshold, cfg.Separation)
			for _, p := range peaks {
				Repair(samples, p, cfg.MaxSteps, crossfade)
			}
			counts[b] = len(peaks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if sumInts(counts) == 0 {
		return append([]float64(nil), signal...), counts, nil
	}

	merged := Merge(bands)
	if err := checkFinite(merged, "band merge", 0, -1); err != nil {
		return nil, nil, err
	}
	return merged, counts, nil
}

// ScanClicks runs the detector once over each channel without repairing anything.
// The returned stats hold a single pass.
func ScanClicks(ctx context.Context, buf *audio.Buffer, cfg DeclickConfig) (*DeclickStats, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input buffer: %w", err)
	}
	if err := cfg.Validate(buf.SampleRate); err != nil {
		return nil, err
	}

	fb, err := NewFilterBank(buf.SampleRate, cfg.Bands, cfg.FreqLowHz, cfg.FreqHighHz)
	if err != nil {
		return nil, err
	}
	stats := newDeclickStats(fb, 1, buf.NumChannels())

	g, gctx := errgroup.WithContext(ctx)
	for c, ch := range buf.Channels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := checkFinite(ch, "scan input", c, -1); err != nil {
				return err
			}
			bands := fb.Split(ch)
			counts := make([]int, len(bands))
			for b, band := range bands {
				counts[b] = len(FindPeaks(band.Samples, cfg.Threshold, cfg.Separation))
			}
			stats.Clicks[0][c] = counts
			stats.SkippedPasses[0][c] = sumInts(counts) == 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Total = stats.ClicksInPass(0)
	return stats, nil
}

func sumInts(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
