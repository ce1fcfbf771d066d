package processor

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/linuxmatters/restorer/internal/audio"
	"golang.org/x/sync/errgroup"
)

// GateStats summarises the gain the gate applied to each channel
type GateStats struct {
	Linked         bool      // One trajectory drove both channels
	MeanGain       []float64 // Per channel
	MinGain        []float64
	OpenFraction   []float64 // Share of samples at unity gain
	ClosedFraction []float64 // Share of samples at the closed-gate floor
	Params         GateParams
}

// Gate applies the noise gate to buf and returns a new buffer.
//
// Each channel's envelope is abs(x), taken from a zero-phase low-passed copy when
// GateFreqHz > 0; the gain always multiplies the original full-band samples.
// Mono buffers and Independent stereo compute a trajectory per channel. LinkStereo
// computes the trajectory once from the left channel and multiplies it into both.
func Gate(ctx context.Context, buf *audio.Buffer, cfg GateConfig) (*audio.Buffer, *GateStats, error) {
	if err := buf.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid input buffer: %w", err)
	}
	params, err := cfg.Params(buf.SampleRate)
	if err != nil {
		return nil, nil, err
	}
	for c, ch := range buf.Channels {
		if err := checkFinite(ch, "gate input", c, -1); err != nil {
			return nil, nil, err
		}
	}

	var detector []biquad.Coefficients
	if cfg.GateFreqHz > 0 {
		detector = lowpassSections(cfg.GateFreqHz, float64(buf.SampleRate))
	}

	trajectory := func(c int) ([]float64, error) {
		env := buf.Channels[c]
		if detector != nil {
			env = ZeroPhase(detector, env)
			if err := checkFinite(env, "gate detector", c, -1); err != nil {
				return nil, err
			}
		} else {
			env = append([]float64(nil), env...)
		}
		for i, v := range env {
			env[i] = math.Abs(v)
		}
		return GainTrajectory(env, params), nil
	}

	linked := buf.NumChannels() == 2 && cfg.StereoLink == LinkStereo
	gains := make([][]float64, buf.NumChannels())

	if linked {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		left, err := trajectory(0)
		if err != nil {
			return nil, nil, err
		}
		gains[0], gains[1] = left, left
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for c := range buf.Channels {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				t, err := trajectory(c)
				if err != nil {
					return err
				}
				gains[c] = t
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	out := audio.NewBuffer(buf.SampleRate, buf.NumChannels(), buf.Len())
	for c, ch := range buf.Channels {
		for i, v := range ch {
			out.Channels[c][i] = v * gains[c][i]
		}
	}

	return out, gateStats(gains, params, linked), nil
}

func gateStats(gains [][]float64, p GateParams, linked bool) *GateStats {
	const eps = 1e-9
	floor := p.closedGain()

	stats := &GateStats{
		Linked:         linked,
		MeanGain:       make([]float64, len(gains)),
		MinGain:        make([]float64, len(gains)),
		OpenFraction:   make([]float64, len(gains)),
		ClosedFraction: make([]float64, len(gains)),
		Params:         p,
	}
	for c, g := range gains {
		if len(g) == 0 {
			continue
		}
		sum, lowest := 0.0, math.Inf(1)
		open, closed := 0, 0
		for _, v := range g {
			sum += v
			lowest = min(lowest, v)
			if v >= 1-eps {
				open++
			}
			if math.Abs(v-floor) <= eps {
				closed++
			}
		}
		n := float64(len(g))
		stats.MeanGain[c] = sum / n
		stats.MinGain[c] = lowest
		stats.OpenFraction[c] = float64(open) / n
		stats.ClosedFraction[c] = float64(closed) / n
	}
	return stats
}
