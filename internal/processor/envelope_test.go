package processor

import (
	"math"
	"testing"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestGainTrajectoryAttack(t *testing.T) {
	p := GateParams{Threshold: 0.5, Reduction: 0.25, AttackSamples: 10, DecaySamples: 50, HoldSamples: 20}

	g := GainTrajectory(constant(30, 1), p)

	for i := 0; i < 9; i++ {
		if want := float64(i+1) / 10; math.Abs(g[i]-want) > 1e-9 {
			t.Errorf("g[%d] = %v, want %v", i, g[i], want)
		}
	}
	for i := 10; i < len(g); i++ {
		if g[i] != 1 {
			t.Errorf("g[%d] = %v, want exactly 1 once the attack completes", i, g[i])
		}
	}
}

func TestGainTrajectoryHoldThenDecay(t *testing.T) {
	p := GateParams{Threshold: 0.5, Reduction: 0.25, AttackSamples: 10, DecaySamples: 50, HoldSamples: 20}

	env := make([]float64, 200)
	copy(env, constant(100, 1))
	g := GainTrajectory(env, p)

	// Hold keeps the gate open for 20 samples after the envelope falls
	for i := 100; i < 120; i++ {
		if g[i] != 1 {
			t.Errorf("g[%d] = %v during hold, want 1", i, g[i])
		}
	}
	// Then a linear decay of 1/50 per sample
	for k := 0; k < 37; k++ {
		if want := 1 - float64(k+1)/50; math.Abs(g[120+k]-want) > 1e-9 {
			t.Errorf("g[%d] = %v, want %v", 120+k, g[120+k], want)
		}
	}
	// Clamped at the reduction floor, never below
	for i := 157; i < len(g); i++ {
		if g[i] != 0.25 {
			t.Errorf("g[%d] = %v, want the 0.25 floor", i, g[i])
		}
	}
}

func TestGainTrajectoryClosedTargets(t *testing.T) {
	tests := []struct {
		name string
		mode GateMode
		want []float64
	}{
		// From zero initial gain the gate ramps up to its closed target
		{"gate floor is the reduction", ModeGate, []float64{0.25, 0.25, 0.25}},
		{"duck floor is one minus the reduction", ModeDuck, []float64{0.25, 0.5, 0.75, 0.75}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GateParams{Threshold: 0.5, Reduction: 0.25, AttackSamples: 4, DecaySamples: 4, Mode: tt.mode}
			g := GainTrajectory(make([]float64, len(tt.want)), p)
			for i := range tt.want {
				if math.Abs(g[i]-tt.want[i]) > 1e-12 {
					t.Errorf("g[%d] = %v, want %v", i, g[i], tt.want[i])
				}
			}
		})
	}
}

func TestGainTrajectoryRampsInFromSilence(t *testing.T) {
	p := GateParams{Threshold: 0.5, Reduction: 0.5, AttackSamples: 4, DecaySamples: 4}

	g := GainTrajectory(make([]float64, 4), p)

	want := []float64{0.25, 0.5, 0.5, 0.5}
	for i := range want {
		if g[i] != want[i] {
			t.Errorf("g[%d] = %v, want %v", i, g[i], want[i])
		}
	}
}

func TestGateStep(t *testing.T) {
	p := GateParams{Threshold: 0.5, Reduction: 0.25, AttackSamples: 4, DecaySamples: 2, HoldSamples: 3}

	tests := []struct {
		name     string
		state    GateState
		envelope float64
		want     GateState
	}{
		{"open reloads hold", GateState{Hold: 1, Gain: 1}, 0.9, GateState{Hold: 3, Gain: 1}},
		{"threshold is strict", GateState{Hold: 0, Gain: 1}, 0.5, GateState{Hold: 0, Gain: 0.5}},
		{"hold counts down open", GateState{Hold: 2, Gain: 0.5}, 0, GateState{Hold: 1, Gain: 0.75}},
		{"closed decays", GateState{Hold: 0, Gain: 1}, 0, GateState{Hold: 0, Gain: 0.5}},
		{"decay stops at floor", GateState{Hold: 0, Gain: 0.5}, 0, GateState{Hold: 0, Gain: 0.25}},
		{"gain at target is unchanged", GateState{Hold: 0, Gain: 0.25}, 0, GateState{Hold: 0, Gain: 0.25}},
		{"attack stops at unity", GateState{Hold: 0, Gain: 0.9}, 1, GateState{Hold: 3, Gain: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Step(tt.state, tt.envelope); got != tt.want {
				t.Errorf("Step(%+v, %v) = %+v, want %+v", tt.state, tt.envelope, got, tt.want)
			}
		})
	}
}

func TestGainTrajectoryEmpty(t *testing.T) {
	p := GateParams{Threshold: 0.5, Reduction: 0.25, AttackSamples: 1, DecaySamples: 1}
	if g := GainTrajectory(nil, p); len(g) != 0 {
		t.Errorf("len = %d, want 0", len(g))
	}
}
