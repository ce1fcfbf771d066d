package processor

import (
	"math"
	"testing"
)

func TestRepairInterpolates(t *testing.T) {
	signal := []float64{0, 0, 1, 2, 9, 5, 6, 0, 0}

	w := Repair(signal, 4, 2, 100)

	want := RepairWindow{Start: 2, End: 6, Left: 1, Right: 5}
	if w != want {
		t.Errorf("window = %+v, want %+v", w, want)
	}
	// Straight line from 1 to 5 over four samples; no fade because the window is short
	expected := []float64{0, 0, 1, 1 + 4.0/3, 1 + 8.0/3, 5, 6, 0, 0}
	for i := range expected {
		if math.Abs(signal[i]-expected[i]) > 1e-12 {
			t.Errorf("signal[%d] = %v, want %v", i, signal[i], expected[i])
		}
	}
}

func TestRepairCrossfade(t *testing.T) {
	signal := make([]float64, 20)
	for i := range signal {
		signal[i] = 1
	}
	signal[6] = 4  // inside the leading fade
	signal[10] = 5 // the click

	w := Repair(signal, 10, 5, 4)

	if w.Start != 5 || w.End != 15 {
		t.Fatalf("window = [%d, %d), want [5, 15)", w.Start, w.End)
	}
	// Line weight over the window is 0, 1/3, 2/3, 1, 1, 1, 1, 2/3, 1/3, 0.
	// Sample 6 blends 2/3 of the untouched 4 with 1/3 of the line at 1.
	for i, v := range signal {
		want := 1.0
		if i == 6 {
			want = 3
		}
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("signal[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestRepairBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		signal   []float64
		peak     int
		maxSteps int
		want     []float64
		window   RepairWindow
	}{
		{
			name:     "single-sample window at start keeps its value",
			signal:   []float64{0.7, 0.1, 0.2},
			peak:     0,
			maxSteps: 1,
			want:     []float64{0.7, 0.1, 0.2},
			window:   RepairWindow{Start: 0, End: 1, Left: 0.7, Right: 0.7},
		},
		{
			name:     "window clipped at end",
			signal:   []float64{0, 0, 0, 0.2, 0.9, 0.6},
			peak:     5,
			maxSteps: 2,
			want:     []float64{0, 0, 0, 0.2, 0.4, 0.6},
			window:   RepairWindow{Start: 3, End: 6, Left: 0.2, Right: 0.6},
		},
		{
			name:     "peak beyond signal writes nothing",
			signal:   []float64{0.1, 0.2},
			peak:     10,
			maxSteps: 2,
			want:     []float64{0.1, 0.2},
			window:   RepairWindow{Start: 8, End: 8},
		},
		{
			name:     "empty signal",
			signal:   []float64{},
			peak:     0,
			maxSteps: 2,
			want:     []float64{},
			window:   RepairWindow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Repair(tt.signal, tt.peak, tt.maxSteps, 0)
			if w != tt.window {
				t.Errorf("window = %+v, want %+v", w, tt.window)
			}
			for i := range tt.want {
				if math.Abs(tt.signal[i]-tt.want[i]) > 1e-12 {
					t.Errorf("signal[%d] = %v, want %v", i, tt.signal[i], tt.want[i])
				}
			}
		})
	}
}

// The seam between a repaired window and untouched audio should be no steeper
// than the audio itself.
func TestRepairSeamContinuity(t *testing.T) {
	const (
		sampleRate = 44100
		click      = 2000
	)
	signal := sine(4410, sampleRate, 220, 0.3)
	signal[click] += 0.9
	orig := append([]float64(nil), signal...)

	refDelta := 0.0
	for i := 100; i < 1500; i++ {
		refDelta = math.Max(refDelta, math.Abs(orig[i+1]-orig[i]))
	}

	w := Repair(signal, click, 2, msToSamples(sampleRate, 5))

	for _, i := range []int{w.Start, w.End} {
		if d := math.Abs(signal[i] - signal[i-1]); d > refDelta+1e-9 {
			t.Errorf("seam delta at %d = %v, want <= %v", i, d, refDelta)
		}
	}
	for i := w.Start; i < w.End-1; i++ {
		if d := math.Abs(signal[i+1] - signal[i]); d > refDelta+1e-9 {
			t.Errorf("delta inside window at %d = %v, want <= %v", i, d, refDelta)
		}
	}
	clean := orig[click] - 0.9
	if d := math.Abs(signal[click] - clean); d > 1e-3 {
		t.Errorf("click sample = %v after repair, want %v (the underlying tone)", signal[click], clean)
	}
}

// A window longer than the crossfade fades between the line and the untouched
// audio, so neither edge steps away from its neighbour.
func TestRepairSeamContinuityWithFade(t *testing.T) {
	const (
		sampleRate = 44100
		click      = 2000
	)
	signal := sine(4410, sampleRate, 220, 0.3)
	signal[click] += 0.9
	orig := append([]float64(nil), signal...)

	refDelta := 0.0
	for i := 0; i < len(orig)-1; i++ {
		if i == click-1 || i == click {
			continue
		}
		refDelta = math.Max(refDelta, math.Abs(orig[i+1]-orig[i]))
	}

	crossfade := msToSamples(sampleRate, 5)
	w := Repair(signal, click, 300, crossfade)
	if w.Len() != 600 || w.Len() <= crossfade {
		t.Fatalf("window length = %d, want 600 (longer than the %d-sample fade)", w.Len(), crossfade)
	}

	for _, i := range []int{w.Start, w.End} {
		if d := math.Abs(signal[i] - signal[i-1]); d > refDelta+1e-9 {
			t.Errorf("seam delta at %d = %v, want <= %v", i, d, refDelta)
		}
	}
	for i := w.Start; i < w.End-1; i++ {
		if d := math.Abs(signal[i+1] - signal[i]); d > 2*refDelta {
			t.Errorf("delta inside window at %d = %v, want <= %v", i, d, 2*refDelta)
		}
	}
	if v := math.Abs(signal[click]); v > 0.3 {
		t.Errorf("click sample = %v after repair, want within the tone's amplitude", signal[click])
	}
}
