package processor

import (
	"errors"
	"math"
	"testing"
)

func TestBandEdges(t *testing.T) {
	edges := BandEdges(12, 150, 9600)

	if len(edges) != 13 {
		t.Fatalf("len(edges) = %d, want 13", len(edges))
	}
	if edges[0] != 150 || edges[12] != 9600 {
		t.Errorf("outer edges = %v, %v, want 150, 9600", edges[0], edges[12])
	}
	// 9600/150 = 64, so the geometric midpoint is 1200 Hz
	if math.Abs(edges[6]-1200) > 1e-9 {
		t.Errorf("edges[6] = %v, want 1200", edges[6])
	}

	ratio := edges[1] / edges[0]
	for i := 1; i < len(edges); i++ {
		if r := edges[i] / edges[i-1]; math.Abs(r-ratio) > 1e-9 {
			t.Errorf("edges[%d]/edges[%d] = %v, want constant ratio %v", i, i-1, r, ratio)
		}
	}
}

func TestButterworthQ(t *testing.T) {
	tests := []struct {
		order, section int
		want           float64
	}{
		{2, 0, 1 / math.Sqrt2},
		{4, 0, 1.3065629648763766},
		{4, 1, 0.5411961001461969},
	}
	for _, tt := range tests {
		if got := butterworthQ(tt.order, tt.section); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("butterworthQ(%d, %d) = %v, want %v", tt.order, tt.section, got, tt.want)
		}
	}
}

func TestFilterBankReconstruction(t *testing.T) {
	const (
		sampleRate = 44100
		n          = 8820 // 200 ms
	)

	tests := []struct {
		name  string
		freqs []float64
	}{
		{"1 kHz tone", []float64{1000}},
		{"three tones", []float64{500, 1000, 2000}},
	}

	fb, err := NewFilterBank(sampleRate, 12, 150, 9600)
	if err != nil {
		t.Fatalf("NewFilterBank failed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := make([]float64, n)
			for _, f := range tt.freqs {
				for i, v := range sine(n, sampleRate, f, 0.2) {
					x[i] += v
				}
			}

			bands := fb.Split(x)
			if len(bands) != 12 {
				t.Fatalf("Split returned %d bands, want 12", len(bands))
			}
			y := Merge(bands)
			if len(y) != n {
				t.Fatalf("Merge returned %d samples, want %d", len(y), n)
			}

			diff := make([]float64, n)
			for i := range x {
				diff[i] = y[i] - x[i]
			}
			relErr := rms(diff, 0, n) / rms(x, 0, n)
			if relErr >= 1e-2 {
				t.Errorf("relative reconstruction error = %.5f, want < 1e-2", relErr)
			}
		})
	}
}

func TestFilterBankBandSelectivity(t *testing.T) {
	const sampleRate = 44100
	fb, err := NewFilterBank(sampleRate, 12, 150, 9600)
	if err != nil {
		t.Fatalf("NewFilterBank failed: %v", err)
	}

	x := sine(sampleRate/5, sampleRate, 1000, 0.5)
	bands := fb.Split(x)

	loudest, loudestRMS := -1, 0.0
	for i, b := range bands {
		if r := rms(b.Samples, 0, len(x)); r > loudestRMS {
			loudest, loudestRMS = i, r
		}
	}
	if got := bands[loudest]; got.LowHz > 1000 || got.HighHz < 1000 {
		t.Errorf("1 kHz energy peaks in band %d (%.0f-%.0f Hz)", loudest, got.LowHz, got.HighHz)
	}
}

func TestSplitDoesNotModifyInput(t *testing.T) {
	fb, err := NewFilterBank(8000, 3, 100, 3000)
	if err != nil {
		t.Fatalf("NewFilterBank failed: %v", err)
	}
	x := sine(400, 8000, 440, 0.5)
	orig := append([]float64(nil), x...)

	fb.Split(x)

	if d := maxAbsDiff(x, orig, 0, len(x)); d != 0 {
		t.Errorf("Split modified its input (max diff %v)", d)
	}
}

func TestZeroPhaseHasNoDelay(t *testing.T) {
	const sampleRate = 44100
	x := sine(sampleRate/4, sampleRate, 100, 0.8)

	y, err := LowPass(x, sampleRate, 5000)
	if err != nil {
		t.Fatalf("LowPass failed: %v", err)
	}

	if d := maxAbsDiff(x, y, 1000, len(x)-1000); d > 1e-3 {
		t.Errorf("passband tone changed by %v after zero-phase low-pass, want < 1e-3", d)
	}
}

func TestZeroPhaseShortSignals(t *testing.T) {
	coeffs := lowpassSections(1000, 44100)

	tests := []struct {
		name string
		in   []float64
	}{
		{"empty", []float64{}},
		{"one sample", []float64{0.5}},
		{"two samples", []float64{0.5, -0.5}},
		{"shorter than padding", []float64{0.1, 0.2, 0.3, 0.2, 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ZeroPhase(coeffs, tt.in)
			if len(out) != len(tt.in) {
				t.Fatalf("len = %d, want %d", len(out), len(tt.in))
			}
			if err := checkFinite(out, "test", 0, -1); err != nil {
				t.Errorf("ZeroPhase produced %v", err)
			}
		})
	}
}

func TestNewFilterBankRejectsBadEdges(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		bands      int
		low, high  float64
	}{
		{"zero low edge", 44100, 12, 0, 9600},
		{"negative low edge", 44100, 12, -10, 9600},
		{"high edge at Nyquist", 44100, 12, 150, 22050},
		{"high edge above Nyquist", 8000, 4, 150, 5000},
		{"inverted edges", 44100, 12, 9600, 150},
		{"equal edges", 44100, 12, 1000, 1000},
		{"no bands", 44100, 0, 150, 9600},
		{"NaN edge", 44100, 12, math.NaN(), 9600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilterBank(tt.sampleRate, tt.bands, tt.low, tt.high)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("NewFilterBank error = %v, want *ConfigError", err)
			}
		})
	}
}

func TestLowPassRejectsCutoff(t *testing.T) {
	for _, cutoff := range []float64{0, -100, 22050, 30000} {
		if _, err := LowPass([]float64{0, 1, 0}, 44100, cutoff); err == nil {
			t.Errorf("LowPass accepted cutoff %v", cutoff)
		}
	}
}
