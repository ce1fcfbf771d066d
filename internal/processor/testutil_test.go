package processor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/restorer/internal/audio"
)

// TestAudioOptions configures the synthetic audio to generate
type TestAudioOptions struct {
	DurationSecs float64 // Total duration in seconds
	SampleRate   int     // Sample rate (default: 44100)
	Channels     int     // 1 or 2 (default: 1); every channel carries the same content
	ToneFreq     float64 // Sine wave frequency in Hz (0 = no tone)
	ToneLevel    float64 // Tone level in dBFS (e.g., -23.0)
	NoiseLevel   float64 // White noise level in dBFS (0 = no noise, -60 = quiet noise)
	Clicks       []int   // Sample indices set to full scale
	SilenceGap   struct {
		Start    float64 // Start time of silence gap in seconds
		Duration float64 // Duration of silence gap in seconds
	}
}

// generateTestAudio creates a synthetic 16-bit WAV file in a test temp directory.
// The generated audio can include a sine wave tone, white noise, clicks and silence gaps.
func generateTestAudio(t *testing.T, opts TestAudioOptions) string {
	t.Helper()

	// Set defaults
	if opts.SampleRate == 0 {
		opts.SampleRate = 44100
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 5.0
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}

	signal := synthSignal(opts)
	samples := make([]int, 0, len(signal)*opts.Channels)
	maxInt16 := float64(math.MaxInt16)
	for _, s := range signal {
		s = math.Max(-1, math.Min(1, s))
		for c := 0; c < opts.Channels; c++ {
			samples = append(samples, int(s*maxInt16))
		}
	}

	path := filepath.Join(t.TempDir(), "restorer-test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := writeWAV(f, samples, opts.SampleRate, opts.Channels); err != nil {
		f.Close()
		t.Fatalf("failed to write WAV file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close test file: %v", err)
	}

	return path
}

// synthSignal renders the options to normalised float samples
func synthSignal(opts TestAudioOptions) []float64 {
	totalSamples := int(opts.DurationSecs * float64(opts.SampleRate))
	signal := make([]float64, totalSamples)

	toneAmp := 0.0
	if opts.ToneFreq > 0 && opts.ToneLevel < 0 {
		toneAmp = math.Pow(10.0, opts.ToneLevel/20.0)
	}
	noiseAmp := 0.0
	if opts.NoiseLevel < 0 {
		noiseAmp = math.Pow(10.0, opts.NoiseLevel/20.0)
	}

	silenceStart := int(opts.SilenceGap.Start * float64(opts.SampleRate))
	silenceEnd := int((opts.SilenceGap.Start + opts.SilenceGap.Duration) * float64(opts.SampleRate))

	noise := newLCG(12345)
	for i := range signal {
		if i >= silenceStart && i < silenceEnd && opts.SilenceGap.Duration > 0 {
			continue
		}
		if toneAmp > 0 {
			signal[i] += toneAmp * math.Sin(2.0*math.Pi*opts.ToneFreq*float64(i)/float64(opts.SampleRate))
		}
		if noiseAmp > 0 {
			signal[i] += noiseAmp * noise()
		}
	}
	for _, idx := range opts.Clicks {
		if idx >= 0 && idx < totalSamples {
			signal[idx] = 1.0
		}
	}

	return signal
}

// newLCG returns a deterministic noise source in [-1, 1]
// (avoids importing math/rand and seeding complexity)
func newLCG(seed uint32) func() float64 {
	state := seed
	return func() float64 {
		// LCG parameters from Numerical Recipes
		state = state*1664525 + 1013904223
		return (float64(state)/float64(0xFFFFFFFF))*2.0 - 1.0
	}
}

// sine returns n samples of amp*sin(2*pi*freq*i/sampleRate)
func sine(n, sampleRate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// monoBuffer wraps samples in a single-channel buffer
func monoBuffer(sampleRate int, samples []float64) *audio.Buffer {
	return &audio.Buffer{SampleRate: sampleRate, Channels: [][]float64{samples}}
}

// maxAbsDiff returns the largest absolute sample difference over a[from:to] and b[from:to]
func maxAbsDiff(a, b []float64, from, to int) float64 {
	worst := 0.0
	for i := from; i < to; i++ {
		worst = math.Max(worst, math.Abs(a[i]-b[i]))
	}
	return worst
}

// rms returns the root mean square of x[from:to]
func rms(x []float64, from, to int) float64 {
	sum := 0.0
	for _, v := range x[from:to] {
		sum += v * v
	}
	return math.Sqrt(sum / float64(to-from))
}

// writeWAV writes interleaved 16-bit PCM through the go-audio encoder
func writeWAV(f *os.File, samples []int, sampleRate, numChannels int) error {
	enc := wav.NewEncoder(f, sampleRate, 16, numChannels, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}
	return enc.Close()
}
