package audio

import (
	"fmt"
)

// MaxChannels is the largest channel count the processing engines accept.
// Sources with more channels are reduced to their first MaxChannels channels on load.
const MaxChannels = 2

// Buffer is an in-memory, peak-normalised block of audio.
// Channels[c][i] is sample i of channel c, nominally in [-1, 1].
// All channels share the same length and sample rate.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// NewBuffer creates a buffer of numChannels silent channels of length samples
func NewBuffer(sampleRate, numChannels, length int) *Buffer {
	channels := make([][]float64, numChannels)
	for c := range channels {
		channels[c] = make([]float64, length)
	}
	return &Buffer{SampleRate: sampleRate, Channels: channels}
}

// Len returns the number of samples per channel
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// NumChannels returns the channel count
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}

// Clone returns a deep copy, so engines can return new buffers without
// aliasing their input.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Channels: make([][]float64, len(b.Channels))}
	for c, ch := range b.Channels {
		out.Channels[c] = append([]float64(nil), ch...)
	}
	return out
}

// Validate checks the structural invariants of the buffer: a positive sample rate,
// one or two channels, and equal channel lengths. Zero-length channels are valid.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil audio buffer")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", b.SampleRate)
	}
	if len(b.Channels) == 0 || len(b.Channels) > MaxChannels {
		return fmt.Errorf("unsupported channel count %d (want 1 or %d)", len(b.Channels), MaxChannels)
	}
	n := len(b.Channels[0])
	for c, ch := range b.Channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", c+1, len(ch), n)
		}
	}
	return nil
}
