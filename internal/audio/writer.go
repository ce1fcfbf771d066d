package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// OutputBitDepth is the PCM depth written by Save
const OutputBitDepth = 16

const wavFormatPCM = 1

// Denormalise converts a normalised sample to 16-bit PCM:
// round(sample * 32767), clipped to the int16 range.
func Denormalise(sample float64) int {
	v := math.Round(sample * math.MaxInt16)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int(v)
}

// Save writes the buffer as a 16-bit PCM WAV file.
// Non-finite samples are rejected rather than written.
func Save(path string, buf *Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("cannot save buffer: %w", err)
	}

	numChannels := buf.NumChannels()
	frames := buf.Len()
	data := make([]int, frames*numChannels)
	for c, ch := range buf.Channels {
		for i, s := range ch {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				return fmt.Errorf("non-finite sample at channel %d index %d", c, i)
			}
			data[i*numChannels+c] = Denormalise(s)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	enc := wav.NewEncoder(f, buf.SampleRate, OutputBitDepth, numChannels, wavFormatPCM)
	pcm := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: numChannels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: OutputBitDepth,
	}

	if err := enc.Write(pcm); err != nil {
		f.Close()
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalise WAV header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}
