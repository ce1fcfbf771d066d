// Package audio provides audio file I/O: WAV, FLAC and MP3 decoding into
// peak-normalised float buffers, and 16-bit PCM WAV encoding.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for files whose extension has no decoder
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExtensions lists the input file extensions the reader can decode
var SupportedExtensions = []string{".wav", ".flac", ".mp3"}

// Metadata contains audio file metadata
type Metadata struct {
	Format         string // "wav", "flac" or "mp3"
	Duration       float64
	SampleRate     int
	Channels       int       // Channel count in the source file
	UsedChannels   int       // Channels kept after reduction to MaxChannels
	BitDepth       int       // Source bit depth (16 for MP3, which decodes to s16)
	SourcePeaks    []float64 // Per-channel peak before normalisation, linear full scale (1.0 = 0 dBFS)
	TotalFrames    int
	NormalisedGain []float64 // Gain applied to each kept channel by peak normalisation
}

// Reader holds the decoded, interleaved PCM of one audio file
type Reader struct {
	path     string
	data     []int // interleaved integer PCM at the source bit depth
	channels int
	meta     *Metadata
}

// IsSupported reports whether the file extension has a decoder
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// OpenAudioFile decodes an audio file into memory.
// The format is chosen by file extension.
func OpenAudioFile(filename string) (*Reader, *Metadata, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		r   *Reader
		err error
	)
	switch ext {
	case ".wav":
		r, err = decodeWAV(filename)
	case ".flac":
		r, err = decodeFLAC(filename)
	case ".mp3":
		r, err = decodeMP3(filename)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, nil, err
	}
	if r.meta.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("invalid sample rate %d in file: %s", r.meta.SampleRate, filename)
	}
	if r.channels <= 0 {
		return nil, nil, fmt.Errorf("no audio channels in file: %s", filename)
	}

	if r.meta.BitDepth <= 0 {
		r.meta.BitDepth = 16
	}

	r.path = filename
	r.meta.TotalFrames = len(r.data) / r.channels
	r.meta.Duration = float64(r.meta.TotalFrames) / float64(r.meta.SampleRate)
	r.meta.UsedChannels = min(r.channels, MaxChannels)

	return r, r.meta, nil
}

// Load decodes a file and returns its peak-normalised buffer in one step
func Load(filename string) (*Buffer, *Metadata, error) {
	r, meta, err := OpenAudioFile(filename)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	return r.ReadBuffer(), meta, nil
}

// ReadBuffer deinterleaves the decoded PCM into a Buffer.
// Only the first MaxChannels channels are kept, and each kept channel is divided
// by its own absolute peak so it spans [-1, 1]. A silent channel stays silent.
func (r *Reader) ReadBuffer() *Buffer {
	frames := len(r.data) / r.channels
	kept := min(r.channels, MaxChannels)
	fullScale := math.Exp2(float64(r.meta.BitDepth - 1))

	buf := NewBuffer(r.meta.SampleRate, kept, frames)
	r.meta.SourcePeaks = make([]float64, kept)
	r.meta.NormalisedGain = make([]float64, kept)

	for c := 0; c < kept; c++ {
		ch := buf.Channels[c]
		peak := 0.0
		for i := 0; i < frames; i++ {
			v := float64(r.data[i*r.channels+c])
			ch[i] = v
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}

		r.meta.SourcePeaks[c] = peak / fullScale
		if peak == 0 {
			r.meta.NormalisedGain[c] = 1
			continue
		}
		r.meta.NormalisedGain[c] = fullScale / peak
		for i := range ch {
			ch[i] /= peak
		}
	}

	return buf
}

// Path returns the path the reader was opened from
func (r *Reader) Path() string {
	return r.path
}

// Close releases the decoded data
func (r *Reader) Close() {
	r.data = nil
}

func decodeWAV(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", filename)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if pcm.Format == nil {
		return nil, fmt.Errorf("missing format chunk in file: %s", filename)
	}

	return &Reader{
		data:     pcm.Data,
		channels: pcm.Format.NumChannels,
		meta: &Metadata{
			Format:     "wav",
			SampleRate: pcm.Format.SampleRate,
			Channels:   pcm.Format.NumChannels,
			BitDepth:   pcm.SourceBitDepth,
		},
	}, nil
}

func decodeFLAC(filename string) (*Reader, error) {
	stream, err := flac.ParseFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	data := make([]int, 0, int(info.NSamples)*channels)

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode FLAC frame: %w", err)
		}
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				data = append(data, int(frame.Subframes[ch].Samples[i]))
			}
		}
	}

	return &Reader{
		data:     data,
		channels: channels,
		meta: &Metadata{
			Format:     "flac",
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   int(info.BitsPerSample),
		},
	}, nil
}

// go-mp3 always decodes to 16-bit little-endian interleaved stereo
const mp3Channels = 2

func decodeMP3(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	data := make([]int, len(raw)/2)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	// Drop a trailing partial frame
	data = data[:len(data)-len(data)%mp3Channels]

	return &Reader{
		data:     data,
		channels: mp3Channels,
		meta: &Metadata{
			Format:     "mp3",
			SampleRate: dec.SampleRate(),
			Channels:   mp3Channels,
			BitDepth:   16,
		},
	}, nil
}
