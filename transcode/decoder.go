package transcode

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-ir/logging"
)

// RIFF audio format tags.
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// Decoder reads WAV containers into canonical buffers.
type Decoder struct {
	options Options
	logger  logging.Logger
}

// NewDecoder creates a WAV decoder that enforces opts on every buffer.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{
		options: opts,
		logger: logging.WithFields(logging.Fields{
			"component": "wav_decoder",
		}),
	}
}

// DecodeWAVFile decodes the WAV file at path with default decoder settings.
func DecodeWAVFile(path string, opts Options) (*AudioData, error) {
	return NewDecoder(opts).DecodeFile(path)
}

// DecodeWAV decodes a WAV stream with default decoder settings.
func DecodeWAV(r io.ReadSeeker, opts Options) (*AudioData, error) {
	return NewDecoder(opts).DecodeReader(r)
}

// DecodeFile opens and decodes a WAV file.
func (d *Decoder) DecodeFile(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	data, err := d.DecodeReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	data.Source = path
	return data, nil
}

// DecodeReader decodes integer PCM and 32-bit IEEE float WAV data. 8-bit
// samples are unsigned, 16-bit are scaled as int16, 24-bit and 32-bit as
// int32. Float samples are passed through unscaled.
func (d *Decoder) DecodeReader(r io.ReadSeeker) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeReader",
	})

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}
	format := int(decoder.WavAudioFormat)
	switch {
	case format == wavFormatPCM:
	case format == wavFormatFloat && decoder.BitDepth == 32:
	case format == wavFormatFloat:
		return nil, fmt.Errorf("unsupported float WAV bit depth %d: only 32-bit is supported", decoder.BitDepth)
	default:
		return nil, fmt.Errorf("unsupported WAV format tag %d: only PCM and IEEE float are supported", format)
	}

	sampleRate := int(decoder.SampleRate)
	if err := CheckSampleRate(sampleRate, d.options.ExpectedSampleRate); err != nil {
		return nil, err
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyBuffer
	}

	channels := buf.Format.NumChannels
	bitDepth := int(decoder.BitDepth)

	logger.Debug("Decoded WAV header", logging.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"bit_depth":   bitDepth,
		"format":      format,
		"samples":     len(buf.Data),
	})

	if format == wavFormatFloat {
		return canonicalizeFloatBuffer(buf, channels, sampleRate, d.options)
	}
	return canonicalizeIntBuffer(buf, bitDepth, channels, sampleRate, d.options)
}

// canonicalizeFloatBuffer recovers 32-bit float samples, which the wav
// decoder hands back as their raw bit patterns.
func canonicalizeFloatBuffer(buf *audio.IntBuffer, channels, sampleRate int, opts Options) (*AudioData, error) {
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = math.Float32frombits(uint32(int32(v)))
	}
	return Canonicalize(samples, channels, sampleRate, opts)
}

func canonicalizeIntBuffer(buf *audio.IntBuffer, bitDepth, channels, sampleRate int, opts Options) (*AudioData, error) {
	switch bitDepth {
	case 8:
		samples := make([]uint8, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = uint8(v)
		}
		return Canonicalize(samples, channels, sampleRate, opts)
	case 16:
		samples := make([]int16, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = int16(v)
		}
		return Canonicalize(samples, channels, sampleRate, opts)
	case 24:
		// left-align into the int32 range
		samples := make([]int32, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = int32(v) << 8
		}
		return Canonicalize(samples, channels, sampleRate, opts)
	case 32:
		samples := make([]int32, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = int32(v)
		}
		return Canonicalize(samples, channels, sampleRate, opts)
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}
