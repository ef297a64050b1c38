package transcode

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeInt16Scaling(t *testing.T) {
	data, err := Canonicalize([]int16{0, math.MaxInt16, -math.MaxInt16, 16384}, 1, 8000, Options{})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float32{0, 1, -1, 16384.0 / 32767.0}, data.PCM, 1e-6)
	assert.Equal(t, 8000, data.SampleRate)
	assert.Equal(t, 1, data.Channels)
	assert.Equal(t, 500*time.Microsecond, data.Duration)
}

func TestCanonicalizeFloatIsNotRescaled(t *testing.T) {
	data, err := Canonicalize([]float64{0.25, -2.0, 3.5}, 1, 100, Options{})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -2.0, 3.5}, data.PCM)
}

func TestCanonicalizeDownmix(t *testing.T) {
	// two channels interleaved: L R L R
	data, err := Canonicalize([]float32{1, 0, 0.5, -0.5, -1, -1}, 2, 48000, Options{})
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0, -1}, data.PCM)
	assert.Equal(t, 2, data.Channels, "channel count survives downmix")
	assert.InDelta(t, 3.0/48000.0, data.DurationSeconds(), 1e-12)
}

func TestCanonicalizeNamedIntegerType(t *testing.T) {
	type pcm8 uint8
	data, err := Canonicalize([]pcm8{255, 0}, 1, 8000, Options{})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, data.PCM)
}

func TestCanonicalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		chans   int
		sr      int
		opts    Options
		wantErr error
	}{
		{"rate mismatch", []int16{1, 2}, 1, 44100, Options{ExpectedSampleRate: 48000}, ErrSampleRateMismatch},
		{"zero channels", []int16{1, 2}, 0, 48000, Options{}, ErrInvalidChannels},
		{"ragged frames", []int16{1, 2, 3}, 2, 48000, Options{}, ErrInvalidChannels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.samples, tt.chans, tt.sr, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanonicalizeMatchingExpectedRate(t *testing.T) {
	_, err := Canonicalize([]int16{1}, 1, 48000, Options{ExpectedSampleRate: 48000})
	assert.NoError(t, err)
}

func writeWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestDecodeWAVFile(t *testing.T) {
	path := writeWAV(t, 16000, 2, []int{32767, 32767, 0, -32767, 16384, 16384})

	data, err := DecodeWAVFile(path, Options{ExpectedSampleRate: 16000})
	require.NoError(t, err)

	assert.Equal(t, 16000, data.SampleRate)
	assert.Equal(t, 2, data.Channels)
	assert.Equal(t, path, data.Source)
	assert.InDeltaSlice(t, []float32{1, -0.5, 16384.0 / 32767.0}, data.PCM, 1e-6)
}

func TestDecodeFloatWAVFile(t *testing.T) {
	want := []float32{0.25, -0.5, 1.5, 0}
	data := make([]int, len(want))
	for i, v := range want {
		data[i] = int(int32(math.Float32bits(v)))
	}

	path := filepath.Join(t.TempDir(), "float.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 8000, 32, 1, 3)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 32,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	decoded, err := DecodeWAVFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, want, decoded.PCM, "float samples are not rescaled")
	assert.Equal(t, 8000, decoded.SampleRate)
}

func TestDecodeWAVFileRateMismatch(t *testing.T) {
	path := writeWAV(t, 22050, 1, []int{1, 2, 3, 4})
	_, err := DecodeWAVFile(path, Options{ExpectedSampleRate: 48000})
	assert.ErrorIs(t, err, ErrSampleRateMismatch)
}

func TestDecodeWAVFileMissing(t *testing.T) {
	_, err := DecodeWAVFile(filepath.Join(t.TempDir(), "nope.wav"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o644))

	_, err := DecodeWAVFile(path, Options{})
	assert.Error(t, err)
}
