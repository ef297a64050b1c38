package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, sampleRate int, freq, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		n, win, hop, want int
	}{
		{48000, 1024, 256, 184},
		{48000, 4096, 1024, 43},
		{1024, 1024, 256, 1},
		{1023, 1024, 256, 0},
		{0, 1024, 256, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FrameCount(tt.n, tt.win, tt.hop), "n=%d win=%d hop=%d", tt.n, tt.win, tt.hop)
	}
}

func TestFrameTimesAreCentres(t *testing.T) {
	times := FrameTimes(3, 1024, 256, 48000)
	assert.InDeltaSlice(t, []float64{512.0 / 48000, 768.0 / 48000, 1024.0 / 48000}, times, 1e-12)
}

func TestSTFTShapeAndPeak(t *testing.T) {
	const sr = 8000
	// 1000 Hz sits exactly on bin 32 of a 256-point window
	signal := sine(2048, sr, 1000, 0.5)

	res, err := NewSTFT().Compute(signal, 256, 128, sr)
	require.NoError(t, err)

	assert.Equal(t, 15, res.TimeFrames)
	assert.Equal(t, 129, res.FreqBins)
	require.Len(t, res.Magnitude, 15)
	require.Len(t, res.Times, 15)

	frame := res.Magnitude[3]
	peak := 0
	for k := range frame {
		if frame[k] > frame[peak] {
			peak = k
		}
	}
	assert.Equal(t, 32, peak)
	// periodic Hann: peak magnitude = amp · N/4
	assert.InDelta(t, 0.5*256/4, float64(frame[32]), 0.05)
}

func TestSTFTShortSignalHasNoFrames(t *testing.T) {
	res, err := NewSTFT().Compute(make([]float32, 100), 256, 64, 8000)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TimeFrames)
	assert.Empty(t, res.Magnitude)
	assert.Empty(t, res.FrequencyMajor(nil))
}

func TestSTFTRejectsBadParameters(t *testing.T) {
	s := NewSTFT()
	_, err := s.Compute(make([]float32, 100), 1, 1, 8000)
	assert.Error(t, err)
	_, err = s.Compute(make([]float32, 100), 16, 0, 8000)
	assert.Error(t, err)
	_, err = s.Compute(make([]float32, 100), 16, 4, 0)
	assert.Error(t, err)
}

func TestSTFTDeterministic(t *testing.T) {
	signal := sine(4096, 16000, 440, 0.3)
	a, err := NewSTFT().Compute(signal, 512, 128, 16000)
	require.NoError(t, err)
	b, err := NewSTFT().Compute(signal, 512, 128, 16000)
	require.NoError(t, err)
	assert.Equal(t, a.Magnitude, b.Magnitude)
}

func TestFrequencyMajorLayout(t *testing.T) {
	res := &STFTResult{
		Magnitude:  [][]float32{{1, 2, 3}, {4, 5, 6}},
		TimeFrames: 2,
		FreqBins:   3,
	}
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, res.FrequencyMajor(nil))
	assert.Equal(t, []float32{2, 8, 4, 10, 6, 12}, res.FrequencyMajor(func(v float32) float32 { return 2 * v }))
}

func TestTimeAtFallsBack(t *testing.T) {
	res := &STFTResult{Times: []float64{0.5}, TimeResolution: 0.25}
	assert.Equal(t, 0.5, res.TimeAt(0))
	assert.Equal(t, 0.75, res.TimeAt(3))
}
