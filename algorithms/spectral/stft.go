package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-ir/algorithms/windowing"
	"github.com/RyanBlaney/sonido-ir/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// STFTResult holds the magnitude spectrogram of one analysis resolution.
type STFTResult struct {
	Magnitude      [][]float32 `json:"-"`               // Time x Frequency magnitude matrix
	Times          []float64   `json:"times"`           // Frame-centre times in seconds
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
		}),
	}
}

// FrameCount returns the number of whole frames that fit in n samples
// without edge padding.
func FrameCount(n, windowSize, hopSize int) int {
	if n < windowSize || windowSize <= 0 || hopSize <= 0 {
		return 0
	}
	return (n-windowSize)/hopSize + 1
}

// FrameTimes returns the frame-centre time axis (windowSize/2 + i·hopSize)/sampleRate.
func FrameTimes(frames, windowSize, hopSize, sampleRate int) []float64 {
	times := make([]float64, frames)
	for i := range frames {
		times[i] = float64(windowSize/2+i*hopSize) / float64(sampleRate)
	}
	return times
}

// Compute computes the magnitude STFT of signal with a periodic Hann window.
// Framing is boundary-exact: only frames lying fully inside the signal are
// analysed, so a signal shorter than one window yields zero frames.
// Frames are processed sequentially in order.
func (s *STFT) Compute(signal []float32, windowSize, hopSize, sampleRate int) (*STFTResult, error) {
	if windowSize < 2 {
		return nil, fmt.Errorf("window size must be at least 2, got %d", windowSize)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d", hopSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numFrames := FrameCount(len(signal), windowSize, hopSize)
	freqBins := windowSize/2 + 1

	logger := s.logger.WithFields(logging.Fields{
		"function":    "Compute",
		"window_size": windowSize,
		"hop_size":    hopSize,
		"samples":     len(signal),
	})

	window := windowing.NewHann(windowSize, false)
	frameBuffer := make([]float64, windowSize)
	magnitude := make([][]float32, numFrames)

	for frameIdx := range numFrames {
		start := frameIdx * hopSize
		for i, v := range signal[start : start+windowSize] {
			frameBuffer[i] = float64(v)
		}
		if err := window.ApplyInPlace(frameBuffer); err != nil {
			return nil, err
		}
		magnitude[frameIdx] = make([]float32, freqBins)
		s.fft.MagnitudeInto(magnitude[frameIdx], frameBuffer)
	}

	logger.Debug("STFT computed", logging.Fields{
		"frames":    numFrames,
		"freq_bins": freqBins,
	})

	return &STFTResult{
		Magnitude:      magnitude,
		Times:          FrameTimes(numFrames, windowSize, hopSize, sampleRate),
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// TimeAt returns the frame-centre time of frame i, falling back to i·hop/sr
// when i lies beyond the computed axis.
func (r *STFTResult) TimeAt(i int) float64 {
	if i >= 0 && i < len(r.Times) {
		return r.Times[i]
	}
	return float64(i) * r.TimeResolution
}

// FrequencyMajor flattens the magnitude into a (FreqBins, TimeFrames)
// row-major array after applying fn to every element.
func (r *STFTResult) FrequencyMajor(fn func(float32) float32) []float32 {
	out := make([]float32, r.FreqBins*r.TimeFrames)
	for t, frame := range r.Magnitude {
		for f, v := range frame {
			if fn != nil {
				v = fn(v)
			}
			out[f*r.TimeFrames+t] = v
		}
	}
	return out
}
