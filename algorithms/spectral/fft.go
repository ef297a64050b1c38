package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal using mjibson/go-dsp.
// go-dsp handles non-power-of-2 sizes.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// MagnitudeInto writes |X[k]| for the first len(dst) bins of x into dst.
func (f *FFT) MagnitudeInto(dst []float32, x []float64) {
	spectrum := f.Compute(x)
	for k := range dst {
		dst[k] = float32(cmplx.Abs(spectrum[k]))
	}
}
