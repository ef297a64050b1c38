package spectral

// SpectralFlux computes spectral flux (measure of spectral change)
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute returns, for each adjacent frame pair of a Time x Frequency
// spectrogram, the sum over bins of the half-wave rectified magnitude
// increase. The result has one element fewer than the frame count; fewer
// than two frames yield an empty slice.
func (sf *SpectralFlux) Compute(spectrogram [][]float32) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)

	for t := 1; t < len(spectrogram); t++ {
		var sum float32
		prev := spectrogram[t-1]
		for f, v := range spectrogram[t] {
			if diff := v - prev[f]; diff > 0 {
				sum += diff
			}
		}
		flux[t-1] = float64(sum)
	}

	return flux
}
