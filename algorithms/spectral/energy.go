package spectral

import "math"

// RMSFloor is added inside the square root and again before the logarithm so
// silent frames map to a finite level (about -120 dB).
const RMSFloor = 1e-12

// LogMagnitude returns log(1+m) for a magnitude value.
func LogMagnitude(m float32) float32 {
	return float32(math.Log1p(float64(m)))
}

// RMSdB returns, per frame, the root-mean-square of the magnitudes across
// frequency bins expressed in decibels: 20·log10(sqrt(mean(m²)+ε) + ε).
func RMSdB(spectrogram [][]float32) []float32 {
	out := make([]float32, len(spectrogram))
	for t, frame := range spectrogram {
		if len(frame) == 0 {
			out[t] = float32(20 * math.Log10(math.Sqrt(RMSFloor)+RMSFloor))
			continue
		}
		var sumSquares float32
		for _, m := range frame {
			sumSquares += m * m
		}
		meanSquare := float64(sumSquares / float32(len(frame)))
		rms := float32(math.Sqrt(meanSquare + RMSFloor))
		out[t] = float32(20 * math.Log10(float64(rms)+RMSFloor))
	}
	return out
}
