package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-ir/algorithms/common"
	"github.com/RyanBlaney/sonido-ir/algorithms/spectral"
)

// Peak is an accepted onset candidate: Index into the flux sequence and its
// z-score.
type Peak struct {
	Index int
	Z     float64
}

// OnsetDetection detects onsets from spectral flux z-scores.
type OnsetDetection struct {
	spectralFlux *spectral.SpectralFlux
}

// NewOnsetDetection creates a new onset detector
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		spectralFlux: spectral.NewSpectralFlux(),
	}
}

// FluxZScores computes the spectral flux of a Time x Frequency magnitude
// spectrogram and standardises it against its own mean and deviation.
func (od *OnsetDetection) FluxZScores(magnitude [][]float32) []float64 {
	flux := od.spectralFlux.Compute(magnitude)
	return common.ZScore(flux, common.StdFloor)
}

// Detect returns the accepted onset peaks for a magnitude spectrogram.
func (od *OnsetDetection) Detect(magnitude [][]float32, threshold float64, minGapFrames int) []Peak {
	return PickOnsets(od.FluxZScores(magnitude), threshold, minGapFrames)
}

// PickOnsets scans z left to right. Index k is accepted when z[k] meets
// threshold and at least minGapFrames indices have passed since the last
// accepted onset; the first qualifying index always wins over later ones
// inside the gap.
func PickOnsets(z []float64, threshold float64, minGapFrames int) []Peak {
	var peaks []Peak
	last := math.MinInt / 2

	for k, zk := range z {
		if zk >= threshold && k-last >= minGapFrames {
			peaks = append(peaks, Peak{Index: k, Z: zk})
			last = k
		}
	}

	return peaks
}

// OnsetConfidence maps a z-score to a confidence in [0,1]:
// min(1, 0.5 + 0.1·z), floored at 0.
func OnsetConfidence(z float64) float64 {
	return common.Clamp(0.5+0.1*z, 0, 1)
}
