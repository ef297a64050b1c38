package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StdFloor is added to a standard deviation before dividing by it.
const StdFloor = 1e-9

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopMeanStdDev returns the mean and population (biased) standard deviation.
func PopMeanStdDev(data []float64) (mean, std float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(data, nil)
}

// ZScore standardises data with its own mean and population standard
// deviation, adding eps to the deviation so constant input maps to zeros.
func ZScore(data []float64, eps float64) []float64 {
	if len(data) == 0 {
		return []float64{}
	}
	mean, std := PopMeanStdDev(data)
	z := make([]float64, len(data))
	copy(z, data)
	floats.AddConst(-mean, z)
	floats.Scale(1/(std+eps), z)
	return z
}

// FramesForDuration converts seconds to a whole number of hops, rounding up:
// ceil(seconds / (hop/sampleRate)).
func FramesForDuration(seconds float64, hopSize, sampleRate int) int {
	if seconds <= 0 || hopSize <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Ceil(seconds / (float64(hopSize) / float64(sampleRate))))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
