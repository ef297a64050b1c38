package temporal

// Run is a half-open frame interval [Start, End) of consecutive active frames.
type Run struct {
	Start int
	End   int
}

// Len returns the number of frames in the run.
func (r Run) Len() int {
	return r.End - r.Start
}

// ThresholdMask marks frames whose level is at or above threshold.
func ThresholdMask(levels []float32, threshold float64) []bool {
	mask := make([]bool, len(levels))
	for i, v := range levels {
		mask[i] = float64(v) >= threshold
	}
	return mask
}

// ActiveRuns scans mask left to right and returns the runs of true frames
// that are at least minFrames long. A run closes at the first false frame or
// at the end of the mask; shorter runs are discarded. Runs are never merged
// across gaps, however short.
func ActiveRuns(mask []bool, minFrames int) []Run {
	var runs []Run
	currentStart := -1

	for i, active := range mask {
		if active && currentStart == -1 {
			currentStart = i
		}
		if currentStart == -1 {
			continue
		}
		end := -1
		if !active {
			end = i
		} else if i == len(mask)-1 {
			end = i + 1
		}
		if end == -1 {
			continue
		}
		if end-currentStart >= minFrames {
			runs = append(runs, Run{Start: currentStart, End: end})
		}
		currentStart = -1
	}

	return runs
}
