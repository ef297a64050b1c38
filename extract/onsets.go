package extract

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-ir/algorithms/common"
	"github.com/RyanBlaney/sonido-ir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
)

// detectOnsets emits an onset event for every accepted spectral flux peak.
// Flux index k measures the change from frame k to k+1, so the onset is
// placed at frame k+1.
func (e *Extractor) detectOnsets(f *features, st *runState) {
	if f.stft.TimeFrames < 2 {
		return
	}

	onset := e.cfg.Onset
	minGap := common.FramesForDuration(onset.MinGapSeconds, f.res.Hop, f.sampleRate)
	peaks := e.onsets.Detect(f.stft.Magnitude, onset.ZThreshold, minGap)

	note := fmt.Sprintf("spectral flux z>=%g", onset.ZThreshold)
	for _, p := range peaks {
		t := f.stft.TimeAt(p.Index + 1)
		evid := st.ledger.Record(ir.EvidenceFrameRange, f.logmagField,
			math.Max(0, t-OnsetEvidenceHalfWidth), t+OnsetEvidenceHalfWidth, note)
		st.delta.Events = append(st.delta.Events, ir.TimedAtom{
			ID:         st.ids.Next(ir.PrefixEvent),
			T0:         t,
			T1:         t,
			Type:       EventOnset,
			Confidence: temporal.OnsetConfidence(p.Z),
			Track:      ir.MixTrackID,
			Tags:       []string{f.res.Name},
			Attrs: map[string]any{
				"z":   p.Z,
				"hop": f.res.Hop,
				"win": f.res.Window,
			},
			Evidence: []string{evid},
		})
	}

	e.logger.Debug("Onset detection completed", logging.Fields{
		"function":       "detectOnsets",
		"resolution":     f.res.Name,
		"min_gap_frames": minGap,
		"onsets":         len(peaks),
	})
}
