package extract

import (
	"fmt"

	"github.com/RyanBlaney/sonido-ir/algorithms/common"
	"github.com/RyanBlaney/sonido-ir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
)

// segmentActivity emits a non_silence segment for every run of frames at or
// above the level threshold that lasts at least the minimum on-duration.
// Gaps between runs are never merged; Activity.MinOffSeconds is read but has
// no effect.
func (e *Extractor) segmentActivity(f *features, st *runState) {
	activity := e.cfg.Activity
	minOn := common.FramesForDuration(activity.MinOnSeconds, f.res.Hop, f.sampleRate)
	minOff := common.FramesForDuration(activity.MinOffSeconds, f.res.Hop, f.sampleRate)

	logger := e.logger.WithFields(logging.Fields{
		"function":   "segmentActivity",
		"resolution": f.res.Name,
	})

	mask := temporal.ThresholdMask(f.rmsDB, activity.ThresholdDB)
	runs := temporal.ActiveRuns(mask, minOn)

	note := fmt.Sprintf("activity on %s: rms_db >= %g dB", f.res.Name, activity.ThresholdDB)
	for _, run := range runs {
		t0 := f.stft.TimeAt(run.Start)
		t1 := f.stft.TimeAt(run.End - 1)
		evid := st.ledger.Record(ir.EvidenceFrameRange, f.rmsField, t0, t1, note)
		st.delta.Segments = append(st.delta.Segments, ir.TimedAtom{
			ID:         st.ids.Next(ir.PrefixSegment),
			T0:         t0,
			T1:         t1,
			Type:       SegmentNonSilence,
			Confidence: SegmentConfidence,
			Track:      ir.MixTrackID,
			Tags:       []string{f.res.Name},
			Attrs:      map[string]any{"rms_db_threshold": activity.ThresholdDB},
			Evidence:   []string{evid},
		})
	}

	logger.Debug("Activity segmentation completed", logging.Fields{
		"min_on_frames":  minOn,
		"min_off_frames": minOff,
		"segments":       len(runs),
	})
}
