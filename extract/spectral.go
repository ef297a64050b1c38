package extract

import (
	"fmt"

	"github.com/RyanBlaney/sonido-ir/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ir/blob"
	"github.com/RyanBlaney/sonido-ir/config"
	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/logging"
)

// features is what one resolution's analysis hands to the detectors.
type features struct {
	res         config.Resolution
	sampleRate  int
	stft        *spectral.STFTResult
	rmsDB       []float32
	logmagField string
	rmsField    string
}

// LogMagFieldKey returns the field key of a resolution's log-magnitude
// spectrogram.
func LogMagFieldKey(res string) string {
	return fmt.Sprintf("%s/%s/stft/logmag", ir.MixTrackID, res)
}

// RMSFieldKey returns the field key of a resolution's per-frame level.
func RMSFieldKey(res string) string {
	return fmt.Sprintf("%s/%s/feat/rms_db", ir.MixTrackID, res)
}

// analyze computes the magnitude spectrogram, stores the log-magnitude
// (frequency-major, shape [bins, frames]) and per-frame RMS level, and
// records both fields in the delta.
func (e *Extractor) analyze(res config.Resolution, samples []float32, sampleRate int, st *runState) (*features, error) {
	logger := e.logger.WithFields(logging.Fields{
		"function":   "analyze",
		"resolution": res.Name,
	})

	result, err := e.stft.Compute(samples, res.Window, res.Hop, sampleRate)
	if err != nil {
		return nil, err
	}

	f := &features{
		res:         res,
		sampleRate:  sampleRate,
		stft:        result,
		rmsDB:       spectral.RMSdB(result.Magnitude),
		logmagField: LogMagFieldKey(res.Name),
		rmsField:    RMSFieldKey(res.Name),
	}

	logmag, err := blob.NewArray([]int{result.FreqBins, result.TimeFrames}, result.FrequencyMajor(spectral.LogMagnitude))
	if err != nil {
		return nil, err
	}
	if err := e.putField(st, f.logmagField, logmag, res.Name, "log(1+|STFT|)"); err != nil {
		return nil, err
	}

	rms, err := blob.NewArray([]int{result.TimeFrames}, f.rmsDB)
	if err != nil {
		return nil, err
	}
	if err := e.putField(st, f.rmsField, rms, res.Name, "per-frame RMS in dB (proxy from STFT magnitude)"); err != nil {
		return nil, err
	}

	logger.Debug("Stored spectral fields", logging.Fields{
		"frames":    result.TimeFrames,
		"freq_bins": result.FreqBins,
	})

	return f, nil
}

// putField stores arr under a hint derived from the field key and records
// the field spec.
func (e *Extractor) putField(st *runState, fieldKey string, arr blob.Array, timebase, desc string) error {
	store, key, err := e.store.Put(blob.Sanitize(fieldKey), arr)
	if err != nil {
		return fmt.Errorf("store %s: %w", fieldKey, err)
	}
	st.delta.Fields[fieldKey] = ir.FieldSpec{
		Kind:     ir.FieldNDArray,
		Shape:    arr.Shape,
		DType:    ir.DTypeF32,
		Ref:      ir.FieldRef{Store: store, Key: key},
		Timebase: timebase,
		Track:    ir.MixTrackID,
		Desc:     desc,
	}
	return nil
}
