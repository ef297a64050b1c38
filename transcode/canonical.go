package transcode

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/RyanBlaney/sonido-ir/logging"
)

var (
	// ErrSampleRateMismatch is returned when the input rate differs from the
	// expected one. No resampling is attempted.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	// ErrEmptyBuffer is returned when a decoder produced no samples at all.
	ErrEmptyBuffer = errors.New("empty audio buffer")
	// ErrInvalidChannels is returned for a channel count below one or an
	// interleaved buffer that is not a whole number of frames.
	ErrInvalidChannels = errors.New("invalid channel layout")
)

// AudioData is a canonical mono buffer: float32 samples in roughly [-1,1].
// Channels keeps the channel count of the input before downmixing.
type AudioData struct {
	PCM        []float32     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
}

// Options controls canonicalization.
type Options struct {
	// ExpectedSampleRate, when non-zero, must equal the input rate.
	ExpectedSampleRate int `json:"expected_sample_rate"`
}

// Sample is any fixed-width integer or floating sample representation.
type Sample interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// CheckSampleRate fails with ErrSampleRateMismatch when expected is set and
// differs from actual.
func CheckSampleRate(actual, expected int) error {
	if expected != 0 && expected != actual {
		return fmt.Errorf("%w: expected %d Hz, got %d Hz", ErrSampleRateMismatch, expected, actual)
	}
	return nil
}

// Canonicalize converts an interleaved buffer into mono float32 samples.
// Integer samples are divided by the maximum value of their type; floating
// samples are cast without rescaling. Frames with more than one channel are
// averaged sample by sample.
func Canonicalize[T Sample](interleaved []T, channels, sampleRate int, opts Options) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component":   "canonicalizer",
		"function":    "Canonicalize",
		"channels":    channels,
		"sample_rate": sampleRate,
	})

	if err := CheckSampleRate(sampleRate, opts.ExpectedSampleRate); err != nil {
		logger.Error(err, "Rejected input before extraction")
		return nil, err
	}
	if sampleRate < 1 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidChannels, channels)
	}
	if len(interleaved)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a multiple of %d channels",
			ErrInvalidChannels, len(interleaved), channels)
	}

	scale := sampleScale[T]()
	frames := len(interleaved) / channels
	pcm := make([]float32, frames)

	for i := range frames {
		frame := interleaved[i*channels : (i+1)*channels]
		if channels == 1 {
			pcm[i] = float32(float64(frame[0]) / scale)
			continue
		}
		var sum float64
		for _, s := range frame {
			sum += float64(float32(float64(s) / scale))
		}
		pcm[i] = float32(sum / float64(channels))
	}

	logger.Debug("Canonicalized buffer", logging.Fields{
		"frames": frames,
	})

	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   time.Duration(frames) * time.Second / time.Duration(sampleRate),
	}, nil
}

// sampleScale returns the divisor that maps T onto [-1,1]: the maximum value
// of an integer type, or 1 for floating types.
func sampleScale[T Sample]() float64 {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int8:
		return math.MaxInt8
	case reflect.Int16:
		return math.MaxInt16
	case reflect.Int32:
		return math.MaxInt32
	case reflect.Int64:
		return math.MaxInt64
	case reflect.Uint8:
		return math.MaxUint8
	case reflect.Uint16:
		return math.MaxUint16
	case reflect.Uint32:
		return math.MaxUint32
	case reflect.Uint64:
		return math.MaxUint64
	default:
		return 1
	}
}

// DurationSeconds returns the buffer length in seconds.
func (a *AudioData) DurationSeconds() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.PCM)) / float64(a.SampleRate)
}
