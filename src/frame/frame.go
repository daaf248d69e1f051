package frame

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidDuration = errors.New("invalid frame duration")
	ErrInvalidFrame    = errors.New("invalid frame")
)

// Frame is one displayable tick of an animation: a still image and the time
// it stays on screen. A Frame cannot be changed after New returns it.
type Frame struct {
	still    Still
	duration time.Duration
}

// New builds a Frame. Durations must be strictly positive; decoders that want
// a fallback for zero delays go through a Policy.
func New(still Still, duration time.Duration) (Frame, error) {
	if !still.Valid() {
		return Frame{}, fmt.Errorf("%w: image is not a valid still", ErrInvalidFrame)
	}

	if duration <= 0 {
		return Frame{}, fmt.Errorf("%w: %s", ErrInvalidDuration, duration)
	}

	return Frame{
		still:    still,
		duration: duration,
	}, nil
}

// FromSeconds is New for callers that count in float seconds.
func FromSeconds(still Still, seconds float64) (Frame, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Frame{}, fmt.Errorf("%w: %v seconds", ErrInvalidDuration, seconds)
	}

	return New(still, secondsToDuration(seconds))
}

func (f Frame) Image() Still {
	return f.still
}

func (f Frame) Duration() time.Duration {
	return f.duration
}

func (f Frame) Seconds() float64 {
	return f.duration.Seconds()
}

func (f Frame) Valid() bool {
	return f.still.Valid() && f.duration > 0
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame(%dx%d, %s)", f.still.Width(), f.still.Height(), f.duration)
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}

	ns := math.Round(seconds * float64(time.Second))
	if ns > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	// anything positive but below a nanosecond still has to stay positive.
	if ns < 1 {
		ns = 1
	}

	return time.Duration(ns)
}
