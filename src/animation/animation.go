package animation

import (
	"errors"
	"fmt"
	"image"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/FrameProcessor/src/frame"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrEmptySequence     = errors.New("empty frame sequence")
	ErrInvalidFrame      = frame.ErrInvalidFrame
	ErrDimensionMismatch = errors.New("frame dimension mismatch")
)

// LoopForever is the loop count of an animation that never stops.
const LoopForever uint = 0

// Image is an assembled animation: an ordered list of frames that all share
// one canvas size, plus how many times playback loops.
type Image struct {
	frames    []frame.Frame
	loopCount uint
	size      image.Point
}

// Assemble validates a frame sequence and builds the animation from it.
//
// The sequence must not be empty, every frame must be valid and every still
// must have the size of the first one. Frames are never resized here.
func Assemble(frames []frame.Frame, loopCount uint) (*Image, error) {
	if len(frames) == 0 {
		return nil, ErrEmptySequence
	}

	var size image.Point
	for i, f := range frames {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: frame %d", ErrInvalidFrame, i)
		}

		s := f.Image().Size()
		if i == 0 {
			size = s
			continue
		}

		if s != size {
			return nil, fmt.Errorf("%w: frame %d is %dx%d, expected %dx%d", ErrDimensionMismatch, i, s.X, s.Y, size.X, size.Y)
		}
	}

	cp := make([]frame.Frame, len(frames))
	copy(cp, frames)

	return &Image{
		frames:    cp,
		loopCount: loopCount,
		size:      size,
	}, nil
}

func (a *Image) Len() int {
	return len(a.frames)
}

func (a *Image) Frame(i int) frame.Frame {
	return a.frames[i]
}

func (a *Image) Frames() []frame.Frame {
	cp := make([]frame.Frame, len(a.frames))
	copy(cp, a.frames)
	return cp
}

func (a *Image) Durations() []time.Duration {
	d := make([]time.Duration, len(a.frames))
	for i, f := range a.frames {
		d[i] = f.Duration()
	}
	return d
}

// Ticks returns every frame duration in hundredths of a second, rounded and
// never below one tick.
func (a *Image) Ticks() []int {
	const tick = 10 * time.Millisecond

	ticks := make([]int, len(a.frames))
	for i, f := range a.frames {
		d := f.Duration()
		t := int(d / tick)
		if d%tick >= tick/2 {
			t++
		}
		if t < 1 {
			t = 1
		}
		ticks[i] = t
	}
	return ticks
}

func (a *Image) TotalDuration() time.Duration {
	var total time.Duration
	for _, f := range a.frames {
		total += f.Duration()
	}
	return total
}

func (a *Image) LoopCount() uint {
	return a.loopCount
}

func (a *Image) Width() int {
	return a.size.X
}

func (a *Image) Height() int {
	return a.size.Y
}

func (a *Image) Size() image.Point {
	return a.size
}

func (a *Image) Animated() bool {
	return len(a.frames) > 1
}

// Map runs fn on every still and assembles the results with the original
// durations and loop count.
func (a *Image) Map(fn func(i int, s frame.Still) (frame.Still, error)) (*Image, error) {
	frames := make([]frame.Frame, len(a.frames))
	for i, f := range a.frames {
		s, err := fn(i, f.Image())
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		if frames[i], err = frame.New(s, f.Duration()); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return Assemble(frames, a.loopCount)
}

// WithLoopCount is the same animation with another loop count.
func (a *Image) WithLoopCount(n uint) *Image {
	return &Image{
		frames:    a.frames,
		loopCount: n,
		size:      a.size,
	}
}

// Thumbnail is a still animation made of the first frame only.
func (a *Image) Thumbnail() *Image {
	return &Image{
		frames:    a.frames[:1:1],
		loopCount: a.loopCount,
		size:      a.size,
	}
}

func (a *Image) String() string {
	return fmt.Sprintf("Animation(%dx%d, %d frames, loop %d)", a.size.X, a.size.Y, len(a.frames), a.loopCount)
}
