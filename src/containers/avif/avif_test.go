package avif

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/frame"
)

func TestParseDump(t *testing.T) {
	timings, err := ParseDump([]byte("frame timings\n0 40.0\n1 120.5\n2 0.0\n3 4.166\n"))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{40 * time.Millisecond, 120500 * time.Microsecond, 0, 4166 * time.Microsecond}, timings.Delays)
	assert.Equal(t, animation.LoopForever, timings.LoopCount)

	timings, err = ParseDump([]byte(" * Repeat Count : 2\nframe timings\n0 40.0\n1 40.0\n"))
	require.NoError(t, err)
	assert.Len(t, timings.Delays, 2)
	assert.Equal(t, uint(3), timings.LoopCount)

	timings, err = ParseDump([]byte(" * Repetition Count: Infinite\n0 40.0\n1 40.0\n"))
	require.NoError(t, err)
	assert.Equal(t, animation.LoopForever, timings.LoopCount)

	_, err = ParseDump([]byte("nothing here"))
	require.ErrorIs(t, err, ErrBadResponseAvifDump)
}

func TestEncodeArgs(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	s, err := frame.NewStill(img)
	require.NoError(t, err)

	f1, err := frame.New(s, 40*time.Millisecond)
	require.NoError(t, err)
	f2, err := frame.New(s, 3*time.Millisecond)
	require.NoError(t, err)

	cfg := &configure.Config{}

	anim, err := animation.Assemble([]frame.Frame{f1, f2}, 0)
	require.NoError(t, err)

	args := encodeArgs(cfg, "out.avif", anim)
	assert.Equal(t, []string{"--stdin-durations", "2", "4,1", "--repetition-count", "infinite"}, args[:5])
	assert.Equal(t, "rav1e", args[len(args)-3])
	assert.Equal(t, "out.avif", args[len(args)-1])

	cfg.Av1Encoder = "aom"
	anim, err = animation.Assemble([]frame.Frame{f1, f2}, 3)
	require.NoError(t, err)

	args = encodeArgs(cfg, "out.avif", anim)
	assert.Equal(t, "2", args[4])
	assert.Equal(t, "aom", args[len(args)-3])
}
