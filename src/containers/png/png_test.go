package png

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/frame"
)

func testAnimation(t *testing.T, n int) *animation.Image {
	t.Helper()

	frames := make([]frame.Frame, n)
	for i := range frames {
		img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
		img.SetNRGBA(0, 0, color.NRGBA{R: uint8(i * 10), A: 255})

		s, err := frame.NewStill(img)
		require.NoError(t, err)

		frames[i], err = frame.New(s, time.Duration(i+1)*10*time.Millisecond)
		require.NoError(t, err)
	}

	anim, err := animation.Assemble(frames, 0)
	require.NoError(t, err)
	return anim
}

func TestEncodeDecode(t *testing.T) {
	anim := testAnimation(t, 1)

	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, anim.Frame(0).Image()))

	still, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, anim.Frame(0).Image().Size(), still.Size())

	_, err = Decode(bytes.NewReader([]byte("not a png")))
	require.Error(t, err)
}

func TestWriteLoadFrames(t *testing.T) {
	dir := path.Join(t.TempDir(), "frames")
	anim := testAnimation(t, 12)

	names, err := WriteFrames(context.Background(), dir, anim)
	require.NoError(t, err)
	require.Len(t, names, 12)
	assert.Equal(t, "dump_0000.png", names[0])
	assert.Equal(t, "dump_0011.png", names[11])

	// not a frame, must be ignored.
	require.NoError(t, os.WriteFile(path.Join(dir, "raw.png"), []byte{}, 0600))

	files, err := ListFrames(dir)
	require.NoError(t, err)
	require.Len(t, files, 12)
	assert.Equal(t, path.Join(dir, "dump_0010.png"), files[10])

	delays := make([]time.Duration, 12)
	for i := range delays {
		delays[i] = time.Duration(i+1) * 10 * time.Millisecond
	}
	// below one tick, kept as is.
	delays[11] = 4 * time.Millisecond

	frames, err := LoadFrames(context.Background(), dir, delays, frame.Strict())
	require.NoError(t, err)
	require.Len(t, frames, 12)
	assert.Equal(t, 4*time.Millisecond, frames[11].Duration())
	for i, f := range frames[:11] {
		assert.Equal(t, anim.Frame(i).Duration(), f.Duration())
		r, _, _, _ := f.Image().Image().At(0, 0).RGBA()
		assert.Equal(t, uint32(i*10)*0x101, r)
	}

	_, err = LoadFrames(context.Background(), dir, delays[:3], frame.Strict())
	require.ErrorIs(t, err, ErrFrameCount)

	delays[4] = 0
	_, err = LoadFrames(context.Background(), dir, delays, frame.Strict())
	require.ErrorIs(t, err, frame.ErrInvalidDuration)

	frames, err = LoadFrames(context.Background(), dir, delays, frame.Clamp(0))
	require.NoError(t, err)
	assert.Equal(t, frame.DefaultDuration, frames[4].Duration())
}

func TestEncodeFile(t *testing.T) {
	out := path.Join(t.TempDir(), "1x.png")
	anim := testAnimation(t, 1)

	require.NoError(t, EncodeFile(context.Background(), anim.Frame(0).Image(), out))

	still, err := DecodeFile(out)
	require.NoError(t, err)
	assert.Equal(t, 3, still.Width())
}
