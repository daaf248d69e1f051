package containers

import (
	"bytes"
	"context"
	"image/color"
	nGif "image/gif"
	nImage "image"
	nPng "image/png"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/containers/gif"
	"github.com/seventv/FrameProcessor/src/frame"
	"github.com/seventv/FrameProcessor/src/image"
	"github.com/seventv/FrameProcessor/src/job"
)

func testAnimation(t *testing.T, w, h int, durations ...time.Duration) *animation.Image {
	t.Helper()

	frames := make([]frame.Frame, len(durations))
	for i, d := range durations {
		img := nImage.NewRGBA(nImage.Rect(0, 0, w, h))
		c := color.RGBA{R: uint8(i * 60), G: 128, B: 255 - uint8(i*60), A: 255}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetRGBA(x, y, c)
			}
		}

		s, err := frame.NewStill(img)
		require.NoError(t, err)

		frames[i], err = frame.New(s, d)
		require.NoError(t, err)
	}

	anim, err := animation.Assemble(frames, 0)
	require.NoError(t, err)
	return anim
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	require.NoError(t, nPng.Encode(buf, nImage.NewRGBA(nImage.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestToType(t *testing.T) {
	gifData := &bytes.Buffer{}
	require.NoError(t, nGif.Encode(gifData, nImage.NewPaletted(nImage.Rect(0, 0, 2, 2), color.Palette{color.Black}), nil))

	tests := []struct {
		name string
		data []byte
		want image.ImageType
	}{
		{name: "gif", data: gifData.Bytes(), want: image.GIF},
		{name: "png", data: encodePNG(t, 2, 2), want: image.PNG},
		{name: "webp", data: []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), want: image.WEBP},
		{name: "avi", data: []byte("RIFF\x00\x00\x00\x00AVI LIST"), want: image.AVI},
		{name: "avif", data: []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00"), want: image.AVIF},
		{name: "avif sequence", data: []byte("\x00\x00\x00\x28ftypavis\x00\x00\x00\x00"), want: image.AVIF},
		{name: "mp4", data: []byte("\x00\x00\x00\x18ftypisom\x00\x00"), want: image.MP4},
		{name: "mov", data: []byte("\x00\x00\x00\x14ftypqt  "), want: image.MOV},
		{name: "webm", data: []byte("\x1A\x45\xDF\xA3\x01\x00"), want: image.WEBM},
		{name: "flv", data: []byte("FLV\x01\x05"), want: image.FLV},
		{name: "tiff", data: []byte("II*\x00\x08\x00"), want: image.TIFF},
		{name: "jpeg", data: []byte("\xFF\xD8\xFF\xE0\x00\x10\xFF\xD9"), want: image.JPEG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToType(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ToType([]byte("hello world"))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = ToType(nil)
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFrameRate(t *testing.T) {
	d, err := ParseFrameRate("25/1\n")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, d)

	d, err = ParseFrameRate("30000/1001")
	require.NoError(t, err)
	assert.Equal(t, 33366666*time.Nanosecond, d)

	d, err = ParseFrameRate("60/1")
	require.NoError(t, err)
	assert.Equal(t, 16666666*time.Nanosecond, d)

	// faster than one tick per frame, still a positive duration.
	d, err = ParseFrameRate("240/1")
	require.NoError(t, err)
	assert.Equal(t, 4166666*time.Nanosecond, d)

	s := testAnimation(t, 2, 2, time.Millisecond).Frame(0).Image()
	f, err := frame.Strict().Make(s, d)
	require.NoError(t, err)
	assert.Equal(t, d, f.Duration())

	for _, in := range []string{"25", "a/1", "1/b", "0/0", "25/0", "1/99999999999"} {
		_, err = ParseFrameRate(in)
		require.Error(t, err, in)
	}
}

func TestDecodeGIF(t *testing.T) {
	dir := t.TempDir()

	src := testAnimation(t, 12, 6, 100*time.Millisecond, 300*time.Millisecond)
	buf := &bytes.Buffer{}
	require.NoError(t, gif.Encode(buf, src))

	file := path.Join(dir, "raw.gif")
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0600))

	cfg := &configure.Config{}
	anim, err := Decode(context.Background(), cfg, frame.Strict(), file, image.GIF)
	require.NoError(t, err)
	assert.Equal(t, src.Durations(), anim.Durations())
	assert.Equal(t, src.Size(), anim.Size())

	cfg.Frames.MaxFrames = 1
	_, err = Decode(context.Background(), cfg, frame.Strict(), file, image.GIF)
	require.ErrorIs(t, err, ErrTooManyFrames)
}

func TestCheckFrameCount(t *testing.T) {
	cfg := &configure.Config{}
	require.NoError(t, checkFrameCount(cfg, 100000))

	cfg.Frames.MaxFrames = 10
	require.NoError(t, checkFrameCount(cfg, 10))
	require.ErrorIs(t, checkFrameCount(cfg, 11), ErrTooManyFrames)
}

func TestDecodePNG(t *testing.T) {
	dir := t.TempDir()
	file := path.Join(dir, "raw.png")
	require.NoError(t, os.WriteFile(file, encodePNG(t, 7, 5), 0600))

	anim, err := Decode(context.Background(), &configure.Config{}, frame.Clamp(40*time.Millisecond), file, image.PNG)
	require.NoError(t, err)
	assert.Equal(t, 1, anim.Len())
	assert.False(t, anim.Animated())
	assert.Equal(t, 40*time.Millisecond, anim.Frame(0).Duration())

	anim, err = Decode(context.Background(), &configure.Config{}, frame.Strict(), file, image.PNG)
	require.NoError(t, err)
	assert.Equal(t, frame.DefaultDuration, anim.Frame(0).Duration())

	_, err = Decode(context.Background(), &configure.Config{}, frame.Strict(), file, image.ImageType("bmp"))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestResize(t *testing.T) {
	src := testAnimation(t, 200, 100, 100*time.Millisecond, 200*time.Millisecond)

	out, err := Resize(context.Background(), src, map[string]image.Size{
		"1x": {Width: 96, Height: 32},
		"2x": {Width: 192, Height: 64},
		"4x": {Width: 400, Height: 100},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, nImage.Pt(64, 32), out["1x"].Size())
	assert.Equal(t, nImage.Pt(128, 64), out["2x"].Size())
	assert.Same(t, src, out["4x"])

	for _, a := range out {
		assert.Equal(t, src.Durations(), a.Durations())
		assert.Equal(t, src.LoopCount(), a.LoopCount())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Resize(ctx, src, map[string]image.Size{"1x": {Width: 96, Height: 32}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEncodeInProcess(t *testing.T) {
	dir := t.TempDir()
	anims := map[string]*animation.Image{
		"1x": testAnimation(t, 16, 8, 100*time.Millisecond, 200*time.Millisecond),
	}

	settings := job.EnableOutputAnimated | job.EnableOutputAnimatedGIF | job.EnableOutputStaticPNG | job.EnableOutputAnimatedThumbanils
	files, err := Encode(context.Background(), &configure.Config{}, dir, anims, settings)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "1x.gif", files[0].Name)
	assert.Equal(t, "image/gif", files[0].ContentType)
	assert.True(t, files[0].Animated)
	assert.Equal(t, 2, files[0].Metadata.FrameCount)
	assert.Equal(t, []float64{0.1, 0.2}, files[0].Metadata.Durations)
	assert.Len(t, files[0].Checksum, 64)

	assert.Equal(t, "1x_static.png", files[1].Name)
	assert.False(t, files[1].Animated)
	assert.Equal(t, 1, files[1].Metadata.FrameCount)

	for _, f := range files {
		info, err := os.Stat(path.Join(dir, f.Name))
		require.NoError(t, err)
		assert.Equal(t, int(info.Size()), f.Size)
	}

	_, err = os.Stat(path.Join(dir, "frames"))
	assert.True(t, os.IsNotExist(err))
}

func TestEncodeStillOnly(t *testing.T) {
	dir := t.TempDir()
	anims := map[string]*animation.Image{
		"1x": testAnimation(t, 16, 8, 100*time.Millisecond, 200*time.Millisecond),
	}

	// without EnableOutputAnimated only the first frame is kept.
	files, err := Encode(context.Background(), &configure.Config{}, dir, anims, job.EnableOutputAnimatedGIF|job.EnableOutputStaticPNG)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "1x.png", files[0].Name)
	assert.False(t, files[0].Animated)
}
