package gif

import (
	"fmt"
	"image"
	nGif "image/gif"
	"io"

	"golang.org/x/image/draw"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/frame"
)

// Decode reads every frame of a GIF and composites it onto the logical
// screen, so each returned frame is a full canvas rather than a GIF sub
// rectangle.
func Decode(r io.Reader, policy frame.Policy) (*animation.Image, error) {
	g, err := nGif.DecodeAll(r)
	if err != nil {
		return nil, err
	}

	if len(g.Image) == 0 {
		return nil, animation.ErrEmptySequence
	}

	rect := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if rect.Empty() {
		rect = g.Image[0].Bounds()
		for _, p := range g.Image[1:] {
			rect = rect.Union(p.Bounds())
		}
	}

	canvas := image.NewRGBA(rect)
	frames := make([]frame.Frame, len(g.Image))

	for i, src := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var previous *image.RGBA
		if disposal == nGif.DisposalPrevious {
			previous = clone(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)

		still, err := frame.NewStill(clone(canvas))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}

		if frames[i], err = policy.MakeTicks(still, delay); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		switch disposal {
		case nGif.DisposalBackground:
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case nGif.DisposalPrevious:
			canvas = previous
		}
	}

	return animation.Assemble(frames, LoopCountFromGIF(g.LoopCount))
}

// LoopCountFromGIF converts the GIF loop extension, which counts repeats
// after the first play with -1 meaning no extension, to a total play count
// where 0 is forever.
func LoopCountFromGIF(n int) uint {
	switch {
	case n == 0:
		return animation.LoopForever
	case n < 0:
		return 1
	}
	return uint(n) + 1
}

// LoopCountToGIF is the inverse of LoopCountFromGIF.
func LoopCountToGIF(n uint) int {
	switch n {
	case animation.LoopForever:
		return 0
	case 1:
		return -1
	}
	return int(n - 1)
}

func clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
