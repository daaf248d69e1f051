package gif

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	nGif "image/gif"
	"io"
	"os/exec"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/seventv/FrameProcessor/src/animation"
)

var ErrTooManyLoops = fmt.Errorf("loop count does not fit in a gif")

// the last slot is reserved for transparency.
var encodePalette = func() color.Palette {
	p := make(color.Palette, 0, 256)
	p = append(p, palette.Plan9[:255]...)
	return append(p, color.Transparent)
}()

func Encode(w io.Writer, anim *animation.Image) error {
	if anim.LoopCount() > 0xFFFF+1 {
		return ErrTooManyLoops
	}

	g := &nGif.GIF{
		Image:     make([]*image.Paletted, anim.Len()),
		Delay:     anim.Ticks(),
		Disposal:  make([]byte, anim.Len()),
		LoopCount: LoopCountToGIF(anim.LoopCount()),
		Config: image.Config{
			ColorModel: encodePalette,
			Width:      anim.Width(),
			Height:     anim.Height(),
		},
	}

	for i := 0; i < anim.Len(); i++ {
		src := anim.Frame(i).Image().Image()
		b := src.Bounds()

		p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), encodePalette)
		draw.FloydSteinberg.Draw(p, p.Rect, src, b.Min)

		g.Image[i] = p
		g.Disposal[i] = nGif.DisposalBackground
	}

	return nGif.EncodeAll(w, g)
}

// Optimize shrinks an encoded gif in place with gifsicle when it is
// installed.
func Optimize(ctx context.Context, file string) error {
	if _, err := exec.LookPath("gifsicle"); err != nil {
		logrus.Debug("gifsicle not found, skipping gif optimization")
		return nil
	}

	if out, err := exec.CommandContext(ctx, "gifsicle", "-b", "-O3", file).CombinedOutput(); err != nil {
		logrus.Debug(spew.Sdump(out))
		return fmt.Errorf("gifsicle failed: %s : %s", err.Error(), out)
	}

	return nil
}
