package containers

import (
	"context"
	"fmt"

	"github.com/anthonynsimon/bild/transform"
	"github.com/hashicorp/go-multierror"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/frame"
	"github.com/seventv/FrameProcessor/src/image"
)

// Resize scales the animation to every requested size at once. Each output
// keeps the source aspect ratio, durations and loop count.
func Resize(ctx context.Context, anim *animation.Image, sizes map[string]image.Size) (map[string]*animation.Image, error) {
	type result struct {
		name string
		anim *animation.Image
		err  error
	}

	resCh := make(chan result, len(sizes))
	for name, size := range sizes {
		go func(name string, size image.Size) {
			a, err := ResizeOne(ctx, anim, size)
			if err != nil {
				err = fmt.Errorf("resize %s: %w", name, err)
			}
			resCh <- result{name: name, anim: a, err: err}
		}(name, size)
	}

	out := make(map[string]*animation.Image, len(sizes))

	var err error
	for i := 0; i < len(sizes); i++ {
		r := <-resCh
		if r.err != nil {
			err = multierror.Append(err, r.err)
			continue
		}
		out[r.name] = r.anim
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

func ResizeOne(ctx context.Context, anim *animation.Image, size image.Size) (*animation.Image, error) {
	target := size.Fit(anim.Width(), anim.Height())
	if target.Width == anim.Width() && target.Height == anim.Height() {
		return anim, nil
	}

	return anim.Map(func(i int, s frame.Still) (frame.Still, error) {
		if err := ctx.Err(); err != nil {
			return frame.Still{}, err
		}

		return frame.NewStill(transform.Resize(s.Image(), target.Width, target.Height, transform.Lanczos))
	})
}
