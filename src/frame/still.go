package frame

import (
	"fmt"
	"image"
)

// Still is a handle to exactly one decoded, non-animated image.
//
// Animated images are represented by animation.Image, which cannot be turned
// into a Still, so a Frame can never carry a nested animation.
type Still struct {
	img image.Image
}

func NewStill(img image.Image) (Still, error) {
	if img == nil {
		return Still{}, fmt.Errorf("%w: nil image", ErrInvalidFrame)
	}

	if img.Bounds().Empty() {
		return Still{}, fmt.Errorf("%w: empty bounds %v", ErrInvalidFrame, img.Bounds())
	}

	return Still{img: img}, nil
}

func (s Still) Image() image.Image {
	return s.img
}

func (s Still) Bounds() image.Rectangle {
	if s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

func (s Still) Width() int {
	return s.Bounds().Dx()
}

func (s Still) Height() int {
	return s.Bounds().Dy()
}

func (s Still) Size() image.Point {
	return s.Bounds().Size()
}

// Valid reports whether the still was built by NewStill.
func (s Still) Valid() bool {
	return s.img != nil && !s.img.Bounds().Empty()
}
