package image

import (
	"fmt"
	"strconv"
	"strings"
)

type ImageType string

const (
	AVI  ImageType = "avi"
	AVIF ImageType = "avif"
	FLV  ImageType = "flv"
	GIF  ImageType = "gif"
	JPEG ImageType = "jpeg"
	MP4  ImageType = "mp4"
	PNG  ImageType = "png"
	TIFF ImageType = "tiff"
	WEBM ImageType = "webm"
	WEBP ImageType = "webp"
	MOV  ImageType = "mov"
)

func (t ImageType) Extension() string {
	return "." + string(t)
}

func (t ImageType) ContentType() string {
	switch t {
	case AVI:
		return "video/x-msvideo"
	case FLV:
		return "video/x-flv"
	case MP4:
		return "video/mp4"
	case WEBM:
		return "video/webm"
	case MOV:
		return "video/quicktime"
	case "":
		return "application/octet-stream"
	}

	return "image/" + string(t)
}

// Video reports whether frames have to be pulled out with ffmpeg.
func (t ImageType) Video() bool {
	switch t {
	case AVI, FLV, MP4, WEBM, MOV:
		return true
	}
	return false
}

type Size struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

var ErrBadSize = fmt.Errorf("bad size")

// ParseSize reads sizes written as WIDTHxHEIGHT, e.g. 384x128.
func ParseSize(s string) (Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("%w: %q", ErrBadSize, s)
	}

	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return Size{}, fmt.Errorf("%w: width %q", ErrBadSize, parts[0])
	}

	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return Size{}, fmt.Errorf("%w: height %q", ErrBadSize, parts[1])
	}

	if w <= 0 || h <= 0 {
		return Size{}, fmt.Errorf("%w: %dx%d", ErrBadSize, w, h)
	}

	return Size{Width: w, Height: h}, nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Fit scales a source of srcW x srcH to this size's height, keeping the
// aspect ratio, and caps the width at this size's width.
func (s Size) Fit(srcW, srcH int) Size {
	if srcW <= 0 || srcH <= 0 {
		return s
	}

	w := int(float64(s.Height) / float64(srcH) * float64(srcW))
	h := s.Height
	if s.Width > 0 && w > s.Width {
		h = int(float64(s.Width) / float64(srcW) * float64(srcH))
		w = s.Width
	}

	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return Size{Width: w, Height: h}
}
