package containers

import (
	"context"
	"fmt"
	"image/jpeg"
	"math"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/tiff"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/containers/avif"
	"github.com/seventv/FrameProcessor/src/containers/gif"
	"github.com/seventv/FrameProcessor/src/containers/png"
	"github.com/seventv/FrameProcessor/src/containers/webp"
	"github.com/seventv/FrameProcessor/src/frame"
	"github.com/seventv/FrameProcessor/src/image"
	"github.com/seventv/FrameProcessor/src/utils"
)

var (
	ErrUnknownFormat      = fmt.Errorf("unknown image format")
	ErrBadResponseFFprobe = fmt.Errorf("bad response from ffprobe")
	ErrNoFrames           = fmt.Errorf("no frames decoded")
	ErrTooManyFrames      = fmt.Errorf("too many frames")
)

// Decode turns the file into an assembled animation. Still images come back
// as a single frame animation.
func Decode(ctx context.Context, config *configure.Config, policy frame.Policy, file string, imgType image.ImageType) (*animation.Image, error) {
	var (
		anim *animation.Image
		err  error
	)

	switch imgType {
	case image.GIF:
		anim, err = decodeWith(file, func(f *os.File) (*animation.Image, error) {
			return gif.Decode(f, policy)
		})
	case image.PNG:
		anim, err = decodeStill(file, policy, func(f *os.File) (frame.Still, error) {
			return png.Decode(f)
		})
	case image.JPEG:
		anim, err = decodeStill(file, policy, jpegDecode)
	case image.TIFF:
		anim, err = decodeStill(file, policy, tiffDecode)
	case image.WEBP:
		anim, err = decodeWebp(ctx, config, file, policy)
	case image.AVIF:
		anim, err = decodeAvif(ctx, config, file, policy)
	case image.AVI, image.FLV, image.MP4, image.WEBM, image.MOV:
		anim, err = decodeVideo(ctx, config, file, policy)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}

	if err := checkFrameCount(config, anim.Len()); err != nil {
		return nil, err
	}

	logrus.WithField("type", imgType).Debugf("decoded %s", anim)

	return anim, nil
}

// checkFrameCount is run before frames are loaded whenever the count is known
// up front, so oversized inputs are rejected without decoding them.
func checkFrameCount(config *configure.Config, n int) error {
	if limit := config.Frames.MaxFrames; limit > 0 && n > limit {
		return fmt.Errorf("%w: %d, limit is %d", ErrTooManyFrames, n, limit)
	}
	return nil
}

func decodeWith(file string, fn func(f *os.File) (*animation.Image, error)) (*animation.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("read file failed: %s", err.Error())
	}
	defer f.Close()

	return fn(f)
}

func decodeStill(file string, policy frame.Policy, fn func(f *os.File) (frame.Still, error)) (*animation.Image, error) {
	return decodeWith(file, func(f *os.File) (*animation.Image, error) {
		still, err := fn(f)
		if err != nil {
			return nil, err
		}

		return single(still, policy)
	})
}

// single wraps a still image, which has no delay of its own. It gets the
// clamp fallback, or DefaultDuration under a strict policy.
func single(still frame.Still, policy frame.Policy) (*animation.Image, error) {
	d := frame.DefaultDuration
	if policy.Mode == frame.PolicyClamp {
		d = policy.Duration(0)
	}

	f, err := frame.New(still, d)
	if err != nil {
		return nil, err
	}

	return animation.Assemble([]frame.Frame{f}, animation.LoopForever)
}

func jpegDecode(f *os.File) (frame.Still, error) {
	img, err := jpeg.Decode(f)
	if err != nil {
		return frame.Still{}, err
	}
	return frame.NewStill(img)
}

func tiffDecode(f *os.File) (frame.Still, error) {
	img, err := tiff.Decode(f)
	if err != nil {
		return frame.Still{}, err
	}
	return frame.NewStill(img)
}

func frameDir(file string) (string, error) {
	dir := path.Join(path.Dir(file), "frames")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("mkdir failed: %s", err.Error())
	}
	return dir, nil
}

func decodeWebp(ctx context.Context, config *configure.Config, file string, policy frame.Policy) (*animation.Image, error) {
	info, err := webp.Probe(ctx, file)
	if err != nil {
		return nil, err
	}

	if err := checkFrameCount(config, len(info.Delays)); err != nil {
		return nil, err
	}

	if !info.Animated() {
		return decodeStill(file, policy, func(f *os.File) (frame.Still, error) {
			return webp.DecodeStill(f)
		})
	}

	dir, err := frameDir(file)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := webp.Dump(ctx, file, dir); err != nil {
		return nil, err
	}

	frames, err := png.LoadFrames(ctx, dir, info.Delays, policy)
	if err != nil {
		return nil, err
	}

	return animation.Assemble(frames, info.LoopCount)
}

func decodeAvif(ctx context.Context, config *configure.Config, file string, policy frame.Policy) (*animation.Image, error) {
	dir, err := frameDir(file)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	timings, err := avif.Dump(ctx, config, file, dir)
	if err != nil {
		return nil, err
	}

	if err := checkFrameCount(config, len(timings.Delays)); err != nil {
		return nil, err
	}

	if len(timings.Delays) == 1 {
		still, err := png.DecodeFile(path.Join(dir, png.DumpName(0)))
		if err != nil {
			return nil, err
		}
		return single(still, policy)
	}

	frames, err := png.LoadFrames(ctx, dir, timings.Delays, policy)
	if err != nil {
		return nil, err
	}

	return animation.Assemble(frames, timings.LoopCount)
}

func decodeVideo(ctx context.Context, config *configure.Config, file string, policy frame.Policy) (*animation.Image, error) {
	dir, err := frameDir(file)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	args := []string{"-i", file, "-vsync", "0"}
	if limit := config.Frames.MaxFrames; limit > 0 {
		// one past the limit is enough to know it was exceeded
		args = append(args, "-frames:v", strconv.Itoa(limit+1))
	}
	args = append(args, "-f", "image2", "-start_number", "0", path.Join(dir, png.DumpPattern))

	if out, err := exec.CommandContext(ctx, "ffmpeg", args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %s : %s", err.Error(), out)
	}

	files, err := png.ListFrames(dir)
	if err != nil {
		return nil, err
	}

	if err := checkFrameCount(config, len(files)); err != nil {
		return nil, err
	}

	switch len(files) {
	case 0:
		return nil, ErrNoFrames
	case 1:
		still, err := png.DecodeFile(files[0])
		if err != nil {
			return nil, err
		}
		return single(still, policy)
	}

	// containers like these have no per frame delay, spread the stream frame
	// rate evenly instead.
	fpsData, err := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v", "-of", "default=noprint_wrappers=1:nokey=1", "-show_entries", "stream=r_frame_rate", file).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %s : %s", err.Error(), fpsData)
	}

	d, err := ParseFrameRate(utils.B2S(fpsData))
	if err != nil {
		return nil, err
	}

	delays := make([]time.Duration, len(files))
	for i := range delays {
		delays[i] = d
	}

	frames, err := png.LoadFrames(ctx, dir, delays, policy)
	if err != nil {
		return nil, err
	}

	return animation.Assemble(frames, animation.LoopForever)
}

// ParseFrameRate turns an ffprobe rational frame rate such as 30000/1001 into
// the duration of one frame.
func ParseFrameRate(s string) (time.Duration, error) {
	fpsSplits := strings.Split(strings.TrimSpace(s), "/")
	if len(fpsSplits) != 2 {
		return 0, ErrBadResponseFFprobe
	}

	fpsNum, err := strconv.ParseInt(strings.TrimSpace(fpsSplits[0]), 10, 64)
	if err != nil {
		return 0, err
	}

	fpsDenom, err := strconv.ParseInt(strings.TrimSpace(fpsSplits[1]), 10, 64)
	if err != nil {
		return 0, err
	}

	if fpsNum <= 0 || fpsDenom <= 0 || fpsDenom > math.MaxInt64/int64(time.Second) {
		return 0, ErrBadResponseFFprobe
	}

	return time.Duration(fpsDenom) * time.Second / time.Duration(fpsNum), nil
}
