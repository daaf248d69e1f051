package webp

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"time"

	xWebp "golang.org/x/image/webp"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/frame"
	"github.com/seventv/FrameProcessor/src/utils"
)

var (
	webpMuxRe  = regexp.MustCompile(`\s+\d+:\s+\d+\s+\d+\s+\w+\s+\d+\s+\d+\s+(\d+)\s+\w+\s+\w+\s+\d+\s+\s+\w+`)
	webpLoopRe = regexp.MustCompile(`Loop Count\s*:\s*(\d+)`)
)

// Info is what webpmux reports about a file.
type Info struct {
	// Delays, one per frame. webpmux reports whole milliseconds.
	Delays    []time.Duration
	LoopCount uint
}

func (i Info) Animated() bool {
	return len(i.Delays) > 1
}

// ParseInfo reads the output of `webpmux -info`.
func ParseInfo(out []byte) Info {
	s := utils.B2S(out)

	matches := webpMuxRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		// static webp, only 1 frame
		return Info{Delays: make([]time.Duration, 1)}
	}

	info := Info{Delays: make([]time.Duration, len(matches))}
	for i, m := range matches {
		ms, _ := strconv.Atoi(m[1])
		info.Delays[i] = time.Duration(ms) * time.Millisecond
	}

	if m := webpLoopRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		info.LoopCount = uint(n)
	}

	return info
}

func Probe(ctx context.Context, file string) (Info, error) {
	out, err := exec.CommandContext(ctx, "webpmux", "-info", file).CombinedOutput()
	if err != nil {
		return Info{}, fmt.Errorf("webpmux failed: %s : %s", err.Error(), out)
	}

	return ParseInfo(out), nil
}

// Dump writes every frame of an animated webp into dir as dump_NNNN.png.
func Dump(ctx context.Context, file string, dir string) error {
	if out, err := exec.CommandContext(ctx, "anim_dump", "-folder", dir, file).CombinedOutput(); err != nil {
		return fmt.Errorf("anim_dump failed: %s : %s", err.Error(), out)
	}
	return nil
}

// DecodeStill decodes a single frame webp without any external tool.
func DecodeStill(r io.Reader) (frame.Still, error) {
	img, err := xWebp.Decode(r)
	if err != nil {
		return frame.Still{}, err
	}

	return frame.NewStill(img)
}

// Encode writes anim to outFile. frames are the dumped frame files inside
// dir, in frame order.
func Encode(ctx context.Context, dir string, frames []string, outFile string, anim *animation.Image) error {
	if len(frames) != anim.Len() {
		return fmt.Errorf("webp encode: %d frame files for %d frames", len(frames), anim.Len())
	}

	if !anim.Animated() {
		out, err := exec.CommandContext(ctx, "cwebp", "-z", "5", "-preset", "icon", "-sharpness", "3", path.Join(dir, frames[0]), "-o", outFile).CombinedOutput()
		if err != nil {
			err = fmt.Errorf("cwebp failed: %s : %s", err.Error(), out)
		}

		return err
	}

	out, err := exec.CommandContext(ctx, "img2webp", encodeArgs(dir, frames, outFile, anim)...).CombinedOutput()
	if err != nil {
		err = fmt.Errorf("img2webp failed: %s : %s", err.Error(), out)
	}

	return err
}

func encodeArgs(dir string, frames []string, outFile string, anim *animation.Image) []string {
	args := []string{
		"-o", outFile,
		"-loop", strconv.FormatUint(uint64(anim.LoopCount()), 10),
		"-mixed",
		"-m", "6",
		"-kmax", "0",
		"-q", "75",
	}

	for i, d := range anim.Durations() {
		ms := d.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		args = append(args, "-d", strconv.FormatInt(ms, 10), path.Join(dir, frames[i]))
	}

	return args
}
