package avif

import (
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/utils"
)

var ErrBadResponseAvifDump = fmt.Errorf("bad response from avifdump")

var (
	avifDumpRe   = regexp.MustCompile(`\d+\s+(\d+\.\d+)`)
	avifRepeatRe = regexp.MustCompile(`(?i)repe(?:at|tition) count\s*:\s*(-?\d+|infinite|unknown)`)
)

// Timings is what avifdump reports about a sequence.
type Timings struct {
	Delays    []time.Duration
	LoopCount uint
}

// ParseDump reads the per frame timings printed by avifdump, in
// milliseconds, and the repetition count when the tool prints one. A missing
// or infinite repetition count loops forever.
func ParseDump(out []byte) (Timings, error) {
	s := utils.B2S(out)

	matches := avifDumpRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return Timings{}, ErrBadResponseAvifDump
	}

	t := Timings{Delays: make([]time.Duration, len(matches)), LoopCount: animation.LoopForever}
	for i, m := range matches {
		ms, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Timings{}, fmt.Errorf("%w: %s", ErrBadResponseAvifDump, err.Error())
		}
		t.Delays[i] = time.Duration(math.Round(ms * float64(time.Millisecond)))
	}

	if m := avifRepeatRe.FindStringSubmatch(s); m != nil {
		// avif counts repetitions after the first play
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 {
			t.LoopCount = uint(n) + 1
		}
	}

	return t, nil
}

// Dump decodes every frame of file into dir and returns the frame timings.
func Dump(ctx context.Context, config *configure.Config, file string, dir string) (Timings, error) {
	decoder := config.Av1Decoder
	if decoder == "" {
		decoder = "dav1d"
	}

	out, err := exec.CommandContext(
		ctx,
		"avifdump",
		"--codec", decoder,
		"--png-compress", "0",
		"--jobs", "all",
		"--depth", "16",
		file,
		path.Join(dir, "dump_%04d.png"),
	).CombinedOutput()
	if err != nil {
		return Timings{}, fmt.Errorf("avifdump failed: %s : %s", err.Error(), out)
	}

	return ParseDump(out)
}

// Encode pipes the dumped frames in dir through ffmpeg into avifenc.
func Encode(ctx context.Context, config *configure.Config, dir string, outFile string, anim *animation.Image) error {
	// ffmpeg -f image2 -i dump_%04d.png -f yuv4mpegpipe -pix_fmt yuva444p -strict -1 - | avifenc --stdin output.avif
	ffmpegCmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-f", "image2",
		"-i", path.Join(dir, "dump_%04d.png"),
		"-vsync", "0",
		"-frames:v", strconv.Itoa(anim.Len()),
		"-f", "yuv4mpegpipe",
		"-pix_fmt", "yuva444p",
		"-strict", "-1",
		"pipe:1",
	)

	avifEncCmd := exec.CommandContext(ctx, "avifenc", encodeArgs(config, outFile, anim)...)

	r, w := io.Pipe()
	ffmpegCmd.Stdout = w
	avifEncCmd.Stdin = r

	if err := avifEncCmd.Start(); err != nil {
		return err
	}

	if err := ffmpegCmd.Start(); err != nil {
		_ = r.Close()
		return multierror.Append(err, avifEncCmd.Wait()).ErrorOrNil()
	}

	done := make(chan error)

	go func() {
		done <- ffmpegCmd.Wait()
		w.Close()
	}()

	go func() {
		done <- avifEncCmd.Wait()
		r.Close()
	}()

	return multierror.Append(<-done, <-done).ErrorOrNil()
}

func encodeArgs(config *configure.Config, outFile string, anim *animation.Image) []string {
	ticks := anim.Ticks()
	durations := make([]string, len(ticks))
	for i, v := range ticks {
		durations[i] = strconv.Itoa(v)
	}

	encoder := config.Av1Encoder
	if encoder == "" {
		encoder = "rav1e"
	}

	repetitions := "infinite"
	if anim.LoopCount() != animation.LoopForever {
		repetitions = strconv.FormatUint(uint64(anim.LoopCount()-1), 10)
	}

	return []string{
		"--stdin-durations", strconv.Itoa(len(ticks)), strings.Join(durations, ","),
		"--repetition-count", repetitions,
		"--speed", "3",
		"--timescale", "100",
		"--min", "10",
		"--max", "20",
		"--minalpha", "10",
		"--maxalpha", "20",
		"--jobs", "all",
		"--codec", encoder,
		"--stdin", outFile,
	}
}
