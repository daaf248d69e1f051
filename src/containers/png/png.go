package png

import (
	"context"
	"fmt"
	nPng "image/png"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/frame"
)

// DumpPattern is how every external tool in the pipeline names frame files.
const DumpPattern = "dump_%04d.png"

var ErrFrameCount = fmt.Errorf("frame count does not match delays")

var encoder = nPng.Encoder{CompressionLevel: nPng.BestCompression}

func DumpName(i int) string {
	return fmt.Sprintf(DumpPattern, i)
}

func Decode(r io.Reader) (frame.Still, error) {
	img, err := nPng.Decode(r)
	if err != nil {
		return frame.Still{}, err
	}

	return frame.NewStill(img)
}

func DecodeFile(file string) (frame.Still, error) {
	f, err := os.Open(file)
	if err != nil {
		return frame.Still{}, err
	}
	defer f.Close()

	return Decode(f)
}

func Encode(w io.Writer, still frame.Still) error {
	return encoder.Encode(w, still.Image())
}

// EncodeFile writes the still to output and runs optipng over it when the
// tool is available.
func EncodeFile(ctx context.Context, still frame.Still, output string) error {
	f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if err := Encode(f, still); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	if _, err := exec.LookPath("optipng"); err != nil {
		return nil
	}

	out, err := exec.CommandContext(ctx, "optipng", "-o7", output).CombinedOutput()
	if err != nil {
		return fmt.Errorf("optipng failed: %s %s", err.Error(), out)
	}

	return nil
}

// WriteFrames dumps every frame of the animation into dir so the external
// encoders can read them. It returns the file names in frame order.
func WriteFrames(ctx context.Context, dir string, anim *animation.Image) ([]string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("mkdir failed: %s", err.Error())
	}

	names := make([]string, anim.Len())
	errCh := make(chan error, anim.Len())
	for i := 0; i < anim.Len(); i++ {
		names[i] = DumpName(i)
		go func(i int) {
			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}

			f, err := os.OpenFile(path.Join(dir, names[i]), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
			if err != nil {
				errCh <- err
				return
			}

			// frames are written for another tool to read, speed beats size.
			err = (&nPng.Encoder{CompressionLevel: nPng.BestSpeed}).Encode(f, anim.Frame(i).Image().Image())
			errCh <- multierror.Append(err, f.Close()).ErrorOrNil()
		}(i)
	}

	var err error
	for i := 0; i < anim.Len(); i++ {
		err = multierror.Append(err, <-errCh).ErrorOrNil()
	}

	return names, err
}

// ListFrames returns the dump files in dir, sorted by frame index.
func ListFrames(dir string) ([]string, error) {
	files := []string{}
	if err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if p != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(p) == ".png" && strings.HasPrefix(filepath.Base(p), "dump_") {
			files = append(files, p)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("filepath walk failed: %s", err.Error())
	}

	sort.Strings(files)
	return files, nil
}

// LoadFrames reads dumped frames back concurrently and pairs them with their
// delays.
func LoadFrames(ctx context.Context, dir string, delays []time.Duration, policy frame.Policy) ([]frame.Frame, error) {
	files, err := ListFrames(dir)
	if err != nil {
		return nil, err
	}

	if len(files) != len(delays) {
		return nil, fmt.Errorf("%w: %d files, %d delays", ErrFrameCount, len(files), len(delays))
	}

	logrus.Debugf("loading %d frames from %s", len(files), dir)

	return frame.Collect(ctx, len(files), func(ctx context.Context, i int) (frame.Frame, error) {
		still, err := DecodeFile(files[i])
		if err != nil {
			return frame.Frame{}, err
		}

		return policy.Make(still, delays[i])
	})
}
