package containers

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/containers/avif"
	"github.com/seventv/FrameProcessor/src/containers/gif"
	"github.com/seventv/FrameProcessor/src/containers/png"
	"github.com/seventv/FrameProcessor/src/containers/webp"
	"github.com/seventv/FrameProcessor/src/image"
	"github.com/seventv/FrameProcessor/src/job"
)

// output is one file stage three will produce.
type output struct {
	name     string
	typ      image.ImageType
	anim     *animation.Image
	animated bool
	encode   func(ctx context.Context, outFile string) error
}

// outputs lists the files the settings ask for, for one resized animation.
// dumpDir is where the frames of anim are dumped for the external encoders.
func outputs(config *configure.Config, name string, anim *animation.Image, dumpDir string, dumps func() ([]string, error), settings uint64) []output {
	enabled := func(flag uint64) bool {
		return settings&flag != 0
	}

	if !enabled(job.EnableOutputAnimated) {
		anim = anim.Thumbnail()
	}

	isAnimated := anim.Animated()

	avifEnc := func(a *animation.Image) func(ctx context.Context, outFile string) error {
		return func(ctx context.Context, outFile string) error {
			if _, err := dumps(); err != nil {
				return err
			}
			return avif.Encode(ctx, config, dumpDir, outFile, a)
		}
	}

	webpEnc := func(a *animation.Image) func(ctx context.Context, outFile string) error {
		return func(ctx context.Context, outFile string) error {
			files, err := dumps()
			if err != nil {
				return err
			}
			return webp.Encode(ctx, dumpDir, files[:a.Len()], outFile, a)
		}
	}

	gifEnc := func(a *animation.Image) func(ctx context.Context, outFile string) error {
		return func(ctx context.Context, outFile string) error {
			f, err := os.OpenFile(outFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
			if err != nil {
				return err
			}

			if err := multierror.Append(gif.Encode(f, a), f.Close()).ErrorOrNil(); err != nil {
				return err
			}

			return gif.Optimize(ctx, outFile)
		}
	}

	pngEnc := func(a *animation.Image) func(ctx context.Context, outFile string) error {
		return func(ctx context.Context, outFile string) error {
			return png.EncodeFile(ctx, a.Frame(0).Image(), outFile)
		}
	}

	outs := []output{}
	add := func(suffix string, typ image.ImageType, a *animation.Image, enc func(*animation.Image) func(context.Context, string) error) {
		outs = append(outs, output{
			name:     name + suffix,
			typ:      typ,
			anim:     a,
			animated: a.Animated(),
			encode:   enc(a),
		})
	}

	if (enabled(job.EnableOutputAnimatedAVIF) && isAnimated) || (enabled(job.EnableOutputStaticAVIF) && !isAnimated) {
		add("", image.AVIF, anim, avifEnc)
	}

	if (enabled(job.EnableOutputAnimatedWEBP) && isAnimated) || (enabled(job.EnableOutputStaticWEBP) && !isAnimated) {
		add("", image.WEBP, anim, webpEnc)
	}

	if enabled(job.EnableOutputAnimatedGIF) && isAnimated {
		add("", image.GIF, anim, gifEnc)
	}

	if enabled(job.EnableOutputStaticPNG) && !isAnimated {
		add("", image.PNG, anim, pngEnc)
	}

	if isAnimated && enabled(job.EnableOutputAnimatedThumbanils) {
		thumb := anim.Thumbnail()
		if enabled(job.EnableOutputStaticAVIF) {
			add("_static", image.AVIF, thumb, avifEnc)
		}
		if enabled(job.EnableOutputStaticWEBP) {
			add("_static", image.WEBP, thumb, webpEnc)
		}
		if enabled(job.EnableOutputStaticPNG) {
			add("_static", image.PNG, thumb, pngEnc)
		}
	}

	return outs
}

// Encode writes every output the settings ask for into dir and describes
// the files it made, sorted by name.
func Encode(ctx context.Context, config *configure.Config, dir string, anims map[string]*animation.Image, settings uint64) ([]job.File, error) {
	start := time.Now()

	type result struct {
		file job.File
		err  error
	}

	outs := []output{}
	for name, anim := range anims {
		dumpDir := path.Join(dir, "frames", name)

		var (
			once  sync.Once
			files []string
			err   error
		)
		anim := anim
		dumps := func() ([]string, error) {
			once.Do(func() {
				files, err = png.WriteFrames(ctx, dumpDir, anim)
			})
			return files, err
		}

		outs = append(outs, outputs(config, name, anim, dumpDir, dumps, settings)...)
	}

	resCh := make(chan result, len(outs))
	wg := sync.WaitGroup{}
	wg.Add(len(outs))
	for _, o := range outs {
		go func(o output) {
			defer wg.Done()

			outFile := path.Join(dir, o.name+o.typ.Extension())
			if err := o.encode(ctx, outFile); err != nil {
				resCh <- result{err: fmt.Errorf("%s: %w", path.Base(outFile), err)}
				return
			}

			f, err := describe(outFile, o, start)
			resCh <- result{file: f, err: err}
		}(o)
	}

	wg.Wait()
	close(resCh)

	var err error
	files := []job.File{}
	for r := range resCh {
		if r.err != nil {
			err = multierror.Append(err, r.err)
			continue
		}
		files = append(files, r.file)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	logrus.Debugf("encoded %d files in %s", len(files), time.Since(start))

	return files, multierror.Append(err, os.RemoveAll(path.Join(dir, "frames"))).ErrorOrNil()
}

func describe(outFile string, o output, start time.Time) (job.File, error) {
	data, err := os.ReadFile(outFile)
	if err != nil {
		return job.File{}, err
	}

	sum := blake2b.Sum256(data)

	return job.File{
		Name:        path.Base(outFile),
		ContentType: o.typ.ContentType(),
		Size:        len(data),
		Animated:    o.animated,
		Width:       o.anim.Width(),
		Height:      o.anim.Height(),
		Checksum:    hex.EncodeToString(sum[:]),
		Metadata:    o.anim.Metadata(),
		TimeTaken:   time.Since(start),
	}, nil
}
