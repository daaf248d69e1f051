package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Producer builds the frame at position i of a sequence.
type Producer func(ctx context.Context, i int) (Frame, error)

// Collect runs one producer per frame index and waits for every one of them
// before returning. Frames come back in index order. If any producer fails the
// whole sequence fails; frames are never dropped to paper over an error.
func Collect(ctx context.Context, n int, produce Producer) ([]Frame, error) {
	if n <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make([]Frame, n)
	errs := make([]error, n)

	wg := sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}

			f, err := produce(ctx, i)
			if err != nil {
				errs[i] = fmt.Errorf("frame %d: %w", i, err)
				cancel()
				return
			}

			frames[i] = f
		}(i)
	}

	wg.Wait()

	// cancellation errors are kept only when nothing else failed.
	var err error
	for _, e := range errs {
		if e != nil && !isCancellation(e) {
			err = multierror.Append(err, e)
		}
	}
	if err == nil {
		for _, e := range errs {
			if e != nil {
				err = multierror.Append(err, e)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return frames, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
