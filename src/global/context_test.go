package global

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/frame"
)

func TestFramePolicy(t *testing.T) {
	cfg := &configure.Config{}
	cfg.Frames.DurationPolicy = "strict"

	ctx := New(context.Background(), cfg)
	assert.Equal(t, frame.Strict(), ctx.FramePolicy())

	cfg = &configure.Config{}
	cfg.Frames.DurationPolicy = "nope"
	ctx = New(context.Background(), cfg)
	assert.Equal(t, frame.Clamp(frame.DefaultDuration), ctx.FramePolicy())
}

func TestWait(t *testing.T) {
	ctx := New(context.Background(), &configure.Config{})

	ctx.AddTask(2)
	go ctx.DoneTask()
	go ctx.DoneTask()

	done := make(chan struct{})
	go func() {
		ctx.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return")
	}
}
