package task

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	Aws "github.com/aws/aws-sdk-go/aws"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/aws"
	"github.com/seventv/FrameProcessor/src/containers"
	"github.com/seventv/FrameProcessor/src/global"
	"github.com/seventv/FrameProcessor/src/job"
	"github.com/seventv/FrameProcessor/src/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrUnknownJobProvider = fmt.Errorf("unknown job provider")
	ErrUnknownJobConsumer = fmt.Errorf("unknown job consumer")
	ErrNoStorage          = fmt.Errorf("aws storage is not configured")
)

type Task struct {
	id uuid.UUID

	job job.Job

	mtx       sync.Mutex
	started   bool
	stopped   bool
	completed bool
	failed    error

	dir    string
	source animation.Metadata
	files  []job.File

	evMtx    sync.Mutex
	evClosed bool
	events   chan TaskEvent

	ctx    context.Context
	cancel context.CancelFunc
}

func New(ctx context.Context, j job.Job) *Task {
	ctx, cancel := context.WithCancel(ctx)
	id, _ := uuid.NewRandom()
	return &Task{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		job:    j,
		events: make(chan TaskEvent, 20),
	}
}

func (t *Task) ID() uuid.UUID {
	return t.id
}

func (t *Task) Start(ctx global.Context) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.started || t.stopped || t.completed {
		return
	}

	t.started = true

	go t.start(ctx)
}

func (t *Task) emit(typ TaskEventType) {
	t.evMtx.Lock()
	defer t.evMtx.Unlock()
	if t.evClosed {
		return
	}

	select {
	case t.events <- TaskEvent{JobID: t.job.ID, Type: typ, Timestamp: time.Now()}:
	default:
		logrus.WithField("job", t.job.ID).Warnf("event buffer full, dropping %s", typ)
	}
}

func (t *Task) closeEvents() {
	t.evMtx.Lock()
	defer t.evMtx.Unlock()
	if !t.evClosed {
		t.evClosed = true
		close(t.events)
	}
}

func (t *Task) start(ctx global.Context) {
	defer t.closeEvents()
	defer func() {
		if err := t.cleanup(); err != nil {
			logrus.Error("failed to cleanup: ", err)
		}
	}()

	t.emit(Started)

	err := t.run(ctx)

	t.mtx.Lock()
	t.completed = true
	t.failed = err
	t.mtx.Unlock()

	t.cancel()
	if err != nil {
		t.emit(Failed)
	} else {
		t.emit(Completed)
	}
}

func (t *Task) run(ctx global.Context) error {
	data, err := t.download(ctx)
	if err != nil {
		return err
	}

	t.emit(Downloaed)

	if t.ctx.Err() != nil {
		return t.ctx.Err()
	}

	// we now have to figure out what we have??
	imgType, err := containers.ToType(data)
	if err != nil {
		return err
	}

	dir := path.Join(ctx.Config().WorkingDir, t.id.String())
	if err = os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	t.mtx.Lock()
	t.dir = dir
	t.mtx.Unlock()

	fileName := path.Join(dir, fmt.Sprintf("raw.%s", imgType))
	if err = os.WriteFile(fileName, data, 0600); err != nil {
		return err
	}

	t.emit(StageOne)

	anim, err := containers.Decode(t.ctx, ctx.Config(), ctx.FramePolicy(), fileName, imgType)
	if err != nil {
		return err
	}

	if t.job.LoopCount != nil {
		anim = anim.WithLoopCount(*t.job.LoopCount)
	}

	t.mtx.Lock()
	t.source = anim.Metadata()
	t.mtx.Unlock()

	t.emit(StageOneComplete)
	t.emit(StageTwo)

	anims, err := containers.Resize(t.ctx, anim, t.job.Sizes)
	if err != nil {
		return err
	}

	t.emit(StageTwoComplete)
	t.emit(StageThree)

	files, err := containers.Encode(t.ctx, ctx.Config(), dir, anims, t.job.Settings)
	if err != nil {
		return err
	}

	t.emit(StageThreeComplete)

	if err = t.upload(ctx, dir, files); err != nil {
		return err
	}

	total := 0
	for _, f := range files {
		total += f.Size
	}

	logrus.WithField("job", t.job.ID).Infof("%d files, %s total, from %d frames", len(files), humanize.Bytes(uint64(total)), anim.Len())

	t.mtx.Lock()
	t.files = files
	t.mtx.Unlock()

	return nil
}

func (t *Task) download(ctx global.Context) ([]byte, error) {
	switch t.job.RawProvider {
	case job.AwsProvider:
		providerDetails := job.RawProviderDetailsAws{}
		if err := json.Unmarshal(t.job.RawProviderDetails, &providerDetails); err != nil {
			return nil, err
		}

		if ctx.Instances().AwsS3 == nil {
			return nil, ErrNoStorage
		}

		buf := Aws.NewWriteAtBuffer([]byte{})
		if err := ctx.Instances().AwsS3.DownloadFile(t.ctx, providerDetails.Bucket, providerDetails.Key, buf); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	case job.LocalProvider:
		providerDetails := job.RawProviderDetailsLocal{}
		if err := json.Unmarshal(t.job.RawProviderDetails, &providerDetails); err != nil {
			return nil, err
		}

		return os.ReadFile(providerDetails.Path)
	}

	return nil, ErrUnknownJobProvider
}

func (t *Task) upload(ctx global.Context, dir string, files []job.File) error {
	switch t.job.ResultConsumer {
	case job.AwsConsumer:
		consumerDetails := job.ResultConsumerDetailsAws{}
		if err := json.Unmarshal(t.job.ResultConsumerDetails, &consumerDetails); err != nil {
			return err
		}

		if ctx.Instances().AwsS3 == nil {
			return ErrNoStorage
		}

		errCh := make(chan error, len(files))
		for _, v := range files {
			go func(v job.File) {
				f, err := os.Open(path.Join(dir, v.Name))
				if err != nil {
					errCh <- err
					return
				}
				defer f.Close()

				errCh <- ctx.Instances().AwsS3.UploadFile(
					t.ctx,
					consumerDetails.Bucket,
					path.Join(consumerDetails.KeyFolder, v.Name),
					f,
					utils.StringPointer(v.ContentType),
					aws.AclPublicRead,
					aws.DefaultCacheControl,
				)
			}(v)
		}

		var err error
		for range files {
			err = multierror.Append(err, <-errCh).ErrorOrNil()
		}

		return err
	case job.LocalConsumer:
		consumerDetails := job.ResultConsumerDetailsLocal{}
		if err := json.Unmarshal(t.job.ResultConsumerDetails, &consumerDetails); err != nil {
			return err
		}

		if err := os.MkdirAll(consumerDetails.PathFolder, 0700); err != nil {
			return err
		}

		for _, v := range files {
			data, err := os.ReadFile(path.Join(dir, v.Name))
			if err != nil {
				return err
			}

			if err = os.WriteFile(path.Join(consumerDetails.PathFolder, v.Name), data, 0600); err != nil {
				return err
			}
		}

		return nil
	}

	return ErrUnknownJobConsumer
}

func (t *Task) Stop() {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.stopped || t.completed {
		return
	}

	t.emit(Stopped)

	t.stopped = true
	t.cancel()
}

func (t *Task) Done() <-chan struct{} {
	return t.ctx.Done()
}

func (t *Task) Events() <-chan TaskEvent {
	return t.events
}

func (t *Task) Completed() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.completed
}

func (t *Task) Failed() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.failed
}

func (t *Task) Started() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.started
}

func (t *Task) Stopped() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.stopped
}

// Files are the outputs of a completed task.
func (t *Task) Files() []job.File {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.files
}

// Source describes the decoded input, once stage one is done.
func (t *Task) Source() animation.Metadata {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.source
}

func (t *Task) cleanup() error {
	t.emit(Cleaned)

	t.cancel()

	t.mtx.Lock()
	dir := t.dir
	t.mtx.Unlock()

	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

func (t *Task) Job() job.Job {
	return t.job
}
