package task

import (
	"context"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/global"
	"github.com/seventv/FrameProcessor/src/job"
)

func Listen(ctx global.Context) {
	msgCh, err := ctx.Instances().Rmq.Subscribe(ctx.Config().Rmq.JobQueueName)
	if err != nil {
		logrus.Fatal("failed to listen to jobs: ", err)
	}

	maxProcs := ctx.Config().Workers()
	workers := make(chan *taskWorker, maxProcs)
	for i := 0; i < maxProcs; i++ {
		workers <- &taskWorker{
			cb: workers,
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}

			worker := <-workers
			go worker.process(ctx, msg)
		}
	}
}

type taskWorker struct {
	cb chan *taskWorker
}

type RmqResult struct {
	JobID   string             `json:"job_id"`
	Success bool               `json:"success"`
	Source  animation.Metadata `json:"source"`
	Files   []job.File         `json:"files"`
	Error   string             `json:"error"`
}

// delivery is the part of an amqp.Delivery a worker needs.
type delivery interface {
	Ack(multiple bool) error
	Reject(requeue bool) error
}

func (w *taskWorker) process(ctx global.Context, msg amqp.Delivery) {
	ctx.AddTask(1)
	defer func() {
		ctx.DoneTask()
		w.cb <- w
	}()

	Process(ctx, msg.Body, &msg)
}

// Process runs one job message to completion, publishing its events and
// result. A job that fails for any reason is rejected as a whole.
func Process(ctx global.Context, body []byte, msg delivery) RmqResult {
	j, err := job.Parse(body)
	if err != nil {
		logrus.Warn("bad job message: ", err)
		if err := msg.Reject(false); err != nil {
			logrus.Warn("failed to reject: ", err)
		}
		return RmqResult{Error: err.Error()}
	}

	logrus.Debug(spew.Sdump(j))

	var (
		lCtx   context.Context
		cancel context.CancelFunc
	)
	if d := ctx.Config().MaxTaskDuration; d > 0 {
		lCtx, cancel = context.WithTimeout(ctx, time.Second*time.Duration(d))
	} else {
		lCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	task := New(lCtx, j)

	task.Start(ctx)

	logrus.Info("starting new task: ", j.ID)

	for event := range task.Events() {
		data, _ := json.Marshal(event)
		if err := ctx.Instances().Rmq.Publish(ctx.Config().Rmq.UpdateQueueName, "application/json", amqp.Transient, data); err != nil {
			logrus.Warn("failed to send update: ", err)
		}
	}
	<-task.Done()

	if err := task.Failed(); err != nil {
		if err := msg.Reject(false); err != nil {
			logrus.Warn("failed to reject: ", err)
		}
		logrus.Errorf("task failed %s: %s", j.ID, err.Error())
	} else {
		if err := msg.Ack(false); err != nil {
			logrus.Warn("failed to ack: ", err)
		}
	}

	result := RmqResult{
		JobID:   j.ID,
		Success: task.Failed() == nil,
		Source:  task.Source(),
		Files:   task.Files(),
	}
	if err := task.Failed(); err != nil {
		result.Error = err.Error()
	}

	resp, _ := json.Marshal(result)
	if err := ctx.Instances().Rmq.Publish(ctx.Config().Rmq.ResultQueueName, "application/json", amqp.Persistent, resp); err != nil {
		logrus.Error("failed to publish result: ", err)
	}

	logrus.Info("finished task: ", j.ID)

	return result
}
