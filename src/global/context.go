package global

import (
	"context"
	"sync"

	"github.com/seventv/FrameProcessor/src/configure"
	"github.com/seventv/FrameProcessor/src/frame"
	"github.com/sirupsen/logrus"
)

type Context interface {
	context.Context
	Instances() *Instances
	Config() *configure.Config
	FramePolicy() frame.Policy
	AddTask(n int)
	DoneTask()
	Wait()
}

type GlobalContext struct {
	context.Context
	Insts  *Instances
	Cfg    *configure.Config
	policy frame.Policy
	wg     *sync.WaitGroup
}

func New(ctx context.Context, config *configure.Config) Context {
	policy, err := config.FramePolicy()
	if err != nil {
		logrus.WithError(err).Warn("bad frame policy, falling back to clamp")
		policy = frame.Clamp(frame.DefaultDuration)
	}

	return &GlobalContext{
		Context: ctx,
		Insts:   &Instances{},
		Cfg:     config,
		policy:  policy,
		wg:      &sync.WaitGroup{},
	}
}

func (g *GlobalContext) Instances() *Instances {
	return g.Insts
}

func (g *GlobalContext) Config() *configure.Config {
	return g.Cfg
}

func (g *GlobalContext) FramePolicy() frame.Policy {
	return g.policy
}

func (g *GlobalContext) AddTask(n int) {
	g.wg.Add(n)
}

func (g *GlobalContext) DoneTask() {
	g.wg.Done()
}

func (g *GlobalContext) Wait() {
	g.wg.Wait()
}
