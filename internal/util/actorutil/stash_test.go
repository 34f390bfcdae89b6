package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type gate struct{}

type recorder struct {
	stash    Stash
	open     bool
	received chan string
}

func (r *recorder) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case gate:
		r.open = true
		r.stash.UnstashAll(ctx)
	case string:
		if !r.open {
			r.stash.Stash(ctx, msg)
			return
		}
		r.received <- msg
	}
}

func TestStashReplaysInOrder(t *testing.T) {

	as := NewActorSystemWithZapLogger(zap.Must(zap.NewDevelopment()))
	defer as.Shutdown()

	rec := &recorder{received: make(chan string, 3)}
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return rec }))

	as.Root.Send(pid, "a")
	as.Root.Send(pid, "b")
	as.Root.Send(pid, gate{})
	as.Root.Send(pid, "c")

	var got []string
	for range 3 {
		select {
		case msg := <-rec.received:
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for replayed messages")
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

type taskResult struct {
	value int
	err   error
}

type taskRunner struct {
	fn      func() (*taskResult, error)
	timeout time.Duration
	results chan taskResult
}

func (r *taskRunner) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		NewBackgroundTask(ctx, r.fn).Recover(func(err error) taskResult {
			return taskResult{err: err}
		}).WithTimeout(r.timeout).PipeTo(ctx.Self())
	case taskResult:
		r.results <- msg
	}
}

func TestBackgroundTask(t *testing.T) {

	as := NewActorSystemWithZapLogger(zap.Must(zap.NewDevelopment()))
	defer as.Shutdown()

	run := func(fn func() (*taskResult, error)) taskResult {
		runner := &taskRunner{fn: fn, timeout: 200 * time.Millisecond, results: make(chan taskResult, 1)}
		as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return runner }))
		select {
		case res := <-runner.results:
			return res
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for task result")
		}
		return taskResult{}
	}

	res := run(func() (*taskResult, error) { return &taskResult{value: 7}, nil })
	assert.NoError(t, res.err)
	assert.Equal(t, 7, res.value)

	res = run(func() (*taskResult, error) {
		time.Sleep(time.Second)
		return &taskResult{value: 1}, nil
	})
	assert.Error(t, res.err, "slow tasks time out")

	failure := errors.New("unreachable")
	res = run(func() (*taskResult, error) { return nil, failure })
	assert.ErrorIs(t, res.err, failure)
}
