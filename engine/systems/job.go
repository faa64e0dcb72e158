package systems

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/lina/engine/core"
	"github.com/spaghettifunk/lina/engine/metadata"
)

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = fmt.Errorf("job system is shut down")

// Executor runs jobs in the background and hands back a handle to them.
type Executor interface {
	Submit(jt metadata.JobTask) *Future
}

// Future is the handle of a submitted job.
type Future struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newFuture(name string) *Future {
	ctx, cancel := context.WithCancel(context.Background())
	return &Future{
		name:   name,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (f *Future) Name() string { return f.name }

// Cancel asks the job to stop. A job still queued never starts, a running job
// sees its context cancelled and stops at its next check.
func (f *Future) Cancel() {
	f.cancel()
}

// Wait blocks until the job finished and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

func (f *Future) finish(err error) {
	f.err = err
	f.cancel()
	close(f.done)
}

func (f *Future) run(jt metadata.JobTask) {
	var err error
	if f.ctx.Err() != nil {
		err = core.ErrTaskCancelled
	} else {
		err = runJob(f.ctx, jt)
	}

	if err != nil {
		if !errors.Is(err, core.ErrTaskCancelled) {
			core.LogError("job %q failed: %s", jt.Name, err)
		}
		if jt.OnFailure != nil {
			jt.OnFailure(err)
		}
	} else if jt.OnComplete != nil {
		jt.OnComplete()
	}
	f.finish(err)
}

func runJob(ctx context.Context, jt metadata.JobTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", jt.Name, r)
		}
	}()
	if jt.OnStart == nil {
		return fmt.Errorf("job %q has no entry point", jt.Name)
	}
	err = jt.OnStart(ctx)
	if err != nil && errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %s", core.ErrTaskCancelled, err)
	}
	return err
}

type queuedJob struct {
	task   metadata.JobTask
	future *Future
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan queuedJob
	wg         sync.WaitGroup
	mutex      sync.RWMutex
	closed     bool
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan queuedJob, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				job.future.run(job.task)
			}
		}()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run, new submissions fail.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param jt The description of the job to be executed.
 * @return The handle used to cancel or wait for the job.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) *Future {
	f := newFuture(jt.Name)

	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		if jt.OnFailure != nil {
			jt.OnFailure(ErrJobSystemClosed)
		}
		f.finish(ErrJobSystemClosed)
		return f
	}
	js.jobQueue <- queuedJob{task: jt, future: f}
	return f
}

// InlineExecutor runs every job on the submitting goroutine before Submit
// returns.
type InlineExecutor struct{}

func (InlineExecutor) Submit(jt metadata.JobTask) *Future {
	f := newFuture(jt.Name)
	f.run(jt)
	return f
}
