// SPDX-License-Identifier: MPL-2.0

package regression

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// OutcomeSucceeded means the job ran and exited 0.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the job exited non-zero or could not be started.
	OutcomeFailed Outcome = "failed"
	// OutcomeHalted means the job was killed by a halt or never started.
	OutcomeHalted Outcome = "halted"
)

type (
	// Job identifies one unit of a batch by its position.
	Job int

	// Outcome is how a job ended.
	Outcome string

	// Task runs one job. ctx is canceled when the pool halts; the task must
	// return promptly once that happens.
	Task func(ctx context.Context, job Job) (types.ExitCode, error)

	// Result is the final state of one job.
	Result struct {
		Job      Job
		Outcome  Outcome
		ExitCode types.ExitCode
		Err      error
	}

	// Handle is the future of a submitted job.
	Handle struct {
		job    Job
		done   chan struct{}
		once   sync.Once
		result Result
	}

	// Pool runs submitted jobs on a fixed number of workers. The first job
	// that fails halts the pool: running jobs see their context canceled and
	// queued jobs never start.
	Pool struct {
		task    Task
		haltCtx context.Context
		ctx     context.Context
		halt    context.CancelCauseFunc
		group   *errgroup.Group
		stop    func() bool
		mu      sync.Mutex
		cond    *sync.Cond
		queue   []*Handle
		closed  bool
		halted  bool
	}
)

// String returns the outcome name.
func (o Outcome) String() string { return string(o) }

// Job returns the job this handle belongs to.
func (h *Handle) Job() Job { return h.job }

// Wait blocks until the job has a final result. Jobs still queued when the
// pool halts resolve once Pool.Wait has been called.
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}

func (h *Handle) resolve(r Result) {
	h.once.Do(func() {
		r.Job = h.job
		h.result = r
		close(h.done)
	})
}

// NewPool starts workers goroutines that run task for every submitted job.
// Canceling ctx halts the pool.
func NewPool(ctx context.Context, workers int, task Task) *Pool {
	if workers < 1 {
		workers = 1
	}
	haltCtx, halt := context.WithCancelCause(ctx)
	group, groupCtx := errgroup.WithContext(haltCtx)

	p := &Pool{task: task, haltCtx: haltCtx, ctx: groupCtx, halt: halt, group: group}
	p.cond = sync.NewCond(&p.mu)
	p.stop = context.AfterFunc(groupCtx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})

	for range workers {
		group.Go(p.work)
	}
	return p
}

// Submit queues job and returns its handle. Jobs submitted after the pool
// halted or after Wait was called resolve as halted immediately.
func (p *Pool) Submit(job Job) *Handle {
	h := &Handle{job: job, done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.ctx.Err() != nil {
		h.resolve(Result{Outcome: OutcomeHalted, ExitCode: types.ExitFailure})
		return h
	}
	p.queue = append(p.queue, h)
	p.cond.Signal()
	return h
}

// Halt cancels running jobs and drops queued ones. A nil cause records
// ErrPoolHalted.
func (p *Pool) Halt(cause error) {
	if cause == nil {
		cause = ErrPoolHalted
	}
	p.halt(cause)
}

// Wait closes the pool to new jobs and blocks until every queued job has run
// or the pool halted. It returns the first *JobFailureError, the halt cause,
// or nil when every job succeeded.
func (p *Pool) Wait() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	err := p.group.Wait()
	p.stop()

	p.mu.Lock()
	dropped := p.queue
	p.queue = nil
	p.mu.Unlock()
	for _, h := range dropped {
		h.resolve(Result{Outcome: OutcomeHalted, ExitCode: types.ExitFailure})
	}

	if err != nil {
		return err
	}
	p.mu.Lock()
	incomplete := p.halted || len(dropped) > 0
	p.mu.Unlock()
	if incomplete && p.haltCtx.Err() != nil {
		return context.Cause(p.haltCtx)
	}
	return nil
}

func (p *Pool) work() error {
	for {
		h := p.next()
		if h == nil {
			return nil
		}
		if r := p.run(h); r.Outcome == OutcomeFailed {
			return &JobFailureError{Job: h.job, ExitCode: r.ExitCode, Err: r.Err}
		}
	}
}

// next blocks until a job is queued. It returns nil once the pool halted or
// the queue is closed and empty.
func (p *Pool) next() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed && p.ctx.Err() == nil {
		p.cond.Wait()
	}
	if p.ctx.Err() != nil || len(p.queue) == 0 {
		return nil
	}
	h := p.queue[0]
	p.queue = p.queue[1:]
	return h
}

func (p *Pool) run(h *Handle) Result {
	code, err := p.task(p.ctx, h.job)

	var r Result
	switch {
	case err == nil && code.IsSuccess():
		r = Result{Outcome: OutcomeSucceeded, ExitCode: code}
	case p.ctx.Err() != nil:
		r = Result{Outcome: OutcomeHalted, ExitCode: code, Err: err}
		p.mu.Lock()
		p.halted = true
		p.mu.Unlock()
	default:
		if code.IsSuccess() {
			code = types.ExitFailure
		}
		r = Result{Outcome: OutcomeFailed, ExitCode: code, Err: err}
	}
	h.resolve(r)
	return h.result
}
