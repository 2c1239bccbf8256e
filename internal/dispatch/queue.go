// Package dispatch marshals work from socket goroutines onto the single GUI
// thread and correlates each result with its caller by tag.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds Submit when the caller passes no timeout.
const DefaultTimeout = 5 * time.Second

// Queue is a FIFO of tagged tasks. Any goroutine may Submit; only the GUI
// thread may Drain.
type Queue struct {
	mu      sync.Mutex
	tasks   []Task
	pending map[uint64]chan TaskResult
	closed  bool

	nextTag atomic.Uint64
	notify  chan struct{}

	defaultTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithDefaultTimeout sets the timeout used when Submit is given none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.defaultTimeout = d
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		pending:        make(map[uint64]chan TaskResult),
		notify:         make(chan struct{}, 1),
		defaultTimeout: DefaultTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit enqueues work and blocks until the GUI thread posts its result, the
// timeout elapses or ctx is done. Timeouts are advisory: work already queued
// still runs, and its late result is discarded by tag.
//
// Submit panics with ErrReentrantSubmit when ctx came from Drain, since the
// GUI thread waiting on itself can never make progress. GUI-thread code must
// pass the ctx it was given through to anything that may call Submit; a
// fresh context.Background() hides the GUI mark and the call blocks until
// its timeout instead of failing.
func (q *Queue) Submit(ctx context.Context, work WorkFunc, timeout time.Duration) TaskResult {
	if OnGUIThread(ctx) {
		panic(ErrReentrantSubmit)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = q.defaultTimeout
	}

	tag := q.nextTag.Add(1)
	ch := make(chan TaskResult, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Failed(ErrClosed)
	}
	q.tasks = append(q.tasks, Task{Tag: tag, Work: work, ctx: ctx})
	q.pending[tag] = ch
	q.mu.Unlock()
	q.wake()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res
	case <-timer.C:
		return q.abandon(tag, ch, ErrTimeout)
	case <-ctx.Done():
		return q.abandon(tag, ch, ctx.Err())
	}
}

// abandon drops the pending record for tag. If the result was posted while
// the caller was giving up, that result wins.
func (q *Queue) abandon(tag uint64, ch chan TaskResult, reason error) TaskResult {
	q.mu.Lock()
	_, waiting := q.pending[tag]
	delete(q.pending, tag)
	q.mu.Unlock()

	if !waiting {
		return <-ch
	}
	q.logger.Debug("dispatch call abandoned", "tag", tag, "reason", reason)
	return Failed(reason)
}

// Drain runs every task queued at the time of the call, in submission order,
// and posts each result to its waiting caller. It returns the number of tasks
// run. Drain must only be called from the GUI thread.
//
// A task that calls Submit with its GUI context makes Drain panic with
// ErrReentrantSubmit. The offending caller gets ErrReentrantSubmit and the
// rest of the batch is put back at the head of the queue first.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for i, t := range batch {
		res, reentrant := q.run(t)
		if reentrant {
			q.deliver(t.Tag, Failed(ErrReentrantSubmit))
			q.requeue(batch[i+1:])
			panic(ErrReentrantSubmit)
		}
		q.deliver(t.Tag, res)
	}
	return len(batch)
}

func (q *Queue) run(t Task) (res TaskResult, reentrant bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if err, ok := r.(error); ok && errors.Is(err, ErrReentrantSubmit) {
			q.logger.Error("dispatch task submitted from the GUI thread", "tag", t.Tag)
			reentrant = true
			return
		}
		q.logger.Error("dispatch task panicked", "tag", t.Tag, "panic", r)
		res = Failed(&PanicError{Value: r, Stack: debug.Stack()})
	}()

	parent := context.Background()
	if t.ctx != nil {
		parent = context.WithoutCancel(t.ctx)
	}
	v, err := t.Work(withGUIThread(parent))
	if err != nil {
		return Failed(err), false
	}
	return Ok(v), false
}

// requeue puts tasks back ahead of anything queued since the batch was taken.
func (q *Queue) requeue(tasks []Task) {
	if len(tasks) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(append([]Task(nil), tasks...), q.tasks...)
}

// deliver posts res to the caller waiting on tag. Results for tags nobody is
// waiting on are dropped. The send happens under the lock so abandon can
// rely on the channel holding the result once the record is gone.
func (q *Queue) deliver(tag uint64, res TaskResult) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch, ok := q.pending[tag]
	if !ok {
		q.logger.Debug("dropping late dispatch result", "tag", tag)
		return
	}
	delete(q.pending, tag)
	ch <- res
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Notify returns a channel that receives a value whenever work is queued.
// A pump can select on it instead of polling an empty queue.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

// Len returns the number of tasks waiting for the next Drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// InFlight returns the number of callers still waiting for a result.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close fails every queued and waiting call with ErrClosed. Later Submits
// return ErrClosed immediately.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.tasks = nil
	for tag, ch := range q.pending {
		ch <- Failed(ErrClosed)
		delete(q.pending, tag)
	}
}
