package submission

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"valentine-server/internal/domain"
)

// Result is delivered to the dispatcher callback once the submission finishes.
// Exactly one of Response and Err is set; Notice accompanies Err.
type Result struct {
	Answer   bool
	Response *domain.Response
	Err      error
	Notice   *Notice
}

func (r Result) OK() bool { return r.Err == nil }

// Dispatcher issues at most one submission per session in the background.
// The state machine is never consulted: the caller dispatches only after the answer is terminal.
type Dispatcher struct {
	submitter Submitter
	onResult  func(Result)
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	dispatched atomic.Bool
	wg         sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

// WithSubmitTimeout bounds one submission; zero means only the parent context applies.
func WithSubmitTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// NewDispatcher создает диспетчер. onResult вызывается из фоновой горутины.
func NewDispatcher(parent context.Context, s Submitter, onResult func(Result), opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(parent)
	d := &Dispatcher{
		submitter: s,
		onResult:  onResult,
		timeout:   15 * time.Second,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts the submission and reports whether it did; every call after the first is ignored.
func (d *Dispatcher) Dispatch(answer bool) bool {
	if !d.dispatched.CompareAndSwap(false, true) {
		return false
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx := d.ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		resp, err := d.submitter.Submit(ctx, answer)
		res := Result{Answer: answer, Response: resp, Err: err}
		if err != nil {
			n := FailureNotice()
			res.Response = nil
			res.Notice = &n
		}
		if d.onResult != nil {
			d.onResult(res)
		}
	}()
	return true
}

// Wait blocks until the in-flight submission (if any) has reported.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels the in-flight submission and waits for it.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
