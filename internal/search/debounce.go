// Package search runs a query only after input has been quiet for a while,
// and makes sure a slow answer to an old query never replaces a newer one.
package search

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period list pages use
const DefaultDelay = 400 * time.Millisecond

// Func runs one search. It must honor ctx cancellation.
type Func[T any] func(ctx context.Context, query string) (T, error)

// Result is the outcome of one fired search
type Result[T any] struct {
	Query      string
	Generation uint64
	Value      T
	Err        error
}

// Debouncer delays searches until input settles. Every Input starts a new
// generation; results are delivered only while their generation is still
// the newest, and starting a new generation cancels the in-flight request
// of the previous one.
type Debouncer[T any] struct {
	parent  context.Context
	delay   time.Duration
	fn      Func[T]
	deliver func(Result[T])

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// New creates a Debouncer. deliver is called from the search goroutine
// while the debouncer is locked, so it must not call Input or Close.
func New[T any](ctx context.Context, delay time.Duration, fn Func[T], deliver func(Result[T])) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{
		parent:  ctx,
		delay:   delay,
		fn:      fn,
		deliver: deliver,
	}
}

// Input records a keystroke. It resets the quiet-period timer and
// supersedes anything scheduled or running for earlier input.
func (d *Debouncer[T]) Input(query string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.gen
	}

	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, query) })
	return gen
}

// Generation returns the newest generation number
func (d *Debouncer[T]) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// Close stops the timer, cancels any in-flight search and drops its result
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64, query string) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(d.parent)
	d.cancel = cancel
	d.mu.Unlock()

	value, err := d.fn(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()
	cancel()

	if d.closed || gen != d.gen {
		return
	}
	d.cancel = nil
	d.deliver(Result[T]{Query: query, Generation: gen, Value: value, Err: err})
}
