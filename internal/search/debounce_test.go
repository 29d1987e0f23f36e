package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	results []Result[string]
	got     chan struct{}
}

func newCollector() *collector {
	return &collector{got: make(chan struct{}, 16)}
}

func (c *collector) deliver(r Result[string]) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) all() []Result[string] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result[string](nil), c.results...)
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a search result")
	}
}

func TestDebouncer_OnlyLastInputFires(t *testing.T) {
	var mu sync.Mutex
	var queries []string

	c := newCollector()
	d := New(context.Background(), 30*time.Millisecond, func(ctx context.Context, q string) (string, error) {
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		return "results for " + q, nil
	}, c.deliver)
	defer d.Close()

	d.Input("a")
	d.Input("as")
	d.Input("asp")
	c.wait(t)

	mu.Lock()
	assert.Equal(t, []string{"asp"}, queries)
	mu.Unlock()

	results := c.all()
	require.Len(t, results, 1)
	assert.Equal(t, "results for asp", results[0].Value)
	assert.Equal(t, uint64(3), results[0].Generation)
}

func TestDebouncer_StaleResultIsDroppedAndCanceled(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan struct{})

	c := newCollector()
	d := New(context.Background(), 10*time.Millisecond, func(ctx context.Context, q string) (string, error) {
		if q == "slow" {
			close(started)
			<-ctx.Done()
			close(canceled)
			return "stale", ctx.Err()
		}
		return "fresh", nil
	}, c.deliver)
	defer d.Close()

	d.Input("slow")
	<-started

	d.Input("fast")

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search was not canceled")
	}

	c.wait(t)
	results := c.all()
	require.Len(t, results, 1)
	assert.Equal(t, "fast", results[0].Query)
	assert.Equal(t, "fresh", results[0].Value)
	assert.NoError(t, results[0].Err)
}

func TestDebouncer_CloseDropsPending(t *testing.T) {
	c := newCollector()
	d := New(context.Background(), 20*time.Millisecond, func(ctx context.Context, q string) (string, error) {
		return q, nil
	}, c.deliver)

	d.Input("x")
	d.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, c.all())

	gen := d.Generation()
	assert.Equal(t, gen, d.Input("y"), "closed debouncer ignores input")
}

func TestDebouncer_DefaultDelay(t *testing.T) {
	d := New(context.Background(), 0, func(ctx context.Context, q string) (int, error) { return 0, nil }, func(Result[int]) {})
	assert.Equal(t, DefaultDelay, d.delay)
}
