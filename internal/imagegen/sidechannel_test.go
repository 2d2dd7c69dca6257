package imagegen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/cache/memcache"
	"github.com/vitte-ai/vitte-chat/internal/model"
)

// fakeGenerator scripts Enqueue/Result behavior.
type fakeGenerator struct {
	nextTaskID string
	enqueueErr error
	enqueued   []Job

	results map[string][]Result // consumed front to back
	pollErr error
}

func (f *fakeGenerator) Enqueue(_ context.Context, job Job) (string, error) {
	if f.enqueueErr != nil {
		return "", f.enqueueErr
	}
	f.enqueued = append(f.enqueued, job)
	return f.nextTaskID, nil
}

func (f *fakeGenerator) Result(_ context.Context, taskID string) (Result, error) {
	if f.pollErr != nil {
		return Result{}, f.pollErr
	}
	queue := f.results[taskID]
	if len(queue) == 0 {
		return Result{Status: "pending"}, nil
	}
	res := queue[0]
	if len(queue) > 1 {
		f.results[taskID] = queue[1:]
	}
	return res, nil
}

func newChannel(g Generator, c *memcache.Cache) *SideChannel {
	sc := NewSideChannel(g, c, 100*time.Millisecond, 5*time.Minute, 3, 5, zerolog.Nop())
	sc.sleep = func(time.Duration) {}
	return sc
}

func intPtr(v int) *int { return &v }

func TestShouldEnqueueFirstImage(t *testing.T) {
	sc := newChannel(&fakeGenerator{}, memcache.New())
	assert.False(t, sc.ShouldEnqueue(nil, 2))
	assert.True(t, sc.ShouldEnqueue(nil, 3))
	assert.True(t, sc.ShouldEnqueue(nil, 5))
	assert.False(t, sc.ShouldEnqueue(nil, 6))
}

func TestShouldEnqueueDelta(t *testing.T) {
	sc := newChannel(&fakeGenerator{}, memcache.New())
	assert.False(t, sc.ShouldEnqueue(intPtr(4), 6))  // delta 2
	assert.True(t, sc.ShouldEnqueue(intPtr(4), 7))   // delta 3
	assert.True(t, sc.ShouldEnqueue(intPtr(4), 9))   // delta 5
	assert.False(t, sc.ShouldEnqueue(intPtr(4), 10)) // delta 6
}

func TestTriggerEnqueuesAndParksTicket(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{nextTaskID: "task-1"}
	mc := memcache.New()
	sc := newChannel(gen, mc)

	dlg := &model.Dialog{ID: 42, MessageCount: 4}
	marker := sc.Trigger(ctx, dlg, "mei", "покажи себя на набережной")
	require.NotNil(t, marker)
	assert.Equal(t, 4, *marker)
	require.Len(t, gen.enqueued, 1)
	assert.Equal(t, "mei", gen.enqueued[0].PersonaKey)

	ticket, err := mc.Get(ctx, ticketKey(42))
	require.NoError(t, err)
	assert.Equal(t, "task-1", ticket)
}

func TestTriggerSkipsOutsideCadence(t *testing.T) {
	gen := &fakeGenerator{nextTaskID: "task-1"}
	sc := newChannel(gen, memcache.New())
	dlg := &model.Dialog{ID: 1, MessageCount: 8, LastImageAt: intPtr(7)}
	assert.Nil(t, sc.Trigger(context.Background(), dlg, "mei", "x"))
	assert.Empty(t, gen.enqueued)
}

func TestTriggerSwallowsEnqueueFailure(t *testing.T) {
	gen := &fakeGenerator{enqueueErr: errors.New("queue down")}
	sc := newChannel(gen, memcache.New())
	dlg := &model.Dialog{ID: 1, MessageCount: 4}
	assert.Nil(t, sc.Trigger(context.Background(), dlg, "mei", "x"))
}

func TestPickupReturnsReadyImage(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{results: map[string][]Result{
		"task-9": {{Status: "done", URL: "https://img/9.png"}},
	}}
	mc := memcache.New()
	sc := newChannel(gen, mc)
	require.NoError(t, mc.Set(ctx, ticketKey(7), "task-9", time.Minute))

	assert.Equal(t, "https://img/9.png", sc.Pickup(ctx, 7))

	// Ticket is single-shot.
	assert.Empty(t, sc.Pickup(ctx, 7))
}

func TestPickupWaitsThroughPending(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{results: map[string][]Result{
		"task-2": {{Status: "pending"}, {Status: "pending"}, {Status: "done", URL: "https://img/2.png"}},
	}}
	mc := memcache.New()
	sc := newChannel(gen, mc)
	require.NoError(t, mc.Set(ctx, ticketKey(3), "task-2", time.Minute))

	assert.Equal(t, "https://img/2.png", sc.Pickup(ctx, 3))
}

func TestPickupConsumesTicketEvenWhenNotReady(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{results: map[string][]Result{}}
	mc := memcache.New()
	sc := NewSideChannel(gen, mc, time.Millisecond, time.Minute, 3, 5, zerolog.Nop())
	sc.sleep = func(time.Duration) { time.Sleep(time.Millisecond) }
	require.NoError(t, mc.Set(ctx, ticketKey(5), "task-x", time.Minute))

	assert.Empty(t, sc.Pickup(ctx, 5))
	_, err := mc.Get(ctx, ticketKey(5))
	assert.Error(t, err, "ticket must be consumed")
}

func TestPickupFailedJob(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{results: map[string][]Result{
		"task-f": {{Status: "failed"}},
	}}
	mc := memcache.New()
	sc := newChannel(gen, mc)
	require.NoError(t, mc.Set(ctx, ticketKey(8), "task-f", time.Minute))
	assert.Empty(t, sc.Pickup(ctx, 8))
}

func TestPickupNoTicket(t *testing.T) {
	sc := newChannel(&fakeGenerator{}, memcache.New())
	assert.Empty(t, sc.Pickup(context.Background(), 123))
}
