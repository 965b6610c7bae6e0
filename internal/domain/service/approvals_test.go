package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug-advocacy/kug-platform/internal/adapters/database/redis/approvals"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/pkg/logger"
)

type collector struct {
	mu     sync.Mutex
	events []dto.ContributionApproved
}

func (c *collector) handle(_ context.Context, event dto.ContributionApproved) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type brokenQueue struct{}

func (brokenQueue) Push(context.Context, dto.ContributionApproved) error {
	return errors.New("connection refused")
}

func (brokenQueue) Pop(context.Context, time.Duration) (*dto.ContributionApproved, error) {
	return nil, errors.New("connection refused")
}

func TestApprovalDispatcher_IsolatesSubscribers(t *testing.T) {
	d := NewApprovalDispatcher(logger.Nop())
	var got collector
	d.Subscribe("failing", func(context.Context, dto.ContributionApproved) error {
		return errors.New("boom")
	})
	d.Subscribe("panicking", func(context.Context, dto.ContributionApproved) error {
		panic("nil map")
	})
	d.Subscribe("collector", got.handle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.PublishApproved(ctx, dto.ContributionApproved{ContributionID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.len())
}

func TestApprovalDispatcher_DetachesContext(t *testing.T) {
	d := NewApprovalDispatcher(logger.Nop())
	var seen error
	d.Subscribe("ctx", func(ctx context.Context, _ dto.ContributionApproved) error {
		seen = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.PublishApproved(ctx, dto.ContributionApproved{}))
	assert.NoError(t, seen)
}

func TestQueuedApprovalPublisher_FallsBackInline(t *testing.T) {
	d := NewApprovalDispatcher(logger.Nop())
	var got collector
	d.Subscribe("collector", got.handle)

	p := NewQueuedApprovalPublisher(logger.Nop(), brokenQueue{}, d)
	require.NoError(t, p.PublishApproved(context.Background(), dto.ContributionApproved{ContributionID: "c1"}))
	assert.Equal(t, 1, got.len())
}

func TestApprovalWorker_DeliversQueuedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	queue := approvals.NewStorage(client)

	d := NewApprovalDispatcher(logger.Nop())
	var got collector
	d.Subscribe("collector", got.handle)

	p := NewQueuedApprovalPublisher(logger.Nop(), queue, d)
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, p.PublishApproved(context.Background(), dto.ContributionApproved{ContributionID: id}))
	}
	assert.Zero(t, got.len())

	ctx, cancel := context.WithCancel(context.Background())
	done := NewApprovalWorker(logger.Nop(), queue, d, 100*time.Millisecond).Start(ctx)

	assert.Eventually(t, func() bool { return got.len() == 3 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, "c1", got.events[0].ContributionID)
	assert.Equal(t, "c3", got.events[2].ContributionID)
}

func TestApprovalWorker_StopsWhenQueueFails(t *testing.T) {
	d := NewApprovalDispatcher(logger.Nop())
	w := NewApprovalWorker(logger.Nop(), brokenQueue{}, d, time.Millisecond)
	w.retryDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	select {
	case <-w.Start(ctx):
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
