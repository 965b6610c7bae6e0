package service

import (
	"context"
	"sync"
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

// ApprovalHandler consumes a ContributionApproved event.
type ApprovalHandler func(ctx context.Context, event dto.ContributionApproved) error

type approvalSubscriber struct {
	name    string
	handler ApprovalHandler
}

// ApprovalDispatcher fans approval events out to in-process subscribers.
// Subscriber failures are logged and never reach the publisher.
type ApprovalDispatcher struct {
	mu          sync.RWMutex
	subscribers []approvalSubscriber

	logger *types.Logger
}

func NewApprovalDispatcher(logger *types.Logger) *ApprovalDispatcher {
	return &ApprovalDispatcher{
		logger: logger,
	}
}

func (d *ApprovalDispatcher) Subscribe(name string, handler ApprovalHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, approvalSubscriber{name: name, handler: handler})
}

// PublishApproved dispatches inline. The request context is detached so a
// client hanging up does not abort badge evaluation halfway.
func (d *ApprovalDispatcher) PublishApproved(ctx context.Context, event dto.ContributionApproved) error {
	d.Dispatch(context.WithoutCancel(ctx), event)
	return nil
}

func (d *ApprovalDispatcher) Dispatch(ctx context.Context, event dto.ContributionApproved) {
	d.mu.RLock()
	subscribers := make([]approvalSubscriber, len(d.subscribers))
	copy(subscribers, d.subscribers)
	d.mu.RUnlock()

	for _, sub := range subscribers {
		d.call(ctx, sub, event)
	}
}

func (d *ApprovalDispatcher) call(ctx context.Context, sub approvalSubscriber, event dto.ContributionApproved) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("approval subscriber %s panicked (contribution_id=%s): %v", sub.name, event.ContributionID, r)
		}
	}()
	if err := sub.handler(ctx, event); err != nil {
		d.logger.Errorf("approval subscriber %s failed (contribution_id=%s): %v", sub.name, event.ContributionID, err)
	}
}

type approvalQueue interface {
	Push(ctx context.Context, event dto.ContributionApproved) error
	Pop(ctx context.Context, timeout time.Duration) (*dto.ContributionApproved, error)
}

// QueuedApprovalPublisher defers approval handling to an ApprovalWorker via a
// queue. When the queue is unreachable the event is dispatched inline.
type QueuedApprovalPublisher struct {
	queue      approvalQueue
	dispatcher *ApprovalDispatcher

	logger *types.Logger
}

func NewQueuedApprovalPublisher(logger *types.Logger, queue approvalQueue, dispatcher *ApprovalDispatcher) *QueuedApprovalPublisher {
	return &QueuedApprovalPublisher{
		queue:      queue,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (p *QueuedApprovalPublisher) PublishApproved(ctx context.Context, event dto.ContributionApproved) error {
	if err := p.queue.Push(ctx, event); err != nil {
		p.logger.Warnf("failed to queue approval, dispatching inline (contribution_id=%s): %v", event.ContributionID, err)
		return p.dispatcher.PublishApproved(ctx, event)
	}
	return nil
}

// ApprovalWorker drains the approval queue into the dispatcher.
type ApprovalWorker struct {
	queue       approvalQueue
	dispatcher  *ApprovalDispatcher
	pollTimeout time.Duration
	retryDelay  time.Duration

	logger *types.Logger
}

func NewApprovalWorker(logger *types.Logger, queue approvalQueue, dispatcher *ApprovalDispatcher, pollTimeout time.Duration) *ApprovalWorker {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &ApprovalWorker{
		queue:       queue,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeout,
		retryDelay:  time.Second,
		logger:      logger,
	}
}

// Start runs the worker in a goroutine until ctx is cancelled. The returned
// channel is closed once the worker has stopped.
func (w *ApprovalWorker) Start(ctx context.Context) <-chan struct{} {
	w.logger.Info("Starting approval worker")
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}

func (w *ApprovalWorker) Run(ctx context.Context) {
	for ctx.Err() == nil {
		event, err := w.queue.Pop(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Errorf("failed to pop approval event: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if event == nil {
			continue
		}

		w.logger.Debugf("handling queued approval (contribution_id=%s)", event.ContributionID)
		w.dispatcher.Dispatch(context.WithoutCancel(ctx), *event)
	}
	w.logger.Info("Approval worker stopped")
}
