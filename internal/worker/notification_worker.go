package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/service"
)

// ErrQueueFull is returned by Enqueue when the worker cannot keep up.
var ErrQueueFull = errors.New("notification queue full")

const (
	defaultQueueSize    = 256
	deliveryTimeout     = 3 * time.Second
	shutdownDrainWindow = 2 * time.Second
)

// Sink delivers one event.
type Sink func(context.Context, events.Event) error

// NotificationWorker moves notification delivery off the request path.
// Events are buffered and handed to the sink by a single goroutine.
type NotificationWorker struct {
	queue  chan events.Event
	sink   Sink
	logger *zap.Logger
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(sink Sink, size int, logger *zap.Logger) *NotificationWorker {
	if size <= 0 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		queue:  make(chan events.Event, size),
		sink:   sink,
		logger: logger,
	}
}

// StartNotificationWorker subscribes a worker to every event and starts it.
// The caller stops it with Stop during shutdown.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if notificationService == nil {
		return nil
	}
	w := NewNotificationWorker(notificationService.Deliver, defaultQueueSize, logger)
	notificationService.RegisterHandlers(w.Enqueue)
	w.Start(ctx)
	return w
}

// Enqueue never blocks; it drops the event when the queue is full.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery loop.
func (w *NotificationWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done.Add(1)
	go func() {
		defer w.done.Done()
		w.run(ctx)
	}()
}

// Stop ends the loop after a short drain of whatever is still queued.
func (w *NotificationWorker) Stop() {
	if w == nil || w.cancel == nil {
		return
	}
	w.cancel()
	w.done.Wait()
}

func (w *NotificationWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case event := <-w.queue:
			w.deliver(context.Background(), event)
		}
	}
}

func (w *NotificationWorker) drain() {
	deadline := time.Now().Add(shutdownDrainWindow)
	for time.Now().Before(deadline) {
		select {
		case event := <-w.queue:
			w.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(parent context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(parent, deliveryTimeout)
	defer cancel()
	if err := w.sink(ctx, event); err != nil {
		w.logger.Warn("deliver notification",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
