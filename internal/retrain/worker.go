package retrain

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	applog "nutriplan/internal/log"
)

// DefaultDebounce is how long the worker waits for a burst to settle.
const DefaultDebounce = 2 * time.Second

// Worker consumes change messages and runs the registered jobs once the
// stream has been quiet for the debounce window.
type Worker struct {
	sub      message.Subscriber
	jobs     Jobs
	debounce time.Duration
	after    func(context.Context)
	ready    chan struct{}
}

// NewWorker returns a worker reading from sub. after runs once per batch in
// which a job succeeded and may be nil.
func NewWorker(sub message.Subscriber, jobs Jobs, debounce time.Duration, after func(context.Context)) *Worker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Worker{
		sub:      sub,
		jobs:     jobs,
		debounce: debounce,
		after:    after,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the worker has subscribed to every topic.
func (w *Worker) Ready() <-chan struct{} {
	return w.ready
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	topics := make(chan string)
	for topic := range w.jobs {
		messages, err := w.sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		go forward(ctx, topic, messages, topics)
	}
	close(w.ready)
	applog.Info(ctx, "retrain worker started", "debounce", w.debounce)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			applog.Info(ctx, "retrain worker stopped")
			return nil
		case topic := <-topics:
			pending[topic] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			batch := pending
			pending = make(map[string]struct{})
			w.jobs.run(ctx, batch, w.after)
		}
	}
}

func forward(ctx context.Context, topic string, messages <-chan *message.Message, out chan<- string) {
	for msg := range messages {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			applog.Warn(ctx, "dropping malformed change event", "topic", topic, "message_id", msg.UUID, "err", err)
			msg.Ack()
			continue
		}
		msg.Ack()
		select {
		case out <- topic:
		case <-ctx.Done():
			return
		}
	}
}
