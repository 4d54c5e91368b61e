package retrain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	applog "nutriplan/internal/log"
)

type counter struct {
	calls atomic.Int32
	done  chan struct{}
	err   error
}

func newCounter(err error) *counter {
	return &counter{done: make(chan struct{}, 16), err: err}
}

func (c *counter) job(name string) Job {
	return Job{Name: name, Run: func(context.Context) error {
		c.calls.Add(1)
		c.done <- struct{}{}
		return c.err
	}}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for retrain")
	}
}

func TestWorkerCoalescesBursts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := NewPubSub()
	defer pubsub.Close()

	collab := newCounter(nil)
	ingredients := newCounter(nil)
	var afterCalls atomic.Int32
	jobs := Jobs{
		TopicRatingsChanged: {collab.job("collaborative")},
		TopicMealsChanged:   {ingredients.job("ingredients")},
	}
	w := NewWorker(pubsub, jobs, 150*time.Millisecond, func(context.Context) { afterCalls.Add(1) })

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	<-w.Ready()

	pub := NewPublisher(pubsub)
	for i := range 5 {
		if err := pub.RatingsChanged(ctx, uint(i+1)); err != nil {
			t.Fatalf("RatingsChanged: %v", err)
		}
	}

	waitFor(t, collab.done)
	time.Sleep(300 * time.Millisecond)
	if got := collab.calls.Load(); got != 1 {
		t.Fatalf("collaborative retrained %d times, want 1", got)
	}
	if got := ingredients.calls.Load(); got != 0 {
		t.Fatalf("ingredients retrained %d times, want 0", got)
	}
	if got := afterCalls.Load(); got != 1 {
		t.Fatalf("after hook ran %d times, want 1", got)
	}

	if err := pub.MealsChanged(ctx, 9); err != nil {
		t.Fatalf("MealsChanged: %v", err)
	}
	waitFor(t, ingredients.done)

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPublisherPayload(t *testing.T) {
	t.Parallel()

	pubsub := NewPubSub()
	defer pubsub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := pubsub.Subscribe(ctx, TopicMealsChanged)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	pub := NewPublisher(pubsub)
	fixed := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	if err := pub.MealsChanged(applog.WithRequestID(ctx, "req-1"), 12); err != nil {
		t.Fatalf("MealsChanged: %v", err)
	}

	var msg *message.Message
	select {
	case msg = <-messages:
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
	}
	msg.Ack()

	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.MealID != 12 || !event.OccurredAt.Equal(fixed) {
		t.Fatalf("unexpected event %+v", event)
	}
	if got := msg.Metadata.Get("request_id"); got != "req-1" {
		t.Fatalf("request_id = %q", got)
	}
}

func TestInlineRunsJobsAndSwallowsErrors(t *testing.T) {
	t.Parallel()

	failing := newCounter(errors.New("no ratings"))
	ok := newCounter(nil)
	var mu sync.Mutex
	var afterCalls int
	inline := NewInline(Jobs{
		TopicRatingsChanged: {failing.job("collaborative")},
		TopicMealsChanged:   {ok.job("ingredients"), ok.job("ingredients")},
	}, func(context.Context) {
		mu.Lock()
		afterCalls++
		mu.Unlock()
	})

	ctx := context.Background()
	if err := inline.RatingsChanged(ctx, 1); err != nil {
		t.Fatalf("RatingsChanged: %v", err)
	}
	if err := inline.MealsChanged(ctx, 1); err != nil {
		t.Fatalf("MealsChanged: %v", err)
	}

	if failing.calls.Load() != 1 {
		t.Fatalf("failing job ran %d times", failing.calls.Load())
	}
	if ok.calls.Load() != 1 {
		t.Fatalf("duplicate job names should run once, ran %d times", ok.calls.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if afterCalls != 1 {
		t.Fatalf("after hook ran %d times, want 1", afterCalls)
	}
}
