// Package retrain reacts to catalogue and rating changes by retraining the
// recommendation models. Changes are published on a watermill pub/sub and a
// worker coalesces bursts into a single retrain per model.
package retrain

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	applog "nutriplan/internal/log"
)

const (
	TopicRatingsChanged = "ratings.changed"
	TopicMealsChanged   = "meals.changed"

	outputBuffer = 64
)

// Event is the payload of every change message.
type Event struct {
	MealID     uint      `json:"meal_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier is told about writes that affect trained models. Implementations
// never fail the caller's write because of a retrain problem.
type Notifier interface {
	RatingsChanged(ctx context.Context, mealID uint) error
	MealsChanged(ctx context.Context, mealID uint) error
}

// Job is a named retrain step.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Jobs maps topics to the jobs they trigger.
type Jobs map[string][]Job

// run executes every distinct job registered for topics, then calls after
// once if any job succeeded.
func (j Jobs) run(ctx context.Context, topics map[string]struct{}, after func(context.Context)) {
	seen := make(map[string]struct{})
	succeeded := false
	for _, topic := range []string{TopicRatingsChanged, TopicMealsChanged} {
		if _, ok := topics[topic]; !ok {
			continue
		}
		for _, job := range j[topic] {
			if _, dup := seen[job.Name]; dup {
				continue
			}
			seen[job.Name] = struct{}{}

			start := time.Now()
			if err := job.Run(ctx); err != nil {
				applog.Warn(ctx, "retrain failed", "job", job.Name, "topic", topic, "err", err)
				continue
			}
			succeeded = true
			applog.Info(ctx, "retrain finished", "job", job.Name, "topic", topic, "duration", time.Since(start))
		}
	}
	if succeeded && after != nil {
		after(ctx)
	}
}

// NewPubSub returns an in-process pub/sub logging through the application
// logger.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: outputBuffer},
		watermill.NewSlogLogger(applog.Logger()),
	)
}

// Publisher announces changes on a watermill publisher.
type Publisher struct {
	pub message.Publisher
	now func() time.Time
}

// NewPublisher wraps pub.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub, now: time.Now}
}

// RatingsChanged announces that a rating for mealID was written or removed.
func (p *Publisher) RatingsChanged(ctx context.Context, mealID uint) error {
	return p.publish(ctx, TopicRatingsChanged, mealID)
}

// MealsChanged announces that mealID was added to or changed in the catalogue.
func (p *Publisher) MealsChanged(ctx context.Context, mealID uint) error {
	return p.publish(ctx, TopicMealsChanged, mealID)
}

func (p *Publisher) publish(ctx context.Context, topic string, mealID uint) error {
	payload, err := json.Marshal(Event{MealID: mealID, OccurredAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := applog.RequestID(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	applog.Debug(ctx, "change published", "topic", topic, "meal_id", mealID, "message_id", msg.UUID)
	return nil
}

// Inline runs the jobs synchronously on the caller's goroutine.
type Inline struct {
	jobs  Jobs
	after func(context.Context)
}

// NewInline returns a notifier that retrains before returning. after runs
// once a retrain succeeds and may be nil.
func NewInline(jobs Jobs, after func(context.Context)) *Inline {
	return &Inline{jobs: jobs, after: after}
}

func (n *Inline) RatingsChanged(ctx context.Context, _ uint) error {
	n.jobs.run(ctx, map[string]struct{}{TopicRatingsChanged: {}}, n.after)
	return nil
}

func (n *Inline) MealsChanged(ctx context.Context, _ uint) error {
	n.jobs.run(ctx, map[string]struct{}{TopicMealsChanged: {}}, n.after)
	return nil
}
