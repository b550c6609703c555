package events

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/logger"
)

// Publisher notifies the outside world about newly scheduled community
// events. Publishing is best effort; the snapshot is the source of truth and
// has already been persisted by the time a publisher runs.
type Publisher interface {
	PublishEvent(ctx context.Context, event state.Event)
}

// NoopPublisher drops events. Used when Pub/Sub is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, state.Event) {}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// PubSubPublisher pushes events onto a Pub/Sub topic.
type PubSubPublisher struct {
	publisher topicPublisher
	logg      *logger.Logger
}

func NewPubSubPublisher(publisher *gcppubsub.Publisher, logg *logger.Logger) (*PubSubPublisher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubPublisher{publisher: publisher, logg: logg}, nil
}

func (p *PubSubPublisher) PublishEvent(ctx context.Context, event state.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logg.Error(ctx, "marshaling event for publish", err)
		return
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":   event.ID,
			"event_type": event.Type.String(),
			"source":     event.Source,
		},
	}

	result := p.publisher.Publish(ctx, msg)
	if _, err := result.Get(ctx); err != nil {
		p.logg.Error(ctx, "publishing community event", err)
		return
	}
	p.logg.Info(p.logg.WithField(ctx, "event_id", event.ID), "community event published")
}
