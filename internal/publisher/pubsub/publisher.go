// Package pubsub implements a Google Cloud Pub/Sub publisher for run summaries.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Config names the topic run summaries are published to.
type Config struct {
	ProjectID string
	TopicName string
}

// Publisher wraps a Pub/Sub client and a single topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New dials Pub/Sub and returns a Publisher for cfg.TopicName.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicName == "" {
		return nil, fmt.Errorf("pubsub project id and topic name are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{client: client, topic: client.Topic(cfg.TopicName)}, nil
}

// Publish marshals the payload to JSON and publishes it, blocking until the
// server acknowledges. eventType is carried as the "event_type" attribute.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	if p.topic == nil {
		return "", fmt.Errorf("pubsub topic is not configured")
	}

	msg := &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": eventType},
	}
	result := p.topic.Publish(ctx, msg)
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client == nil {
		return nil
	}
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
