// Package pubsub publishes job alerts to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Config identifies the target topic.
type Config struct {
	ProjectID string
	TopicID   string
}

// Notifier publishes one JSON message per posting.
type Notifier struct {
	client *gcppubsub.Client
	topic  *gcppubsub.Topic
	logger *zap.Logger
}

// New connects to Pub/Sub and verifies the topic exists.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Notifier, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("pubsub: project id and topic id are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := gcppubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub: connect: %w", err)
	}
	topic := client.Topic(cfg.TopicID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pubsub: check topic: %w", err)
	}
	if !ok {
		client.Close()
		return nil, pipeline.Permanent(fmt.Errorf("pubsub: topic %q does not exist", cfg.TopicID))
	}
	return &Notifier{client: client, topic: topic, logger: logger}, nil
}

var _ pipeline.Notifier = (*Notifier)(nil)

// Notify publishes the posting and blocks until the server acks it.
func (n *Notifier) Notify(ctx context.Context, p pipeline.JobPosting) error {
	msg, err := buildMessage(p)
	if err != nil {
		return &pipeline.NotifyError{PostingID: p.ID, Err: pipeline.Permanent(err)}
	}
	if _, err := n.topic.Publish(ctx, msg).Get(ctx); err != nil {
		pipeline.NotificationsFailed.Inc()
		return &pipeline.NotifyError{PostingID: p.ID, Err: err}
	}
	pipeline.NotificationsSent.Inc()
	n.logger.Debug("posting published",
		zap.String("posting_id", p.ID),
		zap.String("topic", n.topic.ID()),
	)
	return nil
}

// Close flushes pending publishes and releases the client.
func (n *Notifier) Close() error {
	n.topic.Stop()
	return n.client.Close()
}

func buildMessage(p pipeline.JobPosting) (*gcppubsub.Message, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal posting: %w", err)
	}
	return &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"source":     p.Source,
			"posting_id": p.ID,
		},
	}, nil
}
