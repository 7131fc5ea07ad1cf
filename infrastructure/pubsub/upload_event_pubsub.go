package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"

	"youtube-uploader/domain/model"
	"youtube-uploader/domain/repository"
	"youtube-uploader/infrastructure/logger"
)

// UploadFinishedEvent is the message body published for every finished job.
type UploadFinishedEvent struct {
	Type string `json:"type"`
	*model.UploadJob
}

const eventTypeUploadFinished = "upload_finished"

// NewPubSub creates a client for projectID.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return client, nil
}

type UploadEventPubSub struct {
	PubSubClient *pubsub.Client
	TopicName    string

	mu    sync.Mutex
	topic *pubsub.Topic
}

// NewUploadEventPubSub publishes to topicName. A nil client disables publishing.
func NewUploadEventPubSub(pubSubClient *pubsub.Client, topicName string) repository.IUploadEvent {
	return &UploadEventPubSub{
		PubSubClient: pubSubClient,
		TopicName:    topicName,
	}
}

func (p *UploadEventPubSub) PublishUploadFinished(ctx context.Context, job *model.UploadJob) error {
	if p.PubSubClient == nil || p.TopicName == "" {
		return nil
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(UploadFinishedEvent{Type: eventTypeUploadFinished, UploadJob: job})
	if err != nil {
		return fmt.Errorf("encode upload event: %w", err)
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":   eventTypeUploadFinished,
			"state":  string(job.State),
			"job_id": job.ID,
		},
	}

	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish upload event: %w", err)
	}

	logger.FromContext(ctx).WithField("server ID", serverID).WithField("job_id", job.ID).Info("Upload event published")
	return nil
}

// ensureTopic resolves the topic, creating it if it doesn't exist. Only a
// successful lookup is cached; a failed one is retried on the next publish.
func (p *UploadEventPubSub) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}

	topic := p.PubSubClient.Topic(p.TopicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", p.TopicName, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.TopicName).Info("Topic doesn't exist - creating it")
		topic, err = p.PubSubClient.CreateTopic(ctx, p.TopicName)
		if err != nil {
			return nil, fmt.Errorf("create topic %s: %w", p.TopicName, err)
		}
	}
	p.topic = topic
	return topic, nil
}

// Close flushes pending messages.
func (p *UploadEventPubSub) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
