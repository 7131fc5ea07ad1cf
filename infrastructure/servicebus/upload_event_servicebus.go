package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"youtube-uploader/domain/model"
	"youtube-uploader/domain/repository"
	"youtube-uploader/infrastructure/logger"
)

const eventTypeUploadFinished = "upload_finished"

// NewServiceBus connects with connectionString when given, otherwise to
// namespace using the default Azure credential chain.
func NewServiceBus(namespace, connectionString string) (*azservicebus.Client, error) {
	if connectionString != "" {
		client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create service bus client: %w", err)
		}
		return client, nil
	}
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace or connection string required")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	client, err := azservicebus.NewClient(namespace, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create service bus client: %w", err)
	}
	return client, nil
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

type UploadEventServiceBus struct {
	queue     string
	newSender func(queue string) (messageSender, error)
}

// NewUploadEventServiceBus sends upload-finished events to queue. A nil
// client disables sending.
func NewUploadEventServiceBus(client *azservicebus.Client, queue string) repository.IUploadEvent {
	s := &UploadEventServiceBus{queue: queue}
	if client != nil {
		s.newSender = func(queue string) (messageSender, error) {
			return client.NewSender(queue, nil)
		}
	}
	return s
}

func (s *UploadEventServiceBus) PublishUploadFinished(ctx context.Context, job *model.UploadJob) error {
	if s.newSender == nil || s.queue == "" {
		return nil
	}
	sender, err := s.newSender(s.queue)
	if err != nil {
		return fmt.Errorf("create sender for %s: %w", s.queue, err)
	}
	defer func() {
		if err := sender.Close(ctx); err != nil {
			logger.FromContext(ctx).WithField("error", err).Warn("Error while closing sender.")
		}
	}()

	body, err := json.Marshal(struct {
		Type string `json:"type"`
		*model.UploadJob
	}{Type: eventTypeUploadFinished, UploadJob: job})
	if err != nil {
		return fmt.Errorf("encode upload event: %w", err)
	}

	msg := &azservicebus.Message{
		Body:        body,
		ContentType: to.Ptr("application/json"),
		Subject:     to.Ptr(eventTypeUploadFinished),
		MessageID:   to.Ptr(job.ID),
		ApplicationProperties: map[string]any{
			"state":  string(job.State),
			"job_id": job.ID,
		},
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("send upload event: %w", err)
	}
	logger.FromContext(ctx).WithField("queue", s.queue).WithField("job_id", job.ID).Info("Upload event sent")
	return nil
}
