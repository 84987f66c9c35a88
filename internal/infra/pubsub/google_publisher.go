package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// googlePubSubPublisher implements PurchasePublisher using Google Cloud Pub/Sub
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewGooglePubSubPublisher creates a new Google Pub/Sub publisher
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.PurchasePublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Check if topic exists using TopicAdminClient
	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err = client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
		Topic: topicPath,
	})
	if err != nil {
		client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	publisher := client.Publisher(topicID)

	logger.Info("Google Pub/Sub publisher initialized",
		slog.String("project_id", projectID),
		slog.String("topic_id", topicID),
	)

	return &googlePubSubPublisher{
		client:    client,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// PublishPurchase publishes a canonical purchase record to Google Pub/Sub.
// The fingerprint rides both inside the payload and as a message attribute;
// the payload copy is authoritative, the attribute is for console filtering.
func (p *googlePubSubPublisher) PublishPurchase(ctx context.Context, dto *purchase.DTO) (*service.PublishResult, error) {
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			purchase.KeyFingerprint: dto.IdempotencyKey,
		},
	}

	p.logger.Info("[GooglePubSub] Publishing purchase",
		slog.String("idempotency_key", dto.IdempotencyKey),
	)

	// Publish message
	result := p.publisher.Publish(ctx, msg)

	// Wait for publish result
	serverID, err := result.Get(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	p.logger.Info("[GooglePubSub] Purchase published successfully",
		slog.String("idempotency_key", dto.IdempotencyKey),
		slog.String("server_id", serverID),
	)

	return &service.PublishResult{MessageID: serverID}, nil
}

// Close releases Pub/Sub client resources
func (p *googlePubSubPublisher) Close() error {
	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.client != nil {
		return errors.WithStack(p.client.Close())
	}

	return nil
}
