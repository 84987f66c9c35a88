package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/domain/service"

	"github.com/pkg/errors"
)

// localHTTPPublisher implements PurchasePublisher by sending HTTP POST
// requests to a local endpoint, simulating Pub/Sub push behavior for
// development
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// PubSubPushMessage represents the structure of a Pub/Sub push message
// This mimics the format Google Pub/Sub uses when pushing to HTTP endpoints
type PubSubPushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewLocalHTTPPublisher creates a new local HTTP publisher for development
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.PurchasePublisher {
	return &localHTTPPublisher{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// PublishPurchase publishes a purchase by sending HTTP POST to the local endpoint
func (p *localHTTPPublisher) PublishPurchase(ctx context.Context, dto *purchase.DTO) (*service.PublishResult, error) {
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Create a Pub/Sub push message structure. The fingerprint doubles as the
	// message ID so local redeliveries look like broker redeliveries.
	pushMsg := PubSubPushMessage{
		Subscription: "projects/local/subscriptions/processed-data-sub",
	}
	pushMsg.Message.Data = base64.StdEncoding.EncodeToString(data)
	pushMsg.Message.MessageID = dto.IdempotencyKey
	pushMsg.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)
	pushMsg.Message.Attributes = map[string]string{
		purchase.KeyFingerprint: dto.IdempotencyKey,
	}

	body, err := json.Marshal(pushMsg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	p.logger.Info("[LocalPubSub] Publishing purchase",
		slog.String("endpoint", p.endpoint),
		slog.String("idempotency_key", dto.IdempotencyKey),
	)

	// Send HTTP POST request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("worker returned non-success status: %d", resp.StatusCode)
	}

	p.logger.Info("[LocalPubSub] Purchase published successfully",
		slog.String("idempotency_key", dto.IdempotencyKey),
	)

	return &service.PublishResult{MessageID: dto.IdempotencyKey}, nil
}

// Close releases resources (no-op for HTTP client)
func (p *localHTTPPublisher) Close() error {
	return nil
}
