package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"salesbridge/config"
	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/domain/repository"
	"salesbridge/internal/domain/service"
	"salesbridge/internal/usecase"
)

type ingestService struct {
	staging    repository.StagingRepository
	publisher  service.PurchasePublisher
	defaultLoc *time.Location
	logger     *slog.Logger
}

// NewIngestService creates a new ingestion service instance.
func NewIngestService(
	cfg *config.Config,
	staging repository.StagingRepository,
	publisher service.PurchasePublisher,
	logger *slog.Logger,
) (usecase.IngestUsecase, error) {
	loc, err := cfg.Ingest.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default timezone: %w", err)
	}

	return &ingestService{
		staging:    staging,
		publisher:  publisher,
		defaultLoc: loc,
		logger:     logger,
	}, nil
}

// IngestRaw normalizes a raw mapping and then stages and publishes it.
func (s *ingestService) IngestRaw(ctx context.Context, raw map[string]any, source, sourceName string) (*usecase.IngestResult, error) {
	dto, err := purchase.Normalize(raw, s.defaultLoc)
	if err != nil {
		return nil, err
	}

	return s.IngestPurchase(ctx, dto, source, sourceName)
}

// IngestPurchase fingerprints the record, stages a durable copy, and
// publishes it onto the queue. Staging happens before publish so a crash
// between the two leaves a durable record an operator can replay; repeats of
// the same key are republished and absorbed on the persistence side.
func (s *ingestService) IngestPurchase(ctx context.Context, dto *purchase.DTO, source, sourceName string) (*usecase.IngestResult, error) {
	key := purchase.WithFingerprint(dto)

	payload, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode purchase payload: %w", err)
	}

	count, err := s.staging.CountByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check staged purchases: %w", err)
	}
	duplicate := count > 0

	if err := s.staging.Stage(ctx, &repository.StagedPurchase{
		IdempotencyKey: key,
		Payload:        payload,
		Source:         source,
		SourceName:     sourceName,
	}); err != nil {
		return nil, fmt.Errorf("failed to stage purchase: %w", err)
	}

	published, err := s.publisher.PublishPurchase(ctx, dto)
	if err != nil {
		return nil, fmt.Errorf("failed to publish purchase: %w", err)
	}

	s.logger.InfoContext(ctx, "purchase ingested",
		slog.String("idempotency_key", key),
		slog.String("message_id", published.MessageID),
		slog.String("source", source),
		slog.String("source_name", sourceName),
		slog.Bool("duplicate", duplicate),
	)

	return &usecase.IngestResult{
		IdempotencyKey: key,
		MessageID:      published.MessageID,
		Duplicate:      duplicate,
	}, nil
}
