package handler

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"salesbridge/config"
	deliverycontext "salesbridge/internal/delivery/context"
	domainerrors "salesbridge/internal/domain/errors"
	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// PushHandler handles Pub/Sub push messages carrying purchase records.
//
// Acknowledgement contract: 2xx acknowledges the message; any other status
// nacks it and the broker redelivers per its retry policy. Validation
// failures are permanent, so they return 400 and let the subscription's
// dead-letter policy take the message out of rotation. Storage failures are
// transient and return 503 to force a retry.
type PushHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	persistSvc     usecase.PersistUsecase
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config     *config.Config
	Logger     *slog.Logger
	PersistSvc usecase.PersistUsecase
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	verifyPushAuth := params.Config.PubSub != nil && params.Config.PubSub.VerifyPushAuth

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		persistSvc:     params.PersistSvc,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token when push auth is enabled
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(c, &pushMsg)
	reqLogger := h.logger.With(slog.String("request_id", requestID))

	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing purchase message",
		slog.String("message_id", pushMsg.Message.MessageID),
		slog.String("attribute_key", pushMsg.Message.Attributes[purchase.KeyFingerprint]),
	)

	result, err := h.persistSvc.PersistMessage(ctx, data)
	if err != nil {
		reqLogger.Error("[Worker] Failed to persist purchase",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
			slog.Bool("retryable", !domainerrors.IsValidation(err)),
		)
		// Malformed payloads never heal on retry; reject them so the
		// subscription's dead-letter policy applies.
		if domainerrors.IsValidation(err) {
			return c.NoContent(http.StatusBadRequest)
		}

		return c.NoContent(http.StatusServiceUnavailable)
	}

	if result.Created {
		reqLogger.Info("[Worker] Purchase persisted",
			slog.String("idempotency_key", result.IdempotencyKey),
			slog.String("purchase_id", result.PurchaseID.String()),
		)
	} else {
		reqLogger.Info("[Worker] Duplicate purchase absorbed",
			slog.String("idempotency_key", result.IdempotencyKey),
		)
	}

	return c.NoContent(http.StatusOK)
}

// extractRequestID extracts request_id from message attributes, the request
// context, or generates a new one
func (h *PushHandler) extractRequestID(c echo.Context, pushMsg *PubSubMessage) string {
	// 1. Try message attributes (from Pub/Sub)
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	// 2. Try existing context (from RequestIDMiddleware via X-Request-Id header)
	if requestID := deliverycontext.GetRequestIDFromContext(c.Request().Context()); requestID != "" {
		return requestID
	}

	// 3. Generate new UUID as fallback
	return uuid.New().String()
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// The audience should be the URL of this endpoint
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	// The issuer should be accounts.google.com
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
