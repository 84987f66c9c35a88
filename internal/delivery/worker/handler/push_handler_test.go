package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"salesbridge/config"
	"salesbridge/internal/infra/persistence/postgres"
	"salesbridge/internal/usecase/impl"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPushHandler(t *testing.T) *PushHandler {
	t.Helper()
	dsn := fmt.Sprintf("file:pushhandler_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, postgres.MigratePersistence(db))

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistSvc, err := impl.NewPersistService(&config.Config{}, postgres.NewTransactionManager(db), discard)
	require.NoError(t, err)

	return NewPushHandler(PushHandlerParams{
		Config:     &config.Config{},
		Logger:     discard,
		PersistSvc: persistSvc,
	})
}

func purchasePayload() []byte {
	payload, _ := json.Marshal(map[string]any{
		"cliente": map[string]any{
			"nome":     "Ana Souza",
			"email":    "ana@example.com",
			"cpf_cnpj": "12345678909",
		},
		"produto":         map[string]any{"nome_produto": "Teclado"},
		"quantidade":      2,
		"valor_unitario":  "150.00",
		"valor_total":     "300.00",
		"data_hora":       "2026-08-01T10:30:00Z",
		"forma_pagamento": "PIX",
	})

	return payload
}

func pushEnvelope(t *testing.T, data string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"message": map[string]any{
			"data":        data,
			"messageId":   "42",
			"publishTime": "2026-08-01T10:31:00Z",
		},
		"subscription": "projects/local/subscriptions/processed-data-sub",
	})
	require.NoError(t, err)

	return body
}

func doPush(t *testing.T, h *PushHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.HandlePush(e.NewContext(req, rec)))

	return rec
}

func TestPushHandler_AcksValidMessage(t *testing.T) {
	h := newPushHandler(t)
	data := base64.StdEncoding.EncodeToString(purchasePayload())

	rec := doPush(t, h, pushEnvelope(t, data))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_AcksDuplicateDelivery(t *testing.T) {
	h := newPushHandler(t)
	data := base64.StdEncoding.EncodeToString(purchasePayload())

	first := doPush(t, h, pushEnvelope(t, data))
	require.Equal(t, http.StatusOK, first.Code)

	// Redelivery of the same message must ack, not error.
	second := doPush(t, h, pushEnvelope(t, data))
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestPushHandler_RejectsMalformedPayload(t *testing.T) {
	h := newPushHandler(t)
	data := base64.StdEncoding.EncodeToString([]byte(`{"cliente": {}}`))

	rec := doPush(t, h, pushEnvelope(t, data))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushHandler_RejectsBadBase64(t *testing.T) {
	h := newPushHandler(t)

	rec := doPush(t, h, pushEnvelope(t, "%%%not-base64%%%"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushHandler_RejectsBrokenEnvelope(t *testing.T) {
	h := newPushHandler(t)

	rec := doPush(t, h, []byte("{broken"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
