package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salesbridge/internal/delivery/http/validator"
	domainerrors "salesbridge/internal/domain/errors"
	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngest struct {
	lastRaw    map[string]any
	lastSource string
	err        error
}

func (f *fakeIngest) IngestRaw(_ context.Context, raw map[string]any, source, _ string) (*usecase.IngestResult, error) {
	f.lastRaw = raw
	f.lastSource = source
	if f.err != nil {
		return nil, f.err
	}

	return &usecase.IngestResult{IdempotencyKey: strings.Repeat("a", 64), MessageID: "m-1"}, nil
}

func (f *fakeIngest) IngestPurchase(_ context.Context, _ *purchase.DTO, _, _ string) (*usecase.IngestResult, error) {
	return nil, errors.New("not used")
}

func submit(t *testing.T, svc usecase.IngestUsecase, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = validator.New()

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/purchases")

	h := NewPurchaseHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, h.SubmitPurchase(c))

	return rec
}

const validBody = `{
	"cliente": {"nome": "Ana Souza", "email": "ana@example.com", "cpf_cnpj": "12345678909"},
	"produto": {"nome_produto": "Teclado"},
	"quantidade": 2,
	"valor_unitario": "150.00",
	"data_hora": "2026-08-01T10:30:00Z",
	"forma_pagamento": "PIX"
}`

func TestSubmitPurchase_Accepted(t *testing.T) {
	svc := &fakeIngest{}

	rec := submit(t, svc, validBody)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "api", svc.lastSource)
	assert.Contains(t, rec.Body.String(), strings.Repeat("a", 64))
}

func TestSubmitPurchase_DerivesMissingTotal(t *testing.T) {
	svc := &fakeIngest{}

	submit(t, svc, validBody)
	require.NotNil(t, svc.lastRaw)
	assert.Equal(t, "300.00", svc.lastRaw[purchase.KeyTotalPrice])
}

func TestSubmitPurchase_SuppliedTotalWins(t *testing.T) {
	svc := &fakeIngest{}
	body := strings.Replace(validBody, `"valor_unitario": "150.00",`,
		`"valor_unitario": "150.00", "valor_total": "290.00",`, 1)

	submit(t, svc, body)
	assert.Equal(t, "290.00", svc.lastRaw[purchase.KeyTotalPrice])
}

func TestSubmitPurchase_MissingTimestampDefaultsToSubmissionTime(t *testing.T) {
	svc := &fakeIngest{}
	body := strings.Replace(validBody, `"data_hora": "2026-08-01T10:30:00Z",`, "", 1)

	before := time.Now()
	rec := submit(t, svc, body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.NotNil(t, svc.lastRaw)
	occurredAt, ok := svc.lastRaw[purchase.KeyOccurredAt].(time.Time)
	require.True(t, ok, "missing data_hora is filled with a timestamp")
	assert.False(t, occurredAt.Before(before))
	assert.False(t, occurredAt.After(time.Now()))
}

func TestSubmitPurchase_RejectsMissingFields(t *testing.T) {
	svc := &fakeIngest{}

	rec := submit(t, svc, `{"cliente": {"nome": "Ana"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.lastRaw)
}

func TestSubmitPurchase_RejectsBadEmail(t *testing.T) {
	svc := &fakeIngest{}
	body := strings.Replace(validBody, "ana@example.com", "not-an-email", 1)

	rec := submit(t, svc, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitPurchase_ValidationFailureIs422(t *testing.T) {
	svc := &fakeIngest{err: domainerrors.ErrMissingIdentity}

	rec := submit(t, svc, validBody)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitPurchase_IngestOutageIs503(t *testing.T) {
	svc := &fakeIngest{err: errors.New("broker unavailable")}

	rec := submit(t, svc, validBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
