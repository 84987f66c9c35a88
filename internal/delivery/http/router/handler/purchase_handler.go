// Package handler contains the HTTP handlers for the ingestion API.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	deliverycontext "salesbridge/internal/delivery/context"
	"salesbridge/internal/delivery/http/response"
	domainerrors "salesbridge/internal/domain/errors"
	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/domain/repository"
	"salesbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// SubmitPurchaseRequest is the JSON body accepted by POST /purchases. The
// field names match the queue message schema so clients and batch files
// speak the same dialect.
type SubmitPurchaseRequest struct {
	Customer struct {
		Name    string `json:"nome" validate:"required"`
		Email   string `json:"email" validate:"omitempty,email"`
		Phone   string `json:"telefone"`
		TaxID   string `json:"cpf_cnpj"`
		Address string `json:"endereco_completo"`
	} `json:"cliente"`
	Product struct {
		Name string `json:"nome_produto" validate:"required"`
	} `json:"produto"`
	Quantity      int    `json:"quantidade" validate:"required,gt=0"`
	UnitPrice     string `json:"valor_unitario" validate:"required"`
	TotalPrice    string `json:"valor_total"`
	OccurredAt    string `json:"data_hora"`
	PaymentMethod string `json:"forma_pagamento"`
}

// PurchaseHandler holds dependencies for purchase submission handlers.
type PurchaseHandler struct {
	ingestSvc usecase.IngestUsecase
	logger    *slog.Logger
}

// NewPurchaseHandler is the constructor for PurchaseHandler, injected by Fx.
func NewPurchaseHandler(ingestSvc usecase.IngestUsecase, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		ingestSvc: ingestSvc,
		logger:    logger,
	}
}

// SubmitPurchase accepts one purchase record, stages it, and publishes it
// onto the queue. The response is 202: the record is accepted for delivery,
// not yet persisted in the final store.
func (h *PurchaseHandler) SubmitPurchase(c echo.Context) error {
	var input SubmitPurchaseRequest
	if err := c.Bind(&input); err != nil {
		return response.BadRequest(c, "INVALID_BODY", "Invalid purchase submission")
	}
	if err := c.Validate(&input); err != nil {
		return response.BadRequest(c, "INVALID_BODY", err.Error())
	}

	raw, err := h.toRawMapping(&input)
	if err != nil {
		return response.BadRequest(c, "INVALID_PRICE", err.Error())
	}

	ctx := c.Request().Context()
	result, err := h.ingestSvc.IngestRaw(ctx, raw, repository.StagingSourceAPI, c.Path())
	if err != nil {
		if domainerrors.IsValidation(err) {
			return response.UnprocessableEntity(c, "INVALID_RECORD", "Purchase record failed validation", err.Error())
		}

		deliverycontext.Logger(ctx, h.logger).Error("Failed to ingest purchase", slog.Any("error", err))

		return response.ServiceUnavailable(c, "INGEST_UNAVAILABLE", "Unable to accept the purchase right now")
	}

	return response.Success(c, http.StatusAccepted, result, "Purchase accepted")
}

// toRawMapping converts the request into the raw mapping consumed by the
// normalizer. A missing total is derived as quantity times unit price; a
// supplied total is passed through untouched. A missing data_hora takes the
// submission time, so re-submitting such a record produces a new key.
func (h *PurchaseHandler) toRawMapping(input *SubmitPurchaseRequest) (map[string]any, error) {
	total := input.TotalPrice
	if total == "" {
		unit, err := decimal.NewFromString(input.UnitPrice)
		if err != nil {
			return nil, err
		}
		total = unit.Mul(decimal.NewFromInt(int64(input.Quantity))).StringFixed(2)
	}

	var occurredAt any = input.OccurredAt
	if input.OccurredAt == "" {
		occurredAt = time.Now()
	}

	return map[string]any{
		purchase.KeyCustomer: map[string]any{
			purchase.KeyCustomerName:    input.Customer.Name,
			purchase.KeyCustomerEmail:   input.Customer.Email,
			purchase.KeyCustomerPhone:   input.Customer.Phone,
			purchase.KeyCustomerTaxID:   input.Customer.TaxID,
			purchase.KeyCustomerAddress: input.Customer.Address,
		},
		purchase.KeyProduct: map[string]any{
			purchase.KeyProductName: input.Product.Name,
		},
		purchase.KeyQuantity:      input.Quantity,
		purchase.KeyUnitPrice:     input.UnitPrice,
		purchase.KeyTotalPrice:    total,
		purchase.KeyOccurredAt:    occurredAt,
		purchase.KeyPaymentMethod: input.PaymentMethod,
	}, nil
}

// HealthCheck reports process liveness.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
