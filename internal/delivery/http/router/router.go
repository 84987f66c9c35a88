// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"salesbridge/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	PurchaseHandler *handler.PurchaseHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	purchaseHandler *handler.PurchaseHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		purchaseHandler: params.PurchaseHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Purchase submission
	e.POST("/purchases", r.purchaseHandler.SubmitPurchase)
}
