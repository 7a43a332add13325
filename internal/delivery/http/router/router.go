// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"dailypush/internal/delivery/http/middleware"
	"dailypush/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ScheduleHandler *handler.ScheduleHandler
	ClaimsHandler   *handler.ClaimsHandler
	ReadHandler     *handler.ReadHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	scheduleHandler *handler.ScheduleHandler
	claimsHandler   *handler.ClaimsHandler
	readHandler     *handler.ReadHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		scheduleHandler: params.ScheduleHandler,
		claimsHandler:   params.ClaimsHandler,
		readHandler:     params.ReadHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Public routes used by clients
	publicGroup := e.Group("/v1")
	{
		publicGroup.POST("/reads", r.readHandler.MarkRead)
	}

	// Admin routes that require a bearer token. Timezone path params are
	// URL-encoded IANA identifiers, e.g. America%2FNew_York.
	adminGroup := e.Group("/admin")
	adminGroup.Use(r.authMiddleware.Authenticate)
	{
		adminGroup.GET("/timezones", r.scheduleHandler.ListSchedules)
		adminGroup.GET("/timezones/:zone/status", r.scheduleHandler.GetStatus)
		adminGroup.POST("/timezones/:zone/trigger", r.scheduleHandler.Trigger)
		adminGroup.POST("/timezones/:zone/pause", r.scheduleHandler.Pause)
		adminGroup.POST("/timezones/:zone/resume", r.scheduleHandler.Resume)
		adminGroup.POST("/timezones/:zone/reinitialize", r.scheduleHandler.Reinitialize)

		adminGroup.GET("/devices/:id/claims", r.claimsHandler.GetClaims)
	}
}
