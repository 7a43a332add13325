package handler

import (
	"log/slog"
	"net/http"
	"time"

	"dailypush/internal/delivery/http/response"
	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ClaimsHandlerParams holds dependencies for ClaimsHandler, injected by Fx.
type ClaimsHandlerParams struct {
	fx.In

	Dedupe service.DeduplicationStore
	Logger *slog.Logger
}

// ClaimsHandler exposes the read-only claim diagnostics.
type ClaimsHandler struct {
	dedupe service.DeduplicationStore
	logger *slog.Logger
}

// NewClaimsHandler is the constructor for ClaimsHandler
func NewClaimsHandler(params ClaimsHandlerParams) *ClaimsHandler {
	return &ClaimsHandler{
		dedupe: params.Dedupe,
		logger: params.Logger,
	}
}

// GetClaims returns both phase claims of a device for a date. The date
// query parameter defaults to today (UTC).
func (h *ClaimsHandler) GetClaims(c echo.Context) error {
	deviceID := c.Param("id")
	if deviceID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "device id is required")
	}

	date := time.Now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse(entity.DateLayout, raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	status, err := h.dedupe.Status(c.Request().Context(), deviceID, date)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, status, "")
}
