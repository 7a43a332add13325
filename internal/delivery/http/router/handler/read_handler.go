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

// ReadHandlerParams holds dependencies for ReadHandler, injected by Fx.
type ReadHandlerParams struct {
	fx.In

	ReadReceipts service.ReadReceiptStore
	Logger       *slog.Logger
}

// ReadHandler records read receipts reported by clients.
type ReadHandler struct {
	readReceipts service.ReadReceiptStore
	logger       *slog.Logger
}

// NewReadHandler is the constructor for ReadHandler
func NewReadHandler(params ReadHandlerParams) *ReadHandler {
	return &ReadHandler{
		readReceipts: params.ReadReceipts,
		logger:       params.Logger,
	}
}

// MarkReadRequest represents the request body for reporting a read
type MarkReadRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// MarkRead records that the user read today's push. Subsequent retry runs
// skip the user.
func (h *ReadHandler) MarkRead(c echo.Context) error {
	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid read receipt input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, _ = time.Parse(entity.DateLayout, req.Date)
	}

	if err := h.readReceipts.MarkRead(c.Request().Context(), req.UserID, date); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Read receipt recorded")
}
