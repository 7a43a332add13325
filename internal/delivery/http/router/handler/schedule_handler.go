// Package handler contains the HTTP handlers of the admin and public
// surfaces.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"dailypush/internal/delivery/http/response"
	"dailypush/internal/domain/entity"
	domainerrors "dailypush/internal/domain/errors"
	"dailypush/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ScheduleHandlerParams holds dependencies for ScheduleHandler, injected by Fx.
type ScheduleHandlerParams struct {
	fx.In

	Registry usecase.CoordinatorRegistry
	Logger   *slog.Logger
}

// ScheduleHandler holds dependencies for timezone schedule handlers
type ScheduleHandler struct {
	registry usecase.CoordinatorRegistry
	logger   *slog.Logger
}

// NewScheduleHandler is the constructor for ScheduleHandler
func NewScheduleHandler(params ScheduleHandlerParams) *ScheduleHandler {
	return &ScheduleHandler{
		registry: params.Registry,
		logger:   params.Logger,
	}
}

// TriggerRequest represents the request body for a manual pipeline run
type TriggerRequest struct {
	Phase string `json:"phase" validate:"required,oneof=morning retry"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Force bool   `json:"force"`
}

// ListSchedules returns the status of every managed timezone
func (h *ScheduleHandler) ListSchedules(c echo.Context) error {
	coordinators := h.registry.All()

	schedules := make([]*entity.TimezoneSchedule, 0, len(coordinators))
	for _, coordinator := range coordinators {
		status, err := coordinator.Status(c.Request().Context())
		if err != nil {
			return response.HandleAppError(c, err)
		}
		schedules = append(schedules, status)
	}

	return response.Success(c, http.StatusOK, schedules, "")
}

// GetStatus returns the schedule state of one timezone
func (h *ScheduleHandler) GetStatus(c echo.Context) error {
	coordinator, err := h.coordinator(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	status, err := coordinator.Status(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, status, "")
}

// Trigger runs a pipeline manually. Force bypasses paused status and, for
// the retry phase, the read-receipt filter; the per-device claims always
// apply.
func (h *ScheduleHandler) Trigger(c echo.Context) error {
	coordinator, err := h.coordinator(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var req TriggerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid trigger input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	date := time.Now()
	if req.Date != "" {
		date, _ = time.Parse(entity.DateLayout, req.Date)
	}

	h.logger.InfoContext(c.Request().Context(), "manual trigger requested",
		slog.String("timezone", coordinator.TimezoneID()),
		slog.String("phase", req.Phase),
		slog.Bool("force", req.Force))

	var result *usecase.RunResult
	if req.Phase == string(entity.PhaseRetry) {
		result, err = coordinator.RunRetry(c.Request().Context(), date, req.Force)
	} else {
		result, err = coordinator.RunMorning(c.Request().Context(), date, req.Force)
	}
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result, "Pipeline run completed")
}

// Pause suspends a timezone's pipelines
func (h *ScheduleHandler) Pause(c echo.Context) error {
	coordinator, err := h.coordinator(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := coordinator.Pause(c.Request().Context()); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Schedule paused")
}

// Resume returns a timezone to active
func (h *ScheduleHandler) Resume(c echo.Context) error {
	coordinator, err := h.coordinator(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := coordinator.Resume(c.Request().Context()); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Schedule resumed")
}

// Reinitialize resets a timezone's schedule to the current configuration.
// Unknown but valid zones are added to the managed set.
func (h *ScheduleHandler) Reinitialize(c echo.Context) error {
	coordinator, err := h.registry.Ensure(c.Request().Context(), c.Param("zone"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := coordinator.Reinitialize(c.Request().Context()); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Schedule reinitialized")
}

func (h *ScheduleHandler) coordinator(c echo.Context) (usecase.Coordinator, error) {
	coordinator, ok := h.registry.Get(c.Param("zone"))
	if !ok {
		return nil, domainerrors.ErrUnknownTimezone
	}

	return coordinator, nil
}
