package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
	"github.com/noah-isme/sma-scheduling-core/pkg/response"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, req service.CreateScheduleRequest) (*models.ScheduleSlot, error)
	UpdateSchedule(ctx context.Context, id int64, req service.UpdateScheduleRequest) (*models.ScheduleSlot, error)
	DeactivateSchedule(ctx context.Context, id int64) error
	GetSchedule(ctx context.Context, id int64) (*models.ScheduleSlot, error)
	QueryAvailableRooms(ctx context.Context, query service.AvailableRoomsQuery) ([]models.Room, error)
}

// ScheduleHandler manages schedule slot endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Create godoc
// @Summary Book a schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.service.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Get godoc
// @Summary Get schedule slot
// @Tags Schedules
// @Produce json
// @Param id path int true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	slot, err := h.service.GetSchedule(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Update godoc
// @Summary Update schedule slot
// @Description Omitted fields keep their value. Moving a slot re-runs the overlap checks.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path int true "Slot ID"
// @Param payload body service.UpdateScheduleRequest true "Partial slot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [patch]
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.service.UpdateSchedule(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Delete godoc
// @Summary Deactivate schedule slot
// @Tags Schedules
// @Param id path int true "Slot ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateSchedule(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AvailableRooms godoc
// @Summary List rooms free for a window
// @Tags Rooms
// @Produce json
// @Param day query string true "Day of week"
// @Param start query string true "Start time HH:mm"
// @Param end query string true "End time HH:mm"
// @Param minCapacity query int false "Minimum capacity"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *ScheduleHandler) AvailableRooms(c *gin.Context) {
	var query service.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	rooms, err := h.service.QueryAvailableRooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
