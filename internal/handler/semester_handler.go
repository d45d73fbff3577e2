package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
	"github.com/noah-isme/sma-scheduling-core/pkg/response"
)

type semesterService interface {
	CreateSemester(ctx context.Context, req service.CreateSemesterRequest) (*models.Semester, error)
	UpdateSemester(ctx context.Context, id int64, req service.UpdateSemesterRequest) (*models.Semester, error)
	DeactivateSemester(ctx context.Context, id int64) error
	GetSemester(ctx context.Context, id int64) (*models.Semester, error)
}

type semesterPurger interface {
	PurgeSemester(ctx context.Context, id int64) error
}

// SemesterHandler manages semester endpoints.
type SemesterHandler struct {
	service semesterService
	purger  semesterPurger
}

// NewSemesterHandler constructs handler.
func NewSemesterHandler(svc semesterService, purger semesterPurger) *SemesterHandler {
	return &SemesterHandler{service: svc, purger: purger}
}

// Create godoc
// @Summary Create semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body service.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req service.CreateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}
	semester, err := h.service.CreateSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Get godoc
// @Summary Get semester
// @Tags Semesters
// @Produce json
// @Param id path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	semester, err := h.service.GetSemester(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Update godoc
// @Summary Update semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param id path int true "Semester ID"
// @Param payload body service.UpdateSemesterRequest true "Partial semester"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [patch]
func (h *SemesterHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}
	semester, err := h.service.UpdateSemester(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Delete godoc
// @Summary Deactivate semester
// @Tags Semesters
// @Param id path int true "Semester ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateSemester(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Purge godoc
// @Summary Permanently delete an unreferenced semester
// @Tags Semesters
// @Param id path int true "Semester ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /semesters/{id}/purge [delete]
func (h *SemesterHandler) Purge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.purger.PurgeSemester(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
