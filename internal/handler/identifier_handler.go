package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
	"github.com/noah-isme/sma-scheduling-core/pkg/response"
)

type identifierService interface {
	AllocateIdentifier(ctx context.Context, req service.AllocateIdentifierRequest) (*models.IssuedIdentifier, error)
	RegisterStaff(ctx context.Context, req service.RegisterStaffRequest) (*models.StaffMember, error)
}

// IdentifierHandler issues sequential staff codes.
type IdentifierHandler struct {
	service identifierService
}

// NewIdentifierHandler constructs handler.
func NewIdentifierHandler(svc identifierService) *IdentifierHandler {
	return &IdentifierHandler{service: svc}
}

// Allocate godoc
// @Summary Allocate the next identifier for a prefix and year
// @Tags Identifiers
// @Accept json
// @Produce json
// @Param payload body service.AllocateIdentifierRequest true "Prefix and year"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /identifiers [post]
func (h *IdentifierHandler) Allocate(c *gin.Context) {
	var req service.AllocateIdentifierRequest
	if !bindJSON(c, &req) {
		return
	}
	issued, err := h.service.AllocateIdentifier(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issued)
}

// RegisterStaff godoc
// @Summary Register a staff member with a new code
// @Tags Identifiers
// @Accept json
// @Produce json
// @Param payload body service.RegisterStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Router /staff [post]
func (h *IdentifierHandler) RegisterStaff(c *gin.Context) {
	var req service.RegisterStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	staff, err := h.service.RegisterStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staff)
}
