package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
	"github.com/noah-isme/sma-scheduling-core/pkg/response"
)

type catalogService interface {
	CreateRoom(ctx context.Context, req service.CreateRoomRequest) (*models.Room, error)
	ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error)
	DeactivateRoom(ctx context.Context, id int64) error
	PurgeRoom(ctx context.Context, id int64) error
	CreateProgram(ctx context.Context, req service.CreateProgramRequest) (*models.Program, error)
	CreateAcademicYear(ctx context.Context, req service.CreateAcademicYearRequest) (*models.AcademicYear, error)
	CreateClassSection(ctx context.Context, req service.CreateClassSectionRequest) (*models.ClassSection, error)
}

type timetableExporter interface {
	RoomTimetable(ctx context.Context, roomID int64, format service.ExportFormat) (*service.ExportedFile, error)
	ClassTimetable(ctx context.Context, classID int64, format service.ExportFormat) (*service.ExportedFile, error)
}

// CatalogHandler serves rooms, programs, academic years and class sections.
type CatalogHandler struct {
	catalog catalogService
	export  timetableExporter
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog catalogService, export timetableExporter) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, export: export}
}

// CreateRoom godoc
// @Summary Register room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body service.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var req service.CreateRoomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.catalog.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Param building query string false "Building"
// @Param minCapacity query int false "Minimum capacity"
// @Param active query bool false "Active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	var filter models.RoomFilter
	filter.Building = c.Query("building")
	if minCapacity, err := strconv.Atoi(c.Query("minCapacity")); err == nil {
		filter.MinCapacity = minCapacity
	}
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		filter.Active = &active
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	rooms, pagination, err := h.catalog.ListRooms(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// DeactivateRoom godoc
// @Summary Deactivate room
// @Tags Rooms
// @Param id path int true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *CatalogHandler) DeactivateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeactivateRoom(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PurgeRoom godoc
// @Summary Permanently delete a room no slot references
// @Tags Rooms
// @Param id path int true "Room ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /rooms/{id}/purge [delete]
func (h *CatalogHandler) PurgeRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.PurgeRoom(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RoomTimetable godoc
// @Summary Download a room's weekly timetable
// @Tags Rooms
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Room ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /rooms/{id}/timetable [get]
func (h *CatalogHandler) RoomTimetable(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.export.RoomTimetable(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ClassTimetable godoc
// @Summary Download a class section's weekly timetable
// @Tags Classes
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Class section ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /classes/{id}/timetable [get]
func (h *CatalogHandler) ClassTimetable(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.export.ClassTimetable(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// CreateProgram godoc
// @Summary Register program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /programs [post]
func (h *CatalogHandler) CreateProgram(c *gin.Context) {
	var req service.CreateProgramRequest
	if !bindJSON(c, &req) {
		return
	}
	program, err := h.catalog.CreateProgram(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// CreateAcademicYear godoc
// @Summary Register academic year
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateAcademicYearRequest true "Academic year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *CatalogHandler) CreateAcademicYear(c *gin.Context) {
	var req service.CreateAcademicYearRequest
	if !bindJSON(c, &req) {
		return
	}
	year, err := h.catalog.CreateAcademicYear(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// CreateClassSection godoc
// @Summary Register class section
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassSectionRequest true "Class section payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *CatalogHandler) CreateClassSection(c *gin.Context) {
	var req service.CreateClassSectionRequest
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.catalog.CreateClassSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}
