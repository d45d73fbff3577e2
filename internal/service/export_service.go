package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/pkg/export"
)

// ExportFormat selects the rendered timetable encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type timetableSource interface {
	RoomTimetable(ctx context.Context, roomID int64) ([]models.ScheduleSlot, error)
	ClassTimetable(ctx context.Context, classID int64) ([]models.ScheduleSlot, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
	ContentType() string
}

// ExportedFile is a rendered timetable ready to be streamed.
type ExportedFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders weekly timetables as CSV or PDF.
type ExportService struct {
	source    timetableSource
	renderers map[ExportFormat]tableRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(source timetableSource, csv, pdf tableRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source:    source,
		renderers: map[ExportFormat]tableRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
	}
}

// ParseExportFormat accepts csv or pdf in any case; empty means csv.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	}
	return "", validationErrorf("unsupported export format %q", raw)
}

// RoomTimetable renders the active slots of a room.
func (s *ExportService) RoomTimetable(ctx context.Context, roomID int64, format ExportFormat) (*ExportedFile, error) {
	slots, err := s.source.RoomTimetable(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.render(fmt.Sprintf("room-%d-timetable", roomID), fmt.Sprintf("Room %d weekly timetable", roomID), slots, format)
}

// ClassTimetable renders the active slots of a class section.
func (s *ExportService) ClassTimetable(ctx context.Context, classID int64, format ExportFormat) (*ExportedFile, error) {
	slots, err := s.source.ClassTimetable(ctx, classID)
	if err != nil {
		return nil, err
	}
	return s.render(fmt.Sprintf("class-%d-timetable", classID), fmt.Sprintf("Class %d weekly timetable", classID), slots, format)
}

func (s *ExportService) render(name, title string, slots []models.ScheduleSlot, format ExportFormat) (*ExportedFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, validationErrorf("unsupported export format %q", format)
	}
	body, err := renderer.Render(timetableTable(title, slots))
	if err != nil {
		s.logger.Error("render timetable", zap.String("name", name), zap.Error(err))
		return nil, internalError(err, "render timetable")
	}
	return &ExportedFile{
		Filename:    name + "." + string(format),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// timetableTable orders slots by weekday then start time.
func timetableTable(title string, slots []models.ScheduleSlot) export.Table {
	ordered := append([]models.ScheduleSlot(nil), slots...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DayOfWeek != ordered[j].DayOfWeek {
			return ordered[i].DayOfWeek.Index() < ordered[j].DayOfWeek.Index()
		}
		return ordered[i].StartTime < ordered[j].StartTime
	})

	table := export.Table{
		Title:   title,
		Headers: []string{"Day", "Start", "End", "Room", "Class", "Recurring"},
		Rows:    make([][]string, 0, len(ordered)),
	}
	for _, slot := range ordered {
		table.Rows = append(table.Rows, []string{
			string(slot.DayOfWeek),
			slot.StartTime.String(),
			slot.EndTime.String(),
			strconv.FormatInt(slot.RoomID, 10),
			strconv.FormatInt(slot.ClassID, 10),
			strconv.FormatBool(slot.IsRecurring),
		})
	}
	return table
}
