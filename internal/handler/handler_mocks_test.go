package handler

import (
	"context"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
)

type scheduleServiceMock struct {
	createResp  *models.ScheduleSlot
	createErr   error
	updateResp  *models.ScheduleSlot
	updateErr   error
	getResp     *models.ScheduleSlot
	getErr      error
	deleteErr   error
	rooms       []models.Room
	roomsErr    error
	lastCreate  service.CreateScheduleRequest
	lastUpdate  service.UpdateScheduleRequest
	lastQuery   service.AvailableRoomsQuery
	lastID      int64
	createCalls int
}

func (m *scheduleServiceMock) CreateSchedule(ctx context.Context, req service.CreateScheduleRequest) (*models.ScheduleSlot, error) {
	m.createCalls++
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *scheduleServiceMock) UpdateSchedule(ctx context.Context, id int64, req service.UpdateScheduleRequest) (*models.ScheduleSlot, error) {
	m.lastID = id
	m.lastUpdate = req
	return m.updateResp, m.updateErr
}

func (m *scheduleServiceMock) DeactivateSchedule(ctx context.Context, id int64) error {
	m.lastID = id
	return m.deleteErr
}

func (m *scheduleServiceMock) GetSchedule(ctx context.Context, id int64) (*models.ScheduleSlot, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *scheduleServiceMock) QueryAvailableRooms(ctx context.Context, query service.AvailableRoomsQuery) ([]models.Room, error) {
	m.lastQuery = query
	return m.rooms, m.roomsErr
}

type semesterServiceMock struct {
	createResp *models.Semester
	createErr  error
	updateResp *models.Semester
	updateErr  error
	getResp    *models.Semester
	getErr     error
	deleteErr  error
	purgeErr   error
	lastID     int64
	purged     []int64
}

func (m *semesterServiceMock) CreateSemester(ctx context.Context, req service.CreateSemesterRequest) (*models.Semester, error) {
	return m.createResp, m.createErr
}

func (m *semesterServiceMock) UpdateSemester(ctx context.Context, id int64, req service.UpdateSemesterRequest) (*models.Semester, error) {
	m.lastID = id
	return m.updateResp, m.updateErr
}

func (m *semesterServiceMock) DeactivateSemester(ctx context.Context, id int64) error {
	m.lastID = id
	return m.deleteErr
}

func (m *semesterServiceMock) GetSemester(ctx context.Context, id int64) (*models.Semester, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *semesterServiceMock) PurgeSemester(ctx context.Context, id int64) error {
	m.purged = append(m.purged, id)
	return m.purgeErr
}

type catalogServiceMock struct {
	room       *models.Room
	rooms      []models.Room
	pagination *models.Pagination
	err        error
	lastFilter models.RoomFilter
	purged     []int64
}

func (m *catalogServiceMock) CreateRoom(ctx context.Context, req service.CreateRoomRequest) (*models.Room, error) {
	return m.room, m.err
}

func (m *catalogServiceMock) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	m.lastFilter = filter
	return m.rooms, m.pagination, m.err
}

func (m *catalogServiceMock) DeactivateRoom(ctx context.Context, id int64) error {
	return m.err
}

func (m *catalogServiceMock) PurgeRoom(ctx context.Context, id int64) error {
	m.purged = append(m.purged, id)
	return m.err
}

func (m *catalogServiceMock) CreateProgram(ctx context.Context, req service.CreateProgramRequest) (*models.Program, error) {
	return &models.Program{ID: 1, Code: req.Code, Name: req.Name, Active: true}, m.err
}

func (m *catalogServiceMock) CreateAcademicYear(ctx context.Context, req service.CreateAcademicYearRequest) (*models.AcademicYear, error) {
	return &models.AcademicYear{ID: 1, Label: req.Label}, m.err
}

func (m *catalogServiceMock) CreateClassSection(ctx context.Context, req service.CreateClassSectionRequest) (*models.ClassSection, error) {
	return &models.ClassSection{ID: 1, SectionName: req.SectionName, SemesterID: req.SemesterID}, m.err
}

type exporterMock struct {
	file       *service.ExportedFile
	err        error
	lastFormat service.ExportFormat
	lastID     int64
}

func (m *exporterMock) RoomTimetable(ctx context.Context, roomID int64, format service.ExportFormat) (*service.ExportedFile, error) {
	m.lastID = roomID
	m.lastFormat = format
	return m.file, m.err
}

func (m *exporterMock) ClassTimetable(ctx context.Context, classID int64, format service.ExportFormat) (*service.ExportedFile, error) {
	m.lastID = classID
	m.lastFormat = format
	return m.file, m.err
}

type identifierServiceMock struct {
	issued    *models.IssuedIdentifier
	staff     *models.StaffMember
	err       error
	lastAlloc service.AllocateIdentifierRequest
	calls     int
}

func (m *identifierServiceMock) AllocateIdentifier(ctx context.Context, req service.AllocateIdentifierRequest) (*models.IssuedIdentifier, error) {
	m.calls++
	m.lastAlloc = req
	return m.issued, m.err
}

func (m *identifierServiceMock) RegisterStaff(ctx context.Context, req service.RegisterStaffRequest) (*models.StaffMember, error) {
	m.calls++
	return m.staff, m.err
}

type verifierMock struct {
	report *models.InvariantReport
	err    error
}

func (m *verifierMock) VerifyInvariants(ctx context.Context) (*models.InvariantReport, error) {
	return m.report, m.err
}

type pingerMock struct {
	err error
}

func (m *pingerMock) PingContext(ctx context.Context) error {
	return m.err
}

type auditQueueMock struct {
	accept bool
	err    error
	types  []string
}

func (m *auditQueueMock) Enqueue(jobType string) (bool, error) {
	m.types = append(m.types, jobType)
	return m.accept, m.err
}
