package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-scheduling-core/internal/interval"
	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
)

// memState is the committed content of memDB. Transactions work on a clone.
type memState struct {
	nextID      int64
	rooms       map[int64]models.Room
	sections    map[int64]models.ClassSection
	slots       map[int64]models.ScheduleSlot
	semesters   map[int64]models.Semester
	programs    map[int64]models.Program
	years       map[int64]models.AcademicYear
	identifiers map[string]models.IssuedIdentifier
	staff       map[int64]models.StaffMember
}

func newMemState() *memState {
	return &memState{
		rooms:       map[int64]models.Room{},
		sections:    map[int64]models.ClassSection{},
		slots:       map[int64]models.ScheduleSlot{},
		semesters:   map[int64]models.Semester{},
		programs:    map[int64]models.Program{},
		years:       map[int64]models.AcademicYear{},
		identifiers: map[string]models.IssuedIdentifier{},
		staff:       map[int64]models.StaffMember{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:      s.nextID,
		rooms:       cloneMap(s.rooms),
		sections:    cloneMap(s.sections),
		slots:       cloneMap(s.slots),
		semesters:   cloneMap(s.semesters),
		programs:    cloneMap(s.programs),
		years:       cloneMap(s.years),
		identifiers: cloneMap(s.identifiers),
		staff:       cloneMap(s.staff),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// memDB serialises transactions, standing in for the advisory locks of the
// Postgres store.
type memDB struct {
	mu    sync.Mutex
	state *memState

	txCount int
	locks   []string
	// identifierInsertFailures forces that many unique violations on ledger inserts.
	identifierInsertFailures int
}

func newMemDB() *memDB {
	return &memDB{state: newMemState()}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, store storage.Storage) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.txCount++
	work := db.state.clone()
	if err := fn(ctx, &memStore{db: db, state: work}); err != nil {
		return err
	}
	db.state = work
	return nil
}

func (db *memDB) seedRoom(code string, capacity int) models.Room {
	db.mu.Lock()
	defer db.mu.Unlock()
	room := models.Room{ID: db.state.id(), Code: code, Building: "Main", Capacity: capacity, Active: true}
	db.state.rooms[room.ID] = room
	return room
}

func (db *memDB) seedProgram(code string, active bool) models.Program {
	db.mu.Lock()
	defer db.mu.Unlock()
	program := models.Program{ID: db.state.id(), Code: code, Name: code, Active: active}
	db.state.programs[program.ID] = program
	return program
}

func (db *memDB) seedAcademicYear(label, start, end string) models.AcademicYear {
	db.mu.Lock()
	defer db.mu.Unlock()
	year := models.AcademicYear{ID: db.state.id(), Label: label, StartDate: interval.MustParseDate(start), EndDate: interval.MustParseDate(end)}
	db.state.years[year.ID] = year
	return year
}

func (db *memDB) seedSemester(programID, yearID int64, start, end string) models.Semester {
	db.mu.Lock()
	defer db.mu.Unlock()
	semester := models.Semester{
		ID:             db.state.id(),
		ProgramID:      programID,
		AcademicYearID: yearID,
		SemesterNumber: 1,
		YearNumber:     1,
		StartDate:      interval.MustParseDate(start),
		EndDate:        interval.MustParseDate(end),
		Active:         true,
	}
	db.state.semesters[semester.ID] = semester
	return semester
}

func (db *memDB) seedClass(name string, semesterID int64) models.ClassSection {
	db.mu.Lock()
	defer db.mu.Unlock()
	section := models.ClassSection{ID: db.state.id(), SectionName: name, SubjectID: 1, SemesterID: semesterID, Active: true}
	db.state.sections[section.ID] = section
	return section
}

func (db *memDB) seedIdentifier(value string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.identifiers[value] = models.IssuedIdentifier{Value: value}
}

func (db *memDB) snapshot() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

func (db *memDB) takenLocks() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.locks...)
}

type memStore struct {
	db    *memDB
	state *memState
}

func (s *memStore) Rooms() storage.RoomStore                 { return memRooms{s} }
func (s *memStore) ClassSections() storage.ClassSectionStore { return memSections{s} }
func (s *memStore) Slots() storage.SlotStore                 { return memSlots{s} }
func (s *memStore) Semesters() storage.SemesterStore         { return memSemesters{s} }
func (s *memStore) Programs() storage.ProgramStore           { return memPrograms{s} }
func (s *memStore) Identifiers() storage.IdentifierStore     { return memIdentifiers{s} }

func (s *memStore) Lock(ctx context.Context, key string) error {
	s.db.locks = append(s.db.locks, key)
	return nil
}

type memRooms struct{ *memStore }

func (r memRooms) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	room, ok := r.state.rooms[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &room, nil
}

func (r memRooms) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	var rooms []models.Room
	for _, room := range r.state.rooms {
		if filter.Active != nil && room.Active != *filter.Active {
			continue
		}
		if filter.Building != "" && room.Building != filter.Building {
			continue
		}
		if room.Capacity < filter.MinCapacity {
			continue
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms, len(rooms), nil
}

func (r memRooms) ListActive(ctx context.Context, minCapacity int) ([]models.Room, error) {
	active := true
	rooms, _, err := r.List(ctx, models.RoomFilter{Active: &active, MinCapacity: minCapacity})
	return rooms, err
}

func (r memRooms) Create(ctx context.Context, room *models.Room) error {
	for _, existing := range r.state.rooms {
		if strings.EqualFold(existing.Code, room.Code) {
			return storage.ErrUniqueViolation
		}
	}
	room.ID = r.state.id()
	room.CreatedAt = time.Now()
	r.state.rooms[room.ID] = *room
	return nil
}

func (r memRooms) Deactivate(ctx context.Context, id int64) error {
	room, ok := r.state.rooms[id]
	if !ok {
		return storage.ErrNotFound
	}
	room.Active = false
	r.state.rooms[id] = room
	return nil
}

func (r memRooms) CountSlots(ctx context.Context, id int64) (int, error) {
	count := 0
	for _, slot := range r.state.slots {
		if slot.RoomID == id {
			count++
		}
	}
	return count, nil
}

func (r memRooms) Delete(ctx context.Context, id int64) error {
	if _, ok := r.state.rooms[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.state.rooms, id)
	return nil
}

type memSections struct{ *memStore }

func (r memSections) FindByID(ctx context.Context, id int64) (*models.ClassSection, error) {
	section, ok := r.state.sections[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &section, nil
}

func (r memSections) Create(ctx context.Context, section *models.ClassSection) error {
	if _, ok := r.state.semesters[section.SemesterID]; !ok {
		return storage.ErrForeignKeyViolation
	}
	section.ID = r.state.id()
	r.state.sections[section.ID] = *section
	return nil
}

type memSlots struct{ *memStore }

func (r memSlots) FindByID(ctx context.Context, id int64) (*models.ScheduleSlot, error) {
	slot, ok := r.state.slots[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &slot, nil
}

func (r memSlots) filter(keep func(models.ScheduleSlot) bool) []models.ScheduleSlot {
	var slots []models.ScheduleSlot
	for _, slot := range r.state.slots {
		if slot.Active && keep(slot) {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].ID < slots[j].ID
	})
	return slots
}

func (r memSlots) FindActiveByRoom(ctx context.Context, roomID int64, day models.DayOfWeek, excludeID int64) ([]models.ScheduleSlot, error) {
	return r.filter(func(s models.ScheduleSlot) bool {
		return s.RoomID == roomID && s.DayOfWeek == day && s.ID != excludeID
	}), nil
}

func (r memSlots) FindActiveByClass(ctx context.Context, classID int64, day models.DayOfWeek, excludeID int64) ([]models.ScheduleSlot, error) {
	return r.filter(func(s models.ScheduleSlot) bool {
		return s.ClassID == classID && s.DayOfWeek == day && s.ID != excludeID
	}), nil
}

func (r memSlots) FindActiveByDay(ctx context.Context, day models.DayOfWeek) ([]models.ScheduleSlot, error) {
	return r.filter(func(s models.ScheduleSlot) bool { return s.DayOfWeek == day }), nil
}

func (r memSlots) ListActive(ctx context.Context) ([]models.ScheduleSlot, error) {
	return r.filter(func(models.ScheduleSlot) bool { return true }), nil
}

func (r memSlots) ListActiveByRoomID(ctx context.Context, roomID int64) ([]models.ScheduleSlot, error) {
	return r.filter(func(s models.ScheduleSlot) bool { return s.RoomID == roomID }), nil
}

func (r memSlots) ListActiveByClassID(ctx context.Context, classID int64) ([]models.ScheduleSlot, error) {
	return r.filter(func(s models.ScheduleSlot) bool { return s.ClassID == classID }), nil
}

func (r memSlots) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	slot.ID = r.state.id()
	r.state.slots[slot.ID] = *slot
	return nil
}

func (r memSlots) Update(ctx context.Context, slot *models.ScheduleSlot) error {
	if _, ok := r.state.slots[slot.ID]; !ok {
		return storage.ErrNotFound
	}
	r.state.slots[slot.ID] = *slot
	return nil
}

func (r memSlots) Deactivate(ctx context.Context, id int64) error {
	slot, ok := r.state.slots[id]
	if !ok {
		return storage.ErrNotFound
	}
	slot.Active = false
	r.state.slots[id] = slot
	return nil
}

type memSemesters struct{ *memStore }

func (r memSemesters) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	semester, ok := r.state.semesters[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &semester, nil
}

func (r memSemesters) FindActiveByProgram(ctx context.Context, programID, excludeID int64) ([]models.Semester, error) {
	var out []models.Semester
	for _, semester := range r.state.semesters {
		if semester.Active && semester.ProgramID == programID && semester.ID != excludeID {
			out = append(out, semester)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r memSemesters) ListActive(ctx context.Context) ([]models.Semester, error) {
	var out []models.Semester
	for _, semester := range r.state.semesters {
		if semester.Active {
			out = append(out, semester)
		}
	}
	return out, nil
}

func (r memSemesters) Create(ctx context.Context, semester *models.Semester) error {
	semester.ID = r.state.id()
	r.state.semesters[semester.ID] = *semester
	return nil
}

func (r memSemesters) Update(ctx context.Context, semester *models.Semester) error {
	if _, ok := r.state.semesters[semester.ID]; !ok {
		return storage.ErrNotFound
	}
	r.state.semesters[semester.ID] = *semester
	return nil
}

func (r memSemesters) Deactivate(ctx context.Context, id int64) error {
	semester, ok := r.state.semesters[id]
	if !ok {
		return storage.ErrNotFound
	}
	semester.Active = false
	r.state.semesters[id] = semester
	return nil
}

func (r memSemesters) CountClassSections(ctx context.Context, id int64) (int, error) {
	count := 0
	for _, section := range r.state.sections {
		if section.SemesterID == id {
			count++
		}
	}
	return count, nil
}

func (r memSemesters) Delete(ctx context.Context, id int64) error {
	if _, ok := r.state.semesters[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.state.semesters, id)
	return nil
}

type memPrograms struct{ *memStore }

func (r memPrograms) FindProgram(ctx context.Context, id int64) (*models.Program, error) {
	program, ok := r.state.programs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &program, nil
}

func (r memPrograms) CreateProgram(ctx context.Context, program *models.Program) error {
	for _, existing := range r.state.programs {
		if existing.Code == program.Code {
			return storage.ErrUniqueViolation
		}
	}
	program.ID = r.state.id()
	r.state.programs[program.ID] = *program
	return nil
}

func (r memPrograms) FindAcademicYear(ctx context.Context, id int64) (*models.AcademicYear, error) {
	year, ok := r.state.years[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &year, nil
}

func (r memPrograms) CreateAcademicYear(ctx context.Context, year *models.AcademicYear) error {
	for _, existing := range r.state.years {
		if existing.Label == year.Label {
			return storage.ErrUniqueViolation
		}
	}
	year.ID = r.state.id()
	r.state.years[year.ID] = *year
	return nil
}

type memIdentifiers struct{ *memStore }

func (r memIdentifiers) FindByPrefix(ctx context.Context, prefix string, year int) ([]string, error) {
	scope := fmt.Sprintf("%s%04d", prefix, year)
	var values []string
	for value := range r.state.identifiers {
		if strings.HasPrefix(value, scope) {
			values = append(values, value)
		}
	}
	return values, nil
}

func (r memIdentifiers) Exists(ctx context.Context, value string) (bool, error) {
	_, ok := r.state.identifiers[value]
	return ok, nil
}

func (r memIdentifiers) Insert(ctx context.Context, identifier *models.IssuedIdentifier) error {
	if r.db.identifierInsertFailures > 0 {
		r.db.identifierInsertFailures--
		return storage.ErrUniqueViolation
	}
	if _, ok := r.state.identifiers[identifier.Value]; ok {
		return storage.ErrUniqueViolation
	}
	r.state.identifiers[identifier.Value] = *identifier
	return nil
}

func (r memIdentifiers) CreateStaff(ctx context.Context, staff *models.StaffMember) error {
	staff.ID = r.state.id()
	r.state.staff[staff.ID] = *staff
	return nil
}

func itoa(id int64) string {
	return fmt.Sprintf("%d", id)
}

func pad4(n int) string {
	return fmt.Sprintf("%04d", n)
}
