package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

// auditSlots reports every pair of active slots that overlap on the same
// room and day or on the same class and day.
func auditSlots(slots []models.ScheduleSlot) []models.InvariantViolation {
	byRoom := make(map[string][]models.ScheduleSlot)
	byClass := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		if !slot.Active {
			continue
		}
		roomKey := fmt.Sprintf("room:%d:%s", slot.RoomID, slot.DayOfWeek)
		classKey := fmt.Sprintf("class:%d:%s", slot.ClassID, slot.DayOfWeek)
		byRoom[roomKey] = append(byRoom[roomKey], slot)
		byClass[classKey] = append(byClass[classKey], slot)
	}

	var violations []models.InvariantViolation
	violations = append(violations, slotPairs(models.ConflictDimensionRoom, byRoom)...)
	violations = append(violations, slotPairs(models.ConflictDimensionClass, byClass)...)
	return violations
}

func slotPairs(dimension string, groups map[string][]models.ScheduleSlot) []models.InvariantViolation {
	var violations []models.InvariantViolation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].TimeRange().Overlaps(group[j].TimeRange()) {
					violations = append(violations, models.InvariantViolation{
						Dimension: dimension,
						Key:       key,
						FirstID:   group[i].ID,
						SecondID:  group[j].ID,
					})
				}
			}
		}
	}
	return violations
}

// auditSemesters reports every pair of active semesters of one program whose
// date ranges intersect.
func auditSemesters(semesters []models.Semester) []models.InvariantViolation {
	byProgram := make(map[string][]models.Semester)
	for _, semester := range semesters {
		if !semester.Active {
			continue
		}
		key := fmt.Sprintf("program:%d", semester.ProgramID)
		byProgram[key] = append(byProgram[key], semester)
	}

	var violations []models.InvariantViolation
	for _, key := range sortedKeys(byProgram) {
		group := byProgram[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].DateRange().Overlaps(group[j].DateRange()) {
					violations = append(violations, models.InvariantViolation{
						Dimension: models.ConflictDimensionProgram,
						Key:       key,
						FirstID:   group[i].ID,
						SecondID:  group[j].ID,
					})
				}
			}
		}
	}
	return violations
}

func sortedKeys[T any](groups map[string][]T) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
