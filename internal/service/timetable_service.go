package service

import (
	"sort"

	"github.com/noah-isme/timetable-search-api/internal/models"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
)

// TimetableService answers direct lookups against the loaded timetable. The
// data is read-only after load, so no locking is needed.
type TimetableService struct {
	timetable models.Timetable
	details   models.TeacherDetails
}

// NewTimetableService constructs a TimetableService. When details is nil it
// is derived from the timetable.
func NewTimetableService(timetable models.Timetable, details models.TeacherDetails) *TimetableService {
	if details == nil && timetable != nil {
		details = models.BuildTeacherDetails(timetable)
	}
	return &TimetableService{timetable: timetable, details: details}
}

// Ready reports whether a timetable is loaded. Everything is served from
// memory, so an empty timetable means the source never loaded.
func (s *TimetableService) Ready() error {
	if len(s.timetable) == 0 {
		return appErrors.Clone(appErrors.ErrSourceUnloaded, "")
	}
	return nil
}

// Details exposes the derived per-teacher view for engine construction.
func (s *TimetableService) Details() models.TeacherDetails {
	return s.details
}

// Days lists the weekdays with at least one scheduled class, in week order.
func (s *TimetableService) Days() []string {
	days := make([]string, 0, len(models.Weekdays))
	for _, day := range models.Weekdays {
		if len(s.timetable[day]) > 0 {
			days = append(days, day)
		}
	}
	return days
}

// Classes lists every class name, sorted.
func (s *TimetableService) Classes() []string {
	seen := map[string]bool{}
	for _, classes := range s.timetable {
		for name := range classes {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ClassSchedule returns the week schedule for one class, keyed by day.
func (s *TimetableService) ClassSchedule(name string) (map[string][]models.Period, error) {
	schedule := map[string][]models.Period{}
	for _, day := range models.Weekdays {
		if periods, ok := s.timetable[day][name]; ok {
			schedule[day] = periods
		}
	}
	if len(schedule) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return schedule, nil
}

// Teacher returns the aggregated detail view for one teacher.
func (s *TimetableService) Teacher(name string) (*models.TeacherDetail, error) {
	detail, ok := s.details[name]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return detail, nil
}

// Teachers lists every teacher name, sorted.
func (s *TimetableService) Teachers() []string {
	out := make([]string, 0, len(s.details))
	for name := range s.details {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
