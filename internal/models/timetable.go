package models

import (
	"sort"
	"strings"
)

// Weekdays is the fixed, ordered set of day names a timetable may contain.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// PeriodsPerDay is the conventional slot count for one school day.
const PeriodsPerDay = 8

// Period represents one scheduled slot. Subject and Teacher may be
// "/"-delimited composites when several subjects or staff share the slot.
// The zero value marks a free period.
type Period struct {
	Subject string `db:"subject" json:"subject,omitempty"`
	Teacher string `db:"teacher" json:"teacher,omitempty"`
}

// IsFree reports whether the slot holds no class.
func (p Period) IsFree() bool {
	return p.Subject == "" && p.Teacher == ""
}

// Subjects returns the individual subject tokens of a possibly composite slot.
func (p Period) Subjects() []string {
	return SplitComposite(p.Subject)
}

// Teachers returns the individual teacher tokens of a possibly composite slot.
func (p Period) Teachers() []string {
	return SplitComposite(p.Teacher)
}

// Timetable maps day name -> class name -> ordered periods. It is built once
// at startup and treated as read-only afterwards.
type Timetable map[string]map[string][]Period

// Day returns the class map for a day, or nil when the day is absent.
func (t Timetable) Day(day string) map[string][]Period {
	if t == nil {
		return nil
	}
	return t[day]
}

// ClassDays lists, in weekday order, the days on which the class is scheduled.
func (t Timetable) ClassDays(class string) []string {
	var days []string
	for _, day := range Weekdays {
		if _, ok := t[day][class]; ok {
			days = append(days, day)
		}
	}
	return days
}

// TeacherDetail aggregates one teacher's derived schedule facts.
type TeacherDetail struct {
	Name        string                  `json:"name"`
	Subjects    []string                `json:"subjects"`
	PeriodCount int                     `json:"period_count"`
	Schedule    map[string]map[int]bool `json:"schedule"`
}

// TeacherDetails maps teacher name to the derived detail record.
type TeacherDetails map[string]*TeacherDetail

// SplitComposite splits a "/"-delimited composite value into trimmed,
// non-empty tokens.
func SplitComposite(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, "/")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

// BuildTeacherDetails derives per-teacher subject sets, total load and an
// occupancy map from the timetable in a single pass. Composite teacher slots
// count toward every named teacher.
func BuildTeacherDetails(t Timetable) TeacherDetails {
	details := make(TeacherDetails)
	seenSubjects := make(map[string]map[string]struct{})

	for _, day := range Weekdays {
		classes := t.Day(day)
		for _, periods := range classes {
			for idx, period := range periods {
				if period.IsFree() {
					continue
				}
				for _, teacher := range period.Teachers() {
					detail, ok := details[teacher]
					if !ok {
						detail = &TeacherDetail{
							Name:     teacher,
							Schedule: make(map[string]map[int]bool),
						}
						details[teacher] = detail
						seenSubjects[teacher] = make(map[string]struct{})
					}
					if detail.Schedule[day] == nil {
						detail.Schedule[day] = make(map[int]bool)
					}
					if !detail.Schedule[day][idx] {
						detail.Schedule[day][idx] = true
						detail.PeriodCount++
					}
					for _, subject := range period.Subjects() {
						if _, dup := seenSubjects[teacher][subject]; !dup {
							seenSubjects[teacher][subject] = struct{}{}
							detail.Subjects = append(detail.Subjects, subject)
						}
					}
				}
			}
		}
	}

	// Class maps iterate in random order; keep derived slices stable.
	for _, detail := range details {
		sort.Strings(detail.Subjects)
	}

	return details
}
