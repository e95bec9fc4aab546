package search

import (
	"strings"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

// The filter predicates are pure: candidate plus filter set in, accept or
// reject out. They expect a normalized FilterSet (see models.FilterSet.Normalize).

// teacherMatchesFilters applies day presence and, when requested, the
// availability window to a teacher candidate.
func teacherMatchesFilters(detail *models.TeacherDetail, f models.FilterSet) bool {
	if f.Day != "" && len(detail.Schedule[f.Day]) == 0 {
		return false
	}
	// Availability needs a day and a range start to be meaningful; without
	// them the flag is ignored rather than rejecting everything.
	if f.TeacherAvailable && f.Day != "" && f.PeriodStart != nil {
		occupied := detail.Schedule[f.Day]
		for idx := *f.PeriodStart; idx <= *f.PeriodEnd; idx++ {
			if occupied[idx] {
				return false
			}
		}
	}
	return true
}

// classMatchesFilters checks day presence, period-range occupancy and subject
// presence for a class candidate. Range and subject constraints only apply
// when a day is selected, mirroring how the filters compose in the UI.
func classMatchesFilters(t models.Timetable, class string, f models.FilterSet) bool {
	if f.Day == "" {
		return true
	}
	periods, ok := t.Day(f.Day)[class]
	if !ok {
		return false
	}

	if f.PeriodStart != nil {
		end := *f.PeriodEnd
		if max := len(periods) - 1; end > max {
			end = max
		}
		found := false
		for idx := *f.PeriodStart; idx <= end; idx++ {
			if idx >= 0 && !periods[idx].IsFree() {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Subject != "" {
		want := strings.ToLower(f.Subject)
		found := false
		for _, period := range periods {
			if strings.Contains(strings.ToLower(period.Subject), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// subjectMatchesFilters confirms the subject facet against the candidate's
// own name. It usually restates the main query match and only diverges when
// the subject filter is edited independently of the query.
func subjectMatchesFilters(name string, f models.FilterSet) bool {
	if f.Subject == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(f.Subject))
}
