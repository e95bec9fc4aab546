package search

import (
	"sort"
	"strings"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

// The scanners perform a linear pass over the in-memory structures, applying
// the filter predicates inline as candidates are found. The query they
// receive is already lower-cased and trimmed.

type lessFunc func(a, b string) bool

func scanTeachers(details models.TeacherDetails, query string, f models.FilterSet, less lessFunc) []models.TeacherResult {
	results := make([]models.TeacherResult, 0)
	for name, detail := range details {
		if !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		if !teacherMatchesFilters(detail, f) {
			continue
		}
		results = append(results, models.TeacherResult{
			Name:        name,
			Subjects:    detail.Subjects,
			PeriodCount: detail.PeriodCount,
			Schedule:    detail.Schedule,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return less(results[i].Name, results[j].Name)
	})
	return results
}

func scanClasses(t models.Timetable, query string, f models.FilterSet, less lessFunc) []models.ClassResult {
	seen := make(map[string]struct{})
	results := make([]models.ClassResult, 0)
	for _, day := range models.Weekdays {
		for class := range t.Day(day) {
			if _, dup := seen[class]; dup {
				continue
			}
			seen[class] = struct{}{}
			if !strings.Contains(strings.ToLower(class), query) {
				continue
			}
			if !classMatchesFilters(t, class, f) {
				continue
			}
			results = append(results, models.ClassResult{
				Name: class,
				Days: t.ClassDays(class),
			})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return less(results[i].Name, results[j].Name)
	})
	return results
}

// subjectAccumulator gathers per-token teacher/class sets and the running
// occurrence count while the triple scan is in flight.
type subjectAccumulator struct {
	teachers    map[string]struct{}
	classes     map[string]struct{}
	occurrences int
}

func scanSubjects(t models.Timetable, query string, f models.FilterSet, less lessFunc) []models.SubjectResult {
	acc := make(map[string]*subjectAccumulator)
	for _, day := range models.Weekdays {
		for class, periods := range t.Day(day) {
			for _, period := range periods {
				for _, token := range period.Subjects() {
					if !strings.Contains(strings.ToLower(token), query) {
						continue
					}
					if !subjectMatchesFilters(token, f) {
						continue
					}
					entry, ok := acc[token]
					if !ok {
						entry = &subjectAccumulator{
							teachers: make(map[string]struct{}),
							classes:  make(map[string]struct{}),
						}
						acc[token] = entry
					}
					// One increment per matching token, not per slot.
					entry.occurrences++
					entry.classes[class] = struct{}{}
					for _, teacher := range period.Teachers() {
						entry.teachers[teacher] = struct{}{}
					}
				}
			}
		}
	}

	results := make([]models.SubjectResult, 0, len(acc))
	for name, entry := range acc {
		results = append(results, models.SubjectResult{
			Name:        name,
			Teachers:    sortedKeys(entry.teachers, less),
			Classes:     sortedKeys(entry.classes, less),
			Occurrences: entry.occurrences,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return less(results[i].Name, results[j].Name)
	})
	return results
}

func sortedKeys(set map[string]struct{}, less lessFunc) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return less(keys[i], keys[j])
	})
	return keys
}
