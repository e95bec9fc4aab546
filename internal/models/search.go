package models

import (
	"fmt"
	"strings"
	"time"
)

// FilterSet bundles the four optional search constraints. Nil period bounds
// mean "unconstrained"; an invalid HTTP parameter never collapses to period 0.
type FilterSet struct {
	Day              string `json:"day,omitempty"`
	PeriodStart      *int   `json:"period_start,omitempty"`
	PeriodEnd        *int   `json:"period_end,omitempty"`
	Subject          string `json:"subject,omitempty"`
	TeacherAvailable bool   `json:"teacher_available,omitempty"`
}

// Normalize resolves the documented range tie-breaks: a single bound collapses
// the range to one period, and an inverted range collapses to its start.
func (f FilterSet) Normalize() FilterSet {
	switch {
	case f.PeriodStart == nil && f.PeriodEnd != nil:
		end := *f.PeriodEnd
		f.PeriodStart = &end
	case f.PeriodStart != nil && f.PeriodEnd == nil:
		start := *f.PeriodStart
		f.PeriodEnd = &start
	case f.PeriodStart != nil && f.PeriodEnd != nil && *f.PeriodEnd < *f.PeriodStart:
		start := *f.PeriodStart
		f.PeriodEnd = &start
	}
	return f
}

// IsZero reports whether every facet is unconstrained.
func (f FilterSet) IsZero() bool {
	return f.Day == "" && f.PeriodStart == nil && f.PeriodEnd == nil &&
		f.Subject == "" && !f.TeacherAvailable
}

// CacheKey renders a stable identifier for the filter tuple.
func (f FilterSet) CacheKey() string {
	bound := func(v *int) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *v)
	}
	return strings.Join([]string{
		f.Day,
		bound(f.PeriodStart),
		bound(f.PeriodEnd),
		strings.ToLower(f.Subject),
		fmt.Sprintf("%t", f.TeacherAvailable),
	}, "|")
}

// TeacherResult is a teacher match produced by a scan.
type TeacherResult struct {
	Name        string                  `json:"name"`
	Subjects    []string                `json:"subjects"`
	PeriodCount int                     `json:"period_count"`
	Schedule    map[string]map[int]bool `json:"schedule"`
}

// ClassResult is a class match annotated with its scheduled days.
type ClassResult struct {
	Name string   `json:"name"`
	Days []string `json:"days"`
}

// SubjectResult is a subject-token match aggregated across the timetable.
// Occurrences counts subject-token matches, not class periods: a composite
// period contributes one increment per matching token.
type SubjectResult struct {
	Name        string   `json:"name"`
	Teachers    []string `json:"teachers"`
	Classes     []string `json:"classes"`
	Occurrences int      `json:"occurrences"`
}

// ResultSet is the categorized output of one scan pass.
type ResultSet struct {
	Teachers []TeacherResult `json:"teachers"`
	Classes  []ClassResult   `json:"classes"`
	Subjects []SubjectResult `json:"subjects"`
}

// Empty reports whether no entity matched.
func (r ResultSet) Empty() bool {
	return len(r.Teachers) == 0 && len(r.Classes) == 0 && len(r.Subjects) == 0
}

// HistoryEntry records a past query together with its filter snapshot.
type HistoryEntry struct {
	Query     string    `json:"query"`
	Timestamp int64     `json:"timestamp"`
	Filters   FilterSet `json:"filters"`
}

// NewHistoryEntry stamps a history entry with the current time in epoch ms.
func NewHistoryEntry(query string, filters FilterSet) HistoryEntry {
	return HistoryEntry{
		Query:     query,
		Timestamp: time.Now().UnixMilli(),
		Filters:   filters,
	}
}

// SearchRequest is the validated input for a search.
type SearchRequest struct {
	Query   string    `json:"query" validate:"max=120"`
	Filters FilterSet `json:"filters"`
}
