package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

const (
	// DefaultDebounceDelay is the quiet window applied to keystroke input.
	DefaultDebounceDelay = 250 * time.Millisecond
	// DefaultMinQueryLength is the shortest trimmed query that triggers a scan.
	DefaultMinQueryLength = 1
	// DefaultHistoryLimit bounds the persisted history list.
	DefaultHistoryLimit = 10

	storeTimeout = 3 * time.Second
)

// Facet names accepted by SetFilter.
const (
	FacetDay              = "day"
	FacetPeriodStart      = "period_start"
	FacetPeriodEnd        = "period_end"
	FacetSubject          = "subject"
	FacetTeacherAvailable = "teacher_available"
)

// Options configures an Engine instance.
type Options struct {
	DebounceDelay  time.Duration
	MinQueryLength int
	HistoryLimit   int
	Store          HistoryStore
	Logger         *zap.Logger
}

// Engine owns all mutable search state for one timetable: the live query,
// filter set, latest result snapshot and the bounded history list. Instances
// are independent; nothing is shared at package level. All operations are
// safe for concurrent use.
//
// The timetable and teacher details handed to New are read-only shared data;
// the engine never mutates them. Result snapshots are likewise treated as
// immutable by callers.
type Engine struct {
	mu        sync.Mutex
	timetable models.Timetable
	details   models.TeacherDetails
	collator  *collate.Collator

	delay    time.Duration
	minQuery int
	limit    int
	store    HistoryStore
	logger   *zap.Logger

	query     string
	filters   models.FilterSet
	results   models.ResultSet
	history   []models.HistoryEntry
	debouncer *debouncer
	closed    bool
}

// New constructs an engine over the given timetable. When details is nil it
// is derived from the timetable. A nil store keeps history in memory only.
func New(timetable models.Timetable, details models.TeacherDetails, opts Options) *Engine {
	if details == nil && timetable != nil {
		details = models.BuildTeacherDetails(timetable)
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		timetable: timetable,
		details:   details,
		collator:  collate.New(language.Und, collate.IgnoreCase),
		delay:     opts.DebounceDelay,
		minQuery:  opts.MinQueryLength,
		limit:     opts.HistoryLimit,
		store:     opts.Store,
		logger:    opts.Logger,
		results:   emptyResultSet(),
	}
	e.debouncer = newDebouncer(e.delay, e.commitQuery)
	e.loadHistory()
	return e
}

// SetQuery feeds a keystroke into the debouncer. Only the value that survives
// the quiet window triggers a scan and a history record.
func (e *Engine) SetQuery(raw string) {
	e.debouncer.Trigger(raw)
}

// Search runs an immediate, non-debounced scan for the given query, records
// it in history and returns the result snapshot.
func (e *Engine) Search(raw string) models.ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return emptyResultSet()
	}
	e.query = raw
	e.scanLocked()
	e.recordHistoryLocked()
	return e.results
}

// SearchWith atomically replaces the filter set, runs an immediate scan for
// the query and records it in history. Stateless callers use this instead of
// SetFilters+Search so no concurrent caller can swap the filters between the
// two steps.
func (e *Engine) SearchWith(raw string, filters models.FilterSet) models.ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return emptyResultSet()
	}
	e.filters = filters
	e.query = raw
	e.scanLocked()
	e.recordHistoryLocked()
	return e.results
}

// SetFilter mutates one filter facet and, when a query is active, re-scans
// immediately. Period bounds that do not parse as integers are treated as
// unconstrained rather than period zero.
func (e *Engine) SetFilter(facet, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	switch facet {
	case FacetDay:
		e.filters.Day = canonicalDay(value)
	case FacetPeriodStart:
		e.filters.PeriodStart = parseBound(value)
	case FacetPeriodEnd:
		e.filters.PeriodEnd = parseBound(value)
	case FacetSubject:
		e.filters.Subject = strings.TrimSpace(value)
	case FacetTeacherAvailable:
		enabled, _ := strconv.ParseBool(value)
		e.filters.TeacherAvailable = enabled
	default:
		return errUnknownFacet(facet)
	}

	if strings.TrimSpace(e.query) != "" {
		e.scanLocked()
	}
	return nil
}

// SetFilters replaces the whole filter set and re-scans when a query is active.
func (e *Engine) SetFilters(filters models.FilterSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.filters = filters
	if strings.TrimSpace(e.query) != "" {
		e.scanLocked()
	}
}

// ResetFilters restores every facet to its unconstrained value and, when a
// query is active, re-scans with the cleared filters.
func (e *Engine) ResetFilters() {
	e.SetFilters(models.FilterSet{})
}

// Filters returns the current filter set.
func (e *Engine) Filters() models.FilterSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

// Query returns the current raw query string.
func (e *Engine) Query() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query
}

// Results returns the most recent scan snapshot.
func (e *Engine) Results() models.ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}

// History returns a copy of the history list, most recent first.
func (e *Engine) History() []models.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// AddToHistory records a query with the current filter snapshot without
// running a scan.
func (e *Engine) AddToHistory(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.pushHistoryLocked(query)
}

// AddToHistoryWith records a query together with the given filter snapshot,
// for callers that resolved the results elsewhere (e.g. a result cache).
func (e *Engine) AddToHistoryWith(query string, filters models.FilterSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.filters = filters
	e.pushHistoryLocked(query)
}

// RemoveHistoryItem deletes one entry by its position in the list.
func (e *Engine) RemoveHistoryItem(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, ok := removeHistoryAt(e.history, index)
	if !ok {
		return errHistoryIndex(index)
	}
	e.history = next
	e.persistLocked()
	return nil
}

// ClearHistory empties the history list.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
	e.persistLocked()
}

// ApplyHistoryItem re-populates the live query and filters from the stored
// snapshot and scans immediately, bypassing the debouncer. The entry moves to
// the front with a refreshed timestamp.
func (e *Engine) ApplyHistoryItem(index int) (models.ResultSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.history) {
		return emptyResultSet(), errHistoryIndex(index)
	}
	entry := e.history[index]
	e.query = entry.Query
	e.filters = entry.Filters
	e.scanLocked()
	e.pushHistoryLocked(entry.Query)
	return e.results, nil
}

// CancelPending drops any debounced scan that has not fired yet.
func (e *Engine) CancelPending() {
	e.debouncer.Cancel()
}

// Close cancels pending work and resets the session state. History survives
// in its store; everything else is discarded.
func (e *Engine) Close() {
	e.debouncer.Cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.query = ""
	e.filters = models.FilterSet{}
	e.results = emptyResultSet()
}

// commitQuery is the debouncer callback.
func (e *Engine) commitQuery(raw string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.query = raw
	e.scanLocked()
	e.recordHistoryLocked()
}

// scanLocked recomputes the result snapshot for the current query and
// filters. Missing data sources and short queries yield empty sets, never
// errors.
func (e *Engine) scanLocked() {
	query := strings.ToLower(strings.TrimSpace(e.query))
	if len(query) < e.minQuery {
		e.results = emptyResultSet()
		return
	}

	filters := e.filters.Normalize()
	less := func(a, b string) bool { return e.collator.CompareString(a, b) < 0 }

	started := time.Now()
	e.results = models.ResultSet{
		Teachers: scanTeachers(e.details, query, filters, less),
		Classes:  scanClasses(e.timetable, query, filters, less),
		Subjects: scanSubjects(e.timetable, query, filters, less),
	}
	e.logger.Debug("scan completed",
		zap.String("query", query),
		zap.Int("teachers", len(e.results.Teachers)),
		zap.Int("classes", len(e.results.Classes)),
		zap.Int("subjects", len(e.results.Subjects)),
		zap.Duration("took", time.Since(started)),
	)
}

func (e *Engine) recordHistoryLocked() {
	if len(strings.TrimSpace(e.query)) < e.minQuery {
		return
	}
	e.pushHistoryLocked(e.query)
}

func (e *Engine) pushHistoryLocked(query string) {
	if strings.TrimSpace(query) == "" {
		return
	}
	e.history = pushHistory(e.history, models.NewHistoryEntry(query, e.filters), e.limit)
	e.persistLocked()
}

func (e *Engine) loadHistory() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	entries, err := e.store.Load(ctx)
	if err != nil {
		// History is a convenience; a broken store never fails the engine.
		e.logger.Warn("history load failed", zap.Error(err))
		return
	}
	if e.limit > 0 && len(entries) > e.limit {
		entries = entries[:e.limit]
	}
	e.history = entries
}

func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.store.Save(ctx, e.history); err != nil {
		e.logger.Warn("history save failed", zap.Error(err))
	}
}

func errUnknownFacet(facet string) error {
	return fmt.Errorf("unknown filter facet %q", facet)
}

func errHistoryIndex(index int) error {
	return fmt.Errorf("history index %d out of range", index)
}

func emptyResultSet() models.ResultSet {
	return models.ResultSet{
		Teachers: []models.TeacherResult{},
		Classes:  []models.ClassResult{},
		Subjects: []models.SubjectResult{},
	}
}

// CanonicalDay maps case-insensitive weekday input to its canonical form.
// Unknown values pass through trimmed.
func CanonicalDay(value string) string {
	return canonicalDay(value)
}

// ParseBound parses a period bound the way SetFilter does: empty or
// unparsable input means unconstrained.
func ParseBound(value string) *int {
	return parseBound(value)
}

func canonicalDay(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	for _, day := range models.Weekdays {
		if strings.EqualFold(day, trimmed) {
			return day
		}
	}
	return trimmed
}

// parseBound maps empty or unparsable input to nil (unconstrained) instead of
// coercing to zero.
func parseBound(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
