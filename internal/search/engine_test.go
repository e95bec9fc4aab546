package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	loadErr error
	saveErr error
	saves   int
}

func (m *memoryStore) Load(ctx context.Context) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]models.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memoryStore) Save(ctx context.Context, entries []models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = make([]models.HistoryEntry, len(entries))
	copy(m.entries, entries)
	return nil
}

func fixtureTimetable() models.Timetable {
	return models.Timetable{
		"Monday": {
			"10A": {
				{Subject: "Mathematics", Teacher: "Rahma"},
				{Subject: "Physics/Chemistry", Teacher: "Adi/Bima"},
				{Subject: "English", Teacher: "Sari"},
				{},
				{Subject: "Biology", Teacher: "Dewi"},
				{}, {}, {},
			},
			"11B": {
				{Subject: "Mathematics", Teacher: "Rahma"},
				{Subject: "Mathematics", Teacher: "Rahma"},
				{Subject: "Mathematics", Teacher: "Rahma"},
				{}, {}, {}, {}, {},
			},
		},
		"Tuesday": {
			"10A": {
				{Subject: "English", Teacher: "Sari"},
				{},
				{Subject: "Chemistry", Teacher: "Adi"},
				{}, {}, {}, {}, {},
			},
		},
	}
}

func newTestEngine(t *testing.T, store HistoryStore) *Engine {
	t.Helper()
	engine := New(fixtureTimetable(), nil, Options{
		DebounceDelay: 30 * time.Millisecond,
		Store:         store,
	})
	t.Cleanup(engine.Close)
	return engine
}

func TestDebounceCoalescing(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store)

	for _, keystroke := range []string{"M", "Ma", "Mat", "Math"} {
		engine.SetQuery(keystroke)
	}
	time.Sleep(150 * time.Millisecond)

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Math", history[0].Query)

	results := engine.Results()
	require.Len(t, results.Subjects, 1)
	assert.Equal(t, "Mathematics", results.Subjects[0].Name)
}

func TestDebounceCancelledOnClose(t *testing.T) {
	store := &memoryStore{}
	engine := New(fixtureTimetable(), nil, Options{
		DebounceDelay: 30 * time.Millisecond,
		Store:         store,
	})

	engine.SetQuery("Math")
	engine.Close()
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, engine.History())
	assert.True(t, engine.Results().Empty())
}

func TestSearchRecordsHistory(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store)

	results := engine.Search("chemistry")
	require.Len(t, results.Subjects, 1)

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "chemistry", history[0].Query)
	assert.GreaterOrEqual(t, store.saves, 1)
}

func TestHistoryDedupAndOrdering(t *testing.T) {
	engine := newTestEngine(t, nil)

	engine.Search("algebra")
	engine.Search("geometry")
	engine.Search("algebra")

	history := engine.History()
	require.Len(t, history, 2)
	assert.Equal(t, "algebra", history[0].Query)
	assert.Equal(t, "geometry", history[1].Query)
}

func TestHistoryBound(t *testing.T) {
	engine := newTestEngine(t, nil)

	for i := 0; i < 12; i++ {
		engine.Search(fmt.Sprintf("query-%02d", i))
	}

	history := engine.History()
	require.Len(t, history, 10)
	assert.Equal(t, "query-11", history[0].Query)
	assert.Equal(t, "query-02", history[9].Query)
}

func TestTeacherAvailabilityFilter(t *testing.T) {
	engine := newTestEngine(t, nil)

	require.NoError(t, engine.SetFilter(FacetDay, "Monday"))
	require.NoError(t, engine.SetFilter(FacetPeriodStart, "3"))
	require.NoError(t, engine.SetFilter(FacetPeriodEnd, "5"))
	require.NoError(t, engine.SetFilter(FacetTeacherAvailable, "true"))

	results := engine.Search("rahma")
	require.Len(t, results.Teachers, 1)
	assert.Equal(t, "Rahma", results.Teachers[0].Name)
	assert.Equal(t, 3, results.Teachers[0].PeriodCount)

	require.NoError(t, engine.SetFilter(FacetPeriodStart, "1"))
	require.NoError(t, engine.SetFilter(FacetPeriodEnd, "3"))
	assert.Empty(t, engine.Results().Teachers)
}

func TestSubjectCompositeSplitting(t *testing.T) {
	engine := newTestEngine(t, nil)

	results := engine.Search("chemistry")
	require.Len(t, results.Subjects, 1)

	subject := results.Subjects[0]
	assert.Equal(t, "Chemistry", subject.Name)
	assert.ElementsMatch(t, []string{"Adi", "Bima"}, subject.Teachers)
	assert.Equal(t, []string{"10A"}, subject.Classes)
	// One increment per matching token: Monday composite + Tuesday plain slot.
	assert.Equal(t, 2, subject.Occurrences)
}

func TestCaseInsensitiveMatching(t *testing.T) {
	engine := newTestEngine(t, nil)

	for _, query := range []string{"ENGLISH", "english", "Engl"} {
		results := engine.Search(query)
		require.Len(t, results.Subjects, 1, "query %q", query)
		assert.Equal(t, "English", results.Subjects[0].Name)
	}
}

func TestIdempotentReset(t *testing.T) {
	engine := newTestEngine(t, nil)

	baseline := engine.Search("math")

	require.NoError(t, engine.SetFilter(FacetDay, "Tuesday"))
	engine.ResetFilters()
	engine.ResetFilters()

	assert.True(t, engine.Filters().IsZero())
	assert.Equal(t, baseline, engine.Search("math"))
}

func TestEmptyQueryShortCircuit(t *testing.T) {
	engine := newTestEngine(t, nil)

	require.NoError(t, engine.SetFilter(FacetDay, "Monday"))
	for _, query := range []string{"", "   ", "\t"} {
		results := engine.Search(query)
		assert.True(t, results.Empty(), "query %q", query)
		assert.NotNil(t, results.Teachers)
		assert.NotNil(t, results.Classes)
		assert.NotNil(t, results.Subjects)
	}
}

func TestApplyHistoryItem(t *testing.T) {
	engine := newTestEngine(t, nil)

	require.NoError(t, engine.SetFilter(FacetDay, "Monday"))
	engine.Search("english")
	engine.ResetFilters()
	engine.Search("biology")

	history := engine.History()
	require.Len(t, history, 2)
	require.Equal(t, "english", history[1].Query)

	results, err := engine.ApplyHistoryItem(1)
	require.NoError(t, err)
	require.Len(t, results.Subjects, 1)
	assert.Equal(t, "English", results.Subjects[0].Name)
	assert.Equal(t, "Monday", engine.Filters().Day)
	assert.Equal(t, "english", engine.History()[0].Query)

	_, err = engine.ApplyHistoryItem(9)
	require.Error(t, err)
}

func TestRemoveAndClearHistory(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store)

	engine.Search("algebra")
	engine.Search("geometry")

	require.NoError(t, engine.RemoveHistoryItem(0))
	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "algebra", history[0].Query)

	require.Error(t, engine.RemoveHistoryItem(5))

	engine.ClearHistory()
	assert.Empty(t, engine.History())
	assert.Empty(t, store.entries)
}

func TestHistoryLoadedAtConstruction(t *testing.T) {
	store := &memoryStore{entries: []models.HistoryEntry{
		models.NewHistoryEntry("physics", models.FilterSet{Day: "Monday"}),
	}}
	engine := newTestEngine(t, store)

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "physics", history[0].Query)
}

func TestBrokenStoreDegradesSilently(t *testing.T) {
	store := &memoryStore{loadErr: fmt.Errorf("boom"), saveErr: fmt.Errorf("boom")}
	engine := newTestEngine(t, store)

	engine.Search("algebra")
	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "algebra", history[0].Query)
}

func TestInvalidPeriodBoundIsUnconstrained(t *testing.T) {
	engine := newTestEngine(t, nil)

	require.NoError(t, engine.SetFilter(FacetPeriodStart, "not-a-number"))
	assert.Nil(t, engine.Filters().PeriodStart)

	require.Error(t, engine.SetFilter("bogus", "x"))
}

func TestNoDataSourceYieldsEmpty(t *testing.T) {
	engine := New(nil, nil, Options{})
	defer engine.Close()

	assert.True(t, engine.Search("math").Empty())
}

func TestSearchWithRecordsFilterSnapshot(t *testing.T) {
	engine := newTestEngine(t, nil)

	results := engine.SearchWith("rahma", models.FilterSet{Day: "Monday"})
	require.Len(t, results.Teachers, 1)

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "rahma", history[0].Query)
	assert.Equal(t, "Monday", history[0].Filters.Day)
}

func TestAddToHistoryWithFilterSnapshot(t *testing.T) {
	engine := newTestEngine(t, nil)

	engine.AddToHistoryWith("rahma", models.FilterSet{Day: "Tuesday"})

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Tuesday", history[0].Filters.Day)
}

func TestSearchWithIsolatesConcurrentFilters(t *testing.T) {
	engine := newTestEngine(t, nil)

	// Rahma is occupied Monday periods 0-2, so the availability window must
	// always exclude her, no matter what a concurrent caller is scanning.
	window := models.FilterSet{
		Day:              "Monday",
		PeriodStart:      intPtr(0),
		PeriodEnd:        intPtr(2),
		TeacherAvailable: true,
	}

	const iterations = 2000
	var wrongFiltered, wrongUnfiltered int64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if got := engine.SearchWith("rahma", window); len(got.Teachers) != 0 {
				atomic.AddInt64(&wrongFiltered, 1)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if got := engine.SearchWith("rahma", models.FilterSet{}); len(got.Teachers) != 1 {
				atomic.AddInt64(&wrongUnfiltered, 1)
			}
		}
	}()
	wg.Wait()

	assert.Zero(t, atomic.LoadInt64(&wrongFiltered))
	assert.Zero(t, atomic.LoadInt64(&wrongUnfiltered))
}
