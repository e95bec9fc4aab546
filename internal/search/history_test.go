package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

func entry(query string) models.HistoryEntry {
	return models.NewHistoryEntry(query, models.FilterSet{})
}

func queries(entries []models.HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Query)
	}
	return out
}

func TestPushHistoryDedup(t *testing.T) {
	list := pushHistory(nil, entry("algebra"), 10)
	list = pushHistory(list, entry("geometry"), 10)
	list = pushHistory(list, entry("algebra"), 10)

	assert.Equal(t, []string{"algebra", "geometry"}, queries(list))
}

func TestPushHistoryNewerFiltersWin(t *testing.T) {
	list := pushHistory(nil, models.NewHistoryEntry("algebra", models.FilterSet{Day: "Monday"}), 10)
	list = pushHistory(list, models.NewHistoryEntry("algebra", models.FilterSet{Day: "Friday"}), 10)

	require.Len(t, list, 1)
	assert.Equal(t, "Friday", list[0].Filters.Day)
}

func TestPushHistoryTrimsQuery(t *testing.T) {
	list := pushHistory(nil, entry("  algebra  "), 10)
	require.Len(t, list, 1)
	assert.Equal(t, "algebra", list[0].Query)

	list = pushHistory(list, entry("algebra"), 10)
	assert.Len(t, list, 1)
}

func TestPushHistoryIgnoresBlank(t *testing.T) {
	assert.Empty(t, pushHistory(nil, entry("   "), 10))
}

func TestPushHistoryBound(t *testing.T) {
	var list []models.HistoryEntry
	for _, q := range []string{"a", "b", "c", "d"} {
		list = pushHistory(list, entry(q), 3)
	}
	assert.Equal(t, []string{"d", "c", "b"}, queries(list))
}

func TestRemoveHistoryAt(t *testing.T) {
	list := pushHistory(nil, entry("a"), 10)
	list = pushHistory(list, entry("b"), 10)

	next, ok := removeHistoryAt(list, 0)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, queries(next))

	_, ok = removeHistoryAt(next, 3)
	assert.False(t, ok)
	_, ok = removeHistoryAt(next, -1)
	assert.False(t, ok)
}
