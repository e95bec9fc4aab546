package search

import (
	"context"
	"strings"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

// HistoryStore abstracts durable persistence for the history list. The engine
// calls Save on every mutation and Load once at construction; both are
// best-effort from the engine's point of view.
type HistoryStore interface {
	Load(ctx context.Context) ([]models.HistoryEntry, error)
	Save(ctx context.Context, entries []models.HistoryEntry) error
}

// pushHistory inserts a new entry at the front, removing any prior entry with
// the same trimmed query (the newer filter snapshot wins) and truncating to
// the limit. The input slice is not mutated.
func pushHistory(entries []models.HistoryEntry, entry models.HistoryEntry, limit int) []models.HistoryEntry {
	query := strings.TrimSpace(entry.Query)
	if query == "" {
		return entries
	}
	entry.Query = query

	out := make([]models.HistoryEntry, 0, len(entries)+1)
	out = append(out, entry)
	for _, existing := range entries {
		if existing.Query == query {
			continue
		}
		out = append(out, existing)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// removeHistoryAt drops the entry at index, returning the original slice and
// false when the index is out of range.
func removeHistoryAt(entries []models.HistoryEntry, index int) ([]models.HistoryEntry, bool) {
	if index < 0 || index >= len(entries) {
		return entries, false
	}
	out := make([]models.HistoryEntry, 0, len(entries)-1)
	out = append(out, entries[:index]...)
	out = append(out, entries[index+1:]...)
	return out, true
}
