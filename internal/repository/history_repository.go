package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

// historySchemaVersion guards the persisted document layout so the format can
// evolve without breaking previously stored history.
const historySchemaVersion = 1

type historyDocument struct {
	Version int                   `json:"version"`
	Entries []models.HistoryEntry `json:"entries"`
}

// HistoryRepository persists the search history list as a single versioned
// JSON document under one Redis key. It satisfies search.HistoryStore.
type HistoryRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewHistoryRepository constructs a history repository.
func NewHistoryRepository(client *redis.Client, key string, logger *zap.Logger) *HistoryRepository {
	if key == "" {
		key = "search:history"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRepository{client: client, key: key, logger: logger}
}

// Load reads the stored history list. A missing key yields an empty list; a
// corrupt or unversioned document resets history to empty rather than being
// repaired.
func (r *HistoryRepository) Load(ctx context.Context) ([]models.HistoryEntry, error) {
	if r.client == nil {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	entries, err := decodeHistoryDocument(raw)
	if err != nil {
		r.logger.Warn("discarding unreadable search history",
			zap.String("key", r.key),
			zap.Error(err),
		)
		if delErr := r.client.Del(ctx, r.key).Err(); delErr != nil {
			r.logger.Warn("failed to drop corrupt history", zap.Error(delErr))
		}
		return nil, nil
	}

	return entries, nil
}

// decodeHistoryDocument parses a stored history payload. It fails on malformed
// JSON and on any schema version other than the current one; callers treat
// either as a signal to reset history.
func decodeHistoryDocument(raw []byte) ([]models.HistoryEntry, error) {
	var doc historyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	if doc.Version != historySchemaVersion {
		return nil, fmt.Errorf("unsupported history schema version %d", doc.Version)
	}
	return doc.Entries, nil
}

// Save overwrites the stored history list.
func (r *HistoryRepository) Save(ctx context.Context, entries []models.HistoryEntry) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(historyDocument{Version: historySchemaVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
