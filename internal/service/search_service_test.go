package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-search-api/internal/models"
	"github.com/noah-isme/timetable-search-api/internal/search"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
)

type fakeResultCache struct {
	entries map[string]models.ResultSet
	sets    int
	failGet bool
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{entries: map[string]models.ResultSet{}}
}

func (c *fakeResultCache) Key(query string, filters models.FilterSet) string {
	return query + "|" + filters.CacheKey()
}

func (c *fakeResultCache) Get(_ context.Context, key string) (*models.ResultSet, error) {
	if c.failGet {
		return nil, assert.AnError
	}
	cached, ok := c.entries[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return &cached, nil
}

func (c *fakeResultCache) Set(_ context.Context, key string, results models.ResultSet, _ time.Duration) error {
	c.entries[key] = results
	c.sets++
	return nil
}

func serviceFixtureEngine(t *testing.T) *search.Engine {
	t.Helper()
	tt := models.Timetable{
		"Monday": {
			"10A": {
				{Subject: "Mathematics", Teacher: "Rahma"},
				{Subject: "English", Teacher: "Sari"},
				{},
			},
		},
	}
	return search.New(tt, nil, search.Options{})
}

func TestSearchServiceScanPopulatesCache(t *testing.T) {
	engine := serviceFixtureEngine(t)
	defer engine.Close()
	cache := newFakeResultCache()
	svc := NewSearchService(engine, cache, time.Minute, nil, nil, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Query: "rahma"})
	require.NoError(t, err)
	require.Len(t, results.Teachers, 1)
	assert.Equal(t, "Rahma", results.Teachers[0].Name)
	assert.Equal(t, 1, cache.sets)

	history := svc.History(context.Background())
	require.Len(t, history, 1)
	assert.Equal(t, "rahma", history[0].Query)
}

func TestSearchServiceCacheHitSkipsScan(t *testing.T) {
	engine := serviceFixtureEngine(t)
	defer engine.Close()
	cache := newFakeResultCache()
	svc := NewSearchService(engine, cache, time.Minute, nil, nil, nil)

	// A sentinel snapshot distinguishable from a live scan.
	sentinel := models.ResultSet{Teachers: []models.TeacherResult{{Name: "Cached"}}}
	cache.entries[cache.Key("rahma", models.FilterSet{}.Normalize())] = sentinel

	results, err := svc.Search(context.Background(), models.SearchRequest{Query: "Rahma"})
	require.NoError(t, err)
	require.Len(t, results.Teachers, 1)
	assert.Equal(t, "Cached", results.Teachers[0].Name)
	assert.Zero(t, cache.sets)

	// The cache hit still lands in history.
	history := svc.History(context.Background())
	require.Len(t, history, 1)
	assert.Equal(t, "Rahma", history[0].Query)
}

func TestSearchServiceCacheFailureFallsThrough(t *testing.T) {
	engine := serviceFixtureEngine(t)
	defer engine.Close()
	cache := newFakeResultCache()
	cache.failGet = true
	svc := NewSearchService(engine, cache, time.Minute, nil, nil, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Query: "sari"})
	require.NoError(t, err)
	assert.Len(t, results.Teachers, 1)
}

func TestSearchServiceWithoutCache(t *testing.T) {
	engine := serviceFixtureEngine(t)
	defer engine.Close()
	svc := NewSearchService(engine, nil, 0, nil, nil, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Query: "math"})
	require.NoError(t, err)
	assert.Len(t, results.Subjects, 1)
}

func TestSearchServiceValidation(t *testing.T) {
	engine := serviceFixtureEngine(t)
	defer engine.Close()
	svc := NewSearchService(engine, nil, 0, nil, nil, nil)

	_, err := svc.Search(context.Background(), models.SearchRequest{Query: strings.Repeat("x", 200)})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSearchServiceHistoryOperations(t *testing.T) {
	engine := serviceFixtureEngine(t)
	defer engine.Close()
	svc := NewSearchService(engine, nil, 0, nil, nil, nil)

	_, err := svc.Search(context.Background(), models.SearchRequest{Query: "rahma"})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), models.SearchRequest{Query: "sari"})
	require.NoError(t, err)

	results, err := svc.ApplyHistoryItem(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, results.Teachers, 1)
	assert.Equal(t, "rahma", svc.History(context.Background())[0].Query)

	require.NoError(t, svc.RemoveHistoryItem(context.Background(), 0))
	assert.Len(t, svc.History(context.Background()), 1)

	err = svc.RemoveHistoryItem(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHistoryIndex.Code, appErrors.FromError(err).Code)

	svc.ClearHistory(context.Background())
	assert.Empty(t, svc.History(context.Background()))
}
