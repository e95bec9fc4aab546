package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-search-api/internal/models"
	"github.com/noah-isme/timetable-search-api/internal/search"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
)

type resultCache interface {
	Key(query string, filters models.FilterSet) string
	Get(ctx context.Context, key string) (*models.ResultSet, error)
	Set(ctx context.Context, key string, results models.ResultSet, ttl time.Duration) error
}

// SearchService fronts the search engine for stateless HTTP requests. Each
// request carries its full query and filter tuple, so the service pins the
// engine state for the duration of one scan.
type SearchService struct {
	engine    *search.Engine
	cache     resultCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewSearchService constructs a SearchService.
func NewSearchService(engine *search.Engine, cache resultCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *SearchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		engine:    engine,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// Search runs a query with the given filters, serving from the result cache
// when possible. Either path records the query in history.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (models.ResultSet, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ResultSet{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search request")
	}

	normalized := strings.ToLower(strings.TrimSpace(req.Query))
	filters := req.Filters.Normalize()

	if s.cache != nil && normalized != "" {
		key := s.cache.Key(normalized, filters)
		if cached, err := s.cache.Get(ctx, key); err == nil {
			s.metrics.RecordCacheLookup(true)
			s.engine.AddToHistoryWith(req.Query, filters)
			return *cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("result cache lookup failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	started := time.Now()
	results := s.engine.SearchWith(req.Query, filters)
	s.metrics.ObserveScan(time.Since(started), len(results.Teachers), len(results.Classes), len(results.Subjects))

	if s.cache != nil && normalized != "" {
		key := s.cache.Key(normalized, filters)
		if err := s.cache.Set(ctx, key, results, s.cacheTTL); err != nil {
			s.logger.Warn("result cache write failed", zap.Error(err))
		}
	}
	return results, nil
}

// History returns the persisted history list, most recent first.
func (s *SearchService) History(ctx context.Context) []models.HistoryEntry {
	return s.engine.History()
}

// RemoveHistoryItem deletes one entry by position.
func (s *SearchService) RemoveHistoryItem(ctx context.Context, index int) error {
	if err := s.engine.RemoveHistoryItem(index); err != nil {
		return appErrors.Wrap(err, appErrors.ErrHistoryIndex.Code, appErrors.ErrHistoryIndex.Status, "history index out of range")
	}
	s.metrics.RecordHistoryOp("remove")
	return nil
}

// ClearHistory empties the history list.
func (s *SearchService) ClearHistory(ctx context.Context) {
	s.engine.ClearHistory()
	s.metrics.RecordHistoryOp("clear")
}

// ApplyHistoryItem re-runs a stored query with its stored filters and moves
// the entry to the front.
func (s *SearchService) ApplyHistoryItem(ctx context.Context, index int) (models.ResultSet, error) {
	results, err := s.engine.ApplyHistoryItem(index)
	if err != nil {
		return models.ResultSet{}, appErrors.Wrap(err, appErrors.ErrHistoryIndex.Code, appErrors.ErrHistoryIndex.Status, "history index out of range")
	}
	s.metrics.RecordHistoryOp("apply")
	return results, nil
}
