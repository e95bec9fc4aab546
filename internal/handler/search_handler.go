package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-search-api/internal/models"
	"github.com/noah-isme/timetable-search-api/internal/search"
	"github.com/noah-isme/timetable-search-api/internal/service"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
	"github.com/noah-isme/timetable-search-api/pkg/response"
)

// SearchHandler exposes the search and history endpoints.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(searchSvc *service.SearchService) *SearchHandler {
	return &SearchHandler{search: searchSvc}
}

func searchRequestFromQuery(c *gin.Context) models.SearchRequest {
	available, _ := strconv.ParseBool(c.Query("available"))
	return models.SearchRequest{
		Query: c.Query("q"),
		Filters: models.FilterSet{
			Day:              search.CanonicalDay(c.Query("day")),
			PeriodStart:      search.ParseBound(c.Query("period_start")),
			PeriodEnd:        search.ParseBound(c.Query("period_end")),
			Subject:          c.Query("subject"),
			TeacherAvailable: available,
		},
	}
}

func historyIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "index must be an integer")
	}
	return index, nil
}

// Search godoc
// @Summary Search teachers, classes and subjects
// @Tags Search
// @Produce json
// @Param q query string false "Query text"
// @Param day query string false "Weekday filter"
// @Param period_start query int false "First period of the availability window"
// @Param period_end query int false "Last period of the availability window"
// @Param subject query string false "Subject filter"
// @Param available query bool false "Only free teachers in the window"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	results, err := h.search.Search(c.Request.Context(), searchRequestFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// History godoc
// @Summary List recent searches
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /search/history [get]
func (h *SearchHandler) History(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.search.History(c.Request.Context()), nil)
}

// ApplyHistory godoc
// @Summary Re-run a stored search
// @Tags History
// @Produce json
// @Param index path int true "History position, most recent first"
// @Success 200 {object} response.Envelope
// @Router /search/history/{index}/apply [post]
func (h *SearchHandler) ApplyHistory(c *gin.Context) {
	index, err := historyIndex(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.search.ApplyHistoryItem(c.Request.Context(), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// RemoveHistory godoc
// @Summary Delete one history entry
// @Tags History
// @Param index path int true "History position, most recent first"
// @Success 204
// @Router /search/history/{index} [delete]
func (h *SearchHandler) RemoveHistory(c *gin.Context) {
	index, err := historyIndex(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.search.RemoveHistoryItem(c.Request.Context(), index); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearHistory godoc
// @Summary Delete the whole history list
// @Tags History
// @Success 204
// @Router /search/history [delete]
func (h *SearchHandler) ClearHistory(c *gin.Context) {
	h.search.ClearHistory(c.Request.Context())
	response.NoContent(c)
}
