package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-search-api/internal/service"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
	"github.com/noah-isme/timetable-search-api/pkg/response"
)

// ExportHandler exposes result export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an export handler. A nil service means exports
// are disabled by configuration.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func (h *ExportHandler) disabled(c *gin.Context) bool {
	if h.exports == nil {
		response.Error(c, appErrors.ErrExportDisabled)
		return true
	}
	return false
}

// ExportCSV godoc
// @Summary Export search results as CSV
// @Tags Export
// @Produce text/csv
// @Param q query string false "Query text"
// @Success 200 {string} string "CSV payload"
// @Router /search/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	if h.disabled(c) {
		return
	}
	payload, name, err := h.exports.ExportCSV(c.Request.Context(), searchRequestFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// EnqueuePDF godoc
// @Summary Queue a PDF export of search results
// @Tags Export
// @Produce json
// @Param q query string false "Query text"
// @Success 202 {object} response.Envelope
// @Router /search/export/pdf [post]
func (h *ExportHandler) EnqueuePDF(c *gin.Context) {
	if h.disabled(c) {
		return
	}
	job, err := h.exports.EnqueuePDF(c.Request.Context(), searchRequestFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Job godoc
// @Summary Export job status
// @Tags Export
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /search/export/jobs/{id} [get]
func (h *ExportHandler) Job(c *gin.Context) {
	if h.disabled(c) {
		return
	}
	job, err := h.exports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Export
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {string} string "PDF payload"
// @Router /search/export/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.disabled(c) {
		return
	}
	file, name, err := h.exports.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
