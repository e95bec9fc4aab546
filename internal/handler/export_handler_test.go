package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportHandlerDisabled(t *testing.T) {
	h := NewExportHandler(nil)

	w := performRequest(t, h.ExportCSV, http.MethodGet, "/search/export/csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(t, h.EnqueuePDF, http.MethodPost, "/search/export/pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(t, h.Download, http.MethodGet, "/search/export/download/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
