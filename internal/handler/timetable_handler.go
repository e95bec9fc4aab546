package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-search-api/internal/service"
	"github.com/noah-isme/timetable-search-api/pkg/response"
)

// TimetableHandler exposes direct timetable lookups.
type TimetableHandler struct {
	timetable *service.TimetableService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(timetable *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable}
}

// Ready godoc
// @Summary Readiness probe
// @Tags Observability
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *TimetableHandler) Ready(c *gin.Context) {
	if err := h.timetable.Ready(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ready"}, nil)
}

// Days godoc
// @Summary Weekdays with scheduled classes
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/days [get]
func (h *TimetableHandler) Days(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.timetable.Days(), nil)
}

// Classes godoc
// @Summary All class names
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/classes [get]
func (h *TimetableHandler) Classes(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.timetable.Classes(), nil)
}

// ClassSchedule godoc
// @Summary Week schedule for one class
// @Tags Timetable
// @Produce json
// @Param name path string true "Class name"
// @Success 200 {object} response.Envelope
// @Router /timetable/classes/{name} [get]
func (h *TimetableHandler) ClassSchedule(c *gin.Context) {
	schedule, err := h.timetable.ClassSchedule(c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Teachers godoc
// @Summary All teacher names
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers [get]
func (h *TimetableHandler) Teachers(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.timetable.Teachers(), nil)
}

// Teacher godoc
// @Summary Aggregated view of one teacher
// @Tags Timetable
// @Produce json
// @Param name path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{name} [get]
func (h *TimetableHandler) Teacher(c *gin.Context) {
	detail, err := h.timetable.Teacher(c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
