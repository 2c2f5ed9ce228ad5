package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/pkg/response"
)

type scheduleService interface {
	WeeklySchedule(ctx context.Context) (*models.WeeklySchedule, error)
	TodaySchedule(ctx context.Context) ([]models.ScheduleCell, error)
}

// ScheduleHandler exposes the read-only schedule views.
type ScheduleHandler struct {
	schedule scheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedule scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// Weekly godoc
// @Summary Weekly clinic schedule grid
// @Tags Clinics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /clinics/weekly-schedule [get]
func (h *ScheduleHandler) Weekly(c *gin.Context) {
	grid, err := h.schedule.WeeklySchedule(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// Today godoc
// @Summary Clinics running today
// @Tags Clinics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /clinics/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	cells, err := h.schedule.TodaySchedule(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells)
}
