package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/service"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
	"github.com/chowchow0048/PMS/pkg/response"
)

type attendanceService interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.ClinicAttendanceDetail, error)
	MarkAttendance(ctx context.Context, id string, outcome models.AttendanceType) (*models.ClinicAttendance, error)
	Delete(ctx context.Context, id string) error
	BulkCreateForToday(ctx context.Context, clinicID string) (*service.BulkCreateResult, error)
	ExportCSV(ctx context.Context, filter models.AttendanceFilter) ([]byte, error)
	ExportPDF(ctx context.Context, filter models.AttendanceFilter) ([]byte, error)
}

// AttendanceHandler exposes the attendance ledger endpoints.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

func attendanceFilterFromQuery(c *gin.Context) (models.AttendanceFilter, error) {
	filter := models.AttendanceFilter{ClinicID: c.Query("clinicId")}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		filter.Date = &date
	}
	return filter, nil
}

// List godoc
// @Summary List attendance records
// @Tags Attendances
// @Produce json
// @Param clinicId query string false "Filter by clinic"
// @Param date query string false "Occurrence date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendances [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter, err := attendanceFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

type markAttendancePayload struct {
	Outcome models.AttendanceType `json:"attendance_type" binding:"required"`
}

// Update godoc
// @Summary Update an attendance outcome
// @Tags Attendances
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body markAttendancePayload true "Outcome payload"
// @Success 200 {object} response.Envelope
// @Router /attendances/{id} [patch]
func (h *AttendanceHandler) Update(c *gin.Context) {
	var payload markAttendancePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.MarkAttendance(c.Request.Context(), c.Param("id"), payload.Outcome)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete godoc
// @Summary Delete an attendance record
// @Tags Attendances
// @Param id path string true "Attendance ID"
// @Success 204
// @Router /attendances/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	if err := h.attendance.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type bulkCreatePayload struct {
	ClinicID string `json:"clinic_id" binding:"required"`
}

// BulkCreateToday godoc
// @Summary Ensure attendance records exist for a clinic's roster today
// @Tags Attendances
// @Accept json
// @Produce json
// @Param payload body bulkCreatePayload true "Clinic payload"
// @Success 201 {object} response.Envelope
// @Router /attendances/bulk-create-today [post]
func (h *AttendanceHandler) BulkCreateToday(c *gin.Context) {
	var payload bulkCreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.attendance.BulkCreateForToday(c.Request.Context(), payload.ClinicID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Export godoc
// @Summary Export attendance records
// @Tags Attendances
// @Produce text/csv
// @Param clinicId query string false "Filter by clinic"
// @Param date query string false "Occurrence date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /attendances/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	filter, err := attendanceFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stamp := time.Now().Format("20060102")
	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		data, err := h.attendance.ExportPDF(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance_%s.pdf", stamp))
		c.Data(http.StatusOK, "application/pdf", data)
	case "csv":
		data, err := h.attendance.ExportCSV(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance_%s.csv", stamp))
		c.Data(http.StatusOK, "text/csv", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
