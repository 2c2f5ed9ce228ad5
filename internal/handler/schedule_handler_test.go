package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chowchow0048/PMS/internal/models"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
)

type scheduleServiceMock struct {
	weeklyResp *models.WeeklySchedule
	weeklyErr  error
	todayResp  []models.ScheduleCell
	todayErr   error
}

func (m *scheduleServiceMock) WeeklySchedule(ctx context.Context) (*models.WeeklySchedule, error) {
	return m.weeklyResp, m.weeklyErr
}

func (m *scheduleServiceMock) TodaySchedule(ctx context.Context) ([]models.ScheduleCell, error) {
	return m.todayResp, m.todayErr
}

func TestScheduleHandlerWeekly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{
		weeklyResp: &models.WeeklySchedule{
			Days:         models.WeekdayOrder,
			Times:        []string{"19:00"},
			TotalClinics: 1,
		},
	}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/clinics/weekly-schedule", nil)
	c.Request = req
	handler.Weekly(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.WeeklySchedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.TotalClinics)
	assert.Len(t, envelope.Data.Days, 7)
}

func TestScheduleHandlerWeeklyError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{weeklyErr: appErrors.ErrInternal})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/clinics/weekly-schedule", nil)
	c.Request = req
	handler.Weekly(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestScheduleHandlerToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clinicID := "clinic-1"
	mockSvc := &scheduleServiceMock{
		todayResp: []models.ScheduleCell{{ClinicID: &clinicID, Capacity: 10}},
	}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/clinics/today", nil)
	c.Request = req
	handler.Today(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.ScheduleCell `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "clinic-1", *envelope.Data[0].ClinicID)
}
