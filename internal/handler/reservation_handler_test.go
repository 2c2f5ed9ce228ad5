package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chowchow0048/PMS/internal/middleware"
	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/service"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
)

type reservationServiceMock struct {
	reserveResp *service.ReservationResult
	reserveErr  error
	cancelResp  *service.ReservationResult
	cancelErr   error
	lastReserve service.ReserveRequest
	lastCancel  service.CancelRequest
}

func (m *reservationServiceMock) Reserve(ctx context.Context, req service.ReserveRequest) (*service.ReservationResult, error) {
	m.lastReserve = req
	return m.reserveResp, m.reserveErr
}

func (m *reservationServiceMock) Cancel(ctx context.Context, req service.CancelRequest) (*service.ReservationResult, error) {
	m.lastCancel = req
	return m.cancelResp, m.cancelErr
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body interface{}, claims *models.JWTClaims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	handler(c)
	return w
}

func TestReservationHandlerReserveUsesCallerIdentity(t *testing.T) {
	mockSvc := &reservationServiceMock{
		reserveResp: &service.ReservationResult{RemainingSpots: 4},
	}
	handler := NewReservationHandler(mockSvc)

	w := postJSON(t, handler.Reserve, "/clinics/reserve",
		gin.H{"clinic_id": "clinic-1"},
		&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastReserve.StudentID)
	assert.Equal(t, "clinic-1", mockSvc.lastReserve.ClinicID)
}

func TestReservationHandlerStudentCannotReserveForOthers(t *testing.T) {
	mockSvc := &reservationServiceMock{}
	handler := NewReservationHandler(mockSvc)

	w := postJSON(t, handler.Reserve, "/clinics/reserve",
		gin.H{"clinic_id": "clinic-1", "student_id": "stu-2"},
		&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, mockSvc.lastReserve.StudentID)
}

func TestReservationHandlerAdminReservesOnBehalf(t *testing.T) {
	mockSvc := &reservationServiceMock{
		reserveResp: &service.ReservationResult{RemainingSpots: 2},
	}
	handler := NewReservationHandler(mockSvc)

	w := postJSON(t, handler.Reserve, "/clinics/reserve",
		gin.H{"clinic_id": "clinic-1", "student_id": "stu-2"},
		&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-2", mockSvc.lastReserve.StudentID)
}

func TestReservationHandlerReserveConflictStatus(t *testing.T) {
	mockSvc := &reservationServiceMock{reserveErr: appErrors.ErrCapacityExceeded}
	handler := NewReservationHandler(mockSvc)

	w := postJSON(t, handler.Reserve, "/clinics/reserve",
		gin.H{"clinic_id": "clinic-1"},
		&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, envelope.Error.Code)
}

func TestReservationHandlerReserveRequiresAuth(t *testing.T) {
	handler := NewReservationHandler(&reservationServiceMock{})

	w := postJSON(t, handler.Reserve, "/clinics/reserve", gin.H{"clinic_id": "clinic-1"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReservationHandlerReserveRejectsMissingClinic(t *testing.T) {
	handler := NewReservationHandler(&reservationServiceMock{})

	w := postJSON(t, handler.Reserve, "/clinics/reserve", gin.H{},
		&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationHandlerCancel(t *testing.T) {
	mockSvc := &reservationServiceMock{
		cancelResp: &service.ReservationResult{RemainingSpots: 6},
	}
	handler := NewReservationHandler(mockSvc)

	w := postJSON(t, handler.Cancel, "/clinics/cancel",
		gin.H{"clinic_id": "clinic-1"},
		&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastCancel.StudentID)
}

func TestReservationHandlerCancelDisabledStatus(t *testing.T) {
	mockSvc := &reservationServiceMock{cancelErr: appErrors.ErrCancellationDisabled}
	handler := NewReservationHandler(mockSvc)

	w := postJSON(t, handler.Cancel, "/clinics/cancel",
		gin.H{"clinic_id": "clinic-1"},
		&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	require.Equal(t, http.StatusForbidden, w.Code)
}
