package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/service"
	appErrors "github.com/chowchow0048/PMS/pkg/errors"
	"github.com/chowchow0048/PMS/pkg/response"
)

type reservationService interface {
	Reserve(ctx context.Context, req service.ReserveRequest) (*service.ReservationResult, error)
	Cancel(ctx context.Context, req service.CancelRequest) (*service.ReservationResult, error)
}

// ReservationHandler exposes the reserve and cancel endpoints.
type ReservationHandler struct {
	reservations reservationService
}

// NewReservationHandler constructs ReservationHandler.
func NewReservationHandler(reservations reservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type reservationPayload struct {
	ClinicID  string `json:"clinic_id" binding:"required"`
	StudentID string `json:"student_id"`
}

// resolveStudent returns the reservation subject: callers act on their own
// seat unless they hold an admin or teacher role.
func resolveStudent(c *gin.Context, requested string) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if requested == "" || requested == claims.UserID {
		return claims.UserID, nil
	}
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleTeacher {
		return requested, nil
	}
	return "", appErrors.Clone(appErrors.ErrForbidden, "cannot reserve on behalf of another student")
}

// Reserve godoc
// @Summary Reserve a clinic seat
// @Tags Clinics
// @Accept json
// @Produce json
// @Param payload body reservationPayload true "Reservation payload"
// @Success 200 {object} response.Envelope
// @Router /clinics/reserve [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var payload reservationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, err := resolveStudent(c, payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.reservations.Reserve(c.Request.Context(), service.ReserveRequest{
		StudentID: studentID,
		ClinicID:  payload.ClinicID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Cancel godoc
// @Summary Cancel a clinic reservation
// @Tags Clinics
// @Accept json
// @Produce json
// @Param payload body reservationPayload true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /clinics/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	var payload reservationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, err := resolveStudent(c, payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.reservations.Cancel(c.Request.Context(), service.CancelRequest{
		StudentID: studentID,
		ClinicID:  payload.ClinicID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
