package bookings

import (
	"errors"
	"net/http"

	"cinebook/internal/locks"
	"cinebook/internal/shared/middleware"
	"cinebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking handles POST /bookings
func (ctrl *Controller) CreateBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		if seats, ok := locks.IsConflict(err); ok {
			response.RespondJSON(c, "error", http.StatusConflict, "Some seats are no longer available", gin.H{
				"conflicting_seats": seats,
			}, nil)
			return
		}
		switch {
		case errors.Is(err, ErrNoSeatsRequested):
			response.RespondJSON(c, "error", http.StatusBadRequest, "Either lock_id or show_id with seats is required", nil, nil)
		case errors.Is(err, locks.ErrLockNotFound), errors.Is(err, locks.ErrLockExpired):
			response.RespondJSON(c, "error", http.StatusGone, "Seat lock has expired, please reselect seats", nil, nil)
		case errors.Is(err, locks.ErrNotLockOwner):
			response.RespondJSON(c, "error", http.StatusForbidden, "Lock belongs to another user", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create booking", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

// GetBooking handles GET /bookings/:id
func (ctrl *Controller) GetBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	booking, err := ctrl.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		ctrl.respondLoadError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking fetched successfully", booking, nil)
}

// GetBookingStatus handles GET /bookings/:id/status, the poll target
// for client reconciliation.
func (ctrl *Controller) GetBookingStatus(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	status, err := ctrl.service.GetStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		ctrl.respondLoadError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking status fetched successfully", status, nil)
}

// CancelBooking handles POST /bookings/:id/cancel
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req CancelBookingRequest
	// Body is optional; an empty one means user-initiated.
	_ = c.ShouldBindJSON(&req)

	err := ctrl.service.CancelByUser(c.Request.Context(), userID, c.Param("id"), CancelReason(req.Reason))
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			response.RespondJSON(c, "error", http.StatusConflict, "Booking is already confirmed and cannot be cancelled", nil, nil)
			return
		}
		ctrl.respondLoadError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

// ListUserBookings handles GET /bookings/user/:userId
func (ctrl *Controller) ListUserBookings(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}
	if c.Param("userId") != userID {
		response.RespondJSON(c, "error", http.StatusForbidden, "Cannot view another user's bookings", nil, nil)
		return
	}

	items, err := ctrl.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch bookings", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Bookings fetched successfully", items, nil)
}

func (ctrl *Controller) respondLoadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, nil)
	case errors.Is(err, ErrNotBookingOwner):
		response.RespondJSON(c, "error", http.StatusForbidden, "Booking belongs to another user", nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to load booking", nil, err.Error())
	}
}
