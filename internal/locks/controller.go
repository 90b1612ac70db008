package locks

import (
	"errors"
	"net/http"

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

// LockSeats handles POST /bookings/lock
func (ctrl *Controller) LockSeats(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	lock, err := ctrl.service.Lock(c.Request.Context(), userID, req)
	if err != nil {
		if seats, conflict := IsConflict(err); conflict {
			response.RespondJSON(c, "error", http.StatusConflict, "Some seats are no longer available", nil, map[string]interface{}{
				"conflicting_seats": seats,
			})
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to lock seats", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seats locked successfully", LockResponse{
		LockID:    lock.ID,
		ShowID:    lock.ShowID,
		Seats:     lock.Seats,
		ExpiresAt: lock.ExpiresAt,
	}, nil)
}

// UnlockSeats handles DELETE /bookings/lock/:lockId
func (ctrl *Controller) UnlockSeats(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	err := ctrl.service.Unlock(c.Request.Context(), userID, c.Param("lockId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrLockNotFound), errors.Is(err, ErrLockExpired):
			response.RespondJSON(c, "error", http.StatusNotFound, "Lock not found", nil, nil)
		case errors.Is(err, ErrNotLockOwner):
			response.RespondJSON(c, "error", http.StatusForbidden, "Lock belongs to another user", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to release lock", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Lock released successfully", nil, nil)
}

// SetupRoutes registers lock routes on an authenticated group.
func SetupRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	rg.POST("/bookings/lock", ctrl.LockSeats)
	rg.DELETE("/bookings/lock/:lockId", ctrl.UnlockSeats)
}
