package payments

import (
	"errors"
	"net/http"

	"cinebook/internal/bookings"
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

// CreateOrder handles POST /payments/create-order
func (ctrl *Controller) CreateOrder(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := ctrl.service.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		ctrl.respondError(c, err, "Failed to create payment order")
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment order created successfully", resp, nil)
}

// Verify handles POST /payments/verify
func (ctrl *Controller) Verify(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := ctrl.service.Verify(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Payment verification failed", nil, nil)
			return
		}
		ctrl.respondError(c, err, "Failed to verify payment")
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment verified successfully", resp, nil)
}

// Abandon handles POST /payments/:bookingId/abandon, the checkout
// dismissed callback.
func (ctrl *Controller) Abandon(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	if err := ctrl.service.Abandon(c.Request.Context(), userID, c.Param("bookingId")); err != nil {
		ctrl.respondError(c, err, "Failed to abandon payment")
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment window closed, booking cancelled", nil, nil)
}

func (ctrl *Controller) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, bookings.ErrBookingNotFound), errors.Is(err, ErrOrderNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, "Not found", nil, nil)
	case errors.Is(err, bookings.ErrNotBookingOwner):
		response.RespondJSON(c, "error", http.StatusForbidden, "Booking belongs to another user", nil, nil)
	case errors.Is(err, ErrPaymentNotAllowed), errors.Is(err, bookings.ErrInvalidTransition):
		response.RespondJSON(c, "error", http.StatusConflict, "Booking is not payable in its current state", nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, fallback, nil, err.Error())
	}
}

// SetupRoutes registers payment routes on an authenticated group.
func SetupRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	payments := rg.Group("/payments")
	{
		payments.POST("/create-order", ctrl.CreateOrder)
		payments.POST("/verify", ctrl.Verify)
		payments.POST("/:bookingId/abandon", ctrl.Abandon)
	}
}
