package bookings

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers booking routes on an authenticated group. The
// lock routes live in the locks package and share the /bookings prefix.
func SetupRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", ctrl.CreateBooking)
		bookings.GET("/:id", ctrl.GetBooking)
		bookings.GET("/:id/status", ctrl.GetBookingStatus)
		bookings.POST("/:id/cancel", ctrl.CancelBooking)
		bookings.GET("/user/:userId", ctrl.ListUserBookings)
	}
}
