package routes

import (
	"tidycrm/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	pricing := r.Group("/api/pricing")
	{
		pricing.POST("/quote", h.Quote)
	}

	bookings := r.Group("/api/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.POST("/conflicts", h.CheckConflicts)
		bookings.POST("/:id/status", h.ChangeStatus)
		bookings.POST("/:id/payment-status", h.ChangePaymentStatus)
		bookings.GET("/:id/history", h.GetHistory)
	}

	recurring := r.Group("/api/recurring")
	{
		recurring.POST("", h.CreateGroup)
		recurring.PATCH("/:id", h.EditScoped)
		recurring.DELETE("/:id", h.DeleteScoped)
		recurring.GET("/group/:groupId", h.GetGroup)
	}
}
