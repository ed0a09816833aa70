package handlers

import (
	"net/http"

	"tidycrm/models"
	"tidycrm/services/booking"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Groups  booking.GroupManager
	Status  booking.StatusService
	Pricing booking.PricingEngine
	Detect  booking.ConflictDetector
}

// NewBookingHandler wires a handler over the engine services.
func NewBookingHandler(groups booking.GroupManager, status booking.StatusService, pricing booking.PricingEngine, detect booking.ConflictDetector) *BookingHandler {
	return &BookingHandler{Groups: groups, Status: status, Pricing: pricing, Detect: detect}
}

// CreateBooking creates a single non-recurring booking through the
// conflict-checked insert path.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input models.Booking
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	created, err := h.Groups.CreateBooking(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CheckConflicts dry-runs conflict detection for a candidate assignment and
// returns the colliding bookings.
func (h *BookingHandler) CheckConflicts(c *gin.Context) {
	var cand booking.Candidate
	if err := c.ShouldBindJSON(&cand); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	conflicts, err := h.Detect.FindConflicts(c.Request.Context(), cand)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     conflicts,
	})
}

// ChangeStatus applies a booking status transition.
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	id := c.Param("id")
	var input struct {
		Status    models.BookingStatus `json:"status" binding:"required"`
		ChangedBy string               `json:"changed_by"`
		Notes     string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Status.ChangeStatus(c.Request.Context(), id, input.Status, input.ChangedBy, input.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": input.Status})
}

// ChangePaymentStatus applies a payment sub-status transition.
func (h *BookingHandler) ChangePaymentStatus(c *gin.Context) {
	id := c.Param("id")
	var input struct {
		PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
		ChangedBy     string               `json:"changed_by"`
		Notes         string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Status.ChangePaymentStatus(c.Request.Context(), id, input.PaymentStatus, input.ChangedBy, input.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "payment_status": input.PaymentStatus})
}

// GetHistory returns a booking's status audit trail; ?order=asc flips to
// oldest-first.
func (h *BookingHandler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	newestFirst := c.DefaultQuery("order", "desc") != "asc"

	entries, err := h.Status.History(c.Request.Context(), id, newestFirst)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id, "history": entries})
}

// Quote resolves tier pricing for a package/area/frequency without persisting
// anything.
func (h *BookingHandler) Quote(c *gin.Context) {
	var input struct {
		PackageID string  `json:"package_id" binding:"required"`
		AreaSqm   float64 `json:"area_sqm"`
		Frequency int     `json:"frequency"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	res, err := h.Pricing.CalculatePricing(c.Request.Context(), input.PackageID, input.AreaSqm, input.Frequency)
	if err != nil {
		respondError(c, err)
		return
	}

	var freqs []int
	if res.Tier != nil {
		freqs = res.Tier.AvailableFrequencies()
	}
	c.JSON(http.StatusOK, gin.H{
		"pricing":               res,
		"available_frequencies": freqs,
	})
}
