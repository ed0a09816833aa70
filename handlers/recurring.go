package handlers

import (
	"net/http"

	"tidycrm/services/booking"

	"github.com/gin-gonic/gin"
)

// CreateGroup creates a recurring group from a template and pattern.
func (h *BookingHandler) CreateGroup(c *gin.Context) {
	var input booking.CreateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := h.Groups.CreateGroup(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// EditScoped applies field updates to a recurring booking with the given
// scope (this_only, this_and_future or all).
func (h *BookingHandler) EditScoped(c *gin.Context) {
	id := c.Param("id")
	scope := booking.Scope(c.DefaultQuery("scope", string(booking.ScopeThisOnly)))

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	updated, err := h.Groups.EditScoped(c.Request.Context(), id, scope, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated_count": updated})
}

// DeleteScoped removes a recurring booking with the given scope.
func (h *BookingHandler) DeleteScoped(c *gin.Context) {
	id := c.Param("id")
	scope := booking.Scope(c.DefaultQuery("scope", string(booking.ScopeThisOnly)))

	deleted, err := h.Groups.DeleteScoped(c.Request.Context(), id, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_count": deleted})
}

// GetGroup returns the computed group view: members ordered by sequence plus
// aggregate counts. An unknown (or emptied) group is a 404.
func (h *BookingHandler) GetGroup(c *gin.Context) {
	groupID := c.Param("groupId")

	group, err := h.Groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recurring group not found", "group_id": groupID})
		return
	}
	c.JSON(http.StatusOK, group)
}
