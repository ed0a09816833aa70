package handlers

import (
	"errors"
	"net/http"

	"tidycrm/services/booking"
	"tidycrm/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the engine's error taxonomy onto HTTP statuses. Anything
// unrecognized is a storage or internal failure and is surfaced as a 500, not
// masked as a safe state.
func respondError(c *gin.Context, err error) {
	var (
		notFound   *booking.NotFoundError
		invalidTr  *booking.InvalidTransitionError
		invalidSc  *booking.InvalidScopeError
		partial    *booking.PartialFailureError
		conflict   *booking.ConflictError
		validation *booking.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		utils.JSONError(c, http.StatusNotFound, "not found", err.Error())
	case errors.As(err, &validation):
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
	case errors.As(err, &invalidTr):
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid transition", err.Error())
	case errors.As(err, &invalidSc):
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid scope", err.Error())
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"message":   "scheduling conflict",
			"conflicts": conflict.Conflicts,
		})
	case errors.As(err, &partial):
		getLogger(c).Error("group creation rolled back", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "group creation failed", err.Error())
	default:
		getLogger(c).Error("storage failure", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
