package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"helpdesk-triage-go/internal/models"
)

// ListJunk returns the junk archive, newest first, for manual review of
// false positives.
func (h *Handlers) ListJunk(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	junk, total, err := h.store.ListJunk(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch junk mail",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"junk": junk,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
