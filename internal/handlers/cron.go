package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"helpdesk-triage-go/internal/models"
)

// ProcessEmails is the scheduler-facing trigger. It authenticates the shared
// cron secret and runs one pipeline batch, returning the summary. An
// unauthorized call performs no pipeline work.
func (h *Handlers) ProcessEmails(c *gin.Context) {
	expected := "Bearer " + h.cfg.Server.CronSecret
	provided := c.GetHeader("Authorization")

	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or missing cron secret",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	summary, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "pipeline_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"results":   summary,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
