package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/notify"
	"helpdesk-triage-go/internal/scheduler"
	"helpdesk-triage-go/internal/store"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	store     *store.Store
	scheduler *scheduler.Scheduler
	notifier  notify.Notifier
	cfg       *config.Config
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, st *store.Store, sched *scheduler.Scheduler, notifier notify.Notifier, cfg *config.Config) *Handlers {
	return &Handlers{
		db:        db,
		store:     st,
		scheduler: sched,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		// Cron trigger (bearer-secret guarded)
		api.POST("/cron/process-emails", h.ProcessEmails)

		// Tickets
		api.GET("/tickets", h.ListTickets)
		api.GET("/tickets/stats", h.GetTicketStats)
		api.GET("/tickets/:id", h.GetTicket)
		api.PATCH("/tickets/:id/status", h.UpdateTicketStatus)
		api.PATCH("/tickets/:id/assign", h.AssignTicket)
		api.POST("/tickets/:id/notes", h.AddNote)

		// Junk archive (false-positive review)
		api.GET("/junk", h.ListJunk)

		// Scheduler control
		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}
