package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"helpdesk-triage-go/internal/models"
	"helpdesk-triage-go/internal/notify"
	"helpdesk-triage-go/internal/store"
)

var validStatuses = map[string]bool{
	models.StatusOpen:       true,
	models.StatusInProgress: true,
	models.StatusPending:    true,
	models.StatusResolved:   true,
	models.StatusClosed:     true,
}

// ListTickets returns tickets matching the query filters, paginated
func (h *Handlers) ListTickets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	filter := store.TicketFilter{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Category:   c.Query("category"),
		AssignedTo: c.Query("assigned_to"),
		Page:       page,
		Limit:      limit,
	}

	tickets, total, err := h.store.ListTickets(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch tickets",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": tickets,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetTicket returns a single ticket with its note thread
func (h *Handlers) GetTicket(c *gin.Context) {
	ticket, err := h.store.GetTicket(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Ticket not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch ticket",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// UpdateTicketStatus changes a ticket's status. Moving to resolved or closed
// notifies the original sender; a failed send is logged and never blocks the
// status change.
func (h *Handlers) UpdateTicketStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !validStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("Invalid status %q", req.Status),
			Code:    http.StatusBadRequest,
		})
		return
	}

	ticket, err := h.store.UpdateTicketStatus(c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Ticket not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update ticket status",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if (req.Status == models.StatusResolved || req.Status == models.StatusClosed) && ticket.SenderEmail != "" {
		closedBy := req.Actor
		if closedBy == "" {
			closedBy = "IT Support Team"
		}
		recipient := ticket.SenderName
		if recipient == "" {
			recipient = ticket.SenderEmail
		}

		html := notify.TicketClosedHTML(ticket.ID, ticket.Subject, recipient, closedBy, h.cfg.Triage.AppURL)
		subject := fmt.Sprintf("[Ticket Closed] #%s - %s", notify.ShortTicketID(ticket.ID), ticket.Subject)

		if err := h.notifier.Send(c.Request.Context(), ticket.SenderEmail, h.cfg.Triage.SupportCC, subject, html); err != nil {
			logrus.Errorf("Failed to send closure notification for ticket %s: %v", ticket.ID, err)
		}
	}

	c.JSON(http.StatusOK, ticket)
}

// AssignTicket assigns or unassigns a ticket
func (h *Handlers) AssignTicket(c *gin.Context) {
	var req models.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.store.AssignTicket(c.Param("id"), req.TechnicianID, req.AssignedBy); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Ticket not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to assign ticket",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// AddNote appends a human-authored note to a ticket
func (h *Handlers) AddNote(c *gin.Context) {
	var req models.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	// The ticket must exist before we attach anything to it
	if _, err := h.store.GetTicket(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Ticket not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch ticket",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	note := models.Note{
		TicketID:   c.Param("id"),
		Content:    req.Content,
		AuthorName: req.AuthorName,
		AuthorID:   req.AuthorID,
	}

	if err := h.store.AppendNote(&note); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to add note",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, note)
}

// GetTicketStats returns aggregate ticket counts for the dashboard
func (h *Handlers) GetTicketStats(c *gin.Context) {
	stats, err := h.store.TicketStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to compute ticket stats",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
