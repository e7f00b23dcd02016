package models

import (
	"time"

	"gorm.io/gorm"
)

// Ticket status lifecycle values
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusPending    = "pending"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Ticket represents a support request created from an inbound email
type Ticket struct {
	ID          string         `json:"id" gorm:"type:char(36);primaryKey"`
	Subject     string         `json:"subject" gorm:"type:varchar(512);not null"`
	Body        string         `json:"body" gorm:"type:text"`
	SenderEmail string         `json:"sender_email" gorm:"type:varchar(255);not null;index"`
	SenderName  string         `json:"sender_name" gorm:"type:varchar(255)"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:open;index"`
	Priority    string         `json:"priority" gorm:"type:varchar(20);not null;index"`
	Category    string         `json:"category" gorm:"type:varchar(20);not null;index"`
	ThreadID    string         `json:"thread_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	MessageID   string         `json:"message_id" gorm:"type:varchar(255);not null"`
	AssignedTo  *string        `json:"assigned_to,omitempty" gorm:"type:char(36);index"`
	AssignedBy  *string        `json:"assigned_by,omitempty" gorm:"type:char(36)"`
	AssignedAt  *time.Time     `json:"assigned_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Notes []Note `json:"notes,omitempty" gorm:"foreignKey:TicketID"`
}

// TableName specifies the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

// Note is a timestamped message attached to a ticket. AuthorID is nil for
// notes appended by the ingestion pipeline.
type Note struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	TicketID   string    `json:"ticket_id" gorm:"type:char(36);not null;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	AuthorName string    `json:"author_name" gorm:"type:varchar(255);not null"`
	AuthorID   *string   `json:"author_id,omitempty" gorm:"type:char(36)"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for Note
func (Note) TableName() string {
	return "notes"
}

// ProcessedEmail is the idempotency ledger: one row per message ever handled.
// The unique index on MessageID is what makes overlapping pipeline runs safe.
type ProcessedEmail struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID      string    `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	ThreadID       string    `json:"thread_id" gorm:"type:varchar(255);index"`
	Classification string    `json:"classification" gorm:"type:varchar(20);not null"` // junk, reply, support_request
	TicketID       *string   `json:"ticket_id,omitempty" gorm:"type:char(36);index"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// TableName specifies the table name for ProcessedEmail
func (ProcessedEmail) TableName() string {
	return "processed_emails"
}

// JunkMail is the archival copy of a message classified as junk, kept for
// false-positive review. Never promoted to a ticket automatically.
type JunkMail struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	SenderEmail string         `json:"sender_email" gorm:"type:varchar(255);not null;index"`
	Subject     string         `json:"subject" gorm:"type:varchar(512)"`
	Body        string         `json:"body" gorm:"type:text"`
	MessageID   string         `json:"message_id" gorm:"type:varchar(255);not null;index"`
	Reasoning   string         `json:"reasoning" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for JunkMail
func (JunkMail) TableName() string {
	return "junk_mail"
}

// EmailMessage represents a parsed inbound email
type EmailMessage struct {
	ID          string            `json:"id"`
	ThreadID    string            `json:"thread_id"`
	From        string            `json:"from"`
	FromName    string            `json:"from_name"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	HTMLBody    string            `json:"html_body"`
	Date        time.Time         `json:"date"`
	Headers     map[string]string `json:"headers"`
	Attachments []Attachment      `json:"attachments"`
}

// Attachment represents email attachment metadata
type Attachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// UpdateStatusRequest is the request body for ticket status updates
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor"`
}

// AssignTicketRequest is the request body for ticket assignment
type AssignTicketRequest struct {
	TechnicianID *string `json:"technician_id"`
	AssignedBy   string  `json:"assigned_by"`
}

// CreateNoteRequest is the request body for adding a note to a ticket
type CreateNoteRequest struct {
	Content    string  `json:"content" binding:"required"`
	AuthorName string  `json:"author_name" binding:"required"`
	AuthorID   *string `json:"author_id"`
}

// TicketStats summarises ticket counts for the dashboard
type TicketStats struct {
	Total      int64            `json:"total"`
	Open       int64            `json:"open"`
	InProgress int64            `json:"in_progress"`
	Pending    int64            `json:"pending"`
	Resolved   int64            `json:"resolved"`
	Closed     int64            `json:"closed"`
	Unassigned int64            `json:"unassigned"`
	ByPriority map[string]int64 `json:"by_priority"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
