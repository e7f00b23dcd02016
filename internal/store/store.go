package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"helpdesk-triage-go/internal/models"
)

// ErrAlreadyProcessed is returned by MarkProcessed when the message id is
// already present in the ledger. Two overlapping pipeline runs racing on the
// same message resolve through the unique index, not application locking.
var ErrAlreadyProcessed = errors.New("message already processed")

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

const mysqlDuplicateEntry = 1062

// Store wraps the database for tickets, notes, the processed ledger, and
// the junk archive.
type Store struct {
	db *gorm.DB
}

// New creates a new Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate runs the schema migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Ticket{},
		&models.Note{},
		&models.ProcessedEmail{},
		&models.JunkMail{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// IsProcessed reports whether a message id is already in the ledger
func (s *Store) IsProcessed(messageID string) (bool, error) {
	var record models.ProcessedEmail
	result := s.db.Where("message_id = ?", messageID).First(&record)

	if result.Error == nil {
		return true, nil
	}

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}

	return false, fmt.Errorf("database error checking processed email: %w", result.Error)
}

// MarkProcessed inserts a ledger row for a message. Returns
// ErrAlreadyProcessed when another run committed the row first.
func (s *Store) MarkProcessed(record *models.ProcessedEmail) error {
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}

	result := s.db.Create(record)
	if result.Error != nil {
		if isDuplicateEntry(result.Error) {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to mark email as processed: %w", result.Error)
	}

	return nil
}

// FindTicketByThread returns the ticket correlated with a mailbox thread, or
// nil when the thread has no ticket yet. The unique index on thread_id makes
// a second match impossible; ordering by created_at keeps the read
// deterministic regardless.
func (s *Store) FindTicketByThread(threadID string) (*models.Ticket, error) {
	var ticket models.Ticket
	result := s.db.Where("thread_id = ?", threadID).Order("created_at DESC").First(&ticket)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find ticket by thread: %w", result.Error)
	}

	return &ticket, nil
}

// CreateTicket inserts a new ticket, assigning it a fresh id
func (s *Store) CreateTicket(ticket *models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = models.StatusOpen
	}

	if err := s.db.Create(ticket).Error; err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("ticket already exists for thread %s: %w", ticket.ThreadID, err)
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// AppendNote attaches a note to a ticket
func (s *Store) AppendNote(note *models.Note) error {
	if err := s.db.Create(note).Error; err != nil {
		return fmt.Errorf("failed to append note: %w", err)
	}
	return nil
}

// ArchiveJunk stores an archival copy of a junk-classified message
func (s *Store) ArchiveJunk(junk *models.JunkMail) error {
	if err := s.db.Create(junk).Error; err != nil {
		return fmt.Errorf("failed to archive junk mail: %w", err)
	}
	return nil
}

// TicketFilter narrows ListTickets results
type TicketFilter struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo string
	Page       int
	Limit      int
}

// ListTickets returns tickets matching the filter, newest first, with the
// total count for pagination.
func (s *Store) ListTickets(filter TicketFilter) ([]models.Ticket, int64, error) {
	query := s.db.Model(&models.Ticket{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&tickets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, total, nil
}

// GetTicket returns a ticket with its notes
func (s *Store) GetTicket(id string) (*models.Ticket, error) {
	var ticket models.Ticket
	result := s.db.Preload("Notes", func(db *gorm.DB) *gorm.DB {
		return db.Order("notes.created_at ASC")
	}).First(&ticket, "id = ?", id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", result.Error)
	}

	return &ticket, nil
}

// UpdateTicketStatus changes a ticket's lifecycle status
func (s *Store) UpdateTicketStatus(id, status string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Ticket{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	ticket.Status = status
	return ticket, nil
}

// AssignTicket assigns a ticket to a technician, or unassigns it when
// technicianID is nil.
func (s *Store) AssignTicket(id string, technicianID *string, assignedBy string) error {
	updates := map[string]interface{}{
		"assigned_to": technicianID,
		"assigned_by": nil,
		"assigned_at": nil,
	}
	if technicianID != nil {
		now := time.Now()
		updates["assigned_by"] = assignedBy
		updates["assigned_at"] = &now
	}

	result := s.db.Model(&models.Ticket{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to assign ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// TicketStats aggregates ticket counts by status and priority
func (s *Store) TicketStats() (*models.TicketStats, error) {
	stats := &models.TicketStats{ByPriority: make(map[string]int64)}

	type row struct {
		Status string
		Count  int64
	}
	var byStatus []row
	if err := s.db.Model(&models.Ticket{}).Select("status, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate ticket stats: %w", err)
	}

	for _, r := range byStatus {
		stats.Total += r.Count
		switch r.Status {
		case models.StatusOpen:
			stats.Open = r.Count
		case models.StatusInProgress:
			stats.InProgress = r.Count
		case models.StatusPending:
			stats.Pending = r.Count
		case models.StatusResolved:
			stats.Resolved = r.Count
		case models.StatusClosed:
			stats.Closed = r.Count
		}
	}

	type prow struct {
		Priority string
		Count    int64
	}
	var byPriority []prow
	if err := s.db.Model(&models.Ticket{}).Select("priority, count(*) as count").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate priority stats: %w", err)
	}
	for _, r := range byPriority {
		stats.ByPriority[r.Priority] = r.Count
	}

	if err := s.db.Model(&models.Ticket{}).Where("assigned_to IS NULL").Count(&stats.Unassigned).Error; err != nil {
		return nil, fmt.Errorf("failed to count unassigned tickets: %w", err)
	}

	return stats, nil
}

// ListJunk returns junk archive rows, newest first, for false-positive review
func (s *Store) ListJunk(page, limit int) ([]models.JunkMail, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var total int64
	if err := s.db.Model(&models.JunkMail{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count junk mail: %w", err)
	}

	var junk []models.JunkMail
	if err := s.db.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&junk).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list junk mail: %w", err)
	}

	return junk, total, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
