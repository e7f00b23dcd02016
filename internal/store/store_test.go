package store

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"helpdesk-triage-go/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return New(gdb), mock
}

func TestIsProcessedFound(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "message_id", "classification"}).
		AddRow(1, "msg-1", "junk")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `processed_emails`")).
		WillReturnRows(rows)

	processed, err := s.IsProcessed("msg-1")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsProcessedNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `processed_emails`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	processed, err := s.IsProcessed("msg-unknown")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessed(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `processed_emails`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.MarkProcessed(&models.ProcessedEmail{
		MessageID:      "msg-1",
		ThreadID:       "thread-1",
		Classification: "support_request",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessedDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `processed_emails`")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := s.MarkProcessed(&models.ProcessedEmail{
		MessageID:      "msg-1",
		ThreadID:       "thread-1",
		Classification: "junk",
	})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTicketByThreadNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `tickets`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ticket, err := s.FindTicketByThread("thread-x")
	require.NoError(t, err)
	assert.Nil(t, ticket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTicketByThreadFound(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "thread_id", "status"}).
		AddRow("ticket-1", "thread-1", models.StatusOpen)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `tickets`")).
		WillReturnRows(rows)

	ticket, err := s.FindTicketByThread("thread-1")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "ticket-1", ticket.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketAssignsDefaults(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `tickets`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ticket := &models.Ticket{
		Subject:     "Printer broken",
		SenderEmail: "user@example.com",
		ThreadID:    "thread-1",
		MessageID:   "msg-1",
		Priority:    "high",
		Category:    "hardware",
	}
	err := s.CreateTicket(ticket)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, models.StatusOpen, ticket.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTicketNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `tickets`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tech := "tech-1"
	err := s.AssignTicket("missing-id", &tech, "admin-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
