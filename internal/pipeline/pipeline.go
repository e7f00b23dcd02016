package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/mailbox"
	"helpdesk-triage-go/internal/metrics"
	"helpdesk-triage-go/internal/models"
	"helpdesk-triage-go/internal/notify"
	"helpdesk-triage-go/internal/store"
	"helpdesk-triage-go/internal/triage"
)

// Store is the slice of the ticket store the pipeline writes through
type Store interface {
	IsProcessed(messageID string) (bool, error)
	MarkProcessed(record *models.ProcessedEmail) error
	FindTicketByThread(threadID string) (*models.Ticket, error)
	CreateTicket(ticket *models.Ticket) error
	AppendNote(note *models.Note) error
	ArchiveJunk(junk *models.JunkMail) error
}

// Summary is the result of one batch run
type Summary struct {
	Processed         int           `json:"processed"`
	TicketsCreated    int           `json:"tickets_created"`
	RepliesAdded      int           `json:"replies_added"`
	JunkFiltered      int           `json:"junk_filtered"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	Errors            int           `json:"errors"`
	ErrorDetails      []ErrorDetail `json:"error_details,omitempty"`
}

// ErrorDetail records a single message's processing failure
type ErrorDetail struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

type outcome int

const (
	outcomeTicket outcome = iota
	outcomeReply
	outcomeJunk
	outcomeDuplicate
)

// Pipeline drives one batch run over the unread mailbox: filtering, dedup,
// classification, persistence, and the acknowledgement side effect.
type Pipeline struct {
	gateway    mailbox.Gateway
	classifier triage.Classifier
	store      Store
	notifier   notify.Notifier
	metrics    *metrics.Metrics
	cfg        *config.TriageConfig
}

// New creates a new ingestion pipeline
func New(gateway mailbox.Gateway, classifier triage.Classifier, st Store, notifier notify.Notifier, m *metrics.Metrics, cfg *config.TriageConfig) *Pipeline {
	return &Pipeline{
		gateway:    gateway,
		classifier: classifier,
		store:      st,
		notifier:   notifier,
		metrics:    m,
		cfg:        cfg,
	}
}

// Run processes all currently-unread messages. It returns an error only when
// the unread listing itself fails; per-message failures are folded into the
// summary and never abort the batch.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.metrics.PullCount.Inc()

	emails, err := p.gateway.FetchUnread(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch unread messages: %w", err)
	}

	logrus.Infof("Fetched %d unread messages", len(emails))

	var summary Summary
	for _, email := range emails {
		result, err := p.process(ctx, email)
		if err != nil {
			logrus.Errorf("Failed to process message %s: %v", email.ID, err)
			summary.Errors++
			summary.ErrorDetails = append(summary.ErrorDetails, ErrorDetail{
				MessageID: email.ID,
				Error:     err.Error(),
			})
			p.metrics.PipelineErrors.Inc()
			continue
		}

		summary.Processed++
		p.metrics.MessagesProcessed.Inc()

		switch result {
		case outcomeTicket:
			summary.TicketsCreated++
			p.metrics.TicketsCreated.Inc()
		case outcomeReply:
			summary.RepliesAdded++
			p.metrics.RepliesAdded.Inc()
		case outcomeJunk:
			summary.JunkFiltered++
			p.metrics.JunkFiltered.Inc()
		case outcomeDuplicate:
			summary.DuplicatesSkipped++
			p.metrics.DuplicatesSkipped.Inc()
		}
	}

	p.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	logrus.Infof("Batch complete: processed=%d tickets=%d replies=%d junk=%d duplicates=%d errors=%d",
		summary.Processed, summary.TicketsCreated, summary.RepliesAdded,
		summary.JunkFiltered, summary.DuplicatesSkipped, summary.Errors)

	return summary, nil
}

// process runs the decision ladder for a single message. Each step
// short-circuits on a decisive outcome; the ledger row is committed before
// the mark-read so a crash mid-message is retried on the next run.
func (p *Pipeline) process(ctx context.Context, email models.EmailMessage) (outcome, error) {
	if p.isAutoReply(email) {
		logrus.Infof("Suppressing bot auto-reply from %s: %s", email.From, email.Subject)
		return p.discard(ctx, email)
	}

	if p.isBlockedSender(email.From) {
		logrus.Infof("Skipping blocked sender %s: %s", email.From, email.Subject)
		return p.discard(ctx, email)
	}

	processed, err := p.store.IsProcessed(email.ID)
	if err != nil {
		return 0, err
	}
	if processed {
		logrus.Debugf("Skipping already-processed message %s", email.ID)
		if err := p.gateway.MarkRead(ctx, email.ID); err != nil {
			return 0, err
		}
		return outcomeDuplicate, nil
	}

	ticket, err := p.store.FindTicketByThread(email.ThreadID)
	if err != nil {
		return 0, err
	}
	if ticket != nil {
		return p.appendReply(ctx, email, ticket)
	}

	result := p.classifier.Classify(ctx, email.From, email.Subject, email.Body)

	if result.Classification == triage.ClassificationJunk {
		return p.fileJunk(ctx, email, result)
	}

	return p.createTicket(ctx, email, result)
}

// discard records a suppressed message as junk in the ledger and archives
// it. No junk-archive row is written: there is nothing to review.
func (p *Pipeline) discard(ctx context.Context, email models.EmailMessage) (outcome, error) {
	err := p.store.MarkProcessed(&models.ProcessedEmail{
		MessageID:      email.ID,
		ThreadID:       email.ThreadID,
		Classification: triage.ClassificationJunk,
	})
	if errors.Is(err, store.ErrAlreadyProcessed) {
		if err := p.gateway.MarkRead(ctx, email.ID); err != nil {
			return 0, err
		}
		return outcomeDuplicate, nil
	}
	if err != nil {
		return 0, err
	}

	if err := p.gateway.MarkRead(ctx, email.ID); err != nil {
		return 0, err
	}
	if err := p.gateway.Archive(ctx, email.ID); err != nil {
		return 0, err
	}

	return outcomeJunk, nil
}

// appendReply files a message on an existing ticket's thread as a note. The
// ticket's status is deliberately left untouched: a reply never silently
// reopens a resolved ticket.
func (p *Pipeline) appendReply(ctx context.Context, email models.EmailMessage, ticket *models.Ticket) (outcome, error) {
	logrus.Infof("Message %s is a reply to ticket %s", email.ID, ticket.ID)

	author := email.FromName
	if author == "" {
		author = email.From
	}

	from := strings.ToLower(email.From)
	var content string
	switch {
	case strings.HasSuffix(from, "@"+strings.ToLower(p.cfg.OrgDomain)):
		content = fmt.Sprintf("**Technician Reply** (%s):\n\n%s", author, email.Body)
	case from == strings.ToLower(ticket.SenderEmail):
		content = fmt.Sprintf("**Customer Follow-up** (%s):\n\n%s", author, email.Body)
	default:
		content = fmt.Sprintf("**Reply from** %s:\n\n%s", author, email.Body)
	}

	if err := p.store.AppendNote(&models.Note{
		TicketID:   ticket.ID,
		Content:    content,
		AuthorName: author,
		AuthorID:   nil,
	}); err != nil {
		return 0, err
	}

	err := p.store.MarkProcessed(&models.ProcessedEmail{
		MessageID:      email.ID,
		ThreadID:       email.ThreadID,
		Classification: triage.ClassificationReply,
		TicketID:       &ticket.ID,
	})
	if err != nil && !errors.Is(err, store.ErrAlreadyProcessed) {
		return 0, err
	}

	if err := p.gateway.MarkRead(ctx, email.ID); err != nil {
		return 0, err
	}

	return outcomeReply, nil
}

// fileJunk archives a classifier-flagged message for false-positive review
func (p *Pipeline) fileJunk(ctx context.Context, email models.EmailMessage, result triage.Result) (outcome, error) {
	if err := p.store.ArchiveJunk(&models.JunkMail{
		SenderEmail: email.From,
		Subject:     email.Subject,
		Body:        email.Body,
		MessageID:   email.ID,
		Reasoning:   result.Reasoning,
	}); err != nil {
		return 0, err
	}

	err := p.store.MarkProcessed(&models.ProcessedEmail{
		MessageID:      email.ID,
		ThreadID:       email.ThreadID,
		Classification: triage.ClassificationJunk,
	})
	if err != nil && !errors.Is(err, store.ErrAlreadyProcessed) {
		return 0, err
	}

	if err := p.gateway.MarkRead(ctx, email.ID); err != nil {
		return 0, err
	}
	if err := p.gateway.Archive(ctx, email.ID); err != nil {
		return 0, err
	}

	logrus.Infof("Filtered as junk: %s", email.Subject)
	return outcomeJunk, nil
}

// createTicket opens a new ticket and sends the acknowledgement. A failed
// acknowledgement is logged and swallowed; it never rolls back the ticket.
func (p *Pipeline) createTicket(ctx context.Context, email models.EmailMessage, result triage.Result) (outcome, error) {
	ticket := &models.Ticket{
		Subject:     email.Subject,
		Body:        email.Body,
		SenderEmail: email.From,
		SenderName:  email.FromName,
		Status:      models.StatusOpen,
		Priority:    result.Priority,
		Category:    result.Category,
		ThreadID:    email.ThreadID,
		MessageID:   email.ID,
	}

	if err := p.store.CreateTicket(ticket); err != nil {
		return 0, err
	}

	err := p.store.MarkProcessed(&models.ProcessedEmail{
		MessageID:      email.ID,
		ThreadID:       email.ThreadID,
		Classification: triage.ClassificationSupportRequest,
		TicketID:       &ticket.ID,
	})
	if err != nil && !errors.Is(err, store.ErrAlreadyProcessed) {
		return 0, err
	}

	if err := p.gateway.MarkRead(ctx, email.ID); err != nil {
		return 0, err
	}

	logrus.Infof("Created ticket %s for: %s", notify.ShortTicketID(ticket.ID), email.Subject)

	recipient := email.FromName
	if recipient == "" {
		recipient = email.From
	}
	html := notify.TicketCreatedHTML(ticket.ID, email.Subject, recipient, email.Body, p.cfg.AppURL)
	subject := fmt.Sprintf("[Request Received] #%s - %s", notify.ShortTicketID(ticket.ID), email.Subject)

	if err := p.notifier.Send(ctx, email.From, p.cfg.SupportCC, subject, html); err != nil {
		logrus.Errorf("Failed to send acknowledgement for ticket %s: %v", ticket.ID, err)
	}

	return outcomeTicket, nil
}

// isAutoReply reports whether a message carries the service's own bot
// markers, preventing notification feedback loops.
func (p *Pipeline) isAutoReply(email models.EmailMessage) bool {
	return email.Headers[notify.HeaderAutoReply] == "true" ||
		email.Headers[notify.HeaderBotMarker] == notify.BotMarkerValue
}

// isBlockedSender matches the sender address against the configured
// blocklist, case-insensitively, by substring.
func (p *Pipeline) isBlockedSender(from string) bool {
	from = strings.ToLower(from)
	for _, blocked := range p.cfg.BlockedSenders {
		if blocked != "" && strings.Contains(from, strings.ToLower(blocked)) {
			return true
		}
	}
	return false
}
