package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/models"
)

// GmailGateway implements Gateway using the Gmail API
type GmailGateway struct {
	service   *gmail.Service
	userEmail string
	maxFetch  int64
}

// NewGmailGateway creates a new Gmail API gateway
func NewGmailGateway(cfg *config.MailboxConfig) (*GmailGateway, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailModifyScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailGateway{
		service:   service,
		userEmail: cfg.UserEmail,
		maxFetch:  cfg.MaxFetch,
	}, nil
}

// FetchUnread fetches unread inbox messages
func (g *GmailGateway) FetchUnread(ctx context.Context) ([]models.EmailMessage, error) {
	response, err := g.service.Users.Messages.List(g.userEmail).
		Q("is:unread in:inbox").
		MaxResults(g.maxFetch).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	var emails []models.EmailMessage

	for _, msg := range response.Messages {
		full, err := g.service.Users.Messages.Get(g.userEmail, msg.Id).Format("full").Context(ctx).Do()
		if err != nil {
			logrus.Warnf("Failed to get message %s: %v", msg.Id, err)
			continue
		}

		email, err := g.parseMessage(full)
		if err != nil {
			logrus.Warnf("Failed to parse message %s: %v", msg.Id, err)
			continue
		}

		emails = append(emails, email)
	}

	return emails, nil
}

// MarkRead removes the UNREAD label from a message
func (g *GmailGateway) MarkRead(ctx context.Context, messageID string) error {
	_, err := g.service.Users.Messages.Modify(g.userEmail, messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", messageID, err)
	}
	return nil
}

// Archive removes a message from the inbox
func (g *GmailGateway) Archive(ctx context.Context, messageID string) error {
	_, err := g.service.Users.Messages.Modify(g.userEmail, messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to archive message %s: %w", messageID, err)
	}
	return nil
}

// Close closes the Gmail gateway (no-op for the Gmail API)
func (g *GmailGateway) Close() error {
	return nil
}

// parseMessage converts a Gmail API message into an EmailMessage
func (g *GmailGateway) parseMessage(msg *gmail.Message) (models.EmailMessage, error) {
	email := models.EmailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Headers:  make(map[string]string),
	}

	var from, date string
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			email.Headers[strings.ToLower(header.Name)] = header.Value

			switch strings.ToLower(header.Name) {
			case "subject":
				email.Subject = header.Value
			case "from":
				from = header.Value
			case "date":
				date = header.Value
			}
		}
	}

	email.FromName, email.From = parseFrom(from)
	if email.Subject == "" {
		email.Subject = "(No Subject)"
	}

	email.Date = time.Now()
	if date != "" {
		if parsed, err := mail.ParseDate(date); err == nil {
			email.Date = parsed
		}
	}

	if err := g.parseBody(msg.Payload, &email); err != nil {
		return email, err
	}
	email.Body = cleanBody(email.Body)

	collectAttachments(msg.Payload, &email)

	return email, nil
}

// parseBody recursively walks the message parts for text content
func (g *GmailGateway) parseBody(part *gmail.MessagePart, email *models.EmailMessage) error {
	if part == nil {
		return nil
	}

	if part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return fmt.Errorf("failed to decode body data: %w", err)
		}

		switch part.MimeType {
		case "text/plain":
			email.Body = string(data)
		case "text/html":
			email.HTMLBody = string(data)
		}
	}

	for _, subPart := range part.Parts {
		if err := g.parseBody(subPart, email); err != nil {
			return err
		}
	}

	return nil
}

// collectAttachments recursively gathers attachment metadata
func collectAttachments(part *gmail.MessagePart, email *models.EmailMessage) {
	if part == nil {
		return
	}

	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		mimeType := part.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		email.Attachments = append(email.Attachments, models.Attachment{
			Filename: part.Filename,
			MIMEType: mimeType,
			Size:     part.Body.Size,
		})
	}

	for _, subPart := range part.Parts {
		collectAttachments(subPart, email)
	}
}
