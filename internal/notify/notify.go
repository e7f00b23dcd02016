package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"helpdesk-triage-go/internal/config"
)

// Bot marker headers stamped onto every outbound notification. The
// ingestion pipeline suppresses inbound messages carrying these so the
// service never triages its own auto-replies.
const (
	HeaderAutoReply = "x-auto-reply"
	HeaderBotMarker = "x-helpdesk-bot"
	BotMarkerValue  = "v1"
)

// Notifier sends outbound notification emails
type Notifier interface {
	Send(ctx context.Context, to, cc, subject, html string) error
}

// GmailNotifier sends notifications through the Gmail API from the same
// account the pipeline polls, so customer replies land in the original
// thread.
type GmailNotifier struct {
	service   *gmail.Service
	userEmail string
}

// NewGmailNotifier creates a new Gmail notifier
func NewGmailNotifier(cfg *config.MailboxConfig) (*GmailNotifier, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
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

	return &GmailNotifier{
		service:   service,
		userEmail: cfg.UserEmail,
	}, nil
}

// Send sends an HTML email, retrying on rate limiting
func (n *GmailNotifier) Send(ctx context.Context, to, cc, subject, html string) error {
	raw := buildMessage(n.userEmail, to, cc, subject, html)

	message := &gmail.Message{
		Raw: base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(raw)),
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := n.service.Users.Messages.Send(n.userEmail, message).Context(ctx).Do()
		if err == nil {
			logrus.Infof("Sent notification to %s: %s", to, subject)
			return nil
		}

		lastErr = err
		logrus.Warnf("Failed to send notification (attempt %d/%d): %v", attempt, 3, err)

		if strings.Contains(err.Error(), "quota") || strings.Contains(err.Error(), "rate") {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		} else {
			break
		}
	}

	return fmt.Errorf("failed to send notification after retries: %w", lastErr)
}

// buildMessage assembles the raw RFC 822 message with the bot marker headers
func buildMessage(from, to, cc, subject, html string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	if cc != "" {
		b.WriteString(fmt.Sprintf("Cc: %s\r\n", cc))
	}
	b.WriteString(fmt.Sprintf("Subject: =?utf-8?B?%s?=\r\n", base64.StdEncoding.EncodeToString([]byte(subject))))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString(fmt.Sprintf("%s: true\r\n", textprotoCase(HeaderAutoReply)))
	b.WriteString(fmt.Sprintf("%s: %s\r\n", textprotoCase(HeaderBotMarker), BotMarkerValue))
	b.WriteString("\r\n")
	b.WriteString(html)

	return b.String()
}

// textprotoCase renders a lowercase header name in canonical form
func textprotoCase(name string) string {
	parts := strings.Split(name, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "-")
}
