package mailbox

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/models"
)

// IMAPGateway implements Gateway over IMAP for non-Gmail mailboxes.
// Message-Id values double as pipeline message ids; the gateway keeps a
// Message-Id to UID map from the last fetch so MarkRead and Archive can
// address messages the way the pipeline knows them.
type IMAPGateway struct {
	client  *client.Client
	archive string

	mu   sync.Mutex
	uids map[string]uint32
}

// NewIMAPGateway connects and authenticates to the IMAP server
func NewIMAPGateway(cfg *config.MailboxConfig) (*IMAPGateway, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPGateway{
		client:  c,
		archive: cfg.ArchiveMailbox,
		uids:    make(map[string]uint32),
	}, nil
}

// FetchUnread fetches all unseen messages from the inbox
func (g *IMAPGateway) FetchUnread(ctx context.Context) ([]models.EmailMessage, error) {
	if _, err := g.client.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := g.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen messages: %w", err)
	}

	if len(uids) == 0 {
		return []models.EmailMessage{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- g.client.UidFetch(seqset, items, messages)
	}()

	var emails []models.EmailMessage

	for msg := range messages {
		email, err := g.parseMessage(msg, section)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message: %v", err)
			continue
		}

		g.mu.Lock()
		g.uids[email.ID] = msg.Uid
		g.mu.Unlock()

		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return emails, nil
}

// MarkRead sets the \Seen flag on a message
func (g *IMAPGateway) MarkRead(ctx context.Context, messageID string) error {
	seqset, err := g.seqsetFor(messageID)
	if err != nil {
		return err
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := g.client.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", messageID, err)
	}
	return nil
}

// Archive copies a message to the archive mailbox and expunges it from the
// inbox.
func (g *IMAPGateway) Archive(ctx context.Context, messageID string) error {
	seqset, err := g.seqsetFor(messageID)
	if err != nil {
		return err
	}

	if err := g.client.UidCopy(seqset, g.archive); err != nil {
		return fmt.Errorf("failed to copy message %s to %s: %w", messageID, g.archive, err)
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := g.client.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return fmt.Errorf("failed to flag message %s deleted: %w", messageID, err)
	}

	if err := g.client.Expunge(nil); err != nil {
		return fmt.Errorf("failed to expunge: %w", err)
	}

	return nil
}

// Close logs out of the IMAP server
func (g *IMAPGateway) Close() error {
	return g.client.Logout()
}

func (g *IMAPGateway) seqsetFor(messageID string) (*imap.SeqSet, error) {
	g.mu.Lock()
	uid, ok := g.uids[messageID]
	g.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown message id %s", messageID)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	return seqset, nil
}

// parseMessage converts an IMAP message into an EmailMessage. IMAP has no
// native conversation grouping; the thread id is the In-Reply-To target when
// present, otherwise the message's own Message-Id.
func (g *IMAPGateway) parseMessage(msg *imap.Message, section *imap.BodySectionName) (models.EmailMessage, error) {
	email := models.EmailMessage{
		Headers: make(map[string]string),
	}

	if msg.Envelope == nil {
		return email, fmt.Errorf("message has no envelope")
	}

	email.ID = strings.Trim(msg.Envelope.MessageId, "<>")
	if email.ID == "" {
		return email, fmt.Errorf("message has no Message-Id")
	}

	email.Subject = msg.Envelope.Subject
	if email.Subject == "" {
		email.Subject = "(No Subject)"
	}
	email.Date = msg.Envelope.Date

	if len(msg.Envelope.From) > 0 {
		addr := msg.Envelope.From[0]
		email.From = addr.Address()
		email.FromName = addr.PersonalName
		if email.FromName == "" {
			email.FromName = email.From
		}
	}

	email.ThreadID = strings.Trim(msg.Envelope.InReplyTo, "<>")
	if email.ThreadID == "" {
		email.ThreadID = email.ID
	}

	if err := g.parseBody(msg, section, &email); err != nil {
		return email, err
	}
	email.Body = cleanBody(email.Body)

	return email, nil
}

// parseBody reads the raw body section and extracts text parts and
// attachment metadata.
func (g *IMAPGateway) parseBody(msg *imap.Message, section *imap.BodySectionName, email *models.EmailMessage) error {
	r := msg.GetBody(section)
	if r == nil {
		return nil
	}

	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return fmt.Errorf("failed to read message: %w", err)
	}

	// Collect raw headers for the pipeline's bot-marker check
	fields := entity.Header.Fields()
	for fields.Next() {
		email.Headers[strings.ToLower(fields.Key())] = fields.Value()
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read part: %w", err)
			}

			disposition, params, _ := p.Header.ContentDisposition()
			if disposition == "attachment" {
				mimeType, _, _ := p.Header.ContentType()
				if mimeType == "" {
					mimeType = "application/octet-stream"
				}
				filename := params["filename"]
				if decoded, err := new(mime.WordDecoder).DecodeHeader(filename); err == nil {
					filename = decoded
				}
				email.Attachments = append(email.Attachments, models.Attachment{
					Filename: filename,
					MIMEType: mimeType,
				})
				continue
			}

			content, err := io.ReadAll(p.Body)
			if err != nil {
				return fmt.Errorf("failed to read part body: %w", err)
			}

			mimeType, _, _ := p.Header.ContentType()
			switch mimeType {
			case "text/plain":
				email.Body = string(content)
			case "text/html":
				email.HTMLBody = string(content)
			}
		}
		return nil
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return fmt.Errorf("failed to read message body: %w", err)
	}

	mimeType, _, _ := entity.Header.ContentType()
	if mimeType == "text/html" {
		email.HTMLBody = string(content)
	} else {
		email.Body = string(content)
	}

	return nil
}
