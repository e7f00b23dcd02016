package mailbox

import (
	"context"
	"regexp"
	"strings"

	"helpdesk-triage-go/internal/models"
)

// Gateway is the mailbox the ingestion pipeline polls. Implementations must
// surface message headers lowercased so the pipeline can detect bot markers.
type Gateway interface {
	FetchUnread(ctx context.Context) ([]models.EmailMessage, error)
	MarkRead(ctx context.Context, messageID string) error
	Archive(ctx context.Context, messageID string) error
	Close() error
}

var fromPattern = regexp.MustCompile(`^(.*?)\s*<(.+?)>$`)

// parseFrom splits a From header like `John Doe <john@example.com>` into
// display name and address. A bare address yields the address for both.
func parseFrom(from string) (name, email string) {
	from = strings.TrimSpace(from)
	matches := fromPattern.FindStringSubmatch(from)
	if matches == nil {
		return from, from
	}

	name = strings.Trim(strings.TrimSpace(matches[1]), `"'`)
	email = strings.TrimSpace(matches[2])
	if name == "" {
		name = email
	}
	return name, email
}

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)this email and any attachments are sent in confidence.*`),
	regexp.MustCompile(`(?m)^--\s*$`),
	regexp.MustCompile(`_{3,}`),
	regexp.MustCompile(`(?i)sent from my (iphone|ipad|android|mobile)`),
	regexp.MustCompile(`(?i)get outlook for (ios|android)`),
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// cleanBody strips signatures, disclaimers, mobile footers, and quoted
// replies from an email body so ticket text stays readable.
func cleanBody(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text
	for _, pattern := range signaturePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}

	// Drop quoted reply lines
	lines := strings.Split(cleaned, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		kept = append(kept, line)
	}
	cleaned = strings.Join(kept, "\n")

	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
