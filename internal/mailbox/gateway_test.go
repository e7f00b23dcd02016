package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrom(t *testing.T) {
	tests := []struct {
		name  string
		from  string
		wantN string
		wantE string
	}{
		{"display name", "John Doe <john@example.com>", "John Doe", "john@example.com"},
		{"quoted name", `"Doe, John" <john@example.com>`, "Doe, John", "john@example.com"},
		{"bare address", "john@example.com", "john@example.com", "john@example.com"},
		{"empty name", "<john@example.com>", "john@example.com", "john@example.com"},
		{"surrounding space", "  Jane <jane@example.com>  ", "Jane", "jane@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, email := parseFrom(tt.from)
			assert.Equal(t, tt.wantN, name)
			assert.Equal(t, tt.wantE, email)
		})
	}
}

func TestCleanBodyQuotedReplies(t *testing.T) {
	body := "The VPN still drops.\n\n> On Monday you wrote:\n> Please try restarting.\n\nI did restart, no change."

	cleaned := cleanBody(body)
	assert.Contains(t, cleaned, "The VPN still drops.")
	assert.Contains(t, cleaned, "I did restart, no change.")
	assert.NotContains(t, cleaned, "Please try restarting")
}

func TestCleanBodyMobileSignature(t *testing.T) {
	body := "My laptop will not boot.\n\nSent from my iPhone"

	cleaned := cleanBody(body)
	assert.Equal(t, "My laptop will not boot.", cleaned)
}

func TestCleanBodyDisclaimer(t *testing.T) {
	body := "Printer jam on floor 3.\n\nThis email and any attachments are sent in confidence and are intended only for the addressee."

	cleaned := cleanBody(body)
	assert.Equal(t, "Printer jam on floor 3.", cleaned)
}

func TestCleanBodyCollapsesBlankRuns(t *testing.T) {
	body := "Line one.\n\n\n\n\nLine two."

	cleaned := cleanBody(body)
	assert.Equal(t, "Line one.\n\nLine two.", cleaned)
}

func TestCleanBodyEmpty(t *testing.T) {
	assert.Equal(t, "", cleanBody(""))
	assert.Equal(t, "", cleanBody("   \n\n  "))
}
