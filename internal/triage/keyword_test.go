package triage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifierJunk(t *testing.T) {
	c := NewKeywordClassifier()

	result := c.Classify(context.Background(), "promo@example.com", "Weekly newsletter", "Click here to unsubscribe")
	assert.Equal(t, ClassificationJunk, result.Classification)
	assert.Equal(t, PriorityLow, result.Priority)
	assert.Equal(t, CategoryOther, result.Category)
	assert.NotEmpty(t, result.Reasoning)
}

func TestKeywordClassifierJunkPrecedence(t *testing.T) {
	c := NewKeywordClassifier()

	// Junk keywords win even when support keywords are present
	result := c.Classify(context.Background(), "promo@example.com",
		"Urgent: your printer warranty", "Limited time offer, buy now! Your printer needs urgent attention.")
	assert.Equal(t, ClassificationJunk, result.Classification)
}

func TestKeywordClassifierPriorityTiers(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name     string
		subject  string
		body     string
		priority string
	}{
		{"urgent tier", "VPN not working urgently", "I cannot connect at all", PriorityUrgent},
		{"urgent via down", "Server down", "The file server is unreachable", PriorityUrgent},
		{"high tier", "Printer broken", "The device shows an odd light", PriorityHigh},
		{"low tier", "Quick question", "I have a question about my monitor setup", PriorityLow},
		{"default medium", "Laptop request", "I would like a new laptop for the term", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(ctx, "user@example.com", tt.subject, tt.body)
			assert.Equal(t, ClassificationSupportRequest, result.Classification)
			assert.Equal(t, tt.priority, result.Priority)
		})
	}
}

func TestKeywordClassifierCategoryOrder(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name     string
		body     string
		category string
	}{
		{"access wins over network", "I forgot my password for the wifi portal", CategoryAccess},
		{"network", "The wifi keeps dropping", CategoryNetwork},
		{"hardware", "My laptop screen flickers", CategoryHardware},
		{"software", "Please install the new program", CategorySoftware},
		{"email", "Outlook will not sync", CategoryEmail},
		{"other", "The projector bulb burnt out", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(ctx, "user@example.com", "", tt.body)
			assert.Equal(t, tt.category, result.Category)
		})
	}
}

func TestKeywordClassifierTotality(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	inputs := [][3]string{
		{"", "", ""},
		{"a@b.c", "", ""},
		{"", "subject only", ""},
		{"", "", "body only"},
		{"weird", "\x00\xff", "\n\n\n"},
	}

	for _, in := range inputs {
		result := c.Classify(ctx, in[0], in[1], in[2])
		assert.Contains(t, []string{ClassificationSupportRequest, ClassificationJunk}, result.Classification)
		assert.Contains(t, []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}, result.Priority)
		assert.Contains(t, []string{CategoryHardware, CategorySoftware, CategoryNetwork, CategoryAccess, CategoryEmail, CategoryOther}, result.Category)
		assert.NotEmpty(t, result.Reasoning)
	}
}
