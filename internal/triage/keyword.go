package triage

import (
	"context"
	"strings"
)

// KeywordClassifier is the deterministic fallback classifier. It works on
// fixed keyword sets and always returns a valid result for any input, so it
// can back the LLM path without ever surfacing an error.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a new keyword classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var junkKeywords = []string{
	"unsubscribe",
	"marketing",
	"promotion",
	"newsletter",
	"no-reply",
	"noreply",
	"automated",
	"do not reply",
	"click here",
	"buy now",
	"limited time",
	"act now",
}

var urgentKeywords = []string{"urgent", "critical", "emergency", "asap", "immediately", "down", "not working"}

var highKeywords = []string{"broken", "error", "failed", "cannot", "can't", "unable", "issue"}

// Category keyword groups, checked in priority order.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryAccess, []string{"access", "password", "login", "account", "permission", "locked out"}},
	{CategoryNetwork, []string{"network", "wifi", "internet", "connection", "vpn"}},
	{CategoryHardware, []string{"computer", "laptop", "printer", "monitor", "keyboard", "mouse", "hardware"}},
	{CategorySoftware, []string{"software", "application", "program", "install", "update"}},
	{CategoryEmail, []string{"email", "outlook", "gmail", "mail"}},
}

// Classify runs the keyword triage over subject and body. The junk check
// runs first: a message matching both junk and support keywords is junk.
func (c *KeywordClassifier) Classify(_ context.Context, _, subject, body string) Result {
	text := strings.ToLower(subject + " " + body)

	if containsAny(text, junkKeywords) {
		return Result{
			Classification: ClassificationJunk,
			Priority:       PriorityLow,
			Category:       CategoryOther,
			Reasoning:      "Detected junk/marketing keywords",
		}
	}

	priority := PriorityMedium
	if containsAny(text, urgentKeywords) {
		priority = PriorityUrgent
	} else if containsAny(text, highKeywords) {
		priority = PriorityHigh
	} else if strings.Contains(text, "help") || strings.Contains(text, "question") {
		priority = PriorityLow
	}

	category := CategoryOther
	for _, group := range categoryKeywords {
		if containsAny(text, group.keywords) {
			category = group.category
			break
		}
	}

	return Result{
		Classification: ClassificationSupportRequest,
		Priority:       priority,
		Category:       category,
		Reasoning:      "Keyword-based classification",
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
