package triage

import "context"

// Classification values
const (
	ClassificationSupportRequest = "support_request"
	ClassificationJunk           = "junk"
	ClassificationReply          = "reply"
)

// Priority values
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Category values
const (
	CategoryHardware = "hardware"
	CategorySoftware = "software"
	CategoryNetwork  = "network"
	CategoryAccess   = "access"
	CategoryEmail    = "email"
	CategoryOther    = "other"
)

// Result is the outcome of classifying an inbound email
type Result struct {
	Classification string `json:"classification"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Reasoning      string `json:"reasoning"`
}

// Classifier labels an inbound email as a support request or junk. A
// Classifier never fails: any internal error must resolve to a valid
// fallback result, so the pipeline can rely on always getting an answer.
type Classifier interface {
	Classify(ctx context.Context, from, subject, body string) Result
}
