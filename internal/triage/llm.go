package triage

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const systemPrompt = "You are an IT support ticket classifier. Always respond with valid JSON only."

const promptTemplate = `You are an IT support ticket classifier for a help desk. Analyze this email and determine if it's a legitimate support request or junk/spam.

Email Details:
- From: %s
- Subject: %s
- Body: %s

Classify as:
- "support_request" if it's asking for IT help, reporting an issue, requesting access/assistance, or any legitimate IT-related inquiry
- "junk" if it's spam, marketing, automated notifications, newsletters, or not IT-related

Also determine:
- Priority: low (general questions), medium (non-urgent issues), high (affecting work), urgent (critical/security)
- Category: hardware, software, network, access, email, other

Respond ONLY with valid JSON in this exact format:
{
  "classification": "support_request" | "junk",
  "priority": "low" | "medium" | "high" | "urgent",
  "category": "hardware" | "software" | "network" | "access" | "email" | "other",
  "reasoning": "Brief explanation"
}`

// chatCompleter is the slice of the OpenAI client the classifier needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMClassifier classifies emails with an LLM and falls back to the keyword
// classifier when the model is unconfigured, errors, or returns a response
// that doesn't satisfy the JSON contract.
type LLMClassifier struct {
	client       chatCompleter
	model        string
	maxBodyChars int
	fallback     *KeywordClassifier
}

// NewLLMClassifier creates a new LLM classifier. An empty apiKey disables
// the LLM path entirely and every call resolves through the fallback.
func NewLLMClassifier(apiKey, model string, maxBodyChars int) *LLMClassifier {
	c := &LLMClassifier{
		model:        model,
		maxBodyChars: maxBodyChars,
		fallback:     NewKeywordClassifier(),
	}
	if apiKey != "" {
		c.client = openai.NewClient(apiKey)
	}
	return c
}

// Classify runs the LLM triage, falling back to keywords on any failure
func (c *LLMClassifier) Classify(ctx context.Context, from, subject, body string) Result {
	if c.client == nil {
		logrus.Debug("No OpenAI API key configured, using keyword triage")
		return c.fallback.Classify(ctx, from, subject, body)
	}

	result, err := c.classifyLLM(ctx, from, subject, body)
	if err != nil {
		logrus.Warnf("LLM triage failed, using keyword fallback: %v", err)
		return c.fallback.Classify(ctx, from, subject, body)
	}

	return result
}

func (c *LLMClassifier) classifyLLM(ctx context.Context, from, subject, body string) (Result, error) {
	truncated := body
	if len(truncated) > c.maxBodyChars {
		truncated = truncated[:c.maxBodyChars] + " ...(truncated)"
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, from, subject, truncated)},
		},
		Temperature: 0.3,
		MaxTokens:   200,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("no response from LLM")
	}

	var result Result
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return Result{}, fmt.Errorf("invalid JSON from LLM: %w", err)
	}

	if err := validateResult(result); err != nil {
		return Result{}, err
	}

	return result, nil
}

// validateResult enforces the strict response contract: every field must be
// present and hold one of the defined values.
func validateResult(r Result) error {
	switch r.Classification {
	case ClassificationSupportRequest, ClassificationJunk:
	default:
		return fmt.Errorf("invalid classification %q", r.Classification)
	}

	switch r.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	default:
		return fmt.Errorf("invalid priority %q", r.Priority)
	}

	switch r.Category {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategoryAccess, CategoryEmail, CategoryOther:
	default:
		return fmt.Errorf("invalid category %q", r.Category)
	}

	return nil
}
