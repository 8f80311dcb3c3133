// Package classifier assigns labels, a priority and a summary to messages
// using the configured LLM provider. Labels come from the closed vocabulary
// in the rag package; results are persisted as append-only classification
// records by the caller.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mailmind/internal/llm"
	"mailmind/internal/rag"

	"github.com/rs/zerolog"
)

// Valid priorities; anything else from the model is coerced to normal
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// bodyLimit truncates the body sent to the model to avoid token limits
const bodyLimit = 2000

// Result is a parsed classification
type Result struct {
	Labels   []string `json:"labels"`
	Priority string   `json:"priority"`
	Summary  string   `json:"summary"`
}

// Classifier produces classifications via the generation provider
type Classifier struct {
	generator llm.Generator
	logger    zerolog.Logger
}

// New creates a classifier on top of a generator
func New(generator llm.Generator, logger zerolog.Logger) *Classifier {
	return &Classifier{generator: generator, logger: logger}
}

// Classify asks the model to label a message. Labels outside the closed
// vocabulary are dropped; an answer with no valid JSON object is an error.
func (c *Classifier) Classify(ctx context.Context, subject, body string) (*Result, error) {
	prompt := buildPrompt(subject, body)

	raw, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("classification generation failed: %w", err)
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classification for %q: %w", subject, err)
	}

	dropped := 0
	valid := result.Labels[:0]
	for _, label := range result.Labels {
		if rag.IsValidLabel(label) {
			valid = append(valid, label)
		} else {
			dropped++
		}
	}
	result.Labels = valid
	if dropped > 0 {
		c.logger.Debug().Int("dropped", dropped).Str("subject", subject).Msg("Dropped labels outside vocabulary")
	}

	switch result.Priority {
	case PriorityHigh, PriorityNormal, PriorityLow:
	default:
		result.Priority = PriorityNormal
	}

	return result, nil
}

// parseResult extracts the JSON object from the model output, tolerating
// markdown fences and surrounding prose.
func parseResult(raw string) (*Result, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var result Result
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("invalid classification JSON: %w", err)
	}

	return &result, nil
}

func buildPrompt(subject, body string) string {
	runes := []rune(body)
	if len(runes) > bodyLimit {
		body = string(runes[:bodyLimit])
	}

	return fmt.Sprintf(`Classify this email into categories, assign a priority level, and provide a brief summary.

Email to classify:
Subject: %s
Body: %s

Instructions:
- You MUST ONLY choose labels from this exact list (do not create new labels):
  %s
- For job-related emails, use specific job labels:
  * job-application: confirmation that you applied for a job
  * job-interview: interview invitations or scheduling
  * job-offer: job offers received
  * job-rejection: rejection notifications
  * job-ad: job opportunity advertisements (LinkedIn, Indeed, etc.)
  * job-followup: follow-up emails about applications
- Choose 1-3 most relevant labels from the list above
- Assign priority: "high" (urgent/important), "normal" (routine), or "low" (can wait)
- Write a brief summary (1-2 sentences) of the email's main purpose
- Return ONLY a JSON object in this exact format:

{"labels": ["category1", "category2"], "priority": "normal", "summary": "Brief description of the email"}

Do not include explanations or markdown. Only output valid JSON. Do not invent labels not in the list.`,
		subject, body, strings.Join(rag.Labels, ", "))
}
