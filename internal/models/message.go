package models

import (
	"time"

	"github.com/lib/pq"
)

// Message represents a stored mailbox message.
// Content fields are immutable once stored; labels, priority and summary
// mirror the most recent classification record.
// @Description Mailbox message with its latest classification
type Message struct {
	ID           string         `db:"id" json:"message_id" example:"msg-42"`            // Provider-assigned message ID
	ThreadID     *string        `db:"thread_id" json:"thread_id,omitempty"`             // Provider thread ID
	Subject      string         `db:"subject" json:"subject" example:"Your statement"`  // Message subject
	From         string         `db:"from_addr" json:"from" example:"bank@example.com"` // Sender address
	To           *string        `db:"to_addr" json:"to,omitempty"`                      // Recipient address
	Snippet      string         `db:"snippet" json:"snippet"`                           // Short preview of the body
	Body         string         `db:"body" json:"body,omitempty"`                       // Full message body
	InternalDate time.Time      `db:"internal_date" json:"date"`                        // Receipt timestamp, drives recency ordering
	Labels       pq.StringArray `db:"labels" json:"labels" swaggertype:"array,string"`  // Latest classification labels
	Priority     *string        `db:"priority" json:"priority,omitempty"`               // high, normal or low
	Summary      *string        `db:"summary" json:"summary,omitempty"`                 // Latest classification summary
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Excerpt returns the snippet when present, otherwise the body capped at max runes.
func (m *Message) Excerpt(max int) string {
	text := m.Snippet
	if text == "" {
		text = m.Body
	}
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return text
}

// ScoredMessage pairs a message with its similarity to a query vector.
// Scores follow the cosine convention: 1.0 means identical.
type ScoredMessage struct {
	Message    Message `json:"message"`
	Similarity float64 `json:"similarity"`
}

// ClassificationRecord is one append-only entry in a message's
// classification history. Records are never updated or deleted; the most
// recently created record is the message's current classification.
type ClassificationRecord struct {
	ID        string         `db:"id" json:"id"`
	MessageID string         `db:"message_id" json:"message_id"`
	Labels    pq.StringArray `db:"labels" json:"labels" swaggertype:"array,string"`
	Priority  string         `db:"priority" json:"priority" example:"normal"`
	Summary   string         `db:"summary" json:"summary"`
	Model     string         `db:"model" json:"model" example:"gpt-4o-mini"` // Model that produced the record
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Source is one cited message in a query result, ordered by retrieval rank.
// @Description Source citation attached to an answer
type Source struct {
	MessageID  string    `json:"message_id" example:"msg-42"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Snippet    string    `json:"snippet"`
	Similarity float64   `json:"similarity" example:"0.72"` // 1.0 on classification and temporal paths
	Date       time.Time `json:"date"`
	Labels     []string  `json:"labels,omitempty"`
}

// QueryResult is the structured answer to a mailbox question.
// @Description Answer with cited sources, confidence tier and strategy used
type QueryResult struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Question   string   `json:"question"`
	Confidence string   `json:"confidence" example:"medium"`       // none, low, medium or high
	QueryType  string   `json:"query_type" example:"semantic"`     // classification, temporal or semantic
	TotalCount *int     `json:"total_count,omitempty" example:"7"` // Unfiltered match count (classification path)
}

// QueryLogEntry is an audit record of an answered query.
type QueryLogEntry struct {
	ID         int       `db:"id" json:"id"`
	Question   string    `db:"question" json:"question"`
	Answer     string    `db:"answer" json:"answer"`
	QueryType  string    `db:"query_type" json:"query_type"`
	Confidence string    `db:"confidence" json:"confidence"`
	DurationMs int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
