// Package storage implements the PostgreSQL message store backing the
// query engine: exact label filters, recency scans and pgvector
// similarity search, plus the append-only classification history.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mailmind/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const messageColumns = `id, thread_id, subject, from_addr, to_addr, snippet, body,
	internal_date, labels, priority, summary, created_at, updated_at`

// Postgres is the pgvector-backed message store
type Postgres struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewPostgres creates a store on top of an existing connection pool
func NewPostgres(db *sqlx.DB, logger zerolog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// SaveMessage inserts a message, or refreshes mutable metadata on re-sync.
// Content fields are treated as immutable once stored.
func (p *Postgres) SaveMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, thread_id, subject, from_addr, to_addr, snippet, body, internal_date, labels)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			updated_at = CURRENT_TIMESTAMP
	`

	labels := msg.Labels
	if labels == nil {
		labels = pq.StringArray{}
	}

	_, err := p.db.ExecContext(ctx, query,
		msg.ID,
		msg.ThreadID,
		msg.Subject,
		msg.From,
		msg.To,
		msg.Snippet,
		msg.Body,
		msg.InternalDate,
		labels,
	)
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", msg.ID, err)
	}

	return nil
}

// GetMessageByID returns a message, or nil when the id is unknown
func (p *Postgres) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	if err := p.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	return &msg, nil
}

// ListRecent returns messages ordered by receipt timestamp, newest first
func (p *Postgres) ListRecent(ctx context.Context, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `SELECT ` + messageColumns + ` FROM messages
		ORDER BY internal_date DESC LIMIT $1 OFFSET $2`

	if err := p.db.SelectContext(ctx, &messages, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	return messages, nil
}

// ListByLabel returns messages whose current classification includes label,
// newest first, along with the unfiltered match count.
func (p *Postgres) ListByLabel(ctx context.Context, label string, limit, offset int) ([]models.Message, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM messages WHERE $1 = ANY(labels)`
	if err := p.db.GetContext(ctx, &total, countQuery, label); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages with label %q: %w", label, err)
	}

	var messages []models.Message
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE $1 = ANY(labels)
		ORDER BY internal_date DESC LIMIT $2 OFFSET $3`

	if err := p.db.SelectContext(ctx, &messages, query, label, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list messages with label %q: %w", label, err)
	}

	return messages, total, nil
}

// scoredRow is the scan target for similarity search results
type scoredRow struct {
	models.Message
	Similarity float64 `db:"similarity"`
}

// SimilaritySearch runs an approximate nearest-neighbor search over stored
// embeddings and returns matches with cosine similarity >= threshold,
// descending by similarity.
func (p *Postgres) SimilaritySearch(ctx context.Context, queryVector []float32, limit int, threshold float64) ([]models.ScoredMessage, error) {
	query := `SELECT ` + messageColumns + `,
			1 - (embedding <=> $1::vector) AS similarity
		FROM messages
		WHERE embedding IS NOT NULL
			AND 1 - (embedding <=> $1::vector) >= $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`

	var rows []scoredRow
	if err := p.db.SelectContext(ctx, &rows, query, FormatVector(queryVector), threshold, limit); err != nil {
		return nil, fmt.Errorf("failed to run similarity search: %w", err)
	}

	results := make([]models.ScoredMessage, len(rows))
	for i, row := range rows {
		results[i] = models.ScoredMessage{Message: row.Message, Similarity: row.Similarity}
	}

	return results, nil
}

// GetEmbeddingByID returns a message's stored embedding, or nil when the
// message is unknown or has no embedding yet.
func (p *Postgres) GetEmbeddingByID(ctx context.Context, id string) ([]float32, error) {
	var literal string
	query := `SELECT embedding::text FROM messages WHERE id = $1 AND embedding IS NOT NULL`

	if err := p.db.GetContext(ctx, &literal, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get embedding for message %s: %w", id, err)
	}

	vector, err := ParseVector(literal)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored embedding for message %s: %w", id, err)
	}

	return vector, nil
}

// UpdateEmbedding attaches a computed embedding to a message
func (p *Postgres) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	query := `UPDATE messages SET embedding = $1::vector, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := p.db.ExecContext(ctx, query, FormatVector(embedding), id)
	if err != nil {
		return fmt.Errorf("failed to update embedding for message %s: %w", id, err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("message %s not found", id)
	}

	return nil
}

// ListMissingEmbeddings returns messages that have no embedding yet
func (p *Postgres) ListMissingEmbeddings(ctx context.Context, limit int) ([]models.Message, error) {
	var messages []models.Message
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE embedding IS NULL
		ORDER BY internal_date DESC LIMIT $1`

	if err := p.db.SelectContext(ctx, &messages, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list messages missing embeddings: %w", err)
	}

	return messages, nil
}

// CreateClassification appends a classification record and mirrors it onto
// the message row. History rows are never mutated, so retrieval by label
// always reflects the latest classification. Returns the record id.
func (p *Postgres) CreateClassification(ctx context.Context, messageID string, labels []string, priority, summary, model string) (string, error) {
	recordID := uuid.NewString()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin classification transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertQuery := `
		INSERT INTO classifications (id, message_id, labels, priority, summary, model)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, insertQuery, recordID, messageID, pq.StringArray(labels), priority, summary, model); err != nil {
		return "", fmt.Errorf("failed to insert classification record: %w", err)
	}

	updateQuery := `
		UPDATE messages
		SET labels = $1, priority = $2, summary = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	if _, err := tx.ExecContext(ctx, updateQuery, pq.StringArray(labels), priority, summary, messageID); err != nil {
		return "", fmt.Errorf("failed to update message classification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit classification: %w", err)
	}

	return recordID, nil
}

// GetLatestClassification returns the most recent classification record for
// a message, or nil when the message has never been classified.
func (p *Postgres) GetLatestClassification(ctx context.Context, messageID string) (*models.ClassificationRecord, error) {
	var record models.ClassificationRecord
	query := `SELECT id, message_id, labels, priority, summary, model, created_at
		FROM classifications
		WHERE message_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	if err := p.db.GetContext(ctx, &record, query, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest classification for %s: %w", messageID, err)
	}

	return &record, nil
}

// ListClassifications returns the full classification history for a message,
// newest first.
func (p *Postgres) ListClassifications(ctx context.Context, messageID string) ([]models.ClassificationRecord, error) {
	var records []models.ClassificationRecord
	query := `SELECT id, message_id, labels, priority, summary, model, created_at
		FROM classifications
		WHERE message_id = $1
		ORDER BY created_at DESC`

	if err := p.db.SelectContext(ctx, &records, query, messageID); err != nil {
		return nil, fmt.Errorf("failed to list classifications for %s: %w", messageID, err)
	}

	return records, nil
}

// GetHistoryID returns the stored mailbox sync checkpoint, empty when no
// sync has completed yet.
func (p *Postgres) GetHistoryID(ctx context.Context) (string, error) {
	var value string
	query := `SELECT value FROM sync_state WHERE key = 'history_id'`

	if err := p.db.GetContext(ctx, &value, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get history id: %w", err)
	}

	return value, nil
}

// SetHistoryID stores the mailbox sync checkpoint
func (p *Postgres) SetHistoryID(ctx context.Context, historyID string) error {
	query := `
		INSERT INTO sync_state (key, value, updated_at)
		VALUES ('history_id', $1, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := p.db.ExecContext(ctx, query, historyID); err != nil {
		return fmt.Errorf("failed to set history id: %w", err)
	}

	return nil
}
