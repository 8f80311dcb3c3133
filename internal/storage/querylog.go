package storage

import (
	"context"
	"fmt"

	"mailmind/internal/models"
)

// LogQuery appends an audit record for an answered query
func (p *Postgres) LogQuery(ctx context.Context, entry models.QueryLogEntry) error {
	query := `
		INSERT INTO query_log (question, answer, query_type, confidence, duration_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := p.db.ExecContext(ctx, query,
		entry.Question,
		entry.Answer,
		entry.QueryType,
		entry.Confidence,
		entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}

	return nil
}

// ListQueryLog returns answered queries, newest first
func (p *Postgres) ListQueryLog(ctx context.Context, limit, offset int) ([]models.QueryLogEntry, error) {
	var entries []models.QueryLogEntry
	query := `SELECT id, question, answer, query_type, confidence, duration_ms, created_at
		FROM query_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	if err := p.db.SelectContext(ctx, &entries, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list query log: %w", err)
	}

	// Ensure we return an empty slice, not nil
	if entries == nil {
		entries = []models.QueryLogEntry{}
	}

	return entries, nil
}
