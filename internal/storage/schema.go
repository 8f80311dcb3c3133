package storage

import (
	"context"
	"fmt"
)

// EnsureSchema creates the database tables and indexes if they don't exist.
// The embedding column is pgvector; dimensionality matches text-embedding-3-small.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to create vector extension (may already exist)")
	}

	queries := []string{
		// Messages table, one row per mailbox message. Classification columns
		// mirror the latest record in the classifications table.
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(255) PRIMARY KEY,
			thread_id VARCHAR(255),
			subject TEXT NOT NULL,
			from_addr TEXT NOT NULL,
			to_addr TEXT,
			snippet TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			internal_date TIMESTAMP NOT NULL,
			embedding vector(1536),
			labels TEXT[] NOT NULL DEFAULT '{}',
			priority VARCHAR(10),
			summary TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Append-only classification history
		`CREATE TABLE IF NOT EXISTS classifications (
			id VARCHAR(36) PRIMARY KEY,
			message_id VARCHAR(255) NOT NULL,
			labels TEXT[] NOT NULL DEFAULT '{}',
			priority VARCHAR(10) NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			model VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (message_id) REFERENCES messages(id) ON DELETE CASCADE
		)`,

		// Mailbox sync checkpoints (history id)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key VARCHAR(64) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Query audit log
		`CREATE TABLE IF NOT EXISTS query_log (
			id SERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			query_type VARCHAR(20) NOT NULL,
			confidence VARCHAR(10) NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_internal_date ON messages(internal_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_labels ON messages USING gin (labels)`,
		`CREATE INDEX IF NOT EXISTS idx_classifications_message_id ON classifications(message_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at DESC)`,
		// HNSW index for fast cosine similarity search with pgvector
		`CREATE INDEX IF NOT EXISTS idx_messages_embedding_hnsw ON messages USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, query := range indexes {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to create index")
		}
	}

	return nil
}
