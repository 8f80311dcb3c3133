package embeddings

import (
	"context"
	"fmt"
	"strings"

	"mailmind/internal/models"

	"github.com/rs/zerolog"
)

// BackfillStore is the slice of the message store the backfill pass needs
type BackfillStore interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]models.Message, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// BatchEmbedder extends Embedder with batched requests
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Backfill computes embeddings for stored messages that don't have one yet
type Backfill struct {
	store    BackfillStore
	embedder BatchEmbedder
	logger   zerolog.Logger
}

// NewBackfill creates a backfill pass
func NewBackfill(store BackfillStore, embedder BatchEmbedder, logger zerolog.Logger) *Backfill {
	return &Backfill{store: store, embedder: embedder, logger: logger}
}

// Run processes one batch of messages missing embeddings and returns how
// many were embedded. Call repeatedly until it returns 0.
func (b *Backfill) Run(ctx context.Context, batchSize int) (int, error) {
	messages, err := b.store.ListMissingEmbeddings(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages for backfill: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	texts := make([]string, len(messages))
	for i, msg := range messages {
		texts[i] = BuildMessageText(&msg)
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed batch of %d messages: %w", len(messages), err)
	}

	embedded := 0
	for i, msg := range messages {
		if err := b.store.UpdateEmbedding(ctx, msg.ID, vectors[i]); err != nil {
			b.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to store embedding")
			continue
		}
		embedded++
	}

	b.logger.Info().Int("embedded", embedded).Int("batch", len(messages)).Msg("Embedding backfill batch complete")
	return embedded, nil
}

// BuildMessageText creates the text representation of a message that gets
// embedded. Subject and sender anchor the vector; the body carries content.
func BuildMessageText(msg *models.Message) string {
	var parts []string

	if msg.Subject != "" {
		parts = append(parts, "Subject: "+msg.Subject)
	}
	if msg.From != "" {
		parts = append(parts, "From: "+msg.From)
	}
	if msg.Snippet != "" {
		parts = append(parts, msg.Snippet)
	}
	if msg.Body != "" {
		// Truncate body to avoid token limits
		body := []rune(msg.Body)
		if len(body) > 2000 {
			body = body[:2000]
		}
		parts = append(parts, string(body))
	}

	return strings.Join(parts, " | ")
}
