package mailbox

import (
	"context"
	"fmt"

	"mailmind/internal/classifier"
	"mailmind/internal/embeddings"
	"mailmind/internal/models"

	"github.com/rs/zerolog"
)

// Store is the write surface of the message store the syncer needs
type Store interface {
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	SaveMessage(ctx context.Context, msg *models.Message) error
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	CreateClassification(ctx context.Context, messageID string, labels []string, priority, summary, model string) (string, error)
	GetHistoryID(ctx context.Context) (string, error)
	SetHistoryID(ctx context.Context, historyID string) error
}

// Stats summarizes one sync run
type Stats struct {
	Fetched    int `json:"fetched"`
	Skipped    int `json:"skipped"`
	Embedded   int `json:"embedded"`
	Classified int `json:"classified"`
}

// Syncer pulls unseen messages from the provider, stores them, then attaches
// embeddings and classifications. Embedding and classification failures are
// logged and skipped; the message itself stays stored for a later pass.
type Syncer struct {
	source     Source
	store      Store
	embedder   embeddings.Embedder
	classifier *classifier.Classifier
	modelName  string
	logger     zerolog.Logger
}

// NewSyncer wires the sync pipeline. modelName is recorded on
// classification records for audit.
func NewSyncer(source Source, store Store, embedder embeddings.Embedder, cls *classifier.Classifier, modelName string, logger zerolog.Logger) *Syncer {
	return &Syncer{
		source:     source,
		store:      store,
		embedder:   embedder,
		classifier: cls,
		modelName:  modelName,
		logger:     logger,
	}
}

// Sync runs one incremental pass from the stored checkpoint. The checkpoint
// only advances after every new message has been stored.
func (s *Syncer) Sync(ctx context.Context) (*Stats, error) {
	checkpoint, err := s.store.GetHistoryID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync checkpoint: %w", err)
	}

	ids, newCheckpoint, err := s.source.ListNewMessageIDs(ctx, checkpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list new messages: %w", err)
	}

	stats := &Stats{}
	for _, id := range ids {
		existing, err := s.store.GetMessageByID(ctx, id)
		if err != nil {
			return stats, fmt.Errorf("failed to check message %s: %w", id, err)
		}
		if existing != nil {
			stats.Skipped++
			continue
		}

		msg, err := s.source.FetchMessage(ctx, id)
		if err != nil {
			// One bad message must not abort the whole run
			s.logger.Warn().Err(err).Str("message_id", id).Msg("Failed to fetch message")
			continue
		}

		if err := s.store.SaveMessage(ctx, msg); err != nil {
			return stats, fmt.Errorf("failed to save message %s: %w", id, err)
		}
		stats.Fetched++

		s.processMessage(ctx, msg, stats)
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
	}

	if newCheckpoint != "" && newCheckpoint != checkpoint {
		if err := s.store.SetHistoryID(ctx, newCheckpoint); err != nil {
			return stats, fmt.Errorf("failed to store sync checkpoint: %w", err)
		}
	}

	s.logger.Info().
		Int("fetched", stats.Fetched).
		Int("skipped", stats.Skipped).
		Int("embedded", stats.Embedded).
		Int("classified", stats.Classified).
		Msg("Mailbox sync complete")

	return stats, nil
}

func (s *Syncer) processMessage(ctx context.Context, msg *models.Message, stats *Stats) {
	if s.embedder != nil {
		vector, err := s.embedder.Embed(ctx, embeddings.BuildMessageText(msg))
		if err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to embed message")
		} else if err := s.store.UpdateEmbedding(ctx, msg.ID, vector); err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to store embedding")
		} else {
			stats.Embedded++
		}
	}

	if s.classifier != nil {
		result, err := s.classifier.Classify(ctx, msg.Subject, msg.Body)
		if err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to classify message")
			return
		}
		if _, err := s.store.CreateClassification(ctx, msg.ID, result.Labels, result.Priority, result.Summary, s.modelName); err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to store classification")
			return
		}
		stats.Classified++
	}
}
