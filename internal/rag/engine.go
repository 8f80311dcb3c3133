// Package rag routes free-text mailbox questions to one of three retrieval
// strategies (label filter, recency scan, similarity search) and composes a
// grounded answer with cited sources.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mailmind/internal/models"

	"github.com/rs/zerolog"
)

// Store is the read surface of the message store the engine depends on
type Store interface {
	ListByLabel(ctx context.Context, label string, limit, offset int) ([]models.Message, int, error)
	ListRecent(ctx context.Context, limit, offset int) ([]models.Message, error)
	SimilaritySearch(ctx context.Context, queryVector []float32, limit int, threshold float64) ([]models.ScoredMessage, error)
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	GetEmbeddingByID(ctx context.Context, id string) ([]float32, error)
}

// Embedder converts a question to a query vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the answer text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AuditLog records answered queries. Logging is best-effort and never fails
// a query.
type AuditLog interface {
	LogQuery(ctx context.Context, entry models.QueryLogEntry) error
}

// Confidence tiers attached to query results
const (
	ConfidenceNone   = "none"
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Options holds the engine's tuning knobs. The confidence cut-offs and the
// counting-query relaxation are heuristics, not correctness guarantees.
type Options struct {
	TopK                int     // default retrieval width
	SimilarityThreshold float64 // default semantic similarity floor
	HighConfidence      float64 // top score above this => high
	MediumConfidence    float64 // top score above this => medium
	CountingLimit       int     // minimum width for counting questions
	CountingThreshold   float64 // floor cap for counting questions
}

// DefaultOptions returns the stock tuning values
func DefaultOptions() Options {
	return Options{
		TopK:                5,
		SimilarityThreshold: 0.5,
		HighConfidence:      0.8,
		MediumConfidence:    0.6,
		CountingLimit:       50,
		CountingThreshold:   0.25,
	}
}

// Engine answers mailbox questions. Every query is stateless and
// independent; concurrent queries share only the read-mostly store.
type Engine struct {
	store     Store
	embedder  Embedder
	generator Generator
	audit     AuditLog
	opts      Options
	logger    zerolog.Logger
}

// NewEngine wires the engine's collaborators. All dependencies are explicit;
// there is no ambient default store or provider.
func NewEngine(store Store, embedder Embedder, generator Generator, opts Options, logger zerolog.Logger) *Engine {
	if opts.TopK <= 0 {
		opts = DefaultOptions()
	}
	return &Engine{
		store:     store,
		embedder:  embedder,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// SetAuditLog enables best-effort query logging
func (e *Engine) SetAuditLog(audit AuditLog) {
	e.audit = audit
}

// Query answers a question over the mailbox corpus. topK <= 0 and
// threshold <= 0 fall back to the engine defaults. Zero-match retrieval is
// a successful result with confidence "none", not an error.
func (e *Engine) Query(ctx context.Context, question string, topK int, threshold float64) (*models.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", ErrValidation)
	}

	k := topK
	if k <= 0 {
		k = e.opts.TopK
	}
	th := threshold
	if th <= 0 {
		th = e.opts.SimilarityThreshold
	}

	strategy := ClassifyQuestion(question)
	e.logger.Debug().Str("strategy", strategy.String()).Str("question", question).Msg("Routing query")

	start := time.Now()

	var (
		result *models.QueryResult
		err    error
	)
	switch strategy {
	case StrategyClassification:
		result, err = e.classificationQuery(ctx, question, k)
	case StrategyTemporal:
		result, err = e.temporalQuery(ctx, question, k)
	default:
		result, err = e.semanticQuery(ctx, question, k, th)
	}
	if err != nil {
		return nil, err
	}

	e.recordQuery(ctx, result, time.Since(start))
	return result, nil
}

// classificationQuery answers via an exact label filter. Sources carry
// similarity 1.0: the match is exact, not ranked.
func (e *Engine) classificationQuery(ctx context.Context, question string, limit int) (*models.QueryResult, error) {
	label, ok := MatchLabel(question)
	if !ok {
		// No resolvable label; fall back to semantic search with the
		// relaxed default floor rather than failing outright.
		return e.semanticQuery(ctx, question, limit, e.opts.SimilarityThreshold)
	}

	messages, total, err := e.store.ListByLabel(ctx, label, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("classification retrieval failed: %w", err)
	}

	if len(messages) == 0 {
		return &models.QueryResult{
			Answer:     fmt.Sprintf("I couldn't find any emails with the label %q in the mailbox.", label),
			Sources:    []models.Source{},
			Question:   question,
			Confidence: ConfidenceNone,
			QueryType:  StrategyClassification.String(),
		}, nil
	}

	prompt := classificationPrompt(question, BuildContext(messages), label, len(messages), total)
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, providerError("generate classification answer", err)
	}

	return &models.QueryResult{
		Answer:     answer,
		Sources:    sourcesFromMessages(messages),
		Question:   question,
		Confidence: ConfidenceHigh,
		QueryType:  StrategyClassification.String(),
		TotalCount: &total,
	}, nil
}

// temporalQuery answers from the newest messages; position drives relevance,
// so sources carry similarity 1.0.
func (e *Engine) temporalQuery(ctx context.Context, question string, limit int) (*models.QueryResult, error) {
	messages, err := e.store.ListRecent(ctx, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("temporal retrieval failed: %w", err)
	}

	if len(messages) == 0 {
		return &models.QueryResult{
			Answer:     "I couldn't find any emails in the mailbox.",
			Sources:    []models.Source{},
			Question:   question,
			Confidence: ConfidenceNone,
			QueryType:  StrategyTemporal.String(),
		}, nil
	}

	prompt := temporalPrompt(question, BuildContext(messages))
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, providerError("generate temporal answer", err)
	}

	return &models.QueryResult{
		Answer:     answer,
		Sources:    sourcesFromMessages(messages),
		Question:   question,
		Confidence: ConfidenceHigh,
		QueryType:  StrategyTemporal.String(),
	}, nil
}

// semanticQuery embeds the question and searches stored embeddings. Counting
// questions widen the search and lower the floor before searching.
func (e *Engine) semanticQuery(ctx context.Context, question string, limit int, threshold float64) (*models.QueryResult, error) {
	if isCountingQuestion(question) {
		if limit < e.opts.CountingLimit {
			limit = e.opts.CountingLimit
		}
		if threshold > e.opts.CountingThreshold {
			threshold = e.opts.CountingThreshold
		}
	}

	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, providerError("embed question", err)
	}

	matches, err := e.store.SimilaritySearch(ctx, vector, limit, threshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	if len(matches) == 0 {
		return &models.QueryResult{
			Answer:     "I couldn't find any relevant emails to answer your question.",
			Sources:    []models.Source{},
			Question:   question,
			Confidence: ConfidenceNone,
			QueryType:  StrategySemantic.String(),
		}, nil
	}

	prompt := semanticPrompt(question, BuildScoredContext(matches))
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, providerError("generate semantic answer", err)
	}

	return &models.QueryResult{
		Answer:     answer,
		Sources:    sourcesFromMatches(matches),
		Question:   question,
		Confidence: e.confidenceFor(matches[0].Similarity),
		QueryType:  StrategySemantic.String(),
	}, nil
}

// FindSimilar returns up to limit neighbors of a stored message, never
// including the message itself. Fails with ErrNotFound when the message or
// its embedding is absent.
func (e *Engine) FindSimilar(ctx context.Context, messageID string, limit int) ([]models.Source, error) {
	if limit <= 0 {
		limit = e.opts.TopK
	}

	msg, err := e.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message %s: %w", messageID, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}

	vector, err := e.store.GetEmbeddingByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding for %s: %w", messageID, err)
	}
	if vector == nil {
		return nil, fmt.Errorf("%w: message %s has no embedding", ErrNotFound, messageID)
	}

	// One extra result absorbs the self-match, which scores 1.0
	matches, err := e.store.SimilaritySearch(ctx, vector, limit+1, e.opts.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	sources := make([]models.Source, 0, limit)
	for _, match := range matches {
		if match.Message.ID == messageID {
			continue
		}
		sources = append(sources, sourceFromMessage(&match.Message, match.Similarity, true))
		if len(sources) == limit {
			break
		}
	}

	return sources, nil
}

func (e *Engine) confidenceFor(topScore float64) string {
	switch {
	case topScore > e.opts.HighConfidence:
		return ConfidenceHigh
	case topScore > e.opts.MediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func (e *Engine) recordQuery(ctx context.Context, result *models.QueryResult, elapsed time.Duration) {
	if e.audit == nil {
		return
	}

	entry := models.QueryLogEntry{
		Question:   result.Question,
		Answer:     result.Answer,
		QueryType:  result.QueryType,
		Confidence: result.Confidence,
		DurationMs: elapsed.Milliseconds(),
	}
	if err := e.audit.LogQuery(ctx, entry); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to log query")
	}
}

func sourcesFromMessages(messages []models.Message) []models.Source {
	sources := make([]models.Source, len(messages))
	for i := range messages {
		sources[i] = sourceFromMessage(&messages[i], 1.0, false)
	}
	return sources
}

func sourcesFromMatches(matches []models.ScoredMessage) []models.Source {
	sources := make([]models.Source, len(matches))
	for i := range matches {
		sources[i] = sourceFromMessage(&matches[i].Message, matches[i].Similarity, false)
	}
	return sources
}

func sourceFromMessage(msg *models.Message, similarity float64, includeLabels bool) models.Source {
	source := models.Source{
		MessageID:  msg.ID,
		Subject:    msg.Subject,
		From:       msg.From,
		Snippet:    msg.Snippet,
		Similarity: similarity,
		Date:       msg.InternalDate,
	}
	if includeLabels {
		source.Labels = msg.Labels
	}
	return source
}
