package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mailmind/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	labelMessages []models.Message
	labelTotal    int
	labelErr      error
	gotLabel      string
	gotLabelLimit int

	recentMessages []models.Message
	recentErr      error

	matches      []models.ScoredMessage
	searchErr    error
	gotLimit     int
	gotThreshold float64

	message   *models.Message
	embedding []float32
}

func (f *fakeStore) ListByLabel(_ context.Context, label string, limit, _ int) ([]models.Message, int, error) {
	f.gotLabel = label
	f.gotLabelLimit = limit
	return f.labelMessages, f.labelTotal, f.labelErr
}

func (f *fakeStore) ListRecent(_ context.Context, _, _ int) ([]models.Message, error) {
	return f.recentMessages, f.recentErr
}

func (f *fakeStore) SimilaritySearch(_ context.Context, _ []float32, limit int, threshold float64) ([]models.ScoredMessage, error) {
	f.gotLimit = limit
	f.gotThreshold = threshold
	return f.matches, f.searchErr
}

func (f *fakeStore) GetMessageByID(_ context.Context, _ string) (*models.Message, error) {
	return f.message, nil
}

func (f *fakeStore) GetEmbeddingByID(_ context.Context, _ string) ([]float32, error) {
	return f.embedding, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeGenerator struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.answer, f.err
}

type fakeAudit struct {
	entries []models.QueryLogEntry
}

func (f *fakeAudit) LogQuery(_ context.Context, entry models.QueryLogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func engineMessage(id, subject string) models.Message {
	return models.Message{
		ID:           id,
		Subject:      subject,
		From:         "sender@example.com",
		Snippet:      "snippet for " + id,
		InternalDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestEngine(store *fakeStore, embedder *fakeEmbedder, generator *fakeGenerator) *Engine {
	return NewEngine(store, embedder, generator, DefaultOptions(), zerolog.Nop())
}

func TestQueryEmptyQuestion(t *testing.T) {
	engine := newTestEngine(&fakeStore{}, &fakeEmbedder{}, &fakeGenerator{})

	for _, question := range []string{"", "   ", "\t\n"} {
		result, err := engine.Query(context.Background(), question, 0, 0)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestQueryClassification(t *testing.T) {
	store := &fakeStore{
		labelMessages: []models.Message{
			engineMessage("r1", "Re: your application"),
			engineMessage("r2", "Application update"),
			engineMessage("r3", "Thank you for applying"),
		},
		labelTotal: 7,
	}
	generator := &fakeGenerator{answer: "You received 7 rejection emails."}
	embedder := &fakeEmbedder{}
	engine := newTestEngine(store, embedder, generator)

	result, err := engine.Query(context.Background(), "How many job rejections did I get?", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "classification", result.QueryType)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Equal(t, "You received 7 rejection emails.", result.Answer)
	require.NotNil(t, result.TotalCount)
	assert.Equal(t, 7, *result.TotalCount)
	assert.Equal(t, "job-rejection", store.gotLabel)

	require.Len(t, result.Sources, 3)
	for _, source := range result.Sources {
		assert.Equal(t, 1.0, source.Similarity)
	}

	// Exact filter path: one generation call, no embedding call
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, 0, embedder.calls)
	assert.Contains(t, generator.lastPrompt, "job-rejection")
	assert.Contains(t, generator.lastPrompt, "7")
}

func TestQueryClassificationNoMatches(t *testing.T) {
	store := &fakeStore{labelTotal: 0}
	generator := &fakeGenerator{answer: "should not be called"}
	engine := newTestEngine(store, &fakeEmbedder{}, generator)

	result, err := engine.Query(context.Background(), "any emails about insurance?", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, ConfidenceNone, result.Confidence)
	assert.Equal(t, "classification", result.QueryType)
	assert.Contains(t, result.Answer, `"insurance"`)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
	assert.Equal(t, 0, generator.calls)
}

func TestQueryTemporal(t *testing.T) {
	store := &fakeStore{
		recentMessages: []models.Message{
			engineMessage("m1", "Newest"),
			engineMessage("m2", "Older"),
		},
	}
	generator := &fakeGenerator{answer: "Your two newest emails are..."}
	engine := newTestEngine(store, &fakeEmbedder{}, generator)

	result, err := engine.Query(context.Background(), "Show me my recent emails", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "temporal", result.QueryType)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, 1.0, result.Sources[0].Similarity)
	assert.Equal(t, 1, generator.calls)
}

func TestQueryTemporalEmptyMailbox(t *testing.T) {
	generator := &fakeGenerator{answer: "should not be called"}
	engine := newTestEngine(&fakeStore{}, &fakeEmbedder{}, generator)

	result, err := engine.Query(context.Background(), "Show me my recent emails", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "temporal", result.QueryType)
	assert.Equal(t, ConfidenceNone, result.Confidence)
	assert.Equal(t, "I couldn't find any emails in the mailbox.", result.Answer)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
	assert.Equal(t, 0, generator.calls)
}

func TestQuerySemanticConfidence(t *testing.T) {
	tests := []struct {
		name       string
		topScore   float64
		confidence string
	}{
		{"above high cut-off", 0.85, ConfidenceHigh},
		{"between cut-offs", 0.72, ConfidenceMedium},
		{"below medium cut-off", 0.55, ConfidenceLow},
		{"exactly at high cut-off stays medium", 0.8, ConfidenceMedium},
		{"exactly at medium cut-off stays low", 0.6, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				matches: []models.ScoredMessage{
					{Message: engineMessage("m1", "Top match"), Similarity: tt.topScore},
					{Message: engineMessage("m2", "Weaker match"), Similarity: tt.topScore - 0.05},
				},
			}
			generator := &fakeGenerator{answer: "answer"}
			embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
			engine := newTestEngine(store, embedder, generator)

			result, err := engine.Query(context.Background(), "What did the organizers say about parking?", 0, 0)
			require.NoError(t, err)

			assert.Equal(t, "semantic", result.QueryType)
			assert.Equal(t, tt.confidence, result.Confidence)
			assert.Equal(t, tt.topScore, result.Sources[0].Similarity)
			assert.Equal(t, 1, embedder.calls)
			assert.Equal(t, 1, generator.calls)
		})
	}
}

func TestQuerySemanticNoMatches(t *testing.T) {
	generator := &fakeGenerator{answer: "should not be called"}
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	engine := newTestEngine(&fakeStore{}, embedder, generator)

	result, err := engine.Query(context.Background(), "What did the organizers say about parking?", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, ConfidenceNone, result.Confidence)
	assert.Equal(t, "I couldn't find any relevant emails to answer your question.", result.Answer)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
	assert.Equal(t, 0, generator.calls)
}

func TestQuerySemanticCountingWidensSearch(t *testing.T) {
	store := &fakeStore{
		matches: []models.ScoredMessage{
			{Message: engineMessage("m1", "Budget"), Similarity: 0.4},
		},
	}
	engine := newTestEngine(store, &fakeEmbedder{vector: []float32{0.1}}, &fakeGenerator{answer: "about 12"})

	_, err := engine.Query(context.Background(), "how many people asked about the budget", 0, 0)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, store.gotLimit, 50)
	assert.LessOrEqual(t, store.gotThreshold, 0.25)
}

func TestQuerySemanticCountingKeepsWiderCallerValues(t *testing.T) {
	store := &fakeStore{
		matches: []models.ScoredMessage{
			{Message: engineMessage("m1", "Budget"), Similarity: 0.3},
		},
	}
	engine := newTestEngine(store, &fakeEmbedder{vector: []float32{0.1}}, &fakeGenerator{answer: "about 12"})

	_, err := engine.Query(context.Background(), "how many people asked about the budget", 100, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 100, store.gotLimit)
	assert.Equal(t, 0.1, store.gotThreshold)
}

func TestQuerySemanticExplicitKnobs(t *testing.T) {
	store := &fakeStore{
		matches: []models.ScoredMessage{
			{Message: engineMessage("m1", "Match"), Similarity: 0.9},
		},
	}
	engine := newTestEngine(store, &fakeEmbedder{vector: []float32{0.1}}, &fakeGenerator{answer: "answer"})

	_, err := engine.Query(context.Background(), "What did the organizers say about parking?", 3, 0.7)
	require.NoError(t, err)

	assert.Equal(t, 3, store.gotLimit)
	assert.Equal(t, 0.7, store.gotThreshold)
}

func TestQueryProviderErrors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		embedder := &fakeEmbedder{err: fmt.Errorf("rate limited")}
		engine := newTestEngine(&fakeStore{}, embedder, &fakeGenerator{})

		result, err := engine.Query(context.Background(), "What about the parking situation?", 0, 0)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrProvider)
	})

	t.Run("generation failure", func(t *testing.T) {
		store := &fakeStore{recentMessages: []models.Message{engineMessage("m1", "Newest")}}
		generator := &fakeGenerator{err: errors.New("model unavailable")}
		engine := newTestEngine(store, &fakeEmbedder{}, generator)

		result, err := engine.Query(context.Background(), "show my latest emails", 0, 0)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrProvider)
	})

	t.Run("store failure is not a provider error", func(t *testing.T) {
		store := &fakeStore{recentErr: errors.New("connection refused")}
		engine := newTestEngine(store, &fakeEmbedder{}, &fakeGenerator{})

		_, err := engine.Query(context.Background(), "show my latest emails", 0, 0)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrProvider)
	})
}

func TestQueryAuditLog(t *testing.T) {
	store := &fakeStore{recentMessages: []models.Message{engineMessage("m1", "Newest")}}
	engine := newTestEngine(store, &fakeEmbedder{}, &fakeGenerator{answer: "your newest email"})
	audit := &fakeAudit{}
	engine.SetAuditLog(audit)

	_, err := engine.Query(context.Background(), "show my latest emails", 0, 0)
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "show my latest emails", entry.Question)
	assert.Equal(t, "your newest email", entry.Answer)
	assert.Equal(t, "temporal", entry.QueryType)
	assert.Equal(t, ConfidenceHigh, entry.Confidence)
}

func TestFindSimilarExcludesSelf(t *testing.T) {
	self := engineMessage("m1", "Original")
	store := &fakeStore{
		message:   &self,
		embedding: []float32{0.1, 0.2},
		matches: []models.ScoredMessage{
			{Message: self, Similarity: 1.0},
			{Message: engineMessage("m2", "Neighbor A"), Similarity: 0.9},
			{Message: engineMessage("m3", "Neighbor B"), Similarity: 0.8},
			{Message: engineMessage("m4", "Neighbor C"), Similarity: 0.7},
		},
	}
	engine := newTestEngine(store, &fakeEmbedder{}, &fakeGenerator{})

	sources, err := engine.FindSimilar(context.Background(), "m1", 2)
	require.NoError(t, err)

	// One extra row was requested to absorb the self-match
	assert.Equal(t, 3, store.gotLimit)

	require.Len(t, sources, 2)
	assert.Equal(t, "m2", sources[0].MessageID)
	assert.Equal(t, "m3", sources[1].MessageID)
	for _, source := range sources {
		assert.NotEqual(t, "m1", source.MessageID)
	}
}

func TestFindSimilarDefaultLimit(t *testing.T) {
	self := engineMessage("m1", "Original")
	store := &fakeStore{message: &self, embedding: []float32{0.1}}
	engine := newTestEngine(store, &fakeEmbedder{}, &fakeGenerator{})

	sources, err := engine.FindSimilar(context.Background(), "m1", 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultOptions().TopK+1, store.gotLimit)
	assert.Empty(t, sources)
}

func TestFindSimilarNotFound(t *testing.T) {
	t.Run("unknown message", func(t *testing.T) {
		engine := newTestEngine(&fakeStore{}, &fakeEmbedder{}, &fakeGenerator{})

		sources, err := engine.FindSimilar(context.Background(), "missing", 5)
		assert.Nil(t, sources)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("message without embedding", func(t *testing.T) {
		self := engineMessage("m1", "Original")
		store := &fakeStore{message: &self}
		engine := newTestEngine(store, &fakeEmbedder{}, &fakeGenerator{})

		sources, err := engine.FindSimilar(context.Background(), "m1", 5)
		assert.Nil(t, sources)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "no embedding")
	})
}
