package mailbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"mailmind/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	ids           []string
	checkpoint    string
	listErr       error
	fetchErr      map[string]error
	gotCheckpoint string
}

func (f *fakeSource) ListNewMessageIDs(_ context.Context, sinceHistoryID string) ([]string, string, error) {
	f.gotCheckpoint = sinceHistoryID
	return f.ids, f.checkpoint, f.listErr
}

func (f *fakeSource) FetchMessage(_ context.Context, id string) (*models.Message, error) {
	if err, ok := f.fetchErr[id]; ok {
		return nil, err
	}
	return &models.Message{
		ID:           id,
		Subject:      "subject " + id,
		From:         "sender@example.com",
		Body:         "body " + id,
		InternalDate: time.Now(),
	}, nil
}

type fakeSyncStore struct {
	existing   map[string]bool
	historyID  string
	saved      []string
	embedded   []string
	saveErr    error
	setHistory []string
}

func (f *fakeSyncStore) GetMessageByID(_ context.Context, id string) (*models.Message, error) {
	if f.existing[id] {
		return &models.Message{ID: id}, nil
	}
	return nil, nil
}

func (f *fakeSyncStore) SaveMessage(_ context.Context, msg *models.Message) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, msg.ID)
	return nil
}

func (f *fakeSyncStore) UpdateEmbedding(_ context.Context, id string, _ []float32) error {
	f.embedded = append(f.embedded, id)
	return nil
}

func (f *fakeSyncStore) CreateClassification(_ context.Context, messageID string, _ []string, _, _, _ string) (string, error) {
	return "record-" + messageID, nil
}

func (f *fakeSyncStore) GetHistoryID(_ context.Context) (string, error) {
	return f.historyID, nil
}

func (f *fakeSyncStore) SetHistoryID(_ context.Context, historyID string) error {
	f.setHistory = append(f.setHistory, historyID)
	return nil
}

type fakeSyncEmbedder struct {
	err error
}

func (f *fakeSyncEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func TestSyncStoresNewMessages(t *testing.T) {
	source := &fakeSource{ids: []string{"m1", "m2", "m3"}, checkpoint: "cp-2"}
	store := &fakeSyncStore{existing: map[string]bool{"m2": true}, historyID: "cp-1"}
	syncer := NewSyncer(source, store, &fakeSyncEmbedder{}, nil, "gpt-4o-mini", zerolog.Nop())

	stats, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cp-1", source.gotCheckpoint)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Embedded)
	assert.Equal(t, 0, stats.Classified)
	assert.Equal(t, []string{"m1", "m3"}, store.saved)
	assert.Equal(t, []string{"cp-2"}, store.setHistory)
}

func TestSyncSurvivesFetchFailure(t *testing.T) {
	source := &fakeSource{
		ids:        []string{"m1", "broken", "m3"},
		checkpoint: "cp-2",
		fetchErr:   map[string]error{"broken": errors.New("gone")},
	}
	store := &fakeSyncStore{existing: map[string]bool{}}
	syncer := NewSyncer(source, store, nil, nil, "", zerolog.Nop())

	stats, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, []string{"m1", "m3"}, store.saved)
	// Checkpoint still advances; the bad message is retried on the next sync
	assert.Equal(t, []string{"cp-2"}, store.setHistory)
}

func TestSyncEmbeddingFailureIsNonFatal(t *testing.T) {
	source := &fakeSource{ids: []string{"m1"}, checkpoint: "cp-1"}
	store := &fakeSyncStore{existing: map[string]bool{}}
	syncer := NewSyncer(source, store, &fakeSyncEmbedder{err: errors.New("rate limited")}, nil, "", zerolog.Nop())

	stats, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, []string{"m1"}, store.saved)
}

func TestSyncSaveFailureAborts(t *testing.T) {
	source := &fakeSource{ids: []string{"m1", "m2"}, checkpoint: "cp-1"}
	store := &fakeSyncStore{existing: map[string]bool{}, saveErr: errors.New("disk full")}
	syncer := NewSyncer(source, store, nil, nil, "", zerolog.Nop())

	_, err := syncer.Sync(context.Background())
	assert.Error(t, err)
	assert.Empty(t, store.setHistory)
}

func TestSyncUnchangedCheckpointNotRewritten(t *testing.T) {
	source := &fakeSource{ids: nil, checkpoint: "cp-1"}
	store := &fakeSyncStore{historyID: "cp-1"}
	syncer := NewSyncer(source, store, nil, nil, "", zerolog.Nop())

	stats, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Fetched)
	assert.Empty(t, store.setHistory)
}
