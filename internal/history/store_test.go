package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihelper/agrichat/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := domain.ChatMessage{
		ID:        uuid.New(),
		Sequence:  1,
		SessionID: "abc123",
		Role:      domain.RoleUser,
		Content:   "東京の天気はどう？",
		CreatedAt: time.Now().UTC(),
	}
	assistant := domain.ChatMessage{
		ID:        uuid.New(),
		Sequence:  2,
		SessionID: "abc123",
		Role:      domain.RoleAssistant,
		Content:   "晴れです",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Record(ctx, user))
	require.NoError(t, store.Record(ctx, assistant))

	messages, err := store.ListBySession(ctx, "abc123", 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, user.ID, messages[0].ID)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, "東京の天気はどう？", messages[0].Content)
	assert.Nil(t, messages[0].Voice)
	assert.Equal(t, assistant.ID, messages[1].ID)
}

func TestStore_VoiceMetadataRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	msg := domain.ChatMessage{
		ID:        uuid.New(),
		Sequence:  1,
		SessionID: "s1",
		Role:      domain.RoleUser,
		Content:   "voice input",
		Voice: &domain.VoiceMetadata{
			Confidence:     0.87,
			WordCount:      3,
			ProcessingTime: 2.5,
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Record(ctx, msg))

	messages, err := store.ListBySession(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.NotNil(t, messages[0].Voice)
	assert.Equal(t, 0.87, messages[0].Voice.Confidence)
	assert.Equal(t, 3, messages[0].Voice.WordCount)
	assert.Equal(t, 2.5, messages[0].Voice.ProcessingTime)
}

func TestStore_ListOrderedBySequence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Inserted out of order; listed in sequence order.
	for _, seq := range []uint64{3, 1, 2} {
		require.NoError(t, store.Record(ctx, domain.ChatMessage{
			ID:        uuid.New(),
			Sequence:  seq,
			SessionID: "s1",
			Role:      domain.RoleUser,
			Content:   "m",
			CreatedAt: time.Now().UTC(),
		}))
	}

	messages, err := store.ListBySession(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, uint64(1), messages[0].Sequence)
	assert.Equal(t, uint64(2), messages[1].Sequence)
	assert.Equal(t, uint64(3), messages[2].Sequence)
}

func TestStore_SessionsIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, session := range []string{"a", "b"} {
		require.NoError(t, store.Record(ctx, domain.ChatMessage{
			ID:        uuid.New(),
			Sequence:  1,
			SessionID: session,
			Role:      domain.RoleUser,
			Content:   session,
			CreatedAt: time.Now().UTC(),
		}))
	}

	messages, err := store.ListBySession(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "a", messages[0].Content)
}
