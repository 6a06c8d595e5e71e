package server_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawgraph-core/server/internal/server"
)

func newTestStore(t *testing.T) *server.ChatStore {
	t.Helper()
	store, err := server.NewChatStore(filepath.Join(t.TempDir(), "chats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestChatStore_BootstrapUpsertsAPIKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Bootstrap(ctx, "alice", "old-key"))
	require.NoError(t, store.Bootstrap(ctx, "alice", "new-key"))

	_, err := store.UserByAPIKey(ctx, "old-key")
	assert.Error(t, err)

	user, err := store.UserByAPIKey(ctx, "new-key")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestChatStore_TranscriptOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Bootstrap(ctx, "alice", "key"))
	user, err := store.UserByAPIKey(ctx, "key")
	require.NoError(t, err)
	require.NoError(t, store.CreateChat(ctx, "chat-1", user.ID))

	require.NoError(t, store.AppendExchange(ctx, "chat-1", "first question", "first answer"))
	require.NoError(t, store.AppendExchange(ctx, "chat-1", "second question", "second answer"))

	transcript, err := store.Transcript(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, transcript, 4)
	assert.Equal(t, []string{"first question", "first answer", "second question", "second answer"},
		[]string{transcript[0].Content, transcript[1].Content, transcript[2].Content, transcript[3].Content})

	n, err := store.MessageCount(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestChatStore_SetTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Bootstrap(ctx, "alice", "key"))
	user, err := store.UserByAPIKey(ctx, "key")
	require.NoError(t, err)
	require.NoError(t, store.CreateChat(ctx, "chat-1", user.ID))

	assert.NoError(t, store.SetTitle(ctx, "chat-1", "Deed Transfer Basics"))
}

func TestChatStore_ChatOwnerMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ChatOwner(context.Background(), "ghost")
	assert.ErrorIs(t, err, server.ErrChatNotFound)
}
