package server

import (
	"fmt"
	"testing"

	"github.com/go-chathub/chathub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MessageStore {
	t.Helper()

	var n int
	store := NewMessageStore()
	store.generateId = func() (string, error) {
		n++
		return fmt.Sprintf("sid%04d", n), nil
	}
	return store
}

func appendN(t *testing.T, store *MessageStore, roomId string, n int) []*types.Message {
	t.Helper()

	msgs := make([]*types.Message, n)
	for i := 0; i < n; i++ {
		msgs[i] = store.Append(roomId, &types.Message{
			Sender:   "alice",
			SenderId: "conn-1",
			Body:     fmt.Sprintf("message %d", i),
		})
	}
	return msgs
}

func TestMessageStoreAppend(t *testing.T) {
	t.Run("stamps id, room and timestamp", func(t *testing.T) {
		store := newTestStore(t)

		msg := store.Append("general", &types.Message{Sender: "alice", Body: "hi"})

		assert.NotEmpty(t, msg.Id, "expected an id to be assigned")
		assert.Equal(t, "general", msg.RoomId, "expected room id to be stamped")
		assert.False(t, msg.Timestamp.IsZero(), "expected timestamp to be stamped")
		assert.False(t, msg.Delivered, "expected new message to be undelivered")
	})

	t.Run("ids are unique and ordered", func(t *testing.T) {
		store := newTestStore(t)

		a := store.Append("general", &types.Message{Body: "first"})
		b := store.Append("general", &types.Message{Body: "second"})

		assert.NotEqual(t, a.Id, b.Id, "expected distinct ids")
	})

	t.Run("attachment clears body", func(t *testing.T) {
		store := newTestStore(t)

		msg := store.Append("general", &types.Message{
			Body: "should be dropped",
			File: &types.Attachment{URL: "/uploads/file-1.png", Filename: "cat.png"},
		})

		assert.Empty(t, msg.Body, "expected body to be cleared when an attachment is present")
		assert.NotNil(t, msg.File, "expected attachment to be kept")
	})

	t.Run("evicts oldest past the cap", func(t *testing.T) {
		store := newTestStore(t)

		msgs := appendN(t, store, "general", RoomLogCap+1)

		log := store.Messages("general")
		require.Len(t, log, RoomLogCap, "expected log length to stay at the cap")
		assert.Equal(t, msgs[1].Id, log[0].Id, "expected exactly the oldest entry to be evicted")
		assert.Equal(t, msgs[len(msgs)-1].Id, log[len(log)-1].Id, "expected newest entry to be retained")
	})
}

func TestMessageStoreTail(t *testing.T) {
	store := newTestStore(t)
	msgs := appendN(t, store, "general", 10)

	t.Run("returns suffix oldest first", func(t *testing.T) {
		tail := store.Tail("general", 3)

		require.Len(t, tail, 3)
		assert.Equal(t, msgs[7].Id, tail[0].Id, "expected tail to start at the third-newest message")
		assert.Equal(t, msgs[9].Id, tail[2].Id, "expected tail to end at the newest message")
	})

	t.Run("limit larger than log", func(t *testing.T) {
		tail := store.Tail("general", 50)
		assert.Len(t, tail, 10, "expected the whole log")
	})

	t.Run("unknown room", func(t *testing.T) {
		assert.Empty(t, store.Tail("nowhere", 5), "expected empty tail for unknown room")
	})
}

func TestMessageStorePage(t *testing.T) {
	store := newTestStore(t)
	msgs := appendN(t, store, "general", 30)

	t.Run("no anchor returns latest page", func(t *testing.T) {
		page := store.Page("general", "", 20)

		require.Len(t, page, 20)
		assert.Equal(t, msgs[10].Id, page[0].Id, "expected page to start 20 from the end")
		assert.Equal(t, msgs[29].Id, page[19].Id, "expected page to end at the newest message")
	})

	t.Run("anchor returns messages preceding it", func(t *testing.T) {
		page := store.Page("general", msgs[25].Id, 5)

		require.Len(t, page, 5)
		assert.Equal(t, msgs[20].Id, page[0].Id)
		assert.Equal(t, msgs[24].Id, page[4].Id, "expected page to end just before the anchor")
	})

	t.Run("anchor near the start truncates", func(t *testing.T) {
		page := store.Page("general", msgs[2].Id, 20)

		require.Len(t, page, 2)
		assert.Equal(t, msgs[0].Id, page[0].Id)
	})

	t.Run("stale anchor degrades to latest page", func(t *testing.T) {
		page := store.Page("general", "no-such-id", 20)

		require.Len(t, page, 20, "expected the most recent 20 messages, not an error")
		assert.Equal(t, msgs[29].Id, page[19].Id)
	})
}

func TestMessageStoreSearch(t *testing.T) {
	store := newTestStore(t)
	store.Append("general", &types.Message{Sender: "alice", Body: "Hello World"})
	store.Append("general", &types.Message{Sender: "bob", Body: "goodbye"})
	store.Append("general", &types.Message{Sender: "Walter", Body: "unrelated"})

	t.Run("matches body case-insensitively", func(t *testing.T) {
		results := store.Search("general", "hello")

		require.Len(t, results, 1)
		assert.Equal(t, "Hello World", results[0].Body)
	})

	t.Run("matches sender username", func(t *testing.T) {
		results := store.Search("general", "wal")

		require.Len(t, results, 1)
		assert.Equal(t, "Walter", results[0].Sender)
	})

	t.Run("no match returns empty, not nil error", func(t *testing.T) {
		assert.Empty(t, store.Search("general", "zzz"))
	})

	t.Run("caps at the last 20 matches in arrival order", func(t *testing.T) {
		capStore := newTestStore(t)
		msgs := appendN(t, capStore, "general", 30)

		results := capStore.Search("general", "message")

		require.Len(t, results, 20)
		assert.Equal(t, msgs[10].Id, results[0].Id, "expected the oldest surplus matches to be dropped")
		assert.Equal(t, msgs[29].Id, results[19].Id)
	})
}

func TestMessageStoreGet(t *testing.T) {
	store := newTestStore(t)
	msgs := appendN(t, store, "general", 3)

	msg, ok := store.Get("general", msgs[1].Id)
	require.True(t, ok, "expected message to be found")
	assert.Equal(t, msgs[1].Id, msg.Id)

	_, ok = store.Get("general", "missing")
	assert.False(t, ok, "expected missing id to not be found")

	_, ok = store.Get("other", msgs[1].Id)
	assert.False(t, ok, "expected lookup to be scoped to the room")
}

func TestMessageStoreFallbackId(t *testing.T) {
	store := NewMessageStore()
	store.generateId = func() (string, error) {
		return "", fmt.Errorf("generator broken")
	}

	msg := store.Append("general", &types.Message{Body: "hi"})
	assert.NotEmpty(t, msg.Id, "expected a fallback id when the generator fails")
}
