package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryRegister(t *testing.T) {
	t.Run("assigns identity in the default room", func(t *testing.T) {
		reg := NewSessionRegistry("general")

		user := reg.Register("conn-1", "alice", "https://example.com/a.png")

		assert.Equal(t, "conn-1", user.Id)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "https://example.com/a.png", user.Avatar)
		assert.Equal(t, "general", user.CurrentRoom, "expected new users to start in the default room")
		assert.False(t, user.JoinedAt.IsZero(), "expected joined-at to be stamped")
	})

	t.Run("synthesizes a username from the connection id", func(t *testing.T) {
		reg := NewSessionRegistry("general")

		user := reg.Register("abcdef123456", "", "")

		assert.Equal(t, "User_abcdef", user.Username)
		assert.Contains(t, user.Avatar, "ui-avatars.com", "expected a generated avatar URL")
		assert.Contains(t, user.Avatar, "User_abcdef", "expected avatar to reference the username")
	})

	t.Run("re-registration overwrites identity", func(t *testing.T) {
		reg := NewSessionRegistry("general")

		reg.Register("conn-1", "alice", "")
		user := reg.Register("conn-1", "alicia", "")

		got, ok := reg.Lookup("conn-1")
		require.True(t, ok)
		assert.Equal(t, "alicia", got.Username)
		assert.Same(t, user, got)
	})
}

func TestSessionRegistryLookup(t *testing.T) {
	reg := NewSessionRegistry("general")
	reg.Register("conn-1", "alice", "")

	_, ok := reg.Lookup("conn-1")
	assert.True(t, ok)

	_, ok = reg.Lookup("conn-2")
	assert.False(t, ok, "expected unknown connection to be absent")
}

func TestSessionRegistrySetCurrentRoom(t *testing.T) {
	reg := NewSessionRegistry("general")
	reg.Register("conn-1", "alice", "")

	reg.SetCurrentRoom("conn-1", "random")

	user, ok := reg.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, "random", user.CurrentRoom)

	// unknown connections are a no-op
	reg.SetCurrentRoom("conn-2", "random")
	_, ok = reg.Lookup("conn-2")
	assert.False(t, ok)
}

func TestSessionRegistryRemove(t *testing.T) {
	reg := NewSessionRegistry("general")
	reg.Register("conn-1", "alice", "")

	reg.Remove("conn-1")

	_, ok := reg.Lookup("conn-1")
	assert.False(t, ok, "expected identity to be dropped")
}

func TestSessionRegistryUsers(t *testing.T) {
	reg := NewSessionRegistry("general")
	reg.Register("conn-b", "bob", "")
	reg.Register("conn-a", "alice", "")

	users := reg.Users()

	require.Len(t, users, 2)
	// copies, not aliases of live state
	users[0].Username = "mallory"
	got, ok := reg.Lookup(users[0].Id)
	require.True(t, ok)
	assert.NotEqual(t, "mallory", got.Username, "expected Users to return copies")
}
