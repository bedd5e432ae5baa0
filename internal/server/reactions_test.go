package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionLedgerAdd(t *testing.T) {
	t.Run("records a reaction", func(t *testing.T) {
		ledger := NewReactionLedger()

		reactions := ledger.Add("msg-1", "conn-1", "like")

		assert.Equal(t, []string{"conn-1"}, reactions["like"])
	})

	t.Run("a new kind moves the user", func(t *testing.T) {
		ledger := NewReactionLedger()

		ledger.Add("msg-1", "conn-1", "like")
		reactions := ledger.Add("msg-1", "conn-1", "love")

		assert.Equal(t, []string{"conn-1"}, reactions["love"], "expected user in the new kind")
		assert.Empty(t, reactions["like"], "expected user removed from every other kind")
	})

	t.Run("re-adding the same kind is idempotent", func(t *testing.T) {
		ledger := NewReactionLedger()

		ledger.Add("msg-1", "conn-1", "like")
		reactions := ledger.Add("msg-1", "conn-1", "like")

		assert.Equal(t, []string{"conn-1"}, reactions["like"], "expected the user to remain, not toggle off")
	})

	t.Run("kinds are independent per user", func(t *testing.T) {
		ledger := NewReactionLedger()

		ledger.Add("msg-1", "conn-1", "like")
		reactions := ledger.Add("msg-1", "conn-2", "dislike")

		assert.Equal(t, []string{"conn-1"}, reactions["like"])
		assert.Equal(t, []string{"conn-2"}, reactions["dislike"])
	})

	t.Run("messages are independent", func(t *testing.T) {
		ledger := NewReactionLedger()

		ledger.Add("msg-1", "conn-1", "like")
		ledger.Add("msg-2", "conn-1", "love")

		assert.Equal(t, []string{"conn-1"}, ledger.Reactions("msg-1")["like"], "expected msg-1 unchanged by msg-2's reaction")
	})
}

func TestReactionLedgerReactions(t *testing.T) {
	ledger := NewReactionLedger()
	ledger.Add("msg-1", "conn-1", "like")

	reactions := ledger.Reactions("msg-1")
	require.Contains(t, reactions, "like")

	// mutating the copy must not affect the ledger
	reactions["like"][0] = "tampered"
	assert.Equal(t, []string{"conn-1"}, ledger.Reactions("msg-1")["like"], "expected Reactions to return a copy")

	assert.Empty(t, ledger.Reactions("unknown"), "expected empty map for unknown message")
}
