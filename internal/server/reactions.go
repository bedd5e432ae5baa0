package server

// ReactionLedger tracks per-message reaction tallies. A connection holds
// at most one reaction kind per message; choosing a new kind moves it.
// Owned by the ChatServer run loop.
type ReactionLedger struct {
	reactions map[string]map[string][]string
}

func NewReactionLedger() *ReactionLedger {
	return &ReactionLedger{
		reactions: make(map[string]map[string][]string),
	}
}

// Add records the connection's reaction to a message, removing it from
// every other kind first. Re-adding the same kind is idempotent. Returns
// the message's full reaction map for broadcast.
func (l *ReactionLedger) Add(messageId, connId, kind string) map[string][]string {
	byKind, ok := l.reactions[messageId]
	if !ok {
		byKind = make(map[string][]string)
		l.reactions[messageId] = byKind
	}

	for k, connIds := range byKind {
		byKind[k] = remove(connIds, connId)
	}

	if !contains(byKind[kind], connId) {
		byKind[kind] = append(byKind[kind], connId)
	}

	return l.Reactions(messageId)
}

// Reactions returns a copy of the message's reaction map.
func (l *ReactionLedger) Reactions(messageId string) map[string][]string {
	byKind := l.reactions[messageId]

	out := make(map[string][]string, len(byKind))
	for kind, connIds := range byKind {
		out[kind] = append([]string{}, connIds...)
	}

	return out
}

func remove(s []string, v string) []string {
	out := s[:0]
	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
