package server

import "time"

// ReceiptTracker records per-message read acknowledgments. A connection
// maps to at most one timestamp per message; re-marking overwrites.
// Receipts for unknown message ids are accepted without error. Owned by
// the ChatServer run loop.
type ReceiptTracker struct {
	receipts map[string]map[string]time.Time
}

func NewReceiptTracker() *ReceiptTracker {
	return &ReceiptTracker{
		receipts: make(map[string]map[string]time.Time),
	}
}

func (t *ReceiptTracker) Mark(messageId, connId string, ts time.Time) {
	byConn, ok := t.receipts[messageId]
	if !ok {
		byConn = make(map[string]time.Time)
		t.receipts[messageId] = byConn
	}

	byConn[connId] = ts
}

// Receipts returns a copy of the message's acknowledgment map.
func (t *ReceiptTracker) Receipts(messageId string) map[string]time.Time {
	byConn := t.receipts[messageId]

	out := make(map[string]time.Time, len(byConn))
	for connId, ts := range byConn {
		out[connId] = ts
	}

	return out
}
