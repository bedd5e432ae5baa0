package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-chathub/chathub/internal/types"
	"github.com/teris-io/shortid"
)

const (
	// RoomLogCap is the per-room retention cap. Appending beyond it
	// silently evicts the oldest entry.
	RoomLogCap = 500

	searchResultCap = 20
)

// MessageStore holds the bounded, append-only per-room message logs.
// Owned by the ChatServer run loop.
type MessageStore struct {
	logs map[string][]*types.Message

	// generateId is overridable in tests for deterministic ids.
	generateId func() (string, error)
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		logs:       make(map[string][]*types.Message),
		generateId: shortid.Generate,
	}
}

// EnsureLog creates an empty log for the room if one does not exist.
func (s *MessageStore) EnsureLog(roomId string) {
	if _, ok := s.logs[roomId]; !ok {
		s.logs[roomId] = []*types.Message{}
	}
}

// Append stamps the draft with an id and timestamp, enforces the
// body/attachment exclusivity contract, appends it to the room's log and
// evicts the oldest entry once the log exceeds the retention cap. The
// sender snapshot is expected to be set by the caller.
func (s *MessageStore) Append(roomId string, msg *types.Message) *types.Message {
	msg.Id = s.newMessageId()
	msg.RoomId = roomId
	msg.Timestamp = Now()
	if msg.File != nil {
		msg.Body = ""
	}

	log := append(s.logs[roomId], msg)
	if len(log) > RoomLogCap {
		log = log[1:]
	}
	s.logs[roomId] = log

	return msg
}

// Tail returns the most recent limit messages, oldest first. Messages
// are returned by value so queued broadcasts never observe later
// read-by or delivered mutations.
func (s *MessageStore) Tail(roomId string, limit int) []types.Message {
	log := s.logs[roomId]
	if limit > len(log) {
		limit = len(log)
	}

	return copyMessages(log[len(log)-limit:])
}

// Page returns up to limit messages immediately preceding the anchor,
// oldest first. An absent or stale anchor degrades to the most recent
// page rather than erroring.
func (s *MessageStore) Page(roomId, beforeId string, limit int) []types.Message {
	log := s.logs[roomId]

	end := len(log)
	if beforeId != "" {
		for i, msg := range log {
			if msg.Id == beforeId {
				end = i
				break
			}
		}
	}

	start := end - limit
	if start < 0 {
		start = 0
	}

	return copyMessages(log[start:end])
}

// Search returns the last matches, in arrival order, whose body or sender
// username contains the query case-insensitively. At most 20 results.
func (s *MessageStore) Search(roomId, query string) []types.Message {
	query = strings.ToLower(query)

	matches := []*types.Message{}
	for _, msg := range s.logs[roomId] {
		if strings.Contains(strings.ToLower(msg.Body), query) ||
			strings.Contains(strings.ToLower(msg.Sender), query) {
			matches = append(matches, msg)
		}
	}

	if len(matches) > searchResultCap {
		matches = matches[len(matches)-searchResultCap:]
	}

	return copyMessages(matches)
}

// Get finds a message by id in the room's log.
func (s *MessageStore) Get(roomId, messageId string) (*types.Message, bool) {
	for _, msg := range s.logs[roomId] {
		if msg.Id == messageId {
			return msg, true
		}
	}

	return nil, false
}

// Messages returns a copy of the room's full log, oldest first.
func (s *MessageStore) Messages(roomId string) []types.Message {
	return copyMessages(s.logs[roomId])
}

func copyMessages(log []*types.Message) []types.Message {
	msgs := make([]types.Message, len(log))
	for i, msg := range log {
		msgs[i] = *msg
	}

	return msgs
}

// newMessageId builds a time-ordered-ish unique id. The millisecond
// prefix keeps ids roughly sortable; the shortid suffix disambiguates
// messages within the same millisecond.
func (s *MessageStore) newMessageId() string {
	suffix, err := s.generateId()
	if err != nil {
		// shortid only fails on generator misconfiguration; fall back
		// to a nanosecond suffix rather than dropping the message.
		suffix = fmt.Sprintf("%09d", time.Now().Nanosecond())
	}

	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
