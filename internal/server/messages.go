package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-chathub/chathub/internal/types"
)

// Inbound event names, client to server.
const (
	EventUserJoin          = "user_join"
	EventJoinRoom          = "join_room"
	EventCreateRoom        = "create_room"
	EventLeaveRoom         = "leave_room"
	EventSendMessage       = "send_message"
	EventPrivateMessage    = "private_message"
	EventTyping            = "typing"
	EventAddReaction       = "add_reaction"
	EventMarkRead          = "mark_read"
	EventSearchMessages    = "search_messages"
	EventLoadOlderMessages = "load_older_messages"
	EventGetUnreadCounts   = "get_unread_counts"
)

// Outbound event names, server to client. private_message is used in
// both directions.
const (
	EventRoomsList         = "rooms_list"
	EventRoomCreated       = "room_created"
	EventRoomMembers       = "room_members"
	EventReceiveMessage    = "receive_message"
	EventLoadMessages      = "load_messages"
	EventOlderMessages     = "older_messages"
	EventUserList          = "user_list"
	EventUserJoined        = "user_joined"
	EventUserJoinedRoom    = "user_joined_room"
	EventUserLeft          = "user_left"
	EventUserLeftRoom      = "user_left_room"
	EventTypingUsers       = "typing_users"
	EventReactionAdded     = "reaction_added"
	EventReadReceipt       = "read_receipt"
	EventMessageDelivered  = "message_delivered"
	EventSearchResults     = "search_results"
	EventUnreadCountUpdate = "unread_count_update"
	EventUnreadCounts      = "unread_counts"
	EventError             = "error"
)

const defaultPageLimit = 20

type UserJoin struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type JoinRoom struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

type CreateRoom struct {
	RoomId   string `json:"roomId"`
	RoomName string `json:"roomName,omitempty"`
}

type LeaveRoom struct {
	RoomId string `json:"roomId"`
}

type SendMessage struct {
	Body   string            `json:"message,omitempty"`
	RoomId string            `json:"roomId,omitempty"`
	File   *types.Attachment `json:"file,omitempty"`
}

type PrivateMessage struct {
	To   string            `json:"to"`
	Body string            `json:"message,omitempty"`
	File *types.Attachment `json:"file,omitempty"`
}

type Typing struct {
	RoomId   string `json:"roomId,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

type AddReaction struct {
	MessageId string `json:"messageId"`
	Reaction  string `json:"reaction"`
	RoomId    string `json:"roomId,omitempty"`
}

type MarkRead struct {
	MessageIds []string `json:"messageIds"`
	RoomId     string   `json:"roomId,omitempty"`
}

type SearchMessages struct {
	Query  string `json:"query"`
	RoomId string `json:"roomId,omitempty"`
}

type LoadOlderMessages struct {
	RoomId          string `json:"roomId,omitempty"`
	BeforeMessageId string `json:"beforeMessageId,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

type GetUnreadCounts struct{}

// InboundMessage is the decoded form of one client frame. Exactly one
// payload field is non-nil.
type InboundMessage struct {
	UserJoin          *UserJoin
	JoinRoom          *JoinRoom
	CreateRoom        *CreateRoom
	LeaveRoom         *LeaveRoom
	SendMessage       *SendMessage
	PrivateMessage    *PrivateMessage
	Typing            *Typing
	AddReaction       *AddReaction
	MarkRead          *MarkRead
	SearchMessages    *SearchMessages
	LoadOlderMessages *LoadOlderMessages
	GetUnreadCounts   *GetUnreadCounts

	client *Client
}

// Event returns the wire name of the populated variant.
func (m *InboundMessage) Event() string {
	switch {
	case m.UserJoin != nil:
		return EventUserJoin
	case m.JoinRoom != nil:
		return EventJoinRoom
	case m.CreateRoom != nil:
		return EventCreateRoom
	case m.LeaveRoom != nil:
		return EventLeaveRoom
	case m.SendMessage != nil:
		return EventSendMessage
	case m.PrivateMessage != nil:
		return EventPrivateMessage
	case m.Typing != nil:
		return EventTyping
	case m.AddReaction != nil:
		return EventAddReaction
	case m.MarkRead != nil:
		return EventMarkRead
	case m.SearchMessages != nil:
		return EventSearchMessages
	case m.LoadOlderMessages != nil:
		return EventLoadOlderMessages
	case m.GetUnreadCounts != nil:
		return EventGetUnreadCounts
	}

	return ""
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ParseInbound decodes one raw client frame into a typed InboundMessage.
// Unknown event names and malformed payloads are errors; the dispatcher
// never sees a frame it does not have a handler for.
func ParseInbound(raw []byte) (*InboundMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	msg := &InboundMessage{}
	var payload any

	switch env.Event {
	case EventUserJoin:
		msg.UserJoin = &UserJoin{}
		payload = msg.UserJoin
	case EventJoinRoom:
		msg.JoinRoom = &JoinRoom{}
		payload = msg.JoinRoom
	case EventCreateRoom:
		msg.CreateRoom = &CreateRoom{}
		payload = msg.CreateRoom
	case EventLeaveRoom:
		msg.LeaveRoom = &LeaveRoom{}
		payload = msg.LeaveRoom
	case EventSendMessage:
		msg.SendMessage = &SendMessage{}
		payload = msg.SendMessage
	case EventPrivateMessage:
		msg.PrivateMessage = &PrivateMessage{}
		payload = msg.PrivateMessage
	case EventTyping:
		msg.Typing = &Typing{}
		payload = msg.Typing
	case EventAddReaction:
		msg.AddReaction = &AddReaction{}
		payload = msg.AddReaction
	case EventMarkRead:
		msg.MarkRead = &MarkRead{}
		payload = msg.MarkRead
	case EventSearchMessages:
		msg.SearchMessages = &SearchMessages{}
		payload = msg.SearchMessages
	case EventLoadOlderMessages:
		msg.LoadOlderMessages = &LoadOlderMessages{Limit: defaultPageLimit}
		payload = msg.LoadOlderMessages
	case EventGetUnreadCounts:
		msg.GetUnreadCounts = &GetUnreadCounts{}
		payload = msg.GetUnreadCounts
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Event, err)
	}

	return msg, nil
}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type RoomMembersPayload struct {
	RoomId  string       `json:"roomId"`
	Members []types.User `json:"members"`
}

type RoomCreatedPayload struct {
	RoomId   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

type LoadMessagesPayload struct {
	RoomId   string          `json:"roomId"`
	Messages []types.Message `json:"messages"`
}

type OlderMessagesPayload struct {
	RoomId   string          `json:"roomId"`
	Messages []types.Message `json:"messages"`
}

type UserJoinedPayload struct {
	Username string `json:"username"`
	Id       string `json:"id"`
	Room     string `json:"room"`
}

type UserJoinedRoomPayload struct {
	Username string `json:"username"`
	RoomId   string `json:"roomId"`
}

type UserLeftPayload struct {
	Username string `json:"username"`
	Id       string `json:"id"`
}

type UserLeftRoomPayload struct {
	Username string `json:"username"`
	RoomId   string `json:"roomId"`
}

type TypingUsersPayload struct {
	RoomId string   `json:"roomId"`
	Users  []string `json:"users"`
}

type ReactionAddedPayload struct {
	MessageId string              `json:"messageId"`
	Reaction  string              `json:"reaction"`
	Reactions map[string][]string `json:"reactions"`
	UserId    string              `json:"userId"`
	Username  string              `json:"username"`
}

type ReadReceiptPayload struct {
	MessageId string    `json:"messageId"`
	UserId    string    `json:"userId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageDeliveredPayload struct {
	MessageId string `json:"messageId"`
}

type SearchResultsPayload struct {
	Query   string          `json:"query"`
	Results []types.Message `json:"results"`
}

type UnreadCountUpdatePayload struct {
	RoomId string `json:"roomId"`
	Count  int    `json:"count"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func ErrorEvent(message string) *ServerMessage {
	return &ServerMessage{
		Event: EventError,
		Data:  ErrorPayload{Message: message},
	}
}

func ErrInvalidMessage() *ServerMessage {
	return ErrorEvent("invalid message format")
}

func ErrServiceUnavailable() *ServerMessage {
	return ErrorEvent("service unavailable")
}

func ErrUserNotFound() *ServerMessage {
	return ErrorEvent("User not found")
}

// Now returns the current UTC time rounded to milliseconds, matching the
// precision of message and receipt timestamps on the wire.
func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
