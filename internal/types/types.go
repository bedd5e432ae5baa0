package types

import (
	"time"
)

type User struct {
	Id          string    `json:"id"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar,omitempty"`
	CurrentRoom string    `json:"currentRoom"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Attachment is an already-uploaded file reference. The upload itself
// happens over the HTTP side-channel before the message is sent.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}

// Message carries a sender snapshot taken at send time; later profile
// changes do not rewrite history. Exactly one of Body and File is set.
type Message struct {
	Id           string      `json:"id"`
	RoomId       string      `json:"roomId,omitempty"`
	RecipientId  string      `json:"recipientId,omitempty"`
	Sender       string      `json:"sender"`
	SenderId     string      `json:"senderId"`
	SenderAvatar string      `json:"senderAvatar,omitempty"`
	Body         string      `json:"message,omitempty"`
	File         *Attachment `json:"file,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	IsPrivate    bool        `json:"isPrivate,omitempty"`
	Delivered    bool        `json:"delivered"`
	ReadBy       []string    `json:"readBy,omitempty"`
}
