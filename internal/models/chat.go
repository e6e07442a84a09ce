package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. It is never modified after it is appended.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a consistent copy of a conversation's state.
type Snapshot struct {
	Messages []Message `json:"messages"`
	Pending  bool      `json:"pending"`
	Draft    string    `json:"draft"`
	Seq      uint64    `json:"seq"`
}

// MessageView is the display shape of a Message.
type MessageView struct {
	ID          uuid.UUID `json:"id"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	HTML        string    `json:"html"`
	Timestamp   time.Time `json:"timestamp"`
	DisplayTime string    `json:"display_time"` // "15:04"
}

type ConversationView struct {
	SessionID uuid.UUID     `json:"session_id"`
	Messages  []MessageView `json:"messages"`
	Pending   bool          `json:"pending"`
	Draft     string        `json:"draft"`
	Seq       uint64        `json:"seq"`
}

// SubmitRequest is the payload sent to the message endpoint.
type SubmitRequest struct {
	Text string `json:"text"`
}

// SubmitResponse reports whether the submission was taken. A rejected submission
// (blank text, or a reply still pending) is not an error.
type SubmitResponse struct {
	Accepted     bool             `json:"accepted"`
	Conversation ConversationView `json:"conversation"`
}

type DraftRequest struct {
	Text string `json:"text"`
}

type SessionResponse struct {
	SessionID    uuid.UUID        `json:"session_id"`
	Token        string           `json:"token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Conversation ConversationView `json:"conversation"`
}
