package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one persisted turn in a conversation. A conversation is
// the sequence of messages sharing one (CompanionID, CallerID) pair,
// totally ordered by Seq; CreatedAt is non-decreasing along that
// order. Messages are never mutated after creation and are deleted
// only by whole-conversation reset.
type Message struct {
	ID          string    `json:"id"`
	CompanionID string    `json:"companionId"`
	CallerID    string    `json:"callerId"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Seq         int64     `json:"seq"`
	CreatedAt   time.Time `json:"createdAt"`
}
