package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat message as the core sees it. The data store assigns
// the id and timestamp when persisting; both are zero until then.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	MediaURL  string    `json:"media_url,omitempty"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	Location  *Location `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is one delivery attempt targeted at one recipient.
// SenderID is empty for system notices. Equivalence for deduplication is
// (RecipientID, Type, SenderID, Title).
type Notification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	GroupKey    string    `json:"group_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
