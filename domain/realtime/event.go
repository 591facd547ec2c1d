package realtime

import "encoding/json"

// Client to server event names.
const (
	EventJoinChat       = "join_chat"
	EventJoinGroup      = "join_group"
	EventLeaveChat      = "leave_chat"
	EventSendMessage    = "send_message"
	EventStartTyping    = "start_typing"
	EventStopTyping     = "stop_typing"
	EventUpdateLocation = "update_location"
	EventMarkRead       = "mark_read"
)

// Server to client event names.
const (
	EventNewMessage      = "new_message"
	EventMessageEdited   = "message_edited"
	EventMessageDeleted  = "message_deleted"
	EventUserJoinedChat  = "user_joined_chat"
	EventUserTyping      = "user_typing"
	EventNewNotification = "new_notification"
	EventMessagesRead    = "messages_read"
	EventMessageError    = "message_error"
	EventLiveChatError   = "live_chat_error"
)

// ClientEvent is the envelope a client sends over the socket.
// Data stays raw until the handler for the named event decodes it.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the envelope pushed to clients.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ErrorEvent is the payload of message_error / live_chat_error.
// Retryable distinguishes transient failures from final ones.
type ErrorEvent struct {
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// JoinPayload is the payload of join_chat / join_group / leave_chat.
type JoinPayload struct {
	RoomID string `json:"room_id" validate:"required"`
}

// SendMessagePayload is the payload of send_message.
type SendMessagePayload struct {
	RoomID   string    `json:"room_id" validate:"required"`
	Content  string    `json:"content" validate:"required,max=4000"`
	Type     string    `json:"type" validate:"omitempty,oneof=text image video audio location"`
	MediaURL string    `json:"media_url,omitempty" validate:"omitempty,url"`
	ReplyTo  string    `json:"reply_to,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// TypingPayload is the payload of start_typing / stop_typing.
type TypingPayload struct {
	RoomID string `json:"room_id" validate:"required"`
}

// TypingEvent is the payload of user_typing.
type TypingEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}

// MarkReadPayload is the payload of mark_read.
type MarkReadPayload struct {
	RoomID     string   `json:"room_id" validate:"required"`
	MessageIDs []string `json:"message_ids" validate:"required,min=1"`
}

// MessagesReadEvent is the payload of messages_read.
type MessagesReadEvent struct {
	RoomID     string   `json:"room_id"`
	ReaderID   string   `json:"reader_id"`
	MessageIDs []string `json:"message_ids"`
}

// UserJoinedEvent is the payload of user_joined_chat.
type UserJoinedEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}
