package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

type IChatService interface {
	SendMessage(ctx context.Context, session realtime.Session, payload realtime.SendMessagePayload) (realtime.Message, error)
	Typing(ctx context.Context, session realtime.Session, roomID string, typing bool) error
	MarkRead(ctx context.Context, session realtime.Session, payload realtime.MarkReadPayload) error
	UpdateLocation(ctx context.Context, session realtime.Session, sink contract.EventSink, currentChannel string, loc realtime.Location) (string, error)
}

// Membership is the slice of the room manager the service needs.
type Membership interface {
	Subscribed(connID, channel string) bool
	Attach(ctx context.Context, connID, channel string, sink contract.EventSink) error
	Leave(ctx context.Context, connID, channel string)
}

// Publisher pushes an event on a broker channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, event realtime.ServerEvent, excludeConnID string) error
}

// Notifier creates durable notifications with live delivery for online
// recipients.
type Notifier interface {
	DispatchAll(ctx context.Context, batch []realtime.Notification) []realtime.Notification
}

type ChatService struct {
	store    contract.DataStore
	rooms    Membership
	engine   Publisher
	notifier Notifier
	log      *slog.Logger
}

func NewChatService(store contract.DataStore, rooms Membership, engine Publisher,
	notifier Notifier, log *slog.Logger) *ChatService {
	return &ChatService{store: store, rooms: rooms, engine: engine, notifier: notifier, log: log}
}

// SendMessage persists the message, fans it out to the chat room, and
// notifies the other participants. The durable write always precedes the
// publish so no event ever advertises a message that cannot be read back.
func (s *ChatService) SendMessage(ctx context.Context, session realtime.Session, payload realtime.SendMessagePayload) (realtime.Message, error) {
	channel := realtime.ChatChannel(payload.RoomID)
	if !s.rooms.Subscribed(session.ConnID, channel) {
		return realtime.Message{}, apperrors.ErrRoomForbidden
	}

	stored, err := s.store.PersistMessage(ctx, realtime.Message{
		ChatID:   payload.RoomID,
		SenderID: session.User.ID,
		Content:  payload.Content,
		Type:     payload.Type,
		MediaURL: payload.MediaURL,
		ReplyTo:  payload.ReplyTo,
		Location: payload.Location,
	})
	if err != nil {
		return realtime.Message{}, fmt.Errorf("%w: message in %s: %v", apperrors.ErrPersistence, payload.RoomID, err)
	}

	event := realtime.ServerEvent{Event: realtime.EventNewMessage, Data: stored}
	if err := s.engine.Publish(ctx, channel, event, session.ConnID); err != nil {
		// The message exists durably; fan-out loss degrades to polling.
		s.log.Warn("Message fan-out failed", "chat_id", payload.RoomID, "error", err)
	}

	s.notifyParticipants(ctx, session, stored)
	return stored, nil
}

// notifyParticipants dispatches one notification per participant other
// than the sender. The dispatcher owns dedup and the online/offline
// delivery decision; a failing recipient never blocks the rest.
func (s *ChatService) notifyParticipants(ctx context.Context, session realtime.Session, msg realtime.Message) {
	participants, err := s.store.FindChatParticipants(ctx, msg.ChatID)
	if err != nil {
		s.log.Warn("Participant lookup failed, skipping notifications", "chat_id", msg.ChatID, "error", err)
		return
	}

	var batch []realtime.Notification
	for _, participantID := range participants {
		if participantID == session.User.ID {
			continue
		}
		batch = append(batch, realtime.Notification{
			RecipientID: participantID,
			SenderID:    session.User.ID,
			Type:        "new_message",
			Title:       fmt.Sprintf("New message from %s", session.User.DisplayName),
			Body:        msg.Content,
			GroupKey:    msg.ChatID,
		})
	}
	s.notifier.DispatchAll(ctx, batch)
}

// Typing is ephemeral fan-out only: nothing is persisted and a broker
// outage loses the indicator without an error to the client.
func (s *ChatService) Typing(ctx context.Context, session realtime.Session, roomID string, typing bool) error {
	channel := realtime.ChatChannel(roomID)
	if !s.rooms.Subscribed(session.ConnID, channel) {
		return apperrors.ErrRoomForbidden
	}
	event := realtime.ServerEvent{
		Event: realtime.EventUserTyping,
		Data:  realtime.TypingEvent{RoomID: roomID, UserID: session.User.ID, Typing: typing},
	}
	if err := s.engine.Publish(ctx, channel, event, session.ConnID); err != nil {
		s.log.Debug("Typing fan-out failed", "chat_id", roomID, "error", err)
	}
	return nil
}

// MarkRead fans out a read receipt to the room. The durable read state is
// owned by the external store; the realtime event is best effort.
func (s *ChatService) MarkRead(ctx context.Context, session realtime.Session, payload realtime.MarkReadPayload) error {
	channel := realtime.ChatChannel(payload.RoomID)
	if !s.rooms.Subscribed(session.ConnID, channel) {
		return apperrors.ErrRoomForbidden
	}
	event := realtime.ServerEvent{
		Event: realtime.EventMessagesRead,
		Data: realtime.MessagesReadEvent{
			RoomID:     payload.RoomID,
			ReaderID:   session.User.ID,
			MessageIDs: payload.MessageIDs,
		},
	}
	return s.engine.Publish(ctx, channel, event, session.ConnID)
}

// UpdateLocation persists the new position and moves the connection from
// its current location room to the one derived from the new city. It
// returns the channel the connection now belongs to.
func (s *ChatService) UpdateLocation(ctx context.Context, session realtime.Session, sink contract.EventSink,
	currentChannel string, loc realtime.Location) (string, error) {
	if err := s.store.PersistLocation(ctx, session.User.ID, loc); err != nil {
		return currentChannel, fmt.Errorf("%w: location of %s: %v", apperrors.ErrPersistence, session.User.ID, err)
	}

	newChannel := realtime.LocationChannel(realtime.LocationKey(loc.City))
	if newChannel == currentChannel {
		return currentChannel, nil
	}
	if currentChannel != "" {
		s.rooms.Leave(ctx, session.ConnID, currentChannel)
	}
	if err := s.rooms.Attach(ctx, session.ConnID, newChannel, sink); err != nil {
		return "", err
	}
	return newChannel, nil
}
