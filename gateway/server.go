package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mekaushikranjan/ConnectLocal-sub002/auth"
	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
	"github.com/mekaushikranjan/ConnectLocal-sub002/presence"
	"github.com/mekaushikranjan/ConnectLocal-sub002/ratelimit"
	"github.com/mekaushikranjan/ConnectLocal-sub002/rooms"
	"github.com/mekaushikranjan/ConnectLocal-sub002/services"
)

// StatsRecorder counts delivery outcomes. Implementations must be safe
// for concurrent use.
type StatsRecorder interface {
	EventDelivered()
	EventDropped()
	MessageSent()
}

type noopStats struct{}

func (noopStats) EventDelivered() {}
func (noopStats) EventDropped()   {}
func (noopStats) MessageSent()    {}

// Options carries the tunables the gateway does not derive itself.
type Options struct {
	ConnectionBufferSize int
	HandshakeTimeout     time.Duration
	SendWindow           time.Duration
	SendLimit            int64
	Stats                StatsRecorder
}

// Gateway terminates websocket connections, authenticates the handshake
// and routes client events to the chat service.
type Gateway struct {
	log      *slog.Logger
	tokens   *auth.TokenManager
	store    contract.DataStore
	rooms    *rooms.Manager
	presence *presence.Directory
	chat     services.IChatService
	engine   services.Publisher
	limiter  *ratelimit.Limiter
	validate *validator.Validate
	upgrader websocket.Upgrader
	opts     Options
}

func NewGateway(log *slog.Logger, tokens *auth.TokenManager, store contract.DataStore,
	roomsMgr *rooms.Manager, dir *presence.Directory, chat services.IChatService,
	engine services.Publisher, limiter *ratelimit.Limiter, opts Options) *Gateway {
	if opts.ConnectionBufferSize <= 0 {
		opts.ConnectionBufferSize = 64
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.Stats == nil {
		opts.Stats = noopStats{}
	}
	return &Gateway{
		log:      log,
		tokens:   tokens,
		store:    store,
		rooms:    roomsMgr,
		presence: dir,
		chat:     chat,
		engine:   engine,
		limiter:  limiter,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: opts.HandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		opts: opts,
	}
}

// bearerToken pulls the credential from the query string or the
// Authorization header, in that order.
func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

// HandleWS authenticates the request and, only then, upgrades it. A
// rejected handshake stays plain HTTP so the client gets a status code
// instead of a half-open socket.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), g.opts.HandshakeTimeout)
	defer cancel()

	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := g.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	user, err := g.store.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		http.Error(w, "handshake failed", http.StatusServiceUnavailable)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug("Upgrade failed", "error", err)
		return
	}

	session := realtime.Session{
		User:        user,
		ConnID:      uuid.NewString(),
		ConnectedAt: time.Now().UTC(),
	}
	g.serve(session, ws)
}

// serve owns the whole connection lifetime. It returns once the peer is
// gone and every side effect of the connection has been undone.
func (g *Gateway) serve(session realtime.Session, ws *websocket.Conn) {
	conn := newConnection(session.ConnID, ws, g.opts.ConnectionBufferSize, g.log, g.opts.Stats)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	teardown := func() {
		conn.close()
		g.rooms.DisconnectAll(context.Background(), session.ConnID)
		g.presence.MarkOffline(context.Background(), session.User.ID)
		g.log.Info("Connection closed", "conn_id", session.ConnID, "user_id", session.User.ID)
	}
	defer teardown()

	g.presence.MarkOnline(ctx, session.User.ID)

	// The personal channel receives notifications; every connection of
	// the user gets its own membership.
	if err := g.rooms.Attach(ctx, session.ConnID, realtime.UserChannel(session.User.ID), conn); err != nil {
		g.log.Warn("Personal channel attach failed", "user_id", session.User.ID, "error", err)
	}

	go conn.writePump()

	g.log.Info("Connection established", "conn_id", session.ConnID, "user_id", session.User.ID)
	g.readLoop(ctx, session, conn, ws)
}

func (g *Gateway) readLoop(ctx context.Context, session realtime.Session, conn *Connection, ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The connection follows the user between location rooms; only one
	// location membership exists at a time.
	locationChannel := ""

	for {
		var event realtime.ClientEvent
		if err := ws.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Debug("Read failed", "conn_id", session.ConnID, "error", err)
			}
			return
		}
		locationChannel = g.dispatch(ctx, session, conn, event, locationChannel)
	}
}

// dispatch handles one client event. It returns the location channel the
// connection belongs to after the event, so update_location moves stick.
func (g *Gateway) dispatch(ctx context.Context, session realtime.Session, conn *Connection,
	event realtime.ClientEvent, locationChannel string) string {
	switch event.Event {
	case realtime.EventJoinChat, realtime.EventJoinGroup:
		g.handleJoin(ctx, session, conn, event.Data)
	case realtime.EventLeaveChat:
		var payload realtime.JoinPayload
		if !g.decode(conn, event.Data, &payload, realtime.EventLiveChatError) {
			return locationChannel
		}
		g.rooms.Leave(ctx, session.ConnID, realtime.ChatChannel(payload.RoomID))
	case realtime.EventSendMessage:
		g.handleSendMessage(ctx, session, conn, event.Data)
	case realtime.EventStartTyping, realtime.EventStopTyping:
		var payload realtime.TypingPayload
		if !g.decode(conn, event.Data, &payload, realtime.EventLiveChatError) {
			return locationChannel
		}
		typing := event.Event == realtime.EventStartTyping
		if err := g.chat.Typing(ctx, session, payload.RoomID, typing); err != nil {
			g.deliverError(conn, realtime.EventLiveChatError, err)
		}
	case realtime.EventMarkRead:
		var payload realtime.MarkReadPayload
		if !g.decode(conn, event.Data, &payload, realtime.EventLiveChatError) {
			return locationChannel
		}
		if err := g.chat.MarkRead(ctx, session, payload); err != nil {
			g.deliverError(conn, realtime.EventLiveChatError, err)
		}
	case realtime.EventUpdateLocation:
		var loc realtime.Location
		if !g.decode(conn, event.Data, &loc, realtime.EventLiveChatError) {
			return locationChannel
		}
		next, err := g.chat.UpdateLocation(ctx, session, conn, locationChannel, loc)
		if err != nil {
			g.deliverError(conn, realtime.EventLiveChatError, err)
		}
		return next
	default:
		g.deliverError(conn, realtime.EventLiveChatError, apperrors.ErrInvalidPayload)
	}
	return locationChannel
}

func (g *Gateway) handleJoin(ctx context.Context, session realtime.Session, conn *Connection, data json.RawMessage) {
	var payload realtime.JoinPayload
	if !g.decode(conn, data, &payload, realtime.EventLiveChatError) {
		return
	}
	if err := g.rooms.Join(ctx, session, payload.RoomID, conn); err != nil {
		g.deliverError(conn, realtime.EventLiveChatError, err)
		return
	}
	channel := realtime.ChatChannel(payload.RoomID)
	joined := realtime.ServerEvent{
		Event: realtime.EventUserJoinedChat,
		Data:  realtime.UserJoinedEvent{RoomID: payload.RoomID, UserID: session.User.ID},
	}
	if err := g.engine.Publish(ctx, channel, joined, session.ConnID); err != nil {
		g.log.Warn("Join announcement failed", "channel", channel, "error", err)
	}
}

func (g *Gateway) handleSendMessage(ctx context.Context, session realtime.Session, conn *Connection, data json.RawMessage) {
	var payload realtime.SendMessagePayload
	if !g.decode(conn, data, &payload, realtime.EventMessageError) {
		return
	}
	result := g.limiter.Consume(ctx, "send_message:"+session.User.ID, g.opts.SendWindow, g.opts.SendLimit)
	if !result.Allowed {
		_ = conn.Deliver(realtime.ServerEvent{
			Event: realtime.EventMessageError,
			Data:  realtime.ErrorEvent{Reason: "rate limit exceeded", Retryable: true},
		})
		return
	}
	if _, err := g.chat.SendMessage(ctx, session, payload); err != nil {
		g.deliverError(conn, realtime.EventMessageError, err)
		return
	}
	g.opts.Stats.MessageSent()
}

// decode unmarshals and validates a payload, reporting failures to the
// peer. The caller skips the event when it returns false.
func (g *Gateway) decode(conn *Connection, data json.RawMessage, out any, errorEvent string) bool {
	if err := json.Unmarshal(data, out); err != nil {
		g.deliverError(conn, errorEvent, apperrors.ErrInvalidPayload)
		return false
	}
	if err := g.validate.Struct(out); err != nil {
		g.deliverError(conn, errorEvent, apperrors.ErrInvalidPayload)
		return false
	}
	return true
}

func (g *Gateway) deliverError(conn *Connection, event string, err error) {
	reason := "internal error"
	switch {
	case errors.Is(err, apperrors.ErrInvalidPayload):
		reason = "invalid payload"
	case errors.Is(err, apperrors.ErrRoomForbidden):
		reason = "not a participant of this room"
	case errors.Is(err, apperrors.ErrPersistence):
		reason = "message could not be stored"
	case errors.Is(err, apperrors.ErrBrokerUnavailable):
		reason = "temporarily unavailable"
	}
	_ = conn.Deliver(realtime.ServerEvent{
		Event: event,
		Data:  realtime.ErrorEvent{Reason: reason, Retryable: apperrors.Retryable(err)},
	})
}
