package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/mekaushikranjan/ConnectLocal-sub002/auth"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
)

const defaultHistoryLimit = 50

// HistoryStore is the read side the REST endpoints need on top of the
// realtime data store.
type HistoryStore interface {
	MessagesForChat(ctx context.Context, chatID string, limit int) ([]realtime.Message, error)
	NotificationsForUser(ctx context.Context, userID string, limit int) ([]realtime.Notification, error)
}

// RateLimitRule names one HTTP action and its window.
type RateLimitRule struct {
	Action string
	Window time.Duration
	Limit  int64
}

// Routes registers the gateway's HTTP surface on mux. Every data
// endpoint sits behind the per-client rate limit.
func (g *Gateway) Routes(mux *http.ServeMux, history HistoryStore, rule RateLimitRule) {
	limited := func(h http.HandlerFunc) http.Handler {
		return g.limiter.Middleware(rule.Action, rule.Window, rule.Limit, h)
	}
	mux.HandleFunc("/ws", g.HandleWS)
	mux.HandleFunc("/healthz", g.handleHealth)
	mux.Handle("GET /api/chats/{id}/messages", limited(g.historyHandler(history)))
	mux.Handle("GET /api/notifications", limited(g.notificationsHandler(history)))
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"local_connections": g.presence.LocalCount(),
	})
}

// authenticate resolves the caller from the bearer token, writing the
// response itself on failure.
func (g *Gateway) authenticate(w http.ResponseWriter, r *http.Request) (*auth.CustomClaims, bool) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return nil, false
	}
	claims, err := g.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

func (g *Gateway) historyHandler(history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		chatID := r.PathValue("id")
		participants, err := g.store.FindChatParticipants(r.Context(), chatID)
		if err != nil {
			http.Error(w, "chat lookup failed", http.StatusInternalServerError)
			return
		}
		if !lo.Contains(participants, claims.UserID) {
			http.Error(w, "not a participant of this chat", http.StatusForbidden)
			return
		}
		messages, err := history.MessagesForChat(r.Context(), chatID, queryLimit(r))
		if err != nil {
			http.Error(w, "history lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}

func (g *Gateway) notificationsHandler(history HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		notifications, err := history.NotificationsForUser(r.Context(), claims.UserID, queryLimit(r))
		if err != nil {
			http.Error(w, "notification lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
	}
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		return defaultHistoryLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
