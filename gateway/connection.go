package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

const (
	// Time allowed to write an event to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024
)

var _ contract.EventSink = (*Connection)(nil)

// Connection wraps one websocket with a buffered outbound queue. The
// write pump is the only goroutine touching the socket for writes; every
// other component reaches the connection through Deliver.
type Connection struct {
	id    string
	ws    *websocket.Conn
	send  chan realtime.ServerEvent
	log   *slog.Logger
	stats StatsRecorder

	once sync.Once
	done chan struct{}
}

func newConnection(id string, ws *websocket.Conn, bufferSize int, log *slog.Logger, stats StatsRecorder) *Connection {
	return &Connection{
		id:    id,
		ws:    ws,
		send:  make(chan realtime.ServerEvent, bufferSize),
		log:   log,
		stats: stats,
		done:  make(chan struct{}),
	}
}

func (c *Connection) ID() string {
	return c.id
}

// Deliver enqueues an event without blocking the caller. A peer that
// cannot drain its queue loses events rather than stalling fan-out for
// everyone else.
func (c *Connection) Deliver(e realtime.ServerEvent) error {
	select {
	case <-c.done:
		return apperrors.ErrSessionClosed
	case c.send <- e:
		c.stats.EventDelivered()
		return nil
	default:
		c.stats.EventDropped()
		c.log.Warn("Outbound buffer full, dropping event", "conn_id", c.id, "event", e.Event)
		return apperrors.ErrSessionClosed
	}
}

// close is idempotent; every teardown path funnels through it.
func (c *Connection) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the outbound queue and keeps the peer alive with
// pings. It owns all writes to the socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(event); err != nil {
				c.log.Debug("Write failed, closing connection", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
