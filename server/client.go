// Package server is the transport layer: the websocket event channel used
// by chat clients and the plain HTTP surface used by administration. It
// decodes wire frames into commands and serializes outbound events; all
// rules live below it.
package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"anonchat/domain/command"
	"anonchat/domain/event"
	"anonchat/services"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// frame is the wire envelope of every websocket message, both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client owns one websocket connection: a read pump feeding the chat
// service and a write pump draining the buffered send channel. It is the
// connection's EventSink; a full buffer drops the event rather than stall
// the engine.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger
	chat services.IChatService
	once sync.Once

	// mu orders Consume against disconnect: a broadcast that snapshotted
	// this sink before unregistration must not send on the closed channel.
	mu     sync.Mutex
	closed bool
}

func NewClient(id string, conn *websocket.Conn, chat services.IChatService, log *slog.Logger, bufferSize int) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, bufferSize),
		log:  log,
		chat: chat,
	}
}

// Consume implements contract.EventSink.
func (c *Client) Consume(e event.DomainEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		c.log.Error("marshal outbound event", "event", e.EventName(), "err", err)
		return
	}
	payload, err := json.Marshal(frame{Event: e.EventName(), Data: data})
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.log.Warn("dropping event for slow client", "conn", c.id, "event", e.EventName())
	}
}

// ReadPump decodes inbound frames until the connection dies, then reports
// the disconnect exactly once.
func (c *Client) ReadPump(maxFrameBytes int64) {
	defer c.disconnect()

	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "conn", c.id, "err", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.Consume(event.ErrorMessage("Malformed payload"))
			continue
		}
		c.dispatch(f)
	}
}

// dispatch routes one inbound frame. Unknown events are ignored, matching
// the tolerant behavior clients rely on across versions.
func (c *Client) dispatch(f frame) {
	var err error
	switch f.Event {
	case "joinRoom":
		var cmd command.Join
		if err = json.Unmarshal(f.Data, &cmd); err == nil {
			err = c.chat.Join(c.id, cmd)
		}
	case "chatMessage":
		var cmd command.PostText
		if err = json.Unmarshal(f.Data, &cmd); err == nil {
			err = c.chat.PostText(c.id, cmd)
		}
	case "chatImage":
		var cmd command.PostImage
		if err = json.Unmarshal(f.Data, &cmd); err == nil {
			err = c.chat.PostImage(c.id, cmd)
		}
	case "addReaction":
		var cmd command.React
		if err = json.Unmarshal(f.Data, &cmd); err == nil {
			err = c.chat.React(c.id, cmd)
		}
	case "adminChat":
		var cmd command.AdminChat
		if err = json.Unmarshal(f.Data, &cmd); err == nil {
			err = c.chat.AdminChat(cmd)
		}
	default:
		c.log.Debug("ignoring unknown event", "conn", c.id, "event", f.Event)
	}
	if err != nil {
		c.Consume(event.ErrorMessage(err.Error()))
	}
}

// WritePump drains the send channel and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) disconnect() {
	c.once.Do(func() {
		c.chat.Disconnect(c.id)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}
