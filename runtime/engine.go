package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"anonchat/contract"
	"anonchat/domain"
	"anonchat/domain/command"
	"anonchat/domain/event"
	apperrors "anonchat/errors"
	"anonchat/registry"
	"anonchat/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Engine is the coordination core: it receives connection-lifecycle and
// action events, validates them against room, presence, and rate-limit
// state, mutates the message store, and decides what gets broadcast where.
// Every handler runs to completion; failures stay isolated to the single
// triggering event.
type Engine struct {
	log      *slog.Logger
	rooms    *registry.RoomRegistry
	presence *registry.PresenceRegistry
	store    repositories.IMessageStore
	settings *domain.Settings
	sinks    *Registry
	now      func() time.Time

	pinMu sync.RWMutex
	pins  map[string]event.MessagePinned

	trendMu  sync.RWMutex
	trending []string
}

func NewEngine(
	log *slog.Logger,
	rooms *registry.RoomRegistry,
	presence *registry.PresenceRegistry,
	store repositories.IMessageStore,
	settings *domain.Settings,
	sinks *Registry,
) *Engine {
	return &Engine{
		log:      log,
		rooms:    rooms,
		presence: presence,
		store:    store,
		settings: settings,
		sinks:    sinks,
		now:      time.Now,
		pins:     make(map[string]event.MessagePinned),
	}
}

// Register attaches a fresh connection's sink. The connection is not in any
// room yet; only direct notices can reach it until it joins.
func (e *Engine) Register(connID string, sink contract.EventSink) {
	e.sinks.Register(connID, sink)
}

// Join handles both a first join and a room switch. A locked room rejects
// anyone without the monitor privilege and leaves existing presence
// untouched, so a rejected switch keeps the participant in its old room.
func (e *Engine) Join(connID string, cmd command.Join, adminSession bool) {
	locked, reason := e.rooms.IsLocked(cmd.Room)
	if locked && !adminSession {
		e.sinks.ToConn(connID, event.ErrorMessage("LOCKED: "+reason))
		e.sinks.ToConn(connID, event.RoomLocked{})
		return
	}

	prev, existed := e.presence.Lookup(connID)
	var p domain.Participant
	if existed {
		p, _ = e.presence.SwitchRoom(connID, cmd.Room)
	} else {
		p = e.presence.Join(connID, cmd.Username, cmd.Room, adminSession)
	}
	e.sinks.JoinRoom(connID, cmd.Room)

	if existed && prev.Room != cmd.Room {
		e.sinks.ToRoom(prev.Room, event.RoomUsers{
			Room:  prev.Room,
			Count: e.presence.CountInRoom(prev.Room),
		})
	}

	// Full history replay, creation order, before any live traffic.
	for _, m := range e.store.ListByRoom(cmd.Room) {
		e.sinks.ToConn(connID, event.FromMessage(m))
	}

	now := e.now()
	e.sinks.ToConn(connID, event.SystemMessage(cmd.Room, "Welcome! Stay anonymous.", now))
	e.sinks.ToRoomExcept(cmd.Room, connID, event.SystemMessage(cmd.Room, "A new user joined", now))
	e.sinks.ToRoom(cmd.Room, event.RoomUsers{
		Room:      cmd.Room,
		Count:     e.presence.CountInRoom(cmd.Room),
		UserColor: p.Color,
	})

	e.pinMu.RLock()
	pin, pinned := e.pins[cmd.Room]
	e.pinMu.RUnlock()
	if pinned {
		e.sinks.ToConn(connID, pin)
	}

	e.log.Debug("participant joined", "conn", connID, "room", cmd.Room, "switch", existed)
}

// PostText accepts a text message after the lock and rate-limit gates.
// The sender's timestamp is only touched on acceptance, so a rejected
// attempt never consumes the rate-limit window.
func (e *Engine) PostText(connID string, cmd command.PostText) {
	user, ok := e.presence.Lookup(connID)
	if !ok {
		return
	}
	if e.rejectedByLock(connID, user) {
		return
	}

	s := e.settings.Snapshot()
	now := e.now()
	if allowed, wait := AllowSend(user.LastMessageAt, now, s.RateLimit); !allowed {
		e.sinks.ToConn(connID, event.ErrorMessage(
			fmt.Sprintf("Please wait %ds before sending another message.", wait)))
		return
	}

	e.presence.TouchSendTime(connID, now)
	msg := e.store.Create(repositories.CreateMessage{
		Room:        user.Room,
		Author:      user.Username,
		AuthorColor: user.Color,
		Text:        cmd.Text,
		ReplyTo:     cmd.ReplyTo,
		ReplyToText: cmd.ReplyToText,
	})
	e.sinks.ToRoom(user.Room, event.FromMessage(msg))
}

// PostImage mirrors PostText with an additional size gate. Both gates run
// before the timestamp update: an oversized image must not burn the
// sender's window.
func (e *Engine) PostImage(connID string, cmd command.PostImage) {
	user, ok := e.presence.Lookup(connID)
	if !ok {
		return
	}
	if e.rejectedByLock(connID, user) {
		return
	}

	s := e.settings.Snapshot()
	now := e.now()
	if allowed, wait := AllowSend(user.LastMessageAt, now, s.RateLimit); !allowed {
		e.sinks.ToConn(connID, event.ErrorMessage(
			fmt.Sprintf("Please wait %ds before sending.", wait)))
		return
	}
	if len(cmd.ImageData) > s.MaxImageBytes {
		e.sinks.ToConn(connID, event.ErrorMessage(
			fmt.Sprintf("Image too large. Max %dMB.", s.MaxImageBytes/(1024*1024))))
		return
	}

	e.presence.TouchSendTime(connID, now)
	msg := e.store.Create(repositories.CreateMessage{
		Room:        user.Room,
		Author:      user.Username,
		AuthorColor: user.Color,
		ImageData:   []byte(cmd.ImageData),
		ReplyTo:     cmd.ReplyTo,
		ReplyToText: cmd.ReplyToText,
	})
	e.sinks.ToRoom(user.Room, event.FromMessage(msg))
}

// React increments a reaction counter. No rate limiting, and lock state is
// deliberately ignored: reactions stay open in locked rooms. A reaction on
// an id that already expired is a silent no-op.
func (e *Engine) React(connID string, cmd command.React) {
	user, ok := e.presence.Lookup(connID)
	if !ok {
		return
	}
	id, err := uuid.Parse(cmd.MessageID)
	if err != nil {
		return
	}
	reactions, ok := e.store.AddReaction(id, cmd.Emoji)
	if !ok {
		return
	}
	e.sinks.ToRoom(user.Room, event.ReactionAdded{
		MessageID: cmd.MessageID,
		Reactions: reactions,
	})
}

// Disconnect removes presence and notifies the room. A double disconnect
// finds no record and does nothing.
func (e *Engine) Disconnect(connID string) {
	p, ok := e.presence.Leave(connID)
	e.sinks.Unregister(connID)
	if !ok {
		return
	}
	now := e.now()
	e.sinks.ToRoom(p.Room, event.SystemMessage(p.Room, "A user left", now))
	e.sinks.ToRoom(p.Room, event.RoomUsers{
		Room:  p.Room,
		Count: e.presence.CountInRoom(p.Room),
	})
	e.log.Debug("participant left", "conn", connID, "room", p.Room)
}

// AdminChat posts a moderator-authored message, bypassing lock and rate
// gates. Authorization happened upstream.
func (e *Engine) AdminChat(room, username, text string) {
	msg := e.store.Create(repositories.CreateMessage{
		Room:        room,
		Author:      username,
		AuthorColor: domain.SystemColor,
		Text:        text,
		IsAdmin:     true,
	})
	e.sinks.ToRoom(room, event.FromMessage(msg))
}

// CreateRoom inserts a room and pushes the updated list to every client.
func (e *Engine) CreateRoom(name string) error {
	if err := e.rooms.Create(name); err != nil {
		return err
	}
	e.BroadcastRooms()
	return nil
}

// DeleteRoom is idempotent. Messages of the deleted room are orphaned and
// removed only by expiry or explicit deletion; its announced pin goes away
// with the room.
func (e *Engine) DeleteRoom(name string) {
	e.rooms.Delete(name)

	e.pinMu.Lock()
	delete(e.pins, name)
	e.pinMu.Unlock()

	e.BroadcastRooms()
}

func (e *Engine) LockRoom(name, reason string) error {
	if err := e.rooms.Lock(name, reason); err != nil {
		return err
	}
	e.sinks.ToRoom(name, event.RoomLocked{})
	e.BroadcastRooms()
	return nil
}

func (e *Engine) UnlockRoom(name string) error {
	if err := e.rooms.Unlock(name); err != nil {
		return err
	}
	e.BroadcastRooms()
	return nil
}

// DeleteMessage removes a message and emits the moderator deletion notice,
// a different user-facing event than expiry. Deleting the room's announced
// pin clears the slot too, so later joiners never see a pin pointing at a
// message that no longer exists.
func (e *Engine) DeleteMessage(id string) error {
	mid, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrMessageNotFound
	}
	room, ok := e.store.Delete(mid)
	if !ok {
		return apperrors.ErrMessageNotFound
	}

	e.pinMu.Lock()
	pin, wasPinned := e.pins[room]
	if wasPinned && pin.ID == id {
		delete(e.pins, room)
	} else {
		wasPinned = false
	}
	e.pinMu.Unlock()

	e.sinks.ToRoom(room, event.MessageDeleted(id))
	if wasPinned {
		e.sinks.ToRoom(room, event.MessageUnpinned{})
	}
	return nil
}

// PinMessage marks the message and installs it as the room's announced pin.
// Several messages may carry the pinned flag over time; only the most
// recently pinned text is shown to the room.
func (e *Engine) PinMessage(id, moderator string) error {
	mid, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrMessageNotFound
	}
	msg, ok := e.store.Get(mid)
	if !ok {
		return apperrors.ErrMessageNotFound
	}
	e.store.MarkPinned(mid)

	text := msg.Text
	if msg.HasImage() {
		text = "📌 Image"
	}
	notice := event.MessagePinned{ID: id, Text: text, Username: moderator}

	e.pinMu.Lock()
	e.pins[msg.Room] = notice
	e.pinMu.Unlock()

	e.sinks.ToRoom(msg.Room, notice)
	return nil
}

// UnpinMessage clears the room's announced pin. The pinned flags on stored
// messages stay set, keeping them exempt from expiry until deleted.
func (e *Engine) UnpinMessage(room string) {
	e.pinMu.Lock()
	delete(e.pins, room)
	e.pinMu.Unlock()

	e.sinks.ToRoom(room, event.MessageUnpinned{})
}

// SetTrending replaces the rotating topic list and pushes the combined room
// view to every client.
func (e *Engine) SetTrending(topics []string) {
	e.trendMu.Lock()
	e.trending = topics
	e.trendMu.Unlock()

	e.BroadcastRooms()
}

func (e *Engine) Trending() []string {
	e.trendMu.RLock()
	defer e.trendMu.RUnlock()

	out := make([]string, len(e.trending))
	copy(out, e.trending)
	return out
}

func (e *Engine) BroadcastRooms() {
	e.sinks.ToAll(e.RoomsEvent())
}

// RoomsEvent snapshots the registered rooms plus the current trending
// topics, the payload served both over the socket and the REST list.
func (e *Engine) RoomsEvent() event.RoomsUpdated {
	standard := lo.Map(e.rooms.List(), func(r domain.Room, _ int) event.RoomInfo {
		return event.RoomInfo{Name: r.Name, Locked: r.Locked, Reason: r.LockReason}
	})
	return event.RoomsUpdated{Standard: standard, Trending: e.Trending()}
}

func (e *Engine) rejectedByLock(connID string, user domain.Participant) bool {
	locked, reason := e.rooms.IsLocked(user.Room)
	if locked && !user.Monitor {
		e.sinks.ToConn(connID, event.ErrorMessage("LOCKED: "+reason))
		return true
	}
	return false
}
