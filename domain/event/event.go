// Package event defines the outbound broadcast variants produced by the
// coordination engine. Event names and payload shapes mirror the wire
// contract consumed by the browser clients.
package event

import (
	"time"

	"anonchat/domain"

	"github.com/google/uuid"
)

// DomainEvent is implemented by every outbound broadcast kind.
type DomainEvent interface {
	EventName() string
}

// MessagePayload is the wire form of one chat message.
type MessagePayload struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Text        string         `json:"text"`
	Room        string         `json:"room"`
	Color       string         `json:"color"`
	ReplyTo     string         `json:"replyTo,omitempty"`
	ReplyToText string         `json:"replyToText,omitempty"`
	ImageData   string         `json:"imageData,omitempty"`
	Reactions   map[string]int `json:"reactions"`
	Pinned      bool           `json:"pinned,omitempty"`
	IsAdmin     bool           `json:"isAdmin,omitempty"`
	Time        string         `json:"time"`
	CreatedAt   int64          `json:"createdAt"`
}

type Message struct {
	MessagePayload
}

func (Message) EventName() string { return "message" }

// FromMessage converts a stored message into its broadcast form.
func FromMessage(m domain.Message) Message {
	return Message{MessagePayload{
		ID:          m.ID.String(),
		Username:    m.Author,
		Text:        m.Text,
		Room:        m.Room,
		Color:       m.AuthorColor,
		ReplyTo:     m.ReplyTo,
		ReplyToText: m.ReplyToText,
		ImageData:   string(m.ImageData),
		Reactions:   m.Reactions,
		Pinned:      m.Pinned,
		IsAdmin:     m.IsAdmin,
		Time:        m.CreatedAt.Format("3:04:05 PM"),
		CreatedAt:   m.CreatedAt.UnixMilli(),
	}}
}

// SystemMessage builds an ephemeral system-authored notice (welcome, join,
// leave). System messages are broadcast but never stored.
func SystemMessage(room, text string, at time.Time) Message {
	return Message{MessagePayload{
		ID:        uuid.NewString(),
		Username:  domain.SystemAuthor,
		Text:      text,
		Room:      room,
		Color:     domain.SystemColor,
		Reactions: map[string]int{},
		Time:      at.Format("3:04:05 PM"),
		CreatedAt: at.UnixMilli(),
	}}
}

// RoomUsers carries the occupancy count of a room. UserColor is set on the
// broadcast that follows a join, so the joiner learns its assigned color.
type RoomUsers struct {
	Room      string `json:"room"`
	Count     int    `json:"count"`
	UserColor string `json:"userColor,omitempty"`
}

func (RoomUsers) EventName() string { return "roomUsers" }

type RoomInfo struct {
	Name   string `json:"name"`
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

// RoomsUpdated is pushed to every connection whenever the room list or the
// trending topics change.
type RoomsUpdated struct {
	Standard []RoomInfo `json:"standard"`
	Trending []string   `json:"trending"`
}

func (RoomsUpdated) EventName() string { return "rooms-updated" }

type ReactionAdded struct {
	MessageID string         `json:"messageId"`
	Reactions map[string]int `json:"reactions"`
}

func (ReactionAdded) EventName() string { return "reactionAdded" }

// MessageExpired and MessageDeleted both remove a message client-side, but
// deletion is a moderator action and renders a placeholder notice while
// expiry just disappears. They stay separate events for that reason.
type MessageExpired string

func (MessageExpired) EventName() string { return "message-expired" }

type MessageDeleted string

func (MessageDeleted) EventName() string { return "message-deleted" }

type MessagePinned struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Username string `json:"username"`
}

func (MessagePinned) EventName() string { return "message-pinned" }

type MessageUnpinned struct{}

func (MessageUnpinned) EventName() string { return "message-unpinned" }

type ErrorMessage string

func (ErrorMessage) EventName() string { return "error-message" }

type RoomLocked struct{}

func (RoomLocked) EventName() string { return "room-locked" }
