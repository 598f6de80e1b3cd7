// Package domain contains core concepts of the chat system.
// This file defines Message entities and related rules.
// Messages are mutated only through the store that owns them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single chat entry. Exactly one of Text/ImageData is populated.
// Room never changes after creation.
type Message struct {
	ID          uuid.UUID
	Room        string
	Author      string
	AuthorColor string
	Text        string
	ImageData   []byte
	ReplyTo     string
	ReplyToText string
	Reactions   map[string]int
	Pinned      bool
	IsAdmin     bool
	CreatedAt   time.Time
}

func (m Message) HasImage() bool {
	return len(m.ImageData) > 0
}
