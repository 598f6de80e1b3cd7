// Package command defines the inbound event variants consumed by the
// coordination engine, one per wire event kind. Payloads are validated at
// the transport boundary so the engine never sees partially-populated
// records.
package command

import (
	"fmt"

	apperrors "anonchat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Join subscribes a connection to a room, creating or moving its presence
// record. Token is optional and, when it carries a valid admin session,
// grants the monitor lock bypass.
type Join struct {
	Username string `json:"username" validate:"required,max=32"`
	Room     string `json:"room" validate:"required,max=64"`
	Token    string `json:"token"`
}

// PostText submits a text message, optionally replying to another message.
type PostText struct {
	Text        string `json:"text" validate:"required,max=2000"`
	ReplyTo     string `json:"replyTo" validate:"omitempty,uuid4"`
	ReplyToText string `json:"replyToText" validate:"max=300"`
}

// PostImage submits an image message. ImageData carries the encoded image
// exactly as received; its length is checked against the configured limit.
type PostImage struct {
	ImageData   string `json:"imageData" validate:"required"`
	ReplyTo     string `json:"replyTo" validate:"omitempty,uuid4"`
	ReplyToText string `json:"replyToText" validate:"max=300"`
}

// React increments one emoji counter on a message.
type React struct {
	MessageID string `json:"messageId" validate:"required,uuid4"`
	Emoji     string `json:"emoji" validate:"required,max=16"`
}

// AdminChat posts a moderator message into a room, bypassing rate limiting
// and lock checks. The token must belong to a live admin session.
type AdminChat struct {
	Text     string `json:"text" validate:"required,max=2000"`
	Room     string `json:"room" validate:"required,max=64"`
	Username string `json:"username" validate:"required,max=32"`
	Token    string `json:"token" validate:"required"`
}

// Validate checks the struct tags of a command and wraps any failure in
// the shared validation sentinel, so transports can treat every malformed
// payload uniformly.
func Validate(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}
