// Package services exposes the engine to transports: command validation on
// the way in, authorization for privileged calls, nothing else.
package services

import (
	"anonchat/auth"
	"anonchat/contract"
	"anonchat/domain/command"
	"anonchat/runtime"
)

type IChatService interface {
	Register(connID string, sink contract.EventSink)
	Join(connID string, cmd command.Join) error
	PostText(connID string, cmd command.PostText) error
	PostImage(connID string, cmd command.PostImage) error
	React(connID string, cmd command.React) error
	AdminChat(cmd command.AdminChat) error
	Disconnect(connID string)
}

type ChatService struct {
	engine    *runtime.Engine
	authority *auth.Authority
}

func NewChatService(engine *runtime.Engine, authority *auth.Authority) IChatService {
	return &ChatService{engine: engine, authority: authority}
}

func (s *ChatService) Register(connID string, sink contract.EventSink) {
	s.engine.Register(connID, sink)
}

// Join validates the payload and resolves the optional admin token into the
// monitor privilege. A join that merely claims the monitor display name
// without a live session gets no special treatment.
func (s *ChatService) Join(connID string, cmd command.Join) error {
	if err := command.Validate(cmd); err != nil {
		return err
	}
	adminSession := false
	if cmd.Token != "" {
		if _, err := s.authority.Authorize(cmd.Token); err == nil {
			adminSession = true
		}
	}
	s.engine.Join(connID, cmd, adminSession)
	return nil
}

func (s *ChatService) PostText(connID string, cmd command.PostText) error {
	if err := command.Validate(cmd); err != nil {
		return err
	}
	s.engine.PostText(connID, cmd)
	return nil
}

func (s *ChatService) PostImage(connID string, cmd command.PostImage) error {
	if err := command.Validate(cmd); err != nil {
		return err
	}
	s.engine.PostImage(connID, cmd)
	return nil
}

func (s *ChatService) React(connID string, cmd command.React) error {
	if err := command.Validate(cmd); err != nil {
		return err
	}
	s.engine.React(connID, cmd)
	return nil
}

// AdminChat requires a live admin session; it bypasses the lock and rate
// gates inside the engine once authorized.
func (s *ChatService) AdminChat(cmd command.AdminChat) error {
	if err := command.Validate(cmd); err != nil {
		return err
	}
	if _, err := s.authority.Authorize(cmd.Token); err != nil {
		return err
	}
	s.engine.AdminChat(cmd.Room, cmd.Username, cmd.Text)
	return nil
}

func (s *ChatService) Disconnect(connID string) {
	s.engine.Disconnect(connID)
}
