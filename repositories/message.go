// Package repositories holds the in-memory message store. All state is
// process-resident and lost on restart; that is the design, not a gap.
package repositories

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"anonchat/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageStore interface {
	Create(params CreateMessage) domain.Message
	Get(id uuid.UUID) (domain.Message, bool)
	ListByRoom(room string) []domain.Message
	AddReaction(id uuid.UUID, emoji string) (map[string]int, bool)
	MarkPinned(id uuid.UUID) bool
	Delete(id uuid.UUID) (string, bool)
	ExpireOlderThan(cutoff time.Time) []Expired
	Len() int
}

// CreateMessage carries the caller-validated fields of a new message.
// Exactly one of Text/ImageData is populated; size and content constraints
// are enforced before the store is reached.
type CreateMessage struct {
	Room        string
	Author      string
	AuthorColor string
	Text        string
	ImageData   []byte
	ReplyTo     string
	ReplyToText string
	IsAdmin     bool
}

// Expired identifies one removed message and the room its expiry notice
// must be targeted at.
type Expired struct {
	ID   uuid.UUID
	Room string
}

// MessageStore keeps every non-expired, non-deleted message created during
// the process lifetime, keyed by id. One mutex guards the whole map; a
// reaction racing an expiry on the same id no-ops instead of corrupting.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*domain.Message
	log      *slog.Logger
	now      func() time.Time
}

func NewMessageStore(log *slog.Logger) *MessageStore {
	return &MessageStore{
		messages: make(map[uuid.UUID]*domain.Message),
		log:      log,
		now:      time.Now,
	}
}

func (s *MessageStore) Create(params CreateMessage) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &domain.Message{
		ID:          uuid.New(),
		Room:        params.Room,
		Author:      params.Author,
		AuthorColor: params.AuthorColor,
		Text:        params.Text,
		ImageData:   params.ImageData,
		ReplyTo:     params.ReplyTo,
		ReplyToText: params.ReplyToText,
		Reactions:   map[string]int{},
		IsAdmin:     params.IsAdmin,
		CreatedAt:   s.now(),
	}
	s.messages[m.ID] = m
	return copyMessage(m)
}

func (s *MessageStore) Get(id uuid.UUID) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return domain.Message{}, false
	}
	return copyMessage(m), true
}

// ListByRoom returns the room's history ordered by CreatedAt ascending,
// the stable replay order handed to a newly joined participant. No cap,
// no pagination.
func (s *MessageStore) ListByRoom(room string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inRoom := lo.Filter(lo.Values(s.messages), func(m *domain.Message, _ int) bool {
		return m.Room == room
	})
	history := lo.Map(inRoom, func(m *domain.Message, _ int) domain.Message {
		return copyMessage(m)
	})
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history
}

// AddReaction increments the emoji counter and returns a copy of the updated
// reaction map. An unknown id (already expired or deleted) reports false
// without error; repeat reactions are uncapped since no per-user state is
// tracked for anonymous participants.
func (s *MessageStore) AddReaction(id uuid.UUID, emoji string) (map[string]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, false
	}
	m.Reactions[emoji]++
	return lo.Assign(map[string]int{}, m.Reactions), true
}

func (s *MessageStore) MarkPinned(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return false
	}
	m.Pinned = true
	return true
}

// Delete removes the message and returns its room so the caller can target
// the deletion broadcast. Double-delete reports false.
func (s *MessageStore) Delete(id uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return "", false
	}
	delete(s.messages, id)
	return m.Room, true
}

// ExpireOlderThan removes every unpinned message created before the cutoff
// and returns the removals. Pinned messages are exempt regardless of age;
// only an explicit moderation delete removes them.
func (s *MessageStore) ExpireOlderThan(cutoff time.Time) []Expired {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Expired
	for id, m := range s.messages {
		if m.Pinned || !m.CreatedAt.Before(cutoff) {
			continue
		}
		delete(s.messages, id)
		removed = append(removed, Expired{ID: id, Room: m.Room})
	}
	if len(removed) > 0 {
		s.log.Debug("expired messages swept", "count", len(removed))
	}
	return removed
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// copyMessage snapshots a message so callers never share the store's
// internal reaction map.
func copyMessage(m *domain.Message) domain.Message {
	out := *m
	out.Reactions = lo.Assign(map[string]int{}, m.Reactions)
	return out
}
