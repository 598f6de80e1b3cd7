// Package registry holds the process-wide mutable registries for rooms and
// connected participants. Each registry guards its own state with a single
// RWMutex; contention is low and coarse-grained locking is the design point.
package registry

import (
	"sync"
	"time"

	"anonchat/domain"

	"github.com/samber/lo"
)

// PresenceRegistry tracks connected participants keyed by connection id.
// It owns the shared color cycle so tests can reset assignment order.
type PresenceRegistry struct {
	mu           sync.RWMutex
	participants map[string]*domain.Participant
	colors       *domain.ColorCycle
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		participants: make(map[string]*domain.Participant),
		colors:       domain.NewColorCycle(),
	}
}

// Join always succeeds: display names are anonymous free text and need not
// be unique. The participant starts with a zero LastMessageAt so the first
// message is never rate-limited.
func (r *PresenceRegistry) Join(connID, username, room string, monitor bool) domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &domain.Participant{
		ID:       connID,
		Username: username,
		Room:     room,
		Color:    r.colors.Next(),
		Monitor:  monitor,
	}
	r.participants[connID] = p
	return *p
}

// SwitchRoom moves an existing participant to a new room, keeping its id,
// color, and last-send timestamp. Returns false if the connection is unknown.
func (r *PresenceRegistry) SwitchRoom(connID, room string) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return domain.Participant{}, false
	}
	p.Room = room
	return *p, true
}

// Leave removes and returns the participant. A duplicate disconnect finds
// nothing and reports false.
func (r *PresenceRegistry) Leave(connID string) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return domain.Participant{}, false
	}
	delete(r.participants, connID)
	return *p, true
}

func (r *PresenceRegistry) Lookup(connID string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[connID]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

func (r *PresenceRegistry) CountInRoom(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.CountBy(lo.Values(r.participants), func(p *domain.Participant) bool {
		return p.Room == room
	})
}

func (r *PresenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// TouchSendTime records an accepted send. Rejected sends must not call this,
// so a rejected attempt never consumes the rate-limit window.
func (r *PresenceRegistry) TouchSendTime(connID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[connID]; ok {
		p.LastMessageAt = at
	}
}

// ResetColors rewinds the shared color cycle. Intended for tests.
func (r *PresenceRegistry) ResetColors() {
	r.colors.Reset()
}
