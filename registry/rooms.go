package registry

import (
	"sync"

	"anonchat/domain"
	apperrors "anonchat/errors"

	"github.com/samber/lo"
)

// RoomRegistry tracks room existence and lock state, independent of who is
// present. Listing preserves creation order.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	order []string
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*domain.Room)}
}

// Seed inserts the given rooms, skipping names that already exist. Used at
// startup for the standard room set.
func (r *RoomRegistry) Seed(names ...string) {
	for _, name := range names {
		_ = r.Create(name)
	}
}

func (r *RoomRegistry) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[name]; ok {
		return apperrors.ErrDuplicateRoom
	}
	r.rooms[name] = &domain.Room{Name: name}
	r.order = append(r.order, name)
	return nil
}

// Delete is idempotent: removing an absent room is a no-op. Messages already
// stored for the room are orphaned, not removed; only expiry or an explicit
// delete gets rid of them.
func (r *RoomRegistry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[name]; !ok {
		return
	}
	delete(r.rooms, name)
	r.order = lo.Without(r.order, name)
}

func (r *RoomRegistry) Lock(name, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[name]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	if reason == "" {
		reason = domain.DefaultLockReason
	}
	room.Locked = true
	room.LockReason = reason
	return nil
}

func (r *RoomRegistry) Unlock(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[name]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	room.Locked = false
	room.LockReason = ""
	return nil
}

// IsLocked reports the lock state and reason. Unknown rooms are unlocked:
// join does not require prior registration (trending topics are joinable
// without an explicit room record).
func (r *RoomRegistry) IsLocked(name string) (bool, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[name]
	if !ok {
		return false, ""
	}
	return room.Locked, room.LockReason
}

func (r *RoomRegistry) List() []domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(r.order, func(name string, _ int) (domain.Room, bool) {
		room, ok := r.rooms[name]
		if !ok {
			return domain.Room{}, false
		}
		return *room, true
	})
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
