// Package runtime owns the coordination engine, the connection sink
// registry, and the background workers. It orchestrates the registries and
// the store without containing presentation or transport logic.
package runtime

import (
	"sync"

	"anonchat/contract"
	"anonchat/domain/event"
)

type set map[string]struct{}

// Registry maps connection ids to their event sinks and rooms to member
// connection ids. It is the fan-out side of the engine: room targeting
// resolves members first, then their live sinks, so a connection is always
// managed in a single place.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink
	roomMembers map[string]set
	memberRooms map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[string]set),
		memberRooms: make(map[string]string),
	}
}

// Register attaches a connection's sink before it has joined any room, so
// rejection notices (locked room, validation) can reach it.
func (r *Registry) Register(connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = sink
}

// Unregister drops the connection and its room membership, leaving no empty
// sets behind.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connID)
	r.removeMembership(connID)
}

// JoinRoom moves the connection's membership to the given room. A previous
// membership, if any, is dropped first, which is how a room switch
// re-subscribes the connection.
func (r *Registry) JoinRoom(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMembership(connID)
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(set)
	}
	r.roomMembers[room][connID] = struct{}{}
	r.memberRooms[connID] = room
}

func (r *Registry) removeMembership(connID string) {
	room, ok := r.memberRooms[connID]
	if !ok {
		return
	}
	delete(r.memberRooms, connID)
	if members, ok := r.roomMembers[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}

func (r *Registry) ToConn(connID string, e event.DomainEvent) {
	r.mu.RLock()
	sink, ok := r.sessions[connID]
	r.mu.RUnlock()
	if ok {
		sink.Consume(e)
	}
}

func (r *Registry) ToRoom(room string, e event.DomainEvent) {
	for _, sink := range r.sinksForRoom(room, "") {
		sink.Consume(e)
	}
}

func (r *Registry) ToRoomExcept(room, exceptConnID string, e event.DomainEvent) {
	for _, sink := range r.sinksForRoom(room, exceptConnID) {
		sink.Consume(e)
	}
}

func (r *Registry) ToAll(e event.DomainEvent) {
	r.mu.RLock()
	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	r.mu.RUnlock()

	for _, sink := range sinks {
		sink.Consume(e)
	}
}

func (r *Registry) sinksForRoom(room, except string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var active []contract.EventSink
	for connID := range members {
		if connID == except {
			continue
		}
		if sink, exists := r.sessions[connID]; exists {
			active = append(active, sink)
		}
	}
	return active
}
