// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is the live binding of one connection to a display name,
// a room, and a color. Display names are anonymous free text; collisions
// between participants are allowed.
type Participant struct {
	ID            string
	Username      string
	Room          string
	Color         string
	Monitor       bool
	LastMessageAt time.Time
}

// SystemAuthor identifies server-generated messages (welcome, join, leave).
const SystemAuthor = "System"

// SystemColor is the fixed color of system-authored messages.
const SystemColor = "#888"

// MonitorName is the display name of the admin monitor identity. The lock
// bypass attached to it is only granted when the join carries a valid admin
// session; an unauthenticated join may still use the name but gets no
// privilege from it.
const MonitorName = "AdminMonitor"
