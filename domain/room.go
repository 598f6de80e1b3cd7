package domain

// Room is a named, independently lockable channel grouping users and messages.
type Room struct {
	Name       string
	Locked     bool
	LockReason string
}

// DefaultLockReason is used when a moderator locks a room without giving one.
const DefaultLockReason = "Locked by moderator"

// StandardRooms are seeded into the registry at startup.
var StandardRooms = []string{"General", "Tech", "Music", "Movies", "Politics", "Gaming"}
