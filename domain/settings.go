package domain

import (
	"sync"
	"time"
)

// DefaultReactionEmojis is the reaction palette offered to clients.
var DefaultReactionEmojis = []string{"👍", "❤️", "😂", "😮", "😢", "🔥"}

// SettingsView is an immutable snapshot of the runtime configuration,
// safe to read without holding any lock.
type SettingsView struct {
	MessageTTL     time.Duration // 0 means messages never expire
	RateLimit      time.Duration
	MaxImageBytes  int
	ReactionEmojis []string
}

// Settings holds the moderator-tunable runtime configuration. It is shared
// by the rate limiter, the expiry sweeper, and image-size validation, and
// mutated only through admin config updates.
type Settings struct {
	mu             sync.RWMutex
	messageTTL     time.Duration
	rateLimit      time.Duration
	maxImageBytes  int
	reactionEmojis []string
}

func NewSettings(messageTTL, rateLimit time.Duration, maxImageBytes int) *Settings {
	return &Settings{
		messageTTL:     messageTTL,
		rateLimit:      rateLimit,
		maxImageBytes:  maxImageBytes,
		reactionEmojis: DefaultReactionEmojis,
	}
}

func (s *Settings) Snapshot() SettingsView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emojis := make([]string, len(s.reactionEmojis))
	copy(emojis, s.reactionEmojis)
	return SettingsView{
		MessageTTL:     s.messageTTL,
		RateLimit:      s.rateLimit,
		MaxImageBytes:  s.maxImageBytes,
		ReactionEmojis: emojis,
	}
}

// Update applies the admin config change. Nil fields are left untouched so
// a partial update never resets the rest of the configuration.
func (s *Settings) Update(ttl, rateLimit *time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl != nil {
		s.messageTTL = *ttl
	}
	if rateLimit != nil {
		s.rateLimit = *rateLimit
	}
}
