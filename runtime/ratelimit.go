package runtime

import (
	"math"
	"time"
)

// AllowSend is the advisory rate-limit check: a send is allowed iff the
// time elapsed since the participant's last accepted send reaches the
// configured minimum interval. On reject it returns the whole seconds
// remaining, rounded up, so the client can display a countdown.
//
// A zero last timestamp always passes, which keeps the first message of a
// fresh presence record unlimited.
func AllowSend(last, now time.Time, limit time.Duration) (bool, int) {
	elapsed := now.Sub(last)
	if elapsed >= limit {
		return true, 0
	}
	remaining := int(math.Ceil((limit - elapsed).Seconds()))
	return false, remaining
}
