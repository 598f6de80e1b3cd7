package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowSend_First_Message_Always_Passes(t *testing.T) {
	req := require.New(t)

	// A zero last-send timestamp means the participant never sent anything
	allowed, wait := AllowSend(time.Time{}, time.Now(), 3*time.Second)

	req.True(allowed)
	req.Zero(wait)
}

func TestAllowSend_Rejects_Within_Window_With_Ceiled_Wait(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	// 1s elapsed of a 3s window leaves 2s
	allowed, wait := AllowSend(now.Add(-1*time.Second), now, 3*time.Second)
	req.False(allowed)
	req.Equal(2, wait)

	// 2.5s elapsed leaves 0.5s, reported as a whole 1s countdown
	allowed, wait = AllowSend(now.Add(-2500*time.Millisecond), now, 3*time.Second)
	req.False(allowed)
	req.Equal(1, wait)
}

func TestAllowSend_Exact_Boundary_Passes(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	allowed, wait := AllowSend(now.Add(-3*time.Second), now, 3*time.Second)

	req.True(allowed)
	req.Zero(wait)
}
