package registry

import (
	"testing"

	"anonchat/domain"
	apperrors "anonchat/errors"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestRooms_Create_Preserves_Order_And_Rejects_Duplicates(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()

	req.NoError(rooms.Create("General"))
	req.NoError(rooms.Create("Tech"))
	req.NoError(rooms.Create("Music"))

	// Then listing preserves creation order
	names := lo.Map(rooms.List(), func(r domain.Room, _ int) string { return r.Name })
	req.Equal([]string{"General", "Tech", "Music"}, names)

	// And a duplicate name is rejected
	req.ErrorIs(rooms.Create("Tech"), apperrors.ErrDuplicateRoom)
	req.Equal(3, rooms.Count())
}

func TestRooms_Delete_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()
	rooms.Seed("General", "Tech")

	rooms.Delete("Tech")
	req.Equal(1, rooms.Count())

	// Deleting an absent room is a no-op, not an error
	rooms.Delete("Tech")
	rooms.Delete("NeverExisted")
	req.Equal(1, rooms.Count())
}

func TestRooms_Lock_Defaults_Reason_When_Empty(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()
	rooms.Seed("General")

	// When locking without a reason
	req.NoError(rooms.Lock("General", ""))

	// Then the generic moderator message applies
	locked, reason := rooms.IsLocked("General")
	req.True(locked)
	req.Equal(domain.DefaultLockReason, reason)
}

func TestRooms_Lock_And_Unlock(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()
	rooms.Seed("General")

	req.NoError(rooms.Lock("General", "spam"))
	locked, reason := rooms.IsLocked("General")
	req.True(locked)
	req.Equal("spam", reason)

	req.NoError(rooms.Unlock("General"))
	locked, reason = rooms.IsLocked("General")
	req.False(locked)
	req.Empty(reason)

	// Locking or unlocking an unknown room fails
	req.ErrorIs(rooms.Lock("Ghost", "x"), apperrors.ErrRoomNotFound)
	req.ErrorIs(rooms.Unlock("Ghost"), apperrors.ErrRoomNotFound)
}

func TestRooms_IsLocked_Unknown_Room_Is_Open(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()

	// Trending topics are joinable without a registry record
	locked, reason := rooms.IsLocked("🔥 Viral: AI Revolution")
	req.False(locked)
	req.Empty(reason)
}
