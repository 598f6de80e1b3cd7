package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"anonchat/auth"
	"anonchat/domain"
	"anonchat/domain/command"
	apperrors "anonchat/errors"
	"anonchat/registry"
	"anonchat/repositories"
	"anonchat/runtime"

	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	admin     *AdminService
	authority *auth.Authority
	rooms     *registry.RoomRegistry
	presence  *registry.PresenceRegistry
	store     *repositories.MessageStore
	settings  *domain.Settings
	engine    *runtime.Engine
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authority, err := auth.NewAuthority(log, []byte("0123456789abcdef0123456789abcdef"), "s3cret", map[string]string{
		"root": "hunter2",
	})
	require.NoError(t, err)

	rooms := registry.NewRoomRegistry()
	rooms.Seed("General", "Tech")
	presence := registry.NewPresenceRegistry()
	store := repositories.NewMessageStore(log)
	settings := domain.NewSettings(2*time.Minute, 3*time.Second, 2*1024*1024)
	engine := runtime.NewEngine(log, rooms, presence, store, settings, runtime.NewRegistry())

	return &serviceFixture{
		admin:     NewAdminService(authority, engine, presence, rooms, store, settings),
		authority: authority,
		rooms:     rooms,
		presence:  presence,
		store:     store,
		settings:  settings,
		engine:    engine,
	}
}

func (f *serviceFixture) login(t *testing.T) string {
	t.Helper()
	token, _, err := f.admin.Login(auth.LoginRequest{Username: "root", Password: "hunter2", Secret: "s3cret"})
	require.NoError(t, err)
	return token
}

func TestAdminService_Every_Mutation_Requires_Authorization(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)

	calls := map[string]func() error{
		"logout":         func() error { return f.admin.Logout("bad") },
		"create room":    func() error { return f.admin.CreateRoom("bad", "Books") },
		"delete room":    func() error { return f.admin.DeleteRoom("bad", "Tech") },
		"lock room":      func() error { return f.admin.LockRoom("bad", "Tech", "spam") },
		"unlock room":    func() error { return f.admin.UnlockRoom("bad", "Tech") },
		"delete message": func() error { return f.admin.DeleteMessage("bad", "some-id") },
		"pin message":    func() error { return f.admin.PinMessage("bad", "some-id") },
		"unpin message":  func() error { return f.admin.UnpinMessage("bad", "Tech") },
		"update config":  func() error { return f.admin.UpdateConfig("bad", nil, nil) },
		"stats": func() error {
			_, err := f.admin.GetStats("bad")
			return err
		},
	}
	for name, call := range calls {
		req.ErrorIs(call(), apperrors.ErrUnauthorized, name)
	}

	// Nothing moved
	req.Equal(2, f.rooms.Count())
	locked, _ := f.rooms.IsLocked("Tech")
	req.False(locked)
}

func TestAdminService_Room_Lifecycle(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)

	req.NoError(f.admin.CreateRoom(token, "Books"))
	req.Equal(3, f.rooms.Count())
	req.ErrorIs(f.admin.CreateRoom(token, "Books"), apperrors.ErrDuplicateRoom)

	req.NoError(f.admin.LockRoom(token, "Books", "spam wave"))
	locked, reason := f.rooms.IsLocked("Books")
	req.True(locked)
	req.Equal("spam wave", reason)

	req.NoError(f.admin.UnlockRoom(token, "Books"))
	locked, _ = f.rooms.IsLocked("Books")
	req.False(locked)

	req.NoError(f.admin.DeleteRoom(token, "Books"))
	req.Equal(2, f.rooms.Count())
}

func TestAdminService_Lock_Without_Reason_Uses_Default(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)

	req.NoError(f.admin.LockRoom(token, "Tech", ""))

	_, reason := f.rooms.IsLocked("Tech")
	req.Equal(domain.DefaultLockReason, reason)
}

func TestAdminService_Pin_Uses_Authorized_Username(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)
	msg := f.store.Create(repositories.CreateMessage{Room: "General", Author: "a", Text: "rules"})

	req.NoError(f.admin.PinMessage(token, msg.ID.String()))

	pinned, ok := f.store.Get(msg.ID)
	req.True(ok)
	req.True(pinned.Pinned)
}

func TestAdminService_Delete_Message(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)
	msg := f.store.Create(repositories.CreateMessage{Room: "General", Author: "a", Text: "gone"})

	req.NoError(f.admin.DeleteMessage(token, msg.ID.String()))
	req.Zero(f.store.Len())
	req.ErrorIs(f.admin.DeleteMessage(token, msg.ID.String()), apperrors.ErrMessageNotFound)
}

func TestAdminService_UpdateConfig_Partial_Fields(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)

	ttl := 600
	req.NoError(f.admin.UpdateConfig(token, &ttl, nil))

	s := f.settings.Snapshot()
	req.Equal(10*time.Minute, s.MessageTTL)
	req.Equal(3*time.Second, s.RateLimit)

	rate := 10
	req.NoError(f.admin.UpdateConfig(token, nil, &rate))
	s = f.settings.Snapshot()
	req.Equal(10*time.Minute, s.MessageTTL)
	req.Equal(10*time.Second, s.RateLimit)
}

func TestAdminService_Stats_Reflect_Live_State(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)

	f.presence.Join("conn-1", "Alice", "General", false)
	f.store.Create(repositories.CreateMessage{Room: "General", Author: "Alice", Text: "hi"})

	stats, err := f.admin.GetStats(token)
	req.NoError(err)
	req.Equal(1, stats.UserCount)
	req.Equal(2, stats.RoomCount)
	req.Equal(1, stats.MessageCount)
	req.Equal(1, stats.AdminSessions)
}

func TestAdminService_Logout_Ends_The_Session(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	token := f.login(t)

	req.NoError(f.admin.Logout(token))
	req.ErrorIs(f.admin.Logout(token), apperrors.ErrUnauthorized)
	_, err := f.admin.GetStats(token)
	req.ErrorIs(err, apperrors.ErrUnauthorized)
}

func TestChatService_Join_Resolves_Admin_Token(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	chat := NewChatService(f.engine, f.authority)
	req.NoError(f.rooms.Lock("Tech", "spam"))
	token := f.login(t)

	// A join carrying a live admin token enters the locked room
	req.NoError(chat.Join("monitor", command.Join{Username: domain.MonitorName, Room: "Tech", Token: token}))
	p, ok := f.presence.Lookup("monitor")
	req.True(ok)
	req.True(p.Monitor)

	// A stale token gives no privilege and the join bounces off the lock
	f.authority.Logout(token)
	req.NoError(chat.Join("late", command.Join{Username: domain.MonitorName, Room: "Tech", Token: token}))
	_, ok = f.presence.Lookup("late")
	req.False(ok)
}

func TestChatService_Rejects_Invalid_Commands(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	chat := NewChatService(f.engine, f.authority)

	req.ErrorIs(chat.Join("c1", command.Join{Room: "General"}), apperrors.ErrValidation)
	req.ErrorIs(chat.Join("c1", command.Join{Username: "Alice"}), apperrors.ErrValidation)
	req.ErrorIs(chat.PostText("c1", command.PostText{}), apperrors.ErrValidation)
	req.ErrorIs(chat.React("c1", command.React{MessageID: "not-a-uuid", Emoji: "👍"}), apperrors.ErrValidation)
}

func TestChatService_AdminChat_Requires_Live_Session(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	chat := NewChatService(f.engine, f.authority)
	token := f.login(t)

	req.NoError(chat.AdminChat(command.AdminChat{Text: "heads up", Room: "General", Username: "root", Token: token}))
	req.Equal(1, f.store.Len())

	req.ErrorIs(chat.AdminChat(command.AdminChat{Text: "nope", Room: "General", Username: "root", Token: "forged"}), apperrors.ErrUnauthorized)
	req.Equal(1, f.store.Len())
}
