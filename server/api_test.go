package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anonchat/auth"
	"anonchat/domain"
	"anonchat/registry"
	"anonchat/repositories"
	"anonchat/runtime"
	"anonchat/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	router *gin.Engine
	rooms  *registry.RoomRegistry
	store  *repositories.MessageStore
	engine *runtime.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authority, err := auth.NewAuthority(log, []byte("0123456789abcdef0123456789abcdef"), "s3cret", map[string]string{
		"root": "hunter2",
	})
	require.NoError(t, err)

	rooms := registry.NewRoomRegistry()
	rooms.Seed(domain.StandardRooms...)
	presence := registry.NewPresenceRegistry()
	store := repositories.NewMessageStore(log)
	settings := domain.NewSettings(2*time.Minute, 3*time.Second, 2*1024*1024)
	engine := runtime.NewEngine(log, rooms, presence, store, settings, runtime.NewRegistry())

	chat := services.NewChatService(engine, authority)
	admin := services.NewAdminService(authority, engine, presence, rooms, store, settings)

	api := NewAPI(log, chat, admin, engine, settings, 2*1024*1024, 256)
	return &apiFixture{router: api.Router(), rooms: rooms, store: store, engine: engine}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/admin/login", "", gin.H{
		"username": "root", "password": "hunter2", "secret": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAPI_Rooms_List_Is_Public(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	f.engine.SetTrending([]string{"🔥 Viral: Mars Landing"})

	rec := f.do(t, http.MethodGet, "/api/rooms", "", nil)

	req.Equal(http.StatusOK, rec.Code)
	body := decode(t, rec)
	standard := body["standard"].([]any)
	req.Len(standard, len(domain.StandardRooms))
	first := standard[0].(map[string]any)
	req.Equal("General", first["name"])
	trending := body["trending"].([]any)
	req.Equal("🔥 Viral: Mars Landing", trending[0])
}

func TestAPI_Config_Exposes_Client_Boot_Values(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/config", "", nil)

	req.Equal(http.StatusOK, rec.Code)
	body := decode(t, rec)
	req.Equal(float64(3), body["rateLimitSeconds"])
	req.Len(body["reactionEmojis"].([]any), len(domain.DefaultReactionEmojis))
}

func TestAPI_Login_Success_And_Failure(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	token := f.login(t)
	req.NotEmpty(token)

	rec := f.do(t, http.MethodPost, "/api/admin/login", "", gin.H{
		"username": "root", "password": "wrong", "secret": "s3cret",
	})
	req.Equal(http.StatusUnauthorized, rec.Code)
	req.Equal(false, decode(t, rec)["success"])

	rec = f.do(t, http.MethodPost, "/api/admin/login", "", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_Admin_Endpoints_Reject_Missing_Token(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	paths := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/admin/stats", nil},
		{http.MethodPost, "/api/admin/logout", nil},
		{http.MethodPost, "/api/admin/rooms", gin.H{"action": "create", "roomName": "Books"}},
		{http.MethodPost, "/api/admin/messages/unpin", gin.H{"room": "General"}},
		{http.MethodPost, "/api/admin/config", gin.H{"ttl": 60}},
	}
	for _, p := range paths {
		rec := f.do(t, p.method, p.path, "", p.body)
		req.Equal(http.StatusUnauthorized, rec.Code, p.path)
	}
}

func TestAPI_Room_Actions(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "create", "roomName": "Books"})
	req.Equal(http.StatusOK, rec.Code)

	// Creating it again conflicts
	rec = f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "create", "roomName": "Books"})
	req.Equal(http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "lock", "roomName": "Books", "reason": "spam"})
	req.Equal(http.StatusOK, rec.Code)
	locked, reason := f.rooms.IsLocked("Books")
	req.True(locked)
	req.Equal("spam", reason)

	rec = f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "unlock", "roomName": "Books"})
	req.Equal(http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "delete", "roomName": "Books"})
	req.Equal(http.StatusOK, rec.Code)

	// Locking a room that no longer exists is a 404
	rec = f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "lock", "roomName": "Books"})
	req.Equal(http.StatusNotFound, rec.Code)

	// An unknown action fails binding
	rec = f.do(t, http.MethodPost, "/api/admin/rooms", token, gin.H{"action": "nuke", "roomName": "Books"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_Message_Moderation(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.login(t)
	msg := f.store.Create(repositories.CreateMessage{Room: "General", Author: "a", Text: "rules"})

	rec := f.do(t, http.MethodPost, "/api/admin/messages/pin", token, gin.H{"messageId": msg.ID.String()})
	req.Equal(http.StatusOK, rec.Code)
	pinned, _ := f.store.Get(msg.ID)
	req.True(pinned.Pinned)

	rec = f.do(t, http.MethodPost, "/api/admin/messages/unpin", token, gin.H{"room": "General"})
	req.Equal(http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/messages/delete", token, gin.H{"messageId": msg.ID.String()})
	req.Equal(http.StatusOK, rec.Code)
	req.Zero(f.store.Len())

	// Deleting again is a 404, and a malformed id fails binding
	rec = f.do(t, http.MethodPost, "/api/admin/messages/delete", token, gin.H{"messageId": msg.ID.String()})
	req.Equal(http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/admin/messages/delete", token, gin.H{"messageId": "not-a-uuid"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_Stats_Require_Live_Session(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	req.Equal(http.StatusOK, rec.Code)
	body := decode(t, rec)
	req.Equal(float64(len(domain.StandardRooms)), body["roomCount"])
	req.Equal(float64(1), body["adminSessions"])

	// After logout the same token is dead
	rec = f.do(t, http.MethodPost, "/api/admin/logout", token, nil)
	req.Equal(http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func TestAPI_Config_Update_Roundtrip(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/admin/config", token, gin.H{"ttl": 600, "spam": 10})
	req.Equal(http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/config", "", nil)
	req.Equal(float64(10), decode(t, rec)["rateLimitSeconds"])
}
