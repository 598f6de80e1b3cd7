package services

import (
	"os"
	"time"

	"anonchat/auth"
	"anonchat/domain"
	"anonchat/registry"
	"anonchat/repositories"
	"anonchat/runtime"

	"github.com/shirou/gopsutil/process"
)

// Stats is the admin dashboard payload: coordination state counters plus
// process self-metrics.
type Stats struct {
	UserCount     int     `json:"userCount"`
	RoomCount     int     `json:"roomCount"`
	MessageCount  int     `json:"messageCount"`
	AdminSessions int     `json:"adminSessions"`
	MemoryBytes   uint64  `json:"memoryBytes"`
	CPUPercent    float64 `json:"cpuPercent"`
}

type IAdminService interface {
	Login(req auth.LoginRequest) (token string, username string, err error)
	Logout(token string) error
	GetStats(token string) (Stats, error)
	CreateRoom(token, name string) error
	DeleteRoom(token, name string) error
	LockRoom(token, name, reason string) error
	UnlockRoom(token, name string) error
	DeleteMessage(token, messageID string) error
	PinMessage(token, messageID string) error
	UnpinMessage(token, room string) error
	UpdateConfig(token string, ttlSeconds, rateLimitSeconds *int) error
}

// AdminService wraps every privileged mutation in an authorize-then-delegate
// step. Authorization failure short-circuits with no state touched.
type AdminService struct {
	authority *auth.Authority
	engine    *runtime.Engine
	presence  *registry.PresenceRegistry
	rooms     *registry.RoomRegistry
	store     repositories.IMessageStore
	settings  *domain.Settings
	proc      *process.Process
}

func NewAdminService(
	authority *auth.Authority,
	engine *runtime.Engine,
	presence *registry.PresenceRegistry,
	rooms *registry.RoomRegistry,
	store repositories.IMessageStore,
	settings *domain.Settings,
) *AdminService {
	// Self-stats are best-effort; a nil process just zeroes those fields.
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &AdminService{
		authority: authority,
		engine:    engine,
		presence:  presence,
		rooms:     rooms,
		store:     store,
		settings:  settings,
		proc:      proc,
	}
}

func (s *AdminService) Login(req auth.LoginRequest) (string, string, error) {
	token, err := s.authority.Login(req)
	if err != nil {
		return "", "", err
	}
	return token, req.Username, nil
}

func (s *AdminService) Logout(token string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	s.authority.Logout(token)
	return nil
}

func (s *AdminService) GetStats(token string) (Stats, error) {
	if _, err := s.authority.Authorize(token); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		UserCount:     s.presence.Count(),
		RoomCount:     s.rooms.Count(),
		MessageCount:  s.store.Len(),
		AdminSessions: s.authority.SessionCount(),
	}
	if s.proc != nil {
		if mem, err := s.proc.MemoryInfo(); err == nil {
			stats.MemoryBytes = mem.RSS
		}
		if cpu, err := s.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats, nil
}

func (s *AdminService) CreateRoom(token, name string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	return s.engine.CreateRoom(name)
}

func (s *AdminService) DeleteRoom(token, name string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	s.engine.DeleteRoom(name)
	return nil
}

func (s *AdminService) LockRoom(token, name, reason string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	return s.engine.LockRoom(name, reason)
}

func (s *AdminService) UnlockRoom(token, name string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	return s.engine.UnlockRoom(name)
}

func (s *AdminService) DeleteMessage(token, messageID string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	return s.engine.DeleteMessage(messageID)
}

// PinMessage attributes the pin notice to the logged-in admin.
func (s *AdminService) PinMessage(token, messageID string) error {
	username, err := s.authority.Authorize(token)
	if err != nil {
		return err
	}
	return s.engine.PinMessage(messageID, username)
}

func (s *AdminService) UnpinMessage(token, room string) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}
	s.engine.UnpinMessage(room)
	return nil
}

// UpdateConfig tunes the TTL and rate-limit at runtime. Nil fields leave
// the current value in place.
func (s *AdminService) UpdateConfig(token string, ttlSeconds, rateLimitSeconds *int) error {
	if _, err := s.authority.Authorize(token); err != nil {
		return err
	}

	var ttl, rate *time.Duration
	if ttlSeconds != nil {
		d := time.Duration(*ttlSeconds) * time.Second
		ttl = &d
	}
	if rateLimitSeconds != nil {
		d := time.Duration(*rateLimitSeconds) * time.Second
		rate = &d
	}
	s.settings.Update(ttl, rate)
	return nil
}
