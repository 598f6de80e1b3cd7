package main

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=3000"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	MessageTTL           time.Duration `env:"MESSAGE_TTL,default=2m"`
	RateLimit            time.Duration `env:"RATE_LIMIT,default=3s"`
	MaxImageBytes        int           `env:"MAX_IMAGE_BYTES,default=2097152"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL,default=10s"`
	TrendingInterval     time.Duration `env:"TRENDING_INTERVAL,default=30s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	AdminAccounts        string        `env:"ADMIN_ACCOUNTS,required=true"`
	AdminSecret          string        `env:"ADMIN_SECRET,required=true"`
	TokenKey             string        `env:"TOKEN_KEY,required=true"`
}

// Accounts parses ADMIN_ACCOUNTS, a comma-separated list of user:password
// pairs. Several admin accounts may be configured.
func (c Config) Accounts() (map[string]string, error) {
	accounts := make(map[string]string)
	for _, pair := range strings.Split(c.AdminAccounts, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		username, password, found := strings.Cut(pair, ":")
		if !found || username == "" || password == "" {
			return nil, fmt.Errorf("ADMIN_ACCOUNTS entry %q must be user:password", pair)
		}
		accounts[username] = password
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("ADMIN_ACCOUNTS must contain at least one account")
	}
	return accounts, nil
}
