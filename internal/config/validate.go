package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks Config for problems that must stop the process at startup.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.XMPP.ComponentSecret == "" {
		errs = append(errs, "XMPP_COMPONENT_SECRET is required")
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, "GEMINI_API_KEY is required")
	}
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Admin API credentials
	if len(c.Admin.JWTSecret) < 32 {
		errs = append(errs, "ADMIN_JWT_SECRET must be at least 32 characters")
	}
	if c.Admin.PasswordHash == "" {
		errs = append(errs, "ADMIN_PASSWORD_HASH is required")
	} else if !strings.HasPrefix(c.Admin.PasswordHash, "$2") {
		errs = append(errs, "ADMIN_PASSWORD_HASH must be a bcrypt hash")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}
	if c.XMPP.ServerPort < 1 || c.XMPP.ServerPort > 65535 {
		errs = append(errs, fmt.Sprintf("XMPP_SERVER_PORT must be 1–65535, got %d", c.XMPP.ServerPort))
	}

	// Limit sanity
	if c.Limits.DailySubscribed < c.Limits.DailyUnsubscribed {
		errs = append(errs, "LIMITS_DAILY_SUBSCRIBED must not be lower than LIMITS_DAILY_UNSUBSCRIBED")
	}
	if c.Limits.HistoryCap < 2 {
		errs = append(errs, "LIMITS_HISTORY_CAP must hold at least one user/model pair")
	}
	if c.Limits.ChunkSize < 1 {
		errs = append(errs, "LIMITS_CHUNK_SIZE must be positive")
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
