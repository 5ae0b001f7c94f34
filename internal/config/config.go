package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server Server
	DB     DB
	Redis  Redis
	NATS   NATS
	XMPP   XMPP
	Gemini Gemini
	Limits Limits
	Admin  Admin
	Log    Log
}

// Server configures the admin/ops HTTP listener.
type Server struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DB struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c Redis) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATS struct {
	URL string
}

// XMPP configures the external component connection (XEP-0114).
type XMPP struct {
	ComponentName   string
	ComponentSecret string
	ServerHost      string
	ServerPort      int
	// ChannelJID is the channel users subscribe to for the higher daily
	// limit. Shown in /start and /help notices.
	ChannelJID string
}

func (c XMPP) ComponentAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

type Gemini struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Limits carries the quota and rendering constants.
type Limits struct {
	DailyUnsubscribed int
	DailySubscribed   int
	HistoryCap        int
	ChunkSize         int
	BurstPerMinute    int
	MaxConcurrent     int
	MaxVoiceBytes     int64
}

type Admin struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenExpiry  time.Duration
}

type Log struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: Server{
			Host:           k.String("server.host"),
			Port:           k.Int("server.port"),
			AllowedOrigins: k.Strings("server.allowed.origins"),
		},
		DB: DB{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: Redis{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATS{
			URL: k.String("nats.url"),
		},
		XMPP: XMPP{
			ComponentName:   k.String("xmpp.component.name"),
			ComponentSecret: k.String("xmpp.component.secret"),
			ServerHost:      k.String("xmpp.server.host"),
			ServerPort:      k.Int("xmpp.server.port"),
			ChannelJID:      k.String("xmpp.channel.jid"),
		},
		Gemini: Gemini{
			APIKey: k.String("gemini.api.key"),
			Model:  k.String("gemini.model"),
		},
		Limits: Limits{
			DailyUnsubscribed: k.Int("limits.daily.unsubscribed"),
			DailySubscribed:   k.Int("limits.daily.subscribed"),
			HistoryCap:        k.Int("limits.history.cap"),
			ChunkSize:         k.Int("limits.chunk.size"),
			BurstPerMinute:    k.Int("limits.burst.per.minute"),
			MaxConcurrent:     k.Int("limits.max.concurrent"),
			MaxVoiceBytes:     k.Int64("limits.max.voice.bytes"),
		},
		Admin: Admin{
			Username:     k.String("admin.username"),
			PasswordHash: k.String("admin.password.hash"),
			JWTSecret:    k.String("admin.jwt.secret"),
		},
		Log: Log{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "baza"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "baza"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.XMPP.ComponentName == "" {
		cfg.XMPP.ComponentName = "bot.baza.local"
	}
	if cfg.XMPP.ServerHost == "" {
		cfg.XMPP.ServerHost = "localhost"
	}
	if cfg.XMPP.ServerPort == 0 {
		cfg.XMPP.ServerPort = 5347
	}
	if cfg.XMPP.ChannelJID == "" {
		cfg.XMPP.ChannelJID = "baza-ai-channel@conference.baza.local"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Limits.DailyUnsubscribed == 0 {
		cfg.Limits.DailyUnsubscribed = 20
	}
	if cfg.Limits.DailySubscribed == 0 {
		cfg.Limits.DailySubscribed = 40
	}
	if cfg.Limits.HistoryCap == 0 {
		cfg.Limits.HistoryCap = 10
	}
	if cfg.Limits.ChunkSize == 0 {
		cfg.Limits.ChunkSize = 4096
	}
	if cfg.Limits.BurstPerMinute == 0 {
		cfg.Limits.BurstPerMinute = 15
	}
	if cfg.Limits.MaxConcurrent == 0 {
		cfg.Limits.MaxConcurrent = 32
	}
	if cfg.Limits.MaxVoiceBytes == 0 {
		cfg.Limits.MaxVoiceBytes = 10 << 20
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	geminiTimeoutStr := k.String("gemini.timeout")
	if geminiTimeoutStr == "" {
		geminiTimeoutStr = "90s"
	}
	cfg.Gemini.Timeout, err = time.ParseDuration(geminiTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing gemini timeout: %w", err)
	}

	tokenExpiryStr := k.String("admin.token.expiry")
	if tokenExpiryStr == "" {
		tokenExpiryStr = "1h"
	}
	cfg.Admin.TokenExpiry, err = time.ParseDuration(tokenExpiryStr)
	if err != nil {
		return nil, fmt.Errorf("parsing admin token expiry: %w", err)
	}

	return cfg, nil
}
