// Package config defines the configuration for the prediction duel engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"btcduel/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by BTCDUEL_* environment
// variables.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	Redis    RedisConfig    `toml:"redis"`
	Game     GameConfig     `toml:"game"`
	Simulate SimulateConfig `toml:"simulate"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FeedConfig holds upstream price source parameters.
type FeedConfig struct {
	BaseURL        string   `toml:"base_url"`
	Asset          string   `toml:"asset"`
	VsCurrency     string   `toml:"vs_currency"`
	CacheTTL       duration `toml:"cache_ttl"`
	RequestTimeout duration `toml:"request_timeout"`
}

// RedisConfig holds parameters for the optional shared snapshot cache.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// GameConfig holds session lifecycle parameters.
type GameConfig struct {
	SettlementDelay duration `toml:"settlement_delay"`
	Reward          int64    `toml:"reward"`
	SessionMaxAge   duration `toml:"session_max_age"`
	CleanupInterval duration `toml:"cleanup_interval"`
	SweepInterval   duration `toml:"sweep_interval"`
}

// SimulateConfig holds parameters for the self-play simulate mode.
type SimulateConfig struct {
	Games int `toml:"games"`
	Users int `toml:"users"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "60s", "24h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "60s" or "24h".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			BaseURL:        "https://api.coingecko.com/api/v3",
			Asset:          "bitcoin",
			VsCurrency:     "usd",
			CacheTTL:       duration{domain.DefaultCacheTTL},
			RequestTimeout: duration{5 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			DB:          0,
			PoolSize:    10,
			SnapshotTTL: duration{30 * time.Second},
		},
		Game: GameConfig{
			SettlementDelay: duration{domain.DefaultSettlementDelay},
			Reward:          domain.DefaultReward,
			SessionMaxAge:   duration{domain.DefaultSessionMaxAge},
			CleanupInterval: duration{time.Hour},
			SweepInterval:   duration{5 * time.Second},
		},
		Simulate: SimulateConfig{
			Games: 5,
			Users: 3,
		},
		Notify: NotifyConfig{
			Events: []string{"game_settled", "error"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":    true,
	"simulate": true,
	"price":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, simulate, price)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Feed
	if c.Feed.BaseURL == "" {
		errs = append(errs, "feed: base_url must not be empty")
	}
	if c.Feed.Asset == "" {
		errs = append(errs, "feed: asset must not be empty")
	}
	if c.Feed.VsCurrency == "" {
		errs = append(errs, "feed: vs_currency must not be empty")
	}
	if c.Feed.CacheTTL.Duration <= 0 {
		errs = append(errs, "feed: cache_ttl must be > 0")
	}
	if c.Feed.RequestTimeout.Duration <= 0 {
		errs = append(errs, "feed: request_timeout must be > 0")
	}

	// Redis (only when enabled)
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Game
	if c.Game.SettlementDelay.Duration <= 0 {
		errs = append(errs, "game: settlement_delay must be > 0")
	}
	if c.Game.Reward <= 0 {
		errs = append(errs, "game: reward must be > 0")
	}
	if c.Game.SessionMaxAge.Duration <= 0 {
		errs = append(errs, "game: session_max_age must be > 0")
	}
	if c.Game.CleanupInterval.Duration <= 0 {
		errs = append(errs, "game: cleanup_interval must be > 0")
	}
	if c.Game.SweepInterval.Duration <= 0 {
		errs = append(errs, "game: sweep_interval must be > 0")
	}

	// Simulate
	if strings.ToLower(c.Mode) == "simulate" {
		if c.Simulate.Games < 1 {
			errs = append(errs, "simulate: games must be >= 1")
		}
		if c.Simulate.Users < 1 {
			errs = append(errs, "simulate: users must be >= 1")
		}
	}

	// Notify — token and chat id must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
