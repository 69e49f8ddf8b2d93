package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BTCDUEL_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
//
// A missing file is not an error: defaults plus environment overrides are a
// complete configuration.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BTCDUEL_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Feed ──
	setStr(&cfg.Feed.BaseURL, "BTCDUEL_FEED_BASE_URL")
	setStr(&cfg.Feed.Asset, "BTCDUEL_FEED_ASSET")
	setStr(&cfg.Feed.VsCurrency, "BTCDUEL_FEED_VS_CURRENCY")
	setDuration(&cfg.Feed.CacheTTL, "BTCDUEL_FEED_CACHE_TTL")
	setDuration(&cfg.Feed.RequestTimeout, "BTCDUEL_FEED_REQUEST_TIMEOUT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BTCDUEL_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BTCDUEL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BTCDUEL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BTCDUEL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BTCDUEL_REDIS_POOL_SIZE")
	setDuration(&cfg.Redis.SnapshotTTL, "BTCDUEL_REDIS_SNAPSHOT_TTL")

	// ── Game ──
	setDuration(&cfg.Game.SettlementDelay, "BTCDUEL_GAME_SETTLEMENT_DELAY")
	setInt64(&cfg.Game.Reward, "BTCDUEL_GAME_REWARD")
	setDuration(&cfg.Game.SessionMaxAge, "BTCDUEL_GAME_SESSION_MAX_AGE")
	setDuration(&cfg.Game.CleanupInterval, "BTCDUEL_GAME_CLEANUP_INTERVAL")
	setDuration(&cfg.Game.SweepInterval, "BTCDUEL_GAME_SWEEP_INTERVAL")

	// ── Simulate ──
	setInt(&cfg.Simulate.Games, "BTCDUEL_SIMULATE_GAMES")
	setInt(&cfg.Simulate.Users, "BTCDUEL_SIMULATE_USERS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BTCDUEL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BTCDUEL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BTCDUEL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BTCDUEL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BTCDUEL_MODE")
	setStr(&cfg.LogLevel, "BTCDUEL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
