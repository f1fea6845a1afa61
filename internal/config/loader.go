package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path over Defaults, loads .env if present,
// then applies TICKBOARD_* overrides. An empty path skips the file. The
// result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			keys := make([]string, len(undec))
			for i, k := range undec {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets operators inject settings and secrets at deploy
// time. Unset or unparsable variables leave the field alone.
func applyEnvOverrides(cfg *Config) {
	// Stream
	setStr(&cfg.Stream.URL, "TICKBOARD_STREAM_URL")
	setStr(&cfg.Stream.Source, "TICKBOARD_STREAM_SOURCE")
	setStr(&cfg.Stream.Codec, "TICKBOARD_STREAM_CODEC")
	setDuration(&cfg.Stream.ReconnectDelay, "TICKBOARD_STREAM_RECONNECT_DELAY")
	setDuration(&cfg.Stream.StaleAfter, "TICKBOARD_STREAM_STALE_AFTER")
	setDuration(&cfg.Stream.DialTimeout, "TICKBOARD_STREAM_DIAL_TIMEOUT")
	setInt(&cfg.Stream.SeedPoints, "TICKBOARD_STREAM_SEED_POINTS")
	setDuration(&cfg.Stream.SeedStep, "TICKBOARD_STREAM_SEED_STEP")
	setFloat64(&cfg.Stream.SeedPrice, "TICKBOARD_STREAM_SEED_PRICE")

	// Render
	setDuration(&cfg.Render.Interval, "TICKBOARD_RENDER_INTERVAL")
	setFloat64(&cfg.Render.ScrollThreshold, "TICKBOARD_RENDER_SCROLL_THRESHOLD")
	setDuration(&cfg.Render.DefaultWindow, "TICKBOARD_RENDER_DEFAULT_WINDOW")
	setStr(&cfg.Render.Retention, "TICKBOARD_RENDER_RETENTION")
	setInt(&cfg.Render.MaxPoints, "TICKBOARD_RENDER_MAX_POINTS")

	// Interaction
	setDuration(&cfg.Interaction.WheelQuiet, "TICKBOARD_INTERACTION_WHEEL_QUIET")
	setDuration(&cfg.Interaction.PanQuiet, "TICKBOARD_INTERACTION_PAN_QUIET")
	setDuration(&cfg.Interaction.ZoomQuiet, "TICKBOARD_INTERACTION_ZOOM_QUIET")
	setDuration(&cfg.Interaction.TouchQuiet, "TICKBOARD_INTERACTION_TOUCH_QUIET")

	// Surface
	setStr(&cfg.Surface.FrameEncoding, "TICKBOARD_SURFACE_FRAME_ENCODING")
	setInt(&cfg.Surface.Width, "TICKBOARD_SURFACE_WIDTH")
	setInt(&cfg.Surface.Height, "TICKBOARD_SURFACE_HEIGHT")

	// Demo
	setDuration(&cfg.Demo.Interval, "TICKBOARD_DEMO_INTERVAL")
	setFloat64(&cfg.Demo.StartPrice, "TICKBOARD_DEMO_START_PRICE")
	setFloat64(&cfg.Demo.Volatility, "TICKBOARD_DEMO_VOLATILITY")
	setInt(&cfg.Demo.DropEvery, "TICKBOARD_DEMO_DROP_EVERY")
	setInt(&cfg.Demo.MalformedEvery, "TICKBOARD_DEMO_MALFORMED_EVERY")

	// Server
	setBool(&cfg.Server.Enabled, "TICKBOARD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "TICKBOARD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TICKBOARD_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "TICKBOARD_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "TICKBOARD_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "TICKBOARD_SERVER_RATE_WINDOW")

	// Redis
	setBool(&cfg.Redis.Enabled, "TICKBOARD_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TICKBOARD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TICKBOARD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TICKBOARD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TICKBOARD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TICKBOARD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TICKBOARD_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.StreamID, "TICKBOARD_REDIS_STREAM_ID")

	// S3
	setBool(&cfg.S3.Enabled, "TICKBOARD_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TICKBOARD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TICKBOARD_S3_REGION")
	setStr(&cfg.S3.Bucket, "TICKBOARD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TICKBOARD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TICKBOARD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TICKBOARD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TICKBOARD_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ExportInterval, "TICKBOARD_S3_EXPORT_INTERVAL")

	// Notify
	setStr(&cfg.Notify.TelegramToken, "TICKBOARD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TICKBOARD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TICKBOARD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TICKBOARD_NOTIFY_EVENTS")

	// Top-level
	setStr(&cfg.Mode, "TICKBOARD_MODE")
	setStr(&cfg.LogLevel, "TICKBOARD_LOG_LEVEL")
}

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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
