// Package config defines the tickboard configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/tickboard/internal/series"
)

// Config is the root configuration. Fields come from a TOML file merged over
// Defaults and are then overridden by TICKBOARD_* environment variables.
type Config struct {
	Stream      StreamConfig      `toml:"stream"`
	Render      RenderConfig      `toml:"render"`
	Interaction InteractionConfig `toml:"interaction"`
	Surface     SurfaceConfig     `toml:"surface"`
	Demo        DemoConfig        `toml:"demo"`
	Server      ServerConfig      `toml:"server"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// StreamConfig configures the tick source and the synthetic seed.
type StreamConfig struct {
	// URL is the websocket endpoint, or the channel name for the relay
	// source. Demo mode points it at the built-in simulator.
	URL string `toml:"url"`
	// Source is "ws" or "relay" (Redis pub/sub).
	Source         string   `toml:"source"`
	Codec          string   `toml:"codec"`
	ReconnectDelay duration `toml:"reconnect_delay"`
	// StaleAfter force-closes a connection that has gone quiet; 0 disables.
	StaleAfter  duration `toml:"stale_after"`
	DialTimeout duration `toml:"dial_timeout"`

	SeedPoints int      `toml:"seed_points"`
	SeedStep   duration `toml:"seed_step"`
	SeedPrice  float64  `toml:"seed_price"`
}

// RenderConfig configures the render cadence, auto-scroll and retention.
type RenderConfig struct {
	Interval        duration `toml:"interval"`
	ScrollThreshold float64  `toml:"scroll_threshold"`
	DefaultWindow   duration `toml:"default_window"`
	// Retention is "unbounded" or "sliding"; sliding keeps MaxPoints.
	Retention string `toml:"retention"`
	MaxPoints int    `toml:"max_points"`
}

// InteractionConfig holds the quiet period per gesture kind.
type InteractionConfig struct {
	WheelQuiet duration `toml:"wheel_quiet"`
	PanQuiet   duration `toml:"pan_quiet"`
	ZoomQuiet  duration `toml:"zoom_quiet"`
	TouchQuiet duration `toml:"touch_quiet"`
}

// SurfaceConfig configures the browser and PNG surfaces.
type SurfaceConfig struct {
	FrameEncoding string `toml:"frame_encoding"`
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
}

// DemoConfig drives the built-in tick simulator.
type DemoConfig struct {
	Interval   duration `toml:"interval"`
	StartPrice float64  `toml:"start_price"`
	Volatility float64  `toml:"volatility"`
	// DropEvery closes the stream after every N ticks; 0 disables.
	DropEvery int `toml:"drop_every"`
	// MalformedEvery sends a corrupt frame every N ticks; 0 disables.
	MalformedEvery int `toml:"malformed_every"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimit requests per RateWindow per client; needs Redis, 0 disables.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// RedisConfig holds Redis connection parameters. Enabled turns on tick
// fan-out, the price cache and rate limiting.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	StreamID   string `toml:"stream_id"`
}

// S3Config holds object storage parameters for chart snapshots.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	// ExportInterval uploads a snapshot periodically; 0 means on demand only.
	ExportInterval duration `toml:"export_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML strings like "500ms" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with every field at its default.
func Defaults() Config {
	return Config{
		Stream: StreamConfig{
			Source:         "ws",
			Codec:          "json",
			ReconnectDelay: duration{3 * time.Second},
			StaleAfter:     duration{30 * time.Second},
			DialTimeout:    duration{10 * time.Second},
			SeedPoints:     120,
			SeedStep:       duration{time.Second},
			SeedPrice:      100,
		},
		Render: RenderConfig{
			Interval:        duration{500 * time.Millisecond},
			ScrollThreshold: 0.10,
			DefaultWindow:   duration{5 * time.Minute},
			Retention:       "unbounded",
		},
		Interaction: InteractionConfig{
			WheelQuiet: duration{800 * time.Millisecond},
			PanQuiet:   duration{1500 * time.Millisecond},
			ZoomQuiet:  duration{1500 * time.Millisecond},
			TouchQuiet: duration{2000 * time.Millisecond},
		},
		Surface: SurfaceConfig{
			FrameEncoding: "json",
			Width:         1024,
			Height:        480,
		},
		Demo: DemoConfig{
			Interval:   duration{250 * time.Millisecond},
			StartPrice: 100,
			Volatility: 0.002,
		},
		Server: ServerConfig{
			Enabled:    true,
			Port:       8080,
			RateWindow: duration{time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			StreamID:   "default",
		},
		S3: S3Config{
			Region:         "us-east-1",
			ForcePathStyle: true,
			UseSSL:         true,
		},
		Mode:     "live",
		LogLevel: "info",
	}
}

var (
	validModes     = []string{"live", "demo", "headless"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validSources   = []string{"ws", "relay"}
	validCodecs    = []string{"json", "proto"}
)

// Validate checks for invalid or missing values and reports all of them in
// one error.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	oneOf := func(field, v string, valid []string) {
		for _, ok := range valid {
			if v == ok {
				return
			}
		}
		add("%s: unknown value %q (valid: %s)", field, v, strings.Join(valid, ", "))
	}

	oneOf("mode", c.Mode, validModes)
	oneOf("log_level", c.LogLevel, validLogLevels)

	// Stream
	oneOf("stream.source", c.Stream.Source, validSources)
	oneOf("stream.codec", c.Stream.Codec, validCodecs)
	if c.Mode == "live" && c.Stream.Source == "ws" && c.Stream.URL == "" {
		add("stream.url: required in live mode")
	}
	if c.Stream.Source == "relay" && !c.Redis.Enabled {
		add("stream.source: relay needs redis.enabled")
	}
	if c.Stream.ReconnectDelay.Duration <= 0 {
		add("stream.reconnect_delay: must be > 0")
	}
	if c.Stream.StaleAfter.Duration < 0 {
		add("stream.stale_after: must be >= 0")
	}
	if c.Stream.DialTimeout.Duration <= 0 {
		add("stream.dial_timeout: must be > 0")
	}
	if c.Stream.SeedPoints < 0 {
		add("stream.seed_points: must be >= 0")
	}
	if c.Stream.SeedPoints > 0 && (c.Stream.SeedStep.Duration <= 0 || c.Stream.SeedPrice <= 0) {
		add("stream.seed_step and stream.seed_price: must be > 0 when seeding")
	}

	// Render
	if iv := c.Render.Interval.Duration; iv < 50*time.Millisecond || iv > 10*time.Second {
		add("render.interval: must be between 50ms and 10s, got %s", iv)
	}
	if c.Render.ScrollThreshold < 0 || c.Render.ScrollThreshold > 1 {
		add("render.scroll_threshold: must be within [0, 1], got %g", c.Render.ScrollThreshold)
	}
	if c.Render.DefaultWindow.Duration <= 0 {
		add("render.default_window: must be > 0")
	}
	if retention, err := series.ParseRetention(c.Render.Retention); err != nil {
		add("render.retention: %v", err)
	} else if retention == series.Sliding && c.Render.MaxPoints <= 0 {
		add("render.max_points: must be > 0 with sliding retention")
	}

	// Interaction
	for name, d := range map[string]duration{
		"wheel_quiet": c.Interaction.WheelQuiet,
		"pan_quiet":   c.Interaction.PanQuiet,
		"zoom_quiet":  c.Interaction.ZoomQuiet,
		"touch_quiet": c.Interaction.TouchQuiet,
	} {
		if d.Duration <= 0 {
			add("interaction.%s: must be > 0", name)
		}
	}

	// Surface
	oneOf("surface.frame_encoding", c.Surface.FrameEncoding, validCodecs)
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		add("surface: width and height must be > 0")
	}

	// Demo
	if c.Mode == "demo" {
		if c.Demo.Interval.Duration <= 0 {
			add("demo.interval: must be > 0")
		}
		if c.Demo.StartPrice <= 0 {
			add("demo.start_price: must be > 0")
		}
		if c.Demo.Volatility < 0 {
			add("demo.volatility: must be >= 0")
		}
		if !c.Server.Enabled {
			add("server.enabled: demo mode serves the simulator over HTTP")
		}
	}

	// Server
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		add("server.port: must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit: must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		add("server.rate_window: must be > 0 when rate_limit is set")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			add("redis.addr: must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			add("redis.pool_size: must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			add("s3.bucket: must not be empty")
		}
		if c.S3.Region == "" {
			add("s3.region: must not be empty")
		}
	}
	if c.S3.ExportInterval.Duration < 0 {
		add("s3.export_interval: must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
