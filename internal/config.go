package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Excerpt   ExcerptConfig     `yaml:"excerpt"`
	Media     MediaConfig       `yaml:"media"`
	Cache     CacheConfig       `yaml:"cache"`
	RateLimit RateLimitConfig   `yaml:"ratelimit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Excerpt.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.RateLimit.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExcerptConfig bounds the first-section excerpt shown in post listings.
type ExcerptConfig struct {
	MaxLines int `yaml:"max_lines"`
	MaxChars int `yaml:"max_chars"`
}

// Validate validates the excerpt configuration.
func (c *ExcerptConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxLines, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxChars, validation.Required, validation.Min(1)),
	)
}

// MediaConfig lists the file extensions classified as images and videos
// when resolving a post's assets.
type MediaConfig struct {
	ImageExts []string `yaml:"image_exts"`
	VideoExts []string `yaml:"video_exts"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ImageExts, validation.Required),
		validation.Field(&c.VideoExts, validation.Required),
	)
}

// CacheConfig holds the rendered-payload cache settings. MaxBytes of zero
// disables the cache.
type CacheConfig struct {
	MaxBytes int64         `yaml:"max_bytes"`
	TTL      time.Duration `yaml:"ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.MaxBytes < 0 {
		return fmt.Errorf("cache: max_bytes must not be negative")
	}
	if c.MaxBytes > 0 && c.TTL <= 0 {
		return fmt.Errorf("cache: ttl must be positive when the cache is enabled")
	}
	return nil
}

// RateLimitConfig holds the per-IP API rate limit settings.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RPS <= 0 {
		return fmt.Errorf("ratelimit: rps must be positive")
	}
	if c.Burst < 1 {
		return fmt.Errorf("ratelimit: burst must be at least 1")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./dagaz.db",
		},
		Excerpt: ExcerptConfig{
			MaxLines: 10,
			MaxChars: 500,
		},
		Media: MediaConfig{
			ImageExts: []string{"png", "jpg", "jpeg", "gif", "webp"},
			VideoExts: []string{"mp4", "webm", "mov"},
		},
		Cache: CacheConfig{
			MaxBytes: 32 << 20,
			TTL:      10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     20,
			Burst:   40,
		},
	}
}
