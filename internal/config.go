package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/babilon/internal/slideshow"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Content   ContentConfig     `yaml:"content"`
	Slideshow SlideshowConfig   `yaml:"slideshow"`
	Sessions  SessionsConfig    `yaml:"sessions"`
	Search    SearchConfig      `yaml:"search"`
	Watch     WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Slideshow.Validate(); err != nil {
		return err
	}
	return c.Sessions.Validate()
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
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool `yaml:"secure_cookies"`
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

// ContentConfig says where the static content tree lives. Exactly one
// of BaseURL and Dir is set.
type ContentConfig struct {
	BaseURL string        `yaml:"base_url"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency bounds parallel fetches while building the search index.
	Concurrency int `yaml:"concurrency"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if (c.BaseURL == "") == (c.Dir == "") {
		return errors.New("content: exactly one of base_url and dir must be set")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Concurrency, validation.Min(0)),
	)
}

// Local reports whether content is read from a local directory.
func (c *ContentConfig) Local() bool {
	return c.Dir != ""
}

// SlideshowConfig picks the initial archive slide.
type SlideshowConfig struct {
	Start slideshow.Start `yaml:"start"`
}

// Validate validates the slideshow configuration.
func (c *SlideshowConfig) Validate() error {
	if c.Start == "" {
		c.Start = slideshow.StartLatest
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Start, validation.In(slideshow.StartLatest, slideshow.StartFirst)),
	)
}

// SessionsConfig controls reader sessions.
type SessionsConfig struct {
	TTL    time.Duration `yaml:"ttl"`
	Cookie string        `yaml:"cookie"`
	// Max caps live sessions; the least recently used is dropped first.
	Max int `yaml:"max"`
}

// Validate validates the sessions configuration.
func (c *SessionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Cookie, validation.Required),
		validation.Field(&c.Max, validation.Required, validation.Min(1)),
	)
}

// SearchConfig toggles the in-memory article index.
type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WatchConfig toggles the content watcher. It only applies to a local
// content dir.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
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
		Content: ContentConfig{
			Timeout:     5 * time.Second,
			Concurrency: 4,
		},
		Slideshow: SlideshowConfig{
			Start: slideshow.StartLatest,
		},
		Sessions: SessionsConfig{
			TTL:    30 * time.Minute,
			Cookie: "babilon_session",
			Max:    10000,
		},
		Search: SearchConfig{Enabled: true},
		Watch:  WatchConfig{Enabled: true},
	}
}
