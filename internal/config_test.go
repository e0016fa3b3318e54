package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/babilon/internal/slideshow"
	pkgconfig "github.com/starford/babilon/pkg/config"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Content.Dir = "./site"
	return cfg
}

func TestDefaultConfig_NeedsContentSource(t *testing.T) {
	err := NewDefaultConfig().Validate()
	if err == nil || !strings.Contains(err.Error(), "exactly one of base_url and dir") {
		t.Fatalf("err = %v", err)
	}
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("dir only should pass: %v", err)
	}
}

func TestContentConfig_BothSources(t *testing.T) {
	cfg := validConfig()
	cfg.Content.BaseURL = "https://babilon.example"
	if err := cfg.Validate(); err == nil {
		t.Fatal("base_url and dir together should fail")
	}
}

func TestContentConfig_BadURL(t *testing.T) {
	c := ContentConfig{BaseURL: "not a url"}
	if err := c.Validate(); err == nil {
		t.Fatal("invalid base_url should fail")
	}
	c = ContentConfig{BaseURL: "https://babilon.example/"}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid base_url: %v", err)
	}
	if c.Local() {
		t.Error("remote content reported as local")
	}
}

func TestSlideshowConfig(t *testing.T) {
	c := SlideshowConfig{}
	if err := c.Validate(); err != nil {
		t.Fatalf("empty start: %v", err)
	}
	if c.Start != slideshow.StartLatest {
		t.Errorf("start = %q, want latest", c.Start)
	}
	c = SlideshowConfig{Start: "middle"}
	if err := c.Validate(); err == nil {
		t.Fatal("unknown start should fail")
	}
}

func TestSessionsConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Sessions.Cookie = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty cookie name should fail")
	}
	cfg = validConfig()
	cfg.Sessions.TTL = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Fatal("sub-second ttl should fail")
	}
	cfg = validConfig()
	cfg.Sessions.Max = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("uncapped sessions should fail")
	}
}

func TestHTTPConfig_Port(t *testing.T) {
	cfg := validConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port out of range should fail")
	}
	if got := (&HTTPConfig{Port: 9000}).Address(); got != ":9000" {
		t.Errorf("address = %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("BABILON_CONTENT_URL", "https://cdn.example/babilon")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `app:
  log_level: debug
  http:
    port: 9090
content:
  base_url: ${BABILON_CONTENT_URL}
  timeout: 2s
slideshow:
  start: first
sessions:
  ttl: 1h
search:
  enabled: false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Content.BaseURL != "https://cdn.example/babilon" || cfg.Content.Timeout != 2*time.Second {
		t.Errorf("content = %+v", cfg.Content)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Slideshow.Start != slideshow.StartFirst || cfg.Sessions.TTL != time.Hour {
		t.Errorf("slideshow = %+v, sessions = %+v", cfg.Slideshow, cfg.Sessions)
	}
	if cfg.Sessions.Cookie != "babilon_session" || cfg.Search.Enabled || !cfg.Watch.Enabled {
		t.Errorf("defaults not kept: %+v %+v %+v", cfg.Sessions, cfg.Search, cfg.Watch)
	}
}
