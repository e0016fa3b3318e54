package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExpand(t *testing.T) {
	t.Setenv("CFG_SET", "value")
	t.Setenv("CFG_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"${CFG_SET}", "value"},
		{"${CFG_SET:-other}", "value"},
		{"${CFG_EMPTY:-other}", "other"},
		{"${CFG_MISSING:-8080}", "8080"},
		{"${CFG_MISSING}", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Expand(tt.in); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "name: ${CFG_NAME:-babilon}\n")
	cfg := sample{Port: 8080, Extra: "default"}
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "babilon" || cfg.Port != 8080 || cfg.Extra != "default" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"unknown key", "port: 1\nprot: 2\n", "failed to parse"},
		{"validation", "port: -1\n", "config validation failed"},
		{"bad yaml", "port: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg sample
			err := Load(writeConfig(t, tt.body), &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg sample
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_EmptyFileValidatesDefaults(t *testing.T) {
	cfg := sample{Port: 1}
	if err := Load(writeConfig(t, ""), &cfg); err != nil {
		t.Fatal(err)
	}
}
