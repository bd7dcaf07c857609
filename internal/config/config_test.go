package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg.Port != want.Port {
		t.Errorf("port: got %q, want %q", cfg.Port, want.Port)
	}
	if cfg.ReadingWPM != 45 {
		t.Errorf("reading_wpm: got %d, want 45", cfg.ReadingWPM)
	}
	if cfg.ThrottleInterval != 120*time.Millisecond {
		t.Errorf("throttle_interval: got %v", cfg.ThrottleInterval)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docnav.yml")
	yml := `port: "9000"
content_dir: /srv/writeups
reading_wpm: 200
throttle_interval: 150ms
view_ttl: 1h
cors_origins:
  - https://example.com
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCNAV_READING_WPM", "90")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if cfg.ContentDir != "/srv/writeups" {
		t.Errorf("content_dir: got %q", cfg.ContentDir)
	}
	if cfg.ReadingWPM != 90 {
		t.Errorf("expected env to override reading_wpm, got %d", cfg.ReadingWPM)
	}
	if cfg.ThrottleInterval != 150*time.Millisecond {
		t.Errorf("throttle_interval: got %v", cfg.ThrottleInterval)
	}
	if cfg.ViewTTL != time.Hour {
		t.Errorf("view_ttl: got %v", cfg.ViewTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://example.com" {
		t.Errorf("cors_origins: got %v", cfg.CORSOrigins)
	}
	if cfg.HighlightStyle != "github" {
		t.Errorf("expected default highlight style to survive, got %q", cfg.HighlightStyle)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	valid := Default()
	valid.ContentDir = dir
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing content dir", func(c *Config) { c.ContentDir = "" }},
		{"content dir absent", func(c *Config) { c.ContentDir = filepath.Join(dir, "nope") }},
		{"zero wpm", func(c *Config) { c.ReadingWPM = 0 }},
		{"zero throttle", func(c *Config) { c.ThrottleInterval = 0 }},
		{"zero ttl", func(c *Config) { c.ViewTTL = 0 }},
		{"zero max views", func(c *Config) { c.MaxViews = 0 }},
		{"zero doc size", func(c *Config) { c.MaxDocumentBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_EnvCORSList(t *testing.T) {
	t.Setenv("DOCNAV_CORS_ORIGINS", "https://a.example,https://b.example")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors_origins: got %v", cfg.CORSOrigins)
	}
}
