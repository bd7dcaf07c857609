package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override file settings,
// e.g. DOCNAV_CONTENT_DIR -> content_dir.
const EnvPrefix = "DOCNAV_"

type Config struct {
	Port string `koanf:"port"`

	// Content
	ContentDir       string `koanf:"content_dir"`
	MaxDocumentBytes int64  `koanf:"max_document_bytes"`
	HighlightStyle   string `koanf:"highlight_style"`

	// Reading time
	ReadingWPM           int  `koanf:"reading_wpm"`
	PDFFallbackPdftotext bool `koanf:"pdf_fallback_pdftotext"`

	// Navigation views
	ThrottleInterval time.Duration `koanf:"throttle_interval"`
	ViewTTL          time.Duration `koanf:"view_ttl"`
	MaxViews         int           `koanf:"max_views"`

	// HTTP
	CORSOrigins []string `koanf:"cors_origins"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port: "8090",

		ContentDir:       "content",
		MaxDocumentBytes: 10 << 20, // 10MB
		HighlightStyle:   "github",

		ReadingWPM:           45,
		PDFFallbackPdftotext: true,

		ThrottleInterval: 120 * time.Millisecond,
		ViewTTL:          30 * time.Minute,
		MaxViews:         1000,

		CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// Load starts from Default, applies the YAML file at path when it exists,
// then overlays DOCNAV_* environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "cors_origins" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.HighlightStyle == "" {
		cfg.HighlightStyle = "github"
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir is required")
	}
	info, err := os.Stat(c.ContentDir)
	if err != nil {
		return fmt.Errorf("content_dir %s: %w", c.ContentDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content_dir %s is not a directory", c.ContentDir)
	}
	if c.ReadingWPM <= 0 {
		return fmt.Errorf("reading_wpm must be positive")
	}
	if c.ThrottleInterval <= 0 {
		return fmt.Errorf("throttle_interval must be positive")
	}
	if c.ViewTTL <= 0 {
		return fmt.Errorf("view_ttl must be positive")
	}
	if c.MaxViews <= 0 {
		return fmt.Errorf("max_views must be positive")
	}
	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("max_document_bytes must be positive")
	}
	return nil
}
