// Package config loads runtime settings for the card scanner.
//
// Settings are layered: built-in defaults, then an optional YAML file named
// by CARDSCAN_CONFIG, then environment variables (which win). A .env file in
// the working directory is loaded first, best effort, and never overrides
// variables that are already set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/card-scanner/internal/imaging"
	"github.com/ironsheep/card-scanner/internal/marketplace"
	"github.com/ironsheep/card-scanner/internal/match"
	"github.com/ironsheep/card-scanner/internal/ocr"
	"github.com/ironsheep/card-scanner/internal/pipeline"
)

// Config holds all runtime configuration.
type Config struct {
	TemplateDir    string   `yaml:"template_dir"`
	WatchTemplates bool     `yaml:"watch_templates"`
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`

	OCRLanguage    string  `yaml:"ocr_language"`
	TessdataPrefix string  `yaml:"tessdata_prefix"`
	OCRWorkers     int     `yaml:"ocr_workers"`
	MinConfidence  float64 `yaml:"min_confidence"`

	MatchThreshold float64             `yaml:"match_threshold"`
	RegionBox      imaging.RelativeBox `yaml:"region_box"`

	SearchLimit   int           `yaml:"search_limit"`
	SearchTimeout time.Duration `yaml:"search_timeout"`
	SearchRPS     float64       `yaml:"search_rps"`
	EbayAppID     string        `yaml:"ebay_app_id"`
	EbayEndpoint  string        `yaml:"ebay_endpoint"`

	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	DatabaseDSN string `yaml:"database_dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TemplateDir:    "./set_icons",
		ListenAddr:     ":5000",
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		OCRLanguage:    "eng",
		OCRWorkers:     1,
		MinConfidence:  ocr.DefaultMinConfidence,
		MatchThreshold: match.DefaultThreshold,
		RegionBox:      imaging.SetIconBox,
		SearchLimit:    marketplace.DefaultLimit,
		SearchTimeout:  pipeline.DefaultSearchTimeout,
		SearchRPS:      5,
		EbayEndpoint:   marketplace.DefaultEbayEndpoint,
		CacheTTL:       marketplace.DefaultCacheTTL,
	}
}

// Load reads .env, the optional YAML file and the environment, then
// validates the result.
func Load() (*Config, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CARDSCAN_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", name, v))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid number %q", name, v))
				return
			}
			*dst = f
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			*dst = v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
		}
	}

	str("CARDSCAN_TEMPLATE_DIR", &c.TemplateDir)
	boolean("CARDSCAN_WATCH_TEMPLATES", &c.WatchTemplates)
	str("CARDSCAN_LISTEN_ADDR", &c.ListenAddr)
	str("CARDSCAN_LOG_LEVEL", &c.LogLevel)
	str("CARDSCAN_OCR_LANGUAGE", &c.OCRLanguage)
	str("CARDSCAN_TESSDATA_PREFIX", &c.TessdataPrefix)
	integer("CARDSCAN_OCR_WORKERS", &c.OCRWorkers)
	float("CARDSCAN_MIN_CONFIDENCE", &c.MinConfidence)
	float("CARDSCAN_MATCH_THRESHOLD", &c.MatchThreshold)
	integer("CARDSCAN_SEARCH_LIMIT", &c.SearchLimit)
	duration("CARDSCAN_SEARCH_TIMEOUT", &c.SearchTimeout)
	float("CARDSCAN_SEARCH_RPS", &c.SearchRPS)
	str("EBAY_APP_ID", &c.EbayAppID)
	str("EBAY_ENDPOINT", &c.EbayEndpoint)
	str("REDIS_URL", &c.RedisURL)
	duration("CARDSCAN_CACHE_TTL", &c.CacheTTL)
	str("DB_DSN", &c.DatabaseDSN)

	if v, ok := lookup("CARDSCAN_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	return errors.Join(errs...)
}

// Validate checks that every setting is in range.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TemplateDir) == "" {
		errs = append(errs, errors.New("template_dir must not be empty"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence))
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("match_threshold must be in [0,1], got %v", c.MatchThreshold))
	}
	if c.OCRWorkers < 1 || c.OCRWorkers > 16 {
		errs = append(errs, fmt.Errorf("ocr_workers must be in 1..16, got %d", c.OCRWorkers))
	}
	if c.SearchLimit < 1 || c.SearchLimit > marketplace.MaxLimit {
		errs = append(errs, fmt.Errorf("search_limit must be in 1..%d, got %d", marketplace.MaxLimit, c.SearchLimit))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("search_timeout must be positive, got %v", c.SearchTimeout))
	}
	if c.SearchRPS < 0 {
		errs = append(errs, fmt.Errorf("search_rps must not be negative, got %v", c.SearchRPS))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %v", c.CacheTTL))
	}
	if c.RegionBox.Empty() {
		errs = append(errs, fmt.Errorf("region_box %s has no area", c.RegionBox))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SearchEnabled reports whether marketplace credentials are configured.
func (c *Config) SearchEnabled() bool {
	return c.EbayAppID != ""
}

// PipelineOptions converts the settings into pipeline stage options.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.RegionBox = c.RegionBox
	opts.MinConfidence = c.MinConfidence
	opts.MatchThreshold = c.MatchThreshold
	opts.SearchLimit = c.SearchLimit
	opts.SearchTimeout = c.SearchTimeout
	return opts
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
