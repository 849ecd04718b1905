package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// EnvAPIKey is the environment variable consulted for the Gemini API key.
const EnvAPIKey = "GEMINI_API_KEY"

// Config holds application configuration.
type Config struct {
	// StorageBackend selects where collections are persisted: "sqlite" (default) or "file".
	// The file backend writes one <key>.json per collection under <base>/data.
	StorageBackend string `json:"storage_backend,omitempty" toml:"storage_backend"`

	// DebounceMillis is the quiet period before coalesced collection writes hit storage.
	DebounceMillis int `json:"debounce_ms,omitempty" toml:"debounce_ms"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" toml:"db_max_open_conns"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" toml:"db_max_idle_conns"`

	// GeminiAPIKey authenticates AI flows. GEMINI_API_KEY in the environment wins.
	GeminiAPIKey string `json:"gemini_api_key,omitempty" toml:"gemini_api_key"`

	// GeminiModel is the generative model used by every AI flow.
	GeminiModel string `json:"gemini_model,omitempty" toml:"gemini_model"`

	// AIRequestsPerMinute bounds outgoing generation calls.
	AIRequestsPerMinute int `json:"ai_requests_per_minute,omitempty" toml:"ai_requests_per_minute"`

	// TranscriptBaseURL overrides the video site origin (used by tests and proxies).
	TranscriptBaseURL string `json:"transcript_base_url,omitempty" toml:"transcript_base_url"`

	// TranscriptLanguage is the preferred caption language code.
	TranscriptLanguage string `json:"transcript_language,omitempty" toml:"transcript_language"`

	// TranscriptRequestsPerSecond bounds outgoing transcript requests.
	TranscriptRequestsPerSecond float64 `json:"transcript_requests_per_second,omitempty" toml:"transcript_requests_per_second"`

	// WebBind and WebPort control where `flowfocus serve` listens.
	WebBind string `json:"web_bind,omitempty" toml:"web_bind"`
	WebPort int    `json:"web_port,omitempty" toml:"web_port"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" toml:"log_level"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" toml:"disabled_tools"`

	// DisabledTypes disables every MCP tool of a type (e.g. "ai", "transcript").
	DisabledTypes []string `json:"disabled_types,omitempty" toml:"disabled_types"`

	// Pomodoro durations in minutes; LongBreakEvery counts focus sessions.
	FocusMinutes      int `json:"focus_minutes,omitempty" toml:"focus_minutes"`
	ShortBreakMinutes int `json:"short_break_minutes,omitempty" toml:"short_break_minutes"`
	LongBreakMinutes  int `json:"long_break_minutes,omitempty" toml:"long_break_minutes"`
	LongBreakEvery    int `json:"long_break_every,omitempty" toml:"long_break_every"`

	// ExportsDir is where exports land when no path is given. Empty means <base>/exports.
	ExportsDir string `json:"exports_dir,omitempty" toml:"exports_dir"`

	// AllowedPaths lists extra directories that import/export may read or write.
	AllowedPaths []string `json:"allowed_paths,omitempty" toml:"allowed_paths"`

	// AllowUnsafePaths lifts the directory restriction on import/export paths.
	// Symlinks are still refused.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" toml:"allow_unsafe_paths"`

	// DeckTransitionMillis is the pause between flip-reset and card change in the deck player.
	DeckTransitionMillis int `json:"deck_transition_ms,omitempty" toml:"deck_transition_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageBackend:              BackendSQLite,
		DebounceMillis:              500,
		GeminiModel:                 "gemini-2.5-flash",
		AIRequestsPerMinute:         10,
		TranscriptBaseURL:           "https://www.youtube.com",
		TranscriptLanguage:          "en",
		TranscriptRequestsPerSecond: 2,
		WebBind:                     "127.0.0.1",
		WebPort:                     7420,
		LogLevel:                    "info",
		FocusMinutes:                25,
		ShortBreakMinutes:           5,
		LongBreakMinutes:            15,
		LongBreakEvery:              4,
		DeckTransitionMillis:        150,
	}
}

// DebounceInterval returns the storage quiet period.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// DeckTransition returns the deck player transition delay.
func (c *Config) DeckTransition() time.Duration {
	return time.Duration(c.DeckTransitionMillis) * time.Millisecond
}

// Validate checks values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("storage_backend must be one of: %s, %s", BackendSQLite, BackendFile)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port out of range: %d", c.WebPort)
	}
	return nil
}

// Load loads configuration from baseDir/config.toml, falling back to baseDir/config.json.
// Returns default config if neither file exists. Environment overrides are applied last.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.flowfocus.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFirst(
		filepath.Join(baseDir, "config.toml"),
		filepath.Join(baseDir, "config.json"),
	)
	if err != nil {
		return nil, err
	}
	cfg = Merge(DefaultConfig(), cfg)
	ApplyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment-provided secrets onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if key := strings.TrimSpace(getenv(EnvAPIKey)); key != "" {
		cfg.GeminiAPIKey = key
	}
}

// loadFirst loads the first existing file among paths.
// Returns zero-valued config if none exist (not defaults).
func loadFirst(paths ...string) (*Config, error) {
	for _, p := range paths {
		cfg, found, err := loadFileRaw(p)
		if err != nil {
			return nil, err
		}
		if found {
			return cfg, nil
		}
	}
	return &Config{}, nil
}

// loadFileRaw loads configuration from a specific file path, decoding by extension.
func loadFileRaw(configPath string) (*Config, bool, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}

	cfg := &Config{}
	switch filepath.Ext(configPath) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, false, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, false, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	return cfg, true, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		StorageBackend:              pick(overlay.StorageBackend, base.StorageBackend),
		DebounceMillis:              pick(overlay.DebounceMillis, base.DebounceMillis),
		DBMaxOpenConns:              pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:              pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		GeminiAPIKey:                pick(overlay.GeminiAPIKey, base.GeminiAPIKey),
		GeminiModel:                 pick(overlay.GeminiModel, base.GeminiModel),
		AIRequestsPerMinute:         pick(overlay.AIRequestsPerMinute, base.AIRequestsPerMinute),
		TranscriptBaseURL:           pick(overlay.TranscriptBaseURL, base.TranscriptBaseURL),
		TranscriptLanguage:          pick(overlay.TranscriptLanguage, base.TranscriptLanguage),
		TranscriptRequestsPerSecond: pick(overlay.TranscriptRequestsPerSecond, base.TranscriptRequestsPerSecond),
		WebBind:                     pick(overlay.WebBind, base.WebBind),
		WebPort:                     pick(overlay.WebPort, base.WebPort),
		LogLevel:                    pick(overlay.LogLevel, base.LogLevel),
		FocusMinutes:                pick(overlay.FocusMinutes, base.FocusMinutes),
		ShortBreakMinutes:           pick(overlay.ShortBreakMinutes, base.ShortBreakMinutes),
		LongBreakMinutes:            pick(overlay.LongBreakMinutes, base.LongBreakMinutes),
		LongBreakEvery:              pick(overlay.LongBreakEvery, base.LongBreakEvery),
		DeckTransitionMillis:        pick(overlay.DeckTransitionMillis, base.DeckTransitionMillis),
		ExportsDir:                  pick(overlay.ExportsDir, base.ExportsDir),
		AllowUnsafePaths:            overlay.AllowUnsafePaths || base.AllowUnsafePaths,
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

// pick returns overlay if non-zero, else base.
func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
