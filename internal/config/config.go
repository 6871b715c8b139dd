package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// ServerAddr is the base URL of the procedure server, without a
	// trailing slash. Procedures are posted to ServerAddr/{kind}/{name}.
	ServerAddr string `json:"server_addr"`

	// WebBaseURL is the public web origin used when formatting shareable
	// entry links. Defaults to ServerAddr when empty.
	WebBaseURL string `json:"web_base_url,omitempty"`

	// Workspace is the slug of the workspace to open on startup.
	Workspace string `json:"workspace,omitempty"`

	// StaleTimeSeconds is how long cached query data stays fresh before a
	// new subscriber triggers a background refetch. 0 means use the
	// built-in default of 30 seconds.
	StaleTimeSeconds int `json:"stale_time_seconds,omitempty"`

	// QueryRetries is the number of additional attempts after a failed
	// query fetch. 0 means use the built-in default of 3.
	QueryRetries int `json:"query_retries,omitempty"`

	// DisabledChords is a list of key chords (e.g. "shift+g") to exclude
	// from keyboard dispatch. Unknown chords are ignored.
	DisabledChords []string `json:"disabled_chords,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ServerAddr:       "http://localhost:8788",
		StaleTimeSeconds: 30,
		QueryRetries:     3,
	}
}

// BaseDir returns the application data directory, ~/.satchel, creatable by
// the caller. The SATCHEL_DIR environment variable overrides it.
func BaseDir() (string, error) {
	if dir := os.Getenv("SATCHEL_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".satchel"), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.satchel.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ServerAddr = overlay.ServerAddr
	if result.ServerAddr == "" {
		result.ServerAddr = base.ServerAddr
	}

	result.WebBaseURL = overlay.WebBaseURL
	if result.WebBaseURL == "" {
		result.WebBaseURL = base.WebBaseURL
	}

	result.Workspace = overlay.Workspace
	if result.Workspace == "" {
		result.Workspace = base.Workspace
	}

	result.StaleTimeSeconds = overlay.StaleTimeSeconds
	if result.StaleTimeSeconds == 0 {
		result.StaleTimeSeconds = base.StaleTimeSeconds
	}

	result.QueryRetries = overlay.QueryRetries
	if result.QueryRetries == 0 {
		result.QueryRetries = base.QueryRetries
	}

	result.DisabledChords = mergeStringSlice(base.DisabledChords, overlay.DisabledChords)

	return result
}

// LinkBase returns the origin used for shareable links.
func (c *Config) LinkBase() string {
	if c.WebBaseURL != "" {
		return strings.TrimRight(c.WebBaseURL, "/")
	}
	return strings.TrimRight(c.ServerAddr, "/")
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
