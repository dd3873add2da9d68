package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the ghexplorer configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Listing   ListingConfig   `yaml:"listing"`
	Cache     CacheConfig     `yaml:"cache"`
	GitHub    GitHubConfig    `yaml:"github"`
	Provider  ProviderConfig  `yaml:"provider"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SearchConfig holds settings for the candidate search.
type SearchConfig struct {
	DebounceMs int `yaml:"debounce_ms"` // Quiet period before a query is issued
	TimeoutMs  int `yaml:"timeout_ms"`  // Per-request deadline (0 = none)
	MaxResults int `yaml:"max_results"` // Candidates returned per search
	RetryLimit int `yaml:"retry_limit"` // Manual retries before the affordance is withdrawn
}

// ListingConfig holds settings for the paginated repository listing.
type ListingConfig struct {
	TimeoutMs    int `yaml:"timeout_ms"`     // Per-attempt deadline (0 = none)
	PageSize     int `yaml:"page_size"`      // Items per page, clamped to [1,100]
	AutoRetries  int `yaml:"auto_retries"`   // Automatic retries per page fetch
	RetryDelayMs int `yaml:"retry_delay_ms"` // Delay between automatic retries
	RetryLimit   int `yaml:"retry_limit"`    // Manual retries before the affordance is withdrawn
}

// CacheConfig holds settings for the provider response cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLMs    int  `yaml:"ttl_ms"`
	Capacity int  `yaml:"capacity"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Host  string `yaml:"host"`  // API host, github.com by default
	Token string `yaml:"token"` // Falls back to gh's own credential resolution when empty
}

// ProviderConfig selects the data source.
type ProviderConfig struct {
	Name        string `yaml:"name"`         // auto, github or fixture
	FixturePath string `yaml:"fixture_path"` // YAML file for the fixture provider
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// TelemetryConfig selects where error/message reports go.
type TelemetryConfig struct {
	Sink        string `yaml:"sink"`         // log or journal
	JournalPath string `yaml:"journal_path"` // SQLite journal (overrides default)
}

// Page size bounds accepted by the GitHub REST API.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			DebounceMs: 500,
			TimeoutMs:  10000,
			MaxResults: 5,
			RetryLimit: 3,
		},
		Listing: ListingConfig{
			TimeoutMs:    5000,
			PageSize:     10,
			AutoRetries:  2,
			RetryDelayMs: 1000,
			RetryLimit:   3,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTLMs:    300000,
			Capacity: 256,
		},
		GitHub: GitHubConfig{
			Host: "github.com",
		},
		Provider: ProviderConfig{
			Name: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Sink: "log",
		},
	}
}

// Load loads configuration from the default path, or from GHX_CONFIG when set.
func Load() (*Config, error) {
	if p := os.Getenv("GHX_CONFIG"); p != "" {
		return LoadFromFile(p)
	}
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from a specific file and applies
// environment overrides.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ReadFromFile loads configuration from a specific file without environment
// overrides. Use it when the result is going to be saved back.
func ReadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	if p := os.Getenv("GHX_CONFIG"); p != "" {
		return c.SaveToFile(p)
	}
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
// The GitHub token is never written back; it belongs in the environment or gh's store.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.GitHub.Token = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "search":
		return c.getSearchField(field)
	case "listing":
		return c.getListingField(field)
	case "cache":
		return c.getCacheField(field)
	case "github":
		return c.getGitHubField(field)
	case "provider":
		return c.getProviderField(field)
	case "log":
		return c.getLogField(field)
	case "telemetry":
		return c.getTelemetryField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "search":
		return c.setSearchField(field, value)
	case "listing":
		return c.setListingField(field, value)
	case "cache":
		return c.setCacheField(field, value)
	case "github":
		return c.setGitHubField(field, value)
	case "provider":
		return c.setProviderField(field, value)
	case "log":
		return c.setLogField(field, value)
	case "telemetry":
		return c.setTelemetryField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getSearchField(field string) (string, error) {
	switch field {
	case "debounce_ms":
		return strconv.Itoa(c.Search.DebounceMs), nil
	case "timeout_ms":
		return strconv.Itoa(c.Search.TimeoutMs), nil
	case "max_results":
		return strconv.Itoa(c.Search.MaxResults), nil
	case "retry_limit":
		return strconv.Itoa(c.Search.RetryLimit), nil
	default:
		return "", fmt.Errorf("unknown field: search.%s", field)
	}
}

func (c *Config) setSearchField(field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer value for search.%s: %w", field, err)
	}
	switch field {
	case "debounce_ms":
		c.Search.DebounceMs = v
	case "timeout_ms":
		c.Search.TimeoutMs = v
	case "max_results":
		c.Search.MaxResults = v
	case "retry_limit":
		c.Search.RetryLimit = v
	default:
		return fmt.Errorf("unknown field: search.%s", field)
	}
	return nil
}

func (c *Config) getListingField(field string) (string, error) {
	switch field {
	case "timeout_ms":
		return strconv.Itoa(c.Listing.TimeoutMs), nil
	case "page_size":
		return strconv.Itoa(c.Listing.PageSize), nil
	case "auto_retries":
		return strconv.Itoa(c.Listing.AutoRetries), nil
	case "retry_delay_ms":
		return strconv.Itoa(c.Listing.RetryDelayMs), nil
	case "retry_limit":
		return strconv.Itoa(c.Listing.RetryLimit), nil
	default:
		return "", fmt.Errorf("unknown field: listing.%s", field)
	}
}

func (c *Config) setListingField(field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer value for listing.%s: %w", field, err)
	}
	switch field {
	case "timeout_ms":
		c.Listing.TimeoutMs = v
	case "page_size":
		c.Listing.PageSize = v
	case "auto_retries":
		c.Listing.AutoRetries = v
	case "retry_delay_ms":
		c.Listing.RetryDelayMs = v
	case "retry_limit":
		c.Listing.RetryLimit = v
	default:
		return fmt.Errorf("unknown field: listing.%s", field)
	}
	return nil
}

func (c *Config) getCacheField(field string) (string, error) {
	switch field {
	case "enabled":
		return strconv.FormatBool(c.Cache.Enabled), nil
	case "ttl_ms":
		return strconv.Itoa(c.Cache.TTLMs), nil
	case "capacity":
		return strconv.Itoa(c.Cache.Capacity), nil
	default:
		return "", fmt.Errorf("unknown field: cache.%s", field)
	}
}

func (c *Config) setCacheField(field, value string) error {
	switch field {
	case "enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}
		c.Cache.Enabled = b
	case "ttl_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}
		c.Cache.TTLMs = v
	case "capacity":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}
		c.Cache.Capacity = v
	default:
		return fmt.Errorf("unknown field: cache.%s", field)
	}
	return nil
}

func (c *Config) getGitHubField(field string) (string, error) {
	switch field {
	case "host":
		return c.GitHub.Host, nil
	case "token":
		if c.GitHub.Token == "" {
			return "", nil
		}
		return "********", nil
	default:
		return "", fmt.Errorf("unknown field: github.%s", field)
	}
}

func (c *Config) setGitHubField(field, value string) error {
	switch field {
	case "host":
		c.GitHub.Host = value
	case "token":
		return errors.New("github.token cannot be stored in the config file; use GH_TOKEN or gh auth login")
	default:
		return fmt.Errorf("unknown field: github.%s", field)
	}
	return nil
}

func (c *Config) getProviderField(field string) (string, error) {
	switch field {
	case "name":
		return c.Provider.Name, nil
	case "fixture_path":
		return c.Provider.FixturePath, nil
	default:
		return "", fmt.Errorf("unknown field: provider.%s", field)
	}
}

func (c *Config) setProviderField(field, value string) error {
	switch field {
	case "name":
		if !isValidProvider(value) {
			return fmt.Errorf("invalid provider: %s (must be auto, github, or fixture)", value)
		}
		c.Provider.Name = value
	case "fixture_path":
		c.Provider.FixturePath = value
	default:
		return fmt.Errorf("unknown field: provider.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func (c *Config) getTelemetryField(field string) (string, error) {
	switch field {
	case "sink":
		return c.Telemetry.Sink, nil
	case "journal_path":
		return c.Telemetry.JournalPath, nil
	default:
		return "", fmt.Errorf("unknown field: telemetry.%s", field)
	}
}

func (c *Config) setTelemetryField(field, value string) error {
	switch field {
	case "sink":
		if !isValidSink(value) {
			return fmt.Errorf("invalid telemetry sink: %s (must be log or journal)", value)
		}
		c.Telemetry.Sink = value
	case "journal_path":
		c.Telemetry.JournalPath = value
	default:
		return fmt.Errorf("unknown field: telemetry.%s", field)
	}
	return nil
}

// Validate checks the configuration for errors. Page sizes outside the
// API's bounds are clamped rather than rejected.
func (c *Config) Validate() error {
	if c.Search.DebounceMs < 0 {
		return errors.New("search.debounce_ms must be >= 0")
	}
	if c.Search.TimeoutMs < 0 {
		return errors.New("search.timeout_ms must be >= 0")
	}
	if c.Search.RetryLimit < 0 {
		return errors.New("search.retry_limit must be >= 0")
	}
	if c.Listing.TimeoutMs < 0 {
		return errors.New("listing.timeout_ms must be >= 0")
	}
	if c.Listing.AutoRetries < 0 {
		return errors.New("listing.auto_retries must be >= 0")
	}
	if c.Listing.RetryDelayMs < 0 {
		return errors.New("listing.retry_delay_ms must be >= 0")
	}
	if c.Listing.RetryLimit < 0 {
		return errors.New("listing.retry_limit must be >= 0")
	}
	if c.Cache.TTLMs < 0 {
		return errors.New("cache.ttl_ms must be >= 0")
	}
	if c.Cache.Capacity < 0 {
		return errors.New("cache.capacity must be >= 0")
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	if !isValidProvider(c.Provider.Name) {
		return fmt.Errorf("provider.name must be auto, github, or fixture (got: %s)", c.Provider.Name)
	}
	if c.Provider.Name == "fixture" && c.Provider.FixturePath == "" {
		return errors.New("provider.fixture_path is required when provider.name is fixture")
	}
	if !isValidSink(c.Telemetry.Sink) {
		return fmt.Errorf("telemetry.sink must be log or journal (got: %s)", c.Telemetry.Sink)
	}

	c.Search.MaxResults = clamp(c.Search.MaxResults, MinPageSize, MaxPageSize)
	c.Listing.PageSize = clamp(c.Listing.PageSize, MinPageSize, MaxPageSize)

	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidProvider(provider string) bool {
	switch provider {
	case "auto", "github", "fixture":
		return true
	default:
		return false
	}
}

func isValidSink(sink string) bool {
	switch sink {
	case "log", "journal":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GHX_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("GHX_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("GH_TOKEN"); v != "" {
		c.GitHub.Token = v
	} else if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"search.debounce_ms",
		"search.timeout_ms",
		"search.max_results",
		"search.retry_limit",
		"listing.timeout_ms",
		"listing.page_size",
		"listing.auto_retries",
		"listing.retry_delay_ms",
		"listing.retry_limit",
		"cache.enabled",
		"cache.ttl_ms",
		"cache.capacity",
		"github.host",
		"provider.name",
		"provider.fixture_path",
		"log.level",
		"log.file",
		"telemetry.sink",
		"telemetry.journal_path",
	}
}

// SearchDebounce is the quiet period before a search is issued.
func (c *Config) SearchDebounce() time.Duration { return ms(c.Search.DebounceMs) }

// SearchTimeout is the per-request search deadline.
func (c *Config) SearchTimeout() time.Duration { return ms(c.Search.TimeoutMs) }

// ListingTimeout is the per-attempt listing deadline.
func (c *Config) ListingTimeout() time.Duration { return ms(c.Listing.TimeoutMs) }

// ListingRetryDelay is the pause between automatic listing retries.
func (c *Config) ListingRetryDelay() time.Duration { return ms(c.Listing.RetryDelayMs) }

// CacheTTL is how long a cached provider response stays fresh.
func (c *Config) CacheTTL() time.Duration { return ms(c.Cache.TTLMs) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
