package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Game data configuration
	Data DataConfig `toml:"data"`

	// Game filter criteria
	Filter FilterConfig `toml:"filter"`

	// Cache configuration
	Cache CacheConfig `toml:"cache"`

	// Analysis configuration
	Analysis AnalysisConfig `toml:"analysis"`

	// Output configuration
	Output OutputConfig `toml:"output"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// DataConfig contains game data directory settings.
type DataConfig struct {
	Directory    string `toml:"directory"`     // Directory holding exported game JSON files
	Watch        bool   `toml:"watch"`         // Re-run analysis when the directory changes
	PollInterval string `toml:"poll_interval"` // Fallback polling interval (e.g., "5s")
	UseFsnotify  bool   `toml:"use_fsnotify"`  // Use file system events
}

// FilterConfig holds the criteria a game must satisfy to be analyzed.
type FilterConfig struct {
	RequiredMap         string `toml:"required_map"`          // Board name (e.g., "Tharsis")
	RequiredPlayerCount int    `toml:"required_player_count"` // Exact player count
	ColoniesMustBeOff   bool   `toml:"colonies_must_be_off"`
	CorporateEraOn      bool   `toml:"corporate_era_must_be_on"`
	DraftMustBeOn       bool   `toml:"draft_must_be_on"`
	PreludeMustBeOn     bool   `toml:"prelude_must_be_on"`
	RequireStartingHand bool   `toml:"must_include_starting_hand"`
	RequireEloThreshold bool   `toml:"players_elo_over_threshold"`
	EloThreshold        int    `toml:"elo_threshold"`
}

// CacheConfig contains settings for the filtered-game cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"` // Enable caching
	Path    string `toml:"path"`    // SQLite database path ("" = default location)
	TTL     string `toml:"ttl"`     // Cache TTL (e.g., "720h")
}

// AnalysisConfig contains analyzer settings.
type AnalysisConfig struct {
	Cards       []string `toml:"cards"`        // Cards to analyze; empty means CLI args decide
	DefaultCard string   `toml:"default_card"` // Card used when nothing else is given
	Workers     int      `toml:"workers"`      // Concurrent card analyses (0 = NumCPU)
	Progress    bool     `toml:"progress"`     // Show per-card progress bars
}

// OutputConfig contains report output settings.
type OutputConfig struct {
	Directory     string `toml:"directory"`      // Analysis output directory
	SummaryPrefix string `toml:"summary_prefix"` // Prefix for summary CSV files
	Charts        bool   `toml:"charts"`         // Render HTML charts alongside reports
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Directory:    "",
			Watch:        false,
			PollInterval: "5s",
			UseFsnotify:  true,
		},
		Filter: FilterConfig{
			RequiredMap:         "Tharsis",
			RequiredPlayerCount: 2,
			ColoniesMustBeOff:   true,
			CorporateEraOn:      true,
			DraftMustBeOn:       true,
			PreludeMustBeOn:     true,
			RequireStartingHand: true,
			RequireEloThreshold: false,
			EloThreshold:        300,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "",
			TTL:     "720h",
		},
		Analysis: AnalysisConfig{
			Cards:       nil,
			DefaultCard: "Acquired Company",
			Workers:     0,
			Progress:    true,
		},
		Output: OutputConfig{
			Directory:     "analysis_output",
			SummaryPrefix: "card_summary",
			Charts:        true,
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".card-tracker")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path. Returns default
// config if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Data.PollInterval); err != nil {
		return fmt.Errorf("invalid poll interval %q: %w", c.Data.PollInterval, err)
	}

	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
	}

	if c.Filter.RequiredPlayerCount < 1 {
		return fmt.Errorf("required player count must be positive: %d", c.Filter.RequiredPlayerCount)
	}

	if c.Filter.EloThreshold < 0 {
		return fmt.Errorf("elo threshold cannot be negative: %d", c.Filter.EloThreshold)
	}

	if c.Analysis.Workers < 0 {
		return fmt.Errorf("workers cannot be negative: %d", c.Analysis.Workers)
	}

	return nil
}

// GetPollInterval returns the data directory poll interval as a duration.
func (c *Config) GetPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Data.PollInterval)
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}
