package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	serrors "github.com/hpungsan/starship/internal/errors"
)

// RootEnv names the environment variable holding the storage root.
const RootEnv = "HEAVEN_DATA_DIR"

// Registry backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	// Root is the storage root. Resolved from HEAVEN_DATA_DIR, never from the file.
	Root string `json:"-"`

	// RegistryBackend selects the key-value registry implementation: "json" or "sqlite".
	RegistryBackend string `json:"registry_backend,omitempty"`

	// FlyPageSize is how many flight configs fly shows per page.
	FlyPageSize int `json:"fly_page_size,omitempty"`

	// DefaultCategory is used when add_flight_config omits a category.
	DefaultCategory string `json:"default_category,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RegistryBackend: BackendJSON,
		FlyPageSize:     5,
		DefaultCategory: "general",
		LogLevel:        "info",
	}
}

// ResolveRoot returns the storage root from HEAVEN_DATA_DIR.
// There is no fallback: a missing variable is a CONFIGURATION_ERROR.
func ResolveRoot() (string, error) {
	root := strings.TrimSpace(os.Getenv(RootEnv))
	if root == "" {
		return "", serrors.NewConfiguration(RootEnv + " environment variable must be set")
	}
	return root, nil
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, "starship", "config.json")
}

// Load resolves the storage root and loads root/starship/config.json.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	root, err := ResolveRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom loads configuration for an explicit storage root.
// The root parameter allows tests to use t.TempDir().
func LoadFrom(root string) (*Config, error) {
	raw, err := loadFileRaw(Path(root))
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), raw)
	cfg.Root = root
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.RegistryBackend {
	case BackendJSON, BackendSQLite:
	default:
		return serrors.NewConfiguration("registry_backend must be one of: json, sqlite")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return serrors.NewConfiguration("log_level must be one of: debug, info, warn, error")
	}
	if c.FlyPageSize < 0 {
		return serrors.NewConfiguration("fly_page_size must not be negative")
	}
	return nil
}

// SlogLevel returns the configured slog level (info if unset).
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// loadFileRaw loads configuration from a specific file path.
// The file may contain comments and trailing commas.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, serrors.NewConfiguration("reading " + configPath + ": " + err.Error())
	}

	cfg := &Config{}
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, serrors.NewConfiguration("parsing " + configPath + ": " + err.Error())
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{Root: base.Root}
	if overlay.Root != "" {
		result.Root = overlay.Root
	}

	result.RegistryBackend = pick(overlay.RegistryBackend, base.RegistryBackend)
	result.DefaultCategory = pick(overlay.DefaultCategory, base.DefaultCategory)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)

	result.FlyPageSize = overlay.FlyPageSize
	if result.FlyPageSize == 0 {
		result.FlyPageSize = base.FlyPageSize
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pick(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
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
