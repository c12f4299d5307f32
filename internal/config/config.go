package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tenchan000517/novel-sub005/internal/config/loader"
)

// EnvPrefix is shared by all configuration environment variables.
const EnvPrefix = "NOVELSUB_"

// Config provides layered access to the pipeline configuration.
type Config struct {
	mu sync.RWMutex

	path string

	defaults  map[string]any
	file      map[string]any
	env       map[string]any
	overrides map[string]any
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the TOML file to load. The default is
// config.toml under the user config directory.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// New creates a Config holding only the defaults. Call Load to pull
// in the file and environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		defaults:  defaultConfig(),
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.path == "" {
		c.path = defaultConfigPath()
	}
	return c
}

// Load reads the TOML file and the environment. A missing file is not
// an error; the defaults stay in place.
func (c *Config) Load(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := loader.NewTOMLLoader(c.path).Load()
	if err != nil {
		return fmt.Errorf("loading %s: %w", c.path, err)
	}
	c.file = file

	env, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return err
	}
	c.env = env
	return nil
}

// Path returns the config file path in effect.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Get returns the value at a dot-separated path from the merged
// configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged(), path)
}

// Set writes a value into the override layer, above every other
// source.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.overrides, path, value)
}

// merged flattens the layers, later layers winning. Callers hold mu.
func (c *Config) merged() map[string]any {
	out := loader.Clone(c.defaults)
	out = loader.DeepMerge(out, c.file)
	out = loader.DeepMerge(out, c.env)
	out = loader.DeepMerge(out, c.overrides)
	return out
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetFloat returns a float value at the given path.
func (c *Config) GetFloat(path string) (float64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "float", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration value at the given path. TOML files
// spell durations as strings ("50ms"); the environment loader hands
// them over already parsed.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: "string"}
		}
		return d, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

func (c *Config) getStringOr(path, def string) string {
	if v, err := c.GetString(path); err == nil {
		return v
	}
	return def
}

func (c *Config) getIntOr(path string, def int) int {
	if v, err := c.GetInt(path); err == nil {
		return v
	}
	return def
}

func (c *Config) getFloatOr(path string, def float64) float64 {
	if v, err := c.GetFloat(path); err == nil {
		return v
	}
	return def
}

func (c *Config) getBoolOr(path string, def bool) bool {
	if v, err := c.GetBool(path); err == nil {
		return v
	}
	return def
}

func (c *Config) getDurationOr(path string, def time.Duration) time.Duration {
	if v, err := c.GetDuration(path); err == nil {
		return v
	}
	return def
}

// defaultConfigPath returns the standard config file location.
func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "novelsub", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "novelsub", "config.toml")
}

// defaultConfig returns the built-in defaults.
func defaultConfig() map[string]any {
	return map[string]any{
		"bus": map[string]any{
			"loopThreshold": 100,
			"loopWindow":    "5s",
			"strictLoops":   false,
		},
		"storage": map[string]any{
			"path": "",
		},
		"cascade": map[string]any{
			"mutualSync":    true,
			"mutualRatio":   0.8,
			"retryAttempts": 3,
			"retryDelay":    "50ms",
		},
		"memory": map[string]any{
			"poolSize": 8,
		},
		"ai": map[string]any{
			"enabled":   false,
			"provider":  "anthropic",
			"model":     "",
			"maxTokens": 2048,
		},
		"logging": map[string]any{
			"level":      "info",
			"format":     "text",
			"file":       "",
			"maxSize":    10,
			"maxBackups": 5,
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated
// path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath sets a value in a nested map, creating intermediate maps as
// needed.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return ErrInvalidPath
		}
		current = nextMap
	}
	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path, dropping empty segments.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return "unknown"
	}
}
