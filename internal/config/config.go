package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"groceries-cli/internal/attach"
)

type Config struct {
	// APIBaseURL overrides the default API location. --api and GROCERIES_API win over it.
	APIBaseURL string `json:"apiBaseURL,omitempty"`

	// Format is the default CLI output format ("json", "edn", "table").
	Format string `json:"format,omitempty"`

	// Order is how attachable lists are presented ("name" or "catalog").
	Order string `json:"order,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is "auto", "light" or "dark".
	Theme string `json:"theme,omitempty"`
}

func ConfigDir() (string, error) {
	// Keeps unit tests from touching ~/.groceries.
	if v := strings.TrimSpace(os.Getenv("GROCERIES_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".groceries"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load returns an empty config when no file exists yet.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// AtomicWriteFile writes b next to path and renames it into place.
func AtomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Previous contents go to config.json.bak; failures here are ignored.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = AtomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return AtomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{"apiBaseURL", "format", "order", "tui.theme"}
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "apiBaseURL":
		return c.APIBaseURL, nil
	case "format":
		return c.Format, nil
	case "order":
		return c.Order, nil
	case "tui.theme":
		if c.TUI == nil {
			return "", nil
		}
		return c.TUI.Theme, nil
	default:
		return "", unknownKeyError(key)
	}
}

// Set validates and stores value under key. An empty value clears the key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "apiBaseURL":
		c.APIBaseURL = value
	case "format":
		switch value {
		case "", "json", "edn", "table":
		default:
			return fmt.Errorf("invalid format %q (expected json|edn|table)", value)
		}
		c.Format = value
	case "order":
		if _, err := attach.ParseOrder(value); err != nil {
			return err
		}
		c.Order = value
	case "tui.theme":
		switch value {
		case "", "auto", "light", "dark":
		default:
			return fmt.Errorf("invalid theme %q (expected auto|light|dark)", value)
		}
		if c.TUI == nil {
			c.TUI = &TUIConfig{}
		}
		c.TUI.Theme = value
		if value == "" {
			c.TUI = nil
		}
	default:
		return unknownKeyError(key)
	}
	return nil
}

// Map flattens the config into key -> value for display.
func (c *Config) Map() map[string]string {
	out := map[string]string{}
	for _, k := range Keys() {
		v, _ := c.Get(k)
		out[k] = v
	}
	return out
}

func unknownKeyError(key string) error {
	keys := Keys()
	sort.Strings(keys)
	return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(keys, ", "))
}
