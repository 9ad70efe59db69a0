// Package config loads the formapp configuration file. Files may be JSON or
// YAML; JSON is tried first.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formapp/internal/logging"
)

// Session store drivers.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config is the full command configuration. Command-line flags override it.
type Config struct {
	// BaseURL resolves relative form paths against a remote origin.
	BaseURL string `json:"baseURL" yaml:"baseURL"`
	// FormsDir serves relative form paths from a directory instead of the
	// working directory.
	FormsDir string `json:"formsDir" yaml:"formsDir"`
	// EncountersDir holds <id>.json encounter records for the MSF bridge.
	EncountersDir  string        `json:"encountersDir" yaml:"encountersDir"`
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"`

	Session    SessionConfig    `json:"session" yaml:"session"`
	Automation AutomationConfig `json:"automation" yaml:"automation"`
	Serve      ServeConfig      `json:"serve" yaml:"serve"`
	Log        logging.Config   `json:"log" yaml:"log"`
}

// SessionConfig selects where launch slots live.
type SessionConfig struct {
	Driver    string        `json:"driver" yaml:"driver"`
	Addr      string        `json:"addr" yaml:"addr"`
	Password  string        `json:"password" yaml:"password"`
	DB        int           `json:"db" yaml:"db"`
	KeyPrefix string        `json:"keyPrefix" yaml:"keyPrefix"`
	TTL       time.Duration `json:"ttl" yaml:"ttl"`
}

// AutomationConfig points at the test-automation script.
type AutomationConfig struct {
	Script  string        `json:"script" yaml:"script"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ServeConfig configures the HTTP surface.
type ServeConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		Session: SessionConfig{
			Driver:    SessionMemory,
			Addr:      "localhost:6379",
			KeyPrefix: "formapp:session:",
		},
		Automation: AutomationConfig{Timeout: 5 * time.Second},
		Log:        logging.DefaultConfig(),
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes data over the defaults. source names the document in errors.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = Default()
		if yerr := yaml.Unmarshal(data, &cfg); yerr != nil {
			return Config{}, fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return cfg, nil
}

// Validate rejects settings that cannot be honoured.
func (c Config) Validate() error {
	var errs []error
	switch c.Session.Driver {
	case "", SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(c.Session.Addr) == "" {
			errs = append(errs, errors.New("session.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session driver %q", c.Session.Driver))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("requestTimeout must not be negative"))
	}
	if c.Automation.Timeout < 0 {
		errs = append(errs, errors.New("automation.timeout must not be negative"))
	}
	return errors.Join(errs...)
}
