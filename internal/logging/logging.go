// Package logging builds the zerolog logger used by the command and handed
// to every library package.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment overrides, applied after the config file.
const (
	EnvLogLevel   = "FORMAPP_LOG_LEVEL"
	EnvLogFormat  = "FORMAPP_LOG_FORMAT"
	EnvLogNoColor = "FORMAPP_LOG_NOCOLOR"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects the level and shape of log output.
type Config struct {
	Level   string `json:"level" yaml:"level"`
	Format  string `json:"format" yaml:"format"`
	NoColor bool   `json:"noColor" yaml:"noColor"`
}

// DefaultConfig logs at info level to a console writer.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatConsole}
}

// ApplyEnv overlays the FORMAPP_LOG_* variables read through getenv.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvLogFormat)); v != "" {
		c.Format = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(getenv(EnvLogNoColor))); err == nil {
		c.NoColor = v
	}
	return c
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to out tagged with app.
func New(app string, cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}
