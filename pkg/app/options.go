package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formapp/pkg/bridge"
	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/formfile"
	"github.com/goliatone/go-formapp/pkg/metrics"
	"github.com/goliatone/go-formapp/pkg/services"
	"github.com/goliatone/go-formapp/pkg/session"
)

// ScriptRunner runs the test-automation script when test iterations remain.
type ScriptRunner interface {
	RunFile(ctx context.Context, path string) error
}

// Option customises the application.
type Option func(*App)

// WithBus publishes lifecycle events on bus instead of a private one.
func WithBus(bus *events.Bus) Option {
	return func(a *App) {
		a.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSession sets the store holding the launch slots.
func WithSession(store session.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithBridge sets the native bridge used to fetch encounters.
func WithBridge(b bridge.Bridge) Option {
	return func(a *App) {
		a.bridge = b
	}
}

// WithLoader injects a custom form loader.
func WithLoader(loader formfile.Loader) Option {
	return func(a *App) {
		a.loader = loader
	}
}

// WithResolveOptions controls how formFilePath maps to a source.
func WithResolveOptions(opts formfile.ResolveOptions) Option {
	return func(a *App) {
		a.resolve = opts
	}
}

// WithServices supplies the capability registry.
func WithServices(registry *services.Registry) Option {
	return func(a *App) {
		a.registry = registry
	}
}

// WithAutomation loads the script at path through runner when the
// testIterationsRemaining slot is positive.
func WithAutomation(runner ScriptRunner, path string) Option {
	return func(a *App) {
		a.automation = runner
		a.automationPath = path
	}
}

// WithMetrics records event counts and phase durations.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(a *App) {
		a.metrics = recorder
	}
}

// WithLaunchURL reads query parameters from the URL the app was opened with.
// The URL is parsed once every option has been applied; an unparseable URL
// is logged and leaves the parameters empty.
func WithLaunchURL(raw string) Option {
	return func(a *App) {
		a.launchURL = raw
		a.hasLaunchURL = true
	}
}

// WithParams sets the launch query parameters directly, replacing an earlier
// WithLaunchURL.
func WithParams(params session.Params) Option {
	return func(a *App) {
		a.params = params
		a.hasLaunchURL = false
	}
}

// WithClock overrides the time source of the private bus and load timers.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}
