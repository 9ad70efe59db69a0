// Package bridge models the native bridge the form application calls into for
// device-side data such as saved encounters. Calls are addressed by a service
// name and an action, mirroring the plugin facilities of hybrid runtimes.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownService is returned when no plugin is registered for a service.
	ErrUnknownService = errors.New("bridge: unknown service")
	// ErrUnknownAction is returned by plugins for actions they do not implement.
	ErrUnknownAction = errors.New("bridge: unknown action")
)

// Bridge executes a native action and returns its JSON result.
type Bridge interface {
	Exec(ctx context.Context, service, action string, args ...any) (json.RawMessage, error)
}

// Plugin serves every action of one bridge service.
type Plugin interface {
	Name() string
	Exec(ctx context.Context, action string, args []any) (json.RawMessage, error)
}

// Func adapts a function into a Bridge.
type Func func(ctx context.Context, service, action string, args ...any) (json.RawMessage, error)

// Exec calls fn.
func (fn Func) Exec(ctx context.Context, service, action string, args ...any) (json.RawMessage, error) {
	return fn(ctx, service, action, args...)
}

// Registry dispatches bridge calls to plugins by service name.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

var _ Bridge = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin by its Name(). Duplicate names return an error.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return errors.New("bridge: plugin is required")
	}
	name := strings.TrimSpace(plugin.Name())
	if name == "" {
		return errors.New("bridge: plugin name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("bridge: plugin %q already registered", name)
	}
	r.plugins[name] = plugin
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(plugin Plugin) {
	if err := r.Register(plugin); err != nil {
		panic(err)
	}
}

// List returns the sorted plugin names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exec routes the call to the plugin registered for service.
func (r *Registry) Exec(ctx context.Context, service, action string, args ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	plugin, ok := r.plugins[service]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	out, err := plugin.Exec(ctx, action, args)
	if err != nil {
		return nil, fmt.Errorf("bridge: %s.%s: %w", service, action, err)
	}
	return out, nil
}
