// Package automation runs test-automation scripts against a live application.
// Scripts are JavaScript executed by goja and see three globals: formApp
// (on, once, trigger), sessionStorage (getItem, setItem, removeItem) and
// console (log).
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/session"
)

// DefaultTimeout bounds every script run and callback invocation.
const DefaultTimeout = 5 * time.Second

// allEvents subscribes a callback to every event, receiving the name first.
const allEvents = "all"

// ErrTimeout is returned when a script is interrupted for running too long.
var ErrTimeout = errors.New("automation: execution timeout")

// Option customises a Runner.
type Option func(*Runner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger receiving console.log output and callback errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

type pendingEvent struct {
	name events.Name
	args []any
}

// Runner owns one goja runtime bound to an event bus and a session store.
// Calls into the runtime are serialised. Events triggered from script code
// are published once the current call returns.
type Runner struct {
	bus     *events.Bus
	store   session.Store
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	vm      *goja.Runtime
	ctx     context.Context
	pending []pendingEvent
	subs    []*events.Subscription
	logs    []string
	closed  bool
}

// New creates a runner publishing on bus and reading sessionStorage from store.
func New(bus *events.Bus, store session.Store, opts ...Option) *Runner {
	if store == nil {
		store = session.NewMemoryStore(nil)
	}
	r := &Runner{
		bus:     bus,
		store:   store,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
		vm:      goja.New(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.install()
	return r
}

// RunFile reads and runs the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("automation: read %s: %w", path, err)
	}
	return r.Run(ctx, path, string(src))
}

// Run executes src. name is used in stack traces.
func (r *Runner) Run(ctx context.Context, name, src string) error {
	err := r.call(ctx, func() error {
		_, err := r.vm.RunScript(name, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("automation: run %s: %w", name, err)
	}
	return nil
}

// Logs returns the lines written with console.log so far.
func (r *Runner) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

// Close cancels every subscription made by scripts. Later events no longer
// reach script callbacks.
func (r *Runner) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.closed = true
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}
}

func (r *Runner) call(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	r.ctx = ctx
	timer := time.AfterFunc(r.timeout, func() {
		r.vm.Interrupt(ErrTimeout)
	})
	stop := context.AfterFunc(ctx, func() {
		r.vm.Interrupt(ctx.Err())
	})
	err := fn()
	timer.Stop()
	stop()
	r.vm.ClearInterrupt()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			err = cause
		}
	}

	for _, ev := range pending {
		r.bus.Emit(ctx, ev.name, ev.args...)
	}
	return err
}

func (r *Runner) install() {
	vm := r.vm

	formApp := vm.NewObject()
	_ = formApp.Set("on", func(call goja.FunctionCall) goja.Value {
		r.subscribe(call, false)
		return goja.Undefined()
	})
	_ = formApp.Set("once", func(call goja.FunctionCall) goja.Value {
		r.subscribe(call, true)
		return goja.Undefined()
	})
	_ = formApp.Set("trigger", func(call goja.FunctionCall) goja.Value {
		name := eventName(call)
		if name == "" {
			panic(vm.NewTypeError("formApp.trigger: event name is required"))
		}
		args := make([]any, 0, len(call.Arguments)-1)
		for _, arg := range call.Arguments[1:] {
			args = append(args, arg.Export())
		}
		r.pending = append(r.pending, pendingEvent{name: events.Name(name), args: args})
		return goja.Undefined()
	})
	_ = vm.Set("formApp", formApp)

	storage := vm.NewObject()
	_ = storage.Set("getItem", func(call goja.FunctionCall) goja.Value {
		value, err := r.store.Get(r.ctx, call.Argument(0).String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		if value == "" {
			return goja.Null()
		}
		return vm.ToValue(value)
	})
	_ = storage.Set("setItem", func(call goja.FunctionCall) goja.Value {
		if err := r.store.Set(r.ctx, call.Argument(0).String(), call.Argument(1).String()); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	_ = storage.Set("removeItem", func(call goja.FunctionCall) goja.Value {
		if err := r.store.Delete(r.ctx, call.Argument(0).String()); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	_ = vm.Set("sessionStorage", storage)

	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = fmt.Sprint(arg.Export())
		}
		line := strings.Join(parts, " ")
		r.logs = append(r.logs, line)
		r.logger.Info().Str("source", "script").Msg(line)
		return goja.Undefined()
	})
	_ = vm.Set("console", console)
}

// eventName returns the first argument as a string, or "" when it is missing.
func eventName(call goja.FunctionCall) string {
	first := call.Argument(0)
	if goja.IsUndefined(first) || goja.IsNull(first) {
		return ""
	}
	return first.String()
}

// subscribe runs inside a script call, so r.mu is already held.
func (r *Runner) subscribe(call goja.FunctionCall, once bool) {
	vm := r.vm
	name := eventName(call)
	fn, ok := goja.AssertFunction(call.Argument(1))
	if name == "" || !ok {
		panic(vm.NewTypeError("formApp.on: expected an event name and a callback"))
	}
	if r.closed || r.bus == nil {
		return
	}

	handler := func(ctx context.Context, ev events.Event) {
		err := r.call(ctx, func() error {
			args := make([]goja.Value, 0, len(ev.Args)+1)
			if name == allEvents {
				args = append(args, vm.ToValue(ev.Name.String()))
			}
			for _, arg := range ev.Args {
				args = append(args, vm.ToValue(arg))
			}
			_, err := fn(goja.Undefined(), args...)
			return err
		})
		if err != nil {
			r.logger.Error().Err(err).Str("event", ev.Name.String()).Msg("script callback failed")
		}
	}

	var sub *events.Subscription
	switch {
	case name == allEvents:
		sub = r.bus.OnAll(handler)
	case once:
		sub = r.bus.Once(events.Name(name), handler)
	default:
		sub = r.bus.On(events.Name(name), handler)
	}
	r.subs = append(r.subs, sub)
}
