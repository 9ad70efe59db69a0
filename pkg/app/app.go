package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	internalLoader "github.com/goliatone/go-formapp/internal/formfile/loader"
	"github.com/goliatone/go-formapp/pkg/bridge"
	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/formfile"
	"github.com/goliatone/go-formapp/pkg/metrics"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/services"
	"github.com/goliatone/go-formapp/pkg/session"
)

const defaultRequestTimeout = 30 * time.Second

// App coordinates the lifecycle of one form session. A zero App is not
// usable; construct one with New.
type App struct {
	bus            *events.Bus
	logger         zerolog.Logger
	store          session.Store
	params         session.Params
	launchURL      string
	hasLaunchURL   bool
	bridge         bridge.Bridge
	loader         formfile.Loader
	resolve        formfile.ResolveOptions
	registry       *services.Registry
	automation     ScriptRunner
	automationPath string
	metrics        *metrics.Recorder
	now            func() time.Time

	obs model.ObsList

	mu          sync.Mutex
	state       State
	started     bool
	closed      bool
	deviceReady bool
	pageShown   bool
	initialized bool
	backHooked  bool
	timing      map[events.Name]time.Time
	durations   map[events.Name]time.Duration
	summarized  time.Time
	names       map[string]struct{}
	subs        []*events.Subscription
	form        *model.FormModel
	encounter   *model.Encounter
	err         error
	entered     chan struct{}
	enterOnce   sync.Once
}

// New constructs an App. Missing dependencies fall back to a private bus,
// an in-memory session store and a loader for local files and HTTP.
func New(options ...Option) *App {
	a := &App{
		logger:  zerolog.Nop(),
		now:     time.Now,
		timing:  make(map[events.Name]time.Time),
		names:   make(map[string]struct{}),
		entered: make(chan struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	a.applyDefaults()
	return a
}

func (a *App) applyDefaults() {
	if a.bus == nil {
		a.bus = events.NewBus(events.WithClock(a.now))
	}
	if a.store == nil {
		a.store = session.NewMemoryStore(nil)
	}
	if a.loader == nil {
		a.loader = internalLoader.New(formfile.NewLoaderOptions(
			formfile.WithHTTPFallback(defaultRequestTimeout),
		))
	}
	if a.registry == nil {
		a.registry = services.NewRegistry()
	}
	if a.hasLaunchURL {
		params, err := session.ParseLaunchURL(a.launchURL)
		if err != nil {
			a.logger.Warn().Err(err).Str("url", a.launchURL).Msg("ignoring launch URL")
		}
		a.params = params
	}
}

// Start validates the capability registry, installs the timing loggers and
// the phase handlers, and begins waiting for readiness. Calling Start again
// is a no-op.
func (a *App) Start(ctx context.Context) error {
	if err := a.registry.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	if a.closed {
		a.mu.Unlock()
		return errors.New("app: closed")
	}
	a.started = true
	pending := a.deviceReady || a.pageShown
	a.mu.Unlock()

	a.hold(
		a.bus.OnAllAfter(a.recordTiming),
		a.bus.OnAllAfter(a.summarizeTiming),
		a.bus.On(events.LibrariesInitialized, a.onLibrariesInitialized),
		a.bus.On(events.LoadDataComplete, a.onLoadDataComplete),
		a.bus.On(events.CheckLibrariesInitialized, a.checkLibrariesInitialized),
	)

	if pending {
		a.bus.Emit(ctx, events.CheckLibrariesInitialized)
	}
	return nil
}

// DeviceReady reports that the host platform finished starting. Only the
// first call counts.
func (a *App) DeviceReady(ctx context.Context) {
	a.signal(ctx, &a.deviceReady)
}

// PageShown reports that the loading page is visible. Only the first call
// counts.
func (a *App) PageShown(ctx context.Context) {
	a.signal(ctx, &a.pageShown)
}

func (a *App) signal(ctx context.Context, flag *bool) {
	a.mu.Lock()
	if *flag {
		a.mu.Unlock()
		return
	}
	*flag = true
	started := a.started
	a.mu.Unlock()

	if started {
		a.bus.Emit(ctx, events.CheckLibrariesInitialized)
	}
}

func (a *App) checkLibrariesInitialized(ctx context.Context, _ events.Event) {
	a.mu.Lock()
	ready := a.deviceReady && a.pageShown && !a.initialized
	if ready {
		a.initialized = true
	}
	a.mu.Unlock()

	if ready {
		a.bus.Emit(ctx, events.LibrariesInitialized)
	}
}

func (a *App) onLibrariesInitialized(ctx context.Context, _ events.Event) {
	a.mu.Lock()
	a.state = StateLibrariesInitialized
	a.backHooked = !a.closed
	a.mu.Unlock()

	steps := []struct {
		name events.Name
		run  func(context.Context) error
	}{
		{events.InitPageClasses, nil},
		{events.RegisterServices, a.registerServices},
		{events.InitServices, nil},
		{events.InitViewClasses, nil},
	}
	for _, step := range steps {
		if err := a.phase(ctx, step.name, step.run); err != nil {
			a.fail(err)
			return
		}
	}

	a.bus.Emit(ctx, events.LoadData)
	if err := a.LoadData(ctx); err != nil {
		a.fail(err)
	}
}

func (a *App) registerServices(ctx context.Context) error {
	for _, name := range a.registry.Ordered() {
		svc, err := a.registry.Get(name)
		if err != nil {
			return err
		}
		if err := a.RegisterService(ctx, name, svc); err != nil {
			return err
		}
	}
	return nil
}

// RegisterService relays every event svc publishes onto the application bus
// as "<name>:<event>" and, when svc is an Initializer, binds its Initialize
// to the next initServices phase. A service registered after that phase ran
// is never initialised.
func (a *App) RegisterService(ctx context.Context, name string, svc services.Service) error {
	key := strings.TrimSpace(name)
	if key == "" {
		return errors.New("app: service name is required")
	}
	if svc == nil || svc.Events() == nil {
		return fmt.Errorf("app: service %q has no event bus", key)
	}

	a.mu.Lock()
	if _, exists := a.names[key]; exists {
		a.mu.Unlock()
		return fmt.Errorf("app: service %q already registered", key)
	}
	a.names[key] = struct{}{}
	a.mu.Unlock()

	a.hold(events.Relay(svc.Events(), a.bus, key))

	if init, ok := svc.(services.Initializer); ok {
		a.hold(a.bus.Once(events.InitServices, func(ctx context.Context, _ events.Event) {
			if err := init.Initialize(ctx); err != nil {
				a.logger.Error().Err(err).Str("service", key).Msg("service initialisation failed")
			}
		}))
	}

	svc.Events().Emit(ctx, events.Registered)
	return nil
}

func (a *App) onLoadDataComplete(ctx context.Context, ev events.Event) {
	raw, err := documentBytes(ev.Arg(0))
	if err == nil {
		err = a.buildForm(ctx, raw)
	}
	if err != nil {
		a.fail(err)
	}
}

func (a *App) buildForm(ctx context.Context, raw []byte) error {
	form, err := model.NewFormModel(raw)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if len(form.IgnoredGlobal) > 0 {
		a.logger.Warn().Strs("categories", form.IgnoredGlobal).Msg("global categories are not objects; defaults kept")
	}

	a.bus.Emit(ctx, events.SetFormModel, form)
	a.mu.Lock()
	a.form = form
	a.mu.Unlock()
	a.bus.Emit(ctx, events.SetFormModelComplete, form)

	pages := a.registry.Pages()
	views := a.registry.Views()
	obs := a.registry.Obs()

	steps := []struct {
		name events.Name
		run  func(context.Context) error
	}{
		{events.SetPageModels, func(ctx context.Context) error { return pages.SetPageModels(ctx, form.Pages) }},
		{events.RenderPages, pages.RenderPages},
		{events.DecoratePages, pages.DecoratePages},
		{events.RegisterViews, func(ctx context.Context) error { return views.RegisterViews(ctx, form) }},
		{events.InitializeObs, func(ctx context.Context) error { return obs.InitializeValues(ctx, a.obs.All()) }},
		{events.AfterDecoratePages, pages.AfterDecoratePages},
	}
	for _, step := range steps {
		if err := a.phase(ctx, step.name, step.run); err != nil {
			return err
		}
	}

	a.bus.Emit(ctx, events.EnterForm)
	if err := pages.SetActivePageIndex(ctx, 0); err != nil {
		return fmt.Errorf("app: %s: %w", events.EnterForm, err)
	}
	a.mu.Lock()
	a.state = StateEntered
	a.mu.Unlock()
	a.bus.Emit(ctx, events.EnterFormComplete)
	a.enterOnce.Do(func() { close(a.entered) })
	return nil
}

// phase brackets run with name and its Complete event. A failing run stops
// the chain before the Complete event.
func (a *App) phase(ctx context.Context, name events.Name, run func(context.Context) error) error {
	a.bus.Emit(ctx, name)
	if run != nil {
		if err := run(ctx); err != nil {
			return fmt.Errorf("app: %s: %w", name, err)
		}
	}
	a.bus.Emit(ctx, name.Complete())
	return nil
}

func (a *App) fail(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
	a.logger.Error().Err(err).Str("state", a.State().String()).Msg("lifecycle stopped")
}

// BackButton forwards a hardware back press as a backbutton event. Presses
// before the libraries are initialised or after Close are dropped.
func (a *App) BackButton(ctx context.Context) bool {
	a.mu.Lock()
	hooked := a.backHooked
	a.mu.Unlock()
	if hooked {
		a.bus.Emit(ctx, events.BackButton)
	}
	return hooked
}

// Close unhooks the back button and drops every subscription the app holds.
func (a *App) Close() {
	a.mu.Lock()
	a.closed = true
	a.backHooked = false
	subs := a.subs
	a.subs = nil
	a.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func (a *App) hold(subs ...*events.Subscription) {
	a.mu.Lock()
	a.subs = append(a.subs, subs...)
	a.mu.Unlock()
}

// Bus returns the application bus.
func (a *App) Bus() *events.Bus { return a.bus }

// Obs returns the observation list seeded from the encounter.
func (a *App) Obs() *model.ObsList { return &a.obs }

// Entered is closed once the first page of the form has been entered.
func (a *App) Entered() <-chan struct{} { return a.entered }

// State reports the lifecycle position.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Form returns the installed form model, or nil before setFormModel.
func (a *App) Form() *model.FormModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// Encounter returns the encounter fetched over the bridge, if any.
func (a *App) Encounter() *model.Encounter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.encounter
}

// Err returns the error that stopped the lifecycle, if any.
func (a *App) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
