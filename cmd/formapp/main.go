package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	formapp "github.com/goliatone/go-formapp"
	"github.com/goliatone/go-formapp/internal/config"
	"github.com/goliatone/go-formapp/internal/logging"
	"github.com/goliatone/go-formapp/internal/prompt"
	"github.com/goliatone/go-formapp/pkg/app"
	"github.com/goliatone/go-formapp/pkg/automation"
	"github.com/goliatone/go-formapp/pkg/bridge"
	"github.com/goliatone/go-formapp/pkg/bridge/msf"
	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/formfile"
	"github.com/goliatone/go-formapp/pkg/metrics"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/session"
)

type options struct {
	configPath  string
	launchURL   string
	formPath    string
	encounter   string
	encounters  string
	baseURL     string
	output      string
	interactive bool
	serveAddr   string
	logLevel    string
	script      string
	iterations  int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "configuration file (JSON or YAML)")
	flag.StringVar(&opts.launchURL, "url", "", "launch URL whose query carries encounter and formFilePath")
	flag.StringVar(&opts.formPath, "form", "", "form file path stored in the formFilePath session slot")
	flag.StringVar(&opts.encounter, "encounter", "", "encounter id stored in the encounter session slot")
	flag.StringVar(&opts.encounters, "encounters", "", "directory of <id>.json encounter records")
	flag.StringVar(&opts.baseURL, "base-url", "", "origin relative form paths are fetched from")
	flag.StringVar(&opts.output, "out", "", "output file for the rendered form (stdout if empty)")
	flag.BoolVar(&opts.interactive, "interactive", false, "prompt for a missing form path or encounter")
	flag.StringVar(&opts.serveAddr, "serve", "", "serve the entered form on this address instead of printing it")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	flag.StringVar(&opts.script, "automation", "", "test-automation script run while test iterations remain")
	flag.IntVar(&opts.iterations, "iterations", 0, "value stored in the testIterationsRemaining session slot")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "formapp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, opts)

	logger := logging.New("formapp", cfg.Log.ApplyEnv(os.Getenv), os.Stderr)
	if opts.logLevel != "" {
		logger = logger.Level(logging.ParseLevel(opts.logLevel))
	}
	// Every line of one form session carries the same run id.
	logger = logger.With().Str("run", uuid.NewString()).Logger()

	store, err := openSession(ctx, cfg.Session, logger)
	if err != nil {
		return err
	}

	if opts.interactive && opts.formPath == "" && opts.launchURL == "" {
		launch, err := prompt.AskLaunch(ctx, prompt.NewSurveyDriver(), prompt.Launch{
			Encounter: opts.encounter,
		}, prompt.Choices{
			Encounters: listRecords(cfg.EncountersDir),
			Forms:      listForms(cfg.FormsDir),
		})
		if err != nil {
			return err
		}
		opts.formPath, opts.encounter = launch.FormPath, launch.Encounter
	}
	if err := seedSession(ctx, store, opts); err != nil {
		return err
	}

	svcs, err := formapp.NewServices(logger)
	if err != nil {
		return err
	}
	bus := events.NewBus()
	bus.On(events.SetFormModelComplete, func(_ context.Context, ev events.Event) {
		if form, ok := ev.Arg(0).(*model.FormModel); ok {
			svcs.Pages.SetTitle(form.NameReadable)
		}
	})

	loaderOpts := []formfile.LoaderOption{formfile.WithHTTPFallback(cfg.RequestTimeout)}
	if cfg.FormsDir != "" {
		loaderOpts = append(loaderOpts, formfile.WithFileSystem(os.DirFS(cfg.FormsDir)))
	}

	bridges := bridge.NewRegistry()
	if cfg.EncountersDir != "" {
		bridges.MustRegister(msf.New(os.DirFS(cfg.EncountersDir)))
	}

	recorder := metrics.New(metrics.WithRuntimeCollectors())
	appOpts := []app.Option{
		app.WithBus(bus),
		app.WithLogger(logger),
		app.WithSession(store),
		app.WithBridge(bridges),
		app.WithLoader(formapp.NewFormLoader(loaderOpts...)),
		app.WithResolveOptions(formfile.ResolveOptions{BaseURL: cfg.BaseURL, UseFS: cfg.FormsDir != ""}),
		app.WithMetrics(recorder),
		app.WithLaunchURL(opts.launchURL),
	}
	if cfg.Automation.Script != "" {
		runner := automation.New(bus, store,
			automation.WithTimeout(cfg.Automation.Timeout),
			automation.WithLogger(logger.With().Str("component", "automation").Logger()),
		)
		defer runner.Close()
		appOpts = append(appOpts, app.WithAutomation(runner, cfg.Automation.Script))
	}

	application := formapp.NewApp(svcs, appOpts...)
	defer application.Close()

	if err := application.Start(ctx); err != nil {
		return err
	}
	application.DeviceReady(ctx)
	application.PageShown(ctx)

	if err := application.Err(); err != nil {
		return err
	}

	if cfg.Serve.Addr != "" {
		return serve(ctx, cfg.Serve.Addr, newRouter(application, svcs, recorder, logger), logger)
	}

	doc, err := svcs.Pages.Document(svcs.Views.Values())
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = fmt.Fprintln(os.Stdout, doc)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info().Str("path", opts.output).Msg("form written")
	return nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.encounters != "" {
		cfg.EncountersDir = opts.encounters
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.serveAddr != "" {
		cfg.Serve.Addr = opts.serveAddr
	}
	if opts.script != "" {
		cfg.Automation.Script = opts.script
	}
}

func openSession(ctx context.Context, cfg config.SessionConfig, logger zerolog.Logger) (session.Store, error) {
	if cfg.Driver != config.SessionRedis {
		return session.NewMemoryStore(nil), nil
	}
	client, err := session.DialRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis session store connected")
	return session.NewRedisStore(client, session.WithKeyPrefix(cfg.KeyPrefix), session.WithTTL(cfg.TTL))
}

// seedSession writes the launch flags into the session slots, the way the
// previous screen of the host application would.
func seedSession(ctx context.Context, store session.Store, opts options) error {
	slots := map[string]string{
		session.KeyFormFilePath: opts.formPath,
		session.KeyEncounter:    opts.encounter,
	}
	if opts.iterations > 0 {
		slots[session.KeyTestIterationsRemaining] = strconv.Itoa(opts.iterations)
	}
	for key, value := range slots {
		if value == "" {
			continue
		}
		if err := store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("seed session %s: %w", key, err)
		}
	}
	return nil
}

// listRecords returns the ids of the <id>.json files in dir.
func listRecords(dir string) []string {
	names := listForms(dir)
	for i, name := range names {
		names[i] = strings.TrimSuffix(name, ".json")
	}
	return names
}

func listForms(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "formapp: list %s: %v\n", dir, err)
		}
		return nil
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		out = append(out, entry.Name())
	}
	sort.Strings(out)
	return out
}
