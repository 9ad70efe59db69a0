package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	formapp "github.com/goliatone/go-formapp"
	"github.com/goliatone/go-formapp/internal/config"
	"github.com/goliatone/go-formapp/pkg/app"
	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/formfile"
	"github.com/goliatone/go-formapp/pkg/metrics"
	"github.com/goliatone/go-formapp/pkg/session"
)

const serveForm = `{"name":"visit","nameReadable":"Home visit","pages":[{"name":"start","content":[{"type":"text","label":"Village","conceptId":"village_name"}]}]}`

func enteredApp(t *testing.T) (*app.App, *formapp.Services, *metrics.Recorder) {
	t.Helper()
	ctx := context.Background()
	svcs, err := formapp.NewServices(zerolog.Nop())
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	recorder := metrics.New()
	files := fstest.MapFS{"visit.json": {Data: []byte(serveForm)}}
	application := formapp.NewApp(svcs,
		app.WithLoader(formapp.NewFormLoader(formfile.WithFileSystem(files))),
		app.WithResolveOptions(formfile.ResolveOptions{UseFS: true}),
		app.WithLaunchURL("?formFilePath=visit.json"),
		app.WithMetrics(recorder),
	)
	t.Cleanup(application.Close)

	if err := application.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	application.DeviceReady(ctx)
	application.PageShown(ctx)
	if err := application.Err(); err != nil {
		t.Fatalf("lifecycle: %v", err)
	}
	return application, svcs, recorder
}

func TestRouter(t *testing.T) {
	application, svcs, recorder := enteredApp(t)
	router := newRouter(application, svcs, recorder, zerolog.Nop())

	backPresses := 0
	application.Bus().On(events.BackButton, func(context.Context, events.Event) { backPresses++ })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="village_name"`) {
		t.Fatalf("GET / = %d\n%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timing", nil))
	var timing struct {
		State  string        `json:"state"`
		Phases []timingEntry `json:"phases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &timing); err != nil {
		t.Fatalf("decode timing: %v", err)
	}
	if timing.State != "entered" || len(timing.Phases) == 0 {
		t.Fatalf("unexpected timing %+v", timing)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/backbutton", nil))
	if rec.Code != http.StatusNoContent || backPresses != 1 {
		t.Fatalf("POST /backbutton = %d, presses %d", rec.Code, backPresses)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "formapp_phase_duration_seconds") {
		t.Fatalf("metrics missing phase histogram")
	}

	application.Close()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/backbutton", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("back button after Close = %d, want 409", rec.Code)
	}
}

func TestSeedSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(nil)
	err := seedSession(ctx, store, options{formPath: "forms/a.json", iterations: 3})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got := map[string]string{}
	for _, key := range []string{session.KeyFormFilePath, session.KeyEncounter, session.KeyTestIterationsRemaining} {
		got[key], _ = store.Get(ctx, key)
	}
	want := map[string]string{
		session.KeyFormFilePath:            "forms/a.json",
		session.KeyEncounter:               "",
		session.KeyTestIterationsRemaining: "3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestListRecords(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"E2.json", "E1.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if diff := cmp.Diff([]string{"E1", "E2"}, listRecords(dir)); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if listRecords(filepath.Join(dir, "missing")) != nil {
		t.Fatalf("missing directory should list nothing")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(&cfg, options{encounters: "enc", baseURL: "http://host/", serveAddr: ":9000", script: "t.js"})

	if cfg.EncountersDir != "enc" || cfg.BaseURL != "http://host/" || cfg.Serve.Addr != ":9000" || cfg.Automation.Script != "t.js" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}
