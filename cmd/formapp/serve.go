package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	formapp "github.com/goliatone/go-formapp"
	"github.com/goliatone/go-formapp/pkg/app"
	"github.com/goliatone/go-formapp/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

type timingEntry struct {
	Phase      string  `json:"phase"`
	DurationMS float64 `json:"durationMs"`
}

func newRouter(application *app.App, svcs *formapp.Services, recorder *metrics.Recorder, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := svcs.Pages.Document(svcs.Views.Values())
		if err != nil {
			logger.Error().Err(err).Msg("render document")
			http.Error(w, "form is not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(doc))
	})

	r.Get("/timing", func(w http.ResponseWriter, _ *http.Request) {
		durations := application.Durations()
		out := make([]timingEntry, 0, len(durations))
		for name, d := range durations {
			out = append(out, timingEntry{Phase: name.String(), DurationMS: float64(d) / float64(time.Millisecond)})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":  application.State().String(),
			"phases": out,
		})
	})

	r.Post("/backbutton", func(w http.ResponseWriter, r *http.Request) {
		if !application.BackButton(r.Context()) {
			http.Error(w, "back button is not hooked", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Method(http.MethodGet, "/metrics", recorder.Handler())
	return r
}

func serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving form")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
