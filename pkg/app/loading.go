package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-formapp/pkg/bridge/msf"
	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/formfile"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/session"
)

// ErrMissingFormPath is returned when neither the launch URL nor the session
// names a form document.
var ErrMissingFormPath = errors.New("app: form file path is required")

// LoadData resolves the encounter and form path, launch query parameters
// first and session slots second, clearing both slots. With an encounter id
// the encounter is fetched over the bridge and its observations seeded
// before the form is fetched.
func (a *App) LoadData(ctx context.Context) error {
	start := a.now()
	a.mu.Lock()
	a.state = StateDataLoading
	a.mu.Unlock()

	a.bus.Emit(ctx, events.LoadDataStart)

	encounterID, err := session.Resolve(ctx, a.params, a.store, session.KeyEncounter)
	if err != nil {
		return fmt.Errorf("app: read %s: %w", session.KeyEncounter, err)
	}
	formPath, err := session.Resolve(ctx, a.params, a.store, session.KeyFormFilePath)
	if err != nil {
		return fmt.Errorf("app: read %s: %w", session.KeyFormFilePath, err)
	}

	a.maybeRunAutomation(ctx)

	if formPath == "" {
		a.logger.Error().Str("encounter", encounterID).Msg("no form file path in launch URL or session")
		return ErrMissingFormPath
	}

	if encounterID != "" {
		if err := a.loadEncounter(ctx, encounterID); err != nil {
			return err
		}
	}

	a.logger.Debug().Dur("elapsed", a.now().Sub(start)).Str("encounter", encounterID).Str("form", formPath).Msg("load data dispatched")
	return a.LoadFromJSONForm(ctx, formPath)
}

func (a *App) loadEncounter(ctx context.Context, id string) error {
	if a.bridge == nil {
		a.metrics.LoadFailure("encounter")
		return fmt.Errorf("app: encounter %q requested but no bridge is configured", id)
	}
	raw, err := a.bridge.Exec(ctx, msf.ServiceName, msf.ActionGetEncounter, id)
	if err != nil {
		a.metrics.LoadFailure("encounter")
		a.logger.Error().Err(err).Str("encounter", id).Msg("encounter fetch failed")
		return fmt.Errorf("app: fetch encounter %q: %w", id, err)
	}
	enc, err := model.NewEncounter(raw)
	if err != nil {
		a.metrics.LoadFailure("encounter")
		return fmt.Errorf("app: encounter %q: %w", id, err)
	}

	a.obs.Set(enc.Obs)
	a.mu.Lock()
	a.encounter = enc
	a.mu.Unlock()
	a.logger.Debug().Str("encounter", id).Int("obs", len(enc.Obs)).Msg("encounter loaded")
	return nil
}

func (a *App) maybeRunAutomation(ctx context.Context) {
	remaining, positive, err := session.PositiveInt(ctx, a.store, session.KeyTestIterationsRemaining)
	if err != nil {
		a.logger.Warn().Err(err).Msg("reading test iterations failed")
		return
	}
	if !positive {
		return
	}
	if a.automation == nil || a.automationPath == "" {
		a.logger.Warn().Int("remaining", remaining).Msg("test iterations remain but no automation script is configured")
		return
	}
	if err := a.automation.RunFile(ctx, a.automationPath); err != nil {
		a.logger.Error().Err(err).Str("script", a.automationPath).Msg("automation script failed")
		return
	}
	a.logger.Info().Int("remaining", remaining).Str("script", a.automationPath).Msg("automation script loaded")
}

// LoadFromJSONForm fetches the form document at path and publishes it with
// loadDataComplete. On failure nothing is published; the path, status and
// response body are logged and the error returned.
func (a *App) LoadFromJSONForm(ctx context.Context, path string) error {
	src, err := formfile.Resolve(path, a.resolve)
	if err != nil {
		a.metrics.LoadFailure("form")
		return fmt.Errorf("app: resolve form %q: %w", path, err)
	}

	doc, err := a.loader.Load(ctx, src)
	if err != nil {
		a.metrics.LoadFailure("form")
		entry := a.logger.Error().Err(err).Str("path", path)
		var status *formfile.StatusError
		if errors.As(err, &status) {
			entry = entry.Int("status", status.StatusCode).Str("body", status.Body)
		}
		entry.Msg("form file request failed")
		return fmt.Errorf("app: load form %q: %w", path, err)
	}

	summary := doc.Summary()
	a.logger.Debug().
		Str("path", doc.Location()).
		Str("form", summary.Name).
		Int("pages", summary.Pages).
		Int("bytes", summary.Bytes).
		Msg("form file loaded")

	start := a.now()
	a.bus.Emit(ctx, events.LoadDataComplete, json.RawMessage(doc.Raw()))
	a.logger.Debug().Dur("elapsed", a.now().Sub(start)).Str("path", path).Msg("form built")
	return nil
}

func documentBytes(v any) ([]byte, error) {
	switch doc := v.(type) {
	case json.RawMessage:
		return doc, nil
	case []byte:
		return doc, nil
	case string:
		return []byte(doc), nil
	case formfile.Document:
		return doc.Raw(), nil
	case nil:
		return nil, errors.New("app: loadDataComplete carried no document")
	default:
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("app: encode form document: %w", err)
		}
		return raw, nil
	}
}
