package app

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-formapp/pkg/events"
)

// recordTiming trails the named handlers, so a Complete event whose handlers
// run a nested chain (loadDataComplete) is stamped once that chain returns.
func (a *App) recordTiming(_ context.Context, ev events.Event) {
	if ev.Name == "" {
		return
	}
	a.mu.Lock()
	a.timing[ev.Name] = ev.At
	a.mu.Unlock()

	a.metrics.Event(ev.Name.String())
	a.logger.Debug().Str("event", ev.Name.String()).Msg("fired")
}

// summarizeTiming runs once the form has been entered and the loadData span
// enclosing the form chain has closed. enterFormComplete is nested inside
// loadDataComplete, so in practice the summary fires on the trailing delivery
// of loadDataComplete.
func (a *App) summarizeTiming(_ context.Context, ev events.Event) {
	if ev.Name != events.EnterFormComplete && ev.Name != events.LoadDataComplete {
		return
	}

	a.mu.Lock()
	entered, ok := a.timing[events.EnterFormComplete]
	loaded, closed := a.timing[events.LoadDataComplete]
	if !ok || !closed || loaded.Before(entered) || entered.Equal(a.summarized) {
		a.mu.Unlock()
		return
	}
	a.summarized = entered
	durations := make(map[events.Name]time.Duration)
	for name, at := range a.timing {
		if done, ok := a.timing[name.Complete()]; ok {
			durations[name] = done.Sub(at)
		}
	}
	a.durations = durations
	a.mu.Unlock()

	names := make([]string, 0, len(durations))
	for name := range durations {
		names = append(names, name.String())
	}
	sort.Strings(names)
	for _, name := range names {
		d := durations[events.Name(name)]
		a.metrics.Phase(name, d)
		a.logger.Info().Str("phase", name).Dur("duration", d).Msg("phase timing")
	}
}

// Timing returns the latest timestamp of every event published so far.
func (a *App) Timing() map[events.Name]time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[events.Name]time.Time, len(a.timing))
	for name, at := range a.timing {
		out[name] = at
	}
	return out
}

// Durations returns the per-phase durations computed when the form was
// entered, keyed by the phase's start event.
func (a *App) Durations() map[events.Name]time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[events.Name]time.Duration, len(a.durations))
	for name, d := range a.durations {
		out[name] = d
	}
	return out
}
