package obs

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/services/views"
	"github.com/goliatone/go-formapp/pkg/testsupport"
)

type recordingViews struct {
	known  map[string]bool
	values map[string]any
}

func (r *recordingViews) SetValue(_ context.Context, concept string, value any) error {
	if !r.known[concept] {
		return fmt.Errorf("unknown concept %q", concept)
	}
	r.values[concept] = value
	return nil
}

func TestInitializeValues(t *testing.T) {
	target := &recordingViews{
		known:  map[string]bool{"village_name": true, "symptoms": true},
		values: map[string]any{},
	}
	svc := New(target)

	var counts []any
	svc.Events().On(EventValuesInitialized, func(_ context.Context, ev events.Event) {
		counts = ev.Args
	})

	err := svc.InitializeValues(context.Background(), []model.Obs{
		{"conceptId": "village_name", "value": "Kolo"},
		{"conceptId": "symptoms", "value": "fever"},
		{"conceptId": "symptoms", "value": "cough"},
		{"conceptId": "weight_kg", "value": 12.5},
		{"value": "orphan"},
	})
	if err != nil {
		t.Fatalf("initialize values: %v", err)
	}

	want := map[string]any{
		"village_name": "Kolo",
		"symptoms":     []any{"fever", "cough"},
	}
	if diff := cmp.Diff(want, target.values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{2, 1}, counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestInitializeValues_Empty(t *testing.T) {
	svc := New(&recordingViews{values: map[string]any{}})
	fired := false
	svc.Events().On(EventValuesInitialized, func(context.Context, events.Event) { fired = true })

	if err := svc.InitializeValues(context.Background(), nil); err != nil {
		t.Fatalf("initialize values: %v", err)
	}
	if !fired {
		t.Fatalf("valuesInitialized should fire for an empty list")
	}
}

func TestInitializeValues_NoViews(t *testing.T) {
	if err := New(nil).InitializeValues(context.Background(), nil); err == nil {
		t.Fatalf("missing view service should fail")
	}
}

func TestInitializeValues_EncounterIntoViews(t *testing.T) {
	ctx := testsupport.Context()
	form := testsupport.MustLoadForm(t, "../../model/testdata/child_fup.json")
	enc := testsupport.MustLoadEncounter(t, "../../app/testdata/encounter_E1.json")

	vs := views.New()
	if err := vs.RegisterViews(ctx, form); err != nil {
		t.Fatalf("register views: %v", err)
	}
	if err := New(vs).InitializeValues(ctx, enc.Obs); err != nil {
		t.Fatalf("initialize values: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"village_name": "Kolo"}, vs.Values()); diff != "" {
		t.Fatalf("seeded values mismatch (-want +got):\n%s", diff)
	}
	view, ok := vs.View("village_name")
	if !ok || !view.HasValue || view.PageName != "visit" {
		t.Fatalf("unexpected view %+v", view)
	}
}
