package page

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formapp/pkg/events"
)

func samplePages(t *testing.T) []json.RawMessage {
	t.Helper()
	return []json.RawMessage{
		json.RawMessage(`{"name":"visit","label":"Visit","content":[
			{"type":"text","label":"Village <script>alert(1)</script>","conceptId":"village_name","required":true},
			{"type":"info","label":"Ask the caregiver"}
		]}`),
		json.RawMessage(`{"label":"Treatment","content":[
			{"type":"select","label":"Dose","conceptId":"metro_dose","options":["none","half","full"]},
			{"type":"integer","label":"Weight","conceptId":"weight_kg"}
		]}`),
	}
}

func newInitialized(t *testing.T) *Service {
	t.Helper()
	svc := New()
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return svc
}

func TestService_RendersAndDecorates(t *testing.T) {
	ctx := context.Background()
	svc := newInitialized(t)
	var seen []events.Name
	svc.Events().OnAll(func(_ context.Context, ev events.Event) {
		seen = append(seen, ev.Name)
	})

	if err := svc.SetPageModels(ctx, samplePages(t)); err != nil {
		t.Fatalf("set page models: %v", err)
	}
	if err := svc.RenderPages(ctx); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := svc.DecoratePages(ctx); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if err := svc.AfterDecoratePages(ctx); err != nil {
		t.Fatalf("after decorate: %v", err)
	}
	if err := svc.SetActivePageIndex(ctx, 0); err != nil {
		t.Fatalf("set active: %v", err)
	}

	want := []events.Name{EventPageModelsSet, EventPagesRendered, EventPagesDecorated, EventAfterDecorate, EventActivePageChanged}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}

	pages := svc.Decorated()
	if len(pages) != 2 {
		t.Fatalf("decorated pages = %d", len(pages))
	}
	first, second := pages[0], pages[1]
	for _, fragment := range []string{`data-role="page"`, `id="page-visit"`, `name="village_name"`, "Ask the caregiver"} {
		if !strings.Contains(first, fragment) {
			t.Fatalf("first page missing %q:\n%s", fragment, first)
		}
	}
	if strings.Contains(first, "<script>") {
		t.Fatalf("script survived decoration:\n%s", first)
	}
	for _, fragment := range []string{`id="page-page-1"`, `<option value="half">half</option>`, `type="number"`} {
		if !strings.Contains(second, fragment) {
			t.Fatalf("second page missing %q:\n%s", fragment, second)
		}
	}
	if svc.ActivePageIndex() != 0 {
		t.Fatalf("active = %d", svc.ActivePageIndex())
	}
}

func TestService_Document(t *testing.T) {
	ctx := context.Background()
	svc := newInitialized(t)
	svc.SetTitle("Child follow-up")
	if err := svc.SetPageModels(ctx, samplePages(t)); err != nil {
		t.Fatalf("set page models: %v", err)
	}
	if err := svc.RenderPages(ctx); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := svc.DecoratePages(ctx); err != nil {
		t.Fatalf("decorate: %v", err)
	}

	doc, err := svc.Document(map[string]any{"village_name": "Kolo"})
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	for _, fragment := range []string{"<title>Child follow-up</title>", `data-active-page="-1"`, `{"village_name":"Kolo"}`, `id="page-visit"`} {
		if !strings.Contains(doc, fragment) {
			t.Fatalf("document missing %q:\n%s", fragment, doc)
		}
	}
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()

	uninitialized := New()
	if err := uninitialized.RenderPages(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("render before init err = %v", err)
	}

	svc := newInitialized(t)
	if err := svc.SetPageModels(ctx, []json.RawMessage{json.RawMessage(`[]`)}); err == nil {
		t.Fatalf("non-object page should fail to decode")
	}
	if err := svc.SetPageModels(ctx, samplePages(t)); err != nil {
		t.Fatalf("set page models: %v", err)
	}
	if err := svc.DecoratePages(ctx); err == nil {
		t.Fatalf("decorate before render should fail")
	}
	if err := svc.SetActivePageIndex(ctx, 5); err == nil {
		t.Fatalf("out of range index should fail")
	}
}

func TestService_EnterWithoutPages(t *testing.T) {
	ctx := context.Background()
	svc := newInitialized(t)
	changed := 0
	svc.Events().On(EventActivePageChanged, func(context.Context, events.Event) { changed++ })

	if err := svc.SetPageModels(ctx, nil); err != nil {
		t.Fatalf("set page models: %v", err)
	}
	if err := svc.RenderPages(ctx); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := svc.DecoratePages(ctx); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if err := svc.SetActivePageIndex(ctx, 0); err != nil {
		t.Fatalf("entering an empty form should succeed: %v", err)
	}
	if got := svc.ActivePageIndex(); got != -1 {
		t.Fatalf("active = %d, want -1", got)
	}
	if changed != 0 {
		t.Fatalf("activePageChanged fired %d times for an empty form", changed)
	}
	if err := svc.SetActivePageIndex(ctx, 1); err == nil {
		t.Fatalf("index 1 of an empty form should fail")
	}
}

func TestItem_InputType(t *testing.T) {
	cases := map[string]string{"": "text", "integer": "number", "Boolean": "checkbox", "date": "date", "signature": "text"}
	for in, want := range cases {
		if got := (Item{Type: in}).InputType(); got != want {
			t.Fatalf("InputType(%q) = %q, want %q", in, got, want)
		}
	}
}
