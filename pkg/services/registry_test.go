package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/services"
)

type stubService struct{ bus *events.Bus }

func (s stubService) Events() *events.Bus { return s.bus }

type stubPages struct{ stubService }

func (stubPages) SetPageModels(context.Context, []json.RawMessage) error { return nil }
func (stubPages) RenderPages(context.Context) error                      { return nil }
func (stubPages) DecoratePages(context.Context) error                    { return nil }
func (stubPages) AfterDecoratePages(context.Context) error               { return nil }
func (stubPages) SetActivePageIndex(context.Context, int) error          { return nil }

type stubViews struct{ stubService }

func (stubViews) RegisterViews(context.Context, *model.FormModel) error { return nil }

type stubObs struct{ stubService }

func (stubObs) InitializeValues(context.Context, []model.Obs) error { return nil }

func newStub() stubService { return stubService{bus: events.NewBus()} }

func TestRegistry_Capabilities(t *testing.T) {
	r := services.NewRegistry()

	err := r.Validate()
	if !errors.Is(err, services.ErrMissingCapability) {
		t.Fatalf("empty registry err = %v", err)
	}
	if err.Error() != "services: missing capability: pages, views, obs" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if err := r.SetPages(stubPages{newStub()}); err != nil {
		t.Fatalf("set pages: %v", err)
	}
	if err := r.SetViews(stubViews{newStub()}); err != nil {
		t.Fatalf("set views: %v", err)
	}
	if err := r.Validate(); err == nil {
		t.Fatalf("obs should still be missing")
	}
	if err := r.SetObs(stubObs{newStub()}); err != nil {
		t.Fatalf("set obs: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if r.Pages() == nil || r.Views() == nil || r.Obs() == nil {
		t.Fatalf("capability accessors should return the installed services")
	}

	wantOrder := []string{services.NamePageService, services.NameFormService, services.NameObsService}
	if diff := cmp.Diff(wantOrder, r.Ordered()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Named(t *testing.T) {
	r := services.NewRegistry()
	r.MustRegister("ZService", newStub())
	r.MustRegister("AService", newStub())

	if err := r.Register("AService", newStub()); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
	if err := r.Register("  ", newStub()); err == nil {
		t.Fatalf("blank name should fail")
	}
	if err := r.Register("Nil", nil); err == nil {
		t.Fatalf("nil service should fail")
	}
	if _, err := r.Get("Missing"); err == nil {
		t.Fatalf("missing service should fail")
	}
	if !r.Has("ZService") || r.Has("Missing") {
		t.Fatalf("Has misreports")
	}
	if diff := cmp.Diff([]string{"AService", "ZService"}, r.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ZService", "AService"}, r.Ordered()); diff != "" {
		t.Fatalf("ordered mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := services.NewRegistry()
	r.MustRegister("Once", newStub())
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	r.MustRegister("Once", newStub())
}
