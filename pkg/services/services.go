// Package services defines the capabilities the lifecycle orchestrator
// delegates phases to, and a registry resolving them at startup.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/model"
)

// ErrMissingCapability is returned by Registry.Validate when a capability the
// orchestrator needs has not been provided.
var ErrMissingCapability = errors.New("services: missing capability")

// Service is anything registered with the application. Every event it
// publishes on its bus is relayed onto the application bus.
type Service interface {
	Events() *events.Bus
}

// Initializer is implemented by services that need to run setup once when
// the initServices phase fires.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// PageService owns page models, their rendering, and navigation.
type PageService interface {
	Service
	SetPageModels(ctx context.Context, pages []json.RawMessage) error
	RenderPages(ctx context.Context) error
	DecoratePages(ctx context.Context) error
	AfterDecoratePages(ctx context.Context) error
	SetActivePageIndex(ctx context.Context, index int) error
}

// ViewService registers the views that react to question logic on the
// rendered pages.
type ViewService interface {
	Service
	RegisterViews(ctx context.Context, form *model.FormModel) error
}

// ObsService seeds observation values into the registered views.
type ObsService interface {
	Service
	InitializeValues(ctx context.Context, obs []model.Obs) error
}
