// Package formapp wires the form application lifecycle with its default
// services. Most callers only need NewServices and NewApp; the pkg/
// packages expose every piece for custom wiring.
package formapp

import (
	"io/fs"

	"github.com/rs/zerolog"

	internalLoader "github.com/goliatone/go-formapp/internal/formfile/loader"
	"github.com/goliatone/go-formapp/pkg/app"
	"github.com/goliatone/go-formapp/pkg/formfile"
	"github.com/goliatone/go-formapp/pkg/services"
	"github.com/goliatone/go-formapp/pkg/services/obs"
	"github.com/goliatone/go-formapp/pkg/services/page"
	"github.com/goliatone/go-formapp/pkg/services/views"
)

// Services groups the default capability implementations and the registry
// holding them.
type Services struct {
	Registry *services.Registry
	Pages    *page.Service
	Views    *views.Service
	Obs      *obs.Service
}

// NewServices builds the default page, view and observation services.
// Extra page options customise templates.
func NewServices(logger zerolog.Logger, pageOptions ...page.Option) (*Services, error) {
	pageOpts := append([]page.Option{page.WithLogger(logger.With().Str("service", services.NamePageService).Logger())}, pageOptions...)
	s := &Services{
		Registry: services.NewRegistry(),
		Pages:    page.New(pageOpts...),
		Views:    views.New(views.WithLogger(logger.With().Str("service", services.NameFormService).Logger())),
	}
	s.Obs = obs.New(s.Views, obs.WithLogger(logger.With().Str("service", services.NameObsService).Logger()))

	if err := s.Registry.SetPages(s.Pages); err != nil {
		return nil, err
	}
	if err := s.Registry.SetViews(s.Views); err != nil {
		return nil, err
	}
	if err := s.Registry.SetObs(s.Obs); err != nil {
		return nil, err
	}
	return s, nil
}

// NewApp constructs the lifecycle orchestrator wired to the default
// services. Options given later override WithServices.
func NewApp(svcs *Services, options ...app.Option) *app.App {
	opts := make([]app.Option, 0, len(options)+1)
	if svcs != nil {
		opts = append(opts, app.WithServices(svcs.Registry))
	}
	opts = append(opts, options...)
	return app.New(opts...)
}

// NewFormLoader constructs a form loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewFormLoader(options ...formfile.LoaderOption) formfile.Loader {
	cfg := formfile.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// EmbeddedTemplates exposes the page templates so callers can copy or
// extend them and pass the result back with page.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return page.TemplatesFS()
}
