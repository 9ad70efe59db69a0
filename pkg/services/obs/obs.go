// Package obs seeds encounter observations into the registered views.
package obs

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/services"
)

// EventValuesInitialized carries the applied and unknown counts.
const EventValuesInitialized events.Name = "valuesInitialized"

// ValueSetter is the part of the view service observations are written to.
type ValueSetter interface {
	SetValue(ctx context.Context, conceptID string, value any) error
}

// Option customises the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service is the default services.ObsService.
type Service struct {
	bus    *events.Bus
	views  ValueSetter
	logger zerolog.Logger
}

var _ services.ObsService = (*Service)(nil)

// New constructs a service writing into views.
func New(views ValueSetter, options ...Option) *Service {
	s := &Service{
		bus:    events.NewBus(),
		views:  views,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

func (s *Service) Events() *events.Bus {
	return s.bus
}

// InitializeValues applies every observation to the view for its concept.
// A concept observed more than once receives the list of its values in
// observation order. Observations for unknown concepts are counted and
// skipped.
func (s *Service) InitializeValues(ctx context.Context, items []model.Obs) error {
	if s.views == nil {
		return errors.New("obs: view service is required")
	}

	order := make([]string, 0, len(items))
	grouped := make(map[string][]any, len(items))
	for _, item := range items {
		concept := item.ConceptID()
		if concept == "" {
			s.logger.Debug().Interface("obs", item).Msg("observation without concept skipped")
			continue
		}
		if _, seen := grouped[concept]; !seen {
			order = append(order, concept)
		}
		grouped[concept] = append(grouped[concept], item.Value())
	}

	applied, unknown := 0, 0
	for _, concept := range order {
		values := grouped[concept]
		var value any = values
		if len(values) == 1 {
			value = values[0]
		}
		if err := s.views.SetValue(ctx, concept, value); err != nil {
			unknown++
			s.logger.Warn().Err(err).Str("concept", concept).Msg("observation not applied")
			continue
		}
		applied++
	}

	s.logger.Debug().Int("applied", applied).Int("unknown", unknown).Msg("observations initialised")
	s.bus.Emit(ctx, EventValuesInitialized, applied, unknown)
	return nil
}
