// Package views provides the default view service. It registers one view per
// concept-bearing item on the form's pages and keeps the value each view
// currently shows.
package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/services"
	"github.com/goliatone/go-formapp/pkg/services/page"
)

// Events published on the service bus.
const (
	EventViewsRegistered    events.Name = "viewsRegistered"
	EventValueChanged       events.Name = "valueChanged"
	EventValidationSwitched events.Name = "validationSwitched"
)

// ErrUnknownConcept is returned when no view is registered for a concept.
var ErrUnknownConcept = errors.New("views: unknown concept")

// View is the registered view of one form item.
type View struct {
	ConceptID string
	Label     string
	Type      string
	Page      int
	PageName  string
	Required  bool
	Value     any
	HasValue  bool
}

// Option customises the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service is the default services.ViewService.
type Service struct {
	bus    *events.Bus
	logger zerolog.Logger

	mu             sync.RWMutex
	views          map[string]*View
	validateOnNext bool
	watch          *events.Subscription
}

var _ services.ViewService = (*Service)(nil)

// New constructs the service.
func New(options ...Option) *Service {
	s := &Service{
		bus:    events.NewBus(),
		logger: zerolog.Nop(),
		views:  make(map[string]*View),
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

// RegisterViews builds the views for form and follows its
// validation.validateOnNextPage setting.
func (s *Service) RegisterViews(ctx context.Context, form *model.FormModel) error {
	if form == nil {
		return errors.New("views: form is required")
	}
	pages, err := page.DecodePages(form.Pages)
	if err != nil {
		return err
	}

	registered := make(map[string]*View)
	for pageIdx, p := range pages {
		for _, item := range p.Content {
			if !item.HasConcept() {
				continue
			}
			if _, dup := registered[item.ConceptID]; dup {
				s.logger.Warn().Str("concept", item.ConceptID).Str("page", p.Name).Msg("concept used by more than one item, keeping the first")
				continue
			}
			registered[item.ConceptID] = &View{
				ConceptID: item.ConceptID,
				Label:     item.Label,
				Type:      item.Type,
				Page:      pageIdx,
				PageName:  p.Name,
				Required:  item.Required,
			}
		}
	}

	validate, _ := form.GetGlobalVariable(model.CategoryValidation, model.VariableValidateOnNext).(bool)

	s.mu.Lock()
	s.views = registered
	s.validateOnNext = validate
	if s.watch != nil {
		s.watch.Cancel()
	}
	s.watch = form.Events().On(model.GlobalChanged(model.CategoryValidation, model.VariableValidateOnNext), s.onValidationChanged)
	s.mu.Unlock()

	s.bus.Emit(ctx, EventViewsRegistered, len(registered))
	return nil
}

func (s *Service) onValidationChanged(ctx context.Context, ev events.Event) {
	enabled, _ := ev.Arg(0).(bool)
	s.mu.Lock()
	s.validateOnNext = enabled
	s.mu.Unlock()
	s.bus.Emit(ctx, EventValidationSwitched, enabled)
}

// SetValue records the value shown by the view for conceptID.
func (s *Service) SetValue(ctx context.Context, conceptID string, value any) error {
	s.mu.Lock()
	view, ok := s.views[conceptID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownConcept, conceptID)
	}
	view.Value = value
	view.HasValue = true
	s.mu.Unlock()

	s.bus.Emit(ctx, EventValueChanged, conceptID, value)
	return nil
}

// View returns a copy of the view for conceptID.
func (s *Service) View(conceptID string) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[conceptID]
	if !ok {
		return View{}, false
	}
	return *view, true
}

// Concepts returns the registered concept ids, sorted.
func (s *Service) Concepts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.views))
	for id := range s.views {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Values returns the value of every view that has one.
func (s *Service) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.views))
	for id, view := range s.views {
		if view.HasValue {
			out[id] = view.Value
		}
	}
	return out
}

// ValidateOnNextPage reports whether page navigation should validate first.
func (s *Service) ValidateOnNextPage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validateOnNext
}
