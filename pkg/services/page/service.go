// Package page provides the default page service: it decodes a form's page
// definitions, renders them to markup through the template engine, decorates
// the result into page containers, and tracks navigation.
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/render/template"
	"github.com/goliatone/go-formapp/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formapp/pkg/services"
)

// Events published on the service bus.
const (
	EventInitialized       events.Name = "initialized"
	EventPageModelsSet     events.Name = "pageModelsSet"
	EventPagesRendered     events.Name = "pagesRendered"
	EventPagesDecorated    events.Name = "pagesDecorated"
	EventAfterDecorate     events.Name = "afterDecorate"
	EventActivePageChanged events.Name = "activePageChanged"
)

// ErrNotInitialized is returned when rendering before Initialize.
var ErrNotInitialized = errors.New("page: service is not initialized")

// Option customises the service.
type Option func(*Service)

// WithTemplatesFS replaces the built-in template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(s *Service) {
		s.templateFS = files
	}
}

// WithTemplateRenderer injects a ready template engine, skipping the bundle.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(s *Service) {
		s.engine = renderer
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service is the default services.PageService.
type Service struct {
	bus        *events.Bus
	templateFS fs.FS
	engine     template.TemplateRenderer
	logger     zerolog.Logger

	mu        sync.RWMutex
	title     string
	pages     []Page
	rendered  []string
	decorated []string
	active    int
}

var (
	_ services.PageService = (*Service)(nil)
	_ services.Initializer = (*Service)(nil)
)

// New constructs the service. Templates are loaded by Initialize.
func New(options ...Option) *Service {
	s := &Service{
		bus:        events.NewBus(),
		templateFS: TemplatesFS(),
		logger:     zerolog.Nop(),
		active:     -1,
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

// Initialize prepares the template engine.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.engine == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(s.templateFS))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("page: configure templates: %w", err)
		}
		s.engine = engine
	}
	s.mu.Unlock()

	s.bus.Emit(ctx, EventInitialized)
	return nil
}

// SetTitle sets the document title used by Document.
func (s *Service) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// SetPageModels decodes the form's page entries and discards earlier output.
func (s *Service) SetPageModels(ctx context.Context, raw []json.RawMessage) error {
	pages, err := DecodePages(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pages = pages
	s.rendered = nil
	s.decorated = nil
	s.active = -1
	s.mu.Unlock()

	s.bus.Emit(ctx, EventPageModelsSet, len(pages))
	return nil
}

type itemView struct {
	Item
	ID       string `json:"id"`
	HTMLType string `json:"inputType"`
}

type pageView struct {
	Name  string     `json:"name"`
	Label string     `json:"label"`
	Items []itemView `json:"items"`
}

type pageData struct {
	Page  pageView `json:"page"`
	Index int      `json:"index"`
}

// RenderPages renders every page body.
func (s *Service) RenderPages(ctx context.Context) error {
	s.mu.RLock()
	engine := s.engine
	pages := append([]Page(nil), s.pages...)
	s.mu.RUnlock()
	if engine == nil {
		return ErrNotInitialized
	}

	rendered := make([]string, 0, len(pages))
	for idx, p := range pages {
		view := pageView{Name: p.Name, Label: p.Label, Items: make([]itemView, 0, len(p.Content))}
		for itemIdx, item := range p.Content {
			id := item.ConceptID
			if !item.HasConcept() {
				id = fmt.Sprintf("%s-item-%d", p.Name, itemIdx)
			}
			view.Items = append(view.Items, itemView{Item: item, ID: domID(id), HTMLType: item.InputType()})
		}
		out, err := engine.RenderTemplate("page", pageData{Page: view, Index: idx})
		if err != nil {
			return fmt.Errorf("page: render %q: %w", p.Name, err)
		}
		rendered = append(rendered, out)
	}

	s.mu.Lock()
	s.rendered = rendered
	s.mu.Unlock()

	s.logger.Debug().Int("pages", len(rendered)).Msg("pages rendered")
	s.bus.Emit(ctx, EventPagesRendered, len(rendered))
	return nil
}

// DecoratePages sanitises each rendered body and wraps it in a page container.
func (s *Service) DecoratePages(ctx context.Context) error {
	s.mu.RLock()
	engine := s.engine
	pages := append([]Page(nil), s.pages...)
	rendered := append([]string(nil), s.rendered...)
	s.mu.RUnlock()
	if engine == nil {
		return ErrNotInitialized
	}
	if len(rendered) != len(pages) {
		return fmt.Errorf("page: decorate before render (%d of %d pages rendered)", len(rendered), len(pages))
	}

	decorated := make([]string, 0, len(rendered))
	for idx, body := range rendered {
		out, err := engine.RenderTemplate("chrome", map[string]any{
			"name":  pages[idx].Name,
			"index": idx,
			"body":  sanitizeMarkup(body),
		})
		if err != nil {
			return fmt.Errorf("page: decorate %q: %w", pages[idx].Name, err)
		}
		decorated = append(decorated, strings.TrimSpace(out))
	}

	s.mu.Lock()
	s.decorated = decorated
	s.mu.Unlock()

	s.bus.Emit(ctx, EventPagesDecorated, len(decorated))
	return nil
}

// AfterDecoratePages announces that pages are decorated and seeded.
func (s *Service) AfterDecoratePages(ctx context.Context) error {
	s.bus.Emit(ctx, EventAfterDecorate, s.Len())
	return nil
}

// SetActivePageIndex enters the page at index. Entering page 0 of a form
// without pages succeeds and leaves no page active.
func (s *Service) SetActivePageIndex(ctx context.Context, index int) error {
	s.mu.Lock()
	if index == 0 && len(s.pages) == 0 {
		s.active = -1
		s.mu.Unlock()
		return nil
	}
	if index < 0 || index >= len(s.pages) {
		count := len(s.pages)
		s.mu.Unlock()
		return fmt.Errorf("page: index %d out of range (%d pages)", index, count)
	}
	previous := s.active
	s.active = index
	name := s.pages[index].Name
	s.mu.Unlock()

	s.bus.Emit(ctx, EventActivePageChanged, index, previous, name)
	return nil
}

// Len reports the number of page models.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// ActivePageIndex returns the active page, or -1 before the form is entered.
func (s *Service) ActivePageIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Pages returns the decoded page models.
func (s *Service) Pages() []Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Page(nil), s.pages...)
}

// Decorated returns the decorated page markup.
func (s *Service) Decorated() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.decorated...)
}

// Document renders the decorated pages into a standalone HTML document with
// values embedded as JSON for client-side seeding.
func (s *Service) Document(values map[string]any) (string, error) {
	s.mu.RLock()
	engine := s.engine
	title := s.title
	active := s.active
	decorated := append([]string(nil), s.decorated...)
	s.mu.RUnlock()
	if engine == nil {
		return "", ErrNotInitialized
	}
	if values == nil {
		values = map[string]any{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("page: encode values: %w", err)
	}
	return engine.RenderTemplate("document", map[string]any{
		"title":  title,
		"active": active,
		"pages":  decorated,
		"values": string(encoded),
	})
}

func domID(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
