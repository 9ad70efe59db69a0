package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Conventional service names used when relaying service events.
const (
	NamePageService = "PageService"
	NameFormService = "FormService"
	NameObsService  = "ObsService"
)

// Registry resolves the orchestrator's capabilities and keeps every named
// service that should be registered with the application.
type Registry struct {
	mu    sync.RWMutex
	pages PageService
	views ViewService
	obs   ObsService
	named map[string]Service
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{named: make(map[string]Service)}
}

// SetPages installs the page capability under its conventional name.
func (r *Registry) SetPages(svc PageService) error {
	if err := r.Register(NamePageService, svc); err != nil {
		return err
	}
	r.mu.Lock()
	r.pages = svc
	r.mu.Unlock()
	return nil
}

// SetViews installs the view capability under its conventional name.
func (r *Registry) SetViews(svc ViewService) error {
	if err := r.Register(NameFormService, svc); err != nil {
		return err
	}
	r.mu.Lock()
	r.views = svc
	r.mu.Unlock()
	return nil
}

// SetObs installs the observation capability under its conventional name.
func (r *Registry) SetObs(svc ObsService) error {
	if err := r.Register(NameObsService, svc); err != nil {
		return err
	}
	r.mu.Lock()
	r.obs = svc
	r.mu.Unlock()
	return nil
}

// Register adds a named service. Duplicate names return an error.
func (r *Registry) Register(name string, svc Service) error {
	key := strings.TrimSpace(name)
	if key == "" {
		return fmt.Errorf("services: service name is required")
	}
	if svc == nil {
		return fmt.Errorf("services: service %q is nil", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.named[key]; exists {
		return fmt.Errorf("services: service %q already registered", key)
	}
	r.named[key] = svc
	r.order = append(r.order, key)
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, svc Service) {
	if err := r.Register(name, svc); err != nil {
		panic(err)
	}
}

// Get retrieves a named service.
func (r *Registry) Get(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.named[name]
	if !ok {
		return nil, fmt.Errorf("services: service %q not found", name)
	}
	return svc, nil
}

// Has reports whether a named service is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.named[name]
	return ok
}

// List returns a sorted list of service names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ordered returns the service names in registration order.
func (r *Registry) Ordered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Pages returns the page capability.
func (r *Registry) Pages() PageService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pages
}

// Views returns the view capability.
func (r *Registry) Views() ViewService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.views
}

// Obs returns the observation capability.
func (r *Registry) Obs() ObsService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.obs
}

// Validate reports every missing capability.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	if r.pages == nil {
		missing = append(missing, "pages")
	}
	if r.views == nil {
		missing = append(missing, "views")
	}
	if r.obs == nil {
		missing = append(missing, "obs")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCapability, strings.Join(missing, ", "))
	}
	return nil
}
