package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goliatone/go-formapp/pkg/events"
)

// Descriptor names a concept whose captured value identifies an encounter when
// it is listed for reloading. Value is only populated on encounter snapshots.
type Descriptor struct {
	Label     string `json:"label"`
	ConceptID string `json:"conceptId"`
	Value     any    `json:"value,omitempty"`
}

// FormModel is a loaded form document. Pages are kept as raw JSON; their
// structure belongs to the page service. A FormModel is not safe for
// concurrent mutation.
type FormModel struct {
	// Name is the unique form identifier, lowercase without spaces by convention.
	Name         string            `json:"name,omitempty"`
	NameReadable string            `json:"nameReadable,omitempty"`
	Description  string            `json:"description,omitempty"`
	Descriptors  []Descriptor      `json:"descriptors"`
	Global       Global            `json:"global"`
	Pages        []json.RawMessage `json:"pages"`

	// IgnoredGlobal lists document categories under "global" whose value was
	// not an object. They are skipped and the defaults stand.
	IgnoredGlobal []string `json:"-"`

	events *events.Bus
}

// NewFormModel decodes a JSON form document and applies the defaults.
func NewFormModel(data []byte) (*FormModel, error) {
	type plain FormModel
	var doc struct {
		plain
		Global map[string]json.RawMessage `json:"global"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("model: decode form: %w", err)
	}

	form := FormModel(doc.plain)
	form.Global = make(Global, len(doc.Global))
	for category, raw := range doc.Global {
		var vars map[string]any
		if err := json.Unmarshal(raw, &vars); err != nil || vars == nil {
			form.IgnoredGlobal = append(form.IgnoredGlobal, category)
			continue
		}
		form.Global[category] = vars
	}
	sort.Strings(form.IgnoredGlobal)
	return NewFormModelFrom(form), nil
}

// NewFormModelFrom applies the defaults to an in-memory form value. The
// caller's Global tree is copied, never modified.
func NewFormModelFrom(form FormModel) *FormModel {
	out := form
	out.Global = MergeGlobal(DefaultGlobal(), form.Global)
	if out.Descriptors == nil {
		out.Descriptors = []Descriptor{}
	}
	if out.Pages == nil {
		out.Pages = []json.RawMessage{}
	}
	out.events = events.NewBus()
	return &out
}

// Events exposes the bus carrying global change notifications.
func (f *FormModel) Events() *events.Bus {
	if f.events == nil {
		f.events = events.NewBus()
	}
	return f.events
}

// GetGlobalVariable returns the value stored under category/variable, or nil
// when either is absent.
func (f *FormModel) GetGlobalVariable(category, variable string) any {
	value, _ := f.LookupGlobalVariable(category, variable)
	return value
}

// LookupGlobalVariable is GetGlobalVariable with presence reporting.
func (f *FormModel) LookupGlobalVariable(category, variable string) (any, bool) {
	vars, ok := f.Global[category]
	if !ok {
		return nil, false
	}
	value, ok := vars[variable]
	return value, ok
}

// SetGlobalVariable stores value under category/variable, creating the
// category when needed, then notifies generic, category and variable
// subscribers in that order.
func (f *FormModel) SetGlobalVariable(category, variable string, value any) {
	if f.Global == nil {
		f.Global = make(Global)
	}
	vars, ok := f.Global[category]
	if !ok {
		vars = make(map[string]any)
		f.Global[category] = vars
	}
	vars[variable] = value

	ctx := context.Background()
	bus := f.Events()
	bus.Emit(ctx, GlobalChanged(), category, variable, value)
	bus.Emit(ctx, GlobalChanged(category), variable, value)
	bus.Emit(ctx, GlobalChanged(category, variable), value)
}

// GlobalChanged builds the notification name for a change scope: no argument
// for every change, a category, or a category and variable.
func GlobalChanged(scope ...string) events.Name {
	name := events.Name(changeGlobalNotification)
	for _, part := range scope {
		name = events.Name(string(name) + ":" + part)
	}
	return name
}

// PageCount reports the number of page definitions.
func (f *FormModel) PageCount() int {
	return len(f.Pages)
}
