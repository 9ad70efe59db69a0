package gotemplate

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	files := fstest.MapFS{
		"hello.tpl":      {Data: []byte(`Hello {{ name }}!`)},
		"use-global.tpl": {Data: []byte(`env={{ settings.env }}`)},
		"id.tpl":         {Data: []byte(`{{ concept|domid }}`)},
	}
	engine, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)
	var sb strings.Builder

	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &sb)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada!" || sb.String() != got {
		t.Fatalf("render = %q, writer = %q", got, sb.String())
	}
}

func TestEngine_StructData(t *testing.T) {
	engine := newEngine(t)
	data := struct {
		Name string `json:"name"`
	}{Name: "Grace"}

	got, err := engine.RenderTemplate("hello.tpl", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Grace!" {
		t.Fatalf("render = %q", got)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{"settings": map[string]any{"env": "field"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	got, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "env=field" {
		t.Fatalf("render = %q", got)
	}
}

func TestEngine_DomIDFilter(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("id", map[string]any{"concept": " village name/2 "})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "village-name-2" {
		t.Fatalf("domid = %q", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("formapp_test_shout", func(input any, _ any) (any, error) {
		s, _ := input.(string)
		if s == "" {
			return nil, errors.New("empty")
		}
		return strings.ToUpper(s), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	got, err := engine.RenderString(`{{ name|formapp_test_shout }}`, map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "ADA" {
		t.Fatalf("render = %q", got)
	}
	if err := engine.RegisterFilter("formapp_test_shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("duplicate filter should fail")
	}
}

func TestEngine_TemplateFunc(t *testing.T) {
	files := fstest.MapFS{
		"label.tpl": {Data: []byte(`{{ required_mark(label, required) }}`)},
	}
	engine, err := New(WithFS(files), WithTemplateFunc(map[string]any{
		"required_mark": func(label string, required bool) string {
			if required {
				return label + " *"
			}
			return label
		},
	}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("label", map[string]any{"label": "Village", "required": true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Village *" {
		t.Fatalf("render = %q", got)
	}
}

func TestEngine_Errors(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("missing fs should fail")
	}
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("missing template should fail")
	}
}
