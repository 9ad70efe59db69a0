// Package testsupport loads form and encounter fixtures for tests. The Must
// helpers fail the test on error to keep setup concise.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goliatone/go-formapp/pkg/model"
	"github.com/goliatone/go-formapp/pkg/services/page"
)

// MustReadFixture returns the raw bytes of a fixture file.
func MustReadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// MustLoadForm loads a JSON form document with the defaults applied.
func MustLoadForm(t *testing.T, path string) *model.FormModel {
	t.Helper()

	form, err := LoadForm(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return form
}

// LoadForm reads a form fixture without requiring testing.T, for callers
// managing setup outside of a test function.
func LoadForm(path string) (*model.FormModel, error) {
	if path == "" {
		return nil, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read form: %w", err)
	}
	form, err := model.NewFormModel(data)
	if err != nil {
		return nil, fmt.Errorf("testsupport: %w", err)
	}
	return form, nil
}

// MustLoadEncounter loads an encounter record fixture.
func MustLoadEncounter(t *testing.T, path string) *model.Encounter {
	t.Helper()

	enc, err := model.NewEncounter(MustReadFixture(t, path))
	if err != nil {
		t.Fatalf("load encounter: %v", err)
	}
	return enc
}

// MustInitPages returns an initialised page service holding the form's pages.
func MustInitPages(t *testing.T, form *model.FormModel, options ...page.Option) *page.Service {
	t.Helper()

	svc := page.New(options...)
	ctx := Context()
	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("initialize pages: %v", err)
	}
	if err := svc.SetPageModels(ctx, form.Pages); err != nil {
		t.Fatalf("set page models: %v", err)
	}
	return svc
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
