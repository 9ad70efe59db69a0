package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Params are the launch URL query parameters.
type Params struct {
	values url.Values
}

// ParseLaunchURL extracts query parameters from a launch URL such as
// "index.html?encounter=E1&formFilePath=/forms/a.json". A bare query string
// with or without the leading "?" is accepted too.
func ParseLaunchURL(raw string) (Params, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Params{values: url.Values{}}, nil
	}
	query := trimmed
	switch idx := strings.IndexByte(trimmed, '?'); {
	case idx >= 0:
		query = trimmed[idx+1:]
	case !strings.Contains(trimmed, "="):
		return Params{values: url.Values{}}, nil
	}
	if idx := strings.IndexByte(query, '#'); idx >= 0 {
		query = query[:idx]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return Params{}, fmt.Errorf("session: parse launch url: %w", err)
	}
	return Params{values: values}, nil
}

// ParamsFromValues wraps pre-parsed query values.
func ParamsFromValues(values url.Values) Params {
	if values == nil {
		values = url.Values{}
	}
	return Params{values: values}
}

// Get returns the first value for name or the empty string.
func (p Params) Get(name string) string {
	if p.values == nil {
		return ""
	}
	return p.values.Get(name)
}

// Resolve returns the query parameter when present, otherwise the single-use
// session slot of the same name. The slot is always cleared.
func Resolve(ctx context.Context, params Params, store Store, key string) (string, error) {
	stored, err := Take(ctx, store, key)
	if err != nil {
		return "", err
	}
	if v := params.Get(key); v != "" {
		return v, nil
	}
	return stored, nil
}
