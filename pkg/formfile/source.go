package formfile

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Source identifies where a form document lives.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// ErrEmptyLocation is returned when no form path was supplied.
var ErrEmptyLocation = errors.New("formfile: location is required")

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(p string) Source {
	return fileSource{path: filepath.Clean(p)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source naming an entry inside an fs.FS. Leading
// slashes are dropped because fs.FS names are unrooted.
func SourceFromFS(name string) Source {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		clean = "."
	}
	return fsSource{name: clean}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// ParseURLSource validates raw and returns a URL Source.
func ParseURLSource(raw string) (Source, error) {
	if raw == "" {
		return nil, ErrEmptyLocation
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("formfile: invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("formfile: unsupported URL scheme %q", u.Scheme)
	}
	return urlSource{raw: u.String()}, nil
}

// SourceFromURL is ParseURLSource that panics on invalid input, surfacing
// configuration mistakes early.
func SourceFromURL(raw string) Source {
	src, err := ParseURLSource(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// ResolveOptions controls how a form path maps to a Source.
type ResolveOptions struct {
	// BaseURL makes relative paths resolve against a remote origin, the way a
	// page-relative request does in a browser.
	BaseURL string
	// UseFS maps relative paths to fs.FS entries instead of disk files.
	UseFS bool
}

// Resolve maps a form path to a Source. Absolute http(s) URLs always load over
// HTTP; otherwise BaseURL, then UseFS, then the local disk apply.
func Resolve(location string, opts ResolveOptions) (Source, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return nil, ErrEmptyLocation
	}
	if isHTTP(trimmed) {
		return ParseURLSource(trimmed)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		baseURL, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("formfile: invalid base URL %q: %w", base, err)
		}
		ref, err := url.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("formfile: invalid form path %q: %w", trimmed, err)
		}
		return ParseURLSource(baseURL.ResolveReference(ref).String())
	}
	if opts.UseFS {
		return SourceFromFS(trimmed), nil
	}
	return SourceFromFile(trimmed), nil
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
