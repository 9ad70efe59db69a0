package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-formapp/pkg/formfile"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNotObject is returned when a form file's top level is not a JSON object.
var ErrNotObject = errors.New("formfile loader: form file must be a JSON object")

type fetchFunc func(ctx context.Context, location string) ([]byte, error)

// Loader reads form files from disk, an fs.FS, or over HTTP.
type Loader struct {
	fetchers map[formfile.SourceKind]fetchFunc
}

var _ formfile.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options. URL sources are only
// served when a client was injected or the HTTP fallback is enabled.
func New(options formfile.LoaderOptions) *Loader {
	l := &Loader{fetchers: map[formfile.SourceKind]fetchFunc{
		formfile.SourceKindFile: loadFile,
	}}

	files := options.FileSystem
	l.fetchers[formfile.SourceKindFS] = func(ctx context.Context, name string) ([]byte, error) {
		return loadFromFS(ctx, files, name)
	}

	if client := httpClient(options); client != nil {
		timeout := options.RequestTimeout
		l.fetchers[formfile.SourceKindURL] = func(ctx context.Context, url string) ([]byte, error) {
			return loadHTTP(ctx, client, url, timeout)
		}
	}
	return l
}

func httpClient(options formfile.LoaderOptions) *http.Client {
	timeout := options.RequestTimeout
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: orDefault(timeout, 30*time.Second)}
	}
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// Load fetches the form file named by src and checks it holds a JSON object.
func (l *Loader) Load(ctx context.Context, src formfile.Source) (formfile.Document, error) {
	if src == nil {
		return formfile.Document{}, errors.New("formfile loader: source is nil")
	}

	fetch, ok := l.fetchers[src.Kind()]
	if !ok {
		if src.Kind() == formfile.SourceKindURL {
			return formfile.Document{}, errors.New("formfile loader: http support disabled")
		}
		return formfile.Document{}, fmt.Errorf("formfile loader: unsupported source kind %q", src.Kind())
	}

	data, err := fetch(ctx, src.Location())
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) || errors.Is(err, context.Canceled) {
			return formfile.Document{}, fmt.Errorf("formfile loader: %s: %w", src.Location(), err)
		}
		return formfile.Document{}, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) > 0 && gjson.ValidBytes(data) && !gjson.ParseBytes(data).IsObject() {
		return formfile.Document{}, fmt.Errorf("%w: %s", ErrNotObject, src.Location())
	}

	return formfile.NewDocument(src, data)
}
