package formfile

import (
	"errors"

	"github.com/tidwall/gjson"
)

// Document wraps a raw form payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument validates raw as JSON and wraps it.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("formfile: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("formfile: document is empty")
	}
	if !gjson.ValidBytes(raw) {
		return Document{}, errors.New("formfile: document is not valid JSON")
	}
	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin identifier.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Summary describes a document for diagnostics.
type Summary struct {
	Name         string
	NameReadable string
	Pages        int
	Bytes        int
}

// Summary reads identity fields and the page count without decoding the whole
// document.
func (d Document) Summary() Summary {
	fields := gjson.GetManyBytes(d.raw, "name", "nameReadable", "pages.#")
	return Summary{
		Name:         fields[0].String(),
		NameReadable: fields[1].String(),
		Pages:        int(fields[2].Int()),
		Bytes:        len(d.raw),
	}
}
