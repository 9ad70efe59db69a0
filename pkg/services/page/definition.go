package page

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Page is the structure the page service reads from a form's page entries.
// Unknown keys are ignored.
type Page struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Content []Item `json:"content"`
}

// Item is one question or block on a page.
type Item struct {
	Type      string `json:"type"`
	Label     string `json:"label"`
	ConceptID string `json:"conceptId"`
	Options   []any  `json:"options,omitempty"`
	Required  bool   `json:"required,omitempty"`
}

// HasConcept reports whether the item captures an observation.
func (i Item) HasConcept() bool {
	return strings.TrimSpace(i.ConceptID) != ""
}

var inputTypes = map[string]string{
	"":         "text",
	"text":     "text",
	"number":   "number",
	"integer":  "number",
	"date":     "date",
	"time":     "time",
	"checkbox": "checkbox",
	"boolean":  "checkbox",
	"radio":    "radio",
}

// InputType maps the item type to an HTML input type.
func (i Item) InputType() string {
	if t, ok := inputTypes[strings.ToLower(strings.TrimSpace(i.Type))]; ok {
		return t
	}
	return "text"
}

// DecodePages decodes raw page entries. Pages without a name are named by
// their position.
func DecodePages(raw []json.RawMessage) ([]Page, error) {
	pages := make([]Page, 0, len(raw))
	for idx, entry := range raw {
		var p Page
		if err := json.Unmarshal(entry, &p); err != nil {
			return nil, fmt.Errorf("page: decode page %d: %w", idx, err)
		}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = fmt.Sprintf("page-%d", idx)
		}
		pages = append(pages, p)
	}
	return pages, nil
}
