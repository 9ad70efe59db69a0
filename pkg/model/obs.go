package model

import (
	"encoding/json"
	"sync"
)

// Obs is one captured observation. The payload is opaque apart from the
// conventional conceptId and value keys.
type Obs map[string]any

// ConceptID returns the observation's concept identifier, if any.
func (o Obs) ConceptID() string {
	id, _ := o["conceptId"].(string)
	return id
}

// Value returns the observed value.
func (o Obs) Value() any {
	return o["value"]
}

// ObsList is the observation list shared by the loading and seeding phases.
// The zero value is ready to use.
type ObsList struct {
	mu    sync.RWMutex
	items []Obs
}

// Set replaces the list contents.
func (l *ObsList) Set(items []Obs) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]Obs(nil), items...)
}

// All returns a copy of the observations.
func (l *ObsList) All() []Obs {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Obs(nil), l.items...)
}

// Len reports the number of observations.
func (l *ObsList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// ByConcept returns the observations recorded for conceptID, in order.
func (l *ObsList) ByConcept(conceptID string) []Obs {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Obs
	for _, obs := range l.items {
		if obs.ConceptID() == conceptID {
			out = append(out, obs)
		}
	}
	return out
}

// MarshalJSON encodes the list as a JSON array.
func (l *ObsList) MarshalJSON() ([]byte, error) {
	items := l.All()
	if items == nil {
		items = []Obs{}
	}
	return json.Marshal(items)
}
