package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Encounter is data captured against a form. It references the form by name.
type Encounter struct {
	Obs              []Obs        `json:"obs"`
	LastSaved        *int64       `json:"lastSaved,omitempty"`
	FormName         string       `json:"formName"`
	FormNameReadable string       `json:"formNameReadable"`
	Descriptors      []Descriptor `json:"descriptors"`
	Completed        bool         `json:"completed"`
	// LastPage holds the index or identifier of the last active page.
	LastPage any `json:"lastPage,omitempty"`
}

// DefaultEncounter returns an encounter carrying the default values.
func DefaultEncounter() Encounter {
	return Encounter{
		Obs:         []Obs{},
		Descriptors: []Descriptor{},
		Completed:   true,
	}
}

// NewEncounter decodes an encounter record over the defaults.
func NewEncounter(data []byte) (*Encounter, error) {
	enc := DefaultEncounter()
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("model: decode encounter: %w", err)
	}
	if enc.Obs == nil {
		enc.Obs = []Obs{}
	}
	if enc.Descriptors == nil {
		enc.Descriptors = []Descriptor{}
	}
	return &enc, nil
}

// LastSavedTime converts LastSaved to a time. ok is false when it was never saved.
func (e *Encounter) LastSavedTime() (time.Time, bool) {
	if e == nil || e.LastSaved == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*e.LastSaved), true
}
