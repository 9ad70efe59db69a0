// Package msf implements the "MSF" bridge plugin, which serves saved
// encounters to the form application.
package msf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-formapp/pkg/bridge"
)

const (
	// ServiceName is the bridge service the plugin answers for.
	ServiceName = "MSF"
	// ActionGetEncounter returns one encounter record by identifier.
	ActionGetEncounter = "getEncounter"
)

// ErrEncounterNotFound is returned when no record exists for an identifier.
var ErrEncounterNotFound = errors.New("msf: encounter not found")

// Plugin reads encounter records stored as "<id>.json" in an fs.FS.
type Plugin struct {
	files fs.FS
}

var _ bridge.Plugin = (*Plugin)(nil)

// New constructs the plugin over files.
func New(files fs.FS) *Plugin {
	return &Plugin{files: files}
}

func (p *Plugin) Name() string {
	return ServiceName
}

func (p *Plugin) Exec(ctx context.Context, action string, args []any) (json.RawMessage, error) {
	switch action {
	case ActionGetEncounter:
		if len(args) != 1 {
			return nil, fmt.Errorf("msf: %s expects 1 argument, got %d", action, len(args))
		}
		id, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("msf: %s expects a string identifier", action)
		}
		return p.encounter(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", bridge.ErrUnknownAction, action)
	}
}

func (p *Plugin) encounter(ctx context.Context, id string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.files == nil {
		return nil, errors.New("msf: encounter store is not configured")
	}
	clean := strings.TrimSpace(id)
	if clean == "" || strings.ContainsAny(clean, `/\`) || clean == "." || clean == ".." {
		return nil, fmt.Errorf("msf: invalid encounter id %q", id)
	}

	data, err := fs.ReadFile(p.files, path.Join(".", clean+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrEncounterNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("msf: read encounter %q: %w", id, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("msf: encounter %q is not valid JSON", id)
	}
	return json.RawMessage(data), nil
}
