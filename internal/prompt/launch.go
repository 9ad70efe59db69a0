package prompt

import (
	"context"
	"errors"
	"strings"
)

// Launch holds the parameters a form session starts with.
type Launch struct {
	Encounter string
	FormPath  string
}

// Choices lists the known encounters and forms offered as options. Empty
// lists fall back to free-text input.
type Choices struct {
	Encounters []string
	Forms      []string
}

const newEncounter = "(new encounter)"

// AskLaunch fills the empty fields of current. The form path is required;
// the encounter may stay empty to start a new one.
func AskLaunch(ctx context.Context, driver Driver, current Launch, choices Choices) (Launch, error) {
	if driver == nil {
		return current, errors.New("prompt: driver is required")
	}
	out := current

	if out.FormPath == "" {
		path, err := askFormPath(ctx, driver, choices.Forms)
		if err != nil {
			return current, err
		}
		out.FormPath = path
	}

	if out.Encounter == "" && len(choices.Encounters) > 0 {
		options := append([]string{newEncounter}, choices.Encounters...)
		idx, err := driver.Select(ctx, SelectConfig{
			Message: "Reload an encounter?",
			Options: options,
			Help:    "Existing observations are seeded into the form.",
		})
		if err != nil {
			return current, err
		}
		if idx > 0 {
			out.Encounter = options[idx]
		}
	}
	return out, nil
}

func askFormPath(ctx context.Context, driver Driver, forms []string) (string, error) {
	if len(forms) > 0 {
		idx, err := driver.Select(ctx, SelectConfig{
			Message: "Form to open",
			Options: forms,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 {
			return "", errors.New("prompt: no form selected")
		}
		return forms[idx], nil
	}
	path, err := driver.Input(ctx, InputConfig{
		Message: "Form file path",
		Help:    "A local path, a path relative to the base URL, or an absolute URL.",
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("a form file path is required")
			}
			return nil
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}
