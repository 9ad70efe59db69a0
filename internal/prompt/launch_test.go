package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"
)

type scriptedDriver struct {
	inputs  []string
	selects []int
	asked   []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.inputs) == 0 {
		return "", errors.New("unexpected input prompt")
	}
	out := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(out); err != nil {
			return "", err
		}
	}
	return out, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.selects) == 0 {
		return 0, errors.New("unexpected select prompt")
	}
	out := d.selects[0]
	d.selects = d.selects[1:]
	return out, nil
}

func (d *scriptedDriver) Confirm(context.Context, ConfirmConfig) (bool, error) {
	return false, errors.New("unexpected confirm prompt")
}

func TestAskLaunch(t *testing.T) {
	cases := []struct {
		name    string
		current Launch
		choices Choices
		driver  *scriptedDriver
		want    Launch
		asked   []string
	}{
		{
			name:    "complete launch asks nothing",
			current: Launch{Encounter: "E1", FormPath: "forms/a.json"},
			driver:  &scriptedDriver{},
			want:    Launch{Encounter: "E1", FormPath: "forms/a.json"},
		},
		{
			name:   "free text form path",
			driver: &scriptedDriver{inputs: []string{"  forms/a.json "}},
			want:   Launch{FormPath: "forms/a.json"},
			asked:  []string{"Form file path"},
		},
		{
			name:    "selects form and encounter",
			choices: Choices{Forms: []string{"forms/a.json", "forms/b.json"}, Encounters: []string{"E1", "E2"}},
			driver:  &scriptedDriver{selects: []int{1, 2}},
			want:    Launch{Encounter: "E2", FormPath: "forms/b.json"},
			asked:   []string{"Form to open", "Reload an encounter?"},
		},
		{
			name:    "new encounter keeps empty id",
			current: Launch{FormPath: "forms/a.json"},
			choices: Choices{Encounters: []string{"E1"}},
			driver:  &scriptedDriver{selects: []int{0}},
			want:    Launch{FormPath: "forms/a.json"},
			asked:   []string{"Reload an encounter?"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AskLaunch(context.Background(), tc.driver, tc.current, tc.choices)
			if err != nil {
				t.Fatalf("ask launch: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("launch mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.asked, tc.driver.asked); diff != "" {
				t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAskLaunch_EmptyPathRejected(t *testing.T) {
	_, err := AskLaunch(context.Background(), &scriptedDriver{inputs: []string{"   "}}, Launch{}, Choices{})
	if err == nil {
		t.Fatalf("blank form path should be rejected")
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	if !errors.Is(translateSurveyErr(terminal.InterruptErr), ErrAborted) {
		t.Fatalf("interrupt should map to ErrAborted")
	}
}
