package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formapp/internal/logging"
)

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "formapp.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Default()
	want.BaseURL = "http://10.0.2.2:8080/www/"
	want.EncountersDir = "./encounters"
	want.RequestTimeout = 10 * time.Second
	want.Session = SessionConfig{
		Driver:    SessionRedis,
		Addr:      "redis:6379",
		DB:        2,
		KeyPrefix: "formapp:session:",
		TTL:       time.Hour,
	}
	want.Automation = AutomationConfig{Script: "js/mvc/form_test.js", Timeout: 2 * time.Second}
	want.Serve = ServeConfig{Addr: ":8080"}
	want.Log = logging.Config{Level: "debug", Format: logging.FormatJSON}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_JSONKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "formapp.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FormsDir != "./forms" || cfg.Log.Level != "warn" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Log.Format != logging.FormatConsole || cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("defaults should survive a partial file: %+v", cfg)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("empty path should return defaults (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{name: "empty", data: "  ", want: "is empty"},
		{name: "garbage", data: "session: [", want: "invalid JSON or YAML"},
		{name: "unknown driver", data: "session:\n  driver: etcd\n", want: `unknown session driver "etcd"`},
		{name: "redis without addr", data: "session:\n  driver: redis\n  addr: \"\"\n", want: "session.addr is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), "inline")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
