package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formapp/pkg/events"
	"github.com/goliatone/go-formapp/pkg/session"
)

const iterationScript = `
formApp.on("enterFormComplete", function (page) {
	var left = Number(sessionStorage.getItem("testIterationsRemaining")) - 1;
	sessionStorage.setItem("testIterationsRemaining", String(left));
	console.log("entered page", page, "left", left);
	formApp.trigger("automation:iteration", left);
});
`

func TestRunner_ReactsToEvents(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	store := session.NewMemoryStore(map[string]string{session.KeyTestIterationsRemaining: "3"})
	runner := New(bus, store)
	defer runner.Close()

	var got []string
	bus.On("automation:iteration", func(_ context.Context, ev events.Event) {
		got = append(got, fmt.Sprint(ev.Arg(0)))
	})

	if err := runner.Run(ctx, "iteration.js", iterationScript); err != nil {
		t.Fatalf("run: %v", err)
	}
	bus.Emit(ctx, events.EnterFormComplete, 0)
	bus.Emit(ctx, events.EnterFormComplete, 0)

	if diff := cmp.Diff([]string{"2", "1"}, got); diff != "" {
		t.Fatalf("iterations mismatch (-want +got):\n%s", diff)
	}
	left, _ := store.Get(ctx, session.KeyTestIterationsRemaining)
	if left != "1" {
		t.Fatalf("testIterationsRemaining = %q, want 1", left)
	}
	if diff := cmp.Diff([]string{"entered page 0 left 2", "entered page 0 left 1"}, runner.Logs()); diff != "" {
		t.Fatalf("logs mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_OnceAndAll(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	runner := New(bus, nil)

	script := `
var seen = [];
formApp.once("loadData", function () { console.log("once"); });
formApp.on("all", function (name) { seen.push(name); });
`
	if err := runner.Run(ctx, "all.js", script); err != nil {
		t.Fatalf("run: %v", err)
	}
	bus.Emit(ctx, events.LoadData)
	bus.Emit(ctx, events.LoadData)
	runner.Close()
	bus.Emit(ctx, events.LoadDataStart)

	if diff := cmp.Diff([]string{"once"}, runner.Logs()); diff != "" {
		t.Fatalf("once logs mismatch (-want +got):\n%s", diff)
	}
	if err := runner.Run(ctx, "check.js", `if (seen.length !== 2) { throw new Error("seen " + seen.length); }`); err != nil {
		t.Fatalf("catch-all callback count: %v", err)
	}
}

func TestRunner_SessionStorageNull(t *testing.T) {
	runner := New(events.NewBus(), session.NewMemoryStore(nil))
	err := runner.Run(context.Background(), "null.js", `
if (sessionStorage.getItem("encounter") !== null) { throw new Error("expected null"); }
sessionStorage.setItem("encounter", "E1");
sessionStorage.removeItem("encounter");
if (sessionStorage.getItem("encounter") !== null) { throw new Error("expected removal"); }
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunner_Timeout(t *testing.T) {
	runner := New(events.NewBus(), nil, WithTimeout(50*time.Millisecond))

	err := runner.Run(context.Background(), "spin.js", `for (;;) {}`)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if err := runner.Run(context.Background(), "after.js", `console.log("ok")`); err != nil {
		t.Fatalf("runtime should be usable after an interrupt: %v", err)
	}
}

func TestRunner_ScriptError(t *testing.T) {
	runner := New(events.NewBus(), nil)
	if err := runner.Run(context.Background(), "bad.js", `formApp.on()`); err == nil {
		t.Fatalf("expected a type error")
	}
}
