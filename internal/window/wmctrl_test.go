package window

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// fakeRunner records invocations and delegates to a handler.
type fakeRunner struct {
	calls   [][]string
	handler func(name string, args []string) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.handler(name, args)
}

func fastConfig() Config {
	return Config{Attempts: 2, StepDelay: time.Millisecond, WarmupDelay: time.Millisecond}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wmctrlLine(id string, pid, x int, class, title string) string {
	return fmt.Sprintf("%s  0 %d %d 0 1920 1080 %s host %s", id, pid, x, class, title)
}

func TestWmctrlPositionSuccess(t *testing.T) {
	target := Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	lists := 0
	r := &fakeRunner{handler: func(name string, args []string) (string, error) {
		if len(args) == 1 && args[0] == "-lpGx" {
			lists++
			x := 0
			if lists > 1 {
				x = 1920 // moved
			}
			return wmctrlLine("0x04000007", 4242, x, "chromium.Chromium", "kiosk - Chromium") + "\n", nil
		}
		return "", nil
	}}

	p := NewWmctrlPositioner(r, fastConfig(), discard())
	err := p.Position(context.Background(), target, Match{PID: 4242})
	if err != nil {
		t.Fatal(err)
	}

	var commands []string
	for _, c := range r.calls {
		commands = append(commands, strings.Join(c, " "))
	}
	want := []string{
		"wmctrl -lpGx",
		"wmctrl -i -r 0x04000007 -b remove,fullscreen",
		"wmctrl -i -r 0x04000007 -e 0,1920,0,1920,1080",
		"wmctrl -lpGx",
		"wmctrl -i -r 0x04000007 -b add,fullscreen",
	}
	if len(commands) != len(want) {
		t.Fatalf("commands = %q, want %q", commands, want)
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Fatalf("command %d = %q, want %q", i, commands[i], want[i])
		}
	}
}

func TestWmctrlPositionRetriesThenSucceeds(t *testing.T) {
	target := Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	lists := 0
	r := &fakeRunner{handler: func(name string, args []string) (string, error) {
		if len(args) == 1 && args[0] == "-lpGx" {
			lists++
			if lists == 1 {
				// Window not mapped yet on the first attempt.
				return "", nil
			}
			x := 0
			if lists > 2 {
				x = 2100
			}
			return wmctrlLine("0x1", 77, x, "chromium.Chromium", "kiosk") + "\n", nil
		}
		return "", nil
	}}

	p := NewWmctrlPositioner(r, fastConfig(), discard())
	if err := p.Position(context.Background(), target, Match{PID: 77}); err != nil {
		t.Fatal(err)
	}
}

func TestWmctrlPositionVerifyFailure(t *testing.T) {
	target := Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	// The window never leaves the primary screen.
	r := &fakeRunner{handler: func(name string, args []string) (string, error) {
		if len(args) == 1 && args[0] == "-lpGx" {
			return wmctrlLine("0x1", 77, 0, "chromium.Chromium", "kiosk") + "\n", nil
		}
		return "", nil
	}}

	p := NewWmctrlPositioner(r, fastConfig(), discard())
	err := p.Position(context.Background(), target, Match{PID: 77})
	if err == nil {
		t.Fatal("expected verification failure")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWmctrlPositionListError(t *testing.T) {
	r := &fakeRunner{handler: func(name string, args []string) (string, error) {
		return "", errors.New("wmctrl: command not found")
	}}

	p := NewWmctrlPositioner(r, fastConfig(), discard())
	if err := p.Position(context.Background(), Rect{Width: 100, Height: 100}, Match{PID: 1}); err == nil {
		t.Fatal("expected error")
	}
}

func TestWmctrlFindWindowPriority(t *testing.T) {
	out := strings.Join([]string{
		wmctrlLine("0x1", 100, 0, "term.Term", "terminal"),
		wmctrlLine("0x2", 200, 0, "chromium.Chromium", "news site"),
		wmctrlLine("0x3", 300, 0, "other.Other", "chromium fallback title"),
	}, "\n") + "\n"

	r := &fakeRunner{handler: func(string, []string) (string, error) { return out, nil }}
	p := NewWmctrlPositioner(r, fastConfig(), discard())

	tests := []struct {
		name  string
		match Match
		want  string
	}{
		{"by pid", Match{PID: 300, NameHint: "chromium"}, "0x3"},
		{"by class", Match{PID: 999, NameHint: "chromium"}, "0x2"},
		{"by title", Match{PID: 999, NameHint: "firefox", TitleHint: "news"}, "0x2"},
		{"title fallback", Match{TitleHint: "fallback"}, "0x3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := p.findWindow(context.Background(), tt.match)
			if err != nil {
				t.Fatal(err)
			}
			if w.ID != tt.want {
				t.Fatalf("found %s, want %s", w.ID, tt.want)
			}
		})
	}

	if _, err := p.findWindow(context.Background(), Match{PID: 999, NameHint: "nope", TitleHint: "nope"}); err == nil {
		t.Fatal("expected no-match error")
	}
}

func TestParseWmctrlList(t *testing.T) {
	out := "0x04000007  0 1234 1920 0 1920 1080 chromium.Chromium kiosk1 Dashboard - Chromium\n" +
		"short line\n" +
		"0xbad  0 notapid 0 0 1 1 a.B host title\n"

	windows := parseWmctrlList(out)
	if len(windows) != 1 {
		t.Fatalf("parsed %d windows, want 1", len(windows))
	}
	w := windows[0]
	if w.ID != "0x04000007" || w.PID != 1234 || w.X != 1920 {
		t.Fatalf("unexpected window: %#v", w)
	}
	if w.Class != "chromium.Chromium" || w.Title != "Dashboard - Chromium" {
		t.Fatalf("unexpected class/title: %#v", w)
	}
}

func TestContainsFold(t *testing.T) {
	if !containsFold("Chromium-Browser", "chromium") {
		t.Fatal("case-insensitive match failed")
	}
	if containsFold("anything", "") {
		t.Fatal("empty needle must not match")
	}
}
