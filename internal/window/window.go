// Package window locates the kiosk browser's window and pins it
// full-screen onto a target rectangle. Window-manager tooling differs
// between display servers, so each tool is a strategy behind the
// Positioner interface.
package window

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Rect is a target rectangle in absolute screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Match identifies the window to position. Fields are tried in priority
// order: process identity first, then application-name substring, then
// title substring.
type Match struct {
	PID       int
	NameHint  string
	TitleHint string
}

// Positioner moves a window onto a target rectangle and makes it
// full-screen there. Failure is non-fatal for callers: the browser keeps
// running, possibly mispositioned.
type Positioner interface {
	Position(ctx context.Context, target Rect, match Match) error
}

// Runner executes an external window-manager command and returns its
// combined text output. Swappable for tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs real commands via os/exec.
type ExecRunner struct{}

// Run executes the command and returns stdout.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

// Config tunes positioning retry behavior.
type Config struct {
	Attempts    int           // retry budget per Position call
	StepDelay   time.Duration // pause between tool invocations
	WarmupDelay time.Duration // extra pause before the first attempt ever
}

func (c *Config) applyDefaults() {
	if c.Attempts == 0 {
		c.Attempts = 3
	}
	if c.StepDelay == 0 {
		c.StepDelay = 500 * time.Millisecond
	}
	if c.WarmupDelay == 0 {
		// The window manager may not be ready right after boot.
		c.WarmupDelay = 8 * time.Second
	}
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// containsFold reports whether haystack contains needle, ignoring case.
// An empty needle never matches; hints are optional.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
