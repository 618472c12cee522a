package window

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// wmctrlWindow is one row of `wmctrl -lpGx` output.
type wmctrlWindow struct {
	ID    string
	PID   int
	X     int
	Class string
	Title string
}

// WmctrlPositioner positions windows on X11 using wmctrl.
type WmctrlPositioner struct {
	runner Runner
	logger *slog.Logger
	cfg    Config

	mu       sync.Mutex
	warmedUp bool
}

// NewWmctrlPositioner creates an X11 positioner backed by wmctrl.
func NewWmctrlPositioner(runner Runner, cfg Config, logger *slog.Logger) *WmctrlPositioner {
	cfg.applyDefaults()
	return &WmctrlPositioner{runner: runner, logger: logger, cfg: cfg}
}

// Position locates the matching window, clears its fullscreen flag, moves
// and resizes it onto target, verifies the new horizontal position falls
// within the target bounds, and re-applies fullscreen. Retries up to the
// configured attempt budget; the first call ever waits an extra warm-up
// delay to tolerate a window manager that is still starting.
func (p *WmctrlPositioner) Position(ctx context.Context, target Rect, match Match) error {
	p.mu.Lock()
	if !p.warmedUp {
		p.warmedUp = true
		p.mu.Unlock()
		sleep(ctx, p.cfg.WarmupDelay)
	} else {
		p.mu.Unlock()
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if attempt > 1 {
			sleep(ctx, p.cfg.StepDelay)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.positionOnce(ctx, target, match); err != nil {
			lastErr = err
			p.logger.Warn("window positioning attempt failed",
				"attempt", attempt, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("window not positioned after %d attempts: %w", p.cfg.Attempts, lastErr)
}

func (p *WmctrlPositioner) positionOnce(ctx context.Context, target Rect, match Match) error {
	win, err := p.findWindow(ctx, match)
	if err != nil {
		return err
	}

	// Clear any fullscreen flag first; a fullscreen window ignores moves.
	if _, err := p.runner.Run(ctx, "wmctrl", "-i", "-r", win.ID, "-b", "remove,fullscreen"); err != nil {
		return fmt.Errorf("remove fullscreen: %w", err)
	}
	sleep(ctx, p.cfg.StepDelay)

	geometry := fmt.Sprintf("0,%d,%d,%d,%d", target.X, target.Y, target.Width, target.Height)
	if _, err := p.runner.Run(ctx, "wmctrl", "-i", "-r", win.ID, "-e", geometry); err != nil {
		return fmt.Errorf("move window: %w", err)
	}
	sleep(ctx, p.cfg.StepDelay)

	moved, err := p.findWindow(ctx, match)
	if err != nil {
		return err
	}
	if moved.X < target.X || moved.X >= target.X+target.Width {
		return fmt.Errorf("window at x=%d, outside target [%d,%d)",
			moved.X, target.X, target.X+target.Width)
	}

	if _, err := p.runner.Run(ctx, "wmctrl", "-i", "-r", win.ID, "-b", "add,fullscreen"); err != nil {
		return fmt.Errorf("add fullscreen: %w", err)
	}

	p.logger.Info("window positioned",
		"window", win.ID, "x", target.X, "y", target.Y,
		"width", target.Width, "height", target.Height)
	return nil
}

func (p *WmctrlPositioner) findWindow(ctx context.Context, match Match) (wmctrlWindow, error) {
	out, err := p.runner.Run(ctx, "wmctrl", "-lpGx")
	if err != nil {
		return wmctrlWindow{}, fmt.Errorf("list windows: %w", err)
	}

	windows := parseWmctrlList(out)

	// Process identity is the strongest signal, then the application
	// class, then the window title.
	for _, w := range windows {
		if match.PID != 0 && w.PID == match.PID {
			return w, nil
		}
	}
	for _, w := range windows {
		if containsFold(w.Class, match.NameHint) {
			return w, nil
		}
	}
	for _, w := range windows {
		if containsFold(w.Title, match.TitleHint) {
			return w, nil
		}
	}
	return wmctrlWindow{}, fmt.Errorf("no window matching pid=%d name=%q title=%q",
		match.PID, match.NameHint, match.TitleHint)
}

// parseWmctrlList parses `wmctrl -lpGx` output. Each line is:
//
//	<id> <desktop> <pid> <x> <y> <w> <h> <class> <host> <title...>
func parseWmctrlList(out string) []wmctrlWindow {
	var windows []wmctrlWindow
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		pid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		x, err := strconv.Atoi(fields[3])
		if err != nil {
			continue
		}
		windows = append(windows, wmctrlWindow{
			ID:    fields[0],
			PID:   pid,
			X:     x,
			Class: fields[7],
			Title: strings.Join(fields[9:], " "),
		})
	}
	return windows
}
