// Package browser launches and terminates the kiosk browser instance
// pinned to the secondary display.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/vitrinedev/vitrine/internal/proc"
	"github.com/vitrinedev/vitrine/internal/screen"
	"github.com/vitrinedev/vitrine/internal/window"
)

// Config holds browser launch settings.
type Config struct {
	URL          string        // fixed kiosk destination
	Candidates   []string      // preference-ordered executable names
	ProfileDir   string        // persistent kiosk profile directory
	LaunchCheck  time.Duration // delay before the immediate-crash check
	CloseTimeout time.Duration // graceful close ceiling before SIGKILL
}

// Launcher starts browser instances.
type Launcher struct {
	cfg        Config
	spawner    proc.Spawner
	positioner window.Positioner
	logger     *slog.Logger

	// lookPath is swappable for tests; defaults to exec.LookPath.
	lookPath func(string) (string, error)

	profileOnce sync.Once
	profileErr  error
}

// NewLauncher creates a browser launcher.
func NewLauncher(cfg Config, spawner proc.Spawner, positioner window.Positioner, logger *slog.Logger) *Launcher {
	return &Launcher{
		cfg:        cfg,
		spawner:    spawner,
		positioner: positioner,
		logger:     logger,
		lookPath:   exec.LookPath,
	}
}

// Launch starts the browser in kiosk mode on the given screen and
// positions its window there. Returns an error when no browser is
// installed, the spawn fails, or the process dies immediately; the
// caller retries on a later screen poll. A positioning failure does not
// invalidate the launch.
func (l *Launcher) Launch(ctx context.Context, sc screen.Info) (*Instance, error) {
	binary, name, err := l.findExecutable()
	if err != nil {
		return nil, err
	}

	l.profileOnce.Do(func() {
		l.profileErr = ensureProfile(l.cfg.ProfileDir)
	})
	if l.profileErr != nil {
		return nil, fmt.Errorf("kiosk profile: %w", l.profileErr)
	}

	args := []string{
		"--kiosk",
		"--user-data-dir=" + l.cfg.ProfileDir,
		"--no-first-run",
		"--noerrdialogs",
		"--disable-infobars",
		"--disable-session-crashed-bubble",
		"--disable-component-update",
		"--check-for-update-interval=31536000",
		"--autoplay-policy=no-user-gesture-required",
		fmt.Sprintf("--window-position=%d,%d", sc.XOffset, sc.YOffset),
		fmt.Sprintf("--window-size=%d,%d", sc.Width, sc.Height),
		l.cfg.URL,
	}

	spawned, err := l.spawner.Spawn(proc.SpawnConfig{
		Command: binary,
		Args:    args,
	})
	if err != nil {
		return nil, fmt.Errorf("spawn browser: %w", err)
	}

	inst := &Instance{
		spawned:      spawned,
		closeTimeout: l.cfg.CloseTimeout,
		logger:       l.logger,
		done:         make(chan struct{}),
	}
	go func() {
		spawned.Wait()
		close(inst.done)
	}()

	// Catch an immediate crash (bad profile, missing display) before
	// reporting the launch as successful.
	select {
	case <-inst.done:
		return nil, fmt.Errorf("browser exited immediately after launch")
	case <-time.After(l.cfg.LaunchCheck):
	}

	l.logger.Info("browser launched",
		"binary", binary, "pid", spawned.Pid(), "screen", sc.Name, "url", l.cfg.URL)

	target := window.Rect{X: sc.XOffset, Y: sc.YOffset, Width: sc.Width, Height: sc.Height}
	match := window.Match{PID: spawned.Pid(), NameHint: name, TitleHint: l.cfg.URL}
	if err := l.positioner.Position(ctx, target, match); err != nil {
		l.logger.Warn("browser window not positioned", "error", err)
	}

	return inst, nil
}

func (l *Launcher) findExecutable() (path, name string, err error) {
	for _, candidate := range l.cfg.Candidates {
		if p, err := l.lookPath(candidate); err == nil {
			return p, filepath.Base(candidate), nil
		}
	}
	return "", "", fmt.Errorf("no browser found among %v", l.cfg.Candidates)
}

// Instance is one live browser process. At most one exists at a time,
// owned by the supervisor.
type Instance struct {
	spawned      proc.Spawned
	closeTimeout time.Duration
	logger       *slog.Logger
	done         chan struct{}
}

// Pid returns the browser's OS process ID.
func (i *Instance) Pid() int { return i.spawned.Pid() }

// Running reports whether the browser process is still alive. It turns
// false when the user closes the window or the process dies externally.
func (i *Instance) Running() bool {
	select {
	case <-i.done:
		return false
	default:
		return true
	}
}

// Close terminates the browser: SIGTERM, then a wait for exit up to the
// close timeout, then SIGKILL. The process is gone before Close returns.
func (i *Instance) Close() {
	if !i.Running() {
		return
	}

	i.logger.Info("closing browser", "pid", i.Pid())
	if err := i.spawned.Signal(syscall.SIGTERM); err != nil {
		i.logger.Warn("browser terminate failed", "error", err)
	}

	deadline := time.NewTimer(i.closeTimeout)
	defer deadline.Stop()

	select {
	case <-i.done:
		i.logger.Info("browser closed")
	case <-deadline.C:
		i.logger.Warn("browser close timeout, killing", "pid", i.Pid())
		if err := i.spawned.Signal(syscall.SIGKILL); err != nil {
			i.logger.Warn("browser kill failed", "error", err)
		}
		<-i.done
	}
}
