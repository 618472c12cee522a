// Package supervisor coordinates the kiosk browser, the supervised
// workload process, display detection, power monitoring, and the
// signal-driven shutdown sequence for the Vitrine daemon.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vitrinedev/vitrine/internal/config"
	"github.com/vitrinedev/vitrine/internal/events"
	"github.com/vitrinedev/vitrine/internal/power"
	"github.com/vitrinedev/vitrine/internal/proc"
	"github.com/vitrinedev/vitrine/internal/screen"
	"github.com/vitrinedev/vitrine/internal/workload"
)

// Reason distinguishes the two shutdown paths. Only the power-loss path
// ends in a machine power-off.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSignal
	ReasonPowerLoss
)

func (r Reason) String() string {
	switch r {
	case ReasonSignal:
		return "signal"
	case ReasonPowerLoss:
		return "power-loss"
	default:
		return "none"
	}
}

// Browser is the supervisor's view of a live browser instance.
type Browser interface {
	Pid() int
	Running() bool
	Close()
}

// Launcher starts a browser on a target screen.
type Launcher interface {
	Launch(ctx context.Context, sc screen.Info) (Browser, error)
}

// Config wires the supervisor's collaborators.
type Config struct {
	Config      *config.Config
	Command     string // workload command string
	Screens     screen.Query
	Launcher    Launcher
	Workloads   *workload.Manager
	PowerSource power.Source // nil soft-disables power monitoring
	Spawner     proc.Spawner // for the privileged shutdown command
	Bus         *events.Bus
	Logger      *slog.Logger
	PIDFile     string
}

// Supervisor owns all kiosk state. Every mutation of the current
// workload, browser, and screen name happens under one mutex; the
// shuttingDown latch transitions false to true at most once per process
// lifetime and is checked at the top of every reaction.
type Supervisor struct {
	mu         sync.Mutex
	cfg        *config.Config
	command    string
	screens    screen.Query
	launcher   Launcher
	workloads  *workload.Manager
	powerMon   *power.Monitor
	spawner    proc.Spawner
	bus        *events.Bus
	logger     *slog.Logger
	pidFile    string
	startedAt  time.Time

	workload   *workload.Process
	browser    Browser
	screenName string

	shutting    bool
	reason      Reason
	lastExit    int
	lastExitSet bool
	interrupted bool // we stopped the workload ourselves during shutdown

	shutdownCh chan struct{}
	screenStop chan struct{}
	screenDone chan struct{}
}

// New creates a supervisor.
func New(cfg Config) *Supervisor {
	s := &Supervisor{
		cfg:        cfg.Config,
		command:    cfg.Command,
		screens:    cfg.Screens,
		launcher:   cfg.Launcher,
		workloads:  cfg.Workloads,
		spawner:    cfg.Spawner,
		bus:        cfg.Bus,
		logger:     cfg.Logger,
		pidFile:    cfg.PIDFile,
		shutdownCh: make(chan struct{}),
		screenStop: make(chan struct{}),
		screenDone: make(chan struct{}),
	}
	s.powerMon = power.NewMonitor(
		cfg.PowerSource,
		time.Duration(cfg.Config.Power.PollSecs)*time.Second,
		func(status power.Status) {
			s.publish(events.PowerSampled, map[string]string{"status": status.String()})
		},
		func() {
			s.publish(events.PowerDisconnected, map[string]string{})
			s.beginShutdown(ReasonPowerLoss)
		},
		cfg.Logger.With("component", "power"),
	)
	return s
}

// beginShutdown sets the one-way shutdown latch. Re-entrant triggers are
// ignored; the first caller's reason wins.
func (s *Supervisor) beginShutdown(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutting {
		return
	}
	s.shutting = true
	s.reason = reason
	close(s.shutdownCh)
	s.logger.Info("shutdown requested", "reason", reason.String())
}

// IsShuttingDown reports whether the shutdown latch is set.
func (s *Supervisor) IsShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutting
}

// PowerStatus returns the last sampled power state.
func (s *Supervisor) PowerStatus() power.Status {
	return s.powerMon.Last()
}

// screenTick runs one display-detection poll reaction. Ticks are driven
// from a single goroutine and mutate supervisor state under the mutex,
// so no two ticks ever run concurrently with each other or with the
// shutdown sequencer.
func (s *Supervisor) screenTick(ctx context.Context) {
	s.mu.Lock()
	if s.shutting {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// External tool invocation happens outside the lock.
	screens := s.screens.DetectScreens()
	secondary, found := screen.FindSecondary(screens)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutting {
		return
	}

	// The user may have closed the browser window by hand.
	if s.browser != nil && !s.browser.Running() {
		s.logger.Info("browser exited externally", "screen", s.screenName)
		s.publish(events.BrowserVanished, map[string]string{"screen": s.screenName})
		s.browser = nil
		s.screenName = ""
	}

	switch {
	case found && s.browser == nil:
		// First detection, or recovery after the browser went away.
		s.publish(events.ScreenAttached, screenData(secondary))
		s.launchLocked(ctx, secondary)

	case !found && s.browser != nil:
		s.logger.Info("secondary screen disconnected", "screen", s.screenName)
		s.publish(events.ScreenDetached, map[string]string{"name": s.screenName})
		s.closeBrowserLocked()

	case found && s.browser != nil && secondary.Name != s.screenName:
		s.logger.Info("secondary screen changed",
			"old", s.screenName, "new", secondary.Name)
		s.publish(events.ScreenChanged, map[string]string{
			"old": s.screenName, "new": secondary.Name,
		})
		s.closeBrowserLocked()
		s.launchLocked(ctx, secondary)
	}
}

// launchLocked attempts a browser launch. On failure the supervisor
// stays browserless and the next tick retries.
func (s *Supervisor) launchLocked(ctx context.Context, sc screen.Info) {
	inst, err := s.launcher.Launch(ctx, sc)
	if err != nil {
		s.logger.Warn("browser launch failed", "screen", sc.Name, "error", err)
		s.publish(events.BrowserLaunchFailed, map[string]string{
			"screen": sc.Name, "error": err.Error(),
		})
		return
	}
	s.browser = inst
	s.screenName = sc.Name
	s.publish(events.BrowserLaunched, map[string]string{
		"screen": sc.Name, "pid": fmt.Sprintf("%d", inst.Pid()),
	})
}

// closeBrowserLocked closes the current browser and clears the screen
// name; the two are always set and cleared together.
func (s *Supervisor) closeBrowserLocked() {
	if s.browser == nil {
		return
	}
	name := s.screenName
	s.browser.Close()
	s.browser = nil
	s.screenName = ""
	s.publish(events.BrowserClosed, map[string]string{"screen": name})
}

func (s *Supervisor) startWorkloadLocked() error {
	p, err := s.workloads.Start(s.command)
	if err != nil {
		return err
	}
	s.workload = p
	s.publish(events.WorkloadStarted, map[string]string{
		"pid":     fmt.Sprintf("%d", p.Pid()),
		"command": s.command,
	})
	return nil
}

func (s *Supervisor) publish(t events.EventType, data map[string]string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: t, Data: data})
}

func screenData(sc screen.Info) map[string]string {
	return map[string]string{
		"name":   sc.Name,
		"width":  fmt.Sprintf("%d", sc.Width),
		"height": fmt.Sprintf("%d", sc.Height),
		"x":      fmt.Sprintf("%d", sc.XOffset),
		"y":      fmt.Sprintf("%d", sc.YOffset),
	}
}
