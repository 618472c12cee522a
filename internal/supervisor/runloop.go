package supervisor

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/vitrinedev/vitrine/internal/events"
	"github.com/vitrinedev/vitrine/internal/proc"
)

// Run starts the supervisor and blocks until shutdown completes. The
// returned exit code is 0 on a clean manual termination; when the
// workload had already exited on its own before shutdown began, its last
// exit code is echoed. A forced exit on a second termination signal
// bypasses Run entirely.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	if err := WritePIDFile(s.pidFile); err != nil {
		return 1, err
	}
	defer RemovePIDFile(s.pidFile)

	s.mu.Lock()
	s.startedAt = time.Now()
	if err := s.startWorkloadLocked(); err != nil {
		s.mu.Unlock()
		return 1, err
	}
	s.mu.Unlock()

	// SIGTERM and SIGINT are handled identically. The buffer leaves room
	// for the double-signal fast path while a graceful stop is running.
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	s.publish(events.SupervisorRunning, map[string]string{})
	s.logger.Info("supervisor running", "pid", os.Getpid(), "command", s.command)

	// Initial best-effort browser launch, then the recurring poll.
	s.screenTick(ctx)
	go s.screenLoop(ctx)

	s.powerMon.Start()

	for {
		s.mu.Lock()
		var workloadDone <-chan struct{}
		if s.workload != nil {
			workloadDone = s.workload.Done()
		}
		s.mu.Unlock()

		select {
		case sig := <-sigCh:
			s.handleSignal(sig)
		case <-s.shutdownCh:
			return s.shutdown(sigCh), nil
		case <-workloadDone:
			s.handleWorkloadExit(sigCh)
		}
	}
}

// screenLoop drives recurring screen ticks from a single goroutine, so
// a slow tick delays the next one instead of overlapping it.
func (s *Supervisor) screenLoop(ctx context.Context) {
	defer close(s.screenDone)

	interval := time.Duration(s.cfg.Kiosk.ScreenPollSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.screenStop:
			return
		case <-ticker.C:
			s.screenTick(ctx)
		}
	}
}

// handleSignal reacts to a termination signal: the first sets the
// shutdown latch, a second while shutting down forces immediate exit.
func (s *Supervisor) handleSignal(sig os.Signal) {
	s.logger.Info("received signal", "signal", sig.String())
	if s.IsShuttingDown() {
		s.logger.Warn("second termination signal, forcing exit")
		os.Exit(1)
	}
	s.beginShutdown(ReasonSignal)
}

// handleWorkloadExit records the exit, waits the fixed restart delay,
// and respawns the identical command unless the shutdown latch sets
// first.
func (s *Supervisor) handleWorkloadExit(sigCh <-chan os.Signal) {
	s.mu.Lock()
	p := s.workload
	if p == nil {
		s.mu.Unlock()
		return
	}
	code, _ := p.ExitCode()
	s.lastExit = code
	s.lastExitSet = true
	s.workload = nil
	shutting := s.shutting
	s.mu.Unlock()

	s.logger.Info("workload exited", "exit_code", code)
	s.publish(events.WorkloadExited, map[string]string{
		"exit_code": strconv.Itoa(code),
	})

	if shutting {
		return
	}

	delay := time.Duration(s.cfg.Workload.RestartDelaySecs) * time.Second
	s.logger.Info("restarting workload", "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.shutdownCh:
		// Latch set during the wait: no respawn.
		return
	case sig := <-sigCh:
		s.handleSignal(sig)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutting {
		return
	}
	s.publish(events.WorkloadRestarting, map[string]string{"command": s.command})
	if err := s.startWorkloadLocked(); err != nil {
		// The command spawned before, so a respawn failure is
		// environmental; the exit handler path will not fire again,
		// so surface it loudly and shut down.
		s.logger.Error("workload respawn failed", "error", err)
		go s.beginShutdown(ReasonSignal)
	}
}

// shutdown executes the multi-stage sequence exactly once:
//
//  1. Halt screen polling (no further browser churn).
//  2. Stop the workload: unbounded wait on the signal path, bounded
//     graceful stop on the power-loss path.
//  3. Close the browser, graceful then forced.
//  4. On the power-loss path only, issue the machine power-off command.
func (s *Supervisor) shutdown(sigCh <-chan os.Signal) int {
	s.mu.Lock()
	reason := s.reason
	s.mu.Unlock()

	s.logger.Info("shutting down", "reason", reason.String())
	s.publish(events.SupervisorStopping, map[string]string{"reason": reason.String()})

	// A second signal during any of the waits below forces exit.
	go func() {
		for range sigCh {
			s.logger.Warn("second termination signal, forcing exit")
			os.Exit(1)
		}
	}()

	close(s.screenStop)
	<-s.screenDone
	s.powerMon.Stop()

	s.mu.Lock()
	wl := s.workload
	s.mu.Unlock()

	if wl != nil && wl.Running() {
		s.mu.Lock()
		s.interrupted = true
		s.mu.Unlock()

		if reason == ReasonPowerLoss {
			ceiling := time.Duration(s.cfg.Workload.StopTimeoutSecs) * time.Second
			graceful := wl.GracefulStop(ceiling)
			if !graceful {
				s.logger.Warn("workload was force-killed")
			}
		} else {
			// Manual operator termination: the workload gets as long
			// as it needs.
			s.logger.Info("interrupting workload", "pid", wl.Pid())
			if err := wl.Interrupt(); err != nil {
				s.logger.Warn("interrupt failed", "error", err)
			}
			<-wl.Done()
		}
		code, _ := wl.ExitCode()
		s.publish(events.WorkloadExited, map[string]string{"exit_code": strconv.Itoa(code)})
	}

	s.mu.Lock()
	s.workload = nil
	s.closeBrowserLocked()
	s.mu.Unlock()

	if reason == ReasonPowerLoss {
		s.powerOff()
	}

	s.logger.Info("shutdown complete")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.interrupted && s.lastExitSet {
		// The workload had already exited on its own; echo its status.
		return s.lastExit
	}
	return 0
}

// powerOff issues the privileged machine shutdown command. Failure is
// logged, not retried: the operator must pre-provision passwordless
// privilege for the configured command.
func (s *Supervisor) powerOff() {
	command := s.cfg.Power.ShutdownCommand
	tokens, err := proc.SplitCommand(command)
	if err != nil {
		s.logger.Error("invalid shutdown command", "command", command, "error", err)
		return
	}

	s.logger.Warn("powering off machine", "command", command)
	spawned, err := s.spawner.Spawn(proc.SpawnConfig{
		Command: tokens[0],
		Args:    tokens[1:],
	})
	if err != nil {
		s.logger.Error("shutdown command failed", "command", command, "error", err)
		return
	}
	if code := spawned.Wait(); code != 0 {
		s.logger.Error("shutdown command exited non-zero", "command", command, "exit_code", code)
	}
}
