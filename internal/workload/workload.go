// Package workload manages the single user-specified workload process
// supervised by Vitrine.
package workload

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/vitrinedev/vitrine/internal/proc"
)

// stopPollInterval is the granularity at which a graceful stop checks
// for workload exit.
const stopPollInterval = 100 * time.Millisecond

// Manager spawns workload processes with their standard streams connected
// directly to the supervisor's own, so the operator sees workload output
// live.
type Manager struct {
	spawner    proc.Spawner
	logger     *slog.Logger
	killSettle time.Duration
}

// NewManager creates a workload manager.
func NewManager(spawner proc.Spawner, killSettle time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		spawner:    spawner,
		logger:     logger,
		killSettle: killSettle,
	}
}

// Start parses the command string and spawns it. Parse failure (including
// an empty command) is an error; the caller treats it as fatal.
func (m *Manager) Start(command string) (*Process, error) {
	tokens, err := proc.SplitCommand(command)
	if err != nil {
		return nil, fmt.Errorf("workload command: %w", err)
	}

	spawned, err := m.spawner.Spawn(proc.SpawnConfig{
		Command: tokens[0],
		Args:    tokens[1:],
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("spawn workload: %w", err)
	}

	p := &Process{
		command: command,
		spawned: spawned,
		logger:  m.logger,
		settle:  m.killSettle,
		done:    make(chan struct{}),
	}

	go func() {
		code := spawned.Wait()
		p.mu.Lock()
		p.exitCode = code
		p.exited = true
		p.mu.Unlock()
		close(p.done)
	}()

	m.logger.Info("workload started", "pid", spawned.Pid(), "command", command)
	return p, nil
}

// Process is one spawned workload process. Liveness derives from the exit
// code being unset; the exit code transitions unset-to-set exactly once.
type Process struct {
	command string
	spawned proc.Spawned
	logger  *slog.Logger
	settle  time.Duration
	done    chan struct{}

	mu       sync.Mutex
	exited   bool
	exitCode int
}

// Command returns the command string this process was spawned from.
func (p *Process) Command() string { return p.command }

// Pid returns the OS process ID.
func (p *Process) Pid() int { return p.spawned.Pid() }

// Running reports whether the process has not yet been observed to exit.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.exited
}

// ExitCode returns the exit code and whether it has been set.
func (p *Process) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.exited
}

// Done returns a channel closed when the process exits.
func (p *Process) Done() <-chan struct{} { return p.done }

// Interrupt sends SIGINT to request voluntary termination.
func (p *Process) Interrupt() error {
	return p.spawned.Signal(syscall.SIGINT)
}

// GracefulStop sends SIGINT and polls for exit up to the given ceiling,
// escalating to SIGKILL plus a short settle delay if the ceiling is
// reached. Returns true when the process exited voluntarily. On the
// power-loss path this wait gates the machine power-off.
func (p *Process) GracefulStop(ceiling time.Duration) bool {
	if !p.Running() {
		return true
	}

	p.logger.Info("stopping workload", "pid", p.Pid(), "ceiling", ceiling)
	if err := p.Interrupt(); err != nil {
		p.logger.Warn("interrupt failed", "error", err)
	}

	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()
	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			code, _ := p.ExitCode()
			p.logger.Info("workload stopped gracefully", "exit_code", code)
			return true
		case <-deadline.C:
			p.logger.Warn("workload stop ceiling reached, killing", "pid", p.Pid())
			if err := p.spawned.Signal(syscall.SIGKILL); err != nil {
				p.logger.Warn("kill failed", "error", err)
			}
			// Give the kernel a moment to reap before the caller
			// proceeds to power off the machine.
			select {
			case <-p.done:
			case <-time.After(p.settle):
			}
			return false
		case <-ticker.C:
			if !p.Running() {
				code, _ := p.ExitCode()
				p.logger.Info("workload stopped gracefully", "exit_code", code)
				return true
			}
		}
	}
}
