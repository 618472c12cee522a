// Package proc spawns and tracks child OS processes behind a narrow
// interface so lifecycle logic can be tested without real processes.
package proc

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// SpawnConfig holds the parameters needed to spawn a child process.
type SpawnConfig struct {
	Command string    // absolute path or $PATH-resolved binary
	Args    []string  // command arguments (not including argv[0])
	Dir     string    // working directory
	Env     []string  // environment variables (KEY=VALUE); nil inherits
	Stdin   io.Reader // stdin source (nil = /dev/null)
	Stdout  io.Writer // stdout destination (nil = discard)
	Stderr  io.Writer // stderr destination (nil = discard)
}

// Spawned represents a running child process.
type Spawned interface {
	Pid() int
	// Wait blocks until the process exits and returns its exit code.
	// Safe to call from multiple goroutines; all callers observe the
	// same result.
	Wait() int
	Signal(sig os.Signal) error
}

// Spawner creates child processes. Implementations include ExecSpawner
// (real) and MockSpawner (testing).
type Spawner interface {
	Spawn(cfg SpawnConfig) (Spawned, error)
}

// ExecSpawner spawns real OS processes via os/exec.
type ExecSpawner struct{}

type execProcess struct {
	cmd      *exec.Cmd
	waitOnce sync.Once
	exitCode int
}

// Spawn starts a real child process with the given config.
func (s *ExecSpawner) Spawn(cfg SpawnConfig) (Spawned, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}
	cmd.Stdin = cfg.Stdin
	cmd.Stdout = cfg.Stdout
	cmd.Stderr = cfg.Stderr

	// Own process group so signals target the child tree, not us.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd}, nil
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Wait() int {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		state := p.cmd.ProcessState
		if state == nil {
			p.exitCode = -1
			return
		}
		code := state.ExitCode()
		if code < 0 {
			// Killed by signal.
			if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				code = 128 + int(ws.Signal())
			} else if err != nil {
				code = -1
			}
		}
		p.exitCode = code
	})
	return p.exitCode
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}
