package proc

import (
	"os"
	"sync"
)

// MockSpawner is a test double for Spawner.
type MockSpawner struct {
	SpawnFn    func(cfg SpawnConfig) (Spawned, error)
	SpawnCalls []SpawnConfig
}

// Spawn records the call and delegates to SpawnFn.
func (m *MockSpawner) Spawn(cfg SpawnConfig) (Spawned, error) {
	m.SpawnCalls = append(m.SpawnCalls, cfg)
	if m.SpawnFn != nil {
		return m.SpawnFn(cfg)
	}
	return NewMockProcess(1000 + len(m.SpawnCalls)), nil
}

// MockProcess is a test double for Spawned. It stays alive until Exit is
// called.
type MockProcess struct {
	mu       sync.Mutex
	pid      int
	exitCode int
	exited   chan struct{}
	signals  []os.Signal
	SignalFn func(os.Signal) error
}

// NewMockProcess creates a MockProcess with the given PID.
func NewMockProcess(pid int) *MockProcess {
	return &MockProcess{
		pid:    pid,
		exited: make(chan struct{}),
	}
}

func (p *MockProcess) Pid() int { return p.pid }

// Wait blocks until Exit is called, then returns the exit code.
func (p *MockProcess) Wait() int {
	<-p.exited
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Signal records the delivered signal.
func (p *MockProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	fn := p.SignalFn
	p.mu.Unlock()
	if fn != nil {
		return fn(sig)
	}
	return nil
}

// Signals returns the signals delivered so far.
func (p *MockProcess) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]os.Signal, len(p.signals))
	copy(out, p.signals)
	return out
}

// Exit makes the mock process terminate with the given exit code.
// Calling Exit more than once is a no-op.
func (p *MockProcess) Exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.exited:
	default:
		p.exitCode = code
		close(p.exited)
	}
}

// Exited reports whether Exit has been called.
func (p *MockProcess) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}
