// Package power watches the machine's AC power state and raises an
// edge-triggered disconnect event when the supply switches to battery.
package power

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Status is the sampled power state.
type Status int

const (
	Unknown Status = iota
	AC
	Battery
)

var statusNames = [...]string{"UNKNOWN", "AC", "BATTERY"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// Source reads the current power status. Implementations fail soft and
// report Unknown on read errors.
type Source interface {
	Read() Status
}

// adapterPrefixes are the sysfs names of AC adapters exposing an
// "online" flag file.
var adapterPrefixes = []string{"AC", "ACAD", "ADP"}

// batteryPrefix is the sysfs name of batteries exposing a textual
// "status" file.
const batteryPrefix = "BAT"

// DiscoverSource scans a power-supply directory tree (normally
// /sys/class/power_supply) for a usable power-state source. AC adapters
// are preferred over batteries. Returns nil when the platform exposes
// neither; monitoring is then soft-disabled, not fatal.
func DiscoverSource(supplyPath string, logger *slog.Logger) Source {
	entries, err := os.ReadDir(supplyPath)
	if err != nil {
		logger.Warn("power supply path unreadable", "path", supplyPath, "error", err)
		return nil
	}

	var battery Source
	for _, e := range entries {
		name := e.Name()

		for _, prefix := range adapterPrefixes {
			if strings.HasPrefix(name, prefix) {
				online := filepath.Join(supplyPath, name, "online")
				if _, err := os.Stat(online); err == nil {
					logger.Info("power source found", "adapter", name)
					return &onlineFileSource{path: online}
				}
			}
		}

		if battery == nil && strings.HasPrefix(name, batteryPrefix) {
			status := filepath.Join(supplyPath, name, "status")
			if _, err := os.Stat(status); err == nil {
				logger.Info("power source found", "battery", name)
				battery = &statusFileSource{path: status}
			}
		}
	}

	if battery == nil {
		logger.Warn("no power source found, power monitoring disabled", "path", supplyPath)
	}
	return battery
}

// onlineFileSource reads an adapter "online" flag file: "1" means AC.
type onlineFileSource struct {
	path string
}

func (s *onlineFileSource) Read() Status {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Unknown
	}
	switch strings.TrimSpace(string(data)) {
	case "1":
		return AC
	case "0":
		return Battery
	default:
		return Unknown
	}
}

// statusFileSource reads a battery "status" file: Charging and Full mean
// the machine is on AC, Discharging means battery.
type statusFileSource struct {
	path string
}

func (s *statusFileSource) Read() Status {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Unknown
	}
	switch strings.TrimSpace(string(data)) {
	case "Charging", "Full", "Not charging":
		return AC
	case "Discharging":
		return Battery
	default:
		return Unknown
	}
}

// Monitor samples a Source at a fixed interval and invokes onDisconnect
// exactly once per AC-to-Battery transition. Repeated battery samples and
// Unknown states never fire the callback. onSample, when set, observes
// every sampled status including the priming read at Start.
type Monitor struct {
	source       Source
	interval     time.Duration
	onSample     func(Status)
	onDisconnect func()
	logger       *slog.Logger

	mu      sync.Mutex
	last    Status
	stopCh  chan struct{}
	done    chan struct{}
	stopped bool
	started bool
}

// NewMonitor creates a power monitor. A nil source yields a monitor that
// always reports Unknown and never fires either callback.
func NewMonitor(source Source, interval time.Duration, onSample func(Status), onDisconnect func(), logger *slog.Logger) *Monitor {
	return &Monitor{
		source:       source,
		interval:     interval,
		onSample:     onSample,
		onDisconnect: onDisconnect,
		logger:       logger,
		last:         Unknown,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start begins polling. It is a no-op without a source.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.started = true
	if m.source == nil {
		close(m.done)
		m.mu.Unlock()
		return
	}

	// Prime the edge detector so a machine already on battery at start
	// does not immediately trigger a shutdown.
	m.last = m.source.Read()
	status := m.last
	m.mu.Unlock()

	if m.onSample != nil {
		m.onSample(status)
	}
	m.logger.Info("power monitoring started", "status", status.String(), "interval", m.interval)

	go m.run()
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	status := m.source.Read()

	m.mu.Lock()
	prev := m.last
	m.last = status
	m.mu.Unlock()

	if m.onSample != nil {
		m.onSample(status)
	}
	if prev == AC && status == Battery {
		m.logger.Warn("AC power lost")
		if m.onDisconnect != nil {
			m.onDisconnect()
		}
	}
}

// Last returns the most recently sampled status.
func (m *Monitor) Last() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Stop halts polling. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	started := m.started && m.source != nil
	m.mu.Unlock()

	if started {
		close(m.stopCh)
		<-m.done
	}
}
