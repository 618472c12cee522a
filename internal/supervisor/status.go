package supervisor

import (
	"time"

	"github.com/vitrinedev/vitrine/internal/screen"
)

// WorkloadStatus is the workload portion of a status snapshot.
type WorkloadStatus struct {
	Command  string `json:"command"`
	Running  bool   `json:"running"`
	PID      int    `json:"pid,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// BrowserStatus is the browser portion of a status snapshot.
type BrowserStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Screen  string `json:"screen,omitempty"`
}

// Status is a point-in-time snapshot of supervisor state for the
// read-only status API.
type Status struct {
	State         string        `json:"state"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Workload      WorkloadStatus `json:"workload"`
	Browser       BrowserStatus  `json:"browser"`
	Power         string         `json:"power"`
	Screens       []screen.Info  `json:"screens"`
}

// Snapshot returns the current supervisor status. The screen list is
// re-queried, so the call may invoke the display tool.
func (s *Supervisor) Snapshot() Status {
	screens := s.screens.DetectScreens()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:   "running",
		Power:   s.powerMon.Last().String(),
		Screens: screens,
		Workload: WorkloadStatus{
			Command: s.command,
		},
	}
	if s.shutting {
		st.State = "shutting-down"
	}
	if !s.startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
	}

	if s.workload != nil {
		st.Workload.Running = s.workload.Running()
		st.Workload.PID = s.workload.Pid()
		if code, ok := s.workload.ExitCode(); ok {
			c := code
			st.Workload.ExitCode = &c
		}
	} else if s.lastExitSet {
		c := s.lastExit
		st.Workload.ExitCode = &c
	}

	if s.browser != nil {
		st.Browser.Running = s.browser.Running()
		st.Browser.PID = s.browser.Pid()
		st.Browser.Screen = s.screenName
	}

	return st
}
