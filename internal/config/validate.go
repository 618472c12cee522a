package config

import (
	"fmt"
	"strings"
)

// validWindowTools lists the supported window positioning strategies.
var validWindowTools = map[string]bool{
	"wmctrl": true,
	"sway":   true,
}

// Validate checks the config for semantic errors and returns all of them.
func Validate(cfg *Config) []error {
	var errs []error

	if strings.TrimSpace(cfg.Kiosk.URL) == "" {
		errs = append(errs, fmt.Errorf("kiosk.url is required"))
	}

	if !validWindowTools[cfg.Kiosk.WindowTool] {
		errs = append(errs, fmt.Errorf("kiosk.window_tool must be wmctrl or sway, got %q", cfg.Kiosk.WindowTool))
	}

	if cfg.Kiosk.ScreenPollSecs < 1 {
		errs = append(errs, fmt.Errorf("kiosk.screen_poll_secs must be >= 1, got %d", cfg.Kiosk.ScreenPollSecs))
	}
	if cfg.Kiosk.PositionAttempts < 1 {
		errs = append(errs, fmt.Errorf("kiosk.position_attempts must be >= 1, got %d", cfg.Kiosk.PositionAttempts))
	}
	if cfg.Kiosk.CloseTimeoutSecs < 1 {
		errs = append(errs, fmt.Errorf("kiosk.close_timeout_secs must be >= 1, got %d", cfg.Kiosk.CloseTimeoutSecs))
	}

	if cfg.Workload.RestartDelaySecs < 1 {
		errs = append(errs, fmt.Errorf("workload.restart_delay_secs must be >= 1, got %d", cfg.Workload.RestartDelaySecs))
	}
	if cfg.Workload.StopTimeoutSecs < 1 {
		errs = append(errs, fmt.Errorf("workload.stop_timeout_secs must be >= 1, got %d", cfg.Workload.StopTimeoutSecs))
	}

	if cfg.Power.PollSecs < 1 {
		errs = append(errs, fmt.Errorf("power.poll_secs must be >= 1, got %d", cfg.Power.PollSecs))
	}
	if strings.TrimSpace(cfg.Power.ShutdownCommand) == "" {
		errs = append(errs, fmt.Errorf("power.shutdown_command must not be empty"))
	}

	if cfg.Server.Enabled {
		if cfg.Server.Listen == "" {
			errs = append(errs, fmt.Errorf("server.listen is required when server.enabled is true"))
		}
		if cfg.Server.Username != "" && !looksLikeBcrypt(cfg.Server.Password) {
			errs = append(errs, fmt.Errorf("server.password must be a bcrypt hash (use 'vitrine hash-password')"))
		}
	}

	return errs
}

func looksLikeBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
