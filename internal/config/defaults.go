package config

// DefaultBrowsers is the preference-ordered browser candidate list.
var DefaultBrowsers = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// ApplyDefaults fills in zero-value fields with their default values.
func ApplyDefaults(cfg *Config) {
	// Supervisor defaults.
	if cfg.Supervisor.LogLevel == "" {
		cfg.Supervisor.LogLevel = "info"
	}
	if cfg.Supervisor.LogFormat == "" {
		cfg.Supervisor.LogFormat = "text"
	}

	// Kiosk defaults.
	if len(cfg.Kiosk.Browsers) == 0 {
		cfg.Kiosk.Browsers = append([]string(nil), DefaultBrowsers...)
	}
	if cfg.Kiosk.ScreenPollSecs == 0 {
		cfg.Kiosk.ScreenPollSecs = 5
	}
	if cfg.Kiosk.WindowTool == "" {
		cfg.Kiosk.WindowTool = "wmctrl"
	}
	if cfg.Kiosk.PositionAttempts == 0 {
		cfg.Kiosk.PositionAttempts = 3
	}
	if cfg.Kiosk.LaunchCheckMs == 0 {
		cfg.Kiosk.LaunchCheckMs = 1500
	}
	if cfg.Kiosk.CloseTimeoutSecs == 0 {
		cfg.Kiosk.CloseTimeoutSecs = 5
	}

	// Workload defaults.
	if cfg.Workload.RestartDelaySecs == 0 {
		cfg.Workload.RestartDelaySecs = 5
	}
	if cfg.Workload.StopTimeoutSecs == 0 {
		cfg.Workload.StopTimeoutSecs = 300
	}
	if cfg.Workload.KillSettleMs == 0 {
		cfg.Workload.KillSettleMs = 500
	}

	// Power defaults.
	if cfg.Power.PollSecs == 0 {
		cfg.Power.PollSecs = 2
	}
	if cfg.Power.SupplyPath == "" {
		cfg.Power.SupplyPath = "/sys/class/power_supply"
	}
	if cfg.Power.ShutdownCommand == "" {
		cfg.Power.ShutdownCommand = "systemctl poweroff"
	}

	// Server defaults.
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:9393"
	}
}
