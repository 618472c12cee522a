// Package config handles loading and validating Vitrine configuration.
package config

// Config is the top-level Vitrine configuration.
type Config struct {
	Supervisor SupervisorConfig `toml:"supervisor"`
	Kiosk      KioskConfig      `toml:"kiosk"`
	Workload   WorkloadConfig   `toml:"workload"`
	Power      PowerConfig      `toml:"power"`
	Server     ServerConfig     `toml:"server"`
}

// SupervisorConfig holds daemon-level settings.
type SupervisorConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	PIDFile   string `toml:"pidfile"`
}

// KioskConfig holds browser and display settings.
type KioskConfig struct {
	URL              string   `toml:"url"`
	Browsers         []string `toml:"browsers"`
	ProfileDir       string   `toml:"profile_dir"`
	ScreenPollSecs   int      `toml:"screen_poll_secs"`
	WindowTool       string   `toml:"window_tool"`
	PositionAttempts int      `toml:"position_attempts"`
	LaunchCheckMs    int      `toml:"launch_check_ms"`
	CloseTimeoutSecs int      `toml:"close_timeout_secs"`
}

// WorkloadConfig holds settings for the supervised workload process.
// The command itself comes from the CLI, not the config file.
type WorkloadConfig struct {
	RestartDelaySecs int `toml:"restart_delay_secs"`
	StopTimeoutSecs  int `toml:"stop_timeout_secs"`
	KillSettleMs     int `toml:"kill_settle_ms"`
}

// PowerConfig holds power monitoring settings.
type PowerConfig struct {
	Enabled         *bool  `toml:"enabled"`
	PollSecs        int    `toml:"poll_secs"`
	SupplyPath      string `toml:"supply_path"`
	ShutdownCommand string `toml:"shutdown_command"`
}

// ServerConfig holds status server settings.
type ServerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Listen   string `toml:"listen"`
	Username string `toml:"username"`
	Password string `toml:"password"` // bcrypt hash
}

// PowerEnabled reports whether power monitoring is on (default true).
func (c *Config) PowerEnabled() bool {
	return c.Power.Enabled == nil || *c.Power.Enabled
}
