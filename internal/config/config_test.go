package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalTOML = `
[kiosk]
url = "https://dashboard.example.com"
`

func TestLoadBytesMinimal(t *testing.T) {
	cfg, warnings, err := LoadBytes([]byte(minimalTOML), "test.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	if cfg.Kiosk.URL != "https://dashboard.example.com" {
		t.Fatalf("url = %q", cfg.Kiosk.URL)
	}
	// Defaults fill everything else.
	if cfg.Kiosk.ScreenPollSecs != 5 {
		t.Fatalf("screen_poll_secs = %d, want 5", cfg.Kiosk.ScreenPollSecs)
	}
	if cfg.Kiosk.WindowTool != "wmctrl" {
		t.Fatalf("window_tool = %q, want wmctrl", cfg.Kiosk.WindowTool)
	}
	if cfg.Workload.RestartDelaySecs != 5 || cfg.Workload.StopTimeoutSecs != 300 {
		t.Fatalf("workload defaults = %+v", cfg.Workload)
	}
	if cfg.Power.PollSecs != 2 || cfg.Power.SupplyPath != "/sys/class/power_supply" {
		t.Fatalf("power defaults = %+v", cfg.Power)
	}
	if cfg.Power.ShutdownCommand != "systemctl poweroff" {
		t.Fatalf("shutdown_command = %q", cfg.Power.ShutdownCommand)
	}
	if len(cfg.Kiosk.Browsers) == 0 || cfg.Kiosk.Browsers[0] != "chromium" {
		t.Fatalf("browsers = %v", cfg.Kiosk.Browsers)
	}
	if !cfg.PowerEnabled() {
		t.Fatal("power must default to enabled")
	}
}

func TestLoadBytesFull(t *testing.T) {
	full := `
[supervisor]
log_level = "debug"
pidfile = "/run/vitrine.pid"

[kiosk]
url = "https://example.com"
browsers = ["firefox"]
window_tool = "sway"
screen_poll_secs = 10

[workload]
restart_delay_secs = 3
stop_timeout_secs = 60

[power]
enabled = false
shutdown_command = "sudo poweroff"

[server]
enabled = true
listen = "0.0.0.0:9393"
`
	cfg, warnings, err := LoadBytes([]byte(full), "test.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}

	if cfg.Supervisor.LogLevel != "debug" || cfg.Supervisor.PIDFile != "/run/vitrine.pid" {
		t.Fatalf("supervisor = %+v", cfg.Supervisor)
	}
	if cfg.Kiosk.WindowTool != "sway" || cfg.Kiosk.ScreenPollSecs != 10 {
		t.Fatalf("kiosk = %+v", cfg.Kiosk)
	}
	if len(cfg.Kiosk.Browsers) != 1 || cfg.Kiosk.Browsers[0] != "firefox" {
		t.Fatalf("browsers = %v", cfg.Kiosk.Browsers)
	}
	if cfg.PowerEnabled() {
		t.Fatal("power explicitly disabled")
	}
	if !cfg.Server.Enabled || cfg.Server.Listen != "0.0.0.0:9393" {
		t.Fatalf("server = %+v", cfg.Server)
	}
}

func TestLoadBytesUnknownKeyWarning(t *testing.T) {
	data := minimalTOML + "\n[kiosk.extra]\nfoo = 1\n"
	_, warnings, err := LoadBytes([]byte(data), "test.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a warning for the unknown key")
	}
	if !strings.Contains(warnings[0], "unknown config key") {
		t.Fatalf("warning = %q", warnings[0])
	}
}

func TestLoadBytesParseError(t *testing.T) {
	if _, _, err := LoadBytes([]byte("not = [valid"), "bad.toml"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadBytesValidationError(t *testing.T) {
	_, _, err := LoadBytes([]byte("[kiosk]\n"), "test.toml")
	if err == nil || !strings.Contains(err.Error(), "kiosk.url is required") {
		t.Fatalf("err = %v, want missing-url validation error", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitrine.toml")
	if err := os.WriteFile(path, []byte(minimalTOML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kiosk.URL == "" {
		t.Fatal("config not loaded")
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		var cfg Config
		cfg.Kiosk.URL = "https://example.com"
		ApplyDefaults(&cfg)
		return &cfg
	}

	if errs := Validate(base()); len(errs) != 0 {
		t.Fatalf("valid config rejected: %v", errs)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.Kiosk.URL = "  " }, "kiosk.url"},
		{"bad window tool", func(c *Config) { c.Kiosk.WindowTool = "xdotool" }, "window_tool"},
		{"zero poll", func(c *Config) { c.Kiosk.ScreenPollSecs = 0 }, "screen_poll_secs"},
		{"zero attempts", func(c *Config) { c.Kiosk.PositionAttempts = -1 }, "position_attempts"},
		{"zero restart delay", func(c *Config) { c.Workload.RestartDelaySecs = 0 }, "restart_delay_secs"},
		{"zero stop timeout", func(c *Config) { c.Workload.StopTimeoutSecs = 0 }, "stop_timeout_secs"},
		{"zero power poll", func(c *Config) { c.Power.PollSecs = 0 }, "poll_secs"},
		{"empty shutdown command", func(c *Config) { c.Power.ShutdownCommand = " " }, "shutdown_command"},
		{
			"plaintext server password",
			func(c *Config) {
				c.Server.Enabled = true
				c.Server.Username = "admin"
				c.Server.Password = "hunter2"
			},
			"bcrypt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			errs := Validate(cfg)
			if len(errs) == 0 {
				t.Fatal("expected validation error")
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e.Error(), tt.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("errors %v do not mention %q", errs, tt.want)
			}
		})
	}
}

func TestValidateAcceptsBcryptPassword(t *testing.T) {
	var cfg Config
	cfg.Kiosk.URL = "https://example.com"
	ApplyDefaults(&cfg)
	cfg.Server.Enabled = true
	cfg.Server.Username = "admin"
	cfg.Server.Password = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	if errs := Validate(&cfg); len(errs) != 0 {
		t.Fatalf("bcrypt password rejected: %v", errs)
	}
}

func TestDefaultConfigTOMLRoundTrip(t *testing.T) {
	cfg, warnings, err := LoadBytes([]byte(DefaultConfigTOML), "default.toml")
	if err != nil {
		t.Fatalf("generated sample config does not load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("generated sample config has warnings: %v", warnings)
	}
	if cfg.Kiosk.URL == "" {
		t.Fatal("sample config must carry a kiosk url")
	}
}
