package config

// DefaultConfigTOML is a complete, commented sample vitrine.toml.
const DefaultConfigTOML = `# Vitrine configuration file

[supervisor]
# log_level = "info"            # debug, info, warn, error
# log_format = "text"           # text, json
# pidfile = ""                  # PID file path (default: none)

[kiosk]
url = "http://localhost:8080"   # REQUIRED: page pinned on the secondary display
# browsers = ["chromium", "chromium-browser", "google-chrome", "google-chrome-stable"]
# profile_dir = ""              # kiosk browser profile (default: ~/.config/vitrine/profile)
# screen_poll_secs = 5          # display detection poll cadence
# window_tool = "wmctrl"        # wmctrl (X11) or sway (Wayland)
# position_attempts = 3         # window positioning retry budget
# launch_check_ms = 1500        # immediate-crash check delay after browser spawn
# close_timeout_secs = 5        # graceful browser close ceiling before SIGKILL

[workload]
# restart_delay_secs = 5        # fixed delay before respawning an exited workload
# stop_timeout_secs = 300       # graceful stop ceiling on the power-loss path
# kill_settle_ms = 500          # settle delay after a forced kill

[power]
# enabled = true                # watch AC power and shut down on disconnect
# poll_secs = 2                 # power state poll cadence
# supply_path = "/sys/class/power_supply"
# shutdown_command = "systemctl poweroff"

[server]
# enabled = false               # read-only status/metrics HTTP server
# listen = "127.0.0.1:9393"
# username = ""                 # HTTP Basic Auth username
# password = ""                 # bcrypt-hashed password (vitrine hash-password)
`
