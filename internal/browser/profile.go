package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// kioskPreferences are the Chromium profile preferences a kiosk needs:
// autoplay unconditionally allowed, crash-recovery and session-restore
// prompts disabled.
var kioskPreferences = map[string]any{
	"profile": map[string]any{
		"exit_type":      "Normal",
		"exited_cleanly": true,
		"default_content_setting_values": map[string]any{
			"sound": 1,
		},
	},
	"session": map[string]any{
		"restore_on_startup": 5,
	},
	"browser": map[string]any{
		"has_seen_welcome_page": true,
	},
}

// kioskLocalState disables update nagging and telemetry reporting for
// the kiosk profile.
var kioskLocalState = map[string]any{
	"user_experience_metrics": map[string]any{
		"reporting_enabled": false,
	},
	"browser": map[string]any{
		"enabled_labs_experiments": []string{},
	},
}

// ensureProfile creates the persistent kiosk profile directory and writes
// its preference files. Existing preference files are left untouched so
// the profile persists across launches.
func ensureProfile(dir string) error {
	if dir == "" {
		return fmt.Errorf("profile directory not configured")
	}

	defaultDir := filepath.Join(dir, "Default")
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	if err := writeJSONOnce(filepath.Join(defaultDir, "Preferences"), kioskPreferences); err != nil {
		return err
	}
	return writeJSONOnce(filepath.Join(dir, "Local State"), kioskLocalState)
}

func writeJSONOnce(path string, v any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
