package supervisor

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitrine.pid")

	if err := WritePIDFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid != os.Getpid() {
		t.Fatalf("pidfile content = %q, want own pid", data)
	}

	RemovePIDFile(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("pidfile not removed")
	}
}

func TestPIDFileDisabled(t *testing.T) {
	if err := WritePIDFile(""); err != nil {
		t.Fatal(err)
	}
	RemovePIDFile("")
}

func TestWritePIDFileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "vitrine.pid")
	if err := WritePIDFile(path); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
