package health

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/loxone-community/lox-linein-bridge/internal/status"
)

func TestPath_DefaultAndOverride(t *testing.T) {
	if got := Path(); got != DefaultPath {
		t.Fatalf("Path() = %q, want %q", got, DefaultPath)
	}

	t.Setenv(PathEnvVar, "/tmp/custom.json")
	if got := Path(); got != "/tmp/custom.json" {
		t.Fatalf("Path() with override = %q, want /tmp/custom.json", got)
	}
}

func TestWriteOnce_ProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")

	reg := status.New()
	reg.SetDevice("line-in")
	reg.AddBytesSent(42)

	w := &Writer{register: reg, path: path, log: slog.New(slog.NewTextHandler(io.Discard, nil)), lastWriteOK: true}
	w.writeOnce()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var snap status.HealthSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if snap.Device != "line-in" || snap.BytesSentTotal != 42 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestWriteOnce_LogsEdgeOnlyOnce(t *testing.T) {
	reg := status.New()
	w := &Writer{
		register:    reg,
		path:        filepath.Join(t.TempDir(), "no", "such", "dir", "status.json"),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		lastWriteOK: true,
	}

	w.writeOnce()
	if w.lastWriteOK {
		t.Fatal("expected lastWriteOK to flip to false after a failed write")
	}
	w.writeOnce()
	if w.lastWriteOK {
		t.Fatal("expected lastWriteOK to remain false on repeated failure")
	}
}
