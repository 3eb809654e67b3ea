// Package health periodically serializes the pipeline status register to a
// JSON file at a well-known path, for external liveness checks.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/loxone-community/lox-linein-bridge/internal/status"
)

const (
	// DefaultPath is used when no environment override is set.
	DefaultPath = "/tmp/lox-linein-bridge.status.json"
	// PathEnvVar overrides DefaultPath when set.
	PathEnvVar = "LOX_LINEIN_BRIDGE_HEALTH_PATH"
	// Interval is how often the snapshot is (re)written.
	Interval = 5 * time.Second
)

// Path resolves the health file location from the environment override or
// DefaultPath.
func Path() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	return DefaultPath
}

// Writer periodically serializes a status.Register's health snapshot to
// Path(). A write failure is logged once on the edge (first failure after a
// success); subsequent identical failures stay silent until the next
// success, so a persistently read-only filesystem does not spam logs.
type Writer struct {
	register *status.Register
	path     string
	log      *slog.Logger

	lastWriteOK bool
}

// New creates a Writer for register, serializing to Path().
func New(register *status.Register, log *slog.Logger) *Writer {
	return &Writer{register: register, path: Path(), log: log, lastWriteOK: true}
}

// Run serializes the snapshot every Interval until ctx is cancelled.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	w.writeOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.writeOnce()
		}
	}
}

func (w *Writer) writeOnce() {
	snap := w.register.HealthSnapshot()

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		w.logEdge(err, "marshal health snapshot failed")
		return
	}

	if err := os.WriteFile(w.path, payload, 0o644); err != nil {
		w.logEdge(err, "write health snapshot failed")
		return
	}

	w.lastWriteOK = true
}

func (w *Writer) logEdge(err error, msg string) {
	if w.lastWriteOK {
		w.log.Warn(msg, "path", w.path, "error", err)
	}
	w.lastWriteOK = false
}
