package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestWriteThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	name := "living-room"
	id := Identity{BridgeID: "fixed-id-123", PreferredServerName: &name}

	buf, err := toml.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := loadFile(path)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if data.BridgeID != id.BridgeID {
		t.Fatalf("BridgeID = %q, want %q", data.BridgeID, id.BridgeID)
	}
	if data.PreferredServerName == nil || *data.PreferredServerName != name {
		t.Fatalf("PreferredServerName = %v, want %q", data.PreferredServerName, name)
	}
}

func TestLoadFile_MissingBridgeIDIsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("preferred_server_name = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadFile(path); err == nil {
		t.Fatal("expected an error for a document missing bridge_id")
	}
}

func TestBackupInvalid_RenamesSibling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := backupInvalid(path); err != nil {
		t.Fatalf("backupInvalid: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected original path to be gone after backup")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one backup file, got %d", len(entries))
	}
}

func TestFallbackPath_UnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := FallbackPath()
	if err != nil {
		t.Fatalf("FallbackPath: %v", err)
	}
	want := filepath.Join(home, fallbackConfigDir, configFile)
	if path != want {
		t.Fatalf("FallbackPath() = %q, want %q", path, want)
	}
}
