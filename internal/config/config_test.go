package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		DeviceID: "test-device-abc",
		BaseDir:  "/home/user/.local/share/conia-sync",
		LogDir:   "/home/user/.local/share/conia-sync/log",
		Database: DatabaseConfig{Type: "sqlite", Path: "/home/user/.local/share/conia-sync/conia.db"},
		Remote: RemoteConfig{
			Type:           "http",
			BaseURL:        "https://backend.example.com/rest/v1",
			APIKey:         "secret-key",
			TimeoutSeconds: 15,
		},
		Sync: SyncConfig{Schedule: "*/5 * * * *"},
		Snapshot: SnapshotConfig{
			Type: "s3",
			Bucket: "conia-snapshots",
			Prefix: "laptop",
			Region: "eu-west-1",
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/conia-sync/keys/conia.pub",
			PrivateKeyPath: "/home/user/.local/share/conia-sync/keys/conia.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.DeviceID != original.DeviceID {
		t.Errorf("DeviceID = %q, want %q", got.DeviceID, original.DeviceID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if got.Database.Path != original.Database.Path {
		t.Errorf("Database.Path = %q, want %q", got.Database.Path, original.Database.Path)
	}
	if got.Remote.BaseURL != original.Remote.BaseURL {
		t.Errorf("Remote.BaseURL = %q, want %q", got.Remote.BaseURL, original.Remote.BaseURL)
	}
	if got.Remote.APIKey != original.Remote.APIKey {
		t.Errorf("Remote.APIKey = %q, want %q", got.Remote.APIKey, original.Remote.APIKey)
	}
	if got.Remote.TimeoutSeconds != 15 {
		t.Errorf("Remote.TimeoutSeconds = %d, want %d", got.Remote.TimeoutSeconds, 15)
	}
	if got.Sync.Schedule != "*/5 * * * *" {
		t.Errorf("Sync.Schedule = %q, want %q", got.Sync.Schedule, "*/5 * * * *")
	}
	if got.Snapshot.Type != "s3" {
		t.Errorf("Snapshot.Type = %q, want %q", got.Snapshot.Type, "s3")
	}
	if got.Snapshot.Bucket != "conia-snapshots" {
		t.Errorf("Snapshot.Bucket = %q, want %q", got.Snapshot.Bucket, "conia-snapshots")
	}
	if got.Encryption.PublicKeyPath != original.Encryption.PublicKeyPath {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, original.Encryption.PublicKeyPath)
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("device-1", "/data/conia")

	if cfg.DeviceID != "device-1" {
		t.Errorf("DeviceID = %q, want %q", cfg.DeviceID, "device-1")
	}
	if cfg.BaseDir != "/data/conia" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/conia")
	}
	if cfg.LogDir != "/data/conia/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/conia/log")
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
	}
	if cfg.Database.Path != "/data/conia/conia.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/data/conia/conia.db")
	}
	if cfg.Sync.Schedule == "" {
		t.Error("Sync.Schedule should have a default")
	}
	if cfg.Snapshot.Type != "filesystem" {
		t.Errorf("Snapshot.Type = %q, want %q", cfg.Snapshot.Type, "filesystem")
	}
	if cfg.Snapshot.Root != "/data/conia/snapshots" {
		t.Errorf("Snapshot.Root = %q, want %q", cfg.Snapshot.Root, "/data/conia/snapshots")
	}
	if cfg.Encryption.PublicKeyPath != "/data/conia/keys/conia.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/conia/keys/conia.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/conia/keys/conia.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/conia/keys/conia.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "conia-sync.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "conia-sync.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "conia-sync.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.DeviceID != "read-test" {
			t.Errorf("DeviceID = %q, want %q", got.DeviceID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/conia-sync.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
