package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/coffer/internal/configs"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/storage"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return data
}

func TestInit(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "coffer.toml")
	dataDir := filepath.Join(dir, "data")

	result, err := Init(context.Background(), InitOptions{ConfigPath: configPath, DataDir: dataDir, IdleTimeout: "10m"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if result.Backend != storage.BackendFile || !result.Encrypted {
		t.Errorf("Unexpected result: %+v", result)
	}
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		t.Errorf("Expected data dir to be created, err=%v", err)
	}

	cfg, err := configs.Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DataDir != dataDir || cfg.Session.IdleTimeout != "10m" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	firstSalt := cfg.Crypto.InstallSalt
	if len(firstSalt) != 32 {
		t.Errorf("Expected a generated salt, got %q", firstSalt)
	}

	if _, err := Init(context.Background(), InitOptions{ConfigPath: configPath}); !errors.Is(err, cerrors.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}

	if _, err := Init(context.Background(), InitOptions{ConfigPath: configPath, DataDir: dataDir, Force: true, Plaintext: true}); err != nil {
		t.Fatalf("Init --force failed: %v", err)
	}
	cfg, err = configs.Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Crypto.InstallSalt == firstSalt {
		t.Error("Expected a new salt after forced init")
	}
	if cfg.Crypto.Encrypt {
		t.Error("Expected plaintext config")
	}
}

func TestInitInvalid(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if _, err := Init(context.Background(), InitOptions{}); !errors.Is(err, cerrors.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for empty path, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "coffer.toml")
	if _, err := Init(context.Background(), InitOptions{ConfigPath: path, Backend: "tape"}); !errors.Is(err, cerrors.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown backend, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no config to be written on failure")
	}
}

func TestDoctor(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "coffer.toml")

	if _, err := Init(context.Background(), InitOptions{ConfigPath: configPath, DataDir: filepath.Join(dir, "data"), Backend: storage.BackendBolt}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	result, err := Doctor(context.Background(), DoctorOptions{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Doctor failed: %v", err)
	}
	if result.Summary.Errors != 0 {
		t.Errorf("Expected no errors, got %+v", result.Checks)
	}

	byName := make(map[string]CheckResult)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}
	if byName["Configuration"].Status != CheckPass {
		t.Errorf("Expected config check to pass, got %+v", byName["Configuration"])
	}
	if byName["Storage backend"].Status != CheckWarning {
		t.Errorf("Expected backend warning for no principals, got %+v", byName["Storage backend"])
	}
	if len(result.Suggestions) == 0 {
		t.Error("Expected a suggestion to register")
	}
}

func TestDoctorBrokenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coffer.toml")
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"tape\"\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	result, err := Doctor(context.Background(), DoctorOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Doctor failed: %v", err)
	}
	if len(result.Checks) != 1 || result.Checks[0].Status != CheckError {
		t.Errorf("Expected a single config error, got %+v", result.Checks)
	}
}

func TestCheckStatusJSON(t *testing.T) {
	data := mustJSON(t, CheckResult{Name: "x", Status: CheckWarning})
	if string(data) != `{"name":"x","status":"warning","message":""}` {
		t.Errorf("Unexpected JSON: %s", data)
	}
}
