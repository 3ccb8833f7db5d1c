package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/PolarWolf314/coffer/internal/configs"
	"github.com/PolarWolf314/coffer/internal/storage"
)

const testPassphrase = "correct-horse"

var recordIDPattern = regexp.MustCompile(`\[([0-9a-f]{32})\]`)

// setupTestEnvironment writes a file-backed config with light key
// derivation settings into a temp directory and points the CLI at it.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("NO_COLOR", "1")
	t.Setenv(envPassphrase, testPassphrase)
	t.Setenv(envPrincipal, "")

	cfg, err := configs.Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	cfg.Storage.Backend = storage.BackendFile
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Crypto.Argon2Time = 1
	cfg.Crypto.Argon2Memory = 64
	cfg.Crypto.Argon2Threads = 1
	cfg.Crypto.InstallSalt = "cmd-test"

	path := filepath.Join(dir, "coffer.toml")
	if err := configs.Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	t.Setenv(configs.EnvConfigPath, path)

	ResetGlobalState()
	t.Cleanup(ResetGlobalState)
	return path
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)
	copyAll := func(r io.Reader) {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outputChan <- buf.String()
	}
	go copyAll(stdoutReader)
	go copyAll(stderrReader)

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	first := <-outputChan
	second := <-outputChan

	return first + second, err
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	ResetGlobalState()
	RootCmd.SetArgs(args)
	output, err := captureOutput(func() error {
		return RootCmd.Execute()
	})
	if err != nil {
		t.Fatalf("coffer %v failed: %v\n%s", args, err, output)
	}
	return output
}

// registerTestPrincipal registers alice with the test passphrase.
func registerTestPrincipal(t *testing.T) {
	t.Helper()
	output := runCLI(t, "register", "--email", "alice@example.com", "--name", "Alice")
	if !bytes.Contains([]byte(output), []byte("Registered")) {
		t.Fatalf("Expected registration to succeed, got:\n%s", output)
	}
}

// addRecord runs coffer add and returns the new record id.
func addRecord(t *testing.T, module string, fields ...string) string {
	t.Helper()
	args := []string{"add", module}
	for _, f := range fields {
		args = append(args, "-f", f)
	}
	output := runCLI(t, args...)
	m := recordIDPattern.FindStringSubmatch(output)
	if m == nil {
		t.Fatalf("Expected a record id in output, got:\n%s", output)
	}
	return m[1]
}
