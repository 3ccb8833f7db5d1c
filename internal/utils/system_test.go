package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	nested := filepath.Join(home, "projects", "vault", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	want := filepath.Join(home, "projects", "coffer.toml")
	if err := os.WriteFile(want, []byte(""), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer func() { _ = os.Chdir(original) }()
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	got, err := FindConfigFile("coffer.toml")
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}
	gotReal, _ := filepath.EvalSymlinks(got)
	wantReal, _ := filepath.EvalSymlinks(want)
	if gotReal != wantReal {
		t.Errorf("FindConfigFile() = %q, want %q", got, want)
	}

	got, err = FindConfigFile("missing.toml")
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected no match, got %q", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.json")
	if err := os.WriteFile(file, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if !FileExists(file) {
		t.Error("Expected file to exist")
	}
	if FileExists(dir) {
		t.Error("A directory is not a regular file")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("Expected missing file to not exist")
	}
}

func TestFormatList(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := FormatList([]string{"alice@example.com", "bob@example.com"})
	want := "\n    - 'alice@example.com'\n    - 'bob@example.com'\n"
	if got != want {
		t.Errorf("FormatList() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(FormatList(nil), "\n") {
		t.Error("Expected a leading newline for an empty list")
	}
}
