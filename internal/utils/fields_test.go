package utils

import (
	"encoding/json"
	"testing"
)

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{
		"title=Groceries",
		"note=a=b",
		"url=http://example.com/?q:=x",
		"done:=true",
		"count:=42",
		"tags:=[\"a\",\"b\"]",
		"title=Second",
		"empty=",
		"padded:= 7 ",
	})
	if err != nil {
		t.Fatalf("ParseFields failed: %v", err)
	}

	if fields["title"] != "Second" {
		t.Errorf("Expected later assignment to win, got %v", fields["title"])
	}
	if fields["note"] != "a=b" {
		t.Errorf("Expected value to keep its '=', got %v", fields["note"])
	}
	if fields["url"] != "http://example.com/?q:=x" {
		t.Errorf("Expected ':=' after the first '=' to stay literal, got %v", fields["url"])
	}
	if fields["done"] != true {
		t.Errorf("Expected bool true, got %#v", fields["done"])
	}
	if n, ok := fields["count"].(json.Number); !ok || n.String() != "42" {
		t.Errorf("Expected json.Number 42, got %#v", fields["count"])
	}
	if tags, ok := fields["tags"].([]any); !ok || len(tags) != 2 {
		t.Errorf("Expected two tags, got %#v", fields["tags"])
	}
	if n, ok := fields["padded"].(json.Number); !ok || n.String() != "7" {
		t.Errorf("Expected surrounding whitespace to be ignored, got %#v", fields["padded"])
	}
	if fields["empty"] != "" {
		t.Errorf("Expected empty string, got %#v", fields["empty"])
	}
}

func TestParseFieldsErrors(t *testing.T) {
	tests := [][]string{
		{"no-equals"},
		{"=value"},
		{":=true"},
		{"done:=not json"},
		{"n:="},
		{"n:=1 2"},
		{"tags:=[\"a\"] extra"},
		{"done:=true}"},
	}
	for _, in := range tests {
		if _, err := ParseFields(in); err == nil {
			t.Errorf("ParseFields(%q): expected error", in)
		}
	}
}

func TestSanitizeModuleName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"notes", "notes"},
		{"Notes", "notes"},
		{"  My Recipes  ", "my-recipes"},
		{"to--dos", "to-dos"},
		{"-cards-", "cards"},
		{"_principal", "principal"},
		{"@#$%", ""},
	}
	for _, tc := range tests {
		if got := SanitizeModuleName(tc.input); got != tc.expected {
			t.Errorf("SanitizeModuleName(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"alice@example.com", "a.b+c@sub.example.org"}
	invalid := []string{"", "alice", "alice@", "@example.com", "alice@example"}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false", e)
		}
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true", e)
		}
	}
}
