package crypto

import (
	"regexp"
	"slices"
	"testing"
	"unicode/utf8"
)

func TestScorePassphraseStrength(t *testing.T) {
	tests := []struct {
		passphrase string
		score      int
		category   string
	}{
		{"abc", 1, Weak},
		{"", 0, Weak},
		{"Abcdef123!", 5, Medium},
		{"Abcdef123!xyz", 6, Strong},
		{"abcdefgh", 2, Weak},
		{"Abcdefgh1", 4, Medium},
		{"aaaBcdef123!", 5, Medium},
		{"Passw0rd!Passw0rd!", 6, Strong},
		{"correct-horse", 4, Medium},
	}

	for _, tt := range tests {
		t.Run(tt.passphrase, func(t *testing.T) {
			got := ScorePassphraseStrength(tt.passphrase)
			if got.Score != tt.score {
				t.Errorf("Expected score %d, got %d (feedback %v)", tt.score, got.Score, got.Feedback)
			}
			if got.Category != tt.category {
				t.Errorf("Expected category %q, got %q", tt.category, got.Category)
			}
		})
	}
}

func TestScorePassphraseStrengthFeedback(t *testing.T) {
	got := ScorePassphraseStrength("abc")
	want := []string{FeedbackMinLength, FeedbackLongLength, FeedbackUppercase, FeedbackDigit, FeedbackSymbol}
	if !slices.Equal(got.Feedback, want) {
		t.Errorf("Expected feedback %v, got %v", want, got.Feedback)
	}

	got = ScorePassphraseStrength("Abcdef123!xyz")
	if len(got.Feedback) != 0 {
		t.Errorf("Expected no feedback for a strong passphrase, got %v", got.Feedback)
	}
	if got.Feedback == nil {
		t.Error("Expected an empty, non-nil feedback slice")
	}

	got = ScorePassphraseStrength("Abcccdef123!")
	if !slices.Contains(got.Feedback, FeedbackRepeats) {
		t.Errorf("Expected repeat feedback, got %v", got.Feedback)
	}
	if got.Score != 5 {
		t.Errorf("Expected repeat penalty to give 5, got %d", got.Score)
	}
}

func TestScorePassphraseStrengthCountsCharacters(t *testing.T) {
	// 8 runes, more than 8 bytes.
	got := ScorePassphraseStrength("ééééabcd")
	if slices.Contains(got.Feedback, FeedbackMinLength) {
		t.Errorf("Expected 8 characters to satisfy the minimum, got %v", got.Feedback)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		value   string
		visible int
		want    string
	}{
		{"1234567890", 4, "••••••7890"},
		{"1234", 4, "1234"},
		{"123", 4, "123"},
		{"", 4, ""},
		{"secret", 0, "••••••"},
		{"secret", -1, "••••••"},
		{"päss", 1, "•••s"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := MaskSecret(tt.value, tt.visible); got != tt.want {
				t.Errorf("MaskSecret(%q, %d) = %q, want %q", tt.value, tt.visible, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		id, err := GenerateID()
		if err != nil {
			t.Fatalf("GenerateID failed: %v", err)
		}
		if !hexPattern.MatchString(id) {
			t.Fatalf("Expected 32 hex characters, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	b, _ := GenerateToken()
	if a == b {
		t.Error("Expected distinct tokens")
	}
	if len(a) != 43 {
		t.Errorf("Expected 43 base64url characters, got %d", len(a))
	}
}

func TestGeneratePassword(t *testing.T) {
	if _, err := GeneratePassword(8); err == nil {
		t.Error("Expected error for length below 12")
	}

	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword(16)
		if err != nil {
			t.Fatalf("GeneratePassword failed: %v", err)
		}
		if utf8.RuneCountInString(pw) != 16 {
			t.Fatalf("Expected 16 characters, got %d", len(pw))
		}
		s := ScorePassphraseStrength(pw)
		// Every class is present and length is >= 12, so only a repeat run can cost a point.
		if s.Score < 5 {
			t.Errorf("Expected generated password to score at least 5, got %d for %q", s.Score, pw)
		}
	}
}
