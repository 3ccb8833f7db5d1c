package crypto

import (
	"strings"
	"unicode/utf8"
)

// Strength categories.
const (
	Weak   = "weak"
	Medium = "medium"
	Strong = "strong"
)

// Feedback messages, one per missing criterion.
const (
	FeedbackMinLength  = "Use at least 8 characters"
	FeedbackLongLength = "Use 12 or more characters for better security"
	FeedbackLowercase  = "Add lowercase letters"
	FeedbackUppercase  = "Add uppercase letters"
	FeedbackDigit      = "Add numbers"
	FeedbackSymbol     = "Add special characters"
	FeedbackRepeats    = "Avoid repeating the same character 3 or more times"
)

// Strength is the result of scoring a passphrase.
type Strength struct {
	Score    int      `json:"score"`
	Category string   `json:"category"`
	Feedback []string `json:"feedback"`
}

// ScorePassphraseStrength scores a passphrase:
//
//	length >= 8           +1
//	length >= 12          +1
//	has a-z               +1
//	has A-Z               +1
//	has 0-9               +1
//	has any other char    +1
//	3+ identical in a row -1
//
// A score of 6 or more is strong, 4 or more is medium, anything else weak.
// Length counts characters, not bytes.
func ScorePassphraseStrength(passphrase string) Strength {
	var (
		score    int
		feedback []string
	)

	length := utf8.RuneCountInString(passphrase)
	if length >= 8 {
		score++
	} else {
		feedback = append(feedback, FeedbackMinLength)
	}
	if length >= 12 {
		score++
	} else {
		feedback = append(feedback, FeedbackLongLength)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range passphrase {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	for _, c := range []struct {
		ok  bool
		msg string
	}{
		{hasLower, FeedbackLowercase},
		{hasUpper, FeedbackUppercase},
		{hasDigit, FeedbackDigit},
		{hasSymbol, FeedbackSymbol},
	} {
		if c.ok {
			score++
		} else {
			feedback = append(feedback, c.msg)
		}
	}

	if hasRepeatedRun(passphrase, 3) {
		score--
		feedback = append(feedback, FeedbackRepeats)
	}

	category := Weak
	switch {
	case score >= 6:
		category = Strong
	case score >= 4:
		category = Medium
	}

	if feedback == nil {
		feedback = []string{}
	}
	return Strength{Score: score, Category: category, Feedback: feedback}
}

func hasRepeatedRun(s string, n int) bool {
	run := 0
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run >= n {
			return true
		}
	}
	return false
}

// MaskSecret replaces all but the last visible characters of value with a
// bullet. Values of visible characters or fewer are returned unchanged.
func MaskSecret(value string, visible int) string {
	if visible < 0 {
		visible = 0
	}
	runes := []rune(value)
	if len(runes) <= visible {
		return value
	}
	return strings.Repeat("•", len(runes)-visible) + string(runes[len(runes)-visible:])
}
