package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"
)

// testParams keeps Argon2 cheap enough for unit tests.
var testParams = Params{Time: 1, Memory: 64, Threads: 1, Salt: "test-installation"}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testParams)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name       string
		plaintext  string
		passphrase string
	}{
		{"simple", "hello world", "correct-horse"},
		{"empty plaintext", "", "correct-horse"},
		{"empty passphrase", "payload", ""},
		{"unicode", "héllo wörld 🔒", "pässwörd"},
		{"json", `[{"id":"1","title":"A"}]`, "k"},
		{"long", strings.Repeat("x", 10000), "long-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := e.Encrypt(tt.plaintext, tt.passphrase)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}
			got, err := e.Decrypt(blob, tt.passphrase)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("Expected %q, got %q", tt.plaintext, got)
			}
		})
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.Encrypt("same plaintext", "same key")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	second, err := e.Encrypt("same plaintext", "same key")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if first == second {
		t.Error("Expected two encryptions of the same input to differ")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	e := newTestEngine(t)

	blob, err := e.Encrypt("secret", "passphrase-one")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, err = e.Decrypt(blob, "passphrase-two")
	if !errors.Is(err, cerrors.ErrDecryption) {
		t.Fatalf("Expected ErrDecryption, got %v", err)
	}
}

func TestDecryptMalformedBlob(t *testing.T) {
	e := newTestEngine(t)

	valid, err := e.Encrypt("secret", "k")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(valid)

	tampered := append([]byte(nil), raw...)
	tampered[len(tampered)-1] ^= 0xff

	wrongVersion := append([]byte(nil), raw...)
	wrongVersion[0] = 99

	tests := []struct {
		name string
		blob string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", ""},
		{"too short", base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
		{"tampered tag", base64.StdEncoding.EncodeToString(tampered)},
		{"unknown version", base64.StdEncoding.EncodeToString(wrongVersion)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Decrypt(tt.blob, "k")
			if !errors.Is(err, cerrors.ErrDecryption) {
				t.Fatalf("Expected ErrDecryption, got %v", err)
			}
			if err.Error() != cerrors.ErrDecryption.Error() {
				t.Errorf("Expected the generic message, got %q", err.Error())
			}
		})
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	e := newTestEngine(t)

	k1, err := e.DeriveKey("correct-horse")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := e.DeriveKey("correct-horse")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if *k1 != *k2 {
		t.Error("Expected the same passphrase to derive the same key")
	}

	k3, err := e.DeriveKey("battery-staple")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if *k1 == *k3 {
		t.Error("Expected different passphrases to derive different keys")
	}

	// A second engine with the same params simulates a process restart.
	restarted := newTestEngine(t)
	blob, err := e.Encrypt("survives restart", "correct-horse")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	got, err := restarted.Decrypt(blob, "correct-horse")
	if err != nil {
		t.Fatalf("Decrypt after restart failed: %v", err)
	}
	if got != "survives restart" {
		t.Errorf("Expected %q, got %q", "survives restart", got)
	}
}

func TestDeriveKeyDependsOnInstallationSalt(t *testing.T) {
	e := newTestEngine(t)
	other, err := NewEngine(Params{Time: 1, Memory: 64, Threads: 1, Salt: "other-installation"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	k1, _ := e.DeriveKey("same")
	k2, _ := other.DeriveKey("same")
	if *k1 == *k2 {
		t.Error("Expected different installation salts to derive different keys")
	}
}

func TestKeyWipe(t *testing.T) {
	e := newTestEngine(t)
	k, err := e.DeriveKey("wipe-me")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k.Wipe()
	if *k != (Key{}) {
		t.Error("Expected key to be zeroed after Wipe")
	}
}

func TestHashPassphrase(t *testing.T) {
	e := newTestEngine(t)

	d1, err := e.HashPassphrase("correct-horse")
	if err != nil {
		t.Fatalf("HashPassphrase failed: %v", err)
	}
	d2, _ := e.HashPassphrase("correct-horse")
	if d1 != d2 {
		t.Error("Expected digest to be deterministic")
	}
	if !strings.HasPrefix(d1, "$argon2id$") {
		t.Errorf("Expected argon2id digest, got %q", d1)
	}
	if strings.Contains(d1, "correct-horse") {
		t.Error("Digest must not contain the passphrase")
	}

	// The credential digest and the data key use different domains.
	key, _ := e.DeriveKey("correct-horse")
	if strings.Contains(d1, hex.EncodeToString(key[:])) {
		t.Error("Expected credential digest to differ from the data key")
	}
}

func TestVerifyPassphrase(t *testing.T) {
	e := newTestEngine(t)
	digest, err := e.HashPassphrase("correct-horse")
	if err != nil {
		t.Fatalf("HashPassphrase failed: %v", err)
	}

	ok, err := e.VerifyPassphrase("correct-horse", digest)
	if err != nil || !ok {
		t.Errorf("Expected correct passphrase to verify, got ok=%t err=%v", ok, err)
	}

	ok, err = e.VerifyPassphrase("wrong-horse", digest)
	if err != nil || ok {
		t.Errorf("Expected wrong passphrase to fail, got ok=%t err=%v", ok, err)
	}

	for _, bad := range []string{"", "plain", "$argon2id$v=19$m=x$abc", "$bcrypt$v=19$m=64,t=1,p=1$00"} {
		ok, err := e.VerifyPassphrase("correct-horse", bad)
		if err != nil || ok {
			t.Errorf("Expected malformed digest %q not to verify, got ok=%t err=%v", bad, ok, err)
		}
	}
}

func TestVerifyPassphraseAfterParamChange(t *testing.T) {
	e := newTestEngine(t)
	digest, _ := e.HashPassphrase("correct-horse")

	stronger, err := NewEngine(Params{Time: 2, Memory: 128, Threads: 1, Salt: testParams.Salt})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	ok, err := stronger.VerifyPassphrase("correct-horse", digest)
	if err != nil || !ok {
		t.Errorf("Expected digest to verify with its recorded params, got ok=%t err=%v", ok, err)
	}
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"zero time", Params{Time: 0, Memory: 64, Threads: 1, Salt: "s"}},
		{"zero threads", Params{Time: 1, Memory: 64, Threads: 0, Salt: "s"}},
		{"too little memory", Params{Time: 1, Memory: 4, Threads: 1, Salt: "s"}},
		{"empty salt", Params{Time: 1, Memory: 64, Threads: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.params)
			if !errors.Is(err, cerrors.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
