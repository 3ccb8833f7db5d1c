package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		debug     bool
		wantInfo  bool
		wantDebug bool
	}{
		{"quiet", false, false, false, false},
		{"verbose", true, false, true, false},
		{"debug", false, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := Logger{Verbose: tt.verbose, Debug: tt.debug, Out: &out, Err: &errOut}

			l.Infof("loaded %d records", 3)
			l.Debugf("opened %s", "bolt")
			l.Warnf("warned")
			l.Errorf("failed")

			if got := strings.Contains(out.String(), "loaded 3 records"); got != tt.wantInfo {
				t.Errorf("info shown = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out.String(), "opened bolt"); got != tt.wantDebug {
				t.Errorf("debug shown = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(errOut.String(), "warned") || !strings.Contains(errOut.String(), "failed") {
				t.Errorf("Expected warnings and errors to always be shown, got %q", errOut.String())
			}
		})
	}
}

func TestZapFollowsFlags(t *testing.T) {
	var errOut bytes.Buffer

	Logger{Err: &errOut}.Zap().Error("silent")
	if errOut.Len() != 0 {
		t.Errorf("Expected no output without flags, got %q", errOut.String())
	}

	Logger{Debug: true, Err: &errOut}.Zap().Debug("collection written")
	if !strings.Contains(errOut.String(), "collection written") {
		t.Errorf("Expected debug output with --debug, got %q", errOut.String())
	}

	errOut.Reset()
	verbose := Logger{Verbose: true, Err: &errOut}.Zap()
	verbose.Debug("hidden")
	verbose.Warn("retrying")
	if strings.Contains(errOut.String(), "hidden") || !strings.Contains(errOut.String(), "retrying") {
		t.Errorf("Expected only warnings with --verbose, got %q", errOut.String())
	}
}

func TestErrorfAndReturn(t *testing.T) {
	var errOut bytes.Buffer

	err := Logger{Err: &errOut}.ErrorfAndReturn("failed to open %s", "bolt")
	if err == nil || err.Error() != "failed to open bolt" {
		t.Errorf("Unexpected error %v", err)
	}
	if errOut.Len() != 0 {
		t.Errorf("Expected nothing logged without --debug, got %q", errOut.String())
	}

	_ = Logger{Debug: true, Err: &errOut}.ErrorfAndReturn("failed")
	if !strings.Contains(errOut.String(), "failed") {
		t.Errorf("Expected error logged with --debug, got %q", errOut.String())
	}
}
