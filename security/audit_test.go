package security

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestAuditor_LogLogin_HashesIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auditor := NewAuditor(logger, true)

	auditor.LogLogin("admin@clinic.example", true, false)

	out := buf.String()
	if strings.Contains(out, "admin@clinic.example") {
		t.Error("audit log contains raw email address")
	}
	if !strings.Contains(out, EventLoginSucceeded) {
		t.Errorf("audit log missing event type %q: %s", EventLoginSucceeded, out)
	}
	if !strings.Contains(out, hashForLogging("admin@clinic.example")) {
		t.Error("audit log missing hashed identity")
	}
}

func TestAuditor_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auditor := NewAuditor(logger, false)

	auditor.LogLogin("admin@clinic.example", false, false)
	auditor.LogSessionExpired("/profile")
	auditor.LogTokenDiscarded("decryption failed")

	if buf.Len() != 0 {
		t.Errorf("disabled auditor wrote output: %s", buf.String())
	}
}

func TestHashForLogging(t *testing.T) {
	if got := hashForLogging(""); got != "" {
		t.Errorf("hashForLogging(\"\") = %q, want empty", got)
	}

	a := hashForLogging("admin@clinic.example")
	b := hashForLogging("admin@clinic.example")
	c := hashForLogging("other@clinic.example")

	if a != b {
		t.Error("hashForLogging() not deterministic")
	}
	if a == c {
		t.Error("hashForLogging() collided for distinct inputs")
	}
	if len(a) != 16 {
		t.Errorf("hashForLogging() length = %d, want 16", len(a))
	}
}
