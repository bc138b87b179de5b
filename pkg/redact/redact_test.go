package redact

import (
	"strings"
	"testing"
)

func TestRedactDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)
	in := "notify a@b.com at +62 812 3456 7890"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
	if got := Phone("+15550001234"); got != "+15550001234" {
		t.Fatalf("expected raw phone when disabled, got %q", got)
	}
}

func TestRedactText(t *testing.T) {
	SetEnabled(true)
	in := "notify a@b.com at +62 812 3456 7890"
	got := Text(in)
	if got == in {
		t.Fatalf("expected redaction")
	}
	if want := "[REDACTED_EMAIL]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
	if want := "[REDACTED_PHONE]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
}

func TestPhoneKeepsLastDigits(t *testing.T) {
	SetEnabled(true)
	got := Phone("+15550001234")
	if strings.Count(got, "•") != 8 {
		t.Fatalf("expected 8 masked digits, got %q", got)
	}
	if !strings.HasSuffix(got, "234") {
		t.Fatalf("expected trailing digits preserved, got %q", got)
	}
	if Phone("911") != "[REDACTED_PHONE]" {
		t.Fatalf("short numbers must be fully masked")
	}
}
