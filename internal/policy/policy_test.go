package policy

import "testing"

func TestCheckCommandAllowed(t *testing.T) {
	if err := CheckCommandAllowed(nil, "tx send"); err != nil {
		t.Fatalf("unexpected error with empty allowlist: %v", err)
	}
	if err := CheckCommandAllowed([]string{"tx send"}, "tx send"); err != nil {
		t.Fatalf("expected command to be allowed: %v", err)
	}
	if err := CheckCommandAllowed([]string{"  TX   Send "}, "tx send"); err != nil {
		t.Fatalf("expected normalized command to be allowed: %v", err)
	}
	if err := CheckCommandAllowed([]string{"token approve"}, "tx send"); err == nil {
		t.Fatal("expected command to be blocked")
	}
}
