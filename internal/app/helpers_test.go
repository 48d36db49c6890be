package app

import (
	"testing"
	"time"
)

func TestParseBig(t *testing.T) {
	v, err := parseBig("12345", "--amount")
	if err != nil || v.String() != "12345" {
		t.Fatalf("unexpected result: %v %v", v, err)
	}
	if _, err := parseBig("-1", "--amount"); err == nil {
		t.Fatalf("expected error for negative value")
	}
	if _, err := parseBig("0x10", "--amount"); err == nil {
		t.Fatalf("expected error for hex value")
	}
	if _, err := parseBig("", "--amount"); err == nil {
		t.Fatalf("expected error for empty value")
	}
}

func TestNormalizeNFTStandard(t *testing.T) {
	for input, want := range map[string]string{
		"":        "erc721",
		"721":     "erc721",
		"ERC1155": "erc1155",
	} {
		got, err := normalizeNFTStandard(input)
		if err != nil || got != want {
			t.Fatalf("normalizeNFTStandard(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := normalizeNFTStandard("erc20"); err == nil {
		t.Fatalf("expected error for erc20")
	}
}

func TestNormalizeBridgeDirection(t *testing.T) {
	for input, want := range map[string]string{
		"deposit":    "deposit",
		"L1-to-L2":   "deposit",
		"withdrawal": "withdraw",
		"l2-to-l1":   "withdraw",
	} {
		got, err := normalizeBridgeDirection(input)
		if err != nil || got != want {
			t.Fatalf("normalizeBridgeDirection(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := normalizeBridgeDirection("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestUnitExponent(t *testing.T) {
	if exp, err := unitExponent("GWEI", 0); err != nil || exp != 9 {
		t.Fatalf("unexpected gwei exponent: %d %v", exp, err)
	}
	if exp, err := unitExponent("token", 6); err != nil || exp != 6 {
		t.Fatalf("unexpected token exponent: %d %v", exp, err)
	}
	if _, err := unitExponent("parsecs", 0); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
}

func TestParseCallSpec(t *testing.T) {
	spec, err := parseCallSpec("0xcA11bde05977b3631167028862bE2a173976CA11|balanceOf|0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.method != "balanceOf" || len(spec.args) != 1 {
		t.Fatalf("unexpected spec: %#v", spec)
	}

	spec, err = parseCallSpec("0xcA11bde05977b3631167028862bE2a173976CA11|getBlockNumber")
	if err != nil || len(spec.args) != 0 {
		t.Fatalf("unexpected no-arg spec: %#v %v", spec, err)
	}

	if _, err := parseCallSpec("just-an-address"); err == nil {
		t.Fatalf("expected error for malformed spec")
	}
}

func TestResolveEntryPoint(t *testing.T) {
	v07, err := resolveEntryPoint("")
	if err != nil || v07 != "0x0000000071727De22E5E9d8BAf0edAc6f37da032" {
		t.Fatalf("unexpected default entry point: %s %v", v07, err)
	}
	v06, err := resolveEntryPoint("v0.6")
	if err != nil || v06 != "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789" {
		t.Fatalf("unexpected v0.6 entry point: %s %v", v06, err)
	}
	if _, err := resolveEntryPoint("v2"); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}

func TestLoadUserOpRequiresSender(t *testing.T) {
	if _, err := loadUserOp(`{"callData":"0x"}`, ""); err == nil {
		t.Fatalf("expected error for missing sender")
	}
	op, err := loadUserOp(`{"sender":"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"}`, "")
	if err != nil || op["sender"] == nil {
		t.Fatalf("unexpected result: %v %v", op, err)
	}
	if _, err := loadUserOp("", ""); err == nil {
		t.Fatalf("expected error when no source given")
	}
}

func TestCAIP2(t *testing.T) {
	if got := caip2(534352); got != "eip155:534352" {
		t.Fatalf("unexpected caip2: %s", got)
	}
}

func TestStaleExceedsBudget(t *testing.T) {
	if staleExceedsBudget(5*time.Second, 10*time.Second, 0) {
		t.Fatalf("fresh entry should not exceed budget")
	}
	if !staleExceedsBudget(30*time.Second, 10*time.Second, 5*time.Second) {
		t.Fatalf("entry past ttl+maxStale should exceed budget")
	}
	if staleExceedsBudget(12*time.Second, 10*time.Second, 5*time.Second) {
		t.Fatalf("entry within stale budget should not exceed it")
	}
}

func TestJitterStaysNearInterval(t *testing.T) {
	base := 10 * time.Second
	for i := 0; i < 100; i++ {
		d := jitter(base)
		if d < 9*time.Second || d > 11*time.Second {
			t.Fatalf("jitter out of range: %v", d)
		}
	}
}
