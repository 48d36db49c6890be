package id

import "testing"

func TestNormalizeAmountBaseUnits(t *testing.T) {
	base, decimal, err := NormalizeAmount("1000000", "", 6)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "1000000" || decimal != "1" {
		t.Fatalf("unexpected result: base=%s decimal=%s", base, decimal)
	}
}

func TestNormalizeAmountDecimal(t *testing.T) {
	base, decimal, err := NormalizeAmount("", "1.5", 18)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "1500000000000000000" || decimal != "1.5" {
		t.Fatalf("unexpected result: base=%s decimal=%s", base, decimal)
	}
}

func TestNormalizeAmountRejectsBoth(t *testing.T) {
	if _, _, err := NormalizeAmount("1", "1", 18); err == nil {
		t.Fatal("expected error when both forms are set")
	}
	if _, _, err := NormalizeAmount("", "", 18); err == nil {
		t.Fatal("expected error when neither form is set")
	}
}

func TestParseUnitsPrecision(t *testing.T) {
	if _, err := ParseUnits("0.1234567", 6); err == nil {
		t.Fatal("expected precision error")
	}
	base, err := ParseUnits("0.000001", 6)
	if err != nil {
		t.Fatalf("ParseUnits failed: %v", err)
	}
	if base != "1" {
		t.Fatalf("unexpected base units: %s", base)
	}
}

func TestFormatUnits(t *testing.T) {
	if out := FormatUnits("1500000000000000000", 18); out != "1.5" {
		t.Fatalf("unexpected format: %s", out)
	}
	if out := FormatUnits("42", 0); out != "42" {
		t.Fatalf("unexpected format: %s", out)
	}
	if out := FormatUnits("1", 6); out != "0.000001" {
		t.Fatalf("unexpected format: %s", out)
	}
}
