package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

func TestPackCallERC20BalanceOf(t *testing.T) {
	parsed, err := ParseABI(registry.ERC20ABI)
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	data, err := PackCall(parsed, "balanceOf", []string{"0x5300000000000000000000000000000000000004"})
	if err != nil {
		t.Fatalf("PackCall failed: %v", err)
	}
	if len(data) != 4+32 {
		t.Fatalf("unexpected calldata length %d", len(data))
	}
	// balanceOf(address) selector
	if got := common.Bytes2Hex(data[:4]); got != "70a08231" {
		t.Fatalf("unexpected selector %s", got)
	}
}

func TestPackCallArgumentCountMismatch(t *testing.T) {
	parsed, err := ParseABI(registry.ERC20ABI)
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	if _, err := PackCall(parsed, "balanceOf", nil); err == nil {
		t.Fatal("expected argument count error")
	}
	if _, err := PackCall(parsed, "noSuchMethod", nil); err == nil {
		t.Fatal("expected missing method error")
	}
}

func TestPackCallCoercesTransferArgs(t *testing.T) {
	parsed, err := ParseABI(registry.ERC20ABI)
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	data, err := PackCall(parsed, "transfer", []string{
		"0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4",
		"1000000",
	})
	if err != nil {
		t.Fatalf("PackCall failed: %v", err)
	}
	if len(data) != 4+64 {
		t.Fatalf("unexpected calldata length %d", len(data))
	}
}

func TestParseGwei(t *testing.T) {
	got, err := ParseGwei("1.5")
	if err != nil {
		t.Fatalf("ParseGwei failed: %v", err)
	}
	if got.Cmp(big.NewInt(1_500_000_000)) != 0 {
		t.Fatalf("expected 1.5 gwei in wei, got %s", got)
	}
	if _, err := ParseGwei("-1"); err == nil {
		t.Fatal("expected error for negative value")
	}
	if _, err := ParseGwei("0.0000000001"); err == nil {
		t.Fatal("expected error for sub-wei value")
	}
}

func TestDecodeHex(t *testing.T) {
	buf, err := DecodeHex("0xdeadbeef")
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}
	if len(buf) != 4 {
		t.Fatalf("unexpected length %d", len(buf))
	}
	if buf, err = DecodeHex(""); err != nil || len(buf) != 0 {
		t.Fatalf("expected empty decode, got %v %v", buf, err)
	}
	if _, err := DecodeHex("0xzz"); err == nil {
		t.Fatal("expected invalid hex error")
	}
}

func TestFormatValues(t *testing.T) {
	values := []any{
		big.NewInt(42),
		common.HexToAddress("0x5300000000000000000000000000000000000004"),
		true,
		[]byte{0xab},
		"hello",
	}
	got := FormatValues(values)
	want := []string{
		"42",
		"0x5300000000000000000000000000000000000004",
		"true",
		"0xab",
		"hello",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected length %d", len(got))
	}
	for i := range want {
		if !strings.EqualFold(got[i], want[i]) {
			t.Fatalf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
