package evm

import (
	"math/big"
	"testing"
)

func TestCalldataGas(t *testing.T) {
	if got := CalldataGas(nil); got.Sign() != 0 {
		t.Fatalf("expected zero gas for empty payload, got %s", got)
	}
	payload := []byte{0x00, 0x00, 0x01, 0xff}
	if got := CalldataGas(payload); got.Int64() != 2*4+2*16 {
		t.Fatalf("expected 40 gas, got %s", got)
	}
}

func TestComputeL1DataFee(t *testing.T) {
	params := OracleParams{
		L1BaseFee: big.NewInt(10_000_000_000), // 10 gwei
		Overhead:  big.NewInt(2100),
		Scalar:    big.NewInt(1_100_000_000), // 1.1x
	}
	payload := []byte{0x01, 0x02} // 32 calldata gas
	// 10e9 * (32 + 2100) * 1.1e9 / 1e9
	want := new(big.Int).Mul(big.NewInt(10_000_000_000), big.NewInt(2132))
	want.Mul(want, big.NewInt(1_100_000_000))
	want.Div(want, big.NewInt(1_000_000_000))
	if got := ComputeL1DataFee(params, payload); got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
