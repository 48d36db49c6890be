package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

// L1GasPriceOracle storage layout (pre-Curie fields).
const (
	oracleSlotL1BaseFee = 1
	oracleSlotOverhead  = 2
	oracleSlotScalar    = 3

	// scalar values are fixed-point with 1e9 precision
	oraclePrecision = 1_000_000_000

	L1FeeSourceOracle = "oracle"
	L1FeeSourceSlots  = "slots"
)

// L1DataFee returns the rollup data fee for a transaction payload.
// It prefers the oracle's getL1Fee view and falls back to reading the
// oracle's storage slots and recomputing the fee locally.
func L1DataFee(ctx context.Context, client *ethclient.Client, payload []byte) (*big.Int, string, error) {
	oracle := common.HexToAddress(registry.L1GasPriceOracleAddress)
	parsed, err := ParseABI(registry.L1GasPriceOracleABI)
	if err != nil {
		return nil, "", err
	}
	data, err := parsed.Pack("getL1Fee", payload)
	if err != nil {
		return nil, "", clierr.Wrap(clierr.CodeInternal, "pack getL1Fee", err)
	}
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &oracle, Data: data}, nil)
	if err == nil && len(raw) >= 32 {
		return new(big.Int).SetBytes(raw), L1FeeSourceOracle, nil
	}

	params, err := ReadOracleParams(ctx, client)
	if err != nil {
		return nil, "", err
	}
	return ComputeL1DataFee(params, payload), L1FeeSourceSlots, nil
}

// OracleParams holds the L1GasPriceOracle fee parameters.
type OracleParams struct {
	L1BaseFee *big.Int
	Overhead  *big.Int
	Scalar    *big.Int
}

// ReadOracleParams reads the oracle's fee parameters from its storage slots.
func ReadOracleParams(ctx context.Context, client *ethclient.Client) (OracleParams, error) {
	oracle := common.HexToAddress(registry.L1GasPriceOracleAddress)
	read := func(slot int64) (*big.Int, error) {
		raw, err := client.StorageAt(ctx, oracle, common.BigToHash(big.NewInt(slot)), nil)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUnavailable, "read oracle storage", err)
		}
		return new(big.Int).SetBytes(raw), nil
	}
	baseFee, err := read(oracleSlotL1BaseFee)
	if err != nil {
		return OracleParams{}, err
	}
	overhead, err := read(oracleSlotOverhead)
	if err != nil {
		return OracleParams{}, err
	}
	scalar, err := read(oracleSlotScalar)
	if err != nil {
		return OracleParams{}, err
	}
	return OracleParams{L1BaseFee: baseFee, Overhead: overhead, Scalar: scalar}, nil
}

// ComputeL1DataFee applies the oracle's fee formula locally:
// l1BaseFee * (calldataGas + overhead) * scalar / 1e9, where calldata
// gas charges 4 per zero byte and 16 per non-zero byte.
func ComputeL1DataFee(params OracleParams, payload []byte) *big.Int {
	gas := CalldataGas(payload)
	total := new(big.Int).Add(gas, params.Overhead)
	fee := new(big.Int).Mul(params.L1BaseFee, total)
	fee.Mul(fee, params.Scalar)
	return fee.Div(fee, big.NewInt(oraclePrecision))
}

// CalldataGas returns the intrinsic calldata gas for a payload.
func CalldataGas(payload []byte) *big.Int {
	var zeroes, nonZeroes int64
	for _, b := range payload {
		if b == 0 {
			zeroes++
		} else {
			nonZeroes++
		}
	}
	return big.NewInt(zeroes*4 + nonZeroes*16)
}
