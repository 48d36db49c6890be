// Package signer provides local transaction and message signing. Keys are
// sourced from the environment, a key file, or a keystore; nothing here
// talks to the network.
package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer signs transactions and personal messages for a single address.
type Signer interface {
	Address() common.Address
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
	SignMessage(message []byte) ([]byte, error)
}
