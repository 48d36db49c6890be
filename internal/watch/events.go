package watch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
)

// Watch kinds supported by the polling loop.
const (
	KindNewBlock        = "new-block"
	KindFinalizedBlock  = "finalized-block"
	KindTxConfirmed     = "tx-confirmed"
	KindTokenTransfer   = "token-transfer"
	KindNFTTransfer     = "nft-transfer"
	KindContractEvent   = "contract-event"
	KindAddressActivity = "address-activity"
	KindBridgeDeposit   = "bridge-deposit"
	KindBridgeWithdraw  = "bridge-withdrawal"
	KindLargeTx         = "large-tx"
	KindBadgeMint       = "badge-mint"
)

var allKinds = []string{
	KindNewBlock,
	KindFinalizedBlock,
	KindTxConfirmed,
	KindTokenTransfer,
	KindNFTTransfer,
	KindContractEvent,
	KindAddressActivity,
	KindBridgeDeposit,
	KindBridgeWithdraw,
	KindLargeTx,
	KindBadgeMint,
}

func Kinds() []string {
	out := make([]string, len(allKinds))
	copy(out, allKinds)
	return out
}

// Spec describes one watch. Not every field applies to every kind.
type Spec struct {
	Kind          string
	ChainID       int64
	Address       string // token-transfer / address-activity filter
	Contract      string // contract-event / nft-transfer / badge-mint target
	Topic         string // contract-event topic0 filter
	TxHash        string // tx-confirmed target
	Confirmations uint64 // tx-confirmed depth, default 1
	ThresholdWei  string // large-tx value threshold
	Window        uint64 // max blocks scanned per poll
}

func (s Spec) Validate() error {
	kind := strings.TrimSpace(s.Kind)
	found := false
	for _, k := range allKinds {
		if k == kind {
			found = true
			break
		}
	}
	if !found {
		return clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown watch kind %q", s.Kind))
	}
	switch kind {
	case KindTxConfirmed:
		if strings.TrimSpace(s.TxHash) == "" {
			return clierr.New(clierr.CodeUsage, "tx-confirmed watch requires --tx")
		}
	case KindTokenTransfer, KindNFTTransfer, KindContractEvent:
		if strings.TrimSpace(s.Contract) == "" {
			return clierr.New(clierr.CodeUsage, kind+" watch requires --contract")
		}
	case KindAddressActivity:
		if strings.TrimSpace(s.Address) == "" {
			return clierr.New(clierr.CodeUsage, "address-activity watch requires --address")
		}
	case KindLargeTx:
		if strings.TrimSpace(s.ThresholdWei) == "" {
			return clierr.New(clierr.CodeUsage, "large-tx watch requires --threshold-wei")
		}
	}
	return nil
}

// ID derives a stable identifier for this watch so cursors survive
// restarts with identical parameters.
func (s Spec) ID() string {
	parts := []string{
		"kind=" + s.Kind,
		fmt.Sprintf("chain=%d", s.ChainID),
		"address=" + strings.ToLower(strings.TrimSpace(s.Address)),
		"contract=" + strings.ToLower(strings.TrimSpace(s.Contract)),
		"topic=" + strings.ToLower(strings.TrimSpace(s.Topic)),
		"tx=" + strings.ToLower(strings.TrimSpace(s.TxHash)),
		"threshold=" + strings.TrimSpace(s.ThresholdWei),
	}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return s.Kind + "-" + hex.EncodeToString(sum[:8])
}
