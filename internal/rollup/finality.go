package rollup

// Finality statuses for an L2 transaction relative to the rollup's
// batch pipeline.
const (
	FinalityPending   = "pending"
	FinalityConfirmed = "confirmed"
	FinalityFinalized = "finalized"
)

// ClassifyFinality maps a transaction's block number against the chain
// head and the latest L1-finalized block.
func ClassifyFinality(txBlock, headBlock, finalizedBlock uint64) string {
	if txBlock == 0 {
		return FinalityPending
	}
	if finalizedBlock > 0 && txBlock <= finalizedBlock {
		return FinalityFinalized
	}
	if txBlock <= headBlock {
		return FinalityConfirmed
	}
	return FinalityPending
}

// Confirmations returns the confirmation depth of a block.
func Confirmations(txBlock, headBlock uint64) uint64 {
	if txBlock == 0 || txBlock > headBlock {
		return 0
	}
	return headBlock - txBlock + 1
}
