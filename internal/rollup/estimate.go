package rollup

import (
	"math"
	"time"

	"github.com/scrollkit/scroll-cli/internal/model"
)

// Default estimates used when no recent samples are available. The
// averaged estimate is capped at these values so a burst of slow
// batches never produces an unbounded prediction.
const (
	DefaultFinalizeSeconds = 3600 // batch finalization on L1
	DefaultDepositSeconds  = 900  // L1 -> L2 message relay
	DefaultWithdrawSeconds = 3600 // L2 -> L1 claim readiness
)

// AvgFinalizeInterval averages commit-to-finalize time over recent
// finalized batches, filtering samples with missing or inverted
// timestamps. Returns the capped average in seconds and the number of
// valid samples.
func AvgFinalizeInterval(batches []model.BatchSummary) (int64, int) {
	secs := make([]float64, 0, len(batches))
	for _, b := range batches {
		if b.CommittedAtUNIX <= 0 || b.FinalizedAtUNIX <= 0 || b.CommittedAtUNIX > b.FinalizedAtUNIX {
			continue
		}
		secs = append(secs, float64(b.FinalizedAtUNIX-b.CommittedAtUNIX))
	}
	if len(secs) == 0 {
		return DefaultFinalizeSeconds, 0
	}
	sum := float64(0)
	for _, s := range secs {
		sum += s
	}
	avg := int64(math.Ceil(sum / float64(len(secs))))
	if avg > DefaultFinalizeSeconds {
		avg = DefaultFinalizeSeconds
	}
	return avg, len(secs)
}

// EstimateFinalization predicts when a committed batch will finalize,
// given the averaged interval and the batch's commit time.
func EstimateFinalization(batch model.BatchSummary, avgSeconds int64, now time.Time) string {
	if batch.Status == "finalized" || batch.Status == "skipped" {
		return ""
	}
	base := now
	if batch.CommittedAtUNIX > 0 {
		base = time.Unix(batch.CommittedAtUNIX, 0)
	}
	eta := base.Add(time.Duration(avgSeconds) * time.Second)
	if eta.Before(now) {
		// Already past the average interval; report a short horizon
		// instead of a time in the past.
		eta = now.Add(time.Duration(avgSeconds) * time.Second / 4)
	}
	return eta.UTC().Format(time.RFC3339)
}

// BridgeEstimate returns the expected relay time for a bridge transfer
// direction ("deposit" or "withdraw").
func BridgeEstimate(direction string) model.BridgeTimeEstimate {
	switch direction {
	case "deposit":
		return model.BridgeTimeEstimate{
			Direction:        "deposit",
			EstimatedSeconds: DefaultDepositSeconds,
			Basis:            "default",
		}
	default:
		return model.BridgeTimeEstimate{
			Direction:        "withdraw",
			EstimatedSeconds: DefaultWithdrawSeconds,
			Basis:            "default",
		}
	}
}

// BridgeEstimateFromSamples refines the withdraw estimate using the
// observed finalization average, since a withdrawal becomes claimable
// once its batch finalizes.
func BridgeEstimateFromSamples(direction string, avgFinalizeSeconds int64, samples int) model.BridgeTimeEstimate {
	est := BridgeEstimate(direction)
	if direction == "withdraw" && samples > 0 {
		est.EstimatedSeconds = avgFinalizeSeconds
		est.Basis = "recent-batches"
	}
	return est
}
