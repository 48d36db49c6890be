package rollup

import (
	"testing"
	"time"

	"github.com/scrollkit/scroll-cli/internal/model"
)

func TestAvgFinalizeInterval(t *testing.T) {
	batches := []model.BatchSummary{
		{CommittedAtUNIX: 1000, FinalizedAtUNIX: 1600}, // 600s
		{CommittedAtUNIX: 2000, FinalizedAtUNIX: 3200}, // 1200s
		{CommittedAtUNIX: 5000, FinalizedAtUNIX: 4000}, // inverted, skipped
		{CommittedAtUNIX: 0, FinalizedAtUNIX: 100},     // missing, skipped
	}
	avg, samples := AvgFinalizeInterval(batches)
	if samples != 2 {
		t.Fatalf("expected 2 valid samples, got %d", samples)
	}
	if avg != 900 {
		t.Fatalf("expected 900s average, got %d", avg)
	}
}

func TestAvgFinalizeIntervalCapsAtDefault(t *testing.T) {
	batches := []model.BatchSummary{
		{CommittedAtUNIX: 1, FinalizedAtUNIX: 100_000},
	}
	avg, samples := AvgFinalizeInterval(batches)
	if samples != 1 {
		t.Fatalf("expected 1 sample, got %d", samples)
	}
	if avg != DefaultFinalizeSeconds {
		t.Fatalf("expected cap at %d, got %d", DefaultFinalizeSeconds, avg)
	}
}

func TestAvgFinalizeIntervalEmptyUsesDefault(t *testing.T) {
	avg, samples := AvgFinalizeInterval(nil)
	if samples != 0 || avg != DefaultFinalizeSeconds {
		t.Fatalf("expected default with no samples, got avg=%d samples=%d", avg, samples)
	}
}

func TestEstimateFinalization(t *testing.T) {
	now := time.Unix(10_000, 0)
	batch := model.BatchSummary{Status: "committed", CommittedAtUNIX: 9_000}
	got := EstimateFinalization(batch, 2_000, now)
	want := time.Unix(11_000, 0).UTC().Format(time.RFC3339)
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if got := EstimateFinalization(model.BatchSummary{Status: "finalized"}, 2_000, now); got != "" {
		t.Fatalf("expected empty estimate for finalized batch, got %s", got)
	}

	// Commit time far in the past: estimate must not be before now.
	stale := model.BatchSummary{Status: "committed", CommittedAtUNIX: 1_000}
	got = EstimateFinalization(stale, 2_000, now)
	eta, err := time.Parse(time.RFC3339, got)
	if err != nil {
		t.Fatalf("parse estimate: %v", err)
	}
	if eta.Before(now) {
		t.Fatalf("estimate %s is before now %s", eta, now)
	}
}

func TestBridgeEstimateFromSamples(t *testing.T) {
	est := BridgeEstimateFromSamples("withdraw", 1234, 5)
	if est.EstimatedSeconds != 1234 || est.Basis != "recent-batches" {
		t.Fatalf("unexpected estimate: %+v", est)
	}
	est = BridgeEstimateFromSamples("withdraw", 1234, 0)
	if est.EstimatedSeconds != DefaultWithdrawSeconds || est.Basis != "default" {
		t.Fatalf("expected default fallback: %+v", est)
	}
	est = BridgeEstimateFromSamples("deposit", 1234, 5)
	if est.EstimatedSeconds != DefaultDepositSeconds {
		t.Fatalf("deposit estimate should ignore batch samples: %+v", est)
	}
}

func TestClassifyFinality(t *testing.T) {
	if got := ClassifyFinality(0, 100, 50); got != FinalityPending {
		t.Fatalf("expected pending, got %s", got)
	}
	if got := ClassifyFinality(40, 100, 50); got != FinalityFinalized {
		t.Fatalf("expected finalized, got %s", got)
	}
	if got := ClassifyFinality(80, 100, 50); got != FinalityConfirmed {
		t.Fatalf("expected confirmed, got %s", got)
	}
	if got := ClassifyFinality(200, 100, 50); got != FinalityPending {
		t.Fatalf("expected pending for future block, got %s", got)
	}
}

func TestConfirmations(t *testing.T) {
	if got := Confirmations(95, 100); got != 6 {
		t.Fatalf("expected 6 confirmations, got %d", got)
	}
	if got := Confirmations(0, 100); got != 0 {
		t.Fatalf("expected 0 confirmations for pending tx, got %d", got)
	}
}
