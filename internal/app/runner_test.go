package app

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrimRootPath(t *testing.T) {
	if got := trimRootPath("scroll account balance"); got != "account balance" {
		t.Fatalf("unexpected trim result: %s", got)
	}
}

func TestShouldOpenCache(t *testing.T) {
	cases := map[string]bool{
		"account balance": true,
		"batch latest":    true,
		"util checksum":   false,
		"session list":    false,
		"watch run":       false,
		"providers list":  false,
		"networks":        false,
		"version":         false,
		"":                false,
	}
	for path, want := range cases {
		if got := shouldOpenCache(path); got != want {
			t.Fatalf("shouldOpenCache(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestRunnerProvidersList(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run([]string{"providers", "list", "--results-only"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse output json: %v output=%s", err, stdout.String())
	}
	if len(out) == 0 {
		t.Fatalf("expected providers output, got empty")
	}
}

func TestRunnerErrorEnvelopeIgnoresResultsOnly(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run([]string{"gas", "price", "--enable-commands", "account balance", "--results-only"})
	if code != 16 {
		t.Fatalf("expected exit 16, got %d stderr=%s", code, stderr.String())
	}
	var env map[string]any
	if err := json.Unmarshal(stderr.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse error envelope: %v output=%s", err, stderr.String())
	}
	if env["success"] != false {
		t.Fatalf("expected success=false, got %v", env["success"])
	}
}

func TestRunnerRejectsNonScrollNetwork(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run([]string{"networks", "--network", "ethereum"})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d stderr=%s", code, stderr.String())
	}
}

func TestRunnerNetworksList(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run([]string{"networks", "--results-only"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse output json: %v output=%s", err, stdout.String())
	}
	if len(out) != 2 {
		t.Fatalf("expected two networks, got %d", len(out))
	}
}

func TestRunnerSessionEnvelopeFields(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("SCROLL_WATCH_STORE_PATH", filepath.Join(tmp, "watch.db"))
	t.Setenv("SCROLL_WATCH_LOCK_PATH", filepath.Join(tmp, "watch.lock"))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run([]string{"session", "new", "--label", "ops"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var env map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v output=%s", err, stdout.String())
	}

	warnings, ok := env["warnings"].([]any)
	if !ok || len(warnings) == 0 {
		t.Fatalf("expected the one-time key warning under warnings, got %v", env["warnings"])
	}
	if w, _ := warnings[0].(string); !strings.Contains(w, "not stored") {
		t.Fatalf("unexpected warning text: %v", warnings[0])
	}

	meta, ok := env["meta"].(map[string]any)
	if !ok {
		t.Fatalf("missing meta: %s", stdout.String())
	}
	if providers, ok := meta["providers"]; ok {
		t.Fatalf("offline command must not report provider statuses, got %v", providers)
	}

	data, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data: %s", stdout.String())
	}
	record, ok := data["record"].(map[string]any)
	if !ok || record["label"] != "ops" {
		t.Fatalf("unexpected record: %v", data["record"])
	}
	if key, _ := data["private_key"].(string); !strings.HasPrefix(key, "0x") || len(key) != 66 {
		t.Fatalf("unexpected private key shape: %v", data["private_key"])
	}
}
