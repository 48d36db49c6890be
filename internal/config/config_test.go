package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("output: plain\nretries: 1\nnetwork: scroll-sepolia\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SCROLL_OUTPUT", "json")
	t.Setenv("SCROLL_NETWORK", "scroll")
	flags := GlobalFlags{ConfigPath: configPath, Plain: true, Retries: 5, Network: "scroll-sepolia"}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}
	if settings.Network != "scroll-sepolia" {
		t.Fatalf("expected network from flags, got %s", settings.Network)
	}
}

func TestLoadMutuallyExclusiveOutputFlags(t *testing.T) {
	_, err := Load(GlobalFlags{JSON: true, Plain: true})
	if err == nil {
		t.Fatal("expected error with --json and --plain")
	}
}

func TestLoadFileProviderEndpoints(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	body := "providers:\n  scrollscan:\n    base_url: https://example.test/api\n  bundler:\n    url: https://bundler.example.test\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	settings, err := Load(GlobalFlags{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.ScrollscanBaseURL != "https://example.test/api" {
		t.Fatalf("unexpected scrollscan base url: %s", settings.ScrollscanBaseURL)
	}
	if settings.BundlerURL != "https://bundler.example.test" {
		t.Fatalf("unexpected bundler url: %s", settings.BundlerURL)
	}
}
