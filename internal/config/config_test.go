package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if cfg.RPC.URL != DefaultRPCURL {
		t.Fatalf("expected rpc url %s, got %q", DefaultRPCURL, cfg.RPC.URL)
	}
	if cfg.WS.URL != "wss://api.devnet.solana.com" {
		t.Fatalf("expected ws url derived from rpc, got %q", cfg.WS.URL)
	}
	if cfg.Programs.Percolator != DefaultPercolatorProgramID {
		t.Fatalf("expected percolator default, got %q", cfg.Programs.Percolator)
	}
	if cfg.Programs.Sovereign != DefaultSovereignProgramID {
		t.Fatalf("expected sovereign default, got %q", cfg.Programs.Sovereign)
	}
	if cfg.Watch.Interval <= 0 {
		t.Fatalf("expected watch interval default, got %v", cfg.Watch.Interval)
	}
	if cfg.Telegram.RepeatWindow != 15*time.Minute {
		t.Fatalf("expected 15m repeat window, got %v", cfg.Telegram.RepeatWindow)
	}
	if cfg.RPC.PollInterval <= 0 || cfg.RPC.ConfirmTimeout <= 0 {
		t.Fatalf("expected confirmation defaults, got %v/%v", cfg.RPC.PollInterval, cfg.RPC.ConfirmTimeout)
	}
}

func TestMetricsDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if cfg.Metrics.Enabled == nil || !cfg.Metrics.EnabledValue() {
		t.Fatalf("expected metrics enabled default")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Fatalf("expected /metrics, got %q", cfg.Metrics.Path)
	}

	disabled := false
	cfg = &Config{Metrics: MetricsConfig{Enabled: &disabled}}
	applyDefaults(cfg)
	if cfg.Metrics.EnabledValue() {
		t.Fatalf("expected explicit disable to stick")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "http://localhost:8899")
	t.Setenv("STRATUM_PROGRAM_ID", "11111111111111111111111111111111")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "" +
		"rpc:\n" +
		"  url: https://example.invalid\n" +
		"watch:\n" +
		"  interval: 5s\n" +
		"  slabs:\n" +
		"    - 11111111111111111111111111111111\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPC.URL != "http://localhost:8899" {
		t.Fatalf("expected env rpc url, got %q", cfg.RPC.URL)
	}
	if cfg.WS.URL != "ws://localhost:8899" {
		t.Fatalf("expected derived ws url, got %q", cfg.WS.URL)
	}
	if cfg.Watch.Interval != 5*time.Second {
		t.Fatalf("expected 5s, got %v", cfg.Watch.Interval)
	}
	ids, err := cfg.Programs.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ids.Stratum.String() != "11111111111111111111111111111111" {
		t.Fatalf("unexpected stratum id %s", ids.Stratum)
	}
	if !ids.Sigma.IsZero() {
		t.Fatalf("expected unset sigma to be the zero key, got %s", ids.Sigma)
	}
}

func TestValidateRejectsBadProgramID(t *testing.T) {
	cfg := &Config{Programs: ProgramsConfig{Veil: "not-a-key"}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for invalid program id")
	}
}

func TestValidateRejectsBadCommitment(t *testing.T) {
	cfg := &Config{RPC: RPCConfig{Commitment: "eventually"}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for invalid commitment")
	}
}

func TestValidateTimescaleNeedsDSN(t *testing.T) {
	cfg := &Config{Timescale: TimescaleConfig{Enabled: true}}
	applyDefaults(cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
}
