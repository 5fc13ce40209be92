package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_Nonexistent(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected no values for a missing file, got %v", values)
	}
}

func TestLoadFile_ParsesKeyValueLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walletkit.conf")
	content := `# a comment
checkpoint_limit = 50
wallet.account = 1
log.level = "debug"
log.json = true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if values["checkpoint_limit"] != "50" {
		t.Errorf("checkpoint_limit = %q, want %q", values["checkpoint_limit"], "50")
	}
	if values["log.level"] != "debug" {
		t.Errorf("log.level = %q, want %q (quotes should be stripped)", values["log.level"], "debug")
	}
}

func TestLoadFile_RejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.conf")
	os.WriteFile(path, []byte("not a key value line\n"), 0600)

	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error for a malformed line")
	}
}

func TestApplyFileConfig(t *testing.T) {
	cfg := Default()
	values := map[string]string{
		"checkpoint_limit": "250",
		"wallet.cointype":  "7",
		"wallet.account":   "2",
		"log.level":        "warn",
		"log.json":         "yes",
		"unknown.key":      "ignored",
	}

	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig() error: %v", err)
	}
	if cfg.CheckpointLimit != 250 {
		t.Errorf("CheckpointLimit = %d, want 250", cfg.CheckpointLimit)
	}
	if cfg.Wallet.CoinType != 7 {
		t.Errorf("Wallet.CoinType = %d, want 7", cfg.Wallet.CoinType)
	}
	if cfg.Wallet.Account != 2 {
		t.Errorf("Wallet.Account = %d, want 2", cfg.Wallet.Account)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON should be true for value \"yes\"")
	}
}

func TestApplyFileConfig_RejectsBadInteger(t *testing.T) {
	cfg := Default()
	err := ApplyFileConfig(cfg, map[string]string{"checkpoint_limit": "not-a-number"})
	if err == nil {
		t.Error("expected an error for a non-numeric checkpoint_limit")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletkit.conf")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig() error: %v", err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if values["checkpoint_limit"] != "100" {
		t.Errorf("checkpoint_limit = %q, want %q", values["checkpoint_limit"], "100")
	}
}
