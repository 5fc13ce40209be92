// Package config handles runtime configuration for a walletkit-based
// application: checkpoint retention, the persistence path, and logging.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config holds runtime settings for a tracker process. None of these are
// protocol rules — they only affect how much history this process keeps
// and where it keeps it.
type Config struct {
	// DataDir is the root directory for persisted change logs and the
	// HD wallet keystore.
	DataDir string `conf:"datadir"`

	// CheckpointLimit bounds how many confirmed checkpoints a SparseChain
	// retains before pruning the oldest. Zero means unbounded.
	CheckpointLimit uint32 `conf:"checkpoint_limit"`

	// Wallet holds the reference HD descriptor settings.
	Wallet WalletConfig

	// Log holds structured logging settings.
	Log LogConfig
}

// WalletConfig holds reference HD descriptor settings.
type WalletConfig struct {
	KeystorePath string `conf:"wallet.keystore"`
	CoinType     uint32 `conf:"wallet.cointype"`
	Account      uint32 `conf:"wallet.account"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.walletkit
//	macOS:   ~/Library/Application Support/Walletkit
//	Windows: %APPDATA%\Walletkit
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".walletkit"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Walletkit")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Walletkit")
		}
		return filepath.Join(home, "AppData", "Roaming", "Walletkit")
	default:
		return filepath.Join(home, ".walletkit")
	}
}

// ChangeLogDir returns the directory for the persisted change log.
func (c *Config) ChangeLogDir() string {
	return filepath.Join(c.DataDir, "changelog")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "walletkit.conf")
}
