package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CONIA_SYNC_CONFIG_PATH: config file location (default: ~/.config/conia-sync.toml)
//   - CONIA_SYNC_HOME: base directory for conia-sync data (default: ~/.local/share/conia-sync)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking CONIA_SYNC_CONFIG_PATH
// first, then falling back to the default ~/.config/conia-sync.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("CONIA_SYNC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "conia-sync.toml"), nil
}

// getBaseDir returns the base directory for conia-sync data, checking
// CONIA_SYNC_HOME first, then falling back to the XDG default
// ~/.local/share/conia-sync.
func getBaseDir() (string, error) {
	if path := os.Getenv("CONIA_SYNC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "conia-sync"), nil
}
