package config

import (
	"fmt"
	"os"
	"path/filepath"

	"citybites/internal/sqlite"
)

// AppDirName is the per-user data directory under $HOME
const AppDirName = ".citybites"

// GetAppDir returns ~/.citybites, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// DefaultDBPath returns ~/.citybites/citybites.db
func DefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, sqlite.DefaultDBFileName), nil
}
