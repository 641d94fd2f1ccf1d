package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataPaths holds the detected locations for local client state
type DataPaths struct {
	BasePath   string // per-user data directory
	ConfigFile string // optional config.yaml
	EnvFile    string // optional .env
}

// DetectDataPaths detects the data directory based on the operating system
func DetectDataPaths() (DataPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var basePath string
	switch runtime.GOOS {
	case "darwin":
		basePath = filepath.Join(home, "Library/Application Support/HorizonChat")
	case "linux":
		// XDG_DATA_HOME wins over the default ~/.local/share
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
			basePath = filepath.Join(xdg, "horizon-chat")
		} else {
			basePath = filepath.Join(home, ".local/share/horizon-chat")
		}
	case "windows":
		appData := os.Getenv("AppData")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		basePath = filepath.Join(appData, "HorizonChat")
	default:
		return DataPaths{}, fmt.Errorf("unsupported OS: %s (only macOS, Linux and Windows are supported)", runtime.GOOS)
	}

	return NewDataPaths(basePath), nil
}

// NewDataPaths builds DataPaths rooted at basePath
func NewDataPaths(basePath string) DataPaths {
	return DataPaths{
		BasePath:   basePath,
		ConfigFile: filepath.Join(basePath, "config.yaml"),
		EnvFile:    filepath.Join(basePath, ".env"),
	}
}

// Exists checks if the data directory exists
func (dp DataPaths) Exists() bool {
	info, err := os.Stat(dp.BasePath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// HasConfigFile checks if a config file is present
func (dp DataPaths) HasConfigFile() bool {
	_, err := os.Stat(dp.ConfigFile)
	return err == nil
}

// EnsureDir creates the data directory if needed
func (dp DataPaths) EnsureDir() error {
	if err := os.MkdirAll(dp.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
