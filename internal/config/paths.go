// Package config resolves the on-disk locations and environment settings the
// tfill CLI and fill server use.
package config

import (
	"os"
	"path/filepath"
)

// AppName is the directory name under the user config dir.
const AppName = "tfill"

// Dir returns the tfill config directory (~/.config/tfill on Linux).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, AppName), nil
}

// EnsureDir returns the config directory, creating it if needed.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// TemplatesDir returns the directory holding installed .docx templates.
func TemplatesDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "templates"), nil
}

// EnsureTemplatesDir returns the templates directory, creating it if needed.
func EnsureTemplatesDir() (string, error) {
	dir, err := TemplatesDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}
