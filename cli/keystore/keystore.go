// Package keystore provides encrypted storage for Wit API tokens.
package keystore

import (
	"os"
	"path/filepath"
	"runtime"
)

// Keystore defines the interface for secure token storage.
type Keystore interface {
	// Set stores a token under name.
	Set(name, value string) error
	// Get retrieves a token by name. Returns *ErrKeyNotFound if missing.
	Get(name string) (string, error)
	// Delete removes a token by name.
	Delete(name string) error
	// List returns all stored names, sorted.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.wit/keys.enc
// - Windows: %USERPROFILE%\.wit\keys.enc
func DefaultKeystorePath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "keys.enc"
	}

	return filepath.Join(homeDir, ".wit", "keys.enc")
}

// NewKeystore opens the default keystore with the default master key source.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath(), DefaultMasterKeySource())
}
