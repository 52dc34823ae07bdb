package keystore

import (
	"errors"
	"os"
)

// PassphraseEnvVar names the variable holding the keystore passphrase.
const PassphraseEnvVar = "WIT_KEYSTORE_PASSPHRASE"

// MasterKeySource supplies the secret the file encryption key is derived from.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// EnvMasterKey reads the master key from an environment variable.
type EnvMasterKey struct {
	Var string
}

// GetMasterKey implements MasterKeySource.
func (e EnvMasterKey) GetMasterKey() ([]byte, error) {
	v := os.Getenv(e.Var)
	if v == "" {
		return nil, errors.New("keystore: " + e.Var + " is not set")
	}
	return []byte(v), nil
}

// MachineMasterKey derives the master key from the host and user name.
// It only keeps tokens away from casual reads of the file; set
// WIT_KEYSTORE_PASSPHRASE for real protection.
type MachineMasterKey struct{}

// GetMasterKey implements MasterKeySource.
func (MachineMasterKey) GetMasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	return []byte(hostname + ":" + username + ":wit-keystore"), nil
}

// StaticMasterKey is a fixed master key, mainly for tests.
type StaticMasterKey []byte

// GetMasterKey implements MasterKeySource.
func (s StaticMasterKey) GetMasterKey() ([]byte, error) {
	if len(s) == 0 {
		return nil, errors.New("keystore: empty master key")
	}
	return []byte(s), nil
}

// DefaultMasterKeySource prefers WIT_KEYSTORE_PASSPHRASE and falls back to
// the machine-derived key.
func DefaultMasterKeySource() MasterKeySource {
	if os.Getenv(PassphraseEnvVar) != "" {
		return EnvMasterKey{Var: PassphraseEnvVar}
	}
	return MachineMasterKey{}
}
